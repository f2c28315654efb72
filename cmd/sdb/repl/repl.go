// Package repl implements the interactive front-end: a liner-backed
// read-eval-print loop dispatching to a table of command handlers, the
// same shape as the teacher's pkg/terminal package.
package repl

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/go-delve/liner"

	"github.com/Nekketsu/Sdb/internal/config"
	"github.com/Nekketsu/Sdb/sdb"
)

const historyFileName = "history"

// cmdFunc handles one command invocation; args is everything after the
// command word, already trimmed.
type cmdFunc func(r *REPL, args string) error

type command struct {
	aliases []string
	helpMsg string
	fn      cmdFunc
}

func (c command) match(word string) bool {
	for _, a := range c.aliases {
		if a == word {
			return true
		}
	}
	return false
}

// REPL owns the traced process, the liner line editor, and the command
// table. Commands mutate proc directly; there is exactly one REPL per
// debugging session.
type REPL struct {
	proc   *sdb.Process
	line   *liner.State
	cmds   []command
	conf   *config.Config
	stdout io.Writer
	quit   bool
}

// New builds a REPL already attached to a running inferior.
func New(proc *sdb.Process, conf *config.Config) *REPL {
	r := &REPL{
		proc:   proc,
		line:   liner.NewLiner(),
		conf:   conf,
		stdout: os.Stdout,
	}
	r.cmds = builtinCommands()
	if conf != nil {
		r.mergeAliases(conf.Aliases)
	}
	r.line.SetCtrlCAborts(true)
	r.line.SetCompleter(func(line string) (out []string) {
		for _, c := range r.cmds {
			for _, a := range c.aliases {
				if strings.HasPrefix(a, strings.ToLower(line)) {
					out = append(out, a)
				}
			}
		}
		sort.Strings(out)
		return out
	})
	return r
}

func (r *REPL) mergeAliases(extra map[string][]string) {
	for name, aliases := range extra {
		for i := range r.cmds {
			if r.cmds[i].match(name) {
				r.cmds[i].aliases = append(r.cmds[i].aliases, aliases...)
			}
		}
	}
}

// Run reads commands from stdin until the inferior exits, the user quits,
// or EOF. Returns a process exit code.
func (r *REPL) Run() int {
	defer r.line.Close()

	if path, err := config.ConfigFilePath(historyFileName); err == nil {
		if f, err := os.Open(path); err == nil {
			r.line.ReadHistory(f)
			f.Close()
		}
	}

	fmt.Fprintln(r.stdout, "Type 'help' for list of commands.")

	for !r.quit {
		if r.proc.State() == sdb.Exited || r.proc.State() == sdb.Terminated {
			fmt.Fprintf(r.stdout, "process %d %s\n", r.proc.Pid(), r.proc.State())
			break
		}

		line, err := r.line.Prompt("sdb> ")
		if err != nil {
			if err == liner.ErrPromptAborted {
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(r.stdout, "exit")
				break
			}
			fmt.Fprintf(os.Stderr, "prompt failed: %v\n", err)
			return 1
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.line.AppendHistory(line)

		if err := r.dispatch(line); err != nil {
			fmt.Fprintf(os.Stderr, "command failed: %v\n", err)
		}
	}

	if path, err := config.ConfigFilePath(historyFileName); err == nil {
		if f, err := os.Create(path); err == nil {
			r.line.WriteHistory(f)
			f.Close()
		}
	}

	return 0
}

func (r *REPL) dispatch(line string) error {
	word, rest, _ := strings.Cut(line, " ")
	word = strings.ToLower(word)
	for _, c := range r.cmds {
		if c.match(word) {
			return c.fn(r, strings.TrimSpace(rest))
		}
	}
	return fmt.Errorf("no such command: %s (try 'help')", word)
}
