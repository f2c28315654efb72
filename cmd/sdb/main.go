package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Nekketsu/Sdb/cmd/sdb/repl"
	"github.com/Nekketsu/Sdb/internal/config"
	"github.com/Nekketsu/Sdb/internal/logflags"
	"github.com/Nekketsu/Sdb/sdb"
)

var logLayers string

func main() {
	root := &cobra.Command{
		Use:   "sdb",
		Short: "sdb is a source-less, instruction-level debugger for x86-64 Linux.",
	}
	root.PersistentFlags().StringVar(&logLayers, "log-layers", "", "comma-separated list of layers to log (currently: inferior)")

	root.AddCommand(launchCommand())
	root.AddCommand(attachCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func launchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "launch <path> [args...]",
		Short: "Launch and trace a new process.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := setupLogging(); err != nil {
				return err
			}
			proc, err := sdb.Launch(args[0], true, nil, args[1:]...)
			if err != nil {
				return err
			}
			os.Exit(runREPL(proc))
			return nil
		},
	}
}

func attachCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "attach <pid>",
		Short: "Attach to an already-running process.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := setupLogging(); err != nil {
				return err
			}
			pid, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid pid %q: %w", args[0], err)
			}
			proc, err := sdb.Attach(pid)
			if err != nil {
				return err
			}
			os.Exit(runREPL(proc))
			return nil
		},
	}
}

func setupLogging() error {
	if logLayers == "" {
		return nil
	}
	return logflags.Setup(logLayers)
}

func runREPL(proc *sdb.Process) int {
	defer proc.Close()
	conf := config.LoadConfig()
	if logLayers == "" && conf.LogLayers != "" {
		logflags.Setup(conf.LogLayers)
	}
	return repl.New(proc, conf).Run()
}
