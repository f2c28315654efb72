package sdb

import "golang.org/x/sys/unix"

// ProcessState is the run state of the inferior. Stopped is the initial
// state after launch/attach; Exited and Terminated are terminal — once
// entered, no further operation on the inferior is legal.
type ProcessState int

const (
	Stopped ProcessState = iota
	Running
	Exited
	Terminated
)

func (s ProcessState) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Exited:
		return "exited"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// StopReason is the decoded form of a wait-status word: whether the
// inferior stopped, exited, or was terminated, together with the signal
// number (stopped/terminated) or exit code (exited).
type StopReason struct {
	State ProcessState
	Info  uint8
}

// newStopReason decodes a unix.WaitStatus, as returned by wait4, into a
// StopReason.
func newStopReason(ws unix.WaitStatus) StopReason {
	switch {
	case ws.Exited():
		return StopReason{State: Exited, Info: uint8(ws.ExitStatus())}
	case ws.Signaled():
		return StopReason{State: Terminated, Info: uint8(ws.Signal())}
	case ws.Stopped():
		return StopReason{State: Stopped, Info: uint8(ws.StopSignal())}
	default:
		return StopReason{State: Stopped, Info: 0}
	}
}
