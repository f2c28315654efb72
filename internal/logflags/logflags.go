// Package logflags configures the logrus loggers used across the
// debugger, gating each layer's logger behind its own flag rather than a
// single global verbosity knob.
package logflags

import (
	"strings"

	"github.com/sirupsen/logrus"
)

var inferior = false

// Setup parses a comma-separated list of layer names (currently only
// "inferior" is defined) and enables logging for each. Empty entries,
// including an empty string, enable nothing; a layer already enabled by an
// earlier call stays enabled.
func Setup(layers string) error {
	for _, l := range strings.Split(layers, ",") {
		switch strings.TrimSpace(l) {
		case "":
		case "inferior":
			inferior = true
		default:
			return &UnknownLayerError{Layer: l}
		}
	}
	return nil
}

// UnknownLayerError is returned by Setup for an unrecognized layer name.
type UnknownLayerError struct{ Layer string }

func (e *UnknownLayerError) Error() string {
	return "unknown log layer: " + e.Layer
}

func makeLogger(flag bool, fields logrus.Fields) *logrus.Entry {
	logger := logrus.New().WithFields(fields)
	logger.Logger.Level = logrus.DebugLevel
	if !flag {
		logger.Logger.Level = logrus.PanicLevel
	}
	return logger
}

// Inferior returns true if the inferior-control layer should log the
// ptrace/wait event stream.
func Inferior() bool {
	return inferior
}

// InferiorLogger returns a configured logger for a single traced pid.
func InferiorLogger(pid int) *logrus.Entry {
	return makeLogger(inferior, logrus.Fields{"layer": "inferior", "pid": pid})
}
