// Package nlog provides the buffered, severity-leveled logger every actor
// (coordinator, storage worker, client) writes through instead of fmt/log.
//
// Unlike the production logger this is descended from, there is no file
// rotation and no background flush timer: a simulation run is short-lived
// and has no real disk I/O (Non-goal), so each line is written to the
// output synchronously under one mutex, and a copy is kept in an
// in-memory buffer that Tail returns.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

type severity int

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

func (s severity) tag() string {
	switch s {
	case sevWarn:
		return "W"
	case sevErr:
		return "E"
	default:
		return "I"
	}
}

func (s severity) colorize(line string) string {
	switch s {
	case sevWarn:
		return color.YellowString(line)
	case sevErr:
		return color.RedString(line)
	default:
		return line
	}
}

type logger struct {
	mu     sync.Mutex
	out    io.Writer
	buf    bytes.Buffer
	colors bool
}

var std = &logger{out: os.Stderr}

// SetOutput redirects all subsequent log lines; tests typically pass a
// *bytes.Buffer, the CLI typically passes os.Stdout or a file.
func SetOutput(w io.Writer) {
	std.mu.Lock()
	std.out = w
	std.mu.Unlock()
}

// SetColor toggles ANSI severity coloring (the CLI enables it unless
// --no-color is given).
func SetColor(on bool) {
	std.mu.Lock()
	std.colors = on
	std.mu.Unlock()
}

func log(sev severity, component string, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("%s %s [%s] %s\n", time.Now().UTC().Format("15:04:05.000"), sev.tag(), component, msg)

	std.mu.Lock()
	defer std.mu.Unlock()
	std.buf.WriteString(line)
	if std.colors {
		line = sev.colorize(line)
	}
	io.WriteString(std.out, line)
}

// Flush is a no-op placeholder for parity with the corpus's nlog API;
// output here is written synchronously, so there is nothing to drain.
func Flush() {}

// Tail returns everything logged since the process started (or since the
// last Reset), for tests that assert on log content.
func Tail() string {
	std.mu.Lock()
	defer std.mu.Unlock()
	return std.buf.String()
}

func Reset() {
	std.mu.Lock()
	std.buf.Reset()
	std.mu.Unlock()
}
