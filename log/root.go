package log

import (
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

var (
	root = &logger{[]interface{}{}, new(swapHandler)}

	// StdoutHandler and StderrHandler render human-readable records, with
	// colors when the stream is a terminal.
	StdoutHandler Handler
	StderrHandler Handler
)

func init() {
	StdoutHandler = terminalHandler(os.Stdout, isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))
	StderrHandler = terminalHandler(os.Stderr, isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()))
	root.SetHandler(LvlFilterHandler(LvlInfo, StderrHandler))
}

func terminalHandler(f *os.File, usecolor bool) Handler {
	if usecolor {
		return StreamHandler(colorable.NewColorable(f), TerminalFormat(true))
	}
	return StreamHandler(f, TerminalFormat(false))
}

// Root returns the process-wide root logger.
func Root() Logger {
	return root
}

// New returns a child of the root logger with ctx bound to every record.
func New(ctx ...interface{}) Logger {
	return root.New(ctx...)
}

// The package-level helpers log through the root logger.

func Trace(msg string, ctx ...interface{}) { root.write(msg, LvlTrace, ctx) }
func Debug(msg string, ctx ...interface{}) { root.write(msg, LvlDebug, ctx) }
func Info(msg string, ctx ...interface{})  { root.write(msg, LvlInfo, ctx) }
func Warn(msg string, ctx ...interface{})  { root.write(msg, LvlWarn, ctx) }
func Error(msg string, ctx ...interface{}) { root.write(msg, LvlError, ctx) }

// Crit logs and then terminates the process.
func Crit(msg string, ctx ...interface{}) {
	root.write(msg, LvlCrit, ctx)
	os.Exit(1)
}
