package cli

import (
	"fmt"
	"io"
	"os"
)

// Output writes user-facing messages. Info and Success go to Out, warnings
// and errors to Err.
type Output struct {
	Out io.Writer
	Err io.Writer
}

// Stdio returns an Output bound to os.Stdout and os.Stderr.
func Stdio() *Output {
	return &Output{Out: os.Stdout, Err: os.Stderr}
}

// Info prints an informational message.
func (o *Output) Info(msg string) {
	fmt.Fprintln(o.Out, msg)
}

// Infof prints a formatted informational message.
func (o *Output) Infof(format string, args ...any) {
	fmt.Fprintf(o.Out, format+"\n", args...)
}

// Success prints a success message.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.Out, "✓", msg)
}

// Successf prints a formatted success message.
func (o *Output) Successf(format string, args ...any) {
	fmt.Fprintf(o.Out, "✓ "+format+"\n", args...)
}

// Warn prints a warning message.
func (o *Output) Warn(msg string) {
	fmt.Fprintln(o.Err, "warning:", msg)
}

// Warnf prints a formatted warning message.
func (o *Output) Warnf(format string, args ...any) {
	fmt.Fprintf(o.Err, "warning: "+format+"\n", args...)
}

// Error prints an error message with details.
func (o *Output) Error(msg string, err error) {
	if err == nil {
		fmt.Fprintln(o.Err, "error:", msg)
		return
	}
	fmt.Fprintf(o.Err, "error: %s: %v\n", msg, err)
}

// FatalErr prints an error message with details to stderr and exits with code 1.
func FatalErr(msg string, err error) {
	Stdio().Error(msg, err)
	os.Exit(1)
}
