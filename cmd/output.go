package cmd

import (
	"fmt"
	"os"
)

// Printf writes command output to stdout.
func Printf(format string, args ...any) {
	fmt.Fprintf(os.Stdout, format, args...)
}

// Println writes a line of command output to stdout.
func Println(args ...any) {
	fmt.Fprintln(os.Stdout, args...)
}

// Warnf writes a warning line to stderr.
func Warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}
