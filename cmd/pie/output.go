package main

import (
	"fmt"
	"os"
)

// ANSI escapes for terminal feedback. All status output goes to stderr so
// stdout stays clean for report text and JSON.
const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
	colorCyan   = "\x1b[36m"
	colorBold   = "\x1b[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printMarked(color, mark, format string, args ...any) {
	fmt.Fprintln(os.Stderr, colorize(color, mark+" "+fmt.Sprintf(format, args...)))
}

func printSuccess(format string, args ...any) { printMarked(colorGreen, "✓", format, args...) }

func printError(format string, args ...any) { printMarked(colorRed, "✗", format, args...) }

func printWarning(format string, args ...any) { printMarked(colorYellow, "⚠", format, args...) }

func printStep(format string, args ...any) { printMarked(colorCyan, "→", format, args...) }

func printStatus(label string, format string, args ...any) {
	fmt.Fprintf(os.Stderr, "  %s %s\n", colorize(colorBold, label+":"), fmt.Sprintf(format, args...))
}
