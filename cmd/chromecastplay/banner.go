package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/thotypous/chromecastplay/internal/device"
)

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
	ansiCyan  = "\x1b[36m"
)

// printBanner writes the URLs a device needs to the terminal, so playback
// can be started by hand when no device driver is wired in.
func printBanner(w io.Writer, name string, m device.Media) {
	colorize := shouldColorize(w)
	url := func(raw string) string {
		if !colorize {
			return raw
		}
		return ansiBold + ansiCyan + raw + ansiReset
	}

	fmt.Fprintf(w, "serving %s\n", name)
	fmt.Fprintf(w, "  video:     %s\n", url(m.URL))
	if m.SubtitleURL != "" {
		fmt.Fprintf(w, "  subtitles: %s\n", url(m.SubtitleURL))
	}
	if m.Unseekable {
		fmt.Fprintln(w, "  (single-use stream, seeking disabled)")
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
