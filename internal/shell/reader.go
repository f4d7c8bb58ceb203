package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// TerminalReader reads lines from an input stream, showing the prompt only
// when the input is a terminal, and appends accepted lines to a history file.
type TerminalReader struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
	historyFile string
}

// NewTerminalReader creates a reader over in. historyFile may be empty to
// disable history.
func NewTerminalReader(in io.Reader, out io.Writer, historyFile string) *TerminalReader {
	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}

	return &TerminalReader{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: interactive,
		historyFile: historyFile,
	}
}

// Interactive reports whether the input is a terminal.
func (r *TerminalReader) Interactive() bool {
	return r.interactive
}

// ReadLine implements LineReader.
func (r *TerminalReader) ReadLine(prompt string) (string, error) {
	if r.interactive {
		fmt.Fprint(r.out, prompt)
	}

	line, err := r.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")

	// History is best effort: a read-only config dir must not break the shell.
	_ = r.appendHistory(line)
	return line, nil
}

func (r *TerminalReader) appendHistory(line string) error {
	if r.historyFile == "" || strings.TrimSpace(line) == "" {
		return nil
	}

	f, err := os.OpenFile(r.historyFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintln(f, line)
	return err
}
