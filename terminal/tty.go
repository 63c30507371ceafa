package terminal

import (
	"bufio"
	"io"
	"os"

	"golang.org/x/term"
)

// Prompt is shown before every command when running on a terminal.
const Prompt = "postcode> "

type scannerReader struct {
	scanner *bufio.Scanner
}

func (r scannerReader) ReadLine() (string, error) {
	if r.scanner.Scan() {
		return r.scanner.Text(), nil
	}

	if err := r.scanner.Err(); err != nil {
		return "", err
	}

	return "", io.EOF
}

// NewLineReader reads plain newline-separated commands from in.
func NewLineReader(in io.Reader) LineReader {
	return scannerReader{scanner: bufio.NewScanner(in)}
}

// Open prepares in and out for a session. If in is a terminal, it is put into
// raw mode and line editing is provided by golang.org/x/term; the returned
// restore function puts the terminal back. Otherwise commands are read line by
// line.
func Open(in, out *os.File) (LineReader, io.Writer, func(), error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return NewLineReader(in), out, func() {}, nil
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, nil, nil, err
	}

	screen := struct {
		io.Reader
		io.Writer
	}{in, out}
	t := term.NewTerminal(screen, Prompt)

	restore := func() {
		_ = term.Restore(fd, state)
	}

	return t, t, restore, nil
}
