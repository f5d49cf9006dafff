package input

import (
	"bufio"
	"io"
	"os"
)

// Reader is an interface for reading user input
type Reader interface {
	ReadString(delim byte) (string, error)
}

// TerminalReader reads from the controlling terminal (/dev/tty) rather than
// the inherited standard input, so interactive prompts still reach the
// operator when stdin is piped.
type TerminalReader struct {
	tty    *os.File
	reader *bufio.Reader
}

// NewTerminalReader opens the controlling terminal. It fails when the
// process has no controlling terminal, which makes non-interactive runs fail
// deterministically instead of hanging.
func NewTerminalReader() (*TerminalReader, error) {
	tty, err := os.Open("/dev/tty")
	if err != nil {
		return nil, err
	}
	return &TerminalReader{
		tty:    tty,
		reader: bufio.NewReader(tty),
	}, nil
}

// ReadString reads until delimiter
func (r *TerminalReader) ReadString(delim byte) (string, error) {
	return r.reader.ReadString(delim)
}

// Close releases the terminal device.
func (r *TerminalReader) Close() error {
	return r.tty.Close()
}

// StringReader is a simple reader for testing.
// Each input string should already include the delimiter that will be used
// in ReadString calls (e.g., "yes\n" for newline delimiter).
type StringReader struct {
	inputs []string
	index  int
}

// NewStringReader creates a reader from strings.
// Each input string should include the expected delimiter.
func NewStringReader(inputs ...string) *StringReader {
	return &StringReader{inputs: inputs}
}

// ReadString returns the next pre-configured string.
// Returns io.EOF when all inputs have been consumed.
// Note: The delim parameter is ignored; inputs should already include delimiters.
func (r *StringReader) ReadString(delim byte) (string, error) {
	if r.index >= len(r.inputs) {
		return "", io.EOF
	}
	result := r.inputs[r.index]
	r.index++
	return result, nil
}
