package cli

import (
	"bufio"
	"io"
	"strings"
	"unicode"
)

// Tokenize splits line on whitespace outside double quotes and strips the
// quotes, so `book 15-05-2023 09:00 10:00 "team sync" notes` has five
// arguments. An unterminated quote runs to the end of the line.
func Tokenize(line string) []string {
	var (
		out     []string
		cur     strings.Builder
		inQuote bool
		started bool
	)
	flush := func() {
		if started {
			out = append(out, cur.String())
		}
		cur.Reset()
		started = false
	}

	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			started = true
		case unicode.IsSpace(r) && !inQuote:
			flush()
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	flush()
	return out
}

// LineReader reads operator input line by line. It satisfies
// schedule.LineReader so prompts inside merge share the shell's input.
type LineReader struct {
	sc *bufio.Scanner
}

func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{sc: bufio.NewScanner(r)}
}

// ReadLine returns the next line without its terminator, or io.EOF.
func (l *LineReader) ReadLine() (string, error) {
	if l.sc.Scan() {
		return strings.TrimRight(l.sc.Text(), "\r"), nil
	}
	if err := l.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
