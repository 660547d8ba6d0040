package backend

import (
	"bufio"
	"errors"
	"io"
)

// lineReader hands its source to a consumer one whole row at a time, so the
// CSV reader never sees a row split across two reads. Rows longer than the
// consumer's buffer are served over several reads, and a last row without a
// newline is still returned.
type lineReader struct {
	r *bufio.Reader
	// unread is the rest of the row being served.
	unread []byte
	err    error
}

var _ io.Reader = (*lineReader)(nil)

func NewLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(r)}
}

func (l *lineReader) Read(b []byte) (int, error) {
	if len(l.unread) == 0 {
		if l.err != nil {
			return 0, l.err
		}
		row, err := l.r.ReadBytes('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return 0, err
			}
			l.err = io.EOF
			if len(row) == 0 {
				return 0, io.EOF
			}
		}
		l.unread = row
	}
	n := copy(b, l.unread)
	l.unread = l.unread[n:]
	return n, nil
}
