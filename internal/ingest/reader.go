package ingest

// reader.go provides the readers that normalize raw uploads before parsing:
//
//   - textReader: drops a leading UTF-8 BOM and replaces invalid UTF-8 with U+FFFD
//   - sizeLimitReader: fails with ErrFileTooLarge once a byte budget is exceeded
//
// NormalizeText chains them in the order the CSV loader needs.

import (
	"bufio"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// textReader yields valid UTF-8 text without a byte order mark.
type textReader struct {
	src     *bufio.Reader
	started bool
	pending []byte // encoded rune that did not fit in the caller's buffer
	err     error
}

func newTextReader(r io.Reader) *textReader {
	return &textReader{src: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (t *textReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if !t.started {
		t.started = true
		if head, _ := t.src.Peek(len(utf8BOM)); len(head) == len(utf8BOM) &&
			head[0] == utf8BOM[0] && head[1] == utf8BOM[1] && head[2] == utf8BOM[2] {
			_, _ = t.src.Discard(len(utf8BOM))
		}
	}

	n := copy(p, t.pending)
	t.pending = t.pending[n:]
	if len(t.pending) > 0 {
		return n, nil
	}

	var buf [utf8.UTFMax]byte
	for n < len(p) && t.err == nil {
		b, err := t.src.ReadByte()
		if err != nil {
			t.err = err
			break
		}
		if b < utf8.RuneSelf {
			p[n] = b
			n++
			continue
		}
		_ = t.src.UnreadByte()

		// Invalid bytes decode as utf8.RuneError and are written as U+FFFD.
		r, _, err := t.src.ReadRune()
		if err != nil {
			t.err = err
			break
		}
		w := utf8.EncodeRune(buf[:], r)
		c := copy(p[n:], buf[:w])
		n += c
		if c < w {
			t.pending = append(t.pending[:0], buf[c:w]...)
			break
		}
	}
	if n > 0 {
		return n, nil
	}
	return 0, t.err
}

// sizeLimitReader reads at most limit bytes and reports ErrFileTooLarge
// when the source holds more.
type sizeLimitReader struct {
	src   io.Reader
	limit int64
	read  int64
}

// Read implements io.Reader.
func (s *sizeLimitReader) Read(p []byte) (int, error) {
	if s.read > s.limit {
		return 0, ErrFileTooLarge
	}
	if remaining := s.limit - s.read + 1; int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := s.src.Read(p)
	s.read += int64(n)
	if s.read > s.limit {
		return n, ErrFileTooLarge
	}
	return n, err
}

// LimitSize wraps r so that reading more than limit bytes fails with
// ErrFileTooLarge. A non-positive limit disables the check.
func LimitSize(r io.Reader, limit int64) io.Reader {
	if limit <= 0 {
		return r
	}
	return &sizeLimitReader{src: r, limit: limit}
}

// NormalizeText wraps r so that it yields valid UTF-8 text with any BOM
// removed.
func NormalizeText(r io.Reader) io.Reader {
	return newTextReader(r)
}
