package ingest

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
)

var bom = []byte{0xef, 0xbb, 0xbf}

// universalReader drops a leading UTF-8 BOM and turns lone carriage returns
// into newlines so encoding/csv can split classic Mac line endings.
type universalReader struct {
	r *bufio.Reader
}

func newUniversalReader(r io.Reader) *universalReader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(bom)); err == nil && bytes.Equal(b, bom) {
		br.Discard(len(bom))
	}
	return &universalReader{r: br}
}

func (u *universalReader) Read(buf []byte) (int, error) {
	n, err := u.r.Read(buf)

	for i := 0; i < n; i++ {
		if buf[i] != '\r' {
			continue
		}
		if i+1 < n {
			if buf[i+1] != '\n' {
				buf[i] = '\n'
			}
			continue
		}
		if next, perr := u.r.Peek(1); perr != nil || next[0] != '\n' {
			buf[i] = '\n'
		}
	}

	return n, err
}

// decompress wraps r in a decoder for the given compression, if any.
func decompress(compression string, r io.Reader) (io.Reader, error) {
	switch compression {
	case "":
		return r, nil
	case "gzip":
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		return gr, nil
	case "bzip2":
		return bzip2.NewReader(r), nil
	}
	return nil, fmt.Errorf("compression type not supported: %s", compression)
}
