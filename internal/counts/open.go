package counts

import (
	"bufio"
	"compress/gzip"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readCloser closes the decompressor before the underlying file.
type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *readCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Open returns a reader for path, or stdin when path is "-". Gzip input is
// detected by magic bytes (1F 8B) or a .gz suffix.
func Open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return NewReader(os.Stdin)
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return wrapGzip(fh, strings.HasSuffix(path, ".gz"))
}

// NewReader wraps an already open stream such as stdin, decompressing it when
// it starts with the gzip magic bytes. Closing it does not close r.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	return wrapGzip(io.NopCloser(r), false)
}

func wrapGzip(rc io.ReadCloser, force bool) (io.ReadCloser, error) {
	br := bufio.NewReader(rc)
	sig, _ := br.Peek(2)
	if !force && !(len(sig) == 2 && sig[0] == 0x1f && sig[1] == 0x8b) {
		return &readCloser{Reader: br, closers: []io.Closer{rc}}, nil
	}
	gr, err := gzip.NewReader(br)
	if err != nil {
		_ = rc.Close()
		return nil, err
	}
	return &readCloser{Reader: gr, closers: []io.Closer{gr, rc}}, nil
}

// StdinIsTerminal reports whether stdin is an interactive terminal, i.e. no
// table is being piped in.
func StdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
