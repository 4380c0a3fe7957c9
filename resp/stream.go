package resp

import (
	"bufio"
	"fmt"
	"io"

	"github.com/mediocregopher/redwire/internal/bytesutil"
)

// Stream is the bidirectional byte stream RESP values are read from and
// written to. Writes accumulate in an outgoing buffer until Flush; reads
// block until data arrives.
//
// NewStream adapts any io.ReadWriter. Implementations over other transports
// only need to honor the read semantics: ReadLine returns the next
// \r\n-terminated line with the terminator stripped, ReadN returns exactly n
// bytes, and both fail rather than return short data when the stream ends.
type Stream interface {
	io.Writer

	// ReadLine returns the next line with the trailing \r\n stripped. The
	// returned slice is only valid until the next call on the Stream.
	ReadLine() ([]byte, error)

	// ReadN returns the next n bytes. The returned slice is freshly
	// allocated and belongs to the caller.
	ReadN(n int) ([]byte, error)

	// Flush delivers everything written since the last Flush. Writes may
	// also be delivered early if the outgoing buffer fills; only Flush
	// guarantees delivery.
	Flush() error

	// Close closes the underlying transport, if there is one. All
	// operations afterward fail with ErrClosed.
	Close() error

	// Closed returns whether Close has been called.
	Closed() bool
}

// NewStream wraps rw with buffered reads and writes, implementing Stream on
// top of it. If rw also implements io.Closer then the Stream's Close closes
// it.
func NewStream(rw io.ReadWriter) Stream {
	return &rwStream{
		br: bufio.NewReader(rw),
		bw: bufio.NewWriter(rw),
		rw: rw,
	}
}

type rwStream struct {
	br *bufio.Reader
	bw *bufio.Writer
	rw io.ReadWriter

	// line backs ReadLine results which span more than one bufio buffer.
	line   []byte
	closed bool
}

func (s *rwStream) Write(p []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	return s.bw.Write(p)
}

func (s *rwStream) WriteString(str string) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	return s.bw.WriteString(str)
}

func (s *rwStream) ReadLine() ([]byte, error) {
	if s.closed {
		return nil, ErrClosed
	}

	b, err := s.br.ReadSlice('\n')
	if err == bufio.ErrBufferFull {
		s.line = append(s.line[:0], b...)
		for err == bufio.ErrBufferFull {
			b, err = s.br.ReadSlice('\n')
			s.line = append(s.line, b...)
		}
		b = s.line
	}
	if err != nil {
		return nil, err
	} else if len(b) < 2 || b[len(b)-2] != '\r' {
		return nil, ProtocolError{Msg: fmt.Sprintf("malformed line %q", b)}
	}
	return b[:len(b)-2], nil
}

func (s *rwStream) ReadN(n int) ([]byte, error) {
	if s.closed {
		return nil, ErrClosed
	}
	return bytesutil.ReadNAppend(s.br, nil, n)
}

func (s *rwStream) Flush() error {
	if s.closed {
		return ErrClosed
	}
	return s.bw.Flush()
}

func (s *rwStream) Close() error {
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	if c, ok := s.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *rwStream) Closed() bool {
	return s.closed
}
