package redwire

import (
	"bytes"
	"fmt"
	"io"

	errors "golang.org/x/xerrors"

	"github.com/mediocregopher/redwire/resp"
)

// bufferStream implements resp.Stream directly over a bytes.Buffer, with no
// buffering of its own. Reading past the buffered data fails immediately
// rather than blocking.
type bufferStream struct {
	buf *bytes.Buffer
}

func (bs *bufferStream) Write(p []byte) (int, error) {
	return bs.buf.Write(p)
}

func (bs *bufferStream) ReadLine() ([]byte, error) {
	line, err := bs.buf.ReadBytes('\n')
	if err != nil {
		return nil, io.EOF
	} else if len(line) < 2 || line[len(line)-2] != '\r' {
		return nil, resp.ProtocolError{Msg: fmt.Sprintf("malformed line %q", line)}
	}
	return line[:len(line)-2], nil
}

func (bs *bufferStream) ReadN(n int) ([]byte, error) {
	if bs.buf.Len() < n {
		bs.buf.Reset()
		return nil, io.ErrUnexpectedEOF
	}
	b := make([]byte, n)
	bs.buf.Read(b)
	return b, nil
}

func (bs *bufferStream) Flush() error { return nil }
func (bs *bufferStream) Close() error { return nil }
func (bs *bufferStream) Closed() bool { return false }

// stubStream is the resp.Stream behind Stub. Written requests pile up in
// wbuf; Flush plays them against fn and encodes the replies into rbuf,
// where reads pick them up.
type stubStream struct {
	fn     func([]string) interface{}
	closed bool

	wbuf, rbuf bytes.Buffer

	dec *resp.Decoder
	out *bufferStream
	enc *resp.Encoder
}

// Stub returns a Conn which pretends to be a connection to a real server,
// but is backed by fn instead. Each request flushed to the Conn is decoded
// into its string arguments and handed to fn, and fn's return value is
// encoded as the reply, following resp.Encoder.Encode: returning an error
// produces an error reply, nil produces a nil reply, and a *resp.Reply is
// written back exactly as given (resp.NewSimpleStr for an "OK" style
// status).
//
// Replies only become readable once Flush is called, and reading past the
// last reply fails with resp.ErrUnexpectedEOS rather than blocking. That
// keeps tests which exercise pipelining fully deterministic:
//
//	m := map[string]string{}
//	conn := redwire.Stub(func(args []string) interface{} {
//		switch args[0] {
//		case "GET":
//			return m[args[1]]
//		case "SET":
//			m[args[1]] = args[2]
//			return resp.NewSimpleStr("OK")
//		default:
//			return fmt.Errorf("ERR unknown command %q", args[0])
//		}
//	})
//
//	conn.WriteRequest("SET", "foo", "1")
//	conn.WriteRequest("GET", "foo")
//	conn.Flush()
//	conn.ReadReply() // +OK
//	conn.ReadReply() // $1 1
func Stub(fn func(args []string) interface{}, opts ...ConnOpt) *Conn {
	s := &stubStream{fn: fn}
	s.dec = resp.NewDecoder(&bufferStream{buf: &s.wbuf})
	s.out = &bufferStream{buf: &s.rbuf}
	s.enc = resp.NewEncoder(s.out)
	return NewConn(s, opts...)
}

func (s *stubStream) Write(p []byte) (int, error) {
	if s.closed {
		return 0, resp.ErrClosed
	}
	return s.wbuf.Write(p)
}

func (s *stubStream) ReadLine() ([]byte, error) {
	if s.closed {
		return nil, resp.ErrClosed
	}
	return s.out.ReadLine()
}

func (s *stubStream) ReadN(n int) ([]byte, error) {
	if s.closed {
		return nil, resp.ErrClosed
	}
	return s.out.ReadN(n)
}

// Flush services every complete request written since the last Flush, in
// order, making the replies readable.
func (s *stubStream) Flush() error {
	if s.closed {
		return resp.ErrClosed
	}

	for s.wbuf.Len() > 0 {
		req, err := s.dec.Decode()

		var ret interface{}
		var serr resp.ServerError
		switch {
		case err == nil:
			if args, lerr := req.List(); lerr == nil {
				ret = s.fn(args)
			} else {
				ret = errors.Errorf("ERR invalid request: %v", lerr)
			}
		case errors.As(err, &serr):
			ret = errors.Errorf("ERR invalid request: %v", err)
		default:
			return err
		}

		if err := s.enc.Encode(ret); err != nil {
			return err
		}
	}
	return nil
}

func (s *stubStream) Close() error {
	if s.closed {
		return resp.ErrClosed
	}
	s.closed = true
	return nil
}

func (s *stubStream) Closed() bool {
	return s.closed
}
