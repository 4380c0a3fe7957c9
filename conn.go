package redwire

import (
	"github.com/mediocregopher/redwire/resp"
	"github.com/mediocregopher/redwire/trace"
)

// Conn is a single connection speaking RESP over a Stream. It is not safe
// for concurrent use: one goroutine writes and reads, pairing each request
// with its reply by order.
//
// Writes are buffered until Flush is called, so any number of requests can
// be written back-to-back and sent as a single batch. The replies to a
// flushed batch come back in request order, one ReadReply each.
type Conn struct {
	s   resp.Stream
	enc *resp.Encoder
	dec *resp.Decoder

	count int64
	trace trace.ConnTrace
}

// ConnOpt is an optional behavior which can be applied to a Conn when it is
// created.
type ConnOpt func(*Conn)

// ConnWithTrace returns a ConnOpt which attaches tr's callbacks to the
// Conn.
func ConnWithTrace(tr trace.ConnTrace) ConnOpt {
	return func(c *Conn) {
		c.trace = tr
	}
}

// NewConn initializes a Conn around the given Stream. The Stream should not
// be used directly afterward.
func NewConn(s resp.Stream, opts ...ConnOpt) *Conn {
	c := &Conn{
		s:   s,
		enc: resp.NewEncoder(s),
		dec: resp.NewDecoder(s),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WriteRequest buffers a single command made up of the given arguments,
// each encoded as the bulk string form of its byte representation (see
// resp.Encoder.Argument for the accepted types). Nothing is sent until
// Flush is called.
//
// The request counter is incremented once per call as soon as the request's
// header has been written, so a request whose arguments fail to encode
// partway still counts; see Count. After such a failure the outgoing buffer
// holds a truncated request and the Conn should be closed.
func (c *Conn) WriteRequest(args ...interface{}) error {
	err := c.enc.ArrayHeader(len(args))
	if err == nil {
		c.count++
		for _, a := range args {
			if err = c.enc.Argument(a); err != nil {
				break
			}
		}
	}

	if c.trace.RequestWritten != nil {
		c.trace.RequestWritten(trace.ConnRequestWritten{
			Args:  len(args),
			Count: c.count,
			Err:   err,
		})
	}
	return err
}

// WriteValue buffers a single RESP value of any kind (see
// resp.Encoder.Encode for the accepted types). Nothing is sent until Flush
// is called. The request counter is not touched.
func (c *Conn) WriteValue(v interface{}) error {
	return c.enc.Encode(v)
}

// Flush sends everything buffered by WriteRequest and WriteValue calls.
func (c *Conn) Flush() error {
	err := c.s.Flush()
	if c.trace.Flushed != nil {
		c.trace.Flushed(trace.ConnFlushed{Err: err})
	}
	return err
}

// ReadReply reads a single reply, blocking until one is available.
//
// An error reply from the server is returned as a resp.ServerError, and the
// Conn remains usable afterward. Any other error means the Conn's position
// in the reply stream is unknown and it should be closed.
func (c *Conn) ReadReply() (*resp.Reply, error) {
	r, err := c.dec.Decode()
	if c.trace.ReplyRead != nil {
		c.trace.ReplyRead(trace.ConnReplyRead{Err: err})
	}
	return r, err
}

// ReadValue is an alias for ReadReply, for symmetry with WriteValue.
func (c *Conn) ReadValue() (*resp.Reply, error) {
	return c.ReadReply()
}

// Count returns the number of requests written over the Conn's lifetime,
// requests whose arguments failed to encode included.
func (c *Conn) Count() int64 {
	return c.count
}

// Close closes the underlying Stream.
func (c *Conn) Close() error {
	return c.s.Close()
}

// Closed returns whether Close has been called.
func (c *Conn) Closed() bool {
	return c.s.Closed()
}
