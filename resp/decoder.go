package resp

import (
	"fmt"
	"io"

	errors "golang.org/x/xerrors"

	"github.com/mediocregopher/redwire/internal/bytesutil"
)

// defaultMaxDepth is the array nesting a Decode will follow when MaxDepth
// isn't set. Real servers rarely nest more than a handful of levels, while
// a malicious peer can nest arbitrarily with four bytes per level.
const defaultMaxDepth = 64

// maxBulkLen matches the server-side proto-max-bulk-len default. A length
// header past it fails before any allocation happens.
const maxBulkLen = 512 * 1024 * 1024

// Decoder reads RESP values off of a Stream.
//
// A Decoder is not safe for concurrent use, and only one value may be
// mid-decode on a Stream at a time.
type Decoder struct {
	s Stream

	// MaxDepth is the maximum array nesting a single Decode will read
	// before failing with a ProtocolError. It defaults to 64 if zero.
	MaxDepth int
}

// NewDecoder initializes a Decoder which will read from s.
func NewDecoder(s Stream) *Decoder {
	return &Decoder{s: s}
}

// Decode reads one complete value, blocking until the Stream produces it.
//
// An error reply read at the top level is returned as a nil *Reply and a
// ServerError. The Stream is left positioned at the next value and can keep
// being used. Every other error leaves the Stream's position unknown, and
// the connection should be closed: a ProtocolError for malformed data,
// ErrUnexpectedEOS (possibly wrapped) when the Stream ends mid-value, or
// whatever error the Stream itself produced.
func (d *Decoder) Decode() (*Reply, error) {
	maxDepth := d.MaxDepth
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}

	r, err := d.decode(maxDepth)
	if err != nil {
		return nil, err
	} else if r.kind == Err {
		return nil, r.err
	}
	return r, nil
}

func (d *Decoder) decode(depthLeft int) (*Reply, error) {
	line, err := d.s.ReadLine()
	if err != nil {
		return nil, eosErr("reading value header", err)
	} else if len(line) == 0 {
		return nil, ProtocolError{Msg: "empty line"}
	}

	prefix, body := line[0], line[1:]
	switch prefix {
	case '$':
		return d.decodeBulkStr(body)
	case '*':
		return d.decodeArray(body, depthLeft)
	case ':':
		n, err := bytesutil.ParseInt(body)
		if err != nil {
			return nil, ProtocolError{Msg: fmt.Sprintf("invalid integer %q", body)}
		}
		return &Reply{kind: Int, num: n}, nil
	case '-':
		return &Reply{kind: Err, err: ServerError{Msg: string(body)}}, nil
	case '+':
		str := make([]byte, len(body))
		copy(str, body)
		return &Reply{kind: SimpleStr, str: str}, nil
	}

	// The stream is desynchronized at this point and about to be abandoned,
	// so push out anything still sitting in the write buffer before
	// failing.
	d.s.Flush()
	return nil, ProtocolError{Msg: fmt.Sprintf("unknown prefix %q", prefix)}
}

func (d *Decoder) decodeBulkStr(body []byte) (*Reply, error) {
	n, err := parseLen(body)
	if err != nil {
		return nil, ProtocolError{Msg: fmt.Sprintf("invalid bulk string length %q", body)}
	} else if n == -1 {
		return &Reply{kind: Nil}, nil
	} else if n < -1 || n > maxBulkLen {
		return nil, ProtocolError{Msg: fmt.Sprintf("invalid bulk string length %d", n)}
	}

	str, err := d.s.ReadN(int(n))
	if err != nil {
		return nil, eosErr("reading bulk string body", err)
	}
	if _, err := d.s.ReadN(2); err != nil {
		return nil, eosErr("reading bulk string trailer", err)
	}
	return &Reply{kind: BulkStr, str: str}, nil
}

func (d *Decoder) decodeArray(body []byte, depthLeft int) (*Reply, error) {
	n, err := parseLen(body)
	if err != nil {
		return nil, ProtocolError{Msg: fmt.Sprintf("invalid array count %q", body)}
	} else if n == -1 {
		return &Reply{kind: Nil}, nil
	} else if n < -1 {
		return nil, ProtocolError{Msg: fmt.Sprintf("invalid array count %d", n)}
	}

	if depthLeft <= 0 {
		return nil, ProtocolError{Msg: "array nesting exceeds maximum depth"}
	}

	// The count isn't trusted until the elements actually arrive, so cap
	// the preallocation.
	sz := n
	if sz > 1024 {
		sz = 1024
	}
	arr := make([]*Reply, 0, sz)
	for i := int64(0); i < n; i++ {
		el, err := d.decode(depthLeft - 1)
		if err != nil {
			return nil, err
		}
		arr = append(arr, el)
	}
	return &Reply{kind: Array, arr: arr}, nil
}

// parseLen parses a bulk string length or array count. Unlike integer
// payloads a leading '+' is not accepted here.
func parseLen(b []byte) (int64, error) {
	if len(b) > 0 && b[0] == '+' {
		return 0, errors.New("length may not be signed positive")
	}
	return bytesutil.ParseInt(b)
}

// eosErr translates the io errors a Stream produces when it runs dry into
// ErrUnexpectedEOS, keeping which read hit it. Anything else passes through
// untouched.
func eosErr(ctx string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errors.Errorf("%s: %w", ctx, ErrUnexpectedEOS)
	}
	return err
}
