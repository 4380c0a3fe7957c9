// Package resp implements reading and writing values in the RESP protocol,
// the wire format spoken by redis and compatible servers.
//
// The protocol is symmetric at the frame level but used asymmetrically:
// clients write requests as arrays of bulk strings and read back replies of
// any kind. Encoder and Decoder cover both directions over a shared Stream,
// and neither ever flushes on its own, which is what makes pipelining
// possible: write any number of values, Flush the Stream once, then read the
// replies back in order.
package resp

import (
	"fmt"
	"strconv"
	"strings"

	errors "golang.org/x/xerrors"

	"github.com/mediocregopher/redwire/internal/bytesutil"
)

// Kind identifies the kind of a decoded RESP value. Kinds are bit flags, so
// unions of them can be tested for with a single IsKind call, e.g.
// reply.IsKind(resp.Str).
type Kind int

const (
	// SimpleStr is a simple string ("+" frame), like the "OK" a successful
	// SET returns.
	SimpleStr Kind = 1 << iota

	// BulkStr is a bulk, binary safe string ("$" frame).
	BulkStr

	// Err is an error reply ("-" frame) nested inside an array. A top-level
	// error reply is never seen as a Reply, Decoder.Decode returns it as a
	// ServerError instead.
	Err

	// Int is an integer (":" frame).
	Int

	// Array is an array ("*" frame) of zero or more nested values.
	Array

	// Nil is a null bulk string ("$-1") or null array ("*-1"). Both decode
	// to this single kind.
	Nil

	// Str matches either string kind.
	Str = SimpleStr | BulkStr
)

func (k Kind) String() string {
	switch k {
	case SimpleStr:
		return "simple string"
	case BulkStr:
		return "bulk string"
	case Err:
		return "error"
	case Int:
		return "integer"
	case Array:
		return "array"
	case Nil:
		return "nil"
	case Str:
		return "string"
	}
	return fmt.Sprintf("invalid kind (%d)", int(k))
}

// Reply is a single decoded RESP value. The elements of an Array reply are
// themselves Replys.
//
// A Reply owns all of its data; it stays valid for as long as the caller
// holds it, regardless of what happens to the Stream it came from.
type Reply struct {
	kind Kind

	// str holds the payload of string kinds, num of Int, arr of Array, and
	// err of Err. At most one is set.
	str []byte
	num int64
	arr []*Reply
	err error
}

// NewSimpleStr returns a Reply of kind SimpleStr holding s. It is mostly
// useful for Stub callbacks which want to reply with a simple string like
// "OK" rather than the bulk string a plain Go string encodes to.
func NewSimpleStr(s string) *Reply {
	return &Reply{kind: SimpleStr, str: []byte(s)}
}

// Kind returns the kind of the value.
func (r *Reply) Kind() Kind {
	return r.kind
}

// IsKind returns whether the value's kind is one of those set on k.
func (r *Reply) IsKind(k Kind) bool {
	return r.kind&k != 0
}

// errWrongKind is what accessors return when called on a Reply of a kind
// they don't support. For Err replies the underlying ServerError is
// returned instead, so a mistyped access never hides a server error.
func (r *Reply) errWrongKind(want Kind) error {
	if r.kind == Err {
		return r.err
	}
	return errors.Errorf("reply kind is %s, not %s", r.kind, want)
}

// Bytes returns the reply's payload as a byte slice. Valid for Str kinds,
// whose payload is returned directly, and for Int replies, whose value is
// formatted in decimal.
func (r *Reply) Bytes() ([]byte, error) {
	switch {
	case r.IsKind(Str):
		return r.str, nil
	case r.IsKind(Int):
		return strconv.AppendInt(nil, r.num, 10), nil
	}
	return nil, r.errWrongKind(Str)
}

// Str is like Bytes, but returns a string.
func (r *Reply) Str() (string, error) {
	b, err := r.Bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Int returns the reply's value as an int64. Valid for Int replies, and for
// Str replies whose payload is a base-10 integer.
func (r *Reply) Int() (int64, error) {
	switch {
	case r.IsKind(Int):
		return r.num, nil
	case r.IsKind(Str):
		return bytesutil.ParseInt(r.str)
	}
	return 0, r.errWrongKind(Int)
}

// Array returns the reply's elements. Valid only for Array replies.
func (r *Reply) Array() ([]*Reply, error) {
	if !r.IsKind(Array) {
		return nil, r.errWrongKind(Array)
	}
	return r.arr, nil
}

// List returns the reply's elements, each converted to a string as per Str.
// Nil elements become empty strings. Valid only for Array replies whose
// elements are all strings, integers, or nils.
func (r *Reply) List() ([]string, error) {
	if !r.IsKind(Array) {
		return nil, r.errWrongKind(Array)
	}
	l := make([]string, 0, len(r.arr))
	for _, el := range r.arr {
		if el.IsKind(Nil) {
			l = append(l, "")
			continue
		}
		s, err := el.Str()
		if err != nil {
			return nil, err
		}
		l = append(l, s)
	}
	return l, nil
}

// ListBytes is like List, but returns byte slices. Nil elements become nil
// slices.
func (r *Reply) ListBytes() ([][]byte, error) {
	if !r.IsKind(Array) {
		return nil, r.errWrongKind(Array)
	}
	l := make([][]byte, 0, len(r.arr))
	for _, el := range r.arr {
		if el.IsKind(Nil) {
			l = append(l, nil)
			continue
		}
		b, err := el.Bytes()
		if err != nil {
			return nil, err
		}
		l = append(l, b)
	}
	return l, nil
}

// Map returns the reply's elements interpreted as alternating keys and
// values, the layout HGETALL and CONFIG GET replies use. Valid only for
// Array replies with an even number of string-convertible keys. Nil values
// become empty strings.
func (r *Reply) Map() (map[string]string, error) {
	if !r.IsKind(Array) {
		return nil, r.errWrongKind(Array)
	}
	if len(r.arr)%2 != 0 {
		return nil, errors.Errorf("reply has %d elements, cannot be a map", len(r.arr))
	}
	m := make(map[string]string, len(r.arr)/2)
	for i := 0; i < len(r.arr); i += 2 {
		k, err := r.arr[i].Str()
		if err != nil {
			return nil, err
		}
		var v string
		if !r.arr[i+1].IsKind(Nil) {
			if v, err = r.arr[i+1].Str(); err != nil {
				return nil, err
			}
		}
		m[k] = v
	}
	return m, nil
}

// String returns a human readable representation of the Reply, for
// debugging. The format is not stable.
func (r *Reply) String() string {
	switch r.kind {
	case Nil:
		return "Reply(nil)"
	case Err:
		return fmt.Sprintf("Reply(error %q)", r.err.Error())
	case Int:
		return fmt.Sprintf("Reply(%d)", r.num)
	case SimpleStr:
		return fmt.Sprintf("Reply(+%q)", r.str)
	case BulkStr:
		return fmt.Sprintf("Reply(%q)", r.str)
	case Array:
		ss := make([]string, len(r.arr))
		for i, el := range r.arr {
			ss[i] = el.String()
		}
		return "Reply([" + strings.Join(ss, " ") + "])"
	}
	return "Reply(invalid)"
}

// Marshaler is a type which knows how it should be represented in RESP. The
// value returned by MarshalRESP is encoded in the Marshaler's place, so
// returning e.g. a []string produces an array of bulk strings. MarshalRESP
// is called at most once per value per encode; if its result is itself a
// Marshaler the Encoder follows the chain up to a fixed depth and then
// gives up with a ConversionError.
type Marshaler interface {
	MarshalRESP() (interface{}, error)
}

var (
	// ErrUnexpectedEOS is returned, possibly wrapped, when the Stream ends
	// before a complete value has been read.
	ErrUnexpectedEOS = errors.New("unexpected end of stream")

	// ErrClosed is returned by operations performed on a Stream after it
	// has been closed.
	ErrClosed = errors.New("stream is closed")
)

// ServerError is an error reply sent by the server, e.g. "ERR unknown
// command". Receiving one does not desynchronize the Stream; the connection
// remains usable afterward.
type ServerError struct {
	// Msg is the error text exactly as it appeared on the wire.
	Msg string
}

func (e ServerError) Error() string {
	return e.Msg
}

// ProtocolError is returned when bytes read off the Stream don't conform to
// RESP. After one the Stream's position within the value stream is unknown,
// and the connection should be closed.
type ProtocolError struct {
	Msg string
}

func (e ProtocolError) Error() string {
	return "resp protocol error: " + e.Msg
}

// ConversionError is returned when a value given to an Encoder has no RESP
// representation.
type ConversionError struct {
	// Value is the offending value.
	Value interface{}

	// Depth, if non-zero, is the recursion depth at which the Encoder gave
	// up following MarshalRESP results or nested containers.
	Depth int
}

func (e ConversionError) Error() string {
	if e.Depth > 0 {
		return fmt.Sprintf("cannot encode %T: recursion beyond depth %d", e.Value, e.Depth)
	}
	return fmt.Sprintf("cannot encode %T as a RESP value", e.Value)
}
