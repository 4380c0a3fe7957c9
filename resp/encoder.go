package resp

import (
	"encoding"
	"io"
	"reflect"
	"strconv"

	"github.com/mediocregopher/redwire/internal/bytesutil"
)

// maxEncodeDepth bounds recursion through MarshalRESP results and nested
// containers. A MarshalRESP returning its own receiver, or a container
// graph containing itself, fails with a ConversionError instead of
// recursing forever.
const maxEncodeDepth = 64

var (
	delim      = []byte{'\r', '\n'}
	nilBulkStr = []byte("$-1\r\n")
	nilArray   = []byte("*-1\r\n")
	boolTrue   = []byte("1")
	boolFalse  = []byte("0")
)

// Encoder writes RESP values to a Stream. None of its methods flush, so any
// number of values can be written back-to-back and delivered in one batch
// with a single Stream.Flush.
//
// An Encoder is not safe for concurrent use.
type Encoder struct {
	s Stream

	// scratch buffers are reused across calls: lenScratch for prefixed
	// header lines, numScratch for numeric bulk string payloads. They must
	// stay separate, a bulk string's header is written while its payload
	// may still be sitting in numScratch.
	lenScratch []byte
	numScratch []byte
}

// NewEncoder initializes an Encoder which will write to s.
func NewEncoder(s Stream) *Encoder {
	return &Encoder{
		s:          s,
		lenScratch: make([]byte, 0, 32),
		numScratch: make([]byte, 0, 32),
	}
}

// writeBytes writes b if prevErr is nil, otherwise it returns prevErr
// untouched. It lets the write methods chain writes without an error check
// after every one.
func (e *Encoder) writeBytes(prevErr error, b []byte) error {
	if prevErr != nil {
		return prevErr
	}
	_, err := e.s.Write(b)
	return err
}

func (e *Encoder) writeStr(prevErr error, s string) error {
	if prevErr != nil {
		return prevErr
	}
	_, err := io.WriteString(e.s, s)
	return err
}

// writePrefixedInt writes a full "<prefix><i>\r\n" line, the form shared by
// array headers, bulk string headers, and integers.
func (e *Encoder) writePrefixedInt(prefix byte, i int64) error {
	e.lenScratch = append(e.lenScratch[:0], prefix)
	e.lenScratch = strconv.AppendInt(e.lenScratch, i, 10)
	e.lenScratch = append(e.lenScratch, '\r', '\n')
	_, err := e.s.Write(e.lenScratch)
	return err
}

// writeLine writes a full "<prefix><body>\r\n" line, the form shared by
// simple strings and errors.
func (e *Encoder) writeLine(prefix byte, body string) error {
	e.lenScratch = append(e.lenScratch[:0], prefix)
	e.lenScratch = append(e.lenScratch, body...)
	e.lenScratch = append(e.lenScratch, '\r', '\n')
	_, err := e.s.Write(e.lenScratch)
	return err
}

// ArrayHeader writes the header of an array with n elements. The n values
// written after it form the array's elements.
func (e *Encoder) ArrayHeader(n int) error {
	return e.writePrefixedInt('*', int64(n))
}

// Int writes i as an integer value.
func (e *Encoder) Int(i int64) error {
	return e.writePrefixedInt(':', i)
}

// BulkString writes b as a bulk string. A nil or empty b is written as an
// empty bulk string, not a nil one; see Nil for the latter.
func (e *Encoder) BulkString(b []byte) error {
	err := e.writePrefixedInt('$', int64(len(b)))
	err = e.writeBytes(err, b)
	return e.writeBytes(err, delim)
}

// bulkStringStr is BulkString for a string payload, without converting it to
// a []byte first.
func (e *Encoder) bulkStringStr(s string) error {
	err := e.writePrefixedInt('$', int64(len(s)))
	err = e.writeStr(err, s)
	return e.writeBytes(err, delim)
}

// BulkStringFrom writes a bulk string whose body is streamed out of lr
// rather than held in memory. lr.Len must exactly match the number of bytes
// its Read will produce.
func (e *Encoder) BulkStringFrom(lr LenReader) error {
	if err := e.writePrefixedInt('$', lr.Len()); err != nil {
		return err
	}
	if _, err := io.Copy(e.s, lr); err != nil {
		return err
	}
	_, err := e.s.Write(delim)
	return err
}

// SimpleString writes s as a simple string. s must not contain \r or \n.
func (e *Encoder) SimpleString(s string) error {
	return e.writeLine('+', s)
}

// Error writes msg as an error value, the frame a server sends for a failed
// command. msg must not contain \r or \n.
func (e *Encoder) Error(msg string) error {
	return e.writeLine('-', msg)
}

// Nil writes a nil bulk string.
func (e *Encoder) Nil() error {
	_, err := e.s.Write(nilBulkStr)
	return err
}

// NilArray writes a nil array. Decoders, this package's included, read it
// back as the same Nil value a nil bulk string produces.
func (e *Encoder) NilArray() error {
	_, err := e.s.Write(nilArray)
	return err
}

func (e *Encoder) writeIntBulkStr(i int64) error {
	e.numScratch = strconv.AppendInt(e.numScratch[:0], i, 10)
	return e.BulkString(e.numScratch)
}

func (e *Encoder) writeFloatBulkStr(f float64, bits int) error {
	e.numScratch = strconv.AppendFloat(e.numScratch[:0], f, 'f', -1, bits)
	return e.BulkString(e.numScratch)
}

// Argument writes a single request argument: v coerced to its byte string
// representation and written as one bulk string.
//
// Accepted types are []byte, string, bool (written as "1" or "0"), all of
// Go's integer and float types, error (its message text), LenReader,
// Marshaler (whose result must itself coerce to one argument),
// encoding.TextMarshaler, encoding.BinaryMarshaler, nil (an empty bulk
// string), and pointers to all of these. Containers are not accepted: a
// request's argument count is fixed by its header, so a slice can't flatten
// into multiple arguments. Anything else fails with a ConversionError.
func (e *Encoder) Argument(v interface{}) error {
	return e.writeArg(v, 0)
}

func (e *Encoder) writeArg(v interface{}, depth int) error {
	if depth > maxEncodeDepth {
		return ConversionError{Value: v, Depth: depth}
	}

	switch vt := v.(type) {
	case []byte:
		return e.BulkString(vt)
	case string:
		return e.bulkStringStr(vt)
	case bool:
		if vt {
			return e.BulkString(boolTrue)
		}
		return e.BulkString(boolFalse)
	case nil:
		return e.BulkString(nil)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return e.writeIntBulkStr(bytesutil.AnyIntToInt64(vt))
	case float32:
		return e.writeFloatBulkStr(float64(vt), 32)
	case float64:
		return e.writeFloatBulkStr(vt, 64)
	case LenReader:
		return e.BulkStringFrom(vt)
	case Marshaler:
		mv, err := vt.MarshalRESP()
		if err != nil {
			return err
		}
		return e.writeArg(mv, depth+1)
	case encoding.TextMarshaler:
		b, err := vt.MarshalText()
		if err != nil {
			return err
		}
		return e.BulkString(b)
	case encoding.BinaryMarshaler:
		b, err := vt.MarshalBinary()
		if err != nil {
			return err
		}
		return e.BulkString(b)
	case error:
		return e.bulkStringStr(vt.Error())
	}

	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return e.BulkString(nil)
		}
		return e.writeArg(rv.Elem().Interface(), depth+1)
	}
	return ConversionError{Value: v}
}

// Encode writes v as a single RESP value. []byte and string values become
// bulk strings, integers become integer values, errors become error values,
// nil becomes a nil bulk string, and slices, arrays, and maps become arrays
// of their elements encoded recursively, maps as alternating key and value.
// A value implementing Marshaler is replaced by the result of its
// MarshalRESP. A *Reply, such as one produced by a Decoder, is written back
// exactly as it was read. Anything else fails with a ConversionError.
func (e *Encoder) Encode(v interface{}) error {
	return e.encode(v, 0)
}

func (e *Encoder) encode(v interface{}, depth int) error {
	if depth > maxEncodeDepth {
		return ConversionError{Value: v, Depth: depth}
	}

	switch vt := v.(type) {
	case nil:
		return e.Nil()
	case []byte:
		return e.BulkString(vt)
	case string:
		return e.bulkStringStr(vt)
	case bool:
		if vt {
			return e.BulkString(boolTrue)
		}
		return e.BulkString(boolFalse)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return e.Int(bytesutil.AnyIntToInt64(vt))
	case float32:
		return e.writeFloatBulkStr(float64(vt), 32)
	case float64:
		return e.writeFloatBulkStr(vt, 64)
	case *Reply:
		return e.encodeReply(vt, depth)
	case []interface{}:
		if err := e.ArrayHeader(len(vt)); err != nil {
			return err
		}
		for _, el := range vt {
			if err := e.encode(el, depth+1); err != nil {
				return err
			}
		}
		return nil
	case LenReader:
		return e.BulkStringFrom(vt)
	case Marshaler:
		mv, err := vt.MarshalRESP()
		if err != nil {
			return err
		}
		return e.encode(mv, depth+1)
	case encoding.TextMarshaler:
		b, err := vt.MarshalText()
		if err != nil {
			return err
		}
		return e.BulkString(b)
	case encoding.BinaryMarshaler:
		b, err := vt.MarshalBinary()
		if err != nil {
			return err
		}
		return e.BulkString(b)
	case error:
		return e.Error(vt.Error())
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		l := rv.Len()
		if err := e.ArrayHeader(l); err != nil {
			return err
		}
		for i := 0; i < l; i++ {
			if err := e.encode(rv.Index(i).Interface(), depth+1); err != nil {
				return err
			}
		}
		return nil
	case reflect.Map:
		if err := e.ArrayHeader(rv.Len() * 2); err != nil {
			return err
		}
		for _, k := range rv.MapKeys() {
			if err := e.encode(k.Interface(), depth+1); err != nil {
				return err
			}
			if err := e.encode(rv.MapIndex(k).Interface(), depth+1); err != nil {
				return err
			}
		}
		return nil
	case reflect.Ptr:
		if rv.IsNil() {
			return e.Nil()
		}
		return e.encode(rv.Elem().Interface(), depth+1)
	}
	return ConversionError{Value: v}
}

func (e *Encoder) encodeReply(r *Reply, depth int) error {
	if depth > maxEncodeDepth {
		return ConversionError{Value: r, Depth: depth}
	} else if r == nil {
		return e.Nil()
	}

	switch r.kind {
	case Nil:
		return e.Nil()
	case Int:
		return e.Int(r.num)
	case BulkStr:
		return e.BulkString(r.str)
	case SimpleStr:
		return e.writeLine('+', string(r.str))
	case Err:
		return e.Error(r.err.Error())
	case Array:
		if err := e.ArrayHeader(len(r.arr)); err != nil {
			return err
		}
		for _, el := range r.arr {
			if err := e.encodeReply(el, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return ConversionError{Value: r}
}
