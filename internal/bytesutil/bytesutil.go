// Package bytesutil provides utility functions for working with bytes and
// byte streams that are useful when working with the RESP protocol.
package bytesutil

import (
	"errors"
	"fmt"
	"io"
	"math"
)

// AnyIntToInt64 converts a value of any of Go's integer types (signed and
// unsigned) into a signed int64.
//
// If m is not of one of Go's built in integer types the call will panic.
func AnyIntToInt64(m interface{}) int64 {
	switch mt := m.(type) {
	case int:
		return int64(mt)
	case int8:
		return int64(mt)
	case int16:
		return int64(mt)
	case int32:
		return int64(mt)
	case int64:
		return mt
	case uint:
		return int64(mt)
	case uint8:
		return int64(mt)
	case uint16:
		return int64(mt)
	case uint32:
		return int64(mt)
	case uint64:
		return int64(mt)
	}
	panic(fmt.Sprintf("anyIntToInt64 got bad arg: %#v", m))
}

// ParseInt is a specialized version of strconv.ParseInt that parses a base-10
// encoded signed integer from a []byte.
//
// This can be used to avoid allocating a string, since strconv.ParseInt only
// takes a string.
func ParseInt(b []byte) (int64, error) {
	if len(b) == 0 {
		return 0, errors.New("empty slice given to parseInt")
	}

	var neg bool
	if b[0] == '-' || b[0] == '+' {
		neg = b[0] == '-'
		b = b[1:]
	}

	n, err := ParseUint(b)
	if err != nil {
		return 0, err
	}

	if neg {
		if n > 1<<63 {
			return 0, errors.New("value out of range for int64")
		}
		// n == 1<<63 converts to exactly math.MinInt64 after negation.
		return -int64(n), nil
	}

	if n > 1<<63-1 {
		return 0, errors.New("value out of range for int64")
	}
	return int64(n), nil
}

// ParseUint is a specialized version of strconv.ParseUint that parses a
// base-10 encoded integer from a []byte.
//
// This can be used to avoid allocating a string, since strconv.ParseUint only
// takes a string.
func ParseUint(b []byte) (uint64, error) {
	if len(b) == 0 {
		return 0, errors.New("empty slice given to parseUint")
	}

	var n uint64

	for i, c := range b {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid character %c at position %d in parseUint", c, i)
		}

		d := uint64(c - '0')
		if n > (math.MaxUint64-d)/10 {
			return 0, errors.New("value out of range for uint64")
		}
		n = n*10 + d
	}

	return n, nil
}

func expand(b []byte, n int, keepBytes bool) []byte {
	if n == 0 && b == nil {
		b = []byte{} // so as to not return nil
	} else if cap(b) < n {
		nb := make([]byte, n)
		if keepBytes {
			copy(nb, b)
		}
		return nb
	}
	return b[:n]
}

// Expand expands the given byte slice to exactly n bytes. It will not return
// nil.
//
// If cap(b) < n then a new slice will be allocated.
func Expand(b []byte, n int) []byte {
	return expand(b, n, false)
}

// ReadNAppend appends exactly n bytes from r into b.
func ReadNAppend(r io.Reader, b []byte, n int) ([]byte, error) {
	if n == 0 {
		return b, nil
	}
	m := len(b)
	b = expand(b, len(b)+n, true)
	_, err := io.ReadFull(r, b[m:])
	return b, err
}
