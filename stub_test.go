package redwire

import (
	. "testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errors "golang.org/x/xerrors"

	"github.com/mediocregopher/redwire/resp"
)

func TestStub(t *T) {
	m := map[string]string{}
	c := Stub(func(args []string) interface{} {
		switch args[0] {
		case "GET":
			v, ok := m[args[1]]
			if !ok {
				return nil
			}
			return v
		case "SET":
			m[args[1]] = args[2]
			return resp.NewSimpleStr("OK")
		case "DEL":
			n := 0
			for _, k := range args[1:] {
				if _, ok := m[k]; ok {
					delete(m, k)
					n++
				}
			}
			return n
		case "KEYS":
			keys := make([]string, 0, len(m))
			for k := range m {
				keys = append(keys, k)
			}
			return keys
		default:
			return errors.Errorf("ERR unknown command %q", args[0])
		}
	})

	require.Nil(t, c.WriteRequest("SET", "foo", "bar"))
	require.Nil(t, c.Flush())
	r, err := c.ReadReply()
	require.Nil(t, err)
	assert.True(t, r.IsKind(resp.SimpleStr))
	s, err := r.Str()
	require.Nil(t, err)
	assert.Equal(t, "OK", s)

	require.Nil(t, c.WriteRequest("GET", "foo"))
	require.Nil(t, c.Flush())
	r, err = c.ReadReply()
	require.Nil(t, err)
	assert.True(t, r.IsKind(resp.BulkStr))
	s, err = r.Str()
	require.Nil(t, err)
	assert.Equal(t, "bar", s)

	// a nil return becomes a nil reply
	require.Nil(t, c.WriteRequest("GET", "missing"))
	require.Nil(t, c.Flush())
	r, err = c.ReadReply()
	require.Nil(t, err)
	assert.True(t, r.IsKind(resp.Nil))

	// an int return becomes an integer reply
	require.Nil(t, c.WriteRequest("DEL", "foo", "missing"))
	require.Nil(t, c.Flush())
	r, err = c.ReadReply()
	require.Nil(t, err)
	i, err := r.Int()
	require.Nil(t, err)
	assert.Equal(t, int64(1), i)

	// a slice return becomes an array reply
	require.Nil(t, c.WriteRequest("SET", "a", "1"))
	require.Nil(t, c.WriteRequest("KEYS"))
	require.Nil(t, c.Flush())
	_, err = c.ReadReply()
	require.Nil(t, err)
	r, err = c.ReadReply()
	require.Nil(t, err)
	l, err := r.List()
	require.Nil(t, err)
	assert.Equal(t, []string{"a"}, l)

	// an error return becomes an error reply
	require.Nil(t, c.WriteRequest("WAT"))
	require.Nil(t, c.Flush())
	_, err = c.ReadReply()
	var serr resp.ServerError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, `ERR unknown command "WAT"`, serr.Msg)
}

func TestStubBatchesOnFlush(t *T) {
	var calls int
	c := Stub(func(args []string) interface{} {
		calls++
		return calls
	})

	require.Nil(t, c.WriteRequest("A"))
	require.Nil(t, c.WriteRequest("B"))

	// nothing is serviced before the flush, and reading past the buffered
	// replies fails fast rather than blocking
	assert.Zero(t, calls)
	_, err := c.ReadReply()
	assert.True(t, errors.Is(err, resp.ErrUnexpectedEOS))

	require.Nil(t, c.Flush())
	assert.Equal(t, 2, calls)

	r, err := c.ReadReply()
	require.Nil(t, err)
	i, err := r.Int()
	require.Nil(t, err)
	assert.Equal(t, int64(1), i)

	r, err = c.ReadReply()
	require.Nil(t, err)
	i, err = r.Int()
	require.Nil(t, err)
	assert.Equal(t, int64(2), i)

	_, err = c.ReadReply()
	assert.True(t, errors.Is(err, resp.ErrUnexpectedEOS))
}

func TestStubInvalidRequest(t *T) {
	c := Stub(func(args []string) interface{} {
		return resp.NewSimpleStr("OK")
	})

	// a request whose arguments can't be interpreted as strings is answered
	// with an error reply rather than killing the stub
	require.Nil(t, c.WriteValue(5))
	require.Nil(t, c.WriteRequest("PING"))
	require.Nil(t, c.Flush())

	_, err := c.ReadReply()
	var serr resp.ServerError
	require.True(t, errors.As(err, &serr))

	r, err := c.ReadReply()
	require.Nil(t, err)
	s, err := r.Str()
	require.Nil(t, err)
	assert.Equal(t, "OK", s)
}
