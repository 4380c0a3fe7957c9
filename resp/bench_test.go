package resp

import (
	"io"
	"io/ioutil"
	. "testing"
)

// loopReader serves the same bytes over and over, so a benchmark can keep
// decoding off of it indefinitely.
type loopReader struct {
	b   []byte
	off int
}

func (lr *loopReader) Read(p []byte) (int, error) {
	n := copy(p, lr.b[lr.off:])
	lr.off = (lr.off + n) % len(lr.b)
	return n, nil
}

type benchRW struct {
	io.Reader
	io.Writer
}

var benchReply *Reply

func BenchmarkDecode(b *B) {
	tests := []struct {
		name string
		in   string
	}{
		{"simple string", "+OK\r\n"},
		{"int", ":12345\r\n"},
		{"bulk string", "$6\r\nfoobar\r\n"},
		{"nil", "$-1\r\n"},
		{"array", "*2\r\n$3\r\nfoo\r\n$3\r\nbar\r\n"},
	}

	for _, test := range tests {
		b.Run(test.name, func(b *B) {
			d := NewDecoder(NewStream(benchRW{
				Reader: &loopReader{b: []byte(test.in)},
				Writer: ioutil.Discard,
			}))
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				r, err := d.Decode()
				if err != nil {
					b.Fatalf("failed to decode %q: %s", test.in, err)
				}
				benchReply = r
			}
		})
	}
}

func BenchmarkEncode(b *B) {
	e := NewEncoder(NewStream(benchRW{Writer: ioutil.Discard}))

	b.Run("bulk string", func(b *B) {
		body := []byte("foobar")
		for i := 0; i < b.N; i++ {
			if err := e.BulkString(body); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("int", func(b *B) {
		for i := 0; i < b.N; i++ {
			if err := e.Int(int64(i)); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("argument", func(b *B) {
		for i := 0; i < b.N; i++ {
			if err := e.Argument("foobar"); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("request", func(b *B) {
		for i := 0; i < b.N; i++ {
			if err := e.ArrayHeader(3); err != nil {
				b.Fatal(err)
			} else if err := e.Argument("SET"); err != nil {
				b.Fatal(err)
			} else if err := e.Argument("foo"); err != nil {
				b.Fatal(err)
			} else if err := e.Argument(i); err != nil {
				b.Fatal(err)
			}
		}
	})
}
