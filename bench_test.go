package redwire

import (
	"context"
	"os"
	. "testing"
	"time"

	goredis "github.com/go-redis/redis"
	redigo "github.com/gomodule/redigo/redis"
	redispipe "github.com/joomcode/redispipe/redis"
	redispipeconn "github.com/joomcode/redispipe/redisconn"
)

func getEnv(varName, defaultVal string) string {
	if v := os.Getenv(varName); v != "" {
		return v
	}
	return defaultVal
}

var benchAddr = getEnv("REDIS_ADDR", "127.0.0.1:6379")

func newBenchConn(b *B) *Conn {
	c, err := Dial("tcp", benchAddr)
	if err != nil {
		b.Fatal(err)
	}
	return c
}

func newRedigo(b *B) redigo.Conn {
	c, err := redigo.Dial("tcp", benchAddr)
	if err != nil {
		b.Fatal(err)
	}
	return c
}

func newRedisPipe(b *B, writePause time.Duration) redispipe.Sync {
	pipe, err := redispipeconn.Connect(context.Background(), benchAddr, redispipeconn.Opts{
		Logger:     redispipeconn.NoopLogger{},
		WritePause: writePause,
	})
	if err != nil {
		b.Fatal(err)
	}
	return redispipe.Sync{S: pipe}
}

func BenchmarkSerialGetSet(b *B) {
	b.Run("redwire", func(b *B) {
		c := newBenchConn(b)
		defer c.Close()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if err := c.WriteRequest("SET", "foo", "bar"); err != nil {
				b.Fatal(err)
			} else if err := c.Flush(); err != nil {
				b.Fatal(err)
			} else if _, err := c.ReadReply(); err != nil {
				b.Fatal(err)
			}

			if err := c.WriteRequest("GET", "foo"); err != nil {
				b.Fatal(err)
			} else if err := c.Flush(); err != nil {
				b.Fatal(err)
			}
			r, err := c.ReadReply()
			if err != nil {
				b.Fatal(err)
			} else if _, err := r.Str(); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("redigo", func(b *B) {
		c := newRedigo(b)
		defer c.Close()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := c.Do("SET", "foo", "bar"); err != nil {
				b.Fatal(err)
			} else if _, err := redigo.String(c.Do("GET", "foo")); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("redispipe", func(b *B) {
		sync := newRedisPipe(b, 150*time.Microsecond)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if err := redispipe.AsError(sync.Do("SET", "foo", "bar")); err != nil {
				b.Fatal(err)
			} else if err := redispipe.AsError(sync.Do("GET", "foo")); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("goredis", func(b *B) {
		client := goredis.NewClient(&goredis.Options{Addr: benchAddr})
		defer client.Close()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if err := client.Set("foo", "bar", 0).Err(); err != nil {
				b.Fatal(err)
			} else if err := client.Get("foo").Err(); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkPipelinedGetSet(b *B) {
	b.Run("redwire", func(b *B) {
		c := newBenchConn(b)
		defer c.Close()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if err := c.WriteRequest("SET", "foo", "bar"); err != nil {
				b.Fatal(err)
			} else if err := c.WriteRequest("GET", "foo"); err != nil {
				b.Fatal(err)
			} else if err := c.Flush(); err != nil {
				b.Fatal(err)
			}
			for j := 0; j < 2; j++ {
				if _, err := c.ReadReply(); err != nil {
					b.Fatal(err)
				}
			}
		}
	})

	b.Run("redigo", func(b *B) {
		c := newRedigo(b)
		defer c.Close()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if err := c.Send("SET", "foo", "bar"); err != nil {
				b.Fatal(err)
			} else if err := c.Send("GET", "foo"); err != nil {
				b.Fatal(err)
			} else if err := c.Flush(); err != nil {
				b.Fatal(err)
			}
			for j := 0; j < 2; j++ {
				if _, err := c.Receive(); err != nil {
					b.Fatal(err)
				}
			}
		}
	})

	b.Run("redispipe", func(b *B) {
		sync := newRedisPipe(b, 150*time.Microsecond)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			ress := sync.SendMany([]redispipe.Request{
				redispipe.Req("SET", "foo", "bar"),
				redispipe.Req("GET", "foo"),
			})
			for _, res := range ress {
				if err := redispipe.AsError(res); err != nil {
					b.Fatal(err)
				}
			}
		}
	})

	b.Run("goredis", func(b *B) {
		client := goredis.NewClient(&goredis.Options{Addr: benchAddr})
		defer client.Close()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			pipe := client.Pipeline()
			pipe.Set("foo", "bar", 0)
			pipe.Get("foo")
			if _, err := pipe.Exec(); err != nil {
				b.Fatal(err)
			}
		}
	})
}
