package redwire

import (
	"crypto/tls"
	"net"
	"time"

	"github.com/mediocregopher/redwire/resp"
	"github.com/mediocregopher/redwire/trace"
)

type dialOpts struct {
	connectTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	useTLSConfig   bool
	tlsConfig      *tls.Config
	connOpts       []ConnOpt
}

// DialOpt is an optional behavior which can be applied to the Dial function
// to affect a Conn's behavior.
type DialOpt func(*dialOpts)

// DialConnectTimeout determines the timeout value to pass into
// net.DialTimeout when creating the connection.
func DialConnectTimeout(d time.Duration) DialOpt {
	return func(do *dialOpts) {
		do.connectTimeout = d
	}
}

// DialReadTimeout determines the deadline to set when reading from a dialed
// connection.
func DialReadTimeout(d time.Duration) DialOpt {
	return func(do *dialOpts) {
		do.readTimeout = d
	}
}

// DialWriteTimeout determines the deadline to set when writing to a dialed
// connection.
func DialWriteTimeout(d time.Duration) DialOpt {
	return func(do *dialOpts) {
		do.writeTimeout = d
	}
}

// DialTimeout is the equivalent to using DialConnectTimeout, DialReadTimeout,
// and DialWriteTimeout all with the same value.
func DialTimeout(d time.Duration) DialOpt {
	return func(do *dialOpts) {
		do.connectTimeout = d
		do.readTimeout = d
		do.writeTimeout = d
	}
}

// DialUseTLS will cause Dial to perform a TLS handshake using the provided
// config. If config is nil the config is interpreted as equivalent to the
// zero configuration. See https://golang.org/pkg/crypto/tls/#Config
func DialUseTLS(config *tls.Config) DialOpt {
	return func(do *dialOpts) {
		do.tlsConfig = config
		do.useTLSConfig = true
	}
}

// DialWithTrace attaches trace callbacks to the dialed Conn, like
// ConnWithTrace does for NewConn.
func DialWithTrace(tr trace.ConnTrace) DialOpt {
	return func(do *dialOpts) {
		do.connOpts = append(do.connOpts, ConnWithTrace(tr))
	}
}

// timeoutConn bounds each individual Read and Write with a deadline, rather
// than the whole connection with one.
type timeoutConn struct {
	net.Conn
	readTimeout, writeTimeout time.Duration
}

func (tc *timeoutConn) Read(b []byte) (int, error) {
	if tc.readTimeout > 0 {
		if err := tc.Conn.SetReadDeadline(time.Now().Add(tc.readTimeout)); err != nil {
			return 0, err
		}
	}
	return tc.Conn.Read(b)
}

func (tc *timeoutConn) Write(b []byte) (int, error) {
	if tc.writeTimeout > 0 {
		if err := tc.Conn.SetWriteDeadline(time.Now().Add(tc.writeTimeout)); err != nil {
			return 0, err
		}
	}
	return tc.Conn.Write(b)
}

// Dial creates a network connection to a RESP server using net.Dial (or
// tls.Dial if DialUseTLS is given) and wraps it in a Conn. The default is
// to have no timeouts of any kind; use DialOpts to change that.
//
// Commands like AUTH or SELECT are the caller's to perform, Dial only
// establishes the transport.
func Dial(network, addr string, opts ...DialOpt) (*Conn, error) {
	var do dialOpts
	for _, opt := range opts {
		opt(&do)
	}

	var netConn net.Conn
	var err error
	dialer := net.Dialer{Timeout: do.connectTimeout}
	if do.useTLSConfig {
		netConn, err = tls.DialWithDialer(&dialer, network, addr, do.tlsConfig)
	} else {
		netConn, err = dialer.Dial(network, addr)
	}
	if err != nil {
		return nil, err
	}

	// If the netConn is a *net.TCPConn (or some wrapper for it) and so can
	// have keepalive enabled, do so with a sane (though slightly
	// aggressive) default.
	{
		type keepaliveConn interface {
			SetKeepAlive(bool) error
			SetKeepAlivePeriod(time.Duration) error
		}

		if kaConn, ok := netConn.(keepaliveConn); ok {
			if err = kaConn.SetKeepAlive(true); err != nil {
				netConn.Close()
				return nil, err
			} else if err = kaConn.SetKeepAlivePeriod(10 * time.Second); err != nil {
				netConn.Close()
				return nil, err
			}
		}
	}

	tc := &timeoutConn{
		Conn:         netConn,
		readTimeout:  do.readTimeout,
		writeTimeout: do.writeTimeout,
	}
	return NewConn(resp.NewStream(tc), do.connOpts...), nil
}
