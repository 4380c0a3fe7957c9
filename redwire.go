// Package redwire is a low level client implementation of the RESP
// protocol, the wire format spoken by redis and compatible servers. It
// covers both directions of the wire, requests out and replies back, and
// leaves command semantics to the caller: redwire knows how "SET" travels,
// not what it means.
//
// A Conn composes a resp.Stream with an encoder, a decoder, and a request
// counter. The simplest use writes one request, flushes it, and reads one
// reply:
//
//	conn, err := redwire.Dial("tcp", "127.0.0.1:6379")
//	if err != nil {
//		// handle error
//	}
//	defer conn.Close()
//
//	conn.WriteRequest("SET", "foo", "bar")
//	conn.Flush()
//	reply, err := conn.ReadReply()
//
// Because nothing is sent until Flush, pipelining falls out naturally:
// write any number of requests, flush once, then read the replies back in
// the order the requests were written:
//
//	for i := 0; i < 10; i++ {
//		conn.WriteRequest("INCR", "counter")
//	}
//	conn.Flush()
//	for i := 0; i < 10; i++ {
//		if _, err := conn.ReadReply(); err != nil {
//			// handle error
//		}
//	}
//
// An error reply from the server comes back from ReadReply as a
// resp.ServerError. It means the command failed, not the connection; the
// Conn keeps working. Every other error from ReadReply leaves the Conn's
// position in the reply stream unknown, and the Conn should be closed.
//
// A Conn performs no deadline or reconnect logic of its own, and is not
// safe for concurrent use. Timeouts are set up at dial time via DialOpts
// and enforced by the underlying net.Conn. For tests, Stub provides a Conn
// backed by a callback instead of a network.
package redwire
