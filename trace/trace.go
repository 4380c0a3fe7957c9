package trace

// ConnTrace is passed into a Conn via redwire.ConnWithTrace or
// redwire.DialWithTrace, and its callbacks get triggered as the Conn's
// methods are used. All callbacks are called synchronously from the method
// which triggered them, and any of them may be nil.
type ConnTrace struct {
	// RequestWritten is called after WriteRequest has finished writing a
	// request's frames into the stream's outgoing buffer. The request has
	// not necessarily been flushed yet.
	RequestWritten func(ConnRequestWritten)

	// Flushed is called after the stream's outgoing buffer has been
	// flushed.
	Flushed func(ConnFlushed)

	// ReplyRead is called after each attempt to read a reply, successful
	// or not.
	ReplyRead func(ConnReplyRead)
}

// ConnRequestWritten is passed to the ConnTrace.RequestWritten callback.
type ConnRequestWritten struct {
	// Args is the number of arguments in the request, the command name
	// included.
	Args int

	// Count is the running number of requests written to the Conn,
	// including this one. A request counts even when writing its arguments
	// failed partway through.
	Count int64

	// Err is the error writing the request, if there was one.
	Err error
}

// ConnFlushed is passed to the ConnTrace.Flushed callback.
type ConnFlushed struct {
	// Err is the error flushing the stream, if there was one.
	Err error
}

// ConnReplyRead is passed to the ConnTrace.ReplyRead callback.
type ConnReplyRead struct {
	// Err is the error reading the reply, if there was one. An error reply
	// from the server shows up here as a resp.ServerError.
	Err error
}
