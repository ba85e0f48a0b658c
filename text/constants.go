package text

// Protocol delimiters
const (
	// CRLF is the line terminator for the memcached text protocol
	CRLF = "\r\n"

	// Space joins version tokens back together
	Space = " "
)

// Acknowledgement markers. A single-token line carrying one of these
// classifies as KindOk.
const (
	// MarkerOK is returned by commands such as flush_all, touch and verbosity.
	MarkerOK = "OK"

	// MarkerStored acknowledges set, add, replace, append, prepend and cas.
	MarkerStored = "STORED"

	// MarkerDeleted acknowledges delete.
	MarkerDeleted = "DELETED"
)

// Miss markers. A single-token line carrying one of these classifies as
// KindMiss: the key was absent or a storage condition failed.
const (
	// MarkerEnd terminates a retrieval. Alone on a line it means no value
	// was found. After a value block it is the end-of-block marker.
	MarkerEnd = "END"

	// MarkerExists is returned by cas when the item changed since it was fetched.
	MarkerExists = "EXISTS"

	// MarkerNotFound is returned by cas, delete, incr, decr and touch on a
	// missing key.
	MarkerNotFound = "NOT_FOUND"

	// MarkerNotStored is returned by add, replace, append and prepend when
	// their condition is not met.
	MarkerNotStored = "NOT_STORED"
)

// Header markers
const (
	// MarkerValue introduces a value block:
	//
	//	VALUE <key> <flags> <bytes> [<cas unique>]\r\n
	//	<data block>\r\n
	//	END\r\n
	MarkerValue = "VALUE"

	// MarkerVersion precedes a free-form version string:
	//
	//	VERSION <version>\r\n
	MarkerVersion = "VERSION"
)

// Error markers. The server reply is handed back verbatim.
const (
	// MarkerError means the client sent a nonexistent command name.
	MarkerError = "ERROR"

	// MarkerClientError means the input did not conform to the protocol.
	MarkerClientError = "CLIENT_ERROR"

	// MarkerServerError means the server failed to carry out the command.
	MarkerServerError = "SERVER_ERROR"
)

// Value header fields, by token position.
const (
	valueFieldKey    = 1
	valueFieldFlags  = 2
	valueFieldLength = 3
	valueFieldCAS    = 4

	// minValueTokens counts VALUE, key, flags and length.
	minValueTokens = 4
)
