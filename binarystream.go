package som

import "io"

// BinaryStreamHandler lazily opens a readable stream for a BINARY property's
// path. Registered once per process (spec §9): the SessionObjectManager
// itself holds no such global state and must remain instantiable many times
// per process, but a binary stream protocol handler is the one piece of
// process-wide state the spec carves out an exception for.
type BinaryStreamHandler func(path string) (io.ReadCloser, error)

var binaryStreamHandler BinaryStreamHandler

// RegisterBinaryStreamHandler installs the process-wide handler used by
// Property.Binary() to stream BINARY-typed property values.
func RegisterBinaryStreamHandler(h BinaryStreamHandler) {
	binaryStreamHandler = h
}

// OpenBinaryStream resolves path via the registered handler, failing with
// UnsupportedOperation if none has been registered yet.
func OpenBinaryStream(path string) (io.ReadCloser, error) {
	if binaryStreamHandler == nil {
		return nil, NewError(UnsupportedOperation, path, nil)
	}
	return binaryStreamHandler(path)
}
