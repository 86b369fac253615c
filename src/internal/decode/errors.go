// FILE: src/internal/decode/errors.go
package decode

import "errors"

// Failure taxonomy surfaced by the frame decoder.
var (
	// ErrInsufficientBytes means the byte stream ended before a read could be
	// satisfied. At a frame-length read with an empty buffer this is the
	// normal end of stream; anywhere else it means the source was truncated
	// mid-frame.
	ErrInsufficientBytes = errors.New("insufficient bytes in stream")

	// ErrInvalidHeaderSize means a frame declared a header layout the decoder
	// does not recognize.
	ErrInvalidHeaderSize = errors.New("invalid frame header size")

	// ErrStreamDetached means an in-flight read was cancelled because the
	// decoder was detached or re-attached to another source.
	ErrStreamDetached = errors.New("stream detached")
)

// Internal marker delivered to a suspended read when the source ends.
// The read primitive translates it to ErrInsufficientBytes; it never
// escapes the decoder.
var errStreamEnded = errors.New("stream ended")
