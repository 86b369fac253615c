// FILE: src/internal/decode/corrector.go
package decode

import "bytes"

// Line-ending corruption patterns produced by the device shell transport,
// which rewrites every LF it forwards.
var (
	patternUnix    = []byte{'\r', '\n'}
	patternWindows = []byte{'\r', '\r', '\n'}
)

// PatternForPlatform returns the corruption pattern emitted by the transport
// on the given host platform (a GOOS value). The pattern is resolved once at
// construction and threaded in explicitly so the corrector stays testable on
// any host.
func PatternForPlatform(goos string) []byte {
	if goos == "windows" {
		return patternWindows
	}
	return patternUnix
}

// LineEndingCorrector rewrites each occurrence of the transport's corruption
// pattern back to the original single LF byte. The pattern can straddle two
// delivered chunks, so up to len(pattern)-1 trailing bytes are held back
// between calls until the next chunk resolves them. All other bytes pass
// through unchanged and in order.
type LineEndingCorrector struct {
	pattern []byte
	held    []byte
}

func NewLineEndingCorrector(pattern []byte) *LineEndingCorrector {
	return &LineEndingCorrector{pattern: pattern}
}

// Transform rewrites one incoming chunk, prepending bytes held over from the
// previous call. The returned slice is safe to retain.
func (c *LineEndingCorrector) Transform(chunk []byte) []byte {
	data := chunk
	if len(c.held) > 0 {
		data = append(c.held, chunk...)
		c.held = nil
	}

	out := make([]byte, 0, len(data))
	for {
		i := bytes.Index(data, c.pattern)
		if i < 0 {
			break
		}
		out = append(out, data[:i]...)
		out = append(out, '\n')
		data = data[i+len(c.pattern):]
	}

	// The tail may end with a prefix of the pattern whose remainder arrives
	// in the next chunk. Hold it back instead of emitting it.
	if n := patternPrefixLen(data, c.pattern); n > 0 {
		c.held = append([]byte(nil), data[len(data)-n:]...)
		data = data[:len(data)-n]
	}

	return append(out, data...)
}

// Flush returns any held-back bytes verbatim. Called at end of stream: a
// suffix still held there was a false positive never completed into a full
// pattern.
func (c *LineEndingCorrector) Flush() []byte {
	held := c.held
	c.held = nil
	return held
}

// patternPrefixLen returns the length of the longest suffix of data that is
// a proper prefix of pattern.
func patternPrefixLen(data, pattern []byte) int {
	max := len(pattern) - 1
	if max > len(data) {
		max = len(data)
	}
	for n := max; n > 0; n-- {
		if bytes.Equal(data[len(data)-n:], pattern[:n]) {
			return n
		}
	}
	return 0
}
