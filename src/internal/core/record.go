// FILE: src/internal/core/record.go
package core

import "time"

// Priority values carried in the first non-padding payload byte of a binary
// log frame. 0 and 1 are never produced by a well-formed frame; a leading
// zero byte is alignment padding.
const (
	PriorityVerbose byte = 2
	PriorityDebug   byte = 3
	PriorityInfo    byte = 4
	PriorityWarn    byte = 5
	PriorityError   byte = 6
	PriorityAssert  byte = 7
)

var priorityNames = map[byte]string{
	PriorityVerbose: "verbose",
	PriorityDebug:   "debug",
	PriorityInfo:    "info",
	PriorityWarn:    "warn",
	PriorityError:   "error",
	PriorityAssert:  "assert",
}

var priorityLetters = map[byte]string{
	PriorityVerbose: "V",
	PriorityDebug:   "D",
	PriorityInfo:    "I",
	PriorityWarn:    "W",
	PriorityError:   "E",
	PriorityAssert:  "A",
}

// PriorityName returns the severity name for a frame priority value,
// or "unknown" for values outside the table.
func PriorityName(p byte) string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return "unknown"
}

// PriorityLetter returns the single-letter severity tag used in text output.
func PriorityLetter(p byte) string {
	if letter, ok := priorityLetters[p]; ok {
		return letter
	}
	return "?"
}

// ParsePriority maps a severity name back to its frame value.
func ParsePriority(name string) (byte, bool) {
	for p, n := range priorityNames {
		if n == name {
			return p, true
		}
	}
	return 0, false
}

// LogRecord is one fully decoded binary log frame. Records are immutable
// once produced; ownership passes to the consumer.
type LogRecord struct {
	Pid      int32
	Tid      int32
	Time     time.Time
	LogID    *uint32 // nil for frames without the extended header
	Priority byte
	Tag      string
	Message  string
}

// PriorityName returns the severity name of the record's priority byte.
func (r LogRecord) PriorityName() string {
	return PriorityName(r.Priority)
}
