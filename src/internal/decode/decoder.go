// FILE: src/internal/decode/decoder.go
package decode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"logtap/src/internal/core"
	"logtap/src/internal/event"

	"github.com/lixenwraith/log"
)

// Event name the exact-size read suspends on. The decoder never has more
// than one outstanding wait on it; the signal enforces the single slot.
const eventReadable = "readable"

// Header sizes a frame may declare. 0 is the original layout without a log
// id field; 24 is either of the two extended layouts that carry one.
const extendedHeaderSize = 24

// ChunkSource delivers ordered byte chunks from a device log transport.
// The channel closes at end of stream.
type ChunkSource interface {
	Subscribe() <-chan []byte
}

// Options configures a Decoder at construction time.
type Options struct {
	// LineEndingPattern, when non-nil, routes every attached source through
	// a LineEndingCorrector for this pattern before buffering. Use
	// PatternForPlatform to pick the host's pattern.
	LineEndingPattern []byte

	// SubscriberBuffer is the channel depth handed to push subscribers.
	SubscriberBuffer int64
}

// StreamOptions selects the tolerant modes of one record stream.
type StreamOptions struct {
	// SuppressErrors swallows any decode failure; the stream simply ends.
	SuppressErrors bool

	// RecoverOnInvalidHeader discards all buffered bytes and ends the
	// stream cleanly on an unrecognized header size instead of failing.
	RecoverOnInvalidHeader bool
}

// Decoder reassembles binary log frames from an attached chunk source.
// Chunks are buffered in arrival order; the record stream pulls frames out
// with an exact-size read that suspends until enough bytes exist.
type Decoder struct {
	opts   Options
	signal *event.Signal
	logger *log.Logger

	mu          sync.Mutex
	buf         []byte
	cursor      int
	pendingRead int
	ended       bool
	gen         uint64
	stop        chan struct{}

	subMu       sync.RWMutex
	subscribers []chan core.LogRecord

	// Statistics
	totalRecords   atomic.Uint64
	droppedRecords atomic.Uint64
	startTime      time.Time
	lastRecordTime atomic.Value // time.Time
}

// DecoderStats contains statistics about a decoder
type DecoderStats struct {
	TotalRecords   uint64
	DroppedRecords uint64
	BufferedBytes  int64
	StartTime      time.Time
	LastRecordTime time.Time
}

func NewDecoder(opts Options, logger *log.Logger) *Decoder {
	if opts.SubscriberBuffer <= 0 {
		opts.SubscriberBuffer = 1000
	}
	d := &Decoder{
		opts:      opts,
		signal:    event.NewSignal(),
		logger:    logger,
		startTime: time.Now(),
	}
	d.lastRecordTime.Store(time.Time{})
	return d
}

// Subscribe returns a channel receiving every decoded record, alongside the
// pull stream. Records are dropped for a subscriber whose buffer is full.
func (d *Decoder) Subscribe() <-chan core.LogRecord {
	d.subMu.Lock()
	defer d.subMu.Unlock()

	ch := make(chan core.LogRecord, d.opts.SubscriberBuffer)
	d.subscribers = append(d.subscribers, ch)
	return ch
}

// Attach replaces any previously attached source. The buffer, cursor and
// pending read state are cleared, any read suspended on the previous source
// fails with ErrStreamDetached, and chunk/end notifications from the new
// source are forwarded into the buffer from here on.
func (d *Decoder) Attach(src ChunkSource) {
	ch := src.Subscribe()

	d.mu.Lock()
	if d.stop != nil {
		close(d.stop)
	}
	d.gen++
	gen := d.gen
	d.buf = nil
	d.cursor = 0
	d.pendingRead = 0
	d.ended = false
	stop := make(chan struct{})
	d.stop = stop
	d.mu.Unlock()

	d.signal.Abort(eventReadable, ErrStreamDetached)

	var corrector *LineEndingCorrector
	if d.opts.LineEndingPattern != nil {
		corrector = NewLineEndingCorrector(d.opts.LineEndingPattern)
	}
	go d.forward(ch, corrector, stop, gen)

	d.logger.Debug("msg", "Source attached",
		"component", "decoder",
		"line_ending_correction", corrector != nil)
}

// Detach stops forwarding from the current source and fails any suspended
// read with ErrStreamDetached. Already buffered bytes are kept.
func (d *Decoder) Detach() {
	d.mu.Lock()
	if d.stop != nil {
		close(d.stop)
		d.stop = nil
	}
	d.mu.Unlock()

	d.signal.Abort(eventReadable, ErrStreamDetached)

	d.logger.Debug("msg", "Source detached", "component", "decoder")
}

func (d *Decoder) GetStats() DecoderStats {
	lastRecord, _ := d.lastRecordTime.Load().(time.Time)

	d.mu.Lock()
	buffered := int64(len(d.buf) - d.cursor)
	d.mu.Unlock()

	return DecoderStats{
		TotalRecords:   d.totalRecords.Load(),
		DroppedRecords: d.droppedRecords.Load(),
		BufferedBytes:  buffered,
		StartTime:      d.startTime,
		LastRecordTime: lastRecord,
	}
}

// forward pumps one attached source's chunks into the buffer until the
// source ends or a newer attach supersedes it.
func (d *Decoder) forward(ch <-chan []byte, corrector *LineEndingCorrector, stop chan struct{}, gen uint64) {
	for {
		select {
		case <-stop:
			return
		case chunk, ok := <-ch:
			if !ok {
				d.endStream(corrector, gen)
				return
			}
			d.ingest(chunk, corrector, gen)
		}
	}
}

func (d *Decoder) ingest(chunk []byte, corrector *LineEndingCorrector, gen uint64) {
	if corrector != nil {
		chunk = corrector.Transform(chunk)
	}
	if len(chunk) == 0 {
		return
	}

	d.mu.Lock()
	if d.gen != gen {
		d.mu.Unlock()
		return
	}
	d.buf = append(d.buf, chunk...)
	ready := d.pendingRead > 0 && d.available() >= d.pendingRead
	d.mu.Unlock()

	if ready {
		d.signal.Notify(eventReadable, nil)
	}
}

func (d *Decoder) endStream(corrector *LineEndingCorrector, gen uint64) {
	var tail []byte
	if corrector != nil {
		tail = corrector.Flush()
	}

	d.mu.Lock()
	if d.gen != gen {
		d.mu.Unlock()
		return
	}
	d.buf = append(d.buf, tail...)
	d.ended = true
	d.mu.Unlock()

	d.signal.Abort(eventReadable, errStreamEnded)
}

// available must be called with d.mu held.
func (d *Decoder) available() int {
	return len(d.buf) - d.cursor
}

// readExact returns exactly n bytes, advancing the cursor. When not enough
// bytes are buffered it suspends on the readiness signal until the source
// delivers them; it fails with ErrInsufficientBytes if the stream ends
// first, or ErrStreamDetached if a newer attach supersedes gen.
func (d *Decoder) readExact(gen uint64, n int) ([]byte, error) {
	for {
		d.mu.Lock()
		if d.gen != gen {
			d.mu.Unlock()
			return nil, ErrStreamDetached
		}
		if d.available() >= n {
			out := make([]byte, n)
			copy(out, d.buf[d.cursor:d.cursor+n])
			d.cursor += n
			d.pendingRead = 0
			d.mu.Unlock()
			return out, nil
		}
		if d.ended {
			d.pendingRead = 0
			d.mu.Unlock()
			return nil, ErrInsufficientBytes
		}

		// Register the wait slot while still holding the buffer lock so an
		// arriving chunk cannot fire the notification before the slot exists.
		d.pendingRead = n
		pending, err := d.signal.Prepare(eventReadable)
		d.mu.Unlock()
		if err != nil {
			return nil, err
		}

		if _, err := pending.Wait(); err != nil {
			if errors.Is(err, errStreamEnded) {
				// Bytes may have arrived together with the end of stream;
				// loop back and let the buffer state decide.
				continue
			}
			return nil, err
		}
	}
}

// buffered reports the bytes currently available to the given stream.
func (d *Decoder) buffered(gen uint64) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gen != gen {
		return 0
	}
	return d.available()
}

// roll physically discards the consumed prefix. Called only at frame
// boundaries so a frame's bytes stay contiguous until fully consumed.
func (d *Decoder) roll(gen uint64) {
	d.mu.Lock()
	if d.gen == gen && d.cursor > 0 {
		d.buf = append([]byte(nil), d.buf[d.cursor:]...)
		d.cursor = 0
	}
	d.mu.Unlock()
}

// resetBuffer empties the buffer on stream termination.
func (d *Decoder) resetBuffer(gen uint64) {
	d.mu.Lock()
	if d.gen == gen {
		d.buf = nil
		d.cursor = 0
		d.pendingRead = 0
	}
	d.mu.Unlock()
}

func (d *Decoder) publish(rec core.LogRecord) {
	d.totalRecords.Add(1)
	d.lastRecordTime.Store(time.Now())

	d.subMu.RLock()
	defer d.subMu.RUnlock()

	for _, ch := range d.subscribers {
		select {
		case ch <- rec:
		default:
			d.droppedRecords.Add(1)
			d.logger.Debug("msg", "Dropped record - subscriber buffer full",
				"component", "decoder")
		}
	}
}

// Stream is one lazy pass over the attached byte stream. A new Stream may
// be opened after a previous one terminated or after a re-attach.
type Stream struct {
	d    *Decoder
	gen  uint64
	opts StreamOptions
	done bool
	err  error
}

// Stream opens a record stream over the currently attached source.
func (d *Decoder) Stream(opts StreamOptions) *Stream {
	d.mu.Lock()
	gen := d.gen
	d.mu.Unlock()
	return &Stream{d: d, gen: gen, opts: opts}
}

// Next decodes and returns the next record. It returns io.EOF when the
// source ended cleanly; under SuppressErrors every other failure is reported
// as io.EOF too. The buffer is reset when the stream terminates.
func (s *Stream) Next() (core.LogRecord, error) {
	if s.done {
		return core.LogRecord{}, s.err
	}

	rec, err := s.decodeFrame()
	if err != nil {
		s.done = true
		s.d.resetBuffer(s.gen)
		if err != io.EOF && s.opts.SuppressErrors {
			s.d.logger.Debug("msg", "Decode failure suppressed",
				"component", "decoder",
				"error", err)
			err = io.EOF
		}
		s.err = err
		return core.LogRecord{}, err
	}

	s.d.publish(rec)
	return rec, nil
}

func (s *Stream) read(n int) ([]byte, error) {
	return s.d.readExact(s.gen, n)
}

func (s *Stream) decodeFrame() (core.LogRecord, error) {
	var zero core.LogRecord

	lenField, err := s.read(2)
	if err != nil {
		// Running out of bytes at the frame-length read with an empty
		// buffer is the normal end of stream.
		if errors.Is(err, ErrInsufficientBytes) && s.d.buffered(s.gen) == 0 {
			return zero, io.EOF
		}
		return zero, err
	}
	payloadLen := int(binary.LittleEndian.Uint16(lenField))

	hdrField, err := s.read(2)
	if err != nil {
		return zero, err
	}
	headerSize := binary.LittleEndian.Uint16(hdrField)

	hasLogID := false
	switch headerSize {
	case 0:
	case extendedHeaderSize:
		hasLogID = true
	default:
		if s.opts.RecoverOnInvalidHeader {
			s.d.logger.Warn("msg", "Unrecognized frame header size, discarding buffer",
				"component", "decoder",
				"header_size", headerSize)
			s.d.resetBuffer(s.gen)
			return zero, io.EOF
		}
		return zero, fmt.Errorf("%w: %d", ErrInvalidHeaderSize, headerSize)
	}

	fixed, err := s.read(16)
	if err != nil {
		return zero, err
	}
	pid := int32(binary.LittleEndian.Uint32(fixed[0:4]))
	tid := int32(binary.LittleEndian.Uint32(fixed[4:8]))
	sec := int32(binary.LittleEndian.Uint32(fixed[8:12]))
	nsec := int32(binary.LittleEndian.Uint32(fixed[12:16]))

	var logID *uint32
	if hasLogID {
		idField, err := s.read(4)
		if err != nil {
			return zero, err
		}
		id := binary.LittleEndian.Uint32(idField)
		logID = &id
	}

	payload, err := s.read(payloadLen)
	if err != nil {
		return zero, err
	}

	// Leading zero bytes are alignment padding in front of the priority
	// byte; 0 is never a legitimate priority. Some transports emit the
	// padding without counting it in the payload length, so if it covers
	// everything read so far, pull another payload's worth and keep
	// scanning.
	p := 0
	refilled := 0
	for {
		for p < len(payload) && payload[p] == 0 {
			p++
		}
		if p < len(payload) {
			break
		}
		if payloadLen == 0 {
			return zero, fmt.Errorf("%w: zero-length payload", ErrInsufficientBytes)
		}
		more, err := s.read(payloadLen)
		if err != nil {
			return zero, err
		}
		payload = append(payload, more...)
		refilled += payloadLen
	}
	priority := payload[p]

	// The skipped padding borrowed bytes belonging to the next frame; pull
	// replacements so the cursor realigns with the true frame boundary.
	// The frame occupies exactly p+payloadLen bytes on the wire and
	// (1+refills)*payloadLen have been consumed, so only the difference is
	// still owed.
	if extra := p - refilled; extra > 0 {
		more, err := s.read(extra)
		if err != nil {
			return zero, err
		}
		payload = append(payload, more...)
	}
	s.d.roll(s.gen)

	dataStart := p + 1
	sepIdx := len(payload)
	if i := bytes.IndexByte(payload[dataStart:], 0); i >= 0 {
		sepIdx = dataStart + i
	}
	tag := string(payload[dataStart:sepIdx])

	message := ""
	if sepIdx+1 <= len(payload) {
		msg := payload[sepIdx+1:]
		if len(msg) > 0 && msg[len(msg)-1] == 0 {
			msg = msg[:len(msg)-1]
		}
		message = string(msg)
	}

	return core.LogRecord{
		Pid:      pid,
		Tid:      tid,
		Time:     time.Unix(int64(sec), int64(nsec)),
		LogID:    logID,
		Priority: priority,
		Tag:      tag,
		Message:  message,
	}, nil
}
