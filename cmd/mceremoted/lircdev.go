package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"
)

// ============================================================================
// LIRC raw source (/dev/lircN, mode2)
// ============================================================================
// The kernel rc-core exposes the IR receiver as a stream of 4-byte
// little-endian words: the low 24 bits are a duration in microseconds, the
// high byte says what the sample is. This source feeds the pulse train
// through the RC6 decoder behind the latch adapter and emits engine events.
//
// One reader goroutine per device. The blocking send into the events
// channel is what holds the latch parked: reception resumes only after the
// daemon loop has taken the frame.
// ============================================================================

// Sample types of the lirc chardev protocol.
const (
	lircMode2Space     = 0x00000000
	lircMode2Pulse     = 0x01000000
	lircMode2Frequency = 0x02000000
	lircMode2Timeout   = 0x03000000
	lircMode2Overflow  = 0x04000000

	lircValueMask = 0x00FFFFFF
	lircMode2Mask = 0xFF000000
)

// lircEpollTimeoutMs bounds how long the reader sleeps in the kernel before
// re-checking for cancellation.
const lircEpollTimeoutMs = 500

// FrameSource is a goroutine that turns receiver input into engine events.
type FrameSource interface {
	Run(ctx context.Context) error
}

// LIRCSource decodes raw RC6 pulses from a lirc character device.
type LIRCSource struct {
	device  string
	events  chan<- Event
	adapter *DecoderAdapter
	logger  *slog.Logger
}

func NewLIRCSource(device string, events chan<- Event, logger *slog.Logger) *LIRCSource {
	return &LIRCSource{
		device:  device,
		events:  events,
		adapter: NewDecoderAdapter(newRC6Decoder()),
		logger:  logger,
	}
}

// processChunk feeds one read's worth of mode2 words through the decoder.
func (s *LIRCSource) processChunk(ctx context.Context, buf []byte) error {
	for len(buf) >= 4 {
		word := binary.LittleEndian.Uint32(buf[:4])
		buf = buf[4:]
		if err := s.processWord(ctx, word); err != nil {
			return err
		}
	}
	return nil
}

func (s *LIRCSource) processWord(ctx context.Context, word uint32) error {
	val := word & lircValueMask

	switch word & lircMode2Mask {
	case lircMode2Pulse:
		return s.feed(ctx, Pulse{Mark: true, Dur: time.Duration(val) * time.Microsecond})

	case lircMode2Space:
		return s.feed(ctx, Pulse{Mark: false, Dur: time.Duration(val) * time.Microsecond})

	case lircMode2Timeout:
		// The receiver's idle timeout: the burst is over. Stretch it to at
		// least the decoder's frame gap so the frame finalizes now.
		d := time.Duration(val) * time.Microsecond
		if d < rc6FrameGap {
			d = rc6FrameGap
		}
		return s.feed(ctx, Pulse{Mark: false, Dur: d})

	case lircMode2Frequency:
		// Carrier report, not part of the pulse train.
		return nil

	case lircMode2Overflow:
		s.logger.Warn("receiver buffer overflow")
		s.adapter.FeedOverflow(ProtoRC6MCE)
		return s.drainLatch(ctx)

	default:
		return nil
	}
}

// feed runs one pulse through the latch adapter and handles the outcome.
func (s *LIRCSource) feed(ctx context.Context, p Pulse) error {
	s.logger.Debug("pulse", "mark", p.Mark, "dur_us", p.Dur.Microseconds())

	switch s.adapter.Feed(p) {
	case decodeFrame, decodeOverflow:
		return s.drainLatch(ctx)
	case decodeMiss:
		s.logger.Debug("decode miss")
		return s.emit(ctx, DecodeMissEvent{At: time.Now()})
	}
	return nil
}

// drainLatch hands the parked frame to the engine, then resumes reception.
// The Resume call after the send is the other half of the latch contract.
func (s *LIRCSource) drainLatch(ctx context.Context) error {
	f, ok := s.adapter.Poll()
	if !ok {
		return nil
	}

	ev := FrameEvent{At: time.Now()}
	if f.Overflow {
		ev.Overflow = true
		ev.Cmd = RemoteCommand{Proto: f.Proto}
	} else {
		ev.Cmd = Normalize(f)
		s.logger.Debug("frame decoded",
			"proto", ev.Cmd.Proto.String(),
			"value", fmt.Sprintf("0x%08X", ev.Cmd.Value))
	}

	if err := s.emit(ctx, ev); err != nil {
		return err
	}
	s.adapter.Resume()
	return nil
}

func (s *LIRCSource) emit(ctx context.Context, ev Event) error {
	select {
	case s.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
