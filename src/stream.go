package phaselock

/*------------------------------------------------------------------
 *
 * Purpose:	Block telemetry stream.
 *
 *		The processing routine hands every block's raw input and
 *		output sample arrays to a bounded single-producer,
 *		single-consumer queue; a lower-priority sender drains the
 *		queue to a TCP remote.  The queue is created once at
 *		startup and its two ends passed to their owners; the
 *		real-time side never blocks on it (a full queue drops the
 *		block, a counter records the loss).
 *
 *		Frame layout, big endian: block id u32, block size u32,
 *		then the two ADC channels and the two DAC channels as
 *		u16 sample arrays.
 *
 *----------------------------------------------------------------*/

import (
	"encoding/binary"
	"fmt"
	"net"
	"time"

	"github.com/charmbracelet/log"
)

// AdcDacBlock is the telemetry record for one processed block: the raw
// input codes and the produced output codes, tagged with a wrapping
// block id.
type AdcDacBlock struct {
	BlockID uint32
	ADC     [2][SampleBufferSize]uint16
	DAC     [2][SampleBufferSize]uint16
}

// FrameSize is the serialized size of one telemetry frame.
const FrameSize = 8 + 4*SampleBufferSize*2

// Serialize appends the big-endian frame for the block to dst and
// returns the extended slice.
func (b *AdcDacBlock) Serialize(dst []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, b.BlockID)
	dst = binary.BigEndian.AppendUint32(dst, SampleBufferSize)
	for _, channel := range [...][SampleBufferSize]uint16{b.ADC[0], b.ADC[1], b.DAC[0], b.DAC[1]} {
		for _, sample := range channel {
			dst = binary.BigEndian.AppendUint16(dst, sample)
		}
	}
	return dst
}

// DecodeFrame parses one telemetry frame produced by Serialize.
func DecodeFrame(frame []byte) (*AdcDacBlock, error) {
	if len(frame) < FrameSize {
		return nil, fmt.Errorf("short telemetry frame: %d bytes", len(frame))
	}
	var b AdcDacBlock
	b.BlockID = binary.BigEndian.Uint32(frame)
	var size = binary.BigEndian.Uint32(frame[4:])
	if size != SampleBufferSize {
		return nil, fmt.Errorf("telemetry block size %d, want %d", size, SampleBufferSize)
	}
	var at = 8
	for _, channel := range [...]*[SampleBufferSize]uint16{&b.ADC[0], &b.ADC[1], &b.DAC[0], &b.DAC[1]} {
		for i := range channel {
			channel[i] = binary.BigEndian.Uint16(frame[at:])
			at += 2
		}
	}
	return &b, nil
}

// SetupStreaming creates the block queue and returns its two ends.  Call
// once at startup; the generator belongs to the processing routine, the
// stream to the network task.
func SetupStreaming(capacity int) (*BlockGenerator, *DataStream) {
	var queue = make(chan AdcDacBlock, capacity)
	return &BlockGenerator{queue: queue}, &DataStream{queue: queue}
}

// BlockGenerator is the producer end.  It assigns block ids and never
// blocks the caller.
type BlockGenerator struct {
	queue   chan<- AdcDacBlock
	current uint32
	dropped uint64
}

// Send enqueues one block best effort.  The block id increments (and
// wraps) whether or not the queue had room, so the receiver can see the
// gap left by a dropped block.
func (g *BlockGenerator) Send(adc, dac *[2][SampleBufferSize]uint16) {
	var block = AdcDacBlock{BlockID: g.current, ADC: *adc, DAC: *dac}
	g.current++

	select {
	case g.queue <- block:
	default:
		g.dropped++
	}
}

// Dropped returns the number of blocks lost to a full queue.
func (g *BlockGenerator) Dropped() uint64 {
	return g.dropped
}

// DataStream is the consumer end: it drains the queue to a TCP remote,
// redialing as needed.
type DataStream struct {
	queue  <-chan AdcDacBlock
	remote string
	conn   net.Conn
	buf    []byte
}

// SetRemote points the stream at a TCP endpoint.  An existing
// connection to a different remote is closed; the next Process redials.
func (s *DataStream) SetRemote(remote string) {
	if remote == s.remote {
		return
	}
	s.remote = remote
	s.Close()
}

// Close drops the current connection, if any.
func (s *DataStream) Close() {
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
		log.Info("telemetry stream disconnected")
	}
}

func (s *DataStream) connect() error {
	var conn, dialErr = net.DialTimeout("tcp", s.remote, time.Second)
	if dialErr != nil {
		return fmt.Errorf("dialing telemetry remote: %w", dialErr)
	}
	s.conn = conn
	log.Info("telemetry stream connected", "remote", s.remote)
	return nil
}

// Process transmits one queued block if one is pending.  It returns
// false when the queue was empty; transmit errors drop the connection
// and the block (the stream is best effort end to end).
func (s *DataStream) Process() bool {
	var block AdcDacBlock
	select {
	case block = <-s.queue:
	default:
		return false
	}

	if s.remote == "" {
		return true
	}
	if s.conn == nil {
		if err := s.connect(); err != nil {
			log.Warn("telemetry stream unavailable", "err", err)
			return true
		}
	}

	s.buf = block.Serialize(s.buf[:0])
	if _, err := s.conn.Write(s.buf); err != nil {
		log.Warn("telemetry write failed", "err", err)
		s.Close()
	}
	return true
}
