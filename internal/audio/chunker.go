package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// ErrAlreadyCapturing is returned when Start is called while a previous
// capture has not been stopped. Overlapping holds must not share one stream.
var ErrAlreadyCapturing = errors.New("audio capture already in progress")

// ChunkerConfig tunes capture format and buffering.
type ChunkerConfig struct {
	Input         string
	Fallback      string
	SampleRate    int
	ChunkDuration time.Duration
	PreRoll       time.Duration
}

const (
	defaultSampleRate    = 16000
	defaultChunkDuration = 20 * time.Millisecond
)

// sampleRate clamps invalid configured rates to the capture default, as the
// config validation warnings promise.
func (c ChunkerConfig) sampleRate() int {
	if c.SampleRate <= 0 {
		return defaultSampleRate
	}
	return c.SampleRate
}

func (c ChunkerConfig) chunkDuration() time.Duration {
	if c.ChunkDuration <= 0 {
		return defaultChunkDuration
	}
	return c.ChunkDuration
}

// chunkBytes is the fixed frame size for the configured format (mono s16).
func (c ChunkerConfig) chunkBytes() int {
	n := int(int64(c.sampleRate()) * 2 * int64(c.chunkDuration()) / int64(time.Second))
	if n < 2 {
		n = 2
	}
	return n
}

// preRollFrames is the ring depth: enough frames to cover the pre-roll
// window between device open and transport readiness.
func (c ChunkerConfig) preRollFrames() int {
	n := int(c.PreRoll / c.chunkDuration())
	if n < 1 {
		n = 1
	}
	return n
}

// Chunker owns one Pulse record stream per hold and emits fixed-duration
// frames in capture order. The frames channel doubles as the pre-roll ring:
// when the consumer is not draining yet, the oldest frame is dropped so the
// most recent pre-roll window survives.
type Chunker struct {
	cfg    ChunkerConfig
	logger *slog.Logger

	mu        sync.Mutex
	capturing bool
	device    Device
	client    *pulse.Client
	stream    *pulse.RecordStream
	frames    chan Frame
	stopCh    chan struct{}
	framer    *framer

	inflight sync.WaitGroup
	bytes    atomic.Int64
	dropped  atomic.Int64
}

// NewChunker builds a chunker; each Start/Stop pair covers one PTT hold.
func NewChunker(cfg ChunkerConfig, logger *slog.Logger) *Chunker {
	return &Chunker{cfg: cfg, logger: logger}
}

// Start opens the selected device and begins emitting frames. It returns
// ErrAlreadyCapturing if a previous capture is still open.
func (c *Chunker) Start(ctx context.Context) (<-chan Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.capturing {
		return nil, ErrAlreadyCapturing
	}

	selection, err := SelectDevice(ctx, c.cfg.Input, c.cfg.Fallback)
	if err != nil {
		return nil, err
	}
	if selection.Warning != "" && c.logger != nil {
		c.logger.Warn("audio device fallback", "detail", selection.Warning)
	}

	client, err := pulse.NewClient(
		pulse.ClientApplicationName("ptt"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}

	source, err := client.SourceByID(selection.Device.ID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("resolve source %q: %w", selection.Device.ID, err)
	}

	c.device = selection.Device
	c.client = client
	c.frames = make(chan Frame, c.cfg.preRollFrames())
	c.stopCh = make(chan struct{})
	c.framer = newFramer(c.cfg.chunkBytes())
	c.bytes.Store(0)
	c.dropped.Store(0)

	writer := pulse.NewWriter(writerFunc(c.onPCM), pulseproto.FormatInt16LE)
	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(c.cfg.sampleRate()),
		pulse.RecordBufferFragmentSize(uint32(c.cfg.chunkBytes())),
		pulse.RecordMediaName("ptt dictation"),
	)
	if err != nil {
		client.Close()
		c.client = nil
		c.frames = nil
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}

	c.stream = stream
	c.capturing = true
	stream.Start()

	frames := c.frames
	go func() {
		<-ctx.Done()
		_ = c.Stop()
	}()

	if c.logger != nil {
		c.logger.Info("audio capture started",
			"device", selection.Device.ID,
			"sample_rate", c.cfg.sampleRate(),
			"chunk_ms", c.cfg.chunkDuration().Milliseconds())
	}
	return frames, nil
}

// Device returns the source selected by the current or most recent capture.
func (c *Chunker) Device() Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.device
}

// BytesCaptured reports total bytes accepted from Pulse for the current hold.
func (c *Chunker) BytesCaptured() int64 {
	return c.bytes.Load()
}

// Stop halts the stream, flushes any residual short frame, and closes the
// frames channel exactly once. Safe to call repeatedly.
func (c *Chunker) Stop() error {
	c.mu.Lock()
	if !c.capturing {
		c.mu.Unlock()
		return nil
	}
	c.capturing = false
	close(c.stopCh)
	stream, client, frames := c.stream, c.client, c.frames
	c.stream, c.client = nil, nil
	c.mu.Unlock()

	if stream != nil {
		stream.Stop()
		stream.Close()
	}
	if client != nil {
		client.Close()
	}

	c.inflight.Wait()

	c.mu.Lock()
	final, ok := c.framer.flush(time.Now())
	c.mu.Unlock()
	if ok {
		select {
		case frames <- final:
		default:
			c.dropped.Add(1)
		}
	}

	close(frames)

	if c.logger != nil {
		c.logger.Info("audio capture stopped",
			"bytes", c.bytes.Load(),
			"dropped_frames", c.dropped.Load())
	}
	return nil
}

// onPCM receives raw Pulse buffers and emits complete frames to the ring.
func (c *Chunker) onPCM(buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}

	select {
	case <-c.stopCh:
		return 0, io.EOF
	default:
	}

	c.mu.Lock()
	if !c.capturing {
		c.mu.Unlock()
		return 0, io.EOF
	}
	// Guard Add under the same mutex as c.capturing to avoid Add/Wait races.
	c.inflight.Add(1)
	frames := c.framer.push(buffer, time.Now())
	out := c.frames
	c.mu.Unlock()
	defer c.inflight.Done()

	c.bytes.Add(int64(len(buffer)))

	for _, frame := range frames {
		c.emit(out, frame)
		select {
		case <-c.stopCh:
			return 0, io.EOF
		default:
		}
	}
	return len(buffer), nil
}

// emit delivers one frame, evicting the oldest buffered frame when full so a
// slow consumer keeps the most recent pre-roll window.
func (c *Chunker) emit(out chan Frame, frame Frame) {
	for {
		select {
		case out <- frame:
			return
		default:
		}
		select {
		case <-out:
			c.dropped.Add(1)
		default:
		}
	}
}

// writerFunc adapts a function to io.Writer for pulse.NewWriter.
type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}
