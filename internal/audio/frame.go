package audio

import "time"

// Frame is one fixed-duration PCM chunk in capture order.
type Frame struct {
	Seq        uint64
	PCM        []byte
	CapturedAt time.Time
}

// framer slices an arbitrary byte stream into fixed-size frames, carrying
// residual bytes across pushes.
type framer struct {
	chunkBytes int
	pending    []byte
	seq        uint64
}

func newFramer(chunkBytes int) *framer {
	return &framer{chunkBytes: chunkBytes}
}

// push appends raw PCM and returns every complete frame it produced.
func (f *framer) push(buf []byte, at time.Time) []Frame {
	f.pending = append(f.pending, buf...)

	frames := make([]Frame, 0, len(f.pending)/f.chunkBytes)
	for len(f.pending) >= f.chunkBytes {
		pcm := make([]byte, f.chunkBytes)
		copy(pcm, f.pending[:f.chunkBytes])
		f.pending = f.pending[f.chunkBytes:]
		frames = append(frames, Frame{Seq: f.seq, PCM: pcm, CapturedAt: at})
		f.seq++
	}
	return frames
}

// flush returns any residual bytes as one short final frame.
func (f *framer) flush(at time.Time) (Frame, bool) {
	if len(f.pending) == 0 {
		return Frame{}, false
	}
	pcm := make([]byte, len(f.pending))
	copy(pcm, f.pending)
	f.pending = nil
	frame := Frame{Seq: f.seq, PCM: pcm, CapturedAt: at}
	f.seq++
	return frame, true
}
