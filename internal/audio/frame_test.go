package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFramerSlicesFixedFrames(t *testing.T) {
	f := newFramer(4)
	at := time.Now()

	frames := f.push([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9}, at)
	require.Len(t, frames, 2)
	require.Equal(t, []byte{1, 2, 3, 4}, frames[0].PCM)
	require.Equal(t, []byte{5, 6, 7, 8}, frames[1].PCM)
	require.Equal(t, uint64(0), frames[0].Seq)
	require.Equal(t, uint64(1), frames[1].Seq)
}

func TestFramerCarriesResidualAcrossPushes(t *testing.T) {
	f := newFramer(4)
	at := time.Now()

	require.Empty(t, f.push([]byte{1, 2, 3}, at))
	frames := f.push([]byte{4, 5}, at)
	require.Len(t, frames, 1)
	require.Equal(t, []byte{1, 2, 3, 4}, frames[0].PCM)
}

func TestFramerFlushEmitsShortFrame(t *testing.T) {
	f := newFramer(4)
	at := time.Now()

	f.push([]byte{1, 2, 3, 4, 5}, at)
	final, ok := f.flush(at)
	require.True(t, ok)
	require.Equal(t, []byte{5}, final.PCM)
	require.Equal(t, uint64(1), final.Seq)

	_, ok = f.flush(at)
	require.False(t, ok)
}

func TestFramerSequenceMonotonic(t *testing.T) {
	f := newFramer(2)
	at := time.Now()

	var seqs []uint64
	for _, frame := range f.push(make([]byte, 10), at) {
		seqs = append(seqs, frame.Seq)
	}
	final, ok := f.flush(at)
	require.False(t, ok) // 10 bytes divide evenly into 2-byte frames
	_ = final

	for i := 1; i < len(seqs); i++ {
		require.Equal(t, seqs[i-1]+1, seqs[i])
	}
}

func TestChunkerConfigSizes(t *testing.T) {
	cfg := ChunkerConfig{
		SampleRate:    16000,
		ChunkDuration: 20 * time.Millisecond,
		PreRoll:       300 * time.Millisecond,
	}
	require.Equal(t, 640, cfg.chunkBytes())
	require.Equal(t, 15, cfg.preRollFrames())

	// Invalid rate and duration clamp to the capture defaults, as the config
	// validation warnings promise.
	require.Equal(t, 640, ChunkerConfig{}.chunkBytes())
	require.Equal(t, 50, ChunkerConfig{PreRoll: time.Second}.preRollFrames())
	require.Equal(t, 1, ChunkerConfig{}.preRollFrames())
	require.Equal(t, 2, ChunkerConfig{SampleRate: 1, ChunkDuration: time.Millisecond}.chunkBytes())
}
