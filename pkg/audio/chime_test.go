package audio

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizeLength(t *testing.T) {
	notes := []note{{freq: 440, duration: 100 * time.Millisecond}, {freq: 660, duration: 50 * time.Millisecond}}

	pcm := synthesize(notes, 8000)

	assert.Len(t, pcm, (800+400)*bytesPerFrame)
}

func TestSynthesizeStartsSilentAndStaysInRange(t *testing.T) {
	pcm := synthesize(chimeNotes, sampleRate)
	require.NotEmpty(t, pcm)
	require.Zero(t, len(pcm)%bytesPerFrame)

	first := int16(binary.LittleEndian.Uint16(pcm[0:2]))
	assert.Zero(t, first)

	var peak int16
	for i := 0; i < len(pcm); i += bytesPerFrame {
		left := int16(binary.LittleEndian.Uint16(pcm[i : i+2]))
		right := int16(binary.LittleEndian.Uint16(pcm[i+2 : i+4]))
		assert.Equal(t, left, right)
		if left > peak {
			peak = left
		}
	}
	assert.Greater(t, peak, int16(0))
	assert.LessOrEqual(t, int(peak), int(0.4*32767)+1)
}
