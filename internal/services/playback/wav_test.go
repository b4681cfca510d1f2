package playback

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrameWAVHeader(t *testing.T) {
	pcm := make([]byte, 480)
	wav := FrameWAV(pcm, 24000)

	assert.Len(t, wav, 44+len(pcm))
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, "fmt ", string(wav[12:16]))
	assert.Equal(t, "data", string(wav[36:40]))

	assert.Equal(t, uint32(36+len(pcm)), binary.LittleEndian.Uint32(wav[4:8]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[20:22]), "format should be PCM")
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[22:24]), "mono")
	assert.Equal(t, uint32(24000), binary.LittleEndian.Uint32(wav[24:28]))
	assert.Equal(t, uint32(48000), binary.LittleEndian.Uint32(wav[28:32]), "byte rate")
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(wav[34:36]), "bits per sample")
	assert.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(wav[40:44]))
}

func TestPCMDuration(t *testing.T) {
	tests := []struct {
		name       string
		bytes      int
		sampleRate int
		want       time.Duration
	}{
		{name: "one second", bytes: 48000, sampleRate: 24000, want: time.Second},
		{name: "half second", bytes: 24000, sampleRate: 24000, want: 500 * time.Millisecond},
		{name: "empty", bytes: 0, sampleRate: 24000, want: 0},
		{name: "zero rate", bytes: 48000, sampleRate: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PCMDuration(make([]byte, tt.bytes), tt.sampleRate)
			assert.Equal(t, tt.want, got)
		})
	}
}
