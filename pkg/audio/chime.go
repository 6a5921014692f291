// Package audio plays the reminder chime.
package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"
)

const (
	sampleRate    = 44100
	channelCount  = 2
	bytesPerFrame = channelCount * 2 // signed 16 bit
)

// note is one tone of the chime
type note struct {
	freq     float64
	duration time.Duration
}

// Two falling tones, the usual "ding dong"
var chimeNotes = []note{
	{freq: 880, duration: 350 * time.Millisecond},
	{freq: 659.25, duration: 600 * time.Millisecond},
}

// Chime plays a short synthesized chime through oto
type Chime struct {
	logger *zap.SugaredLogger
	pcm    []byte

	once  sync.Once
	ctx   *oto.Context
	ready bool

	mu      sync.Mutex
	playing *oto.Player
}

// NewChime creates a Chime. The audio device is opened on the first Play.
func NewChime(logger *zap.SugaredLogger) *Chime {
	return &Chime{
		logger: logger,
		pcm:    synthesize(chimeNotes, sampleRate),
	}
}

// Play starts the chime and returns without waiting for it to finish.
// A chime still playing is restarted.
func (c *Chime) Play() {
	c.once.Do(c.initContext)
	if !c.ready {
		c.logger.Warnw("audio context not ready, skipping chime")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.playing != nil {
		c.playing.Pause()
		if err := c.playing.Close(); err != nil {
			c.logger.Debugw("failed closing audio player", "err", err)
		}
	}
	c.playing = c.ctx.NewPlayer(bytes.NewReader(c.pcm))
	c.playing.Play()
}

func (c *Chime) initContext() {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channelCount,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		c.logger.Errorw("failed to initialize audio context", "err", err)
		return
	}

	// Wait for the hardware audio devices to be ready
	<-readyChan

	c.ctx = ctx
	c.ready = true
	c.logger.Debugw("audio context initialized")
}

// synthesize renders notes as interleaved stereo signed 16 bit little endian
// PCM. Each note decays exponentially to avoid clicks between tones.
func synthesize(notes []note, rate int) []byte {
	var buf bytes.Buffer

	for _, n := range notes {
		frames := int(n.duration.Seconds() * float64(rate))
		for i := 0; i < frames; i++ {
			t := float64(i) / float64(rate)
			envelope := math.Exp(-4 * t / n.duration.Seconds())
			sample := int16(0.4 * envelope * math.Sin(2*math.Pi*n.freq*t) * math.MaxInt16)
			for ch := 0; ch < channelCount; ch++ {
				_ = binary.Write(&buf, binary.LittleEndian, sample)
			}
		}
	}
	return buf.Bytes()
}
