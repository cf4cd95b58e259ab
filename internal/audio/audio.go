// Package audio drives decoded playback through the speaker. It implements
// the stream.Pipeline boundary: MP3 decoding pulled from a byte source,
// perceptual volume, and a PCM tap for the spectrum visualizer.
package audio

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/rs/zerolog/log"
	"github.com/tabradio/tabradio/internal/stream"
)

const (
	DefaultSampleRate   = beep.SampleRate(44100)
	SpeakerBufferSize   = 250 * time.Millisecond
	DefaultVolume       = 70
	VolumeCurveExponent = 0.5
	MinVolumeDB         = -10.0
)

// Pipeline owns the speaker and the active volume chain.
type Pipeline struct {
	mu            sync.Mutex
	sampleRate    beep.SampleRate
	speakerInit   bool
	volume        *effects.Volume
	volumePercent int
}

func NewPipeline() *Pipeline {
	return &Pipeline{
		sampleRate:    DefaultSampleRate,
		volumePercent: -1,
	}
}

// readerOnly hides the source's seek surface so the MP3 decoder treats the
// live stream as non-seekable instead of probing its length with an end-seek
// the stream cannot answer.
type readerOnly struct {
	src stream.Source
}

func (r readerOnly) Read(p []byte) (int, error) { return r.src.Read(p) }
func (r readerOnly) Close() error               { return r.src.Close() }

// tapStreamer mirrors every decoded chunk to the tap before it reaches the
// volume stage.
type tapStreamer struct {
	beep.Streamer
	tap func([][2]float64)
}

func (t *tapStreamer) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.Streamer.Stream(samples)
	if n > 0 && t.tap != nil {
		t.tap(samples[:n])
	}
	return n, ok
}

// Play decodes src until the decoder goes idle, src fails, or ctx is
// cancelled. It blocks for the duration of playback.
func (p *Pipeline) Play(ctx context.Context, src stream.Source, onPCM func([][2]float64)) error {
	streamer, format, err := mp3.Decode(readerOnly{src: src})
	if err != nil {
		return fmt.Errorf("failed to decode MP3 stream: %w", err)
	}
	defer streamer.Close()

	if err := p.initSpeaker(format.SampleRate); err != nil {
		return err
	}

	p.mu.Lock()
	volumePercent := p.volumePercent
	if volumePercent < 0 {
		volumePercent = DefaultVolume
	}
	tap := &tapStreamer{Streamer: streamer, tap: onPCM}
	vol := &effects.Volume{
		Streamer: tap,
		Base:     2,
		Volume:   percentToExponent(float64(volumePercent)),
		Silent:   volumePercent == 0,
	}
	p.volume = vol
	p.mu.Unlock()

	done := make(chan struct{})
	speaker.Play(beep.Seq(vol, beep.Callback(func() { close(done) })))

	defer func() {
		speaker.Clear()
		p.mu.Lock()
		p.volume = nil
		p.mu.Unlock()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		if err := streamer.Err(); err != nil {
			return fmt.Errorf("stream decoding error: %w", err)
		}
		return nil
	}
}

func (p *Pipeline) initSpeaker(sampleRate beep.SampleRate) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.speakerInit || sampleRate != p.sampleRate {
		if err := speaker.Init(sampleRate, sampleRate.N(SpeakerBufferSize)); err != nil {
			return fmt.Errorf("failed to initialize speaker: %w", err)
		}
		p.sampleRate = sampleRate
		p.speakerInit = true
		log.Debug().Msgf("Speaker initialized with sample rate: %d Hz, buffer: %v", sampleRate, SpeakerBufferSize)
	}
	return nil
}

// SetVolume stores a 0..100 volume and applies it to the active chain, if
// any. Volume set before playback is applied when playback starts.
func (p *Pipeline) SetVolume(volumePercent int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.volumePercent = volumePercent

	if p.volume == nil {
		log.Debug().Msgf("Volume stored as %d%% (will be applied when playback starts)", volumePercent)
		return
	}

	volumeLevel := percentToExponent(float64(volumePercent))

	speaker.Lock()
	p.volume.Volume = volumeLevel
	p.volume.Silent = volumePercent == 0
	speaker.Unlock()

	log.Debug().Msgf("Volume set to %d%% (%.2f dB)", volumePercent, volumeLevel)
}

// percentToExponent maps a 0..100 volume to a base-2 exponent on a perceptual
// curve: 100% is unity gain, 0% is MinVolumeDB.
func percentToExponent(p float64) float64 {
	if p <= 0 {
		return MinVolumeDB
	}
	if p >= 100 {
		return 0
	}

	normalized := p / 100.0
	adjusted := math.Pow(normalized, VolumeCurveExponent)
	return (1.0 - adjusted) * MinVolumeDB
}
