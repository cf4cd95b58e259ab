package stream

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tabradio/tabradio/internal/framesync"
	"github.com/tabradio/tabradio/internal/spectrum"
)

// drain waits for the prebuffer threshold, realigns the first buffered window
// to a clean MP3 frame, and then drives the decoder pipeline, answering its
// read/seek/close callbacks from the ring buffer with header-replay
// substitution. Every decoded chunk feeds the spectrum snapshot.
func (c *Controller) drain(ctx context.Context, s *session) {
	defer close(s.drainDone)

	log.Debug().Uint64("generation", s.gen).Int("prebuffer", c.prebuffer).Msg("Prebuffering")

	// No timeout here other than stop: a slow network keeps buffering for
	// as long as the ingest side stays healthy.
	for c.buffered(s) < c.prebuffer {
		if s.stopRequested() {
			log.Debug().Uint64("generation", s.gen).Msg("Drain task stopped during prebuffer")
			return
		}
		if !c.current(s) {
			return
		}
		if c.State() == StateError {
			log.Debug().Uint64("generation", s.gen).Msg("Drain task exiting, session failed")
			return
		}
		time.Sleep(drainPollInterval)
	}

	c.publishState(s, StatePlaying)

	window := make([]byte, HeaderWindowSize)
	n := c.readAudio(s, window)
	header, offset := framesync.Realign(window[:n])
	switch {
	case offset > 0:
		log.Debug().Uint64("generation", s.gen).Int("offset", offset).
			Msg("Realigned stream to frame sync")
	case offset < 0:
		log.Debug().Uint64("generation", s.gen).
			Msg("No frame sync in header window, passing through")
	}

	src := &byteSource{ctrl: c, sess: s, header: header}

	err := c.pipeline.Play(ctx, src, func(samples [][2]float64) {
		c.setSpectrum(s, spectrum.Analyze(samples))
	})

	switch {
	case s.stopRequested() || errors.Is(err, context.Canceled):
		// Stop() publishes the final state.
	case err != nil:
		c.failSession(s, err)
	default:
		// Decoder reported idle/end on its own.
		log.Debug().Uint64("generation", s.gen).Msg("Decoder went idle")
		c.publishState(s, StateStopped)
	}
}
