package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tabradio/tabradio/internal/icy"
)

type httpStatusError struct {
	StatusCode int
	Status     string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("stream returned status %d: %s", e.StatusCode, e.Status)
}

// Relies on context cancellation to clean up the spawned read goroutine.
type timeoutReader struct {
	reader  io.Reader
	ctx     context.Context
	timeout time.Duration
}

func (tr *timeoutReader) Read(p []byte) (n int, err error) {
	select {
	case <-tr.ctx.Done():
		return 0, tr.ctx.Err()
	default:
	}

	timer := time.NewTimer(tr.timeout)
	defer timer.Stop()

	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)

	go func() {
		n, err := tr.reader.Read(p)
		select {
		case done <- result{n, err}:
		case <-tr.ctx.Done():
		}
	}()

	select {
	case res := <-done:
		return res.n, res.err
	case <-timer.C:
		return 0, fmt.Errorf("read timeout: no data received for %v", tr.timeout)
	case <-tr.ctx.Done():
		return 0, tr.ctx.Err()
	}
}

// ingest owns the HTTP connection for one session: it issues the GET with the
// metadata-request header, demultiplexes ICY metadata from audio bytes, and
// writes audio into the ring buffer. Cancellation is cooperative through the
// stop flag and generation guard, with the request context carrying the
// cancel to the transport.
func (c *Controller) ingest(ctx context.Context, s *session) {
	defer close(s.ingestDone)

	log.Debug().Uint64("generation", s.gen).Msgf("Connecting to stream: %s", s.url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		c.failSession(s, fmt.Errorf("failed to create request: %w", err))
		return
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Icy-MetaData", "1")

	resp, err := c.client.Do(req)
	if err != nil {
		c.failSession(s, fmt.Errorf("failed to fetch stream: %w", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.failSession(s, &httpStatusError{StatusCode: resp.StatusCode, Status: resp.Status})
		return
	}

	metaInterval := headerInt(resp.Header, "icy-metaint")
	station := resp.Header.Get("icy-name")
	bitrate := headerInt(resp.Header, "icy-br")
	c.setStationInfo(s, station, bitrate)

	log.Debug().Uint64("generation", s.gen).
		Int("metaint", metaInterval).Str("station", station).Int("bitrate", bitrate).
		Msg("Stream headers received")

	parser := icy.NewParser(metaInterval, func(title string) {
		c.setTitle(s, title)
	})
	sink := func(p []byte) int {
		return c.writeAudio(s, p)
	}

	body := &timeoutReader{reader: resp.Body, ctx: ctx, timeout: BodyReadTimeout}
	buf := make([]byte, NetworkReadSize)

	var lastDropped uint64
	var lastDropLog time.Time

	for {
		if s.stopRequested() {
			log.Debug().Uint64("generation", s.gen).Msg("Ingest task observed stop")
			return
		}
		if !c.current(s) {
			log.Debug().Uint64("generation", s.gen).Msg("Ingest task superseded")
			return
		}

		n, err := body.Read(buf)
		if n > 0 {
			parser.Feed(buf[:n], sink)

			// Truncated writes mean the drain side is behind; surface the
			// backpressure instead of hiding it.
			if dropped := c.droppedBytes(s); dropped > lastDropped {
				if time.Since(lastDropLog) > dropLogInterval {
					log.Warn().Uint64("generation", s.gen).
						Uint64("dropped", dropped).
						Msg("Ring buffer full, dropping audio bytes")
					lastDropLog = time.Now()
				}
				lastDropped = dropped
			}
		}
		if err != nil {
			if s.stopRequested() || errors.Is(err, context.Canceled) {
				log.Debug().Uint64("generation", s.gen).Msg("Ingest task cancelled")
				return
			}
			if errors.Is(err, io.EOF) {
				// A live stream has no natural end; its closing is a failure.
				c.failSession(s, errors.New("stream ended unexpectedly"))
				return
			}
			c.failSession(s, fmt.Errorf("network read error: %w", err))
			return
		}
	}
}

func headerInt(h http.Header, key string) int {
	v, err := strconv.Atoi(h.Get(key))
	if err != nil {
		return 0
	}
	return v
}
