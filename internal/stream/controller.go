// Package stream implements the streaming core: an HTTP ingest task and an
// audio drain task moving bytes through a fixed-capacity ring buffer into a
// pull-based decoder pipeline, supervised by a Controller that owns all
// shared session state.
package stream

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tabradio/tabradio/internal/ring"
	"github.com/tabradio/tabradio/internal/spectrum"
)

const (
	// DefaultCapacity is the ring buffer size: roughly 16 seconds of
	// 128 kbps MP3.
	DefaultCapacity = 256 * 1024
	// DefaultPrebuffer is the fill level required before playback starts.
	DefaultPrebuffer = 64 * 1024
	// HeaderWindowSize bounds the frame-sync scan and the header replay
	// snapshot served to the decoder's start-of-stream probe.
	HeaderWindowSize = 4096

	NetworkReadSize = 4096
	// BodyReadTimeout bounds a single HTTP body read; a live stream that
	// delivers nothing for this long is treated as a transport failure.
	BodyReadTimeout = 15 * time.Second
	// ReadTimeout is how long the decoder read callback waits for the ring
	// buffer to produce at least one byte before failing the stream.
	ReadTimeout = 30 * time.Second
	// StopWait bounds how long Stop waits for each task to observe the stop
	// flag; tasks still running afterwards are abandoned, never killed.
	StopWait = 5 * time.Second

	drainPollInterval = 50 * time.Millisecond
	readRetryInterval = 10 * time.Millisecond
	dropLogInterval   = 5 * time.Second
)

var (
	ErrNoURL          = errors.New("stream: no URL")
	ErrInvalidBuffers = errors.New("stream: prebuffer must fit inside buffer capacity")
)

// Source is the byte stream handed to the decoder: sequential reads plus the
// limited seek surface a live stream can honor (absolute zero re-enables
// header replay, relative zero reports the position).
type Source interface {
	io.Reader
	io.Seeker
	io.Closer
}

// Pipeline is the decoder/output boundary the drain task drives. Play blocks
// until the decoder goes idle, src fails, or ctx is cancelled; onPCM receives
// every decoded chunk for spectrum analysis.
type Pipeline interface {
	Play(ctx context.Context, src Source, onPCM func([][2]float64)) error
	SetVolume(percent int)
}

// session is one playback attempt. Superseded sessions recognize themselves
// through the generation id and the stop flag; their tasks never mutate
// controller state past invalidation.
type session struct {
	gen        uint64
	url        string
	stop       chan struct{}
	stopOnce   sync.Once
	cancel     context.CancelFunc
	ingestDone chan struct{}
	drainDone  chan struct{}
}

func (s *session) requestStop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *session) stopRequested() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// Controller owns the ring buffer and all shared stream state and exposes the
// query surface the UI polls. One lock guards the whole state object; no lock
// is held across blocking I/O.
type Controller struct {
	mu         sync.Mutex
	state      State
	meta       Metadata
	spec       spectrum.Snapshot
	url        string
	lastErr    error
	generation uint64
	sess       *session
	ring       *ring.Buffer

	capacity  int
	prebuffer int
	pipeline  Pipeline
	client    *http.Client
	userAgent string
}

// NewController creates a controller around the given decoder pipeline.
// capacity and prebuffer of 0 select the defaults.
func NewController(pipeline Pipeline, capacity, prebuffer int) (*Controller, error) {
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	if prebuffer == 0 {
		prebuffer = DefaultPrebuffer
	}
	if prebuffer <= 0 || prebuffer > capacity {
		return nil, ErrInvalidBuffers
	}

	client := &http.Client{
		Timeout: 0, // streams are long-lived
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: 10 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 15 * time.Second,
			DisableCompression:    true,
		},
	}

	return &Controller{
		pipeline:  pipeline,
		capacity:  capacity,
		prebuffer: prebuffer,
		client:    client,
		userAgent: "TabRadio/1.0",
	}, nil
}

// Start stops any prior session synchronously, resets the buffer, bumps the
// generation id, and spawns the ingest and drain tasks for url. On failure
// the controller is left in StateError and no tasks run.
func (c *Controller) Start(url string) error {
	if url == "" {
		return ErrNoURL
	}

	c.Stop()

	c.mu.Lock()
	if c.ring == nil {
		rb, err := ring.New(c.capacity)
		if err != nil {
			c.state = StateError
			c.mu.Unlock()
			return err
		}
		c.ring = rb
	} else {
		c.ring.Reset()
	}

	c.generation++
	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		gen:        c.generation,
		url:        url,
		stop:       make(chan struct{}),
		cancel:     cancel,
		ingestDone: make(chan struct{}),
		drainDone:  make(chan struct{}),
	}
	c.sess = s
	c.url = url
	c.state = StateBuffering
	c.meta = Metadata{}
	c.spec = spectrum.Snapshot{}
	c.lastErr = nil
	c.mu.Unlock()

	log.Info().Uint64("generation", s.gen).Str("url", url).Msg("Starting stream session")

	go c.ingest(ctx, s)
	go c.drain(ctx, s)

	return nil
}

// Stop requests cooperative shutdown and waits up to StopWait per task for
// both tasks to observe it. Tasks that miss the deadline are
// abandoned: the generation check keeps them from touching shared state, and
// the transport is never force-killed.
func (c *Controller) Stop() {
	c.mu.Lock()
	s := c.sess
	if s == nil {
		if c.state != StateStopped {
			c.state = StateStopped
		}
		c.mu.Unlock()
		return
	}
	c.sess = nil
	c.mu.Unlock()

	s.requestStop()
	s.cancel()

	if !waitDone(s.ingestDone, StopWait) {
		log.Warn().Uint64("generation", s.gen).Msg("Ingest task did not exit in time, abandoning")
	}
	if !waitDone(s.drainDone, StopWait) {
		log.Warn().Uint64("generation", s.gen).Msg("Drain task did not exit in time, abandoning")
	}

	c.mu.Lock()
	if s.gen == c.generation {
		c.state = StateStopped
		c.meta = Metadata{}
		c.spec = spectrum.Snapshot{}
		c.url = ""
		c.lastErr = nil
	}
	c.mu.Unlock()

	log.Debug().Uint64("generation", s.gen).Msg("Stream session stopped")
}

func waitDone(ch <-chan struct{}, d time.Duration) bool {
	select {
	case <-ch:
		return true
	case <-time.After(d):
		return false
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Metadata returns a copy of the current metadata snapshot.
func (c *Controller) Metadata() Metadata {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.meta
}

// Spectrum returns a copy of the latest spectrum snapshot.
func (c *Controller) Spectrum() spectrum.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.spec
}

// LastError returns the error that put the controller into StateError,
// or nil. Cleared on the next Start or Stop.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// URL returns the URL of the active session, if any.
func (c *Controller) URL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.url
}

// SetVolume forwards a 0..100 volume to the pipeline.
func (c *Controller) SetVolume(percent int) {
	c.pipeline.SetVolume(percent)
}

// current reports whether s is still the controller's live session.
func (c *Controller) current(s *session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess == s
}

// writeAudio appends audio bytes to the ring buffer on behalf of s. Data from
// a superseded or stopping session is discarded here, under the lock, so a
// stale ingest task can never write into a reset buffer.
func (c *Controller) writeAudio(s *session, p []byte) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != s || s.stopRequested() {
		return 0
	}
	n := c.ring.Write(p)
	c.meta.BufferPercent = c.ring.PercentFull()
	return n
}

// readAudio drains buffered bytes on behalf of s, with the same supersession
// guard as writeAudio.
func (c *Controller) readAudio(s *session, p []byte) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != s {
		return 0
	}
	return c.ring.Read(p)
}

func (c *Controller) buffered(s *session) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != s {
		return 0
	}
	return c.ring.Available()
}

func (c *Controller) droppedBytes(s *session) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != s {
		return 0
	}
	return c.ring.Dropped()
}

// publishState sets the lifecycle state if s still owns the controller.
func (c *Controller) publishState(s *session, state State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != s {
		return
	}
	if c.state != state {
		log.Debug().Uint64("generation", s.gen).
			Msgf("Stream state: %s -> %s", c.state, state)
		c.state = state
	}
}

// failSession publishes StateError unless a stop is already in progress; a
// failure observed after stop was requested is a normal shutdown.
func (c *Controller) failSession(s *session, err error) {
	if s.stopRequested() {
		return
	}
	log.Error().Err(err).Uint64("generation", s.gen).Msg("Stream session failed")
	c.mu.Lock()
	if c.sess == s {
		c.lastErr = err
	}
	c.mu.Unlock()
	c.publishState(s, StateError)
}

func (c *Controller) setTitle(s *session, title string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != s || c.meta.Title == title {
		return
	}
	c.meta.Title = title
	log.Info().Uint64("generation", s.gen).Msgf("Now playing: %s", title)
}

func (c *Controller) setStationInfo(s *session, station string, bitrate int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != s {
		return
	}
	if station != "" {
		c.meta.Station = station
	}
	if bitrate > 0 {
		c.meta.Bitrate = bitrate
	}
}

func (c *Controller) setSpectrum(s *session, snap spectrum.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != s {
		return
	}
	c.spec = snap
}
