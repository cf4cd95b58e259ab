package stream

// State is the lifecycle state of the stream controller, published for the
// UI polling loop.
type State int

const (
	StateStopped State = iota
	StateBuffering
	StatePlaying
	StateError
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "STOPPED"
	case StateBuffering:
		return "BUFFERING"
	case StatePlaying:
		return "LIVE"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Metadata is the read-mostly snapshot the ingest task keeps current and the
// UI reads at its own cadence.
type Metadata struct {
	Title         string
	Station       string
	Bitrate       int
	BufferPercent int
}
