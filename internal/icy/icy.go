// Package icy demultiplexes ICY in-band metadata from an audio byte stream.
//
// When a server answers an Icy-MetaData request it declares icy-metaint N and
// then interleaves, after every N audio bytes, one length byte (units of 16)
// followed by that many metadata bytes. The metadata is a semicolon-delimited
// key='value' list, e.g. StreamTitle='Artist - Track';StreamUrl='';
package icy

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// MaxMetadataLen is the largest encodable metadata block (255 * 16).
const MaxMetadataLen = 4080

// Parser alternates between forwarding audio bytes and consuming metadata
// blocks. It parses one inbound chunk at a time and keeps only the byte
// countdown between calls: a metadata block that spans a chunk boundary is
// discarded rather than buffered, losing at most one title update. This is
// deliberate: the cadence recovers on the next chunk.
type Parser struct {
	interval  int
	untilMeta int
	onTitle   func(string)
}

// NewParser returns a parser for the given icy-metaint interval. An interval
// of 0 means the stream carries no metadata and chunks pass through whole.
// onTitle is invoked for every StreamTitle value extracted; it may be nil.
func NewParser(interval int, onTitle func(string)) *Parser {
	return &Parser{
		interval:  interval,
		untilMeta: interval,
		onTitle:   onTitle,
	}
}

// Feed routes the audio bytes of chunk into sink and consumes any metadata
// blocks in between. It returns the total number of audio bytes handed to
// sink. sink reports how many bytes it accepted; acceptance shortfalls are
// the sink's concern (the ring buffer counts its own drops) and do not
// disturb the metadata cadence.
func (p *Parser) Feed(chunk []byte, sink func([]byte) int) int {
	if p.interval <= 0 {
		sink(chunk)
		return len(chunk)
	}

	pos := 0
	audio := 0
	for pos < len(chunk) {
		if p.untilMeta > 0 {
			n := len(chunk) - pos
			if n > p.untilMeta {
				n = p.untilMeta
			}
			sink(chunk[pos : pos+n])
			audio += n
			pos += n
			p.untilMeta -= n
			continue
		}

		metaLen := int(chunk[pos]) * 16
		pos++
		if metaLen > 0 {
			if pos+metaLen <= len(chunk) {
				if title, ok := parseTitle(chunk[pos : pos+metaLen]); ok && p.onTitle != nil {
					p.onTitle(title)
				}
				pos += metaLen
			} else {
				// Block spans the chunk boundary: drop the partial
				// remainder and resume cadence from the next chunk.
				log.Debug().Int("metaLen", metaLen).Int("have", len(chunk)-pos).
					Msg("ICY metadata block split across chunks, dropping")
				pos = len(chunk)
			}
		}
		p.untilMeta = p.interval
	}
	return audio
}

// parseTitle extracts the StreamTitle value from a metadata block. Blocks are
// NUL-padded to a multiple of 16 bytes. Titles may themselves contain
// semicolons, so the value runs to the closing "';" pair rather than the
// first delimiter.
func parseTitle(block []byte) (string, bool) {
	meta := strings.TrimRight(string(block), "\x00")

	const marker = "StreamTitle='"
	start := strings.Index(meta, marker)
	if start < 0 {
		return "", false
	}
	start += len(marker)

	end := strings.Index(meta[start:], "';")
	if end < 0 {
		// Last field in the block has no trailing delimiter.
		if strings.HasSuffix(meta[start:], "'") {
			return meta[start : len(meta)-1], true
		}
		return "", false
	}
	return meta[start : start+end], true
}
