package icy

import (
	"bytes"
	"testing"
)

// metaBlock builds a length byte plus NUL-padded metadata payload.
func metaBlock(t *testing.T, content string) []byte {
	t.Helper()
	padded := len(content)
	if rem := padded % 16; rem != 0 {
		padded += 16 - rem
	}
	if padded > MaxMetadataLen {
		t.Fatalf("metadata %q too long", content)
	}
	block := make([]byte, 1+padded)
	block[0] = byte(padded / 16)
	copy(block[1:], content)
	return block
}

func TestFeedNoInterval(t *testing.T) {
	var got bytes.Buffer
	p := NewParser(0, nil)

	chunk := []byte("raw audio bytes")
	n := p.Feed(chunk, func(b []byte) int {
		got.Write(b)
		return len(b)
	})

	if n != len(chunk) {
		t.Errorf("Feed = %d, want %d", n, len(chunk))
	}
	if !bytes.Equal(got.Bytes(), chunk) {
		t.Errorf("forwarded %q, want %q", got.Bytes(), chunk)
	}
}

func TestFeedExtractsTitleAtInterval(t *testing.T) {
	const interval = 8
	audio1 := []byte("12345678")
	audio2 := []byte("abcdefgh")
	meta := metaBlock(t, "StreamTitle='Aphex Twin - Rhubarb';StreamUrl='';")

	stream := append(append(append([]byte{}, audio1...), meta...), audio2...)

	var titles []string
	var forwarded bytes.Buffer
	p := NewParser(interval, func(title string) { titles = append(titles, title) })

	n := p.Feed(stream, func(b []byte) int {
		forwarded.Write(b)
		return len(b)
	})

	wantAudio := append(append([]byte{}, audio1...), audio2...)
	if n != len(wantAudio) {
		t.Errorf("audio bytes = %d, want %d", n, len(wantAudio))
	}
	if !bytes.Equal(forwarded.Bytes(), wantAudio) {
		t.Errorf("forwarded %q, want %q", forwarded.Bytes(), wantAudio)
	}
	if len(titles) != 1 || titles[0] != "Aphex Twin - Rhubarb" {
		t.Errorf("titles = %v, want [Aphex Twin - Rhubarb]", titles)
	}
}

func TestFeedZeroLengthMetadata(t *testing.T) {
	const interval = 4
	// Two cycles, both with an empty metadata block.
	stream := []byte{'a', 'b', 'c', 'd', 0, 'e', 'f', 'g', 'h', 0}

	var titles int
	var forwarded bytes.Buffer
	p := NewParser(interval, func(string) { titles++ })

	n := p.Feed(stream, func(b []byte) int {
		forwarded.Write(b)
		return len(b)
	})

	if n != 8 {
		t.Errorf("audio bytes = %d, want 8", n)
	}
	if !bytes.Equal(forwarded.Bytes(), []byte("abcdefgh")) {
		t.Errorf("forwarded %q, want %q", forwarded.Bytes(), "abcdefgh")
	}
	if titles != 0 {
		t.Errorf("titles = %d, want 0", titles)
	}
}

func TestFeedCadenceAcrossChunks(t *testing.T) {
	const interval = 10
	meta := metaBlock(t, "StreamTitle='One';")

	full := append(append(make([]byte, interval), meta...), make([]byte, interval)...)

	var titles []string
	var forwarded int
	p := NewParser(interval, func(title string) { titles = append(titles, title) })
	sink := func(b []byte) int { forwarded += len(b); return len(b) }

	// Deliver in small chunks that never split the metadata block itself.
	p.Feed(full[:interval], sink)
	p.Feed(full[interval:interval+len(meta)], sink)
	p.Feed(full[interval+len(meta):], sink)

	if forwarded != 2*interval {
		t.Errorf("audio bytes = %d, want %d", forwarded, 2*interval)
	}
	if len(titles) != 1 || titles[0] != "One" {
		t.Errorf("titles = %v, want [One]", titles)
	}
}

func TestFeedDropsPartialBlockAtChunkBoundary(t *testing.T) {
	const interval = 4
	meta := metaBlock(t, "StreamTitle='Lost Title';")

	stream := append(make([]byte, interval), meta...)
	// Split inside the metadata payload.
	cut := interval + 1 + 4

	var titles []string
	var forwarded int
	p := NewParser(interval, func(title string) { titles = append(titles, title) })
	sink := func(b []byte) int { forwarded += len(b); return len(b) }

	p.Feed(stream[:cut], sink)

	if len(titles) != 0 {
		t.Errorf("titles from partial block = %v, want none", titles)
	}

	// The next chunk is treated as resuming the audio cadence.
	next := []byte("wxyz")
	p.Feed(next, sink)

	if forwarded != interval+len(next) {
		t.Errorf("audio bytes = %d, want %d", forwarded, interval+len(next))
	}
}

func TestParseTitle(t *testing.T) {
	tests := []struct {
		name  string
		block string
		want  string
		ok    bool
	}{
		{"simple", "StreamTitle='Boards of Canada - Dayvan Cowboy';", "Boards of Canada - Dayvan Cowboy", true},
		{"with url", "StreamTitle='Track';StreamUrl='https://example.com';", "Track", true},
		{"semicolon in title", "StreamTitle='Part 1; Part 2';StreamUrl='';", "Part 1; Part 2", true},
		{"empty title", "StreamTitle='';", "", true},
		{"no delimiter", "StreamTitle='Unterminated'", "Unterminated", true},
		{"missing key", "StreamUrl='https://example.com';", "", false},
		{"garbage", "not metadata at all", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseTitle([]byte(tt.block))
			if ok != tt.ok || got != tt.want {
				t.Errorf("parseTitle(%q) = (%q, %v), want (%q, %v)", tt.block, got, ok, tt.want, tt.ok)
			}
		})
	}
}
