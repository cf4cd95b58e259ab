// Package framesync locates MP3 frame boundaries in raw stream bytes.
//
// Joining a live stream lands mid-frame more often than not. Decoders that
// expect a clean leading frame mis-sync or reject the stream, so the first
// buffered window is realigned once, before any byte reaches the decoder.
package framesync

// HeaderSize is the length of an MP3 frame header in bytes.
const HeaderSize = 4

// ValidHeader reports whether hdr starts with a plausible MP3 frame header:
// 11-bit sync pattern, non-reserved MPEG version, Layer III, and non-reserved
// bitrate/sample-rate indices.
func ValidHeader(hdr []byte) bool {
	if len(hdr) < HeaderSize {
		return false
	}

	// Sync: 0xFF followed by 0b111xxxxx.
	if hdr[0] != 0xff || hdr[1]&0xe0 != 0xe0 {
		return false
	}

	version := (hdr[1] >> 3) & 0x03
	layer := (hdr[1] >> 1) & 0x03
	if version == 1 { // reserved
		return false
	}
	if layer != 1 { // only Layer III
		return false
	}

	bitrateIdx := (hdr[2] >> 4) & 0x0f
	if bitrateIdx == 0 || bitrateIdx == 0x0f { // free-format or reserved
		return false
	}
	sampleRateIdx := (hdr[2] >> 2) & 0x03
	if sampleRateIdx == 3 { // reserved
		return false
	}
	if hdr[3]&0x03 == 2 { // reserved emphasis
		return false
	}

	return true
}

// Scan returns the offset of the first valid frame header in buf, or -1 if
// none is found.
func Scan(buf []byte) int {
	for i := 0; i+HeaderSize <= len(buf); i++ {
		if ValidHeader(buf[i:]) {
			return i
		}
	}
	return -1
}

// Realign shifts buf so the first valid frame header sits at offset 0 and
// returns the aligned window plus the number of bytes discarded. If no header
// is found the window passes through unchanged with offset -1; the decoder's
// own resync logic is the fallback. Realign mutates buf in place.
func Realign(buf []byte) ([]byte, int) {
	offset := Scan(buf)
	if offset <= 0 {
		return buf, offset
	}
	n := copy(buf, buf[offset:])
	return buf[:n], offset
}
