// Package spectrum turns decoded PCM chunks into a coarse per-band amplitude
// snapshot for the visualizer. It is an average-magnitude measure over fixed
// sample windows, not an FFT; the display only needs motion that tracks the
// music.
package spectrum

// Bands is the number of amplitude bands in a snapshot.
const Bands = 32

// maxLevel bounds the displayed amplitude range.
const maxLevel = 255

// Snapshot holds one per-band amplitude measurement, each scaled 0..255.
type Snapshot [Bands]uint8

// Analyze splits the stereo samples into Bands consecutive windows and
// measures the mean absolute amplitude of each. Samples are beep-style
// float64 pairs in [-1, 1]. Fewer samples than bands fills only the leading
// bands and leaves the rest at zero.
func Analyze(samples [][2]float64) Snapshot {
	var snap Snapshot
	if len(samples) == 0 {
		return snap
	}

	perBand := len(samples) / Bands
	if perBand < 1 {
		perBand = 1
	}

	for band := 0; band < Bands && band*perBand < len(samples); band++ {
		start := band * perBand
		end := start + perBand
		if end > len(samples) {
			end = len(samples)
		}

		var sum float64
		for _, s := range samples[start:end] {
			mono := (s[0] + s[1]) / 2
			if mono < 0 {
				mono = -mono
			}
			sum += mono
		}

		level := sum / float64(end-start) * maxLevel
		if level > maxLevel {
			level = maxLevel
		}
		snap[band] = uint8(level)
	}
	return snap
}
