package spectrum

import "testing"

func TestAnalyzeEmpty(t *testing.T) {
	snap := Analyze(nil)
	for i, v := range snap {
		if v != 0 {
			t.Fatalf("band %d = %d, want 0 for empty input", i, v)
		}
	}
}

func TestAnalyzeSilence(t *testing.T) {
	samples := make([][2]float64, Bands*8)
	snap := Analyze(samples)
	for i, v := range snap {
		if v != 0 {
			t.Errorf("band %d = %d, want 0 for silence", i, v)
		}
	}
}

func TestAnalyzeFullScale(t *testing.T) {
	samples := make([][2]float64, Bands*8)
	for i := range samples {
		samples[i] = [2]float64{1, 1}
	}

	snap := Analyze(samples)
	for i, v := range snap {
		if v != 255 {
			t.Errorf("band %d = %d, want 255 for full-scale input", i, v)
		}
	}
}

func TestAnalyzeBandsAreIndependent(t *testing.T) {
	const perBand = 4
	samples := make([][2]float64, Bands*perBand)
	// Only the third band's window carries signal.
	for i := 2 * perBand; i < 3*perBand; i++ {
		samples[i] = [2]float64{0.5, 0.5}
	}

	snap := Analyze(samples)
	for i, v := range snap {
		if i == 2 {
			if v == 0 {
				t.Errorf("band 2 = 0, want non-zero")
			}
			continue
		}
		if v != 0 {
			t.Errorf("band %d = %d, want 0", i, v)
		}
	}
}

func TestAnalyzeNegativeAmplitudeCounts(t *testing.T) {
	samples := make([][2]float64, Bands)
	for i := range samples {
		samples[i] = [2]float64{-0.8, -0.8}
	}

	snap := Analyze(samples)
	if snap[0] == 0 {
		t.Error("negative samples should still register amplitude")
	}
}

func TestAnalyzeFewerSamplesThanBands(t *testing.T) {
	samples := [][2]float64{{1, 1}, {1, 1}}
	snap := Analyze(samples)

	if snap[0] == 0 || snap[1] == 0 {
		t.Error("leading bands should carry the available samples")
	}
	for i := 2; i < Bands; i++ {
		if snap[i] != 0 {
			t.Errorf("band %d = %d, want 0", i, snap[i])
		}
	}
}
