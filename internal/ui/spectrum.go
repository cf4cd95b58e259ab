package ui

import (
	"strings"

	"github.com/rivo/tview"

	"github.com/tabradio/tabradio/internal/spectrum"
	"github.com/tabradio/tabradio/internal/stream"
)

// Eighth-block glyphs for partial column tops, from lowest to tallest.
var spectrumGlyphs = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

func (ui *UI) createSpectrumView() *tview.TextView {
	view := tview.NewTextView()
	view.SetTextAlign(tview.AlignCenter)
	view.SetTextColor(ui.colors.spectrumBar)
	view.SetBackgroundColor(ui.colors.background)
	view.SetWrap(false)
	return view
}

func (ui *UI) updateSpectrumView() {
	if ui.spectrumView == nil {
		return
	}

	if ui.controller.State() != stream.StatePlaying {
		ui.spectrumView.SetText("")
		return
	}

	snap := ui.controller.Spectrum()
	ui.spectrumView.SetText(renderSpectrum(snap, SpectrumHeight))
}

// renderSpectrum draws one column per band, height rows tall. Each level
// 0..255 maps to a column of full blocks with an eighth-block cap, so the
// bars move smoothly even at small heights.
func renderSpectrum(snap spectrum.Snapshot, height int) string {
	if height < 1 {
		return ""
	}

	// Total eighths of a cell per band.
	eighths := make([]int, len(snap))
	for i, level := range snap {
		eighths[i] = (int(level) * height * 8) / 255
	}

	var b strings.Builder
	for row := height - 1; row >= 0; row-- {
		for _, e := range eighths {
			cell := e - row*8
			switch {
			case cell >= 8:
				b.WriteRune('█')
			case cell >= 1:
				b.WriteRune(spectrumGlyphs[cell-1])
			default:
				b.WriteRune(' ')
			}
		}
		if row > 0 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
