package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/tabradio/tabradio/internal/stream"
)

// StatusRenderer turns controller snapshots into the footer status line.
// It polls nothing itself; AdvanceAnimation is driven by the UI status loop.
type StatusRenderer struct {
	controller    *stream.Controller
	isMuted       bool
	animFrame     int
	maxAnimFrame  int
	tickCount     int
	ticksPerFrame int

	spinnerFrames []string

	primaryColor string
}

func NewStatusRenderer(controller *stream.Controller) *StatusRenderer {
	return &StatusRenderer{
		controller:    controller,
		maxAnimFrame:  4,
		ticksPerFrame: 5, // Slow the dot animation relative to the poll rate
		spinnerFrames: []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"},
	}
}

func (s *StatusRenderer) SetMuted(muted bool) {
	s.isMuted = muted
}

func (s *StatusRenderer) SetPrimaryColor(color string) {
	s.primaryColor = color
}

func (s *StatusRenderer) AdvanceAnimation() {
	s.tickCount++
	if s.tickCount >= s.ticksPerFrame {
		s.tickCount = 0
		s.animFrame = (s.animFrame + 1) % s.maxAnimFrame
	}
}

// SpinnerFrame returns the braille spinner glyph for the current tick,
// used as the playing indicator in the station list.
func (s *StatusRenderer) SpinnerFrame() string {
	return s.spinnerFrames[s.tickCount%len(s.spinnerFrames)]
}

func (s *StatusRenderer) Render() string {
	if s.controller == nil {
		return s.renderStopped()
	}

	switch s.controller.State() {
	case stream.StateStopped:
		return s.renderStopped()
	case stream.StateBuffering:
		return s.renderBuffering()
	case stream.StatePlaying:
		return s.renderPlaying()
	case stream.StateError:
		return s.renderError()
	default:
		return s.renderStopped()
	}
}

func (s *StatusRenderer) renderStopped() string {
	if s.isMuted {
		return "○ STOPPED │ [red]MUTED[-] │ Select a station"
	}
	return "○ STOPPED │ Select a station"
}

func (s *StatusRenderer) renderBuffering() string {
	circles := []string{"◐", "◓", "◑", "◒"}
	meta := s.controller.Metadata()
	return fmt.Sprintf("%s BUFFERING %d%%", circles[s.animFrame], meta.BufferPercent)
}

func (s *StatusRenderer) renderPlaying() string {
	dots := []string{"●", "◉", "○", "◉"}
	dot := dots[s.animFrame]

	if s.primaryColor != "" {
		dot = fmt.Sprintf("[%s]%s[-]", s.primaryColor, dot)
	}

	parts := []string{dot + " LIVE"}

	if s.isMuted {
		parts = append(parts, "[red]MUTED[-]")
	}

	meta := s.controller.Metadata()
	if meta.Bitrate > 0 {
		parts = append(parts, fmt.Sprintf("MP3 %dk", meta.Bitrate))
	}

	parts = append(parts, formatBufferHealth(meta.BufferPercent))

	return joinParts(parts)
}

func (s *StatusRenderer) renderError() string {
	if err := s.controller.LastError(); err != nil {
		return fmt.Sprintf("✗ %s", friendlyErrorMessage(err.Error()))
	}
	return "✗ ERROR"
}

func formatBufferHealth(percent int) string {
	signalBars := []string{"▁", "▂", "▃", "▅", "▇"}
	const numBars = 5

	filled := (percent * numBars) / 100
	if filled > numBars {
		filled = numBars
	}

	bar := ""
	for i := 0; i < numBars; i++ {
		if i < filled {
			bar += signalBars[i]
		} else {
			bar += "▁"
		}
	}

	return bar
}

func joinParts(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	result := parts[0]
	for i := 1; i < len(parts); i++ {
		result += " │ " + parts[i]
	}
	return result
}

func (ui *UI) getHelpText() string {
	keyColor := ui.colors.highlight.String()

	playbackHint := fmt.Sprintf("[%s]Enter[-] play  [%s]Space[-] stop", keyColor, keyColor)
	if ui.controller.State() == stream.StateStopped {
		playbackHint = fmt.Sprintf("[%s]Space[-] play", keyColor)
	}

	muteText := "mute"
	if ui.isMuted {
		muteText = "unmute"
	}

	return fmt.Sprintf(" %s  [%s]+/-[-] vol  [%s]m[-] %s  [%s]w[-] wifi  [%s]?[-] help  [%s]q[-] quit ",
		playbackHint, keyColor, keyColor, muteText, keyColor, keyColor, keyColor)
}

func (ui *UI) createFooter() *tview.Box {
	box := tview.NewBox().SetBackgroundColor(ui.colors.background)

	box.SetDrawFunc(func(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
		helpText := ui.getHelpText()
		statusText := " " + ui.statusRenderer.Render() + " "

		helpWidth := width / 2
		statusWidth := width - helpWidth

		for row := y; row < y+height; row++ {
			for col := x; col < x+width; col++ {
				screen.SetContent(col, row, ' ', nil, tcell.StyleDefault.Background(ui.colors.headerBackground))
			}
		}

		centerY := y + height/2
		tview.Print(screen, helpText, x, centerY, helpWidth, tview.AlignLeft, ui.colors.foreground)
		tview.Print(screen, statusText, x+helpWidth, centerY, statusWidth-2, tview.AlignRight, ui.colors.foreground)

		return x, y, width, height
	})

	return box
}
