package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"

	"github.com/tabradio/tabradio/internal/config"
	"github.com/tabradio/tabradio/internal/wifi"
)

const wifiConnectTimeout = 45 * time.Second

func friendlyErrorMessage(errStr string) string {
	if strings.Contains(errStr, "no such host") {
		return "Unable to connect to server.\nPlease check your internet connection."
	}
	if strings.Contains(errStr, "connection refused") {
		return "Connection refused by server.\nThe service may be temporarily unavailable."
	}
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return "Connection timed out.\nPlease check your internet connection."
	}
	if strings.Contains(errStr, "network is unreachable") || strings.Contains(errStr, "network read error") {
		return "Network is unreachable.\nPlease check your internet connection."
	}
	if strings.Contains(errStr, "status 401") {
		return "Stream access denied (401)."
	}
	if strings.Contains(errStr, "status 403") {
		return "Stream access forbidden (403)."
	}
	if strings.Contains(errStr, "status 404") {
		return "Stream not found (404)."
	}
	if strings.Contains(errStr, "stream ended") {
		return "The stream ended unexpectedly.\nThe station may be offline."
	}

	if idx := strings.Index(errStr, ": dial"); idx > 0 {
		return errStr[:idx]
	}
	if len(errStr) > 100 {
		return errStr[:100] + "..."
	}
	return errStr
}

func (ui *UI) showError(err error) {
	ui.showPlaybackErrorModal(friendlyErrorMessage(err.Error()))
}

func (ui *UI) showPlaybackErrorModal(message string) {
	if ui.pages.HasPage("error-modal") {
		return
	}

	doDismiss := func() {
		ui.pages.RemovePage("error-modal")
		ui.app.SetFocus(ui.stationList)
	}

	doRetry := func() {
		ui.pages.RemovePage("error-modal")
		ui.app.SetFocus(ui.stationList)
		if ui.currentStation == nil {
			return
		}
		url := ui.currentStation.BestStreamURL()
		go func() {
			if err := ui.controller.Start(url); err != nil {
				ui.app.QueueUpdateDraw(func() {
					ui.showError(err)
				})
			}
		}()
	}

	messageView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true).
		SetText(fmt.Sprintf("\n[::b]Playback Error[::-]\n\n%s", message))
	messageView.SetTextColor(ui.colors.foreground)
	messageView.SetBackgroundColor(ui.colors.modalBackground)

	hintView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true).
		SetText("[::d]Press [::b]R[::d] to retry  •  Press [::b]Esc[::d] to dismiss[::-]")
	hintView.SetTextColor(tcell.ColorDarkGray)
	hintView.SetBackgroundColor(ui.colors.modalBackground)

	content := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(messageView, 0, 1, false).
		AddItem(hintView, 1, 0, false).
		AddItem(nil, 1, 0, false)
	content.SetBackgroundColor(ui.colors.modalBackground)

	frame := tview.NewFrame(content).
		SetBorders(0, 0, 1, 1, 1, 1)
	frame.SetBorder(true).
		SetBorderColor(ui.colors.highlight).
		SetBackgroundColor(ui.colors.modalBackground).
		SetTitle(" Error ").
		SetTitleColor(ui.colors.highlight).
		SetTitleAlign(tview.AlignCenter)

	modalWidth := 50
	modalHeight := 10

	lines := strings.Count(message, "\n") + 1
	if lines > 2 {
		modalHeight += lines - 2
	}
	if modalHeight > 15 {
		modalHeight = 15
	}

	modal := centeredModal(frame, modalWidth, modalHeight, ui.colors.background)

	modal.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEscape, tcell.KeyEnter:
			doDismiss()
			return nil
		case tcell.KeyRune:
			if event.Rune() == 'r' || event.Rune() == 'R' {
				doRetry()
				return nil
			}
		}
		return event
	})

	ui.pages.AddPage("error-modal", modal, true, true)
	ui.app.SetFocus(modal)
}

func (ui *UI) showWifiModal() {
	doDismiss := func() {
		ui.pages.RemovePage("modal")
		ui.app.SetFocus(ui.stationList)
	}

	statusView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true)
	statusView.SetTextColor(ui.colors.foreground)
	statusView.SetBackgroundColor(ui.colors.modalBackground)

	switch ui.wifiManager.State() {
	case wifi.StateConnected:
		statusView.SetText("[green]Connected[-]")
	case wifi.StateConnecting:
		statusView.SetText("Connecting...")
	default:
		statusView.SetText("Not connected")
	}

	form := tview.NewForm()
	form.SetBackgroundColor(ui.colors.modalBackground)
	form.SetFieldBackgroundColor(ui.colors.background)
	form.SetFieldTextColor(ui.colors.foreground)
	form.SetLabelColor(ui.colors.foreground)
	form.SetButtonBackgroundColor(ui.colors.highlight)
	form.SetButtonTextColor(ui.colors.background)

	form.AddInputField("Network (SSID)", ui.config.Wifi.SSID, 24, nil, nil)
	form.AddPasswordField("Password", ui.config.Wifi.Password, 24, '*', nil)

	form.AddButton("Connect", func() {
		ssid := form.GetFormItem(0).(*tview.InputField).GetText()
		password := form.GetFormItem(1).(*tview.InputField).GetText()

		if strings.TrimSpace(ssid) == "" {
			statusView.SetText("[red]Network name is required[-]")
			return
		}

		statusView.SetText("Connecting...")

		go func() {
			ctx, cancel := contextWithTimeout(wifiConnectTimeout)
			defer cancel()

			err := ui.wifiManager.Connect(ctx, ssid, password)
			ui.app.QueueUpdateDraw(func() {
				if err != nil {
					log.Warn().Err(err).Str("ssid", ssid).Msg("WiFi connect failed")
					statusView.SetText(fmt.Sprintf("[red]%s[-]", friendlyErrorMessage(err.Error())))
					return
				}

				statusView.SetText("[green]Connected[-]")
				ui.config.Wifi = wifi.Credentials{SSID: ssid, Password: password}
				ui.SaveConfig()
				log.Info().Str("ssid", ssid).Msg("WiFi connected")
			})
		}()
	})
	form.AddButton("Cancel", doDismiss)

	content := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(form, 0, 1, true).
		AddItem(statusView, 1, 0, false).
		AddItem(nil, 1, 0, false)
	content.SetBackgroundColor(ui.colors.modalBackground)

	frame := tview.NewFrame(content).
		SetBorders(1, 0, 1, 1, 2, 2)
	frame.SetBorder(true).
		SetBorderColor(ui.colors.borders).
		SetBackgroundColor(ui.colors.modalBackground).
		SetTitle(" WiFi Setup ").
		SetTitleColor(ui.colors.highlight).
		SetTitleAlign(tview.AlignCenter)

	modal := centeredModal(frame, 48, 14, ui.colors.background)

	modal.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape {
			doDismiss()
			return nil
		}
		return event
	})

	ui.pages.AddPage("modal", modal, true, true)
	ui.app.SetFocus(form)
}

func (ui *UI) showHelpModal() {
	keyColor := ui.colors.highlight.String()

	configPath, _ := config.GetConfigPath()

	helpText := fmt.Sprintf(`[::b]KEYBOARD SHORTCUTS[::-]

[%s]PLAYBACK[-]
  [%s]Enter[-]      Play selected station
  [%s]Space[-]      Play / Stop
  [%s]<[-]          Previous station
  [%s]>[-]          Next station
  [%s]r[-]          Random station

[%s]VOLUME[-]
  [%s]+[-] / [%s]-[-]      Volume up / down
  [%s]←[-] / [%s]→[-]      Volume up / down
  [%s]m[-]          Mute / Unmute

[%s]STATIONS[-]
  [%s]↑[-] / [%s]↓[-]      Navigate list
  [%s]f[-]          Toggle favorite

[%s]APPLICATION[-]
  [%s]w[-]          WiFi setup
  [%s]?[-]          Show this help
  [%s]a[-]          About %s
  [%s]q[-] / [%s]Esc[-]    Quit

[%s]CONFIG[-]: %s`,
		keyColor,
		keyColor, keyColor, keyColor, keyColor, keyColor,
		keyColor,
		keyColor, keyColor, keyColor, keyColor, keyColor,
		keyColor,
		keyColor, keyColor, keyColor,
		keyColor,
		keyColor, keyColor, keyColor, config.AppName, keyColor, keyColor,
		keyColor, configPath)

	ui.showInfoModal("Help", helpText)
}

func (ui *UI) showAboutModal() {
	dimColor := "gray"
	linkColor := "skyblue"

	aboutText := fmt.Sprintf(`[::b]%s[::-]
[%s]%s[-]

Version: %s
Project: [%s]%s[-]
License: MIT

───────────────────────────────────────────

[%s]Radio content from[-] [::b]SomaFM[::-]
Listener-supported independent radio`,
		config.AppName,
		dimColor, config.AppTagline,
		config.AppVersion,
		linkColor, config.AppProjectURL,
		dimColor)

	ui.showInfoModal("About", aboutText)
}

func (ui *UI) showInfoModal(title, message string) {
	doDismiss := func() {
		ui.pages.RemovePage("modal")
		ui.app.SetFocus(ui.stationList)
	}

	messageView := tview.NewTextView().
		SetTextAlign(tview.AlignLeft).
		SetDynamicColors(true).
		SetWordWrap(true).
		SetText("\n" + message)
	messageView.SetTextColor(ui.colors.foreground)
	messageView.SetBackgroundColor(ui.colors.modalBackground)

	hintView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true).
		SetText("[::d]Press any key to close[::-]")
	hintView.SetTextColor(tcell.ColorDarkGray)
	hintView.SetBackgroundColor(ui.colors.modalBackground)

	content := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(messageView, 0, 1, false).
		AddItem(nil, 2, 0, false).
		AddItem(hintView, 1, 0, false).
		AddItem(nil, 1, 0, false)
	content.SetBackgroundColor(ui.colors.modalBackground)

	frame := tview.NewFrame(content).
		SetBorders(1, 0, 1, 1, 2, 2)
	frame.SetBorder(true).
		SetBorderColor(ui.colors.borders).
		SetBackgroundColor(ui.colors.modalBackground).
		SetTitle(" " + title + " ").
		SetTitleColor(ui.colors.highlight).
		SetTitleAlign(tview.AlignCenter)

	lines := strings.Count(message, "\n") + 1
	modalWidth := 45
	modalHeight := lines + 10
	if modalHeight > 38 {
		modalHeight = 38
	}

	modal := centeredModal(frame, modalWidth, modalHeight, ui.colors.background)

	modal.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		doDismiss()
		return nil
	})

	ui.pages.AddPage("modal", modal, true, true)
	ui.app.SetFocus(modal)
}

func centeredModal(frame tview.Primitive, width, height int, background tcell.Color) *tview.Flex {
	modal := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(frame, height, 0, true).
			AddItem(nil, 0, 1, false),
			width, 0, true).
		AddItem(nil, 0, 1, false)
	modal.SetBackgroundColor(background)
	return modal
}
