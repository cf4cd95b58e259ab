// Package ui implements the terminal interface: station list, now-playing
// panel with spectrum visualizer, volume bar, and the WiFi setup dialog.
package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"

	"github.com/tabradio/tabradio/internal/config"
	"github.com/tabradio/tabradio/internal/service"
	"github.com/tabradio/tabradio/internal/station"
	"github.com/tabradio/tabradio/internal/stream"
	"github.com/tabradio/tabradio/internal/wifi"
)

const (
	VolumeStep            = 5
	HeaderHeight          = 3
	FooterHeight          = 3
	PlayerPanelHeight     = 12
	SpectrumHeight        = 6
	StatusPollInterval    = 100 * time.Millisecond
	MinLoadingDisplayTime = 800 * time.Millisecond
	MinStatusDisplayTime  = 250 * time.Millisecond
)

type UI struct {
	app               *tview.Application
	stationService    *service.StationService
	controller        *stream.Controller
	wifiManager       wifi.Manager
	currentStation    *station.Station
	stationList       *tview.Table
	helpPanel         *tview.Box
	contentLayout     *tview.Flex
	playerPanel       *tview.Flex
	currentTrackView  *tview.TextView
	spectrumView      *tview.TextView
	volumeView        *tview.Flex
	mainLayout        *tview.Flex
	loadingScreen     *tview.Flex
	loadingText       *tview.TextView
	progressBar       *tview.TextView
	pages             *tview.Pages
	stopUpdates       chan struct{}
	playingIndex      int
	playingStationID  string
	selectedStationID string
	startStation      string
	currentVolume     int
	isMuted           bool
	config            *config.Config
	mu                sync.Mutex
	statusRenderer    *StatusRenderer
	colors            struct {
		background       tcell.Color
		foreground       tcell.Color
		borders          tcell.Color
		highlight        tcell.Color
		headerBackground tcell.Color
		spectrumBar      tcell.Color
		modalBackground  tcell.Color
	}
}

// NewUI builds the interface around the stream controller and station
// service. startStation, when non-empty, overrides the configured last
// station on launch.
func NewUI(controller *stream.Controller, stationService *service.StationService, wifiManager wifi.Manager, startStation string) *UI {
	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.DefaultConfig()
	}

	ui := &UI{
		app:            tview.NewApplication(),
		controller:     controller,
		stationService: stationService,
		wifiManager:    wifiManager,
		stopUpdates:    make(chan struct{}),
		playingIndex:   -1,
		startStation:   startStation,
		currentVolume:  cfg.Volume,
		isMuted:        false,
		config:         cfg,
	}

	ui.colors.background = config.GetColor(cfg.Theme.Background)
	ui.colors.foreground = config.GetColor(cfg.Theme.Foreground)
	ui.colors.borders = config.GetColor(cfg.Theme.Borders)
	ui.colors.highlight = config.GetColor(cfg.Theme.Highlight)
	ui.colors.headerBackground = config.GetColor(cfg.Theme.HeaderBackground)
	ui.colors.spectrumBar = config.GetColor(cfg.Theme.SpectrumBar)
	ui.colors.modalBackground = config.GetColor(cfg.Theme.ModalBackground)

	controller.SetVolume(cfg.Volume)
	log.Debug().Msgf("Loaded volume from config: %d%%", cfg.Volume)

	ui.statusRenderer = NewStatusRenderer(controller)
	ui.statusRenderer.SetPrimaryColor(ui.colors.highlight.String())

	return ui
}

func (ui *UI) SaveConfig() {
	ui.mu.Lock()
	if !ui.isMuted {
		ui.config.Volume = ui.currentVolume
	}
	if ui.currentStation != nil {
		ui.config.LastStation = ui.currentStation.ID
	}
	ui.mu.Unlock()

	if err := ui.config.Save(); err != nil {
		log.Error().Err(err).Msg("Failed to save config")
	}
}

func (ui *UI) stop() {
	ui.stationService.StopPeriodicRefresh()
	ui.controller.Stop()

	ui.mu.Lock()
	if ui.stopUpdates != nil {
		close(ui.stopUpdates)
		ui.stopUpdates = nil
	}
	ui.mu.Unlock()

	ui.app.Stop()
}

// Shutdown stops the UI gracefully from external callers (e.g., signal handlers).
func (ui *UI) Shutdown() {
	ui.app.QueueUpdateDraw(func() {
		ui.stop()
	})
}

func (ui *UI) Run() error {
	ui.setupLoadingScreen()
	ui.app.SetRoot(ui.loadingScreen, true)
	ui.configureScreen()

	go ui.initAsync()

	return ui.app.Run()
}

func (ui *UI) configureScreen() {
	bgStyle := tcell.StyleDefault.Background(ui.colors.background)
	ui.app.SetBeforeDrawFunc(func(screen tcell.Screen) bool {
		screen.SetStyle(bgStyle)
		screen.Clear()
		return false
	})

	var titleSet sync.Once
	ui.app.SetAfterDrawFunc(func(screen tcell.Screen) {
		titleSet.Do(func() { screen.SetTitle(config.AppName) })
	})
}

func (ui *UI) setupLoadingScreen() {
	ui.loadingText = tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetText("Connecting... (1/3)")
	ui.loadingText.SetTextColor(ui.colors.foreground).
		SetBackgroundColor(ui.colors.background)

	ui.progressBar = tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetText(ui.renderProgressBar(0))
	ui.progressBar.SetTextColor(ui.colors.highlight).
		SetBackgroundColor(ui.colors.background)

	content := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(ui.loadingText, 1, 0, false).
		AddItem(nil, 1, 0, false).
		AddItem(ui.progressBar, 1, 0, false)
	content.SetBackgroundColor(ui.colors.background)

	ui.loadingScreen = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(content, 3, 0, false).
		AddItem(nil, 0, 1, false)

	ui.loadingScreen.SetBackgroundColor(ui.colors.background)
}

func (ui *UI) renderProgressBar(percent int) string {
	const width = 30
	filled := (percent * width) / 100
	empty := width - filled
	return strings.Repeat("█", filled) + strings.Repeat("░", empty)
}

func (ui *UI) animateProgress(fromPercent, toPercent int, duration time.Duration) {
	steps := toPercent - fromPercent
	if steps <= 0 {
		return
	}
	stepDuration := duration / time.Duration(steps)
	lastBar := ui.renderProgressBar(fromPercent)

	for p := fromPercent + 1; p <= toPercent; p++ {
		time.Sleep(stepDuration)
		if bar := ui.renderProgressBar(p); bar != lastBar {
			ui.app.QueueUpdateDraw(func() {
				ui.progressBar.SetText(bar)
			})
			lastBar = bar
		}
	}
}

func (ui *UI) initAsync() {
	const totalStages = 3
	stagePercent := func(stage int) int { return (stage * 100) / totalStages }

	startTime := time.Now()

	animDone := make(chan struct{})
	go func() {
		ui.animateProgress(stagePercent(0), stagePercent(1), MinStatusDisplayTime)
		close(animDone)
	}()

	// Load never fails outright: built-in stations back every fallback.
	ctx, cancel := contextWithTimeout(30 * time.Second)
	ui.stationService.Load(ctx)
	cancel()
	log.Debug().Msgf("Loaded %d stations in %v", ui.stationService.StationCount(), time.Since(startTime))

	<-animDone

	ui.app.QueueUpdateDraw(func() {
		ui.loadingText.SetText("Loading configuration... (2/3)")
	})

	ui.config.CleanupFavorites(ui.stationService.GetValidStationIDs())
	ui.SaveConfig()

	ui.animateProgress(stagePercent(1), stagePercent(2), MinStatusDisplayTime)

	ui.app.QueueUpdateDraw(func() {
		ui.loadingText.SetText("Building interface... (3/3)")
	})

	ui.setupUI()
	ui.stationService.StartPeriodicRefresh(30*time.Second, ui.onStationsRefreshed)
	ui.startStatusLoop()

	ui.animateProgress(stagePercent(2), stagePercent(3), MinStatusDisplayTime)

	// Floor, not ceiling: wait only if real work finished early.
	if elapsed := time.Since(startTime); elapsed < MinLoadingDisplayTime {
		time.Sleep(MinLoadingDisplayTime - elapsed)
	}

	ui.app.QueueUpdateDraw(func() {
		ui.app.SetRoot(ui.pages, true).EnableMouse(true)
		ui.app.SetFocus(ui.stationList)

		startID := ui.startStation
		if startID == "" {
			startID = ui.config.LastStation
		}

		if startID == "" {
			ui.selectAndShowStation(0)
			return
		}

		index := ui.stationService.FindIndexByID(startID)
		if index < 0 {
			log.Debug().Msgf("Station '%s' not found, showing first station", startID)
			ui.selectAndShowStation(0)
			return
		}

		if ui.startStation != "" || ui.config.Autostart {
			log.Debug().Msgf("Starting playback for station: %s", startID)
			ui.stationList.Select(index+1, 0)
			ui.onStationSelected(index)
		} else {
			ui.selectAndShowStation(index)
		}
	})
}

func (ui *UI) setupUI() {
	header := ui.createHeader()

	ui.playerPanel = tview.NewFlex().SetDirection(tview.FlexRow)
	ui.playerPanel.SetBackgroundColor(ui.colors.background)

	ui.stationList = ui.createStationListTable()

	ui.helpPanel = ui.createFooter()

	ui.contentLayout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(header, HeaderHeight, 0, false).
		AddItem(nil, 1, 0, false).
		AddItem(ui.playerPanel, PlayerPanelHeight, 0, false).
		AddItem(nil, 1, 0, false).
		AddItem(ui.stationList, 0, 1, true).
		AddItem(ui.helpPanel, FooterHeight, 0, false)
	ui.contentLayout.SetBackgroundColor(ui.colors.background)

	wrapper := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(nil, 2, 0, false).
		AddItem(ui.contentLayout, 0, 1, true).
		AddItem(nil, 2, 0, false)
	wrapper.SetBackgroundColor(ui.colors.background)

	ui.mainLayout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 1, 0, false).
		AddItem(wrapper, 0, 1, true).
		AddItem(nil, 1, 0, false)
	ui.mainLayout.SetBackgroundColor(ui.colors.background)

	ui.pages = tview.NewPages().
		AddPage("main", ui.mainLayout, true, true)
	ui.pages.SetBackgroundColor(ui.colors.background)

	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if ui.pages.HasPage("modal") || ui.pages.HasPage("error-modal") {
			return event
		}
		return ui.globalInputHandler(event)
	})
}

func (ui *UI) createHeader() tview.Primitive {
	titleView := tview.NewTextView()
	titleView.SetText(" " + config.AppName)
	titleView.SetTextAlign(tview.AlignLeft)
	titleView.SetTextColor(ui.colors.foreground)
	titleView.SetBackgroundColor(ui.colors.headerBackground)

	versionView := tview.NewTextView()
	versionView.SetText("v" + config.AppVersion + " ")
	versionView.SetTextAlign(tview.AlignRight)
	versionView.SetTextColor(ui.colors.foreground)
	versionView.SetBackgroundColor(ui.colors.headerBackground)

	textFlex := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(titleView, 0, 1, false).
		AddItem(versionView, 10, 0, false)
	textFlex.SetBackgroundColor(ui.colors.headerBackground)

	topSpacer := tview.NewBox().SetBackgroundColor(ui.colors.headerBackground)
	bottomSpacer := tview.NewBox().SetBackgroundColor(ui.colors.headerBackground)

	headerFlex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(topSpacer, 1, 0, false).
		AddItem(textFlex, 1, 0, false).
		AddItem(bottomSpacer, 1, 0, false)
	headerFlex.SetBackgroundColor(ui.colors.headerBackground)

	return headerFlex
}

func (ui *UI) onStationSelected(index int) {
	stationCount := ui.stationService.StationCount()
	if index < 0 || index >= stationCount {
		return
	}

	if index == ui.playingIndex && ui.controller.State() == stream.StatePlaying {
		return
	}

	previousPlayingIndex := ui.playingIndex

	ui.playingIndex = index
	ui.currentStation = ui.stationService.GetStation(index)
	ui.playingStationID = ui.currentStation.ID

	if previousPlayingIndex >= 0 && previousPlayingIndex < stationCount && previousPlayingIndex != index {
		ui.setStationRow(ui.stationList, previousPlayingIndex+1, previousPlayingIndex)
	}

	ui.updateStationListPlayingIndicator()

	ui.SaveConfig()

	ui.playerPanel.Clear()
	ui.playerPanel.AddItem(ui.createContentPanel(), 0, 1, false)

	s := *ui.currentStation
	go func() {
		log.Info().Msgf("Starting playback for station: %s", s.Title)
		if err := ui.controller.Start(s.BestStreamURL()); err != nil {
			log.Error().Err(err).Msg("Failed to start stream")
			ui.app.QueueUpdateDraw(func() {
				ui.showError(err)
			})
			return
		}

		// Inline metadata can lag behind by a whole buffer; seed the track
		// line from the directory's song history in the meantime.
		ctx, cancel := contextWithTimeout(10 * time.Second)
		defer cancel()
		track, err := ui.stationService.GetCurrentTrack(ctx, s.ID)
		if err != nil {
			log.Debug().Err(err).Msg("Failed to fetch song history")
			return
		}
		if track != "" {
			ui.app.QueueUpdateDraw(func() {
				ui.setTrackText(track)
			})
		}
	}()
}

func (ui *UI) stopPlayback() {
	if ui.playingIndex < 0 {
		return
	}

	index := ui.playingIndex
	ui.playingIndex = -1
	ui.playingStationID = ""

	go ui.controller.Stop()

	if index < ui.stationService.StationCount() {
		ui.setStationRow(ui.stationList, index+1, index)
	}
}

func (ui *UI) createContentPanel() *tview.Flex {
	stationLabel := tview.NewTextView()
	stationLabel.SetText(" Station:")
	stationLabel.SetTextColor(ui.colors.foreground)
	stationLabel.SetBackgroundColor(ui.colors.background)
	stationLabel.SetWrap(false)

	accent := ui.colors.highlight
	if ui.currentStation.Color != "" {
		accent = config.GetColor(ui.currentStation.Color)
	}

	stationNameView := tview.NewTextView()
	stationNameView.SetDynamicColors(true)
	stationNameView.SetText(fmt.Sprintf(" [%s]%s[-]", accent.String(), ui.currentStation.Title))
	stationNameView.SetTextColor(accent)
	stationNameView.SetBackgroundColor(ui.colors.background)
	stationNameView.SetWrap(false)
	stationNameView.SetTextStyle(tcell.StyleDefault.Background(ui.colors.background).Attributes(tcell.AttrBold))

	playingLabel := tview.NewTextView()
	playingLabel.SetText(" Playing:")
	playingLabel.SetTextColor(ui.colors.foreground)
	playingLabel.SetBackgroundColor(ui.colors.background)
	playingLabel.SetWrap(false)

	ui.currentTrackView = tview.NewTextView()
	ui.currentTrackView.SetDynamicColors(true)
	ui.currentTrackView.SetText(fmt.Sprintf(" [%s]%s[-]",
		ui.colors.highlight.String(),
		ui.currentStation.LastPlaying))
	ui.currentTrackView.SetTextColor(ui.colors.highlight)
	ui.currentTrackView.SetBackgroundColor(ui.colors.background)
	ui.currentTrackView.SetWrap(true)
	ui.currentTrackView.SetTextStyle(tcell.StyleDefault.Background(ui.colors.background).Attributes(tcell.AttrBold))

	descriptionView := tview.NewTextView()
	descriptionView.SetDynamicColors(true)
	descriptionView.SetText(fmt.Sprintf(" [%s]%s[-]",
		ui.colors.foreground.String(),
		ui.currentStation.Description))
	descriptionView.SetTextColor(ui.colors.foreground)
	descriptionView.SetBackgroundColor(ui.colors.background)
	descriptionView.SetWrap(true)

	infoContent := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(stationLabel, 1, 0, false).
		AddItem(stationNameView, 1, 0, false).
		AddItem(nil, 1, 0, false).
		AddItem(playingLabel, 1, 0, false).
		AddItem(ui.currentTrackView, 1, 0, false).
		AddItem(nil, 1, 0, false).
		AddItem(descriptionView, 0, 1, false)
	infoContent.SetBackgroundColor(ui.colors.background)

	ui.spectrumView = ui.createSpectrumView()

	spectrumWrapper := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(ui.spectrumView, SpectrumHeight, 0, false).
		AddItem(nil, 1, 0, false)
	spectrumWrapper.SetBackgroundColor(ui.colors.background)

	ui.volumeView = ui.createGraphicalVolumeBar()

	contentFlex := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(infoContent, 0, 2, false).
		AddItem(spectrumWrapper, 0, 1, false).
		AddItem(ui.volumeView, 7, 0, false)
	contentFlex.SetBackgroundColor(ui.colors.background)

	contentWithPadding := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(nil, 2, 0, false).
		AddItem(contentFlex, 0, 1, false).
		AddItem(nil, 2, 0, false)
	contentWithPadding.SetBackgroundColor(ui.colors.background)

	return contentWithPadding
}

// startStatusLoop polls the stream controller and repaints the dynamic
// parts of the screen. The controller exposes snapshot queries, so the
// loop never blocks on the audio path.
func (ui *UI) startStatusLoop() {
	ui.mu.Lock()
	stopCh := ui.stopUpdates
	ui.mu.Unlock()
	if stopCh == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(StatusPollInterval)
		defer ticker.Stop()

		lastState := stream.StateStopped
		lastTitle := ""

		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				state := ui.controller.State()
				meta := ui.controller.Metadata()

				ui.statusRenderer.AdvanceAnimation()

				stateChanged := state != lastState
				titleChanged := meta.Title != "" && meta.Title != lastTitle
				lastTitle = meta.Title

				ui.app.QueueUpdateDraw(func() {
					ui.updateSpectrumView()
					ui.updateStationListPlayingIndicator()
					if titleChanged {
						ui.setTrackText(meta.Title)
					}
					if stateChanged && state == stream.StateError {
						if err := ui.controller.LastError(); err != nil {
							ui.showError(err)
						}
					}
				})

				lastState = state
			}
		}
	}()
}

func (ui *UI) setTrackText(track string) {
	if ui.currentTrackView == nil {
		return
	}
	ui.currentTrackView.SetText(fmt.Sprintf(" [%s]%s[-]",
		ui.colors.highlight.String(), track))
}

func (ui *UI) onStationsRefreshed(stations []station.Station) {
	ui.app.QueueUpdateDraw(func() {
		ui.refreshStationTable()
	})
}

func (ui *UI) globalInputHandler(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyRune:
		switch event.Rune() {
		case 'q', 'Q':
			ui.stop()
			return nil
		case ' ':
			state := ui.controller.State()
			if state == stream.StatePlaying || state == stream.StateBuffering {
				ui.stopPlayback()
			} else {
				row, _ := ui.stationList.GetSelection()
				if row > 0 && row <= ui.stationService.StationCount() {
					ui.onStationSelected(row - 1)
				}
			}
			return nil
		case '>':
			ui.nextStation()
			return nil
		case '<':
			ui.prevStation()
			return nil
		case 'r', 'R':
			ui.randomStation()
			return nil
		case 'f', 'F':
			ui.toggleFavorite()
			return nil
		case '+', '=':
			ui.adjustVolume(VolumeStep)
			return nil
		case '-', '_':
			ui.adjustVolume(-VolumeStep)
			return nil
		case 'm', 'M':
			ui.toggleMute()
			return nil
		case 'w', 'W':
			ui.showWifiModal()
			return nil
		case '?':
			ui.showHelpModal()
			return nil
		case 'a', 'A':
			ui.showAboutModal()
			return nil
		}
	case tcell.KeyEnter:
		row, _ := ui.stationList.GetSelection()
		if row > 0 && row <= ui.stationService.StationCount() {
			ui.onStationSelected(row - 1)
		}
		return nil
	case tcell.KeyEscape:
		ui.stop()
		return nil
	case tcell.KeyRight:
		ui.adjustVolume(VolumeStep)
		return nil
	case tcell.KeyLeft:
		ui.adjustVolume(-VolumeStep)
		return nil
	}
	return event
}

func contextWithTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}
