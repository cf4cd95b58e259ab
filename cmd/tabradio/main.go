package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tabradio/tabradio/internal/api"
	"github.com/tabradio/tabradio/internal/audio"
	"github.com/tabradio/tabradio/internal/cache"
	"github.com/tabradio/tabradio/internal/config"
	"github.com/tabradio/tabradio/internal/service"
	"github.com/tabradio/tabradio/internal/stream"
	"github.com/tabradio/tabradio/internal/ui"
	"github.com/tabradio/tabradio/internal/wifi"
)

var (
	versionFlag = flag.Bool("version", false, "Show version information")
	debugFlag   = flag.Bool("debug", false, "Enable debug logging")
	stationFlag = flag.String("station", "", "Start playing the given station ID (e.g. groovesalad)")
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s v%s - %s\n\n", config.AppName, config.AppVersion, config.AppDescription)
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()

		configPath, err := config.GetConfigPath()
		if err == nil {
			if _, statErr := os.Stat(configPath); statErr == nil {
				fmt.Fprintf(os.Stderr, "\nConfig file: %s\n", configPath)
			} else {
				fmt.Fprintf(os.Stderr, "\nConfig file will be created on first use.\n")
			}
		}
	}
}

func setupLogging(debug bool) {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)

		cacheDir, err := cache.GetCacheDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not get cache dir: %v\n", err)
			cacheDir = os.TempDir()
		}
		if err := os.MkdirAll(cacheDir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create log dir: %v\n", err)
		}
		logPath := filepath.Join(cacheDir, "debug.log")
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create log file: %v\n", err)
			logFile = os.Stderr
		}
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: logFile, TimeFormat: "15:04:05"})
		fmt.Printf("Debug log: %s\n", logPath)
		log.Info().Msgf("Starting %s v%s (debug mode)", config.AppName, config.AppVersion)
		return
	}

	// Avoid TUI corruption by only logging errors to /dev/null
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	logFile, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0644)
	if err == nil {
		log.Logger = log.Output(logFile)
	}
}

func newWifiManager() wifi.Manager {
	if wifi.Available() {
		return wifi.NewNMCLIManager()
	}
	log.Debug().Msg("nmcli not found, assuming network is managed externally")
	return &wifi.Static{Up: true}
}

func main() {
	flag.Parse()

	if *versionFlag {
		fmt.Printf("%s v%s\n", config.AppName, config.AppVersion)
		fmt.Println(config.AppDescription)
		os.Exit(0)
	}

	setupLogging(*debugFlag)

	if *debugFlag {
		if configPath, err := config.GetConfigPath(); err == nil {
			log.Debug().Msgf("Config: %s", configPath)
		}
		if cacheDir, err := cache.GetCacheDir(); err == nil {
			log.Debug().Msgf("Cache: %s", cacheDir)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.DefaultConfig()
	}

	apiClient := api.NewClient()
	stationService := service.NewStationService(apiClient)

	pipeline := audio.NewPipeline()
	capacity, prebuffer := cfg.BufferSizes()
	controller, err := stream.NewController(pipeline, capacity, prebuffer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid buffering configuration: %v\n", err)
		os.Exit(1)
	}

	appUI := ui.NewUI(controller, stationService, newWifiManager(), *stationFlag)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	uiDone := make(chan error, 1)

	go func() {
		<-sigChan
		if *debugFlag {
			log.Info().Msg("Received shutdown signal, cleaning up...")
		}
		appUI.Shutdown()
	}()

	if *debugFlag {
		log.Info().Msg("Starting UI...")
	}

	// Run UI in a goroutine so we can handle signals properly
	go func() {
		uiDone <- appUI.Run()
	}()

	if err := <-uiDone; err != nil {
		if *debugFlag {
			log.Error().Err(err).Msg("Error running UI")
		}
		controller.Stop()
		os.Exit(1)
	}

	// Ensure the stream is fully stopped before exiting
	controller.Stop()
	if *debugFlag {
		log.Info().Msgf("%s stopped", config.AppName)
	}
}
