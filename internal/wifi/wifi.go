// Package wifi is the network collaborator boundary: the streaming core only
// needs a connected predicate and an opaque connect call. On Linux hosts the
// implementation drives NetworkManager through nmcli; everywhere else a
// static manager assumes the network is managed outside the player.
package wifi

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	default:
		return "UNKNOWN"
	}
}

// Credentials is the persisted SSID/password pair.
type Credentials struct {
	SSID     string `yaml:"ssid"`
	Password string `yaml:"password"`
}

// Manager is the WiFi surface the player depends on.
type Manager interface {
	State() State
	Connected() bool
	Connect(ctx context.Context, ssid, password string) error
}

// NMCLIManager shells out to nmcli.
type NMCLIManager struct {
	mu    sync.Mutex
	state State

	// run executes an nmcli invocation; replaced in tests.
	run func(ctx context.Context, args ...string) (string, error)
}

// Available reports whether nmcli exists on this host.
func Available() bool {
	_, err := exec.LookPath("nmcli")
	return err == nil
}

func NewNMCLIManager() *NMCLIManager {
	return &NMCLIManager{
		run: func(ctx context.Context, args ...string) (string, error) {
			out, err := exec.CommandContext(ctx, "nmcli", args...).CombinedOutput()
			return string(out), err
		},
	}
}

func (m *NMCLIManager) State() State {
	m.mu.Lock()
	if m.state == StateConnecting {
		defer m.mu.Unlock()
		return StateConnecting
	}
	m.mu.Unlock()

	if m.Connected() {
		return StateConnected
	}
	return StateDisconnected
}

// Connected queries the live device list rather than trusting the last
// Connect outcome; the link can drop underneath us.
func (m *NMCLIManager) Connected() bool {
	out, err := m.run(context.Background(), "-t", "-f", "DEVICE,TYPE,STATE", "device")
	if err != nil {
		log.Debug().Err(err).Msg("nmcli device query failed")
		return false
	}
	return hasConnectedWifi(out)
}

// Connect associates with the given network and blocks until nmcli reports
// the outcome or ctx expires.
func (m *NMCLIManager) Connect(ctx context.Context, ssid, password string) error {
	if ssid == "" {
		return fmt.Errorf("wifi: empty SSID")
	}

	m.mu.Lock()
	m.state = StateConnecting
	m.mu.Unlock()

	log.Info().Str("ssid", ssid).Msg("Connecting to WiFi network")

	args := []string{"device", "wifi", "connect", ssid}
	if password != "" {
		args = append(args, "password", password)
	}
	out, err := m.run(ctx, args...)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.state = StateDisconnected
		return fmt.Errorf("failed to connect to %q: %w (%s)", ssid, err, strings.TrimSpace(out))
	}
	m.state = StateConnected
	log.Info().Str("ssid", ssid).Msg("WiFi connected")
	return nil
}

// hasConnectedWifi parses terse nmcli device output (DEVICE:TYPE:STATE per
// line) and reports whether any wifi device is connected.
func hasConnectedWifi(out string) bool {
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Split(strings.TrimSpace(line), ":")
		if len(fields) < 3 {
			continue
		}
		if fields[1] == "wifi" && fields[2] == "connected" {
			return true
		}
	}
	return false
}

// Static is a Manager for hosts whose connectivity is managed outside the
// player; it reports a fixed state and accepts no connect calls.
type Static struct {
	Up bool
}

func (s Static) State() State {
	if s.Up {
		return StateConnected
	}
	return StateDisconnected
}

func (s Static) Connected() bool { return s.Up }

func (s Static) Connect(ctx context.Context, ssid, password string) error {
	return fmt.Errorf("wifi: network is managed externally")
}
