package wifi

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestStateString(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{StateDisconnected, "DISCONNECTED"},
		{StateConnecting, "CONNECTING"},
		{StateConnected, "CONNECTED"},
		{State(9), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.state.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestHasConnectedWifi(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want bool
	}{
		{
			"wifi connected",
			"wlan0:wifi:connected\nlo:loopback:unmanaged\n",
			true,
		},
		{
			"wifi disconnected",
			"wlan0:wifi:disconnected\neth0:ethernet:connected\n",
			false,
		},
		{
			"ethernet only",
			"eth0:ethernet:connected\nlo:loopback:unmanaged\n",
			false,
		},
		{"empty output", "", false},
		{"malformed lines", "garbage\nwlan0:wifi\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasConnectedWifi(tt.out); got != tt.want {
				t.Errorf("hasConnectedWifi(%q) = %v, want %v", tt.out, got, tt.want)
			}
		})
	}
}

func TestNMCLIConnect(t *testing.T) {
	var gotArgs []string
	m := &NMCLIManager{
		run: func(ctx context.Context, args ...string) (string, error) {
			gotArgs = args
			return "Device 'wlan0' successfully activated.", nil
		},
	}

	if err := m.Connect(context.Background(), "HomeNet", "hunter2"); err != nil {
		t.Fatalf("Connect = %v", err)
	}

	want := "device wifi connect HomeNet password hunter2"
	if got := strings.Join(gotArgs, " "); got != want {
		t.Errorf("nmcli args = %q, want %q", got, want)
	}

	m.mu.Lock()
	state := m.state
	m.mu.Unlock()
	if state != StateConnected {
		t.Errorf("state after connect = %v, want CONNECTED", state)
	}
}

func TestNMCLIConnectOpenNetworkOmitsPassword(t *testing.T) {
	var gotArgs []string
	m := &NMCLIManager{
		run: func(ctx context.Context, args ...string) (string, error) {
			gotArgs = args
			return "", nil
		},
	}

	if err := m.Connect(context.Background(), "CafeOpen", ""); err != nil {
		t.Fatalf("Connect = %v", err)
	}
	if got := strings.Join(gotArgs, " "); got != "device wifi connect CafeOpen" {
		t.Errorf("nmcli args = %q", got)
	}
}

func TestNMCLIConnectFailure(t *testing.T) {
	m := &NMCLIManager{
		run: func(ctx context.Context, args ...string) (string, error) {
			return "Error: No network with SSID 'Nope' found.", errors.New("exit status 10")
		},
	}

	err := m.Connect(context.Background(), "Nope", "pw")
	if err == nil {
		t.Fatal("Connect expected error")
	}

	m.mu.Lock()
	state := m.state
	m.mu.Unlock()
	if state != StateDisconnected {
		t.Errorf("state after failure = %v, want DISCONNECTED", state)
	}
}

func TestNMCLIConnectEmptySSID(t *testing.T) {
	m := &NMCLIManager{
		run: func(ctx context.Context, args ...string) (string, error) {
			t.Fatal("nmcli should not run for empty SSID")
			return "", nil
		},
	}
	if err := m.Connect(context.Background(), "", "pw"); err == nil {
		t.Error("Connect with empty SSID expected error")
	}
}

func TestStatic(t *testing.T) {
	up := Static{Up: true}
	if !up.Connected() || up.State() != StateConnected {
		t.Error("Static{Up: true} should report connected")
	}

	down := Static{}
	if down.Connected() || down.State() != StateDisconnected {
		t.Error("Static{} should report disconnected")
	}

	if err := up.Connect(context.Background(), "x", "y"); err == nil {
		t.Error("Static Connect expected error")
	}
}
