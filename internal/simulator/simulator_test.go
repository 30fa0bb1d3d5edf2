package simulator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeProject(t *testing.T, name, mainCPP string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(filepath.Join(dir, "src"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if mainCPP != "" {
		if err := os.WriteFile(filepath.Join(dir, "src", "main.cpp"), []byte(mainCPP), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return dir
}

func TestSimulateMissingSource(t *testing.T) {
	r := NewRegistry(nil)
	s := r.Simulate(writeProject(t, "widget", ""), "esp32")

	if s.Status != StatusError {
		t.Fatalf("expected error status, got %q", s.Status)
	}
	if s.IPAddress != "" || s.APSSID != "" {
		t.Fatalf("no addresses expected, got %+v", s)
	}
	found := false
	for _, line := range s.Logs {
		if strings.Contains(line, "main.cpp") {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing-file log expected, got %v", s.Logs)
	}
}

func TestSimulatePlainProject(t *testing.T) {
	r := NewRegistry(SourceScan{})
	s := r.Simulate(writeProject(t, "blinky", "void setup() { pinMode(2, OUTPUT); }"), "esp32")

	if s.Status != StatusRunning {
		t.Fatalf("a project with no network code still runs, got %q", s.Status)
	}
	if s.HasNetwork || s.WebServer || s.IPAddress != "" || s.APSSID != "" {
		t.Fatalf("no features expected, got %+v", s)
	}
}

func TestSimulateStationNetwork(t *testing.T) {
	r := NewRegistry(nil)
	s := r.Simulate(writeProject(t, "station", "WiFi.begin(ssid, pass);"), "esp32")

	if !s.HasNetwork || s.IPAddress != "192.168.1.100" {
		t.Fatalf("expected station address, got %+v", s)
	}
	if s.APSSID != "" {
		t.Fatalf("no AP expected, got %+v", s)
	}
}

func TestSimulateAccessPoint(t *testing.T) {
	r := NewRegistry(nil)
	s := r.Simulate(writeProject(t, "portal", "WiFi.softAP(\"portal\");\nserver.begin();"), "esp32")

	if s.Status != StatusRunning {
		t.Fatalf("expected running, got %q", s.Status)
	}
	if s.APSSID != "portal_AP" {
		t.Fatalf("AP name must derive from project name, got %q", s.APSSID)
	}
	if s.IPAddress != "192.168.4.1" {
		t.Fatalf("AP address must override the station default, got %q", s.IPAddress)
	}
	if !s.WebServer {
		t.Fatal("server.begin should set the web-server flag")
	}
}

func TestSimulateReplacesSession(t *testing.T) {
	r := NewRegistry(nil)
	dir := writeProject(t, "evolving", "void setup(){}")
	first := r.Simulate(dir, "esp32")
	if first.HasNetwork {
		t.Fatal("first run has no network")
	}

	if err := os.WriteFile(filepath.Join(dir, "src", "main.cpp"), []byte("WiFi.begin();"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	second := r.Simulate(dir, "esp32")
	if !second.HasNetwork {
		t.Fatal("resimulation must recompute from scratch")
	}

	got, ok := r.Get("evolving")
	if !ok || !got.HasNetwork {
		t.Fatalf("registry must hold the replacement, got %+v ok=%v", got, ok)
	}
}

func TestStop(t *testing.T) {
	r := NewRegistry(nil)
	r.Simulate(writeProject(t, "gone", "void setup(){}"), "esp32")

	if !r.Stop("gone") {
		t.Fatal("stop should report success")
	}
	if _, ok := r.Get("gone"); ok {
		t.Fatal("session should be removed")
	}
	if r.Stop("gone") {
		t.Fatal("second stop should report failure")
	}
}
