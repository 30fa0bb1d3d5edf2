// Package simulator derives a virtual run of a generated project from static
// inspection of its primary source file. No firmware is executed: the
// heuristics are substring checks, kept deliberately lightweight and hidden
// behind the Engine interface so a real interpreter could replace them
// without touching callers.
package simulator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"espforge/internal/builder"
)

// Session statuses.
const (
	StatusStarting = "starting"
	StatusRunning  = "running"
	StatusError    = "error"
)

// Simulated network defaults.
const (
	stationAddress = "192.168.1.100"
	apAddress      = "192.168.4.1"
)

// Session is one simulated run, keyed by project name. Sessions live only in
// the registry and never expire on their own.
type Session struct {
	ProjectName string    `json:"project_name"`
	BoardType   string    `json:"board_type"`
	Status      string    `json:"status"`
	HasNetwork  bool      `json:"has_network"`
	IPAddress   string    `json:"ip_address,omitempty"`
	APSSID      string    `json:"ap_ssid,omitempty"`
	WebServer   bool      `json:"web_server"`
	Logs        []string  `json:"logs"`
	StartedAt   time.Time `json:"started_at"`
}

// Engine infers a session from a materialized project directory.
type Engine interface {
	Inspect(projectPath, boardType string) Session
}

// SourceScan is the substring-matching Engine used in production.
type SourceScan struct{}

// Inspect reads the project's primary source file and applies independent
// case-sensitive token checks. A missing source file is a deterministic
// negative result (status "error"), not a failure of Inspect itself.
func (SourceScan) Inspect(projectPath, boardType string) Session {
	name := filepath.Base(projectPath)
	s := Session{
		ProjectName: name,
		BoardType:   boardType,
		Status:      StatusStarting,
		Logs:        []string{},
		StartedAt:   time.Now(),
	}

	src, err := os.ReadFile(filepath.Join(projectPath, filepath.FromSlash(builder.PrimarySource)))
	if err != nil {
		s.Status = StatusError
		s.Logs = append(s.Logs, fmt.Sprintf("Error: %s not found", builder.PrimarySource))
		return s
	}
	code := string(src)

	if strings.Contains(code, "WiFi") || strings.Contains(code, "WIFI") {
		s.HasNetwork = true
		s.IPAddress = stationAddress
	}
	if strings.Contains(code, "WiFi.softAP") || strings.Contains(code, "softAP") {
		s.APSSID = name + "_AP"
		s.IPAddress = apAddress
	}
	if strings.Contains(code, "WebServer") || strings.Contains(code, "server.begin") ||
		strings.Contains(code, "HTTPServer") {
		s.WebServer = true
	}

	s.Status = StatusRunning
	s.Logs = append(s.Logs, "Simulation started successfully")
	s.Logs = append(s.Logs, "Board: "+boardType)
	if s.IPAddress != "" {
		s.Logs = append(s.Logs, "IP Address: "+s.IPAddress)
	}
	if s.APSSID != "" {
		s.Logs = append(s.Logs, "AP SSID: "+s.APSSID)
	}
	if s.WebServer {
		s.Logs = append(s.Logs, "Web server running on http://"+s.IPAddress)
	}
	return s
}

// Registry holds at most one session per project name. It is explicitly
// constructed and injected rather than process-global, and every access goes
// through its lock so concurrent callers cannot corrupt each other's view.
type Registry struct {
	mu       sync.Mutex
	engine   Engine
	sessions map[string]Session
}

func NewRegistry(engine Engine) *Registry {
	if engine == nil {
		engine = SourceScan{}
	}
	return &Registry{
		engine:   engine,
		sessions: make(map[string]Session),
	}
}

// Simulate recomputes the session for the project at projectPath, replacing
// any previous session of the same name. Not incremental.
func (r *Registry) Simulate(projectPath, boardType string) Session {
	s := r.engine.Inspect(projectPath, boardType)
	r.mu.Lock()
	r.sessions[s.ProjectName] = s
	r.mu.Unlock()
	return s
}

// Get returns a copy of the named session. The registry keeps ownership;
// callers never hold a live reference.
func (r *Registry) Get(projectName string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[projectName]
	return s, ok
}

// Stop removes the named session. Sessions are only ever destroyed this way.
func (r *Registry) Stop(projectName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[projectName]; !ok {
		return false
	}
	delete(r.sessions, projectName)
	return true
}
