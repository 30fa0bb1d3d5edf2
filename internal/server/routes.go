package server

import (
	"encoding/json"
	"net/http"
)

// NewMux wires all REST and WebSocket routes.
func NewMux(h *Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", h.handleHealth)

	mux.HandleFunc("POST /api/build", h.handleBuild)
	mux.HandleFunc("POST /api/build/vision", h.handleVisionBuild)
	mux.HandleFunc("POST /api/converse", h.handleConverse)

	mux.HandleFunc("POST /api/search/libraries", h.handleSearchLibraries)
	mux.HandleFunc("POST /api/search/materials", h.handleSearchMaterials)

	mux.HandleFunc("POST /api/simulate", h.handleSimulate)
	mux.HandleFunc("/api/simulate/{name}", h.handleSimulation)

	mux.HandleFunc("GET /api/projects", h.handleProjects)
	mux.HandleFunc("GET /api/projects/{name}/files", h.handleProjectFiles)
	mux.HandleFunc("GET /api/projects/{name}/file/{path...}", h.handleProjectFile)

	mux.HandleFunc("GET /api/history", h.handleHistory)

	mux.HandleFunc("GET /api/hardware/status", h.handleHardwareStatus)
	mux.HandleFunc("POST /api/hardware/upload", h.handleHardwareUpload)

	mux.HandleFunc("/ws/build", h.handleBuildWS)

	return cors(mux)
}

func jsonDecode(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
