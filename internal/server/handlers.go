package server

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"espforge/internal/builder"
	"espforge/internal/hardware"
	"espforge/internal/history"
	"espforge/internal/jsonutil"
	"espforge/internal/llm"
	"espforge/internal/simulator"
)

// Handlers binds the core components to HTTP endpoints.
type Handlers struct {
	Builder *builder.Builder
	Sims    *simulator.Registry
	Bridge  *hardware.Bridge
	History *history.Store
}

func (h *Handlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "espforge"})
}

type buildRequest struct {
	builder.BuildContext
}

func (h *Handlers) handleBuild(w http.ResponseWriter, r *http.Request) {
	var req buildRequest
	if !readJSON(w, r, &req) {
		return
	}
	if err := builder.ValidateContext(req.BuildContext); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := h.Builder.Generate(r.Context(), req.BuildContext)
	h.record(req.BuildContext, result)
	writeJSON(w, http.StatusOK, result)
}

type converseRequest struct {
	Message string        `json:"message"`
	History []llm.Message `json:"history,omitempty"`
}

type converseResponse struct {
	builder.ConverseReply
	History []llm.Message `json:"history"`
}

func (h *Handlers) handleConverse(w http.ResponseWriter, r *http.Request) {
	var req converseRequest
	if !readJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message cannot be empty")
		return
	}
	reply, hist := h.Builder.Converse(r.Context(), req.Message, req.History)
	writeJSON(w, http.StatusOK, converseResponse{ConverseReply: reply, History: hist})
}

type visionRequest struct {
	ProjectName string   `json:"project_name"`
	Objects     []string `json:"objects"`
	BoardType   string   `json:"board_type"`
}

func (h *Handlers) handleVisionBuild(w http.ResponseWriter, r *http.Request) {
	var req visionRequest
	if !readJSON(w, r, &req) {
		return
	}
	if err := builder.ValidateProjectName(req.ProjectName); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.BoardType == "" {
		req.BoardType = "esp32"
	}
	if err := builder.ValidateBoardType(req.BoardType); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := h.Builder.GenerateVisionProject(r.Context(), req.ProjectName, req.Objects, req.BoardType)
	h.record(builder.BuildContext{ProjectName: req.ProjectName, BoardType: req.BoardType}, result)
	writeJSON(w, http.StatusOK, result)
}

type searchRequest struct {
	Query     string `json:"query"`
	BoardType string `json:"board_type"`
}

func (h *Handlers) handleSearchLibraries(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.BoardType == "" {
		req.BoardType = "esp32"
	}
	writeJSON(w, http.StatusOK, h.Builder.SearchLibraries(r.Context(), req.Query, req.BoardType))
}

func (h *Handlers) handleSearchMaterials(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.BoardType == "" {
		req.BoardType = "esp32"
	}
	writeJSON(w, http.StatusOK, h.Builder.SearchMaterials(r.Context(), req.Query, req.BoardType))
}

type simulateRequest struct {
	ProjectName string `json:"project_name"`
	BoardType   string `json:"board_type"`
}

func (h *Handlers) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.BoardType == "" {
		req.BoardType = "esp32"
	}
	projectPath := h.Builder.ProjectPath(req.ProjectName)
	if _, err := os.Stat(projectPath); err != nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, h.Sims.Simulate(projectPath, req.BoardType))
}

func (h *Handlers) handleSimulation(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	switch r.Method {
	case http.MethodGet:
		s, ok := h.Sims.Get(name)
		if !ok {
			writeError(w, http.StatusNotFound, "simulation not found")
			return
		}
		writeJSON(w, http.StatusOK, s)
	case http.MethodDelete:
		if !h.Sims.Stop(name) {
			writeError(w, http.StatusNotFound, "simulation not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "simulation stopped"})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type projectSummary struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	ModTime time.Time `json:"modified"`
}

func (h *Handlers) handleProjects(w http.ResponseWriter, _ *http.Request) {
	entries, err := os.ReadDir(h.Builder.ProjectsRoot())
	if err != nil {
		writeJSON(w, http.StatusOK, []projectSummary{})
		return
	}
	out := []projectSummary{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p := projectSummary{Name: e.Name(), Path: filepath.Join(h.Builder.ProjectsRoot(), e.Name())}
		if info, err := e.Info(); err == nil {
			p.ModTime = info.ModTime()
		}
		out = append(out, p)
	}
	writeJSON(w, http.StatusOK, out)
}

type projectFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

func (h *Handlers) handleProjectFiles(w http.ResponseWriter, r *http.Request) {
	projectPath := h.Builder.ProjectPath(r.PathValue("name"))
	if _, err := os.Stat(projectPath); err != nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	files := []projectFile{}
	_ = filepath.WalkDir(projectPath, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, relErr := filepath.Rel(projectPath, path)
		if relErr != nil {
			return nil
		}
		f := projectFile{Name: d.Name(), Path: filepath.ToSlash(rel)}
		if info, infoErr := d.Info(); infoErr == nil {
			f.Size = info.Size()
		}
		files = append(files, f)
		return nil
	})
	writeJSON(w, http.StatusOK, files)
}

func (h *Handlers) handleProjectFile(w http.ResponseWriter, r *http.Request) {
	projectPath := h.Builder.ProjectPath(r.PathValue("name"))
	rel := r.PathValue("path")

	full := filepath.Join(projectPath, filepath.FromSlash(rel))
	if !strings.HasPrefix(filepath.Clean(full), filepath.Clean(projectPath)+string(filepath.Separator)) {
		writeError(w, http.StatusBadRequest, "invalid file path")
		return
	}
	content, err := os.ReadFile(full)
	if err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    filepath.Base(full),
		"path":    rel,
		"content": string(content),
	})
}

func (h *Handlers) handleHistory(w http.ResponseWriter, r *http.Request) {
	if name := strings.TrimSpace(r.URL.Query().Get("project")); name != "" {
		records, err := h.History.ByProject(name)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if records == nil {
			records = []history.Record{}
		}
		writeJSON(w, http.StatusOK, records)
		return
	}
	records, err := h.History.Recent(50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handlers) handleHardwareStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Bridge.Status())
}

type uploadRequest struct {
	FirmwarePath string `json:"firmware_path"`
	Port         string `json:"port,omitempty"`
}

func (h *Handlers) handleHardwareUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if !readJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.FirmwarePath) == "" {
		writeError(w, http.StatusBadRequest, "firmware_path cannot be empty")
		return
	}
	writeJSON(w, http.StatusOK, h.Bridge.Upload(req.FirmwarePath, req.Port))
}

func (h *Handlers) record(bc builder.BuildContext, result *builder.BuildResult) {
	if h.History == nil {
		return
	}
	err := h.History.Append(history.Record{
		ProjectName: bc.ProjectName,
		BoardType:   bc.BoardType,
		Success:     result.Success,
		ProjectPath: result.ProjectPath,
		Error:       result.Error,
		CreatedAt:   result.Timestamp,
	})
	if err != nil {
		log.Printf("server: record build history: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := jsonutil.MarshalNoEscape(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := jsonDecode(r, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
