// Package builder turns a structured build request into generated project
// files on disk by way of an external generation service.
package builder

import (
	"fmt"
	"time"
)

// Well-known paths inside a materialized project.
const (
	PrimarySource   = "src/main.cpp"
	BuildConfigFile = "platformio.ini"
)

// LibraryRef names a library the generated code should use.
type LibraryRef struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// MaterialRef names a hardware component wired to the board.
type MaterialRef struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// WiFiHint carries credentials the generated firmware should expect.
// The SSID is only ever referenced in the prompt as "provided at runtime";
// the password never leaves the process.
type WiFiHint struct {
	SSID     string `json:"ssid"`
	Password string `json:"password,omitempty"`
}

// BuildContext is the immutable input to one build attempt.
type BuildContext struct {
	ProjectName  string        `json:"project_name"`
	BoardType    string        `json:"board_type"`
	Description  string        `json:"description"`
	Features     []string      `json:"features,omitempty"`
	Libraries    []LibraryRef  `json:"libraries,omitempty"`
	WiFi         *WiFiHint     `json:"wifi_config,omitempty"`
	CustomCode   string        `json:"custom_code,omitempty"`
	BoardContext string        `json:"board_context,omitempty"`
	Materials    []MaterialRef `json:"materials,omitempty"`
}

// Manifest is the structured payload recovered from a generation reply:
// files to write, the build-config text, and free-form build metadata.
type Manifest struct {
	Files         map[string]string `json:"files"`
	PlatformioINI string            `json:"platformio_ini"`
	Config        map[string]any    `json:"config"`
}

// EmptyManifest returns the "nothing generated" manifest with all fields
// non-nil, the shape extraction degrades to.
func EmptyManifest() Manifest {
	return Manifest{
		Files:  map[string]string{},
		Config: map[string]any{},
	}
}

// Empty reports whether the manifest carries no generated content.
func (m Manifest) Empty() bool {
	return len(m.Files) == 0 && m.PlatformioINI == "" && len(m.Config) == 0
}

// BuildResult is the outcome of one build attempt. It is created empty with
// Success=false and mutated in place exactly once; never reused.
type BuildResult struct {
	Success       bool              `json:"success"`
	ProjectPath   string            `json:"project_path,omitempty"`
	CodeFiles     map[string]string `json:"code_files"`
	PlatformioINI string            `json:"platformio_ini"`
	Config        map[string]any    `json:"config"`
	Error         string            `json:"error,omitempty"`
	BuildLog      []string          `json:"build_log"`
	Timestamp     time.Time         `json:"timestamp"`
}

func newBuildResult() *BuildResult {
	return &BuildResult{
		CodeFiles: map[string]string{},
		Config:    map[string]any{},
		BuildLog:  []string{},
		Timestamp: time.Now(),
	}
}

func (r *BuildResult) logf(format string, args ...any) {
	r.BuildLog = append(r.BuildLog, fmt.Sprintf(format, args...))
}

func (r *BuildResult) fail(err error) *BuildResult {
	r.Success = false
	r.Error = err.Error()
	r.logf("Error: %v", err)
	return r
}

// DetectionModel describes an object-detection model configuration produced
// by the vision flow. It is merged into BuildResult.Config and not
// independently persisted.
type DetectionModel struct {
	ModelName           string            `json:"model_name"`
	Architecture        string            `json:"architecture"`
	InputSize           []int             `json:"input_size"`
	Classes             []string          `json:"classes"`
	ConfidenceThreshold float64           `json:"confidence_threshold"`
	Files               map[string]string `json:"files"`
	TrainingNotes       string            `json:"training_notes,omitempty"`
	Hardware            []string          `json:"hardware_requirements,omitempty"`
}

func (d DetectionModel) empty() bool {
	return d.ModelName == "" && len(d.Files) == 0
}

// ConverseReply is the outcome of one conversational turn. When the service
// settles on a full project specification, ProjectSpec is set and NeedsInput
// is false; otherwise Message carries the next question for the user.
type ConverseReply struct {
	Message     string         `json:"message"`
	ProjectSpec map[string]any `json:"project_spec,omitempty"`
	NeedsInput  bool           `json:"needs_input"`
}
