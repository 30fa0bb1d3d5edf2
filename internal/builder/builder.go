package builder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"espforge/internal/jsonutil"
	"espforge/internal/llm"
)

// Sampling temperatures per operation kind.
const (
	generateTemperature = 0.5
	searchTemperature   = 0.3
	converseTemperature = 0.5
)

const searchCacheSize = 256

// Config key the vision flow merges its model manifest under.
const detectionModelKey = "detection_model"

// Builder composes prompt rendering, the generation client, reply extraction
// and materialization into complete build attempts. One Builder serves many
// callers; it keeps no per-build state.
type Builder struct {
	client       llm.Client
	projectsRoot string

	libCache *lru.Cache[string, []LibraryInfo]
	matCache *lru.Cache[string, []Material]
}

func New(client llm.Client, projectsRoot string) (*Builder, error) {
	if client == nil {
		return nil, errors.New("builder: nil generation client")
	}
	if strings.TrimSpace(projectsRoot) == "" {
		return nil, errors.New("builder: empty projects root")
	}
	libCache, err := lru.New[string, []LibraryInfo](searchCacheSize)
	if err != nil {
		return nil, err
	}
	matCache, err := lru.New[string, []Material](searchCacheSize)
	if err != nil {
		return nil, err
	}
	return &Builder{
		client:       client,
		projectsRoot: projectsRoot,
		libCache:     libCache,
		matCache:     matCache,
	}, nil
}

// ProjectsRoot returns the directory generated projects are written under.
func (b *Builder) ProjectsRoot() string { return b.projectsRoot }

// ProjectPath returns where a project of the given name materializes.
func (b *Builder) ProjectPath(projectName string) string {
	return filepath.Join(b.projectsRoot, Slug(projectName))
}

// Generate runs one build attempt: render the prompt, call the generation
// service, extract the manifest, write it to disk. Every failure is folded
// into the result; the method itself never returns an error and never
// retries. A failed attempt is terminal and must be re-initiated by the
// caller with a fresh context.
func (b *Builder) Generate(ctx context.Context, bc BuildContext) *BuildResult {
	result := newBuildResult()

	reply, err := b.client.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: generationPrompt(bc)},
	}, generateTemperature)
	if err != nil {
		return result.fail(fmt.Errorf("generation service: %w", err))
	}

	manifest := ExtractManifest(reply)
	result.CodeFiles = manifest.Files
	result.PlatformioINI = manifest.PlatformioINI
	result.Config = manifest.Config

	projectPath, err := Materialize(b.projectsRoot, bc.ProjectName, manifest)
	if err != nil {
		return result.fail(err)
	}

	result.ProjectPath = projectPath
	result.Success = true
	result.logf("Project created at: %s", projectPath)
	log.Printf("builder: generated %q (%d files) at %s", bc.ProjectName, len(manifest.Files), projectPath)
	return result
}

// converseReplyPayload is the structured shape Converse looks for in a reply.
type converseReplyPayload struct {
	ProjectSpec map[string]any `json:"project_spec"`
	Message     string         `json:"message"`
}

// Converse advances an interactive specification dialogue. The incoming
// message is appended to the caller-supplied history and the whole history is
// sent with a fixed system instruction. The updated history, including the
// assistant's reply, is returned alongside the parsed outcome. Service
// failures surface as a conversational error message, never as an error.
func (b *Builder) Converse(ctx context.Context, message string, history []llm.Message) (ConverseReply, []llm.Message) {
	history = append(history, llm.Message{Role: llm.RoleUser, Content: message})

	msgs := make([]llm.Message, 0, len(history)+1)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: converseSystemPrompt})
	msgs = append(msgs, history...)

	reply, err := b.client.Chat(ctx, msgs, converseTemperature)
	if err != nil {
		log.Printf("builder: converse failed: %v", err)
		return ConverseReply{
			Message:    "Sorry, I could not reach the generation service. Please try again.",
			NeedsInput: true,
		}, history
	}
	history = append(history, llm.Message{Role: llm.RoleAssistant, Content: reply})

	candidate := reply
	if body, ok := jsonutil.FencedBlock(reply); ok {
		candidate = body
	}
	var payload converseReplyPayload
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		// Not structured at all; pass the raw text through as conversation.
		return ConverseReply{Message: reply, NeedsInput: true}, history
	}
	if payload.ProjectSpec != nil {
		msg := payload.Message
		if msg == "" {
			msg = "Project specification is ready."
		}
		return ConverseReply{Message: msg, ProjectSpec: payload.ProjectSpec, NeedsInput: false}, history
	}
	if payload.Message != "" {
		return ConverseReply{Message: payload.Message, NeedsInput: true}, history
	}
	return ConverseReply{Message: reply, NeedsInput: true}, history
}

// GenerateVisionProject builds a camera project around a detection model for
// the first object in objects; later entries are recorded in the project
// description but not independently modeled. Fails fast, with no service
// calls, when objects is empty.
func (b *Builder) GenerateVisionProject(ctx context.Context, projectName string, objects []string, boardType string) *BuildResult {
	result := newBuildResult()
	if len(objects) == 0 {
		return result.fail(errors.New("no objects specified"))
	}

	dm, err := b.requestDetectionModel(ctx, objects[0], boardType)
	if err != nil {
		return result.fail(fmt.Errorf("detection model request: %w", err))
	}
	if dm.empty() {
		return result.fail(errors.New("detection model request returned an empty manifest"))
	}
	result.logf("Detection model %q ready for %q", dm.ModelName, objects[0])

	bc := BuildContext{
		ProjectName: projectName,
		BoardType:   boardType,
		Description: fmt.Sprintf("Camera project that detects %s using the %s model.", strings.Join(objects, ", "), dm.ModelName),
		Features:    []string{"camera", "object detection"},
	}

	generated := b.Generate(ctx, bc)
	generated.BuildLog = append(result.BuildLog, generated.BuildLog...)
	generated.Config[detectionModelKey] = dm
	return generated
}

func (b *Builder) requestDetectionModel(ctx context.Context, object, boardType string) (DetectionModel, error) {
	reply, err := b.client.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: detectionSystemPrompt},
		{Role: llm.RoleUser, Content: detectionModelPrompt(object, boardType)},
	}, generateTemperature)
	if err != nil {
		return DetectionModel{}, err
	}
	return extractDetectionModel(reply), nil
}
