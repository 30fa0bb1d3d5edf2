package builder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"espforge/internal/llm"
)

func newTestBuilder(t *testing.T, client llm.Client) *Builder {
	t.Helper()
	b, err := New(client, t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b
}

func TestGenerateEndToEnd(t *testing.T) {
	fake := llm.NewFakeClient("```json\n{\"files\":{\"src/main.cpp\":\"void setup(){}\\nvoid loop(){}\"},\"platformio_ini\":\"[env:esp32dev]\",\"config\":{\"board\":\"esp32dev\"}}\n```")
	b := newTestBuilder(t, fake)

	result := b.Generate(context.Background(), BuildContext{
		ProjectName: "Lamp",
		BoardType:   "esp32",
		Description: "blink an LED",
		Features:    []string{"gpio"},
	})

	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if result.ProjectPath == "" {
		t.Fatal("expected a project path")
	}
	data, err := os.ReadFile(filepath.Join(result.ProjectPath, "src", "main.cpp"))
	if err != nil {
		t.Fatalf("generated file missing: %v", err)
	}
	if !strings.Contains(string(data), "void setup()") {
		t.Fatalf("unexpected file content: %q", data)
	}
	found := false
	for _, line := range result.BuildLog {
		if strings.Contains(line, result.ProjectPath) {
			found = true
		}
	}
	if !found {
		t.Fatalf("build log should record the output path, got %v", result.BuildLog)
	}
}

func TestGenerateCollaboratorFailure(t *testing.T) {
	fake := llm.NewFakeClient()
	fake.Fail(errors.New("boom"))
	b := newTestBuilder(t, fake)

	result := b.Generate(context.Background(), BuildContext{ProjectName: "Lamp", BoardType: "esp32", Description: "d"})
	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Error, "boom") {
		t.Fatalf("error should carry the cause, got %q", result.Error)
	}
	if len(result.BuildLog) == 0 {
		t.Fatal("failure should be logged")
	}
}

func TestGenerateUnparseableReplyStillSucceeds(t *testing.T) {
	// Extraction degrades to an empty manifest; the build materializes an
	// empty project rather than erroring.
	b := newTestBuilder(t, llm.NewFakeClient("total nonsense"))
	result := b.Generate(context.Background(), BuildContext{ProjectName: "Lamp", BoardType: "esp32", Description: "d"})
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	if len(result.CodeFiles) != 0 {
		t.Fatalf("expected no files, got %v", result.CodeFiles)
	}
}

func TestConverseProjectSpec(t *testing.T) {
	fake := llm.NewFakeClient(`{"project_spec":{"project_name":"Lamp","board_type":"esp32"},"message":"All set"}`)
	b := newTestBuilder(t, fake)

	reply, hist := b.Converse(context.Background(), "make me a lamp", nil)
	if reply.NeedsInput {
		t.Fatal("spec reply should not need input")
	}
	if reply.ProjectSpec["project_name"] != "Lamp" {
		t.Fatalf("unexpected spec: %v", reply.ProjectSpec)
	}
	// user turn + assistant turn
	if len(hist) != 2 || hist[0].Role != llm.RoleUser || hist[1].Role != llm.RoleAssistant {
		t.Fatalf("unexpected history: %v", hist)
	}
}

func TestConverseQuestion(t *testing.T) {
	b := newTestBuilder(t, llm.NewFakeClient(`{"message":"Which board?"}`))
	reply, _ := b.Converse(context.Background(), "make me a thing", nil)
	if !reply.NeedsInput || reply.Message != "Which board?" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}

func TestConversePlainText(t *testing.T) {
	b := newTestBuilder(t, llm.NewFakeClient("I need more detail."))
	reply, _ := b.Converse(context.Background(), "hm", nil)
	if !reply.NeedsInput || reply.Message != "I need more detail." {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}

func TestConverseCollaboratorFailure(t *testing.T) {
	fake := llm.NewFakeClient()
	fake.Fail(errors.New("down"))
	b := newTestBuilder(t, fake)

	reply, hist := b.Converse(context.Background(), "hello", nil)
	if !reply.NeedsInput || reply.Message == "" {
		t.Fatalf("failure must become a conversational message, got %+v", reply)
	}
	if len(hist) != 1 {
		t.Fatalf("history should keep the user turn only, got %v", hist)
	}
}

func TestGenerateVisionProjectNoObjects(t *testing.T) {
	fake := llm.NewFakeClient()
	b := newTestBuilder(t, fake)

	result := b.GenerateVisionProject(context.Background(), "cam", nil, "esp32")
	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Error, "no objects specified") {
		t.Fatalf("unexpected error: %q", result.Error)
	}
	if fake.CallCount() != 0 {
		t.Fatalf("no collaborator calls expected, got %d", fake.CallCount())
	}
}

func TestGenerateVisionProjectEmptyModel(t *testing.T) {
	b := newTestBuilder(t, llm.NewFakeClient("not a model at all"))
	result := b.GenerateVisionProject(context.Background(), "cam", []string{"cat"}, "esp32")
	if result.Success {
		t.Fatal("expected failure for an empty model manifest")
	}
	if !strings.Contains(result.Error, "empty") {
		t.Fatalf("unexpected error: %q", result.Error)
	}
}

func TestGenerateVisionProjectMergesModel(t *testing.T) {
	fake := llm.NewFakeClient(
		`{"model_name":"cat-detect","architecture":"mobilenet","input_size":[96,96],"classes":["cat"],"confidence_threshold":0.6,"files":{"include/model_data.h":"// data"}}`,
		`{"files":{"src/main.cpp":"void setup(){}"},"platformio_ini":"","config":{}}`,
	)
	b := newTestBuilder(t, fake)

	result := b.GenerateVisionProject(context.Background(), "cat cam", []string{"cat", "dog"}, "esp32")
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	dm, ok := result.Config["detection_model"].(DetectionModel)
	if !ok {
		t.Fatalf("detection model not merged: %v", result.Config)
	}
	if dm.ModelName != "cat-detect" {
		t.Fatalf("unexpected model: %+v", dm)
	}
	if fake.CallCount() != 2 {
		t.Fatalf("expected 2 collaborator calls, got %d", fake.CallCount())
	}
	// Only the primary object is modeled; the rest land in the description.
	prompt := fake.Calls[1].Messages[1].Content
	if !strings.Contains(prompt, "cat, dog") {
		t.Fatalf("description should record all objects, prompt: %s", prompt)
	}
}
