package builder

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"espforge/internal/jsonutil"
	"espforge/internal/llm"
)

// LibraryInfo is one library search hit.
type LibraryInfo struct {
	Name           string `json:"name"`
	Version        string `json:"version,omitempty"`
	Author         string `json:"author,omitempty"`
	URL            string `json:"url,omitempty"`
	Description    string `json:"description,omitempty"`
	PlatformioName string `json:"platformio_name,omitempty"`
}

// Material is one hardware component search hit.
type Material struct {
	Name           string `json:"name"`
	Category       string `json:"category,omitempty"`
	Description    string `json:"description,omitempty"`
	PinCount       int    `json:"pin_count,omitempty"`
	Voltage        string `json:"voltage,omitempty"`
	Protocol       string `json:"protocol,omitempty"`
	LibraryNeeded  string `json:"library_needed,omitempty"`
	ExampleURL     string `json:"example_url,omitempty"`
	TypicalUseCase string `json:"typical_use_case,omitempty"`
}

// SearchLibraries asks the generation service for libraries matching query.
// Results are cached per query+board. Any failure degrades to an empty
// slice; search is advisory and must not break the build flow.
func (b *Builder) SearchLibraries(ctx context.Context, query, boardType string) []LibraryInfo {
	key := searchKey(query, boardType)
	if hit, ok := b.libCache.Get(key); ok {
		return hit
	}

	var libs []LibraryInfo
	if !b.searchJSON(ctx, librarySearchPrompt(query, boardType), &libs) {
		return []LibraryInfo{}
	}
	if libs == nil {
		libs = []LibraryInfo{}
	}
	b.libCache.Add(key, libs)
	return libs
}

// SearchMaterials asks the generation service for components matching query.
// Same caching and degradation rules as SearchLibraries.
func (b *Builder) SearchMaterials(ctx context.Context, query, boardType string) []Material {
	key := searchKey(query, boardType)
	if hit, ok := b.matCache.Get(key); ok {
		return hit
	}

	var mats []Material
	if !b.searchJSON(ctx, materialSearchPrompt(query, boardType), &mats) {
		return []Material{}
	}
	if mats == nil {
		mats = []Material{}
	}
	b.matCache.Add(key, mats)
	return mats
}

func (b *Builder) searchJSON(ctx context.Context, prompt string, out any) bool {
	reply, err := b.client.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: "You are an ESP32 hardware and library expert. Always respond with valid JSON only."},
		{Role: llm.RoleUser, Content: prompt},
	}, searchTemperature)
	if err != nil {
		log.Printf("builder: search failed: %v", err)
		return false
	}
	candidate := reply
	if body, ok := jsonutil.FencedBlock(reply); ok {
		candidate = body
	}
	if err := json.Unmarshal([]byte(candidate), out); err != nil {
		log.Printf("builder: search reply not parseable: %v", err)
		return false
	}
	return true
}

func searchKey(query, boardType string) string {
	return strings.ToLower(strings.TrimSpace(query)) + "|" + strings.ToLower(strings.TrimSpace(boardType))
}
