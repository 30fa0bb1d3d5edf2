package builder

import (
	"encoding/json"

	"espforge/internal/jsonutil"
)

// ExtractManifest recovers a manifest from untrusted generation-service
// output. The reply is supposed to be a single JSON object but routinely
// arrives wrapped in a markdown fence, padded with prose, or truncated.
//
// Attempts, in order:
//  1. body of the first ```json fence, else the first generic fence
//  2. parse the selected candidate
//  3. parse the window from the first '{' to the last '}' of the original text
//  4. give up and return the empty manifest
//
// It never returns an error: a reply that yields nothing parseable degrades
// to "nothing generated" rather than failing the build outright.
func ExtractManifest(text string) Manifest {
	candidate := text
	if body, ok := jsonutil.FencedBlock(text); ok {
		candidate = body
	}

	var payload Manifest
	if err := jsonutil.Unmarshal([]byte(candidate), &payload); err != nil {
		payload = Manifest{}
		win, ok := jsonutil.BraceWindow(text)
		if !ok {
			return EmptyManifest()
		}
		if err := json.Unmarshal([]byte(win), &payload); err != nil {
			return EmptyManifest()
		}
	}

	if payload.Files == nil {
		payload.Files = map[string]string{}
	}
	if payload.Config == nil {
		payload.Config = map[string]any{}
	}
	return payload
}

// extractDetectionModel parses a detection-model manifest out of a reply,
// with the same fence and brace-window tolerance as ExtractManifest.
func extractDetectionModel(text string) DetectionModel {
	candidate := text
	if body, ok := jsonutil.FencedBlock(text); ok {
		candidate = body
	}
	var dm DetectionModel
	if err := jsonutil.Unmarshal([]byte(candidate), &dm); err != nil {
		dm = DetectionModel{}
		if win, ok := jsonutil.BraceWindow(text); ok {
			_ = json.Unmarshal([]byte(win), &dm)
		}
	}
	if dm.Files == nil {
		dm.Files = map[string]string{}
	}
	return dm
}
