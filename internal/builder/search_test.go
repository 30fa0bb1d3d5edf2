package builder

import (
	"context"
	"errors"
	"testing"

	"espforge/internal/llm"
)

func TestSearchLibrariesParsesAndCaches(t *testing.T) {
	fake := llm.NewFakeClient("```json\n[{\"name\":\"FastLED\",\"platformio_name\":\"fastled/FastLED\"}]\n```")
	b := newTestBuilder(t, fake)

	libs := b.SearchLibraries(context.Background(), "led", "esp32")
	if len(libs) != 1 || libs[0].Name != "FastLED" {
		t.Fatalf("unexpected results: %v", libs)
	}

	// Second identical query is served from the cache.
	again := b.SearchLibraries(context.Background(), "LED ", "esp32")
	if len(again) != 1 {
		t.Fatalf("cache miss returned %v", again)
	}
	if fake.CallCount() != 1 {
		t.Fatalf("expected 1 collaborator call, got %d", fake.CallCount())
	}
}

func TestSearchLibrariesDegradesToEmpty(t *testing.T) {
	fake := llm.NewFakeClient()
	fake.Fail(errors.New("down"))
	b := newTestBuilder(t, fake)

	libs := b.SearchLibraries(context.Background(), "led", "esp32")
	if libs == nil || len(libs) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", libs)
	}
}

func TestSearchMaterials(t *testing.T) {
	b := newTestBuilder(t, llm.NewFakeClient(`[{"name":"DHT22","category":"sensor","protocol":"GPIO"}]`))
	mats := b.SearchMaterials(context.Background(), "temperature", "esp32")
	if len(mats) != 1 || mats[0].Category != "sensor" {
		t.Fatalf("unexpected results: %v", mats)
	}
}

func TestSearchMaterialsUnparseableReply(t *testing.T) {
	b := newTestBuilder(t, llm.NewFakeClient("sorry, no idea"))
	mats := b.SearchMaterials(context.Background(), "temperature", "esp32")
	if mats == nil || len(mats) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", mats)
	}
}
