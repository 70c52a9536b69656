package app

import (
	"strings"
	"testing"

	"bizadvisor/internal/index"
	"bizadvisor/internal/ingest"
	"bizadvisor/internal/search"
)

func TestGroundedSystemPrompt_IncludesRetrievedChunks(t *testing.T) {
	retrieved := []index.Scored{
		{Chunk: ingest.Chunk{Text: "Pendapatan naik dua belas persen."}},
		{Chunk: ingest.Chunk{Text: "Margin kotor menurun."}},
	}

	prompt := groundedSystemPrompt(retrieved)
	if !strings.Contains(prompt, personaPreamble) {
		t.Fatalf("persona missing from prompt")
	}
	for _, item := range retrieved {
		if !strings.Contains(prompt, item.Chunk.Text) {
			t.Fatalf("chunk %q missing from prompt", item.Chunk.Text)
		}
	}
	if !strings.Contains(prompt, "\n---\n") {
		t.Fatalf("chunks should be separated by dividers")
	}
}

func TestWebSummaryPrompt_ListsResults(t *testing.T) {
	results := []search.Result{
		{Title: "Tren UMKM 2026", Link: "https://contoh.id/tren", Snippet: "Ringkasan tren."},
	}

	prompt := webSummaryPrompt("tren UMKM", results)
	if !strings.Contains(prompt, `"tren UMKM"`) {
		t.Fatalf("query missing from prompt: %q", prompt)
	}
	if !strings.Contains(prompt, "Judul: Tren UMKM 2026") || !strings.Contains(prompt, "Link: https://contoh.id/tren") {
		t.Fatalf("result fields missing from prompt: %q", prompt)
	}
}

func TestWebSourcesFooter(t *testing.T) {
	footer := webSourcesFooter([]search.Result{
		{Title: "Sumber A", Link: "https://a.example"},
		{Title: "Sumber B", Link: "https://b.example"},
	})
	if !strings.Contains(footer, "**Sumber Informasi:**") {
		t.Fatalf("footer header missing: %q", footer)
	}
	if !strings.Contains(footer, "- [Sumber A](https://a.example)") ||
		!strings.Contains(footer, "- [Sumber B](https://b.example)") {
		t.Fatalf("footer links missing: %q", footer)
	}
}
