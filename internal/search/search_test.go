package search

import (
	"context"
	"testing"
)

func TestIsSearchQuery(t *testing.T) {
	cases := []struct {
		query string
		want  bool
	}{
		{"tolong cari di internet tren UMKM 2026", true},
		{"Cari Di Internet harga kopi", true},
		{"please search online for competitors", true},
		{"cari online regulasi ekspor", true},
		{"bagaimana strategi pemasaran saya?", false},
		{"carikan ringkasan dokumen", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsSearchQuery(tc.query); got != tc.want {
			t.Fatalf("IsSearchQuery(%q) = %v, want %v", tc.query, got, tc.want)
		}
	}
}

func TestSimulatedProvider_ShapesResults(t *testing.T) {
	var p SimulatedProvider

	results, err := p.Search(context.Background(), "tren pasar", 3)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Title == "" || r.Link == "" || r.Snippet == "" {
			t.Fatalf("result %d incomplete: %+v", i, r)
		}
	}
}

func TestSimulatedProvider_DefaultsCount(t *testing.T) {
	var p SimulatedProvider

	results, err := p.Search(context.Background(), "apa saja", 0)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("expected default of 5 results, got %d", len(results))
	}
}
