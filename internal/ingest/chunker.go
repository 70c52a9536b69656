package ingest

import (
	"fmt"

	"bizadvisor/internal/config"
)

// Boundary classes tried in priority order when snapping a window edge:
// paragraph, then line, then sentence, then word.
var boundaryClasses = [][][]rune{
	{[]rune("\n\n")},
	{[]rune("\n")},
	{[]rune(". "), []rune("! "), []rune("? ")},
	{[]rune(" ")},
}

// Split concatenates record text in order and walks a sliding window of
// `size` runes advancing by `size-overlap`, preferring to cut at the best
// boundary within a bounded look-back from the window edge. The result is
// deterministic for identical inputs and parameters, covers every input
// character, and keeps chunks in document order.
func Split(records []Record, size, overlap int) ([]Chunk, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: size=%d overlap=%d", config.ErrInvalidChunking, size, overlap)
	}

	runes, spans := concatenate(records)
	if len(runes) == 0 {
		return nil, nil
	}

	lookback := size / 5
	var chunks []Chunk
	start := 0
	for {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = snapBoundary(runes, start, end, lookback)
		}

		chunks = append(chunks, Chunk{
			Text:       string(runes[start:end]),
			Provenance: provenanceBetween(spans, start, end),
		})

		if end >= len(runes) {
			break
		}
		next := end - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks, nil
}

type recordSpan struct {
	start, end int
	prov       Provenance
}

func concatenate(records []Record) ([]rune, []recordSpan) {
	var runes []rune
	spans := make([]recordSpan, 0, len(records))
	for _, rec := range records {
		if len(runes) > 0 {
			runes = append(runes, '\n', '\n')
		}
		start := len(runes)
		runes = append(runes, []rune(rec.Text)...)
		spans = append(spans, recordSpan{start: start, end: len(runes), prov: rec.Provenance})
	}
	return runes, spans
}

// snapBoundary pulls the window edge back to the highest-priority boundary
// found within the look-back, falling back to a hard cut at `end`.
func snapBoundary(runes []rune, start, end, lookback int) int {
	limit := end - lookback
	if limit <= start {
		limit = start + 1
	}
	for _, class := range boundaryClasses {
		best := -1
		for _, sep := range class {
			for p := end; p >= limit; p-- {
				if separatorEndsAt(runes, sep, p) {
					if p > best {
						best = p
					}
					break
				}
			}
		}
		if best >= 0 {
			return best
		}
	}
	return end
}

func separatorEndsAt(runes []rune, sep []rune, pos int) bool {
	if pos < len(sep) {
		return false
	}
	for i, r := range sep {
		if runes[pos-len(sep)+i] != r {
			return false
		}
	}
	return true
}

func provenanceBetween(spans []recordSpan, start, end int) []Provenance {
	var provs []Provenance
	for _, s := range spans {
		if s.start == s.end {
			continue
		}
		if s.start < end && s.end > start {
			provs = append(provs, s.prov)
		}
	}
	return provs
}
