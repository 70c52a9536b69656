package ingest

// Provenance names the source location a piece of text was extracted from,
// used later for citation lines.
type Provenance struct {
	Source  string `json:"source"`            // original filename
	Locator string `json:"locator,omitempty"` // "halaman N", "baris N", or empty for whole file
}

// Label renders the provenance the way citations display it.
func (p Provenance) Label() string {
	if p.Locator == "" {
		return p.Source
	}
	return p.Source + " (" + p.Locator + ")"
}

// Record is one logical unit produced by the loader: a PDF page, a CSV row,
// or a whole text file. Immutable after loading.
type Record struct {
	Text       string
	Provenance Provenance
}

// Chunk is a bounded, overlapping slice of concatenated record text prepared
// for embedding. Provenance lists every record the chunk's span overlaps, in
// document order.
type Chunk struct {
	Text       string
	Provenance []Provenance
}
