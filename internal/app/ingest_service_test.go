package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"bizadvisor/internal/config"
	"bizadvisor/internal/index"
	"bizadvisor/internal/ingest"
	"bizadvisor/internal/model"
	"bizadvisor/internal/search"
	"bizadvisor/internal/session"
)

func newIngestFixture(t *testing.T, embedderFails bool) (*IngestService, *session.Manager, *fakeMessageStore, *fakeDocumentStore) {
	t.Helper()
	tempStore, err := ingest.NewTempStore()
	if err != nil {
		t.Fatalf("NewTempStore returned error: %v", err)
	}
	t.Cleanup(tempStore.Close)

	sessions := &fakeSessionStore{sessions: map[uint]*model.Session{
		1: {ID: 1, UserID: 10, Title: "Konsultasi"},
	}}
	messages := &fakeMessageStore{}
	docs := &fakeDocumentStore{}
	states := session.NewManager(3000)

	svc := NewIngestService(
		sessions,
		docs,
		messages,
		tempStore,
		states,
		deterministicEmbedder{fail: embedderFails},
		config.RAGConfig{ChunkSize: 500, ChunkOverlap: 50, RetrievalK: 5, HistoryTokenBudget: 3000, MaxUploadMB: 50},
	)
	return svc, states, messages, docs
}

func txtInput(name, content string) IngestInput {
	return IngestInput{
		UserID:    10,
		SessionID: 1,
		Filename:  name,
		Size:      int64(len(content)),
		Reader:    strings.NewReader(content),
	}
}

func TestIngest_InstallsIndexAndResetsConversation(t *testing.T) {
	svc, states, messages, docs := newIngestFixture(t, false)

	state := states.Get(1)
	state.AppendExchange("pertanyaan lama", "jawaban lama")

	content := "Strategi pemasaran digital untuk usaha kuliner. Fokus pada media sosial."
	doc, err := svc.Ingest(context.Background(), txtInput("rencana.txt", content))
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}

	if state.Index() == nil {
		t.Fatalf("index not installed after successful ingestion")
	}
	if len(state.History()) != 0 {
		t.Fatalf("new ingestion must reset the conversation, got %d turns", len(state.History()))
	}
	if len(messages.deletedSession) != 1 || messages.deletedSession[0] != 1 {
		t.Fatalf("persisted history not cleared: %v", messages.deletedSession)
	}

	if doc.Filename != "rencana.txt" || doc.RecordCount != 1 || doc.ChunkCount != 1 {
		t.Fatalf("document metadata = %+v", doc)
	}
	if docs.doc == nil || docs.doc.SessionID != 1 {
		t.Fatalf("document row not replaced: %+v", docs.doc)
	}
}

// twoPagePDF assembles a minimal but valid two-page PDF, one text line per
// page, with a correct cross-reference table.
func twoPagePDF(pageTexts [2]string) []byte {
	content := func(text string) string {
		return fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	}
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R 4 0 R] /Count 2 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 7 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 7 0 R >> >> /Contents 6 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content(pageTexts[0])), content(pageTexts[0])),
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content(pageTexts[1])), content(pageTexts[1])),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects)+1)
	for i, obj := range objects {
		offsets[i+1] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for i := 1; i <= len(objects); i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return b.Bytes()
}

func TestIngest_PDFEndToEndWithCitations(t *testing.T) {
	svc, states, _, docs := newIngestFixture(t, false)

	raw := twoPagePDF([2]string{
		"Strategi pemasaran digital untuk UMKM.",
		"Laporan keuangan tahunan perusahaan.",
	})
	doc, err := svc.Ingest(context.Background(), IngestInput{
		UserID:    10,
		SessionID: 1,
		Filename:  "rencana.pdf",
		Size:      int64(len(raw)),
		Reader:    bytes.NewReader(raw),
	})
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	if doc.RecordCount != 2 {
		t.Fatalf("expected one record per page, got RecordCount=%d", doc.RecordCount)
	}
	if doc.ChunkCount < 1 {
		t.Fatalf("expected at least one chunk, got %d", doc.ChunkCount)
	}
	if docs.doc == nil || docs.doc.Filename != "rencana.pdf" {
		t.Fatalf("document row not replaced: %+v", docs.doc)
	}

	advisor := NewAdvisorService(
		&fakeSessionStore{sessions: map[uint]*model.Session{
			1: {ID: 1, UserID: 10, Title: "Konsultasi"},
		}},
		&fakeMessageStore{},
		&fakePublisher{},
		nil,
		states,
		&fakeChat{answer: "Fokus pada media sosial dan pantau arus kas."},
		deterministicEmbedder{},
		search.SimulatedProvider{},
		5,
	)

	result, err := advisor.Answer(context.Background(), AnswerInput{
		UserID:    10,
		SessionID: 1,
		Query:     "Bagaimana strategi pemasaran saya?",
	})
	if err != nil {
		t.Fatalf("Answer returned error: %v", err)
	}
	if result.Mode != ModeDocument {
		t.Fatalf("expected document mode after pdf ingestion, got %q", result.Mode)
	}
	if !strings.Contains(result.Answer, "Sumber:") {
		t.Fatalf("answer missing source footer: %q", result.Answer)
	}
	for _, label := range []string{"rencana.pdf (halaman 1)", "rencana.pdf (halaman 2)"} {
		if !strings.Contains(result.Answer, label) {
			t.Fatalf("answer missing citation %q: %q", label, result.Answer)
		}
	}
}

func TestIngest_SelfRetrievalAfterIngest(t *testing.T) {
	svc, states, _, _ := newIngestFixture(t, false)

	content := "Margin kotor menurun karena biaya bahan baku naik."
	if _, err := svc.Ingest(context.Background(), txtInput("laporan.txt", content)); err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}

	results, err := states.Get(1).Index().Retrieve(context.Background(), deterministicEmbedder{}, content, 1)
	if err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}
	if len(results) != 1 || results[0].Chunk.Text != content {
		t.Fatalf("self retrieval failed: %+v", results)
	}
}

func TestIngest_EmbeddingFailurePreservesPriorState(t *testing.T) {
	svc, states, _, _ := newIngestFixture(t, true)

	prior, err := index.Build(context.Background(), deterministicEmbedder{}, []ingest.Chunk{
		{Text: "dokumen lama", Provenance: []ingest.Provenance{{Source: "lama.txt"}}},
	})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	state := states.Get(1)
	state.InstallIndex(prior)
	state.AppendExchange("pertanyaan", "jawaban")

	_, err = svc.Ingest(context.Background(), txtInput("baru.txt", "dokumen baru yang gagal diproses"))
	if !errors.Is(err, index.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}

	if state.Index() != prior {
		t.Fatalf("failed ingestion must keep the prior index")
	}
	if len(state.History()) != 2 {
		t.Fatalf("failed ingestion must keep the conversation, got %d turns", len(state.History()))
	}
}

func TestIngest_UnsupportedFormatLeavesStateUntouched(t *testing.T) {
	svc, states, _, _ := newIngestFixture(t, false)

	prior, err := index.Build(context.Background(), deterministicEmbedder{}, []ingest.Chunk{
		{Text: "dokumen lama", Provenance: []ingest.Provenance{{Source: "lama.txt"}}},
	})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	states.Get(1).InstallIndex(prior)

	_, err = svc.Ingest(context.Background(), txtInput("proposal.docx", "isi apapun"))
	if !errors.Is(err, ingest.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if states.Get(1).Index() != prior {
		t.Fatalf("rejected upload must keep the prior index")
	}
}

func TestIngest_RejectsOversizedFile(t *testing.T) {
	svc, _, _, _ := newIngestFixture(t, false)

	input := txtInput("besar.txt", "x")
	input.Size = 51 << 20
	if _, err := svc.Ingest(context.Background(), input); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestIngest_RejectsEmptyDocument(t *testing.T) {
	svc, _, _, _ := newIngestFixture(t, false)

	if _, err := svc.Ingest(context.Background(), txtInput("kosong.txt", "   \n  ")); !errors.Is(err, ingest.ErrParse) {
		t.Fatalf("expected ErrParse for empty document, got %v", err)
	}
}

func TestClearDocuments_KeepsConversation(t *testing.T) {
	svc, states, _, docs := newIngestFixture(t, false)

	if _, err := svc.Ingest(context.Background(), txtInput("rencana.txt", "Strategi pemasaran digital.")); err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	state := states.Get(1)
	state.AppendExchange("pertanyaan", "jawaban")

	if err := svc.ClearDocuments(10, 1); err != nil {
		t.Fatalf("ClearDocuments returned error: %v", err)
	}
	if state.Index() != nil {
		t.Fatalf("index should be gone after clear")
	}
	if len(state.History()) != 2 {
		t.Fatalf("clearing documents must keep the conversation, got %d turns", len(state.History()))
	}
	if docs.doc != nil {
		t.Fatalf("document row should be removed, got %+v", docs.doc)
	}
}

func TestIngest_UnknownSession(t *testing.T) {
	svc, _, _, _ := newIngestFixture(t, false)

	input := txtInput("rencana.txt", "isi")
	input.SessionID = 99
	if _, err := svc.Ingest(context.Background(), input); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
