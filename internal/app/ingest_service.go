package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"bizadvisor/internal/ai"
	"bizadvisor/internal/config"
	"bizadvisor/internal/index"
	"bizadvisor/internal/ingest"
	"bizadvisor/internal/model"
	"bizadvisor/internal/session"
)

var ErrFileTooLarge = errors.New("file exceeds upload limit")

// IngestService runs the document-to-knowledge-base pipeline: temp storage,
// loading, chunking, embedding, index install. The whole run is atomic from
// the session's point of view: any failure leaves the previously installed
// index and the conversation untouched.
type IngestService struct {
	sessionRepo SessionStore
	docRepo     DocumentStore
	messageRepo MessageStore
	tempStore   *ingest.TempStore
	states      *session.Manager
	embedder    ai.EmbeddingProvider
	cfg         config.RAGConfig
}

func NewIngestService(
	sessionRepo SessionStore,
	docRepo DocumentStore,
	messageRepo MessageStore,
	tempStore *ingest.TempStore,
	states *session.Manager,
	embedder ai.EmbeddingProvider,
	cfg config.RAGConfig,
) *IngestService {
	return &IngestService{
		sessionRepo: sessionRepo,
		docRepo:     docRepo,
		messageRepo: messageRepo,
		tempStore:   tempStore,
		states:      states,
		embedder:    embedder,
		cfg:         cfg,
	}
}

type IngestInput struct {
	UserID    uint
	SessionID uint
	Filename  string
	Size      int64
	Reader    io.Reader
}

// Ingest processes an upload into the session's knowledge base. On success
// the new index replaces the old one and the conversation restarts over the
// new document.
func (s *IngestService) Ingest(ctx context.Context, input IngestInput) (*model.Document, error) {
	if input.UserID == 0 || input.SessionID == 0 {
		return nil, ErrInvalidInput
	}
	filename := strings.TrimSpace(input.Filename)
	if filename == "" {
		return nil, ErrInvalidInput
	}
	if input.Size > int64(s.cfg.MaxUploadMB)<<20 {
		return nil, fmt.Errorf("%w: %d MB max", ErrFileTooLarge, s.cfg.MaxUploadMB)
	}

	owned, err := s.sessionRepo.GetByIDAndUserID(input.SessionID, input.UserID)
	if err != nil {
		return nil, err
	}
	if owned == nil {
		return nil, ErrSessionNotFound
	}

	started := time.Now()

	path, err := s.tempStore.Store(input.SessionID, filename, input.Reader)
	if err != nil {
		return nil, err
	}

	records, err := ingest.LoadDocument(path, filename)
	if err != nil {
		return nil, err
	}
	if !hasText(records) {
		return nil, fmt.Errorf("%w: no extractable text in %s", ingest.ErrParse, filename)
	}

	chunks, err := ingest.Split(records, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: chunking produced nothing for %s", ingest.ErrParse, filename)
	}

	idx, err := index.Build(ctx, s.embedder, chunks)
	if err != nil {
		return nil, err
	}

	// Point of no return: install the new index and start a fresh
	// conversation over the new document.
	s.states.Get(input.SessionID).InstallIndex(idx)
	if err := s.messageRepo.DeleteBySessionID(input.SessionID); err != nil {
		log.Printf("reset persisted history failed: %v", err)
	}

	doc := &model.Document{
		UserID:        input.UserID,
		SessionID:     input.SessionID,
		Filename:      filename,
		SizeMB:        float64(input.Size) / (1 << 20),
		RecordCount:   len(records),
		ChunkCount:    len(chunks),
		ProcessingSec: time.Since(started).Seconds(),
	}
	if err := s.docRepo.Replace(doc); err != nil {
		// The index is live; losing the metadata row is not worth failing
		// the upload over.
		log.Printf("persist document metadata failed: %v", err)
	}

	log.Printf("ingested %s: %d records, %d chunks, %.2fs", filename, len(records), len(chunks), doc.ProcessingSec)
	return doc, nil
}

// GetDocument returns the metadata of the session's active document, nil if none.
func (s *IngestService) GetDocument(userID, sessionID uint) (*model.Document, error) {
	if userID == 0 || sessionID == 0 {
		return nil, ErrInvalidInput
	}
	owned, err := s.sessionRepo.GetByIDAndUserID(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if owned == nil {
		return nil, ErrSessionNotFound
	}
	return s.docRepo.GetBySessionID(sessionID)
}

// ClearDocuments drops the session's knowledge base, purges its temp files
// and removes the metadata row. The conversation itself is kept.
func (s *IngestService) ClearDocuments(userID, sessionID uint) error {
	if userID == 0 || sessionID == 0 {
		return ErrInvalidInput
	}
	owned, err := s.sessionRepo.GetByIDAndUserID(sessionID, userID)
	if err != nil {
		return err
	}
	if owned == nil {
		return ErrSessionNotFound
	}

	s.states.Get(sessionID).ClearIndex()
	s.tempStore.PurgeSession(sessionID)
	return s.docRepo.DeleteBySessionID(sessionID)
}

func hasText(records []ingest.Record) bool {
	for _, rec := range records {
		if strings.TrimSpace(rec.Text) != "" {
			return true
		}
	}
	return false
}
