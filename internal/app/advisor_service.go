package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"bizadvisor/internal/ai"
	"bizadvisor/internal/index"
	"bizadvisor/internal/model"
	"bizadvisor/internal/search"
	"bizadvisor/internal/session"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrQueryEmpty      = errors.New("query is empty")
)

// Answer modes, reported back so clients can label the reply.
const (
	ModeDocument = "dokumen"
	ModeWeb      = "web"
	ModeGeneral  = "umum"
)

// SessionStore is the slice of the session repository the services need.
type SessionStore interface {
	Create(session *model.Session) error
	ListByUserID(userID uint) ([]model.Session, error)
	GetByIDAndUserID(sessionID, userID uint) (*model.Session, error)
	DeleteByIDAndUserID(sessionID, userID uint) error
}

// MessageStore reads and clears persisted conversation turns.
type MessageStore interface {
	ListBySessionID(sessionID uint, limit int) ([]model.Message, error)
	DeleteBySessionID(sessionID uint) error
}

// DocumentStore keeps the per-session document metadata row.
type DocumentStore interface {
	Replace(doc *model.Document) error
	GetBySessionID(sessionID uint) (*model.Document, error)
	DeleteBySessionID(sessionID uint) error
}

type AsyncMessagePublisher interface {
	Publish(ctx context.Context, msg model.Message) error
}

type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID uint) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, sessionID uint, messages []model.Message) error
	DeleteHistory(ctx context.Context, sessionID uint) error
	MarkDirty(ctx context.Context, sessionID uint) error
	IsDirty(ctx context.Context, sessionID uint) (bool, error)
}

// AdvisorService synthesizes answers: it picks the answer mode (document
// retrieval, web search, or plain persona), builds one prompt, calls the chat
// provider once and formats the reply with citations. Conversation history
// only ever records exchanges that produced a real answer.
type AdvisorService struct {
	sessionRepo  SessionStore
	messageRepo  MessageStore
	publisher    AsyncMessagePublisher
	historyCache HistoryCache
	states       *session.Manager
	chat         ai.ChatProvider
	embedder     ai.EmbeddingProvider
	searcher     search.SnippetProvider
	retrievalK   int
}

func NewAdvisorService(
	sessionRepo SessionStore,
	messageRepo MessageStore,
	publisher AsyncMessagePublisher,
	historyCache HistoryCache,
	states *session.Manager,
	chat ai.ChatProvider,
	embedder ai.EmbeddingProvider,
	searcher search.SnippetProvider,
	retrievalK int,
) *AdvisorService {
	if retrievalK <= 0 {
		retrievalK = 5
	}
	return &AdvisorService{
		sessionRepo:  sessionRepo,
		messageRepo:  messageRepo,
		publisher:    publisher,
		historyCache: historyCache,
		states:       states,
		chat:         chat,
		embedder:     embedder,
		searcher:     searcher,
		retrievalK:   retrievalK,
	}
}

type CreateSessionInput struct {
	UserID uint
	Title  string
}

func (s *AdvisorService) CreateSession(input CreateSessionInput) (*model.Session, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidInput
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = "Konsultasi Baru"
	}
	sess := &model.Session{UserID: input.UserID, Title: title}
	if err := s.sessionRepo.Create(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *AdvisorService) ListSessions(userID uint) ([]model.Session, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.sessionRepo.ListByUserID(userID)
}

func (s *AdvisorService) DeleteSession(userID, sessionID uint) error {
	if userID == 0 || sessionID == 0 {
		return ErrInvalidInput
	}
	sess, err := s.sessionRepo.GetByIDAndUserID(sessionID, userID)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrSessionNotFound
	}
	if err := s.messageRepo.DeleteBySessionID(sessionID); err != nil {
		return err
	}
	if err := s.sessionRepo.DeleteByIDAndUserID(sessionID, userID); err != nil {
		return err
	}
	s.states.Drop(sessionID)
	if s.historyCache != nil {
		_ = s.historyCache.DeleteHistory(context.Background(), sessionID)
	}
	return nil
}

type AnswerInput struct {
	UserID    uint
	SessionID uint
	Query     string
}

type AnswerResult struct {
	Answer  string   `json:"answer"`
	Mode    string   `json:"mode"`
	Sources []string `json:"sources,omitempty"`
}

// Answer processes one query to completion. On any provider failure the
// error is returned and the conversation buffer stays exactly as it was.
func (s *AdvisorService) Answer(ctx context.Context, input AnswerInput) (*AnswerResult, error) {
	if input.UserID == 0 || input.SessionID == 0 {
		return nil, ErrInvalidInput
	}
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, ErrQueryEmpty
	}

	sess, err := s.sessionRepo.GetByIDAndUserID(input.SessionID, input.UserID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}

	state := s.states.Get(input.SessionID)

	var (
		mode      string
		messages  []ai.ChatMessage
		retrieved []index.Scored
		hits      []search.Result
	)

	if search.IsSearchQuery(query) {
		mode = ModeWeb
		hits, err = s.searcher.Search(ctx, query, s.retrievalK)
		if err != nil {
			return nil, err
		}
		messages = []ai.ChatMessage{
			{Role: "system", Content: personaPreamble},
			{Role: "user", Content: webSummaryPrompt(query, hits)},
		}
	} else {
		// The index is read exactly once; a concurrent document clear
		// surfaces as ErrNoIndex, never as a nil dereference.
		retrieved, err = state.Index().Retrieve(ctx, s.embedder, query, s.retrievalK)
		switch {
		case errors.Is(err, index.ErrNoIndex):
			mode = ModeGeneral
			messages = s.buildMessages(plainSystemPrompt(), state.History(), query)
		case err != nil:
			return nil, err
		default:
			mode = ModeDocument
			messages = s.buildMessages(groundedSystemPrompt(retrieved), state.History(), query)
		}
	}

	answer, err := s.chat.Complete(ctx, messages)
	if err != nil {
		// The failed exchange must leave no trace in history.
		return nil, err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		answer = "Model tidak memberikan jawaban."
	}

	formatted := FormatResponse(answer)

	var sources []string
	switch mode {
	case ModeDocument:
		sources = provenanceLabels(retrieved)
		formatted = appendSources(formatted, sources)
	case ModeWeb:
		for _, hit := range hits {
			sources = append(sources, hit.Link)
		}
		formatted += webSourcesFooter(hits)
	}

	state.AppendExchange(query, formatted)
	s.persistExchange(ctx, input, query, formatted)

	return &AnswerResult{Answer: formatted, Mode: mode, Sources: sources}, nil
}

// GetHistory reads persisted history through the redis cache, skipping the
// cache while the persist worker may still be behind.
func (s *AdvisorService) GetHistory(userID, sessionID uint, limit int) ([]model.Message, error) {
	if userID == 0 || sessionID == 0 {
		return nil, ErrInvalidInput
	}
	sess, err := s.sessionRepo.GetByIDAndUserID(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}

	ctx := context.Background()
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, sessionID); dirtyErr == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, sessionID); cacheErr == nil && hit {
				return trimMessages(cached, limit), nil
			}
		}
	}

	messages, err := s.messageRepo.ListBySessionID(sessionID, limit)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, sessionID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, sessionID, messages)
		}
	}
	return messages, nil
}

func (s *AdvisorService) buildMessages(system string, history []session.Turn, query string) []ai.ChatMessage {
	messages := make([]ai.ChatMessage, 0, len(history)+2)
	messages = append(messages, ai.ChatMessage{Role: "system", Content: system})
	for _, turn := range history {
		messages = append(messages, ai.ChatMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, ai.ChatMessage{Role: "user", Content: query})
	return messages
}

// persistExchange enqueues both turns for async persistence. The answer is
// already delivered at this point, so failures are logged, not returned.
func (s *AdvisorService) persistExchange(ctx context.Context, input AnswerInput, query, answer string) {
	if s.historyCache != nil {
		_ = s.historyCache.MarkDirty(ctx, input.SessionID)
		_ = s.historyCache.DeleteHistory(ctx, input.SessionID)
	}
	if s.publisher == nil {
		return
	}
	now := time.Now()
	for _, msg := range []model.Message{
		{SessionID: input.SessionID, UserID: input.UserID, Role: "user", Content: query, CreatedAt: now},
		{SessionID: input.SessionID, UserID: input.UserID, Role: "assistant", Content: answer, CreatedAt: now},
	} {
		if err := s.publisher.Publish(ctx, msg); err != nil {
			log.Printf("enqueue %s message failed: %v", msg.Role, err)
		}
	}
}

func provenanceLabels(retrieved []index.Scored) []string {
	var labels []string
	for _, item := range retrieved {
		for _, prov := range item.Chunk.Provenance {
			labels = append(labels, prov.Label())
		}
	}
	return labels
}

func trimMessages(messages []model.Message, limit int) []model.Message {
	if limit <= 0 || limit >= len(messages) {
		return messages
	}
	return messages[len(messages)-limit:]
}
