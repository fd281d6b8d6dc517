package chat

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/resumechat/internal/config"
	"github.com/hyperjump/resumechat/internal/llm"
	"github.com/hyperjump/resumechat/internal/models"
	"github.com/hyperjump/resumechat/internal/prompt"
)

// Retriever returns the chunks most relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string, topK int) ([]models.Chunk, error)
}

// Service answers chat messages.
type Service struct {
	retriever Retriever
	completer llm.Completer
	assembler *prompt.Assembler
	topK      int
	resume    config.ResumeConfig
	logger    *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService wires the chat pipeline from its parts and the retrieval and résumé config.
func NewService(r Retriever, c llm.Completer, a *prompt.Assembler, cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		retriever: r,
		completer: c,
		assembler: a,
		topK:      cfg.Retrieval.TopK,
		resume:    cfg.Resume,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Answer replies to a single question.
func (s *Service) Answer(ctx context.Context, question string) (*models.ChatResponse, error) {
	persona := s.assembler.Persona()

	switch Classify(question) {
	case IntentGreeting:
		return &models.ChatResponse{Answer: persona.Greeting()}, nil
	case IntentResumeRequest:
		return &models.ChatResponse{
			Answer:   fmt.Sprintf("Sure! Here's %s's resume.", persona.Name),
			Document: s.ResumeLink(),
		}, nil
	}

	start := time.Now()
	chunks, err := s.retriever.Retrieve(ctx, question, s.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	reply, err := s.completer.Complete(ctx, s.assembler.Build(question, chunks))
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	s.logger.Debug("Answered question",
		zap.Int("chunks", len(chunks)),
		zap.Duration("took", time.Since(start)))

	return &models.ChatResponse{Answer: CleanResponse(reply)}, nil
}

// ResumeLink is the download link handed out for résumé requests.
func (s *Service) ResumeLink() *models.DocumentLink {
	return &models.DocumentLink{
		URL:  "/resume/" + url.PathEscape(s.resume.FileName),
		Name: s.resume.FileName,
		Type: s.resume.Type,
	}
}
