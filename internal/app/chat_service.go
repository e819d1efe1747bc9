package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"

	"marineai-backend/internal/ai"
	"marineai-backend/internal/model"
	"marineai-backend/internal/repository"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageEmpty         = errors.New("message content is empty")
	ErrMessageEnqueue       = errors.New("message enqueue failed")
)

// AsyncMessagePublisher hands messages to the persist queue.
type AsyncMessagePublisher interface {
	Publish(ctx context.Context, msg model.RagMessage) error
}

// HistoryCache is the read-through cache over a conversation's recent
// messages.
type HistoryCache interface {
	GetHistory(ctx context.Context, conversationID uint) ([]model.RagMessage, bool, error)
	SetHistory(ctx context.Context, conversationID uint, messages []model.RagMessage) error
	DeleteHistory(ctx context.Context, conversationID uint) error
	MarkDirty(ctx context.Context, conversationID uint) error
	IsDirty(ctx context.Context, conversationID uint) (bool, error)
}

// Retriever finds chunks relevant to a query.
type Retriever interface {
	Search(ctx context.Context, query string, topK int, purpose string, documentIDs []uint) []repository.ChunkSearchResult
}

// AnswerGenerator produces the assistant reply from a prompt.
type AnswerGenerator interface {
	Complete(ctx context.Context, messages []ai.ChatMessage) (string, error)
}

// ChatService manages RAG conversations and answers messages grounded in
// retrieved document chunks.
type ChatService struct {
	convRepo     *repository.ConversationRepository
	messageRepo  *repository.MessageRepository
	publisher    AsyncMessagePublisher
	historyCache HistoryCache
	retriever    Retriever
	answerer     AnswerGenerator

	topK       int
	threshold  float64
	maxContext int
}

func NewChatService(
	convRepo *repository.ConversationRepository,
	messageRepo *repository.MessageRepository,
	publisher AsyncMessagePublisher,
	historyCache HistoryCache,
	retriever Retriever,
	answerer AnswerGenerator,
	topK int,
	threshold float64,
	maxContext int,
) *ChatService {
	if topK <= 0 {
		topK = defaultTopK
	}
	if maxContext <= 0 {
		maxContext = 10
	}
	return &ChatService{
		convRepo:     convRepo,
		messageRepo:  messageRepo,
		publisher:    publisher,
		historyCache: historyCache,
		retriever:    retriever,
		answerer:     answerer,
		topK:         topK,
		threshold:    threshold,
		maxContext:   maxContext,
	}
}

func (s *ChatService) CreateConversation(title string) (*model.RagConversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = model.DefaultConversationTitle
	}
	conv := &model.RagConversation{Title: title}
	if err := s.convRepo.Create(conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *ChatService) ListConversations() ([]model.RagConversation, error) {
	return s.convRepo.List()
}

// ConversationDetail is a conversation with its full message history.
type ConversationDetail struct {
	Conversation model.RagConversation `json:"conversation"`
	Messages     []model.RagMessage    `json:"messages"`
}

func (s *ChatService) GetConversation(id uint) (*ConversationDetail, error) {
	conv, err := s.convRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	messages, err := s.messageRepo.ListByConversationID(id)
	if err != nil {
		return nil, err
	}
	return &ConversationDetail{Conversation: *conv, Messages: messages}, nil
}

func (s *ChatService) RenameConversation(id uint, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrInvalidInput
	}
	renamed, err := s.convRepo.Rename(id, title)
	if err != nil {
		return err
	}
	if !renamed {
		return ErrConversationNotFound
	}
	return nil
}

func (s *ChatService) DeleteConversation(id uint) error {
	deleted, err := s.convRepo.Delete(id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrConversationNotFound
	}
	if s.historyCache != nil {
		if err := s.historyCache.DeleteHistory(context.Background(), id); err != nil {
			log.Printf("drop history cache for conversation %d failed: %v", id, err)
		}
	}
	return nil
}

// ToggleSaved flips the pin flag that exempts a conversation from the
// retention sweep.
func (s *ChatService) ToggleSaved(id uint) (bool, error) {
	saved, found, err := s.convRepo.ToggleSaved(id)
	if err != nil {
		return false, err
	}
	if !found {
		return false, ErrConversationNotFound
	}
	return saved, nil
}

type SendMessageInput struct {
	ConversationID uint
	Message        string
	DocumentIDs    []uint
}

type ChatResult struct {
	Reply          string           `json:"reply"`
	References     []model.ChunkRef `json:"references"`
	ConversationID uint             `json:"conversation_id"`
}

// SendMessage answers a user message with retrieved chunk context, records
// both messages, and bumps the conversation.
func (s *ChatService) SendMessage(ctx context.Context, input SendMessageInput) (*ChatResult, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, ErrMessageEmpty
	}

	conv, err := s.convRepo.GetByID(input.ConversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}

	results := s.retriever.Search(ctx, message, s.topK, model.PurposeRAGSession, input.DocumentIDs)
	references := buildReferences(results, s.threshold)

	history, err := s.loadHistory(ctx, input.ConversationID)
	if err != nil {
		return nil, err
	}

	reply, err := s.answerer.Complete(ctx, buildChatPrompt(references, history, message))
	if err != nil {
		return nil, fmt.Errorf("generate answer failed: %w", err)
	}
	reply = strings.TrimSpace(reply)

	userMsg := model.RagMessage{
		ConversationID: input.ConversationID,
		Role:           model.RoleUser,
		Content:        message,
	}
	assistantMsg := model.RagMessage{
		ConversationID: input.ConversationID,
		Role:           model.RoleAssistant,
		Content:        reply,
	}
	assistantMsg.SetReferences(references)

	if err := s.publisher.Publish(ctx, userMsg); err != nil {
		return nil, ErrMessageEnqueue
	}
	if err := s.publisher.Publish(ctx, assistantMsg); err != nil {
		return nil, ErrMessageEnqueue
	}

	if s.historyCache != nil {
		if err := s.historyCache.MarkDirty(ctx, input.ConversationID); err != nil {
			log.Printf("mark history dirty failed: %v", err)
		}
		if err := s.historyCache.DeleteHistory(ctx, input.ConversationID); err != nil {
			log.Printf("invalidate history cache failed: %v", err)
		}
	}

	if err := s.convRepo.TouchAndAutoTitle(input.ConversationID, autoTitle(message)); err != nil {
		log.Printf("touch conversation %d failed: %v", input.ConversationID, err)
	}

	return &ChatResult{
		Reply:          reply,
		References:     references,
		ConversationID: input.ConversationID,
	}, nil
}

func (s *ChatService) loadHistory(ctx context.Context, conversationID uint) ([]model.RagMessage, error) {
	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, conversationID)
		if err != nil {
			log.Printf("check history dirty failed: %v", err)
		} else if !dirty {
			cached, hit, err := s.historyCache.GetHistory(ctx, conversationID)
			if err != nil {
				log.Printf("read history cache failed: %v", err)
			} else if hit {
				return cached, nil
			}
		}
	}

	messages, err := s.messageRepo.ListRecent(conversationID, s.maxContext)
	if err != nil {
		return nil, err
	}
	cacheHistoryIfClean(ctx, s.historyCache, conversationID, messages)
	return messages, nil
}

// cacheHistoryIfClean writes freshly read history to the cache unless the
// conversation is still dirty. While the persist worker lags behind the
// queue, the database copy may miss the latest turn; caching it would serve
// that stale history for the whole history TTL once the marker expires.
func cacheHistoryIfClean(ctx context.Context, cache HistoryCache, conversationID uint, messages []model.RagMessage) {
	if cache == nil {
		return
	}
	dirty, err := cache.IsDirty(ctx, conversationID)
	if err != nil || dirty {
		return
	}
	if err := cache.SetHistory(ctx, conversationID, messages); err != nil {
		log.Printf("write history cache failed: %v", err)
	}
}

// buildReferences keeps results above the caller's similarity threshold as
// immutable snapshots for the assistant message.
func buildReferences(results []repository.ChunkSearchResult, threshold float64) []model.ChunkRef {
	var refs []model.ChunkRef
	for _, r := range results {
		if r.Similarity <= threshold {
			continue
		}
		refs = append(refs, model.ChunkRef{
			Filename:   r.Filename,
			ChunkText:  r.ChunkText,
			Similarity: math.Round(r.Similarity*10000) / 10000,
		})
	}
	return refs
}

// autoTitle derives a conversation title from its first user message.
func autoTitle(message string) string {
	runes := []rune(message)
	if len(runes) <= 30 {
		return message
	}
	return string(runes[:30]) + "..."
}

func buildChatPrompt(references []model.ChunkRef, history []model.RagMessage, message string) []ai.ChatMessage {
	contextLines := make([]string, 0, len(references))
	for _, ref := range references {
		contextLines = append(contextLines, fmt.Sprintf("[%s] %s", ref.Filename, ref.ChunkText))
	}
	contextBlock := "(no relevant document content)"
	if len(contextLines) > 0 {
		contextBlock = strings.Join(contextLines, "\n---\n")
	}

	systemContent := "You are a technical document Q&A assistant for marine engine parts. " +
		"Answer the user's question based on the reference documents below. " +
		"If the documents do not contain the answer, say the information cannot be found in the documents. " +
		"Do not make up facts.\n\n## Reference documents\n" + contextBlock

	messages := []ai.ChatMessage{{Role: "system", Content: systemContent}}
	for _, m := range history {
		messages = append(messages, ai.ChatMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, ai.ChatMessage{Role: model.RoleUser, Content: message})
	return messages
}
