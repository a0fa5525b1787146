package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"knowledge-center/api"
	"knowledge-center/pubsub"

	"github.com/google/uuid"
)

const (
	// Greeting is the first bot message of every conversation.
	Greeting = "Hello. I'm ready to help you analyze your documents."
	// ChatFallback replaces the answer when the backend cannot be reached.
	ChatFallback = "I'm having trouble connecting to the knowledge base. Please try again."
)

// Role is who authored a chat message.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// ChatMessage is one entry of the conversation. It lives only as long as the
// Conversation that holds it.
type ChatMessage struct {
	ID        string
	Role      Role
	Content   string
	Sources   []api.Source
	CreatedAt time.Time
	// Failed marks the fallback message that replaces a failed answer.
	Failed bool
}

// Conversation is the chat exchange with the knowledge base. At most one
// message is in flight at a time.
type Conversation struct {
	backend Backend
	broker  *pubsub.Broker[ChatMessage]
	log     *slog.Logger
	now     func() time.Time

	mu      sync.RWMutex
	msgs    []ChatMessage
	pending bool
}

// NewConversation starts a conversation holding only the greeting.
func NewConversation(backend Backend, logger *slog.Logger) *Conversation {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Conversation{
		backend: backend,
		broker:  pubsub.NewBroker[ChatMessage](),
		log:     logger.With("flow", "chat"),
		now:     time.Now,
	}
	c.msgs = []ChatMessage{c.newMessage(RoleBot, Greeting)}
	return c
}

// Broker publishes CreatedEvent for every appended message and FinishedEvent
// (with the final bot message) when a request completes.
func (c *Conversation) Broker() *pubsub.Broker[ChatMessage] {
	return c.broker
}

// Send appends text as a user message, asks the backend and appends exactly
// one bot message: the answer, or ChatFallback when the request fails. The
// returned error is the backend error, already replaced by the fallback in
// the transcript.
func (c *Conversation) Send(ctx context.Context, text string) (ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return ChatMessage{}, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return ChatMessage{}, ErrBusy
	}
	c.pending = true
	userMsg := c.newMessage(RoleUser, text)
	c.msgs = append(c.msgs, userMsg)
	c.mu.Unlock()

	c.broker.Publish(pubsub.CreatedEvent, userMsg)

	resp, err := c.backend.Chat(ctx, text)

	var botMsg ChatMessage
	if err != nil {
		c.log.Error("chat request failed", "error", err)
		botMsg = c.newMessage(RoleBot, ChatFallback)
		botMsg.Failed = true
	} else {
		botMsg = c.newMessage(RoleBot, resp.Response)
		botMsg.Sources = DedupSources(resp.Sources)
	}

	c.mu.Lock()
	c.msgs = append(c.msgs, botMsg)
	c.pending = false
	c.mu.Unlock()

	c.broker.Publish(pubsub.CreatedEvent, botMsg)
	c.broker.Publish(pubsub.FinishedEvent, botMsg)

	return botMsg, err
}

// Messages returns a copy of the transcript.
func (c *Conversation) Messages() []ChatMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ChatMessage, len(c.msgs))
	copy(out, c.msgs)
	return out
}

// Pending reports whether a message is waiting for its answer.
func (c *Conversation) Pending() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pending
}

// Reset starts over with the greeting. It is refused while a request is in flight.
func (c *Conversation) Reset() error {
	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return ErrBusy
	}
	greeting := c.newMessage(RoleBot, Greeting)
	c.msgs = []ChatMessage{greeting}
	c.mu.Unlock()

	c.broker.Publish(pubsub.DeletedEvent, greeting)
	return nil
}

// Close stops event delivery.
func (c *Conversation) Close() {
	c.broker.Shutdown()
}

func (c *Conversation) newMessage(role Role, content string) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: c.now(),
	}
}

// DedupSources drops repeated (filename, page) pairs and empty filenames,
// keeping first-seen order. The result is never nil.
func DedupSources(in []api.Source) []api.Source {
	out := make([]api.Source, 0, len(in))
	seen := make(map[api.Source]struct{}, len(in))
	for _, s := range in {
		if s.Filename == "" {
			continue
		}
		if s.Page < 0 {
			s.Page = 0
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
