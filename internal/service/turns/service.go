package turns

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wayfarer/internal/modules/conversation"
	"wayfarer/internal/realtime"
	"wayfarer/internal/service/assistant"
	"wayfarer/internal/types"
)

// DefaultTurnTimeout bounds one reply.
const DefaultTurnTimeout = 60 * time.Second

// fallbackReply is stored when even the reply pipeline could not run.
const fallbackReply = "Sorry, something went wrong while preparing my answer. Please try again."

// unavailableReply answers a message that arrived while the server was stopping.
const unavailableReply = "Sorry, I'm restarting and couldn't answer that. Please send it again in a moment."

type Messages interface {
	Append(ctx context.Context, cmd conversation.AppendCommand) (*conversation.Message, error)
	List(ctx context.Context, conversationID uuid.UUID) ([]conversation.Message, error)
}

type Responder interface {
	Respond(ctx context.Context, req assistant.Request) assistant.Reply
}

type Emitter interface {
	Emit(room, event string, data any) int
}

type Service struct {
	messages   Messages
	responder  Responder
	emitter    Emitter
	dispatcher *Dispatcher
	timeout    time.Duration
	log        *zap.Logger
}

func NewService(messages Messages, responder Responder, emitter Emitter, dispatcher *Dispatcher, timeout time.Duration, log *zap.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultTurnTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		messages:   messages,
		responder:  responder,
		emitter:    emitter,
		dispatcher: dispatcher,
		timeout:    timeout,
		log:        log.Named("turns"),
	}
}

type SubmitCommand struct {
	ConversationID uuid.UUID
	OwnerID        string
	Content        string
}

// Submit stores the user message, queues the reply and returns at once.
// Once the dispatcher is closed nothing is stored and ErrClosed is returned.
func (s *Service) Submit(ctx context.Context, cmd SubmitCommand) (*conversation.Message, error) {
	if s.dispatcher.Closed() {
		return nil, ErrClosed
	}
	msg, err := s.messages.Append(ctx, conversation.AppendCommand{
		ConversationID: cmd.ConversationID,
		Role:           types.RoleUser,
		Content:        cmd.Content,
	})
	if err != nil {
		return nil, err
	}
	s.emit(msg)

	if err := s.dispatcher.Submit(cmd.ConversationID, func(ctx context.Context) {
		s.reply(ctx, msg, cmd.OwnerID)
	}); err != nil {
		// Closed between the check and the append: the message is stored,
		// so it still gets an answer.
		log := s.log.With(zap.String("conversation_id", msg.ConversationID.String()), zap.String("message_id", msg.ID.String()))
		log.Warn("reply not queued", zap.Error(err))
		s.store(ctx, log, msg.ConversationID, unavailableReply, conversation.TypeError)
	}
	return msg, nil
}

// reply answers one user message. It loads history when the job starts, so
// queued turns see every earlier reply.
func (s *Service) reply(ctx context.Context, target *conversation.Message, owner string) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	conversationID := target.ConversationID
	log := s.log.With(zap.String("conversation_id", conversationID.String()), zap.String("message_id", target.ID.String()))

	text, msgType := fallbackReply, conversation.TypeError
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("reply pipeline panic", zap.Any("panic", r), zap.Stack("stack"))
			}
		}()
		msgs, err := s.messages.List(ctx, conversationID)
		if err != nil {
			log.Error("load history failed", zap.Error(err))
			return
		}
		history, ok := TurnHistory(msgs, target.ID)
		if !ok {
			// Deleted or cleared while queued; nothing to answer.
			log.Info("message gone before reply")
			text = ""
			return
		}
		started := time.Now()
		r := s.responder.Respond(ctx, assistant.Request{
			ConversationID: conversationID,
			OwnerID:        owner,
			History:        history,
		})
		fields := []zap.Field{zap.String("state", string(r.State)), zap.Duration("took", time.Since(started))}
		if r.Intent != nil {
			fields = append(fields, zap.String("intent", string(r.Intent.Category)), zap.Float64("confidence", r.Intent.Confidence))
		}
		log.Info("turn answered", fields...)
		text, msgType = truncate(r.Text, conversation.MaxContentLength), conversation.TypeText
	}()
	if text == "" {
		return
	}

	s.store(ctx, log, conversationID, text, msgType)
}

// store persists and pushes an assistant message.
func (s *Service) store(ctx context.Context, log *zap.Logger, conversationID uuid.UUID, text, msgType string) {
	// The turn deadline may have passed; persisting the answer must not depend on it.
	saveCtx, cancelSave := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancelSave()
	msg, err := s.messages.Append(saveCtx, conversation.AppendCommand{
		ConversationID: conversationID,
		Role:           types.RoleAssistant,
		Content:        text,
		MessageType:    msgType,
	})
	if err != nil {
		log.Error("store reply failed", zap.Error(err))
		return
	}
	s.emit(msg)
}

func (s *Service) emit(msg *conversation.Message) {
	if s.emitter == nil {
		return
	}
	s.emitter.Emit(msg.ConversationID.String(), realtime.EventNewMessage, msg)
}

// TurnHistory builds the history for answering target: every message except
// user messages submitted after it, with target last.
func TurnHistory(msgs []conversation.Message, target uuid.UUID) ([]types.Turn, bool) {
	idx := -1
	for i, m := range msgs {
		if m.ID == target {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	out := make([]types.Turn, 0, len(msgs))
	for i, m := range msgs {
		if i == idx || (i > idx && m.Role == types.RoleUser) {
			continue
		}
		out = append(out, m.Turn())
	}
	return append(out, msgs[idx].Turn()), true
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	const ellipsis = "…"
	cut := limit - len(ellipsis)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + ellipsis
}
