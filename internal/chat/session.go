package chat

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"evento-companion/internal/models"
	"evento-companion/internal/observability"
	"evento-companion/internal/session"
)

// State is the lifecycle state of a chat session.
type State int

const (
	StateConnecting State = iota
	StateJoined
	StateIdle
	StateSending
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateJoined:
		return "joined"
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Backend is the request/response side of the chat.
type Backend interface {
	ListMessages(ctx context.Context, groupID models.ID) ([]models.ChatMessage, error)
	PostMessage(ctx context.Context, groupID models.ID, text string) error
}

// Identity supplies the token and claims of the logged-in user.
type Identity interface {
	Token(ctx context.Context) (string, error)
	Claims(ctx context.Context) (*session.Claims, error)
	Check(ctx context.Context, err error) error
}

// Snapshot is the state delivered to listeners after every change.
type Snapshot struct {
	GroupID  models.ID
	State    State
	Messages []models.ChatMessage
	// Grew is set when a new entry was appended; the view scrolls to the end.
	Grew bool
}

// Listener is called with the session lock held and must not call back into the session.
type Listener func(Snapshot)

const pendingAuthorName = "You"

var tracer = otel.Tracer("evento-companion/chat")

// Session is one open group chat.
type Session struct {
	groupID  models.ID
	backend  Backend
	dialer   Dialer
	identity Identity
	logger   *zap.Logger

	mu        sync.Mutex
	state     State
	timeline  *Timeline
	channel   PushChannel
	listeners []Listener
	closeOnce sync.Once
	readDone  chan struct{}

	newID func() models.ID
	now   func() time.Time
}

func NewSession(groupID models.ID, backend Backend, dialer Dialer, identity Identity, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		groupID:  groupID,
		backend:  backend,
		dialer:   dialer,
		identity: identity,
		logger:   logger.With(zap.String("group_id", groupID.String())),
		state:    StateConnecting,
		timeline: NewTimeline(),
		newID:    func() models.ID { return models.ID("tmp-" + uuid.NewString()) },
		now:      time.Now,
	}
}

func (s *Session) GroupID() models.ID { return s.groupID }

// OnChange registers a listener.
func (s *Session) OnChange(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Open loads history, connects the push channel and joins the group.
func (s *Session) Open(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "chat.open", trace.WithAttributes(attribute.String("chat.group_id", s.groupID.String())))
	defer span.End()

	history, err := s.backend.ListMessages(ctx, s.groupID)
	if err != nil {
		s.fail("history fetch failed", err)
		return err
	}

	s.mu.Lock()
	if s.state == StateDisconnected {
		s.mu.Unlock()
		return ErrClosed
	}
	s.timeline.Load(history)
	s.notifyLocked(len(history) > 0)
	s.mu.Unlock()

	token, err := s.identity.Token(ctx)
	if err != nil {
		s.fail("no token for push channel", err)
		return err
	}

	ch, err := s.dialer.Dial(ctx, token)
	if err != nil {
		err = s.identity.Check(ctx, err)
		s.fail("push channel dial failed", err)
		return err
	}
	if err := ch.Join(ctx, s.groupID); err != nil {
		_ = ch.Close()
		s.fail("join failed", err)
		return err
	}

	s.mu.Lock()
	if s.state == StateDisconnected {
		s.mu.Unlock()
		_ = ch.Close()
		return ErrClosed
	}
	s.channel = ch
	s.state = StateJoined
	done := make(chan struct{})
	s.readDone = done
	s.notifyLocked(false)
	s.mu.Unlock()

	go s.readLoop(ch, done)
	s.logger.Info("chat session joined")
	return nil
}

// Send inserts an optimistic message and posts it to the backend. On failure
// the optimistic entry is removed and the error returned; there is no retry.
func (s *Session) Send(ctx context.Context, text string) (models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return models.ChatMessage{}, ErrMessageTooLong
	}

	claims, err := s.identity.Claims(ctx)
	if err != nil {
		return models.ChatMessage{}, err
	}

	s.mu.Lock()
	switch s.state {
	case StateSending:
		s.mu.Unlock()
		return models.ChatMessage{}, ErrSendInProgress
	case StateConnecting:
		s.mu.Unlock()
		return models.ChatMessage{}, ErrNotReady
	case StateDisconnected:
		s.mu.Unlock()
		return models.ChatMessage{}, ErrClosed
	}
	pending := models.ChatMessage{
		ID:         s.newID(),
		Text:       text,
		AuthorID:   claims.UserID,
		AuthorRole: claims.Role,
		GroupID:    s.groupID,
		CreatedAt:  s.now().UTC(),
		Author:     &models.MessageAuthor{Name: pendingAuthorName},
		Pending:    true,
	}
	s.timeline.AddPending(pending)
	s.state = StateSending
	s.notifyLocked(true)
	s.mu.Unlock()

	ctx, span := tracer.Start(ctx, "chat.send", trace.WithSpanKind(trace.SpanKindClient))
	postErr := s.backend.PostMessage(ctx, s.groupID, text)
	if postErr != nil {
		span.RecordError(postErr)
	}
	span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSending {
		s.state = StateIdle
	}
	if postErr != nil {
		observability.IncChatSendFailure()
		s.logger.Warn("chat send failed", zap.Error(postErr))
		if s.state != StateDisconnected && s.timeline.Remove(pending.ID) {
			s.notifyLocked(false)
		}
		return pending, postErr
	}
	if s.state != StateDisconnected {
		s.notifyLocked(false)
	}
	return pending, nil
}

// Snapshot returns the current state without notifying listeners.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(false)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close tears the session down and returns once the read loop has exited.
// It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.state = StateDisconnected
		ch := s.channel
		done := s.readDone
		s.channel = nil
		s.notifyLocked(false)
		s.mu.Unlock()

		if ch != nil {
			_ = ch.Close()
		}
		if done != nil {
			<-done
		}
		s.logger.Info("chat session closed")
	})
}

func (s *Session) readLoop(ch PushChannel, done chan struct{}) {
	defer close(done)
	for msg := range ch.Messages() {
		s.receive(msg)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateDisconnected {
		s.state = StateDisconnected
		s.logger.Warn("push channel dropped")
		s.notifyLocked(false)
	}
}

func (s *Session) receive(msg models.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDisconnected {
		return
	}
	if msg.GroupID != s.groupID {
		s.logger.Debug("ignoring message for another group", zap.String("message_group", msg.GroupID.String()))
		return
	}

	replaced, appended := s.timeline.Confirm(msg)
	observability.IncReconciliation(replaced > 0)
	s.notifyLocked(appended)
}

func (s *Session) fail(reason string, err error) {
	s.logger.Warn(reason, zap.Error(err))
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateDisconnected {
		s.state = StateDisconnected
		s.notifyLocked(false)
	}
}

func (s *Session) notifyLocked(grew bool) {
	if len(s.listeners) == 0 {
		return
	}
	snap := s.snapshotLocked(grew)
	for _, l := range s.listeners {
		l(snap)
	}
}

func (s *Session) snapshotLocked(grew bool) Snapshot {
	return Snapshot{
		GroupID:  s.groupID,
		State:    s.state,
		Messages: s.timeline.Messages(),
		Grew:     grew,
	}
}
