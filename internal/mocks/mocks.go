package mocks

import (
	"context"
	"encoding/json"
	"io"

	"github.com/stretchr/testify/mock"

	"evento-companion/internal/chat"
	"evento-companion/internal/geocode"
	"evento-companion/internal/models"
)

// BackendMock stands in for the backend REST client.
type BackendMock struct {
	mock.Mock
}

func (m *BackendMock) ListEvents(ctx context.Context) ([]models.Event, error) {
	args := m.Called(ctx)
	var events []models.Event
	if val := args.Get(0); val != nil {
		events = val.([]models.Event)
	}
	return events, args.Error(1)
}

func (m *BackendMock) GetEvent(ctx context.Context, id string) (models.Event, error) {
	args := m.Called(ctx, id)
	var event models.Event
	if val := args.Get(0); val != nil {
		event = val.(models.Event)
	}
	return event, args.Error(1)
}

func (m *BackendMock) CreateEvent(ctx context.Context, payload models.EventPayload) (models.CreateEventResponse, error) {
	args := m.Called(ctx, payload)
	var resp models.CreateEventResponse
	if val := args.Get(0); val != nil {
		resp = val.(models.CreateEventResponse)
	}
	return resp, args.Error(1)
}

func (m *BackendMock) ListGroups(ctx context.Context) ([]models.Group, error) {
	args := m.Called(ctx)
	var groups []models.Group
	if val := args.Get(0); val != nil {
		groups = val.([]models.Group)
	}
	return groups, args.Error(1)
}

func (m *BackendMock) ListMessages(ctx context.Context, groupID models.ID) ([]models.ChatMessage, error) {
	args := m.Called(ctx, groupID)
	var msgs []models.ChatMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.ChatMessage)
	}
	return msgs, args.Error(1)
}

func (m *BackendMock) PostMessage(ctx context.Context, groupID models.ID, text string) error {
	args := m.Called(ctx, groupID, text)
	return args.Error(0)
}

func (m *BackendMock) Upload(ctx context.Context, filename string, content io.Reader) (string, error) {
	args := m.Called(ctx, filename, content)
	return args.String(0), args.Error(1)
}

func (m *BackendMock) GetProfile(ctx context.Context, kind string) (json.RawMessage, error) {
	args := m.Called(ctx, kind)
	var raw json.RawMessage
	if val := args.Get(0); val != nil {
		raw = val.(json.RawMessage)
	}
	return raw, args.Error(1)
}

func (m *BackendMock) UpdateProfileField(ctx context.Context, kind, field, value string) error {
	args := m.Called(ctx, kind, field, value)
	return args.Error(0)
}

type GeocoderMock struct {
	mock.Mock
}

func (m *GeocoderMock) Search(ctx context.Context, query string) ([]geocode.Place, error) {
	args := m.Called(ctx, query)
	var places []geocode.Place
	if val := args.Get(0); val != nil {
		places = val.([]geocode.Place)
	}
	return places, args.Error(1)
}

type DialerMock struct {
	mock.Mock
}

func (m *DialerMock) Dial(ctx context.Context, token string) (chat.PushChannel, error) {
	args := m.Called(ctx, token)
	var ch chat.PushChannel
	if val := args.Get(0); val != nil {
		ch = val.(chat.PushChannel)
	}
	return ch, args.Error(1)
}

// PushChannelStub is an in-memory push channel fed through Deliver.
type PushChannelStub struct {
	Joined   []models.ID
	messages chan models.ChatMessage
	closed   chan struct{}
}

func NewPushChannelStub() *PushChannelStub {
	return &PushChannelStub{
		messages: make(chan models.ChatMessage, 8),
		closed:   make(chan struct{}),
	}
}

func (s *PushChannelStub) Join(_ context.Context, groupID models.ID) error {
	s.Joined = append(s.Joined, groupID)
	return nil
}

func (s *PushChannelStub) Messages() <-chan models.ChatMessage { return s.messages }

func (s *PushChannelStub) Deliver(msg models.ChatMessage) { s.messages <- msg }

func (s *PushChannelStub) Close() error {
	select {
	case <-s.closed:
	default:
		close(s.closed)
		close(s.messages)
	}
	return nil
}
