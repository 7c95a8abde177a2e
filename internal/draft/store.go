package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"evento-companion/internal/models"
	"evento-companion/internal/storage"
)

// ErrNoDraft is returned when nothing has been stored yet.
var ErrNoDraft = errors.New("no event draft stored")

// Top-level draft keys; they match the EventDraft JSON tags.
const (
	keyBasicInfo       = "basicInfo"
	keyLocation        = "location"
	keyMedia           = "media"
	keyTickets         = "tickets"
	keyCreateChatGroup = "createChatGroup"
)

// Slice is a partial draft. Every key set on it replaces the stored key wholesale.
type Slice struct {
	fields map[string]any
}

// NewSlice returns an empty Slice.
func NewSlice() *Slice {
	return &Slice{fields: make(map[string]any)}
}

func (s *Slice) WithBasicInfo(info models.BasicInfo) *Slice {
	s.fields[keyBasicInfo] = info
	return s
}

func (s *Slice) WithLocation(loc models.Location) *Slice {
	s.fields[keyLocation] = loc
	return s
}

func (s *Slice) WithMedia(items []models.MediaItem) *Slice {
	if items == nil {
		items = []models.MediaItem{}
	}
	s.fields[keyMedia] = items
	return s
}

func (s *Slice) WithTickets(tickets []models.Ticket) *Slice {
	if tickets == nil {
		tickets = []models.Ticket{}
	}
	s.fields[keyTickets] = tickets
	return s
}

func (s *Slice) WithCreateChatGroup(enabled bool) *Slice {
	s.fields[keyCreateChatGroup] = enabled
	return s
}

// Keys lists the keys the slice will overwrite, sorted.
func (s *Slice) Keys() []string {
	keys := make([]string, 0, len(s.fields))
	for k := range s.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Store persists the single event draft under a fixed key.
type Store struct {
	kv  storage.Store
	key string
}

// NewStore constructs a Store over the local key-value storage.
func NewStore(kv storage.Store) *Store {
	return &Store{kv: kv, key: storage.KeyDraft}
}

// Load returns the stored draft or ErrNoDraft.
func (s *Store) Load(ctx context.Context) (*models.EventDraft, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoDraft
	}
	if err != nil {
		return nil, fmt.Errorf("read draft: %w", err)
	}

	var d models.EventDraft
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &d, nil
}

// Merge writes previous ∪ slice. Keys absent from the slice keep their stored
// bytes untouched; keys present are replaced, never deep-merged.
func (s *Store) Merge(ctx context.Context, slice *Slice) error {
	current := map[string]json.RawMessage{}
	raw, err := s.kv.Get(ctx, s.key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return fmt.Errorf("read draft: %w", err)
	default:
		if err := json.Unmarshal(raw, &current); err != nil {
			return fmt.Errorf("decode draft: %w", err)
		}
		if current == nil {
			current = map[string]json.RawMessage{}
		}
	}

	for key, value := range slice.fields {
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode draft %s: %w", key, err)
		}
		current[key] = encoded
	}

	merged, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	return s.kv.Set(ctx, s.key, merged)
}

// Clear removes the stored draft.
func (s *Store) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, s.key)
}
