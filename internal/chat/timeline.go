package chat

import (
	"sort"

	"evento-companion/internal/models"
)

// Timeline is the ordered message sequence shown for one group.
// It is not safe for concurrent use; Session serializes access.
type Timeline struct {
	messages []models.ChatMessage
}

func NewTimeline() *Timeline {
	return &Timeline{}
}

// Load replaces the sequence with history ordered by creation time.
func (t *Timeline) Load(history []models.ChatMessage) {
	msgs := make([]models.ChatMessage, len(history))
	copy(msgs, history)
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	t.messages = msgs
}

// AddPending appends an optimistic message.
func (t *Timeline) AddPending(msg models.ChatMessage) {
	msg.Pending = true
	t.messages = append(t.messages, msg)
}

// Remove drops the message with id and reports whether it was present.
func (t *Timeline) Remove(id models.ID) bool {
	for i, m := range t.messages {
		if m.ID == id {
			t.messages = append(t.messages[:i], t.messages[i+1:]...)
			return true
		}
	}
	return false
}

// Confirm reconciles a server-confirmed message: every pending entry with
// exactly the same text is dropped, then msg is appended unless a confirmed
// entry with the same id is already shown.
//
// Matching is by text only. Two pending messages with identical text are both
// replaced by the first echo.
func (t *Timeline) Confirm(msg models.ChatMessage) (replaced int, appended bool) {
	msg.Pending = false
	kept := t.messages[:0]
	duplicate := false
	for _, m := range t.messages {
		if m.Pending && m.Text == msg.Text {
			replaced++
			continue
		}
		if !m.Pending && msg.ID != "" && m.ID == msg.ID {
			duplicate = true
		}
		kept = append(kept, m)
	}
	t.messages = kept
	if duplicate {
		return replaced, false
	}
	t.messages = append(t.messages, msg)
	return replaced, true
}

// Messages returns a copy of the current sequence.
func (t *Timeline) Messages() []models.ChatMessage {
	out := make([]models.ChatMessage, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Timeline) Len() int {
	return len(t.messages)
}
