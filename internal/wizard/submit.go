package wizard

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"evento-companion/internal/api"
	"evento-companion/internal/models"
	"evento-companion/internal/observability"
)

// TimestampLayout is the wire format of every date sent to the backend.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

const (
	defaultTicketName = "Ticket"
	msgSubmitFallback = "Could not create the event."
	msgSubmitSuccess  = "Event created successfully!"
	msgChatCreated    = " Chat group created automatically."
)

// Confirmation is returned after the backend acknowledged the event.
type Confirmation struct {
	EventID          models.ID `json:"event_id,omitempty"`
	ChatGroupCreated bool      `json:"chat_group_created"`
	Message          string    `json:"message"`
}

// BuildPayload maps a draft to the backend request shape.
func BuildPayload(d *models.EventDraft) models.EventPayload {
	payload := models.EventPayload{
		Photos:          []models.PhotoPayload{},
		Tickets:         []models.TicketPayload{},
		CreateChatGroup: d.ChatGroupEnabled(),
	}

	if info := d.BasicInfo; info != nil {
		payload.Name = info.Name
		payload.Description = info.Description
		payload.Category = info.Category
		payload.Visibility = info.Visibility
		payload.StartAt = formatTimestamp(info.StartAt)
		end := info.EndAt
		if end.IsZero() {
			end = info.StartAt
		}
		payload.EndAt = formatTimestamp(end)
	}

	if loc := d.Location; loc != nil {
		payload.Location = &models.LocationPayload{
			Latitude:   loc.Latitude,
			Longitude:  loc.Longitude,
			Address:    loc.FormattedAddress,
			City:       loc.City,
			State:      loc.State,
			PostalCode: loc.PostalCode,
		}
	}

	for _, m := range d.Media {
		kind := "galeria"
		if m.Role == models.MediaCover {
			kind = "capa"
		}
		payload.Photos = append(payload.Photos, models.PhotoPayload{URL: m.URL, Kind: kind})
	}

	for _, t := range d.Tickets {
		ticket := models.TicketPayload{
			Name:        t.Name,
			Quantity:    t.Quantity,
			Price:       t.Price.InexactFloat64(),
			Description: t.Description,
		}
		if ticket.Name == "" {
			ticket.Name = defaultTicketName
		}
		if t.SaleDeadline != nil {
			deadline := formatTimestamp(*t.SaleDeadline)
			ticket.SaleDeadline = &deadline
		}
		payload.Tickets = append(payload.Tickets, ticket)
	}

	return payload
}

// Submit sends the draft. On success the draft is cleared and the wizard
// returns to its first step; on failure the draft is kept for a retry.
func (w *Wizard) Submit(ctx context.Context) (Confirmation, error) {
	ctx, span := otel.Tracer("evento-companion/wizard").Start(ctx, "wizard.submit", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	w.mu.Lock()
	defer w.mu.Unlock()

	d, err := w.loadForReview(ctx)
	if err != nil {
		span.RecordError(err)
		return Confirmation{}, err
	}

	payload := BuildPayload(d)
	span.SetAttributes(
		attribute.Int("event.tickets", len(payload.Tickets)),
		attribute.Int("event.photos", len(payload.Photos)),
	)

	resp, err := w.creator.CreateEvent(ctx, payload)
	if err != nil {
		subErr := classify(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(subErr.Class))
		observability.IncSubmission(string(subErr.Class))
		w.logger.Warn("event submission failed", zap.String("class", string(subErr.Class)), zap.Error(err))
		w.emit(ctx, "ERROR", "event submission failed: "+string(subErr.Class))
		return Confirmation{}, subErr
	}

	if err := w.store.Clear(ctx); err != nil {
		w.logger.Error("failed to clear submitted draft", zap.Error(err))
	}
	w.resetLocked()

	conf := Confirmation{Message: msgSubmitSuccess}
	if resp.Event != nil {
		conf.EventID = resp.Event.ID
	}
	if payload.CreateChatGroup && resp.ChatGroup != nil {
		conf.ChatGroupCreated = true
		conf.Message += msgChatCreated
	}

	observability.IncSubmission("success")
	w.logger.Info("event submitted", zap.String("event_id", conf.EventID.String()), zap.Bool("chat_group", conf.ChatGroupCreated))
	w.emit(ctx, "INFO", "Event created")
	return conf, nil
}

func classify(err error) *SubmissionError {
	var serverErr *api.ServerError
	switch {
	case api.IsSessionError(err):
		return &SubmissionError{Class: FailureSession, Message: api.UserMessage(err, msgSubmitFallback), Err: err}
	case errors.Is(err, api.ErrConnectivity):
		return &SubmissionError{Class: FailureConnectivity, Message: api.MsgConnectivity, Err: err}
	case errors.As(err, &serverErr):
		return &SubmissionError{Class: FailureRejected, Message: api.UserMessage(err, msgSubmitFallback), Err: err}
	default:
		return &SubmissionError{Class: FailureUnexpected, Message: msgSubmitFallback, Err: err}
	}
}

func (w *Wizard) emit(ctx context.Context, level, text string) {
	if w.audit == nil {
		return
	}
	w.audit.Emit(ctx, level, text)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
