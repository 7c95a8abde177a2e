package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evento-companion/internal/api"
	"evento-companion/internal/draft"
	"evento-companion/internal/models"
	"evento-companion/internal/session"
)

func TestSubmitMinimalDraft(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.creator.resp = models.CreateEventResponse{Success: true, Event: &models.Event{ID: "12"}}

	_, err := h.wizard.SaveBasicInfo(ctx, basicInput())
	require.NoError(t, err)

	conf, err := h.wizard.Submit(ctx)
	require.NoError(t, err)

	require.Len(t, h.creator.payloads, 1)
	body, err := json.Marshal(h.creator.payloads[0])
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "Test", got["nome"])
	assert.Equal(t, "Desc", got["descricao"])
	assert.Equal(t, "Workshop", got["tipo"])
	assert.Equal(t, "Público", got["privacidade"])
	assert.Equal(t, "2025-01-01T10:00:00.000Z", got["dataInicio"])
	assert.Equal(t, "2025-01-01T12:00:00.000Z", got["dataFim"])
	assert.Equal(t, []any{}, got["ingressos"])
	assert.Equal(t, []any{}, got["fotos"])
	assert.Equal(t, true, got["criarChat"])
	assert.NotContains(t, got, "localizacao")

	assert.Equal(t, models.ID("12"), conf.EventID)
	assert.Equal(t, msgSubmitSuccess, conf.Message)
	_, err = h.drafts.Load(ctx)
	assert.ErrorIs(t, err, draft.ErrNoDraft)
	assert.Equal(t, StepBasicInfo, h.wizard.Current().Step)
	assert.Equal(t, []string{"INFO"}, h.audit.levels)
}

func TestSubmitReportsChatGroup(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.creator.resp = models.CreateEventResponse{Success: true, ChatGroup: &models.Group{ID: "3"}}
	_, err := h.wizard.SaveBasicInfo(ctx, basicInput())
	require.NoError(t, err)

	conf, err := h.wizard.Submit(ctx)

	require.NoError(t, err)
	assert.True(t, conf.ChatGroupCreated)
	assert.Equal(t, msgSubmitSuccess+msgChatCreated, conf.Message)
}

func TestSubmitFailureKeepsDraft(t *testing.T) {
	cases := []struct {
		err   error
		class FailureClass
		msg   string
	}{
		{fmt.Errorf("%w: timeout", api.ErrConnectivity), FailureConnectivity, api.MsgConnectivity},
		{&api.ServerError{Status: 400, Message: "Data inválida"}, FailureRejected, "Data inválida"},
		{&api.ServerError{Status: 500}, FailureRejected, msgSubmitFallback},
		{session.ErrSessionExpired, FailureSession, api.MsgSessionExpired},
		{errors.New("weird"), FailureUnexpected, msgSubmitFallback},
	}

	for _, tc := range cases {
		t.Run(string(tc.class)+"/"+tc.msg, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()
			h.creator.err = tc.err
			_, err := h.wizard.SaveBasicInfo(ctx, basicInput())
			require.NoError(t, err)

			_, err = h.wizard.Submit(ctx)

			var subErr *SubmissionError
			require.ErrorAs(t, err, &subErr)
			assert.Equal(t, tc.class, subErr.Class)
			assert.Equal(t, tc.msg, subErr.Message)
			assert.ErrorIs(t, err, tc.err)

			d, err := h.drafts.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, "Test", d.BasicInfo.Name)
			assert.Equal(t, []string{"ERROR"}, h.audit.levels)
		})
	}
}

func TestSubmitWithoutDraftRestarts(t *testing.T) {
	h := newHarness(t)

	_, err := h.wizard.Submit(context.Background())

	assert.ErrorIs(t, err, ErrRestart)
	assert.Empty(t, h.creator.payloads)
}

func TestBuildPayloadTicketDefaults(t *testing.T) {
	deadline := time.Date(2025, 2, 1, 3, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	disabled := false
	d := &models.EventDraft{
		Location: &models.Location{Latitude: 1, Longitude: 2, FormattedAddress: "Rua B"},
		Media: []models.MediaItem{
			{URL: "c", Role: models.MediaCover},
			{URL: "g", Role: models.MediaGallery},
		},
		Tickets: []models.Ticket{
			{Price: decimal.RequireFromString("12.5"), Quantity: 3, SaleDeadline: &deadline},
			{Name: "VIP"},
		},
		CreateChatGroup: &disabled,
	}

	payload := BuildPayload(d)

	require.Len(t, payload.Tickets, 2)
	assert.Equal(t, defaultTicketName, payload.Tickets[0].Name)
	assert.Equal(t, 12.5, payload.Tickets[0].Price)
	require.NotNil(t, payload.Tickets[0].SaleDeadline)
	assert.Equal(t, "2025-02-01T06:00:00.000Z", *payload.Tickets[0].SaleDeadline)
	assert.Equal(t, "VIP", payload.Tickets[1].Name)
	assert.Zero(t, payload.Tickets[1].Quantity)
	assert.Nil(t, payload.Tickets[1].SaleDeadline)
	assert.Equal(t, []models.PhotoPayload{{URL: "c", Kind: "capa"}, {URL: "g", Kind: "galeria"}}, payload.Photos)
	require.NotNil(t, payload.Location)
	assert.Equal(t, "Rua B", payload.Location.Address)
	assert.False(t, payload.CreateChatGroup)
}
