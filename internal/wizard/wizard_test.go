package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"evento-companion/internal/draft"
	"evento-companion/internal/geocode"
	"evento-companion/internal/models"
	"evento-companion/internal/storage"
)

type fakeUploader struct {
	fail     map[string]bool
	uploaded []string
}

func (u *fakeUploader) Upload(_ context.Context, filename string, content io.Reader) (string, error) {
	if u.fail[filename] {
		return "", errors.New("upload failed")
	}
	_, _ = io.ReadAll(content)
	u.uploaded = append(u.uploaded, filename)
	return "https://cdn.test/" + filename, nil
}

type fakeCreator struct {
	payloads []models.EventPayload
	resp     models.CreateEventResponse
	err      error
}

func (c *fakeCreator) CreateEvent(_ context.Context, payload models.EventPayload) (models.CreateEventResponse, error) {
	c.payloads = append(c.payloads, payload)
	return c.resp, c.err
}

type fakeAuditor struct {
	levels []string
}

func (a *fakeAuditor) Emit(_ context.Context, level, _ string) {
	a.levels = append(a.levels, level)
}

type harness struct {
	wizard   *Wizard
	kv       *storage.MemoryStore
	drafts   *draft.Store
	uploader *fakeUploader
	creator  *fakeCreator
	audit    *fakeAuditor
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	kv := storage.NewMemoryStore()
	h := &harness{
		kv:       kv,
		drafts:   draft.NewStore(kv),
		uploader: &fakeUploader{fail: map[string]bool{}},
		creator:  &fakeCreator{resp: models.CreateEventResponse{Success: true}},
		audit:    &fakeAuditor{},
	}
	opener := func(path string) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("img:" + path)), nil
	}
	h.wizard = New(h.drafts, h.uploader, h.creator, zap.NewNop(), WithOpener(opener), WithAuditor(h.audit))
	return h
}

func basicInput() BasicInfoInput {
	return BasicInfoInput{
		Name:        "Test",
		Description: "Desc",
		Category:    "Workshop",
		Visibility:  "Público",
		StartAt:     time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
		EndAt:       time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSaveBasicInfoAdvances(t *testing.T) {
	h := newHarness(t)

	step, err := h.wizard.SaveBasicInfo(context.Background(), basicInput())

	require.NoError(t, err)
	assert.Equal(t, StepLocation, step)
	d, err := h.drafts.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, d.BasicInfo)
	assert.Equal(t, "Test", d.BasicInfo.Name)
}

func TestSaveBasicInfoRejectsInvertedRange(t *testing.T) {
	h := newHarness(t)
	in := basicInput()
	in.EndAt = in.StartAt

	step, err := h.wizard.SaveBasicInfo(context.Background(), in)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "endAt", verr.Field)
	assert.Equal(t, StepBasicInfo, step)
	_, err = h.drafts.Load(context.Background())
	assert.ErrorIs(t, err, draft.ErrNoDraft)
}

func TestSaveBasicInfoRequiresFields(t *testing.T) {
	h := newHarness(t)
	in := basicInput()
	in.Category = ""

	_, err := h.wizard.SaveBasicInfo(context.Background(), in)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "category", verr.Field)
}

func TestLaterStepsWithoutDraftRestart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.wizard.SaveLocation(ctx, geocode.Place{Formatted: "Rua A", Latitude: 1, Longitude: 2})
	assert.ErrorIs(t, err, ErrRestart)

	_, err = h.wizard.SaveTickets(ctx)
	assert.ErrorIs(t, err, ErrRestart)

	_, _, err = h.wizard.Review(ctx)
	assert.ErrorIs(t, err, ErrRestart)

	_, err = h.wizard.Enter(ctx, StepMedia)
	assert.ErrorIs(t, err, ErrRestart)
	assert.Equal(t, StepBasicInfo, h.wizard.Current().Step)

	state, err := h.wizard.Enter(ctx, StepBasicInfo)
	require.NoError(t, err)
	assert.Nil(t, state.Draft)
}

func TestSaveLocationRequiresSelection(t *testing.T) {
	h := newHarness(t)
	_, err := h.wizard.SaveBasicInfo(context.Background(), basicInput())
	require.NoError(t, err)

	_, err = h.wizard.SaveLocation(context.Background(), geocode.Place{})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "location", verr.Field)
}

func TestGalleryCap(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < MaxGalleryImages; i++ {
		require.NoError(t, h.wizard.AddGallery("g.jpg"))
	}

	err := h.wizard.AddGallery("eleventh.jpg")

	assert.ErrorIs(t, err, ErrGalleryFull)
	assert.Len(t, h.wizard.Current().Gallery, MaxGalleryImages)
	assert.NotContains(t, h.wizard.Current().Gallery, "eleventh.jpg")

	require.NoError(t, h.wizard.RemoveGallery(0))
	assert.Len(t, h.wizard.Current().Gallery, MaxGalleryImages-1)
	assert.ErrorIs(t, h.wizard.RemoveGallery(42), ErrIndexOutOfRange)
}

func TestSaveMediaRequiresCover(t *testing.T) {
	h := newHarness(t)
	_, err := h.wizard.SaveBasicInfo(context.Background(), basicInput())
	require.NoError(t, err)

	_, err = h.wizard.SaveMedia(context.Background())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "cover", verr.Field)
}

func TestSaveMediaSkipsFailedGallery(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.wizard.SaveBasicInfo(ctx, basicInput())
	require.NoError(t, err)

	h.wizard.SetCover("cover.jpg")
	require.NoError(t, h.wizard.AddGallery("a.jpg"))
	require.NoError(t, h.wizard.AddGallery("b.jpg"))
	h.uploader.fail["a.jpg"] = true

	step, err := h.wizard.SaveMedia(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepTickets, step)

	d, err := h.drafts.Load(ctx)
	require.NoError(t, err)
	require.Len(t, d.Media, 2)
	assert.Equal(t, models.MediaCover, d.Media[0].Role)
	assert.Equal(t, "https://cdn.test/b.jpg", d.Media[1].URL)
}

func TestSaveMediaCoverFailureIsTerminal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.wizard.SaveBasicInfo(ctx, basicInput())
	require.NoError(t, err)
	h.wizard.SetCover("cover.jpg")
	h.uploader.fail["cover.jpg"] = true

	step, err := h.wizard.SaveMedia(ctx)

	require.Error(t, err)
	assert.Equal(t, StepMedia, step)
	d, err := h.drafts.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, d.Media)
}

func TestAddTicketValidation(t *testing.T) {
	h := newHarness(t)

	_, err := h.wizard.AddTicket(TicketInput{Name: "VIP", Price: "-5", Quantity: "10"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "price", verr.Field)

	_, err = h.wizard.AddTicket(TicketInput{Name: "VIP", Price: "5", Quantity: "0"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "quantity", verr.Field)

	_, err = h.wizard.AddTicket(TicketInput{Price: "5", Quantity: "1"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)

	assert.Empty(t, h.wizard.Current().Tickets)

	tickets, err := h.wizard.AddTicket(TicketInput{Name: "Pista", Price: "49,90", Quantity: "100"})
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, "49.9", tickets[0].Price.String())

	tickets, err = h.wizard.RemoveTicket(0)
	require.NoError(t, err)
	assert.Empty(t, tickets)
}

func TestStepsAccumulateUnionOfFields(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.wizard.SaveBasicInfo(ctx, basicInput())
	require.NoError(t, err)
	_, err = h.wizard.SaveLocation(ctx, geocode.Place{Formatted: "Av. Paulista, 1000", Latitude: -23.56, Longitude: -46.65, City: "São Paulo"})
	require.NoError(t, err)
	_, err = h.wizard.AddTicket(TicketInput{Name: "Geral", Price: "10", Quantity: "5"})
	require.NoError(t, err)
	_, err = h.wizard.SaveTickets(ctx)
	require.NoError(t, err)

	d, err := h.drafts.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, d.BasicInfo)
	require.NotNil(t, d.Location)
	assert.Equal(t, "São Paulo", d.Location.City)
	assert.Len(t, d.Tickets, 1)

	_, err = h.wizard.SaveBasicInfo(ctx, basicInput())
	require.NoError(t, err)
	d, err = h.drafts.Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, d.Location)
	assert.Len(t, d.Tickets, 1)
}

func TestMergePreservesUnknownKeys(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.kv.Set(ctx, storage.KeyDraft, []byte(`{"legacy":{"x":1}}`)))

	_, err := h.wizard.SaveBasicInfo(ctx, basicInput())
	require.NoError(t, err)

	raw, err := h.kv.Get(ctx, storage.KeyDraft)
	require.NoError(t, err)
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.JSONEq(t, `{"x":1}`, string(fields["legacy"]))
}

func TestEnterTicketsSeedsFromDraft(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.wizard.SaveBasicInfo(ctx, basicInput())
	require.NoError(t, err)
	_, err = h.wizard.AddTicket(TicketInput{Name: "A", Price: "1", Quantity: "1"})
	require.NoError(t, err)
	_, err = h.wizard.SaveTickets(ctx)
	require.NoError(t, err)
	_, err = h.wizard.RemoveTicket(0)
	require.NoError(t, err)

	state, err := h.wizard.Enter(ctx, StepTickets)

	require.NoError(t, err)
	assert.Len(t, state.Tickets, 1)
	assert.Equal(t, StepTickets, state.Step)
}

func TestSaveTicketsAfterRestartKeepsStoredTickets(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.wizard.SaveBasicInfo(ctx, basicInput())
	require.NoError(t, err)
	_, err = h.wizard.AddTicket(TicketInput{Name: "VIP", Price: "10", Quantity: "5"})
	require.NoError(t, err)
	_, err = h.wizard.SaveTickets(ctx)
	require.NoError(t, err)

	restarted := New(h.drafts, h.uploader, h.creator, zap.NewNop())
	step, err := restarted.SaveTickets(ctx)

	require.NoError(t, err)
	assert.Equal(t, StepReview, step)
	d, err := h.drafts.Load(ctx)
	require.NoError(t, err)
	require.Len(t, d.Tickets, 1)
	assert.Equal(t, "VIP", d.Tickets[0].Name)
}

func TestEnterUnknownStep(t *testing.T) {
	h := newHarness(t)

	_, err := h.wizard.Enter(context.Background(), Step(9))

	require.ErrorIs(t, err, ErrUnknownStep)
	assert.Equal(t, StepBasicInfo, h.wizard.Current().Step)
}
