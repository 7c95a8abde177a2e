package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	"evento-companion/internal/draft"
	"evento-companion/internal/geocode"
	"evento-companion/internal/models"
)

// MaxGalleryImages caps the gallery of an event.
const MaxGalleryImages = 10

// Step identifies a wizard screen.
type Step int

const (
	StepBasicInfo Step = iota + 1
	StepLocation
	StepMedia
	StepTickets
	StepReview
)

func (s Step) String() string {
	switch s {
	case StepBasicInfo:
		return "basic_info"
	case StepLocation:
		return "location"
	case StepMedia:
		return "media"
	case StepTickets:
		return "tickets"
	case StepReview:
		return "review"
	default:
		return fmt.Sprintf("step_%d", int(s))
	}
}

// Uploader stores an image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, filename string, content io.Reader) (string, error)
}

// EventCreator submits the final payload.
type EventCreator interface {
	CreateEvent(ctx context.Context, payload models.EventPayload) (models.CreateEventResponse, error)
}

// Auditor records user-visible outcomes.
type Auditor interface {
	Emit(ctx context.Context, level, text string)
}

// Opener opens a local media file for upload.
type Opener func(path string) (io.ReadCloser, error)

// State is what the UI needs to render the current screen.
type State struct {
	Step    Step               `json:"step"`
	Draft   *models.EventDraft `json:"draft,omitempty"`
	Cover   string             `json:"cover,omitempty"`
	Gallery []string           `json:"gallery"`
	Tickets []models.Ticket    `json:"tickets"`
}

// Wizard accumulates one event draft across five sequential steps. Calls are
// serialized so merges follow call order.
type Wizard struct {
	mu       sync.Mutex
	store    *draft.Store
	uploader Uploader
	creator  EventCreator
	audit    Auditor
	logger   *zap.Logger
	open     Opener

	step    Step
	cover   string
	gallery []string
	tickets []models.Ticket
}

// Option customizes a Wizard.
type Option func(*Wizard)

// WithOpener replaces os.Open for media files.
func WithOpener(open Opener) Option {
	return func(w *Wizard) { w.open = open }
}

// WithAuditor attaches an audit sink.
func WithAuditor(a Auditor) Option {
	return func(w *Wizard) { w.audit = a }
}

// New constructs a Wizard positioned on the first step.
func New(store *draft.Store, uploader Uploader, creator EventCreator, logger *zap.Logger, opts ...Option) *Wizard {
	w := &Wizard{
		store:    store,
		uploader: uploader,
		creator:  creator,
		logger:   logger,
		open:     func(path string) (io.ReadCloser, error) { return os.Open(path) },
		step:     StepBasicInfo,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Enter positions the wizard on step and returns the draft it should be
// seeded from. Every step past the first needs a stored draft.
func (w *Wizard) Enter(ctx context.Context, step Step) (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if step < StepBasicInfo || step > StepReview {
		return State{}, fmt.Errorf("%w: %d", ErrUnknownStep, step)
	}

	d, err := w.store.Load(ctx)
	switch {
	case errors.Is(err, draft.ErrNoDraft) && step == StepBasicInfo:
		d = nil
	case err != nil:
		if restartErr := w.restartIfMissing(err); restartErr != nil {
			return State{}, restartErr
		}
		return State{}, err
	}

	w.step = step
	if step == StepTickets && d != nil {
		w.tickets = append([]models.Ticket(nil), d.Tickets...)
	}
	return w.stateLocked(d), nil
}

// Current returns the wizard state without touching storage.
func (w *Wizard) Current() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stateLocked(nil)
}

// SaveBasicInfo validates the first step and merges it into the draft.
func (w *Wizard) SaveBasicInfo(ctx context.Context, in BasicInfoInput) (Step, error) {
	info, err := in.toBasicInfo()
	if err != nil {
		return StepBasicInfo, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.merge(ctx, draft.NewSlice().WithBasicInfo(info)); err != nil {
		return StepBasicInfo, fmt.Errorf("save basic info: %w", err)
	}
	w.step = StepLocation
	w.logger.Debug("wizard step saved", zap.Stringer("step", StepBasicInfo))
	return w.step, nil
}

// SaveLocation merges the selected place into the draft.
func (w *Wizard) SaveLocation(ctx context.Context, place geocode.Place) (Step, error) {
	if place.Formatted == "" || (place.Latitude == 0 && place.Longitude == 0) {
		return StepLocation, invalid("location", "select a place on the map")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.requireDraft(ctx); err != nil {
		return StepBasicInfo, err
	}

	loc := models.Location{
		Latitude:         place.Latitude,
		Longitude:        place.Longitude,
		FormattedAddress: place.Formatted,
		City:             place.City,
		State:            place.State,
		PostalCode:       place.PostalCode,
	}
	if err := w.merge(ctx, draft.NewSlice().WithLocation(loc)); err != nil {
		return StepLocation, fmt.Errorf("save location: %w", err)
	}
	w.step = StepMedia
	return w.step, nil
}

// SetCover selects the local cover image.
func (w *Wizard) SetCover(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cover = path
}

// AddGallery appends a local gallery image. The eleventh image is rejected
// and the list is left untouched.
func (w *Wizard) AddGallery(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.gallery) >= MaxGalleryImages {
		return ErrGalleryFull
	}
	w.gallery = append(w.gallery, path)
	return nil
}

// RemoveGallery drops the gallery image at index.
func (w *Wizard) RemoveGallery(index int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if index < 0 || index >= len(w.gallery) {
		return ErrIndexOutOfRange
	}
	w.gallery = append(w.gallery[:index:index], w.gallery[index+1:]...)
	return nil
}

// SaveMedia uploads the cover and gallery, then merges the uploaded URLs.
// A failed cover upload stops the step; failed gallery uploads are skipped.
func (w *Wizard) SaveMedia(ctx context.Context) (Step, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cover == "" {
		return StepMedia, invalid("cover", "select a cover photo")
	}
	if err := w.requireDraft(ctx); err != nil {
		return StepBasicInfo, err
	}

	coverURL, err := w.upload(ctx, w.cover)
	if err != nil {
		w.logger.Error("cover upload failed", zap.Error(err))
		return StepMedia, fmt.Errorf("upload cover: %w", err)
	}
	media := []models.MediaItem{{URL: coverURL, Role: models.MediaCover}}

	for _, path := range w.gallery {
		url, err := w.upload(ctx, path)
		if err != nil {
			w.logger.Warn("gallery upload failed, skipping", zap.String("path", path), zap.Error(err))
			continue
		}
		media = append(media, models.MediaItem{URL: url, Role: models.MediaGallery})
	}

	if err := w.merge(ctx, draft.NewSlice().WithMedia(media)); err != nil {
		return StepMedia, fmt.Errorf("save media: %w", err)
	}
	w.step = StepTickets
	return w.step, nil
}

func (w *Wizard) upload(ctx context.Context, path string) (string, error) {
	f, err := w.open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return w.uploader.Upload(ctx, path, f)
}

// AddTicket validates a ticket form and appends it to the step's list.
// Invalid input never reaches the list.
func (w *Wizard) AddTicket(in TicketInput) ([]models.Ticket, error) {
	ticket, err := in.toTicket()
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.tickets = append(w.tickets, ticket)
	return append([]models.Ticket(nil), w.tickets...), nil
}

// RemoveTicket drops the ticket at index from the step's list.
func (w *Wizard) RemoveTicket(index int) ([]models.Ticket, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if index < 0 || index >= len(w.tickets) {
		return nil, ErrIndexOutOfRange
	}
	w.tickets = append(w.tickets[:index:index], w.tickets[index+1:]...)
	return append([]models.Ticket(nil), w.tickets...), nil
}

// SaveTickets merges the step's ticket list as a whole. An empty list is allowed.
func (w *Wizard) SaveTickets(ctx context.Context) (Step, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	d, err := w.store.Load(ctx)
	if err != nil {
		if restartErr := w.restartIfMissing(err); restartErr != nil {
			return StepBasicInfo, restartErr
		}
		return StepTickets, err
	}
	if w.tickets == nil {
		w.tickets = append([]models.Ticket(nil), d.Tickets...)
	}
	tickets := append([]models.Ticket{}, w.tickets...)
	if err := w.merge(ctx, draft.NewSlice().WithTickets(tickets)); err != nil {
		return StepTickets, fmt.Errorf("save tickets: %w", err)
	}
	w.step = StepReview
	return w.step, nil
}

// SetCreateChatGroup toggles automatic chat group creation.
func (w *Wizard) SetCreateChatGroup(ctx context.Context, enabled bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.requireDraft(ctx); err != nil {
		return err
	}
	return w.merge(ctx, draft.NewSlice().WithCreateChatGroup(enabled))
}

// Review loads the draft and the payload it would be submitted as.
func (w *Wizard) Review(ctx context.Context) (*models.EventDraft, models.EventPayload, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	d, err := w.loadForReview(ctx)
	if err != nil {
		return nil, models.EventPayload{}, err
	}
	return d, BuildPayload(d), nil
}

func (w *Wizard) loadForReview(ctx context.Context) (*models.EventDraft, error) {
	d, err := w.store.Load(ctx)
	if err != nil {
		if restartErr := w.restartIfMissing(err); restartErr != nil {
			return nil, restartErr
		}
		return nil, err
	}
	if d.BasicInfo == nil {
		w.resetLocked()
		return nil, ErrRestart
	}
	return d, nil
}

func (w *Wizard) merge(ctx context.Context, slice *draft.Slice) error {
	if err := w.store.Merge(ctx, slice); err != nil {
		return err
	}
	w.logger.Debug("draft merged", zap.Strings("keys", slice.Keys()))
	return nil
}

func (w *Wizard) requireDraft(ctx context.Context) error {
	_, err := w.store.Load(ctx)
	if err == nil {
		return nil
	}
	if restartErr := w.restartIfMissing(err); restartErr != nil {
		return restartErr
	}
	return err
}

func (w *Wizard) restartIfMissing(err error) error {
	if errors.Is(err, draft.ErrNoDraft) {
		w.logger.Info("draft missing, restarting wizard")
		w.resetLocked()
		return ErrRestart
	}
	return nil
}

func (w *Wizard) resetLocked() {
	w.step = StepBasicInfo
	w.cover = ""
	w.gallery = nil
	w.tickets = nil
}

func (w *Wizard) stateLocked(d *models.EventDraft) State {
	return State{
		Step:    w.step,
		Draft:   d,
		Cover:   w.cover,
		Gallery: append([]string{}, w.gallery...),
		Tickets: append([]models.Ticket{}, w.tickets...),
	}
}
