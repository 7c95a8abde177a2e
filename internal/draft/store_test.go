package draft

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"evento-companion/internal/models"
	"evento-companion/internal/storage"
)

func TestLoadEmpty(t *testing.T) {
	_, err := NewStore(storage.NewMemoryStore()).Load(context.Background())
	require.ErrorIs(t, err, ErrNoDraft)
}

func TestMergeKeepsUnrelatedSlices(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemoryStore())
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.Merge(ctx, NewSlice().WithBasicInfo(models.BasicInfo{
		Name: "Test", Description: "Desc", Category: "Workshop", Visibility: "Público",
		StartAt: start, EndAt: start.Add(2 * time.Hour),
	})))
	require.NoError(t, store.Merge(ctx, NewSlice().WithLocation(models.Location{Latitude: 1, Longitude: 2, FormattedAddress: "Rua A"})))
	require.NoError(t, store.Merge(ctx, NewSlice().WithTickets([]models.Ticket{{Name: "VIP", Price: decimal.NewFromInt(10), Quantity: 5}})))

	d, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "Test", d.BasicInfo.Name)
	require.True(t, d.BasicInfo.StartAt.Equal(start))
	require.Equal(t, "Rua A", d.Location.FormattedAddress)
	require.Len(t, d.Tickets, 1)
	require.True(t, d.ChatGroupEnabled())
}

func TestMergeReplacesWholesale(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemoryStore())

	require.NoError(t, store.Merge(ctx, NewSlice().WithMedia([]models.MediaItem{
		{URL: "a", Role: models.MediaCover},
		{URL: "b", Role: models.MediaGallery},
	})))
	require.NoError(t, store.Merge(ctx, NewSlice().WithMedia([]models.MediaItem{{URL: "c", Role: models.MediaCover}})))
	require.NoError(t, store.Merge(ctx, NewSlice().WithTickets([]models.Ticket{{Name: "A", Quantity: 1}})))
	require.NoError(t, store.Merge(ctx, NewSlice().WithTickets(nil)))

	d, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, []models.MediaItem{{URL: "c", Role: models.MediaCover}}, d.Media)
	require.Empty(t, d.Tickets)
}

func TestMergePreservesUnknownKeys(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	require.NoError(t, kv.Set(ctx, storage.KeyDraft, []byte(`{"legacy":{"x":1}}`)))

	store := NewStore(kv)
	require.NoError(t, store.Merge(ctx, NewSlice().WithCreateChatGroup(false)))

	raw, err := kv.Get(ctx, storage.KeyDraft)
	require.NoError(t, err)
	require.JSONEq(t, `{"legacy":{"x":1},"createChatGroup":false}`, string(raw))
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemoryStore())
	require.NoError(t, store.Merge(ctx, NewSlice().WithCreateChatGroup(true)))
	require.NoError(t, store.Clear(ctx))

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, ErrNoDraft)
}

func TestSliceKeysSorted(t *testing.T) {
	slice := NewSlice().WithTickets(nil).WithLocation(models.Location{}).WithCreateChatGroup(true)

	require.Equal(t, []string{keyCreateChatGroup, keyLocation, keyTickets}, slice.Keys())
	require.Empty(t, NewSlice().Keys())
}
