package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/oolio-pos/internal/domain/order"
	"github.com/xenking/oolio-pos/internal/notify"
)

func TestSaveAsDraft_EmptyOrder(t *testing.T) {
	h := newHarness(t, newCountingStore())

	err := h.engine.SaveAsDraft(context.Background())

	require.ErrorIs(t, err, order.ErrEmptyOrder)
	assert.Empty(t, h.engine.ListDrafts())
	assert.Zero(t, h.store.puts.Load())
	assert.Equal(t, []notify.Message{{Level: notify.LevelError, Text: "order has no items"}}, h.sink.Messages())
}

func TestSaveAsDraft(t *testing.T) {
	h := newHarness(t, newCountingStore())
	ctx := context.Background()

	require.NoError(t, h.engine.AddItem(ctx, testProduct("p1", "5.00", 5)))
	require.NoError(t, h.engine.SetCustomer(ctx, order.Customer{Name: "Ada"}))
	h.sink.Drain()

	require.NoError(t, h.engine.SaveAsDraft(ctx))

	o := h.engine.Snapshot()
	assert.True(t, o.IsEmpty())
	assert.Nil(t, o.Customer)

	drafts := h.engine.ListDrafts()
	require.Len(t, drafts, 1)
	assert.Equal(t, "id-1", drafts[0].ID)
	assert.Equal(t, "Ada", drafts[0].Order.Customer.Name)

	assert.Len(t, h.storedDrafts(t), 1)
	assert.True(t, h.storedOrder(t).IsEmpty())
	assert.Equal(t, []notify.Message{{Level: notify.LevelSuccess, Text: "Order saved as draft"}}, h.sink.Messages())
}

func TestSaveAndLoadDraft_RestoresOrder(t *testing.T) {
	h := newHarness(t, newCountingStore())
	ctx := context.Background()

	require.NoError(t, h.engine.AddItem(ctx, testProduct("p1", "5.00", 5)))
	require.NoError(t, h.engine.AddItem(ctx, testProduct("p1", "5.00", 5)))
	require.NoError(t, h.engine.AddItem(ctx, testProduct("p2", "8.00", 5)))
	require.NoError(t, h.engine.UpdateDiscount(ctx, key("p2"), d("50")))
	before := h.engine.Snapshot()

	require.NoError(t, h.engine.SaveAsDraft(ctx))
	require.NoError(t, h.engine.LoadDraft(ctx, 0))

	after := h.engine.Snapshot()
	assert.Equal(t, before.Items, after.Items)
	assert.Empty(t, h.engine.ListDrafts())
	assert.Empty(t, h.storedDrafts(t))
	assert.Len(t, h.storedOrder(t).Items, 2)
}

func TestLoadDraft_MergesIntoActive(t *testing.T) {
	h := newHarness(t, newCountingStore())
	ctx := context.Background()

	require.NoError(t, h.engine.AddItem(ctx, testProduct("p1", "5.00", 3)))
	require.NoError(t, h.engine.AddItem(ctx, testProduct("p1", "5.00", 3)))
	require.NoError(t, h.engine.SaveAsDraft(ctx))

	require.NoError(t, h.engine.AddItem(ctx, testProduct("p1", "5.00", 3)))
	require.NoError(t, h.engine.AddItem(ctx, testProduct("p1", "5.00", 3)))
	require.NoError(t, h.engine.AddItem(ctx, testProduct("p2", "1.00", 3)))
	require.NoError(t, h.engine.LoadDraft(ctx, 0))

	o := h.engine.Snapshot()
	require.Len(t, o.Items, 2)
	assert.Equal(t, 3, o.Items[0].Quantity)
	assert.Equal(t, "p2", o.Items[1].ItemID)
}

func TestDrafts_OldestFirst(t *testing.T) {
	h := newHarness(t, newCountingStore())
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, h.engine.AddItem(ctx, testProduct(id, "1.00", 1)))
		require.NoError(t, h.engine.SaveAsDraft(ctx))
	}

	drafts := h.engine.ListDrafts()
	require.Len(t, drafts, 3)
	for i, id := range []string{"a", "b", "c"} {
		assert.Equal(t, id, drafts[i].Order.Items[0].ItemID)
	}

	require.NoError(t, h.engine.RemoveDraft(ctx, 1))
	drafts = h.engine.ListDrafts()
	require.Len(t, drafts, 2)
	assert.Equal(t, "c", drafts[1].Order.Items[0].ItemID)
	assert.Len(t, h.storedDrafts(t), 2)
}

func TestDraftIndex_NotFound(t *testing.T) {
	h := newHarness(t, newCountingStore())
	ctx := context.Background()
	require.NoError(t, h.engine.AddItem(ctx, testProduct("p1", "1.00", 1)))
	require.NoError(t, h.engine.SaveAsDraft(ctx))
	puts := h.store.puts.Load()
	h.sink.Drain()

	for _, idx := range []int{-1, 1, 7} {
		var notFound *order.DraftNotFoundError

		require.ErrorAs(t, h.engine.LoadDraft(ctx, idx), &notFound)
		assert.Equal(t, idx, notFound.Index)
		require.ErrorAs(t, h.engine.RemoveDraft(ctx, idx), &notFound)
	}

	assert.Len(t, h.engine.ListDrafts(), 1)
	assert.Equal(t, puts, h.store.puts.Load())
	assert.Len(t, h.sink.Messages(), 6)
}

func TestListDrafts_ReturnsCopies(t *testing.T) {
	h := newHarness(t, newCountingStore())
	ctx := context.Background()
	require.NoError(t, h.engine.AddItem(ctx, testProduct("p1", "1.00", 5)))
	require.NoError(t, h.engine.SaveAsDraft(ctx))

	drafts := h.engine.ListDrafts()
	drafts[0].Order.Items[0].Quantity = 4

	assert.Equal(t, 1, h.engine.ListDrafts()[0].Order.Items[0].Quantity)
}
