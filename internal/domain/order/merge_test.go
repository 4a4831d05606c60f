package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDraft(t *testing.T) {
	at := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	_, err := NewDraft(New(defaultRates()), "d-0", at)
	require.ErrorIs(t, err, ErrEmptyOrder)

	o := orderWith(newTestProduct("p1", "10", 5))
	dr, err := NewDraft(o, "d-1", at)
	require.NoError(t, err)
	assert.Equal(t, "d-1", dr.ID)
	assert.Equal(t, at, dr.CreatedAt)

	o.IncrementItem(keyOf("p1"))
	assert.Equal(t, 1, dr.Order.Items[0].Quantity, "snapshot is detached")
}

func TestMerge_IntoEmptyRestoresExactly(t *testing.T) {
	saved := orderWith(newTestProduct("p1", "10", 5), newTestProduct("p2", "20", 5))
	saved.ApplyOverallDiscount(d("10"))
	saved.UpdateDiscount(keyOf("p2"), d("50"))
	saved.SetCustomer(Customer{ID: "c1", Name: "Jane"})

	active := New(defaultRates())
	active.Merge(saved.Clone())

	assert.Equal(t, saved.Items, active.Items)
	assertDecimal(t, "10", active.OverallDiscount)
	require.NotNil(t, active.Customer)
	assert.Equal(t, "c1", active.Customer.ID)
}

func TestMerge_CollidingQuantitiesSum(t *testing.T) {
	active := orderWith(newTestProduct("p1", "10", 5), newTestProduct("p2", "5", 3))
	active.IncrementItem(keyOf("p2"))

	draft := orderWith(newTestProduct("p2", "5", 3), newTestProduct("p3", "1", 5))
	draft.IncrementItem(keyOf("p2"))

	active.Merge(draft)

	require.Len(t, active.Items, 3)
	assert.Equal(t, "p1", active.Items[0].ItemID)
	assert.Equal(t, 3, active.Items[1].Quantity, "2+2 clamped to max 3")
	assert.Equal(t, "p3", active.Items[2].ItemID, "non-colliding lines are appended")
}

func TestMerge_UnionsAndMaxDiscount(t *testing.T) {
	active := orderWith(newTestProduct("p1", "100", 5))
	active.SubmitComment(CommentRequest{Text: "active", CommentID: "c-a"})
	active.AddPayment(Payment(`{"n":1}`))

	draft := orderWith(newTestProduct("p2", "100", 5))
	draft.SubmitComment(CommentRequest{Text: "draft", ManagerID: "m", Approved: true, Discount: d("20"), CommentID: "c-d", ApprovalID: "a-d"})
	draft.AddPayment(Payment(`{"n":2}`))

	active.Merge(draft)

	assertDecimal(t, "20", active.OverallDiscount)
	assertDecimal(t, "80", active.Items[0].Price, "active lines pick up the larger discount")
	assertDecimal(t, "80", active.Items[1].Price)

	require.Len(t, active.Comments, 2)
	assert.Equal(t, "c-a", active.Comments[0].ID)
	assert.Equal(t, "c-d", active.Comments[1].ID)
	assert.Len(t, active.Approvals, 1)
	assert.Len(t, active.Payments, 2)
}

func TestMerge_DraftLinesPickUpActiveDiscount(t *testing.T) {
	active := orderWith(newTestProduct("p1", "100", 5))
	active.ApplyOverallDiscount(d("30"))
	draft := orderWith(newTestProduct("p2", "10", 5))

	active.Merge(draft)

	assertDecimal(t, "30", active.OverallDiscount)
	assertDecimal(t, "70", active.Items[0].Price)
	assertDecimal(t, "7", active.Items[1].Price)
}

func TestMerge_KeepsActiveCustomer(t *testing.T) {
	active := orderWith(newTestProduct("p1", "1", 5))
	active.SetCustomer(Customer{ID: "active"})
	draft := orderWith(newTestProduct("p2", "1", 5))
	draft.SetCustomer(Customer{ID: "draft"})

	active.Merge(draft)

	assert.Equal(t, "active", active.Customer.ID)
}
