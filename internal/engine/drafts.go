package engine

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/xenking/oolio-pos/internal/domain/order"
)

// SaveAsDraft parks the active sale and starts an empty one.
func (e *Engine) SaveAsDraft(ctx context.Context) error {
	var id string
	err := e.update(ctx, "save_draft", func(tx *txn) error {
		d, err := order.NewDraft(tx.order, e.newID(), e.now())
		if err != nil {
			return err
		}
		id = d.ID
		tx.drafts = append(tx.drafts, d)
		tx.order.Reset()
		tx.changed, tx.draftsChanged = true, true
		return nil
	})
	if err != nil {
		return err
	}
	e.lg.Info("Draft saved", zap.String("draft_id", id))
	e.sink.Success(ctx, "Order saved as draft")
	return nil
}

// LoadDraft merges the draft at index into the active sale and removes it
// from the list.
func (e *Engine) LoadDraft(ctx context.Context, index int) error {
	err := e.update(ctx, "load_draft", func(tx *txn) error {
		if index < 0 || index >= len(tx.drafts) {
			return &order.DraftNotFoundError{Index: index}
		}
		tx.order.Merge(tx.drafts[index].Order)
		tx.drafts = slices.Delete(tx.drafts, index, index+1)
		tx.changed, tx.draftsChanged = true, true
		return nil
	})
	if err != nil {
		return err
	}
	e.sink.Success(ctx, "Draft loaded")
	return nil
}

// RemoveDraft discards the draft at index.
func (e *Engine) RemoveDraft(ctx context.Context, index int) error {
	err := e.update(ctx, "remove_draft", func(tx *txn) error {
		if index < 0 || index >= len(tx.drafts) {
			return &order.DraftNotFoundError{Index: index}
		}
		tx.drafts = slices.Delete(tx.drafts, index, index+1)
		tx.draftsChanged = true
		return nil
	})
	if err != nil {
		return err
	}
	e.sink.Success(ctx, "Draft removed")
	return nil
}

// ListDrafts returns copies of the parked drafts, oldest first.
func (e *Engine) ListDrafts() []order.Draft {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]order.Draft, len(e.drafts))
	for i, d := range e.drafts {
		d.Order = d.Order.Clone()
		out[i] = d
	}
	return out
}
