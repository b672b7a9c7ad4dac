package cart

import (
	"context"

	"go.uber.org/zap"

	apperrors "github.com/Ziroworld/ailav-client/errors"
	"github.com/Ziroworld/ailav-client/models"
)

// merge is the login hook. It transfers the durable guest cart into the
// server cart, then adopts whatever the server reports as the
// authoritative state. It runs under the store mutex before Login
// returns, so no other cart operation can interleave with it.
//
// Deleting the durable entry is strictly all-or-nothing: if any add
// call fails, the entry is left intact and an *apperrors.MergeError is
// returned so the merge can be retried on the next login. The store
// still binds to the server cart in that case; the user proceeds with
// whatever state is authoritative.
func (s *Store) merge(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	guest, err := s.db.Load()
	if err != nil {
		s.log.Warn("could not read guest cart for merge", zap.Error(err))
		guest = nil
	}

	var failed map[string]error
	if !guest.IsEmpty() {
		// The add calls target disjoint product ids; their relative
		// order does not matter. The fetch below is what decides the
		// final state.
		for _, line := range guest.Items {
			if _, err := s.api.Add(ctx, user.ID, line.ProductID, line.Quantity); err != nil {
				if failed == nil {
					failed = make(map[string]error)
				}
				failed[line.ProductID] = err
			}
		}

		if failed == nil {
			if err := s.db.Delete(); err != nil {
				// The items made it to the server; a leftover durable
				// entry means a future merge may double-add, so report it.
				s.log.Error("guest cart transferred but local entry not deleted", zap.Error(err))
				failed = map[string]error{"_storage": err}
			}
		} else {
			s.log.Warn("cart merge incomplete, keeping guest cart",
				zap.Int("failed", len(failed)), zap.Int("total", len(guest.Items)))
		}
	}

	s.mode = boundMode{userID: user.ID}
	s.hydrated = false

	fetched, err := s.api.Get(ctx, user.ID)
	if err != nil {
		s.cart = models.Cart{Items: []models.CartLine{}}
		if failed != nil {
			return &apperrors.MergeError{Failed: failed}
		}
		return err
	}
	s.cart = *fetched

	if failed != nil {
		return &apperrors.MergeError{Failed: failed}
	}
	return nil
}
