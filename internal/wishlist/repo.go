package wishlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/angelmondragon/storefront/pkg/auth/session"
)

// ErrCorrupt marks a stored wishlist that could not be decoded.
var ErrCorrupt = errors.New("stored wishlist is corrupt")

// Repository encapsulates wishlist persistence in the session store.
type Repository struct {
	store session.Store
}

// NewRepository constructs a wishlist repository bound to the provided session store.
func NewRepository(store session.Store) *Repository {
	return &Repository{store: store}
}

// Load returns the hearted ids; nothing stored is an empty list.
func (r *Repository) Load(ctx context.Context, sessionID string) ([]int64, error) {
	raw, err := r.store.Load(ctx, sessionID, session.EntryWishlist)
	if errors.Is(err, session.ErrNotFound) {
		return []int64{}, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []int64
	if err := json.Unmarshal(raw, &ids); err != nil {
		return []int64{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}

// Save overwrites the hearted ids.
func (r *Repository) Save(ctx context.Context, sessionID string, ids []int64) error {
	if ids == nil {
		ids = []int64{}
	}
	payload, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return r.store.Save(ctx, sessionID, session.EntryWishlist, payload)
}
