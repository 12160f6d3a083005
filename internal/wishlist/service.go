package wishlist

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/storefront/pkg/auth/session"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	Repo   *Repository
	Locker session.Guard
	Logger *logger.Logger
}

// Service exposes the per-session heart set.
type Service interface {
	IDs(ctx context.Context, sessionID string) ([]int64, error)
	Get(ctx context.Context, sessionID string) (WishlistDTO, error)
	Toggle(ctx context.Context, sessionID string, productID int64) (ToggleResultDTO, error)
}

type service struct {
	repo   *Repository
	locker session.Guard
	logg   *logger.Logger
}

// NewService builds a wishlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wishlist repo is required")
	}
	if params.Locker == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session locker is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{repo: params.Repo, locker: params.Locker, logg: params.Logger}, nil
}

func (s *service) IDs(ctx context.Context, sessionID string) ([]int64, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	return s.load(ctx, sessionID)
}

func (s *service) Get(ctx context.Context, sessionID string) (WishlistDTO, error) {
	ids, err := s.IDs(ctx, sessionID)
	if err != nil {
		return WishlistDTO{}, err
	}
	return WishlistDTO{ProductIDs: ids}, nil
}

// Toggle hearts productID, or un-hearts it when already hearted.
func (s *service) Toggle(ctx context.Context, sessionID string, productID int64) (ToggleResultDTO, error) {
	if strings.TrimSpace(sessionID) == "" {
		return ToggleResultDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if productID <= 0 {
		return ToggleResultDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}

	unlock, err := s.locker.Lock(ctx, sessionID)
	if err != nil {
		return ToggleResultDTO{}, err
	}
	defer unlock()

	ids, err := s.load(ctx, sessionID)
	if err != nil {
		return ToggleResultDTO{}, err
	}

	hearted := true
	next := make([]int64, 0, len(ids)+1)
	for _, id := range ids {
		if id == productID {
			hearted = false
			continue
		}
		next = append(next, id)
	}
	if hearted {
		next = append(next, productID)
	}

	if err := s.repo.Save(ctx, sessionID, next); err != nil {
		return ToggleResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save wishlist")
	}
	return ToggleResultDTO{ProductID: productID, Hearted: hearted, ProductIDs: next}, nil
}

func (s *service) load(ctx context.Context, sessionID string) ([]int64, error) {
	ids, err := s.repo.Load(ctx, sessionID)
	if errors.Is(err, ErrCorrupt) {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "stored wishlist could not be decoded; starting empty")
		return []int64{}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist")
	}
	return ids, nil
}
