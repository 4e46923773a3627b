// Package geolocation provides single-shot "where am I" lookups for the map widget.
package geolocation

import (
	"context"
	"fmt"

	"github.com/samirrijal/locallens/internal/core/domain"
)

// Source resolves the current position. Each call is an independent request;
// implementations never retry. Every failure wraps domain.ErrPositionUnavailable.
type Source interface {
	CurrentPosition(ctx context.Context) (domain.Coordinate, error)
}

// Fixed always reports the same position.
type Fixed struct {
	Position domain.Coordinate
}

func (f Fixed) CurrentPosition(ctx context.Context) (domain.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return domain.Coordinate{}, unavailable(err)
	}
	return f.Position, nil
}

// Unsupported models a host without any geolocation capability.
type Unsupported struct{}

func (Unsupported) CurrentPosition(context.Context) (domain.Coordinate, error) {
	return domain.Coordinate{}, fmt.Errorf("geolocation not supported: %w", domain.ErrPositionUnavailable)
}

// Func adapts a function to Source. Errors that do not already wrap
// ErrPositionUnavailable are wrapped, and invalid coordinates are rejected.
type Func func(ctx context.Context) (domain.Coordinate, error)

func (f Func) CurrentPosition(ctx context.Context) (domain.Coordinate, error) {
	c, err := f(ctx)
	if err != nil {
		return domain.Coordinate{}, unavailable(err)
	}
	if err := c.Validate(); err != nil {
		return domain.Coordinate{}, unavailable(err)
	}
	return c, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrPositionUnavailable, err)
}
