// Package fallback runs an ordered list of alternative sources and keeps
// the first one that succeeds. Used for manifest candidate locations and
// math engine asset resolution, which both follow a "guess by trying in
// sequence" pattern.
package fallback

import (
	"context"
	"errors"
	"fmt"
)

// Source is one alternative in an ordered chain.
type Source[T any] struct {
	Name    string
	Attempt func(ctx context.Context) (T, error)
}

// First tries each source strictly in order and returns the result and
// name of the first success. Remaining sources are never attempted once
// one succeeds. If every source fails, the returned error joins the
// per-source failures in order.
func First[T any](ctx context.Context, sources []Source[T]) (T, string, error) {
	var zero T
	if len(sources) == 0 {
		return zero, "", errors.New("no sources configured")
	}

	var errs []error
	for _, s := range sources {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		v, err := s.Attempt(ctx)
		if err == nil {
			return v, s.Name, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
	}
	return zero, "", errors.Join(errs...)
}
