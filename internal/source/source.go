package source

import "context"

// Source fetches the current price from one upstream.
type Source interface {
	// Name identifies the source in logs, metrics and stored points.
	Name() string

	// FetchPrice returns the current price. Implementations must honor
	// ctx cancellation and deadlines.
	FetchPrice(ctx context.Context) (float64, error)
}
