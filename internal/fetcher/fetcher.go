package fetcher

import (
	"context"
	"time"

	"github.com/IshaanNene/ArticleForge/internal/types"
)

// Fetcher is the interface for all page fetcher implementations.
type Fetcher interface {
	// Fetch retrieves the content at the given request's URL.
	Fetch(ctx context.Context, req *types.Request) (*types.Response, error)

	// Close releases any resources held by the fetcher.
	Close() error

	// Type returns the fetcher type identifier.
	Type() string
}

// ObserveFunc receives the fetcher type and wall time of every fetch attempt.
type ObserveFunc func(fetcherType string, d time.Duration, err error)

// Instrument wraps f so every fetch is reported to observe.
func Instrument(f Fetcher, observe ObserveFunc) Fetcher {
	if observe == nil {
		return f
	}
	return &instrumented{Fetcher: f, observe: observe}
}

type instrumented struct {
	Fetcher
	observe ObserveFunc
}

func (i *instrumented) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	start := time.Now()
	resp, err := i.Fetcher.Fetch(ctx, req)
	i.observe(i.Fetcher.Type(), time.Since(start), err)
	return resp, err
}
