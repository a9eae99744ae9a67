package domain

import "errors"

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// FeedError represents an upstream price feed failure (network, non-2xx,
// parse). It is always contained locally: the failed feed contributes an empty
// map to the refresh, never an aborted refresh.
type FeedError struct {
	Feed      string // "best_offers" or "buy_orders"
	Op        string // operation that failed (e.g. "fetch", "decode")
	Err       error
	Retriable bool
}

func (e *FeedError) Error() string {
	return e.Feed + " " + e.Op + ": " + e.Err.Error()
}

func (e *FeedError) IsRetriable() bool {
	return e.Retriable
}

func (e *FeedError) Unwrap() error {
	return e.Err
}

// NewFeedError creates a retriable feed error
func NewFeedError(feed, op string, err error) *FeedError {
	return &FeedError{Feed: feed, Op: op, Err: err, Retriable: true}
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrNoSurface is returned when no scan surface is connected to serve a
	// collaborator request. Retriable on the next cycle.
	ErrNoSurface = errors.New("no scan surface connected")

	// ErrSurfaceTimeout is returned when a connected surface does not answer a
	// request in time.
	ErrSurfaceTimeout = errors.New("surface request timed out")

	// ErrBookUnavailable is returned when both upstream feeds failed and no
	// previous price book exists.
	ErrBookUnavailable = errors.New("price book unavailable")
)
