package ai

import "fmt"

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	Provider string
	Err      error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("%s rate limited: %v", e.Provider, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrUnavailable indicates the provider is down, unreachable or rejected the request.
type ErrUnavailable struct {
	Provider string
	Status   int
	Err      error
}

func (e *ErrUnavailable) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s unavailable (status %d): %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s unavailable: %v", e.Provider, e.Err)
}

func (e *ErrUnavailable) Unwrap() error { return e.Err }
