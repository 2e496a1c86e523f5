package types

import "fmt"

// ProviderErrorKind distinguishes the ways a metadata provider call can
// fail. All of them are recovered per file; none aborts a batch.
type ProviderErrorKind string

const (
	ProviderErrTimeout     ProviderErrorKind = "timeout"
	ProviderErrRateLimited ProviderErrorKind = "rate_limited"
	ProviderErrMalformed   ProviderErrorKind = "malformed_response"
	ProviderErrHTTP        ProviderErrorKind = "http"
)

// ErrProvider wraps a failure talking to an external metadata service.
type ErrProvider struct {
	Provider string
	Kind     ProviderErrorKind
	Err      error
}

func (e ErrProvider) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
}

func (e ErrProvider) Unwrap() error { return e.Err }

// ErrNoMatch means no candidate reached the minimum score threshold.
type ErrNoMatch struct {
	Term string
	Best float64
}

func (e ErrNoMatch) Error() string {
	if e.Best > 0 {
		return fmt.Sprintf("no match for %q (best score %.2f below threshold)", e.Term, e.Best)
	}
	return fmt.Sprintf("no match for %q", e.Term)
}

// ErrClassification means neither the movie nor the TV domain produced a
// usable match for an ambiguous file.
type ErrClassification struct {
	Title string
}

func (e ErrClassification) Error() string {
	return fmt.Sprintf("cannot classify %q as movie or tv show", e.Title)
}

// ErrDestinationMissing means the output root for the classified media
// type is not configured for the scanned source.
type ErrDestinationMissing struct {
	Type MediaType
}

func (e ErrDestinationMissing) Error() string {
	return fmt.Sprintf("no output directory configured for media type %q", e.Type)
}

// ErrProviderNotFound means a configured provider name has no registered
// implementation.
type ErrProviderNotFound struct {
	Name string
}

func (e ErrProviderNotFound) Error() string {
	return fmt.Sprintf("no metadata provider registered for %q", e.Name)
}
