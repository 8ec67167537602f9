package source

import (
	"errors"
	"fmt"
)

// Kind classifies a fetch failure.
type Kind string

const (
	KindTimeout   Kind = "timeout"
	KindTransport Kind = "transport"
	KindBadStatus Kind = "bad_status"
	KindParse     Kind = "parse"
)

// ErrAllSourcesFailed marks a tick on which every configured source failed.
// The rolling window is left untouched on such ticks.
var ErrAllSourcesFailed = errors.New("all price sources failed")

// FetchError describes a failed fetch from a single source.
type FetchError struct {
	Source     string
	Kind       Kind
	StatusCode int // set when Kind is KindBadStatus
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == KindBadStatus {
		return fmt.Sprintf("fetch from %s: bad status %d", e.Source, e.StatusCode)
	}
	return fmt.Sprintf("fetch from %s: %s: %v", e.Source, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
