package domain

import (
	"fmt"
	"strings"
)

// RemoteResult is the outcome of asking the remote service to create a trip.
// Exactly one of ShareLink (success) or Reason (failure) is meaningful.
// The remote client never substitutes local data; the caller decides what
// to do with a failure.
type RemoteResult struct {
	ShareLink string
	Reason    error
}

// RemoteSuccess wraps a server-issued share link.
func RemoteSuccess(shareLink string) RemoteResult {
	return RemoteResult{ShareLink: shareLink}
}

// RemoteFailure wraps the reason the remote call did not produce a trip.
func RemoteFailure(reason error) RemoteResult {
	if reason == nil {
		reason = ErrRemoteUnavailable
	}
	return RemoteResult{Reason: reason}
}

// Succeeded reports whether the remote service issued a share link.
func (r RemoteResult) Succeeded() bool {
	return r.Reason == nil && r.ShareLink != ""
}

// FallbackPolicy decides what trip creation does when the remote call fails.
type FallbackPolicy string

const (
	// FallbackLocal builds and stores the trip locally and returns a local token.
	FallbackLocal FallbackPolicy = "local"
	// FallbackFail surfaces the failure as ErrRemoteUnavailable.
	FallbackFail FallbackPolicy = "fail"
)

// ParseFallbackPolicy maps a configuration string to a FallbackPolicy.
// Matching ignores case and surrounding space.
func ParseFallbackPolicy(s string) (FallbackPolicy, error) {
	switch p := FallbackPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case FallbackLocal, FallbackFail:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown fallback policy %q (want %q or %q)", ErrValidation, s, FallbackLocal, FallbackFail)
	}
}
