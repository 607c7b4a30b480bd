package source

import (
	"context"
	"errors"

	"github.com/alynder/warchest/internal/record"
)

// Source fetches raw bank records for a scope from the upstream service.
//
// Fetch returns records ordered ascending by ID, all with ID > sinceID,
// truncated to limit. It never mutates state; a fetch is purely a read.
//
// Implementations must return an error wrapping ErrUnavailable when the
// upstream cannot be reached after retries or rejects every known response
// shape; the scheduler treats that as "skip this scope this tick".
type Source interface {
	Fetch(ctx context.Context, scope record.Scope, sinceID int64, limit int) ([]record.BankRecord, error)
}

// ErrUnavailable reports that the upstream could not serve the request
// after exhausting retries and response shapes. The cursor is left
// untouched, so the same records are retried next tick.
var ErrUnavailable = errors.New("record source unavailable")

// ErrShapeMismatch reports that a response did not match the shape adapter
// used to decode it. It is recovered internally by probing the next known
// shape and only surfaces wrapped in ErrUnavailable once every shape has
// been rejected.
var ErrShapeMismatch = errors.New("response shape mismatch")

// CredentialProvider supplies the per-scope secret used to authenticate
// upstream calls. The token is opaque to the core: it is sent on the
// request and never persisted or logged.
type CredentialProvider interface {
	APIKey(scope record.Scope) (string, error)
}

// StaticCredentials is a CredentialProvider backed by a fixed map keyed by
// scope key.
type StaticCredentials map[string]string

func (c StaticCredentials) APIKey(scope record.Scope) (string, error) {
	key, ok := c[scope.Key()]
	if !ok {
		return "", errors.New("no credential configured for scope " + scope.Key())
	}
	return key, nil
}
