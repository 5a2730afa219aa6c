// Package token publishes and retrieves the cluster join token through the
// shared store.
package token

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/imamik/fleetboot/internal/store"
)

// RoleMarker is the substring every usable server token carries.
const RoleMarker = ":server:"

// ErrInvalid is returned for a token that lacks the role marker. Callers
// treat it like an absent token: it may be mid-write.
var ErrInvalid = errors.New("cluster token has no server role marker")

// ClusterToken is an opaque join credential.
type ClusterToken string

// Valid reports whether the token carries the role marker. The rest of the
// token is not inspected.
func (t ClusterToken) Valid() bool {
	return strings.Contains(string(t), RoleMarker)
}

// Fingerprint returns a short digest of the token that is safe to log.
func (t ClusterToken) Fingerprint() string {
	if t == "" {
		return "none"
	}
	sum := blake2b.Sum256([]byte(t))
	return hex.EncodeToString(sum[:6])
}

// String hides the secret in formatted output.
func (t ClusterToken) String() string {
	return "token:" + t.Fingerprint()
}

// Parse trims surrounding whitespace (token files end in a newline) and
// validates the result.
func Parse(raw []byte) (ClusterToken, error) {
	t := ClusterToken(strings.TrimSpace(string(raw)))
	if !t.Valid() {
		return "", ErrInvalid
	}
	return t, nil
}

// Exchange moves the token through the shared store.
type Exchange struct {
	Store store.Store
}

// Fetch makes one attempt to read a valid token. It returns an error wrapping
// store.ErrNotFound when nothing was published, ErrInvalid for a malformed
// value, or the store error itself.
func (e Exchange) Fetch(ctx context.Context) (ClusterToken, error) {
	raw, err := e.Store.Get(ctx, store.KeyToken)
	if err != nil {
		return "", fmt.Errorf("failed to read cluster token: %w", err)
	}
	t, err := Parse(raw)
	if err != nil {
		return "", fmt.Errorf("stored cluster token rejected: %w", err)
	}
	return t, nil
}

// Existing returns a previously published valid token, if any. An absent or
// invalid token yields ok=false; store failures are returned.
func (e Exchange) Existing(ctx context.Context) (ClusterToken, bool, error) {
	t, err := e.Fetch(ctx)
	switch {
	case err == nil:
		return t, true, nil
	case errors.Is(err, store.ErrNotFound), errors.Is(err, ErrInvalid):
		return "", false, nil
	default:
		return "", false, err
	}
}

// Publish writes the token. Only valid tokens are published.
func (e Exchange) Publish(ctx context.Context, t ClusterToken) error {
	if !t.Valid() {
		return ErrInvalid
	}
	if _, err := e.Store.Put(ctx, store.KeyToken, []byte(t)); err != nil {
		return fmt.Errorf("failed to publish cluster token: %w", err)
	}
	return nil
}
