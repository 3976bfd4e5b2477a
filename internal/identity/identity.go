// Package identity describes who is calling the board and whether they may
// moderate it.
package identity

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrInvalidToken is returned when a bearer token cannot be verified.
var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is the caller as reported by the identity provider.
type Identity struct {
	UID       string    `json:"uid"`
	Email     string    `json:"email,omitempty"`
	Anonymous bool      `json:"anonymous"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UploaderKey is the path segment uploads are filed under.
func (i *Identity) UploaderKey() string {
	if i == nil || i.UID == "" {
		return "anon"
	}
	return i.UID
}

// Provider verifies bearer tokens.
type Provider interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// AdminSet is the allow-list of administrator addresses. Matching is exact.
type AdminSet struct {
	emails map[string]struct{}
}

// NewAdminSet builds an allow-list from configured addresses.
func NewAdminSet(emails []string) AdminSet {
	set := AdminSet{emails: make(map[string]struct{}, len(emails))}
	for _, e := range emails {
		if e = strings.TrimSpace(e); e != "" {
			set.emails[e] = struct{}{}
		}
	}
	return set
}

// IsAdmin reports whether id is a signed-in, non-anonymous administrator.
func (s AdminSet) IsAdmin(id *Identity) bool {
	if id == nil || id.Anonymous || id.Email == "" {
		return false
	}
	_, ok := s.emails[id.Email]
	return ok
}

// Len returns the number of configured administrators.
func (s AdminSet) Len() int {
	return len(s.emails)
}

// Static is a fixed token table, used by tests and the local demo.
type Static map[string]Identity

func (s Static) Verify(_ context.Context, token string) (*Identity, error) {
	id, ok := s[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	return &id, nil
}
