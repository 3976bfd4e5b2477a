package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminSet_IsAdmin(t *testing.T) {
	admins := NewAdminSet([]string{"admin@example.org", " second@example.org ", ""})

	tests := []struct {
		name string
		id   *Identity
		want bool
	}{
		{"nil identity", nil, false},
		{"anonymous", &Identity{UID: "a", Anonymous: true, Email: "admin@example.org"}, false},
		{"listed", &Identity{UID: "b", Email: "admin@example.org"}, true},
		{"trimmed config entry", &Identity{UID: "c", Email: "second@example.org"}, true},
		{"case differs", &Identity{UID: "d", Email: "Admin@example.org"}, false},
		{"not listed", &Identity{UID: "e", Email: "visitor@example.org"}, false},
		{"no email", &Identity{UID: "f"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, admins.IsAdmin(tt.id))
		})
	}
	assert.Equal(t, 2, admins.Len())
}

func TestUploaderKey(t *testing.T) {
	var nilID *Identity
	assert.Equal(t, "anon", nilID.UploaderKey())
	assert.Equal(t, "anon", (&Identity{}).UploaderKey())
	assert.Equal(t, "uid-1", (&Identity{UID: "uid-1"}).UploaderKey())
}

func TestStatic_Verify(t *testing.T) {
	p := Static{"tok": {UID: "u1", Anonymous: true}}

	id, err := p.Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UID)

	_, err = p.Verify(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
