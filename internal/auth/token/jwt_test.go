package token

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdffeed/pdffeed/internal/domain"
)

func TestIssueParseRoundTrip(t *testing.T) {
	m := New("test-secret", "pdffeed", time.Hour)
	u := domain.User{ID: 7, Username: "alice", Email: "alice@x.com"}

	raw, issued, err := m.Issue(context.Background(), u)
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	require.NotEmpty(t, issued.JTI)

	parsed, err := m.Parse(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, issued.JTI, parsed.JTI)
	assert.Equal(t, domain.UserID(7), parsed.UserID)
	assert.Equal(t, "alice", parsed.Username)
	assert.Equal(t, "alice@x.com", parsed.Email)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	a := New("secret-a", "pdffeed", time.Hour)
	b := New("secret-b", "pdffeed", time.Hour)

	raw, _, err := a.Issue(context.Background(), domain.User{ID: 1, Username: "alice"})
	require.NoError(t, err)

	_, err = b.Parse(context.Background(), raw)
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	m := New("test-secret", "pdffeed", -time.Minute)

	raw, _, err := m.Issue(context.Background(), domain.User{ID: 1, Username: "alice"})
	require.NoError(t, err)

	_, err = m.Parse(context.Background(), raw)
	assert.Error(t, err)
}
