package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awbooks/awbooks-server/internal/domain"
	"github.com/awbooks/awbooks-server/internal/errors"
	"github.com/awbooks/awbooks-server/internal/id"
	"github.com/awbooks/awbooks-server/internal/identity"
)

func identityRejected() error {
	return errors.InvalidIssuer("token rejected")
}

func TestBeginLogin_StoresState(t *testing.T) {
	env := setupServiceTest(t)
	sess := &domain.WebSession{ID: "s"}

	state, err := env.identity.BeginLogin(sess)
	require.NoError(t, err)
	assert.Len(t, state, id.StateLength)
	assert.Equal(t, state, sess.State)

	again, err := env.identity.BeginLogin(sess)
	require.NoError(t, err)
	assert.NotEqual(t, state, again, "each login page gets a fresh state")
}

func TestConnect_StateMismatchNeverCallsVerifier(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	tests := []struct {
		name         string
		sessionState string
		sentState    string
	}{
		{"wrong state", "ABCDEFGHIJKLMNOPQRSTUVWXYZ012345", "ZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZ"},
		{"no pending state", "", "ABCDEFGHIJKLMNOPQRSTUVWXYZ012345"},
		{"empty sent state", "ABCDEFGHIJKLMNOPQRSTUVWXYZ012345", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := &domain.WebSession{ID: "s", State: tt.sessionState}
			before := *sess

			_, err := env.identity.Connect(ctx, sess, tt.sentState, "ada-token")
			assert.ErrorIs(t, err, errors.ErrInvalidSession)
			assert.Equal(t, before, *sess, "session untouched")
		})
	}

	assert.Zero(t, env.verifier.calls)
	_, err := env.store.GetUserByEmail(ctx, "ada@example.com")
	assert.Error(t, err, "no user created")
}

func TestConnect_RejectedToken(t *testing.T) {
	env := setupServiceTest(t)
	sess := &domain.WebSession{ID: "s"}
	state, err := env.identity.BeginLogin(sess)
	require.NoError(t, err)

	_, err = env.identity.Connect(context.Background(), sess, state, "forged-token")
	assert.ErrorIs(t, err, errors.ErrInvalidIssuer)
	assert.Equal(t, 1, env.verifier.calls)
	assert.False(t, sess.IsActive())
	assert.Empty(t, sess.Email)
}

func TestConnect_ProviderUnreachable(t *testing.T) {
	env := setupServiceTest(t)
	env.verifier.err = errors.New("dial tcp: connection refused")
	sess := &domain.WebSession{ID: "s"}
	state, _ := env.identity.BeginLogin(sess)

	_, err := env.identity.Connect(context.Background(), sess, state, "ada-token")
	assert.ErrorIs(t, err, errors.ErrUnavailable)
	assert.Equal(t, 1, env.verifier.calls, "single attempt")
}

func TestConnect_CreatesUserAndStampsSession(t *testing.T) {
	env := setupServiceTest(t)
	sess := &domain.WebSession{ID: "s"}
	state, _ := env.identity.BeginLogin(sess)

	user, err := env.identity.Connect(context.Background(), sess, state, "ada-token")
	require.NoError(t, err)

	assert.NotZero(t, user.ID)
	assert.Equal(t, user.ID, sess.UserID)
	assert.Equal(t, "Ada Lovelace", sess.Username)
	assert.Equal(t, "ada@example.com", sess.Email)
	assert.Equal(t, "https://example.com/ada.png", sess.Picture)
	assert.Equal(t, "g-ada", sess.ExternalID)
	assert.Empty(t, sess.State, "state is single use")
}

func TestConnect_SameEmailLinksSameUser(t *testing.T) {
	env := setupServiceTest(t)

	first := env.login(t, "ada-token")
	second := env.login(t, "ada-token")
	other := env.login(t, "grace-token")

	assert.Equal(t, first.UserID, second.UserID)
	assert.NotEqual(t, first.UserID, other.UserID)
}

func TestConnect_ReplayedStateIsRejected(t *testing.T) {
	env := setupServiceTest(t)
	sess := &domain.WebSession{ID: "s"}
	state, _ := env.identity.BeginLogin(sess)

	_, err := env.identity.Connect(context.Background(), sess, state, "ada-token")
	require.NoError(t, err)

	_, err = env.identity.Connect(context.Background(), sess, state, "grace-token")
	assert.ErrorIs(t, err, errors.ErrInvalidSession)
	assert.Equal(t, 1, env.verifier.calls)
}

func TestConnect_LongNameIsTruncated(t *testing.T) {
	env := setupServiceTest(t)
	env.verifier.claims["long-token"] = &identity.Claims{Subject: "g-long", Name: strings.Repeat("é", 80), Email: "long@example.com"}
	sess := env.login(t, "long-token")

	u, err := env.store.GetUser(context.Background(), sess.UserID)
	require.NoError(t, err)
	assert.Equal(t, 64, len([]rune(u.Name)))
}

func TestDisconnect(t *testing.T) {
	env := setupServiceTest(t)
	sess := env.login(t, "ada-token")

	assert.True(t, env.identity.Disconnect(sess))
	assert.False(t, sess.IsActive())
	assert.Empty(t, sess.Username)
	assert.Empty(t, sess.Email)
	assert.Empty(t, sess.Picture)
	assert.Empty(t, sess.ExternalID)

	assert.False(t, env.identity.Disconnect(sess))
	assert.False(t, env.identity.Disconnect(nil))
}
