package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bayarwoi/wallet/auth"
	"github.com/bayarwoi/wallet/models"
	"github.com/bayarwoi/wallet/store/memory"
)

func newManager(t *testing.T) (*auth.Manager, *auth.Sessions) {
	t.Helper()
	sessions := auth.NewSessions()
	return auth.NewManager([]byte("test-secret"), memory.New(nil), sessions), sessions
}

func register(t *testing.T, m *auth.Manager) models.User {
	t.Helper()
	u, err := m.Register(context.Background(), models.RegisterInput{
		Email: "ayu@example.com", Password: "correct horse", Name: "Ayu",
	})
	require.NoError(t, err)
	return u
}

func TestLoginVerifyRoundTrip(t *testing.T) {
	m, _ := newManager(t)
	u := register(t, m)

	token, loggedIn, err := m.Login(context.Background(), models.LoginInput{
		Email: "ayu@example.com", Password: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, u.ID, loggedIn.ID)

	userID, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	m, _ := newManager(t)
	register(t, m)

	_, _, err := m.Login(context.Background(), models.LoginInput{
		Email: "ayu@example.com", Password: "wrong",
	})
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, _, err = m.Login(context.Background(), models.LoginInput{
		Email: "nobody@example.com", Password: "whatever",
	})
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	m, _ := newManager(t)
	register(t, m)

	_, err := m.Register(context.Background(), models.RegisterInput{
		Email: "ayu@example.com", Password: "another pass", Name: "Imposter",
	})
	require.ErrorIs(t, err, auth.ErrEmailTaken)
}

func TestLogoutRevokesToken(t *testing.T) {
	m, _ := newManager(t)
	register(t, m)

	token, _, err := m.Login(context.Background(), models.LoginInput{
		Email: "ayu@example.com", Password: "correct horse",
	})
	require.NoError(t, err)

	m.Logout(token)

	_, err = m.Verify(token)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestRefreshSwapsTokens(t *testing.T) {
	m, _ := newManager(t)
	u := register(t, m)

	token, _, err := m.Login(context.Background(), models.LoginInput{
		Email: "ayu@example.com", Password: "correct horse",
	})
	require.NoError(t, err)

	fresh, err := m.Refresh(token)
	require.NoError(t, err)
	assert.NotEqual(t, token, fresh)

	userID, err := m.Verify(fresh)
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)

	// the old token's session is gone
	_, err = m.Verify(token)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestSessionFeedDeliversOneEventPerChange(t *testing.T) {
	m, sessions := newManager(t)
	u := register(t, m)

	feed := sessions.OnChange()
	defer feed.Close()

	token, _, err := m.Login(context.Background(), models.LoginInput{
		Email: "ayu@example.com", Password: "correct horse",
	})
	require.NoError(t, err)

	ev := <-feed.C
	assert.Equal(t, auth.SessionSignedIn, ev.Kind)
	assert.Equal(t, u.ID, ev.UserID)

	fresh, err := m.Refresh(token)
	require.NoError(t, err)
	ev = <-feed.C
	assert.Equal(t, auth.SessionRefreshed, ev.Kind)

	m.Logout(fresh)
	ev = <-feed.C
	assert.Equal(t, auth.SessionSignedOut, ev.Kind)

	// logging out an already dead token produces nothing
	m.Logout(fresh)
	select {
	case ev := <-feed.C:
		t.Fatalf("unexpected extra event: %+v", ev)
	default:
	}
}
