package auth_test

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	authhttp "github.com/tanglebay/doorman/internal/auth/http"
	"github.com/tanglebay/doorman/internal/auth/service"
	"github.com/tanglebay/doorman/internal/auth/store/drivers/sqlite"
	"github.com/tanglebay/doorman/pkg/cryptox"
	"github.com/tanglebay/doorman/pkg/webauthn"
)

/*
 * End-to-end tests driving the public API through the authsdk client, with
 * the full router and a real sqlite database behind an in-process server.
 */

const (
	testPassword  = "correct horse battery"
	testRPID      = "127.0.0.1"
	serviceOrigin = "http://127.0.0.1"
)

// capturingMailer records emailed codes so tests can replay them. The server
// handles requests on its own goroutines, so access is locked.
type capturingMailer struct {
	mu                sync.Mutex
	verificationCodes []string
	resetCodes        []string
}

func (m *capturingMailer) SendVerificationCode(_ context.Context, _ string, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verificationCodes = append(m.verificationCodes, code)
}

func (m *capturingMailer) SendPasswordResetCode(_ context.Context, _ string, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetCodes = append(m.resetCodes, code)
}

func (m *capturingMailer) lastVerificationCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.verificationCodes)
	return m.verificationCodes[len(m.verificationCodes)-1]
}

func (m *capturingMailer) lastResetCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.resetCodes)
	return m.resetCodes[len(m.resetCodes)-1]
}

// setupAuthServer starts the full service over a throwaway database and
// returns its base URL plus the mail capture hook.
func setupAuthServer(t *testing.T) (string, *capturingMailer) {
	t.Helper()

	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "e2e.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	mailer := &capturingMailer{}
	logger := slog.New(slog.DiscardHandler)

	router := authhttp.NewRouter("e2e", st, logger, false)
	router.Sessions = &service.SessionService{Store: st}
	router.Users = &service.UserService{Store: st}
	router.Resets = &service.PasswordResetService{Store: st, Mailer: mailer}
	router.Verifications = &service.EmailVerificationService{Store: st, Mailer: mailer}
	router.TwoFactor = &service.TwoFactorService{Store: st}
	router.WebAuthn = &service.WebAuthnService{
		Store:          st,
		Challenges:     webauthn.NewChallengeStore(),
		RelyingPartyID: testRPID,
		Origin:         serviceOrigin,
	}
	router.ApplyRoutes()

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server.URL, mailer
}
