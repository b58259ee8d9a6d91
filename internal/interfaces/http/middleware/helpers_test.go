package middleware

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backoffice/internal/infrastructure/auth"
	"github.com/procurement/backoffice/internal/infrastructure/config"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-the-panel-middleware"

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(newTestJWTConfigWithSecret(testSecret))
}

func newTestJWTConfigWithSecret(secret string) config.JWTConfig {
	return config.JWTConfig{Secret: secret, Issuer: "procurement-panel"}
}

func issueTestToken(t *testing.T, svc *auth.JWTService, actorID uuid.UUID, locale string) string {
	t.Helper()
	token, err := svc.Issue(auth.IssueInput{
		ActorID: actorID,
		Name:    "Procurement Officer",
		Locale:  locale,
		TTL:     time.Hour,
	})
	require.NoError(t, err)
	return token
}
