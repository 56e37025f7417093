package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedback-hub/backend/pkg/logger"
)

func TestDisabledManagerReadsEnvironment(t *testing.T) {
	t.Setenv("AI_API_TOKEN", "env-token")

	m, err := NewVaultManager(VaultConfig{Enabled: false}, logger.Nop())
	require.NoError(t, err)

	got, err := m.GetSecret(context.Background(), KeyAIAPIToken)
	require.NoError(t, err)
	assert.Equal(t, "env-token", got)

	assert.Equal(t, "fallback", m.GetSecretWithDefault(context.Background(), "not-set-anywhere", "fallback"))
}

func TestEnabledManagerRequiresAddressAndToken(t *testing.T) {
	_, err := NewVaultManager(VaultConfig{Enabled: true, Token: "t"}, logger.Nop())
	assert.ErrorIs(t, err, ErrNoVaultAddress)

	_, err = NewVaultManager(VaultConfig{Enabled: true, Address: "http://127.0.0.1:8200"}, logger.Nop())
	assert.ErrorIs(t, err, ErrNoVaultToken)
}

func TestVaultManagerReadsKVv2(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "/v1/secret/data/feedback-hub", r.URL.Path)
		assert.Equal(t, "root", r.Header.Get("X-Vault-Token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": {
				"data": {"ai-api-token": "vault-token"},
				"metadata": {"created_time": "2025-11-18T14:00:00Z", "deletion_time": "", "destroyed": false, "version": 1}
			}
		}`))
	}))
	defer srv.Close()

	m, err := NewVaultManager(VaultConfig{Enabled: true, Address: srv.URL, Token: "root"}, logger.Nop())
	require.NoError(t, err)

	ctx := context.Background()
	got, err := m.GetSecret(ctx, KeyAIAPIToken)
	require.NoError(t, err)
	assert.Equal(t, "vault-token", got)

	// second read is served from cache
	_, err = m.GetSecret(ctx, KeyAIAPIToken)
	require.NoError(t, err)
	assert.Equal(t, 1, hits)

	// keys missing in vault fall back to the environment
	t.Setenv("DB_PASSWORD", "from-env")
	got, err = m.GetSecret(ctx, KeyDBPassword)
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)
}
