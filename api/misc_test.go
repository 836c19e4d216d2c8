package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.doJSON(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "healthy", body["status"])

	services := body["services"].(map[string]interface{})
	assert.Equal(t, "connected", services["blockchain"])
	assert.Equal(t, "available", services["ipfs"])
}

func TestStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice", "alice@example.com", "0x1111111111111111111111111111111111111111")
	cookie := env.login(t, "alice")

	w := env.doJSON(t, http.MethodPost, "/issue", map[string]string{
		"owner":           "0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1",
		"ipfs_hash":       "QmHash",
		"credential_type": "diploma",
	}, cookie)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.doJSON(t, http.MethodGet, "/stats", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.EqualValues(t, 1, body["total_users"])
	assert.EqualValues(t, 1, body["total_credentials"])
	assert.EqualValues(t, 0, body["total_verifications"])
}
