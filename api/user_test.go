package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserEndpointsRequireLogin(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{
		"/user/1/recent-activity",
		"/user/1/activity-stats",
		"/user/1/credentials",
	} {
		w := env.doJSON(t, http.MethodGet, path, nil, nil)
		require.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Equal(t, "auth_error", decodeBody(t, w)["code"], path)
	}
}

func TestRecentActivityEndpoint(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "alice@example.com", "0x1111111111111111111111111111111111111111")
	cookie := env.login(t, "alice")

	w := env.doJSON(t, http.MethodGet, fmt.Sprintf("/user/%d/recent-activity", alice.ID), nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.EqualValues(t, 1, body["total_count"])
}

func TestRecentActivityForbiddenForOtherUser(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice", "alice@example.com", "0x1111111111111111111111111111111111111111")
	bob := env.createUser(t, "bob", "bob@example.com", "0x2222222222222222222222222222222222222222")
	cookie := env.login(t, "alice")

	w := env.doJSON(t, http.MethodGet, fmt.Sprintf("/user/%d/recent-activity", bob.ID), nil, cookie)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", decodeBody(t, w)["code"])

	w = env.doJSON(t, http.MethodGet, fmt.Sprintf("/user/%d/activity-stats", bob.ID), nil, cookie)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestActivityStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "alice@example.com", "0x1111111111111111111111111111111111111111")
	cookie := env.login(t, "alice")

	w := env.doJSON(t, http.MethodPost, "/issue", map[string]string{
		"owner":           "0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1",
		"ipfs_hash":       "QmHash",
		"credential_type": "diploma",
	}, cookie)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.doJSON(t, http.MethodGet, fmt.Sprintf("/user/%d/activity-stats", alice.ID), nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.EqualValues(t, 1, body["issued_count"])
	assert.EqualValues(t, 1, body["total_activities"])
}

// 凭证列表可以查看他人的，历史行为如此
func TestUserCredentialsEndpointAllowsOtherUser(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice", "alice@example.com", "0x1111111111111111111111111111111111111111")
	bob := env.createUser(t, "bob", "bob@example.com", "0x2222222222222222222222222222222222222222")
	cookie := env.login(t, "alice")

	w := env.doJSON(t, http.MethodGet, fmt.Sprintf("/user/%d/credentials", bob.ID), nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestUserEndpointInvalidID(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice", "alice@example.com", "0x1111111111111111111111111111111111111111")
	cookie := env.login(t, "alice")

	w := env.doJSON(t, http.MethodGet, "/user/abc/credentials", nil, cookie)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decodeBody(t, w)["code"])
}
