package service

import (
	"context"
	"testing"
	"time"

	"credential-proxy/db/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecentActivityWelcomeWhenEmpty(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "alice@example.com", "0x1111111111111111111111111111111111111111")

	recent, err := env.svc.RecentActivity(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, recent.Activities, 1)
	assert.Equal(t, "welcome", recent.Activities[0].ActionType)
	assert.Equal(t, 1, recent.TotalCount)
}

func TestRecentActivityAfterIssueAndVerify(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "alice@example.com", "0x1111111111111111111111111111111111111111")
	bob := env.createUser(t, "bob", "bob@example.com", ownerAddr)

	issued := issueOne(t, env, testIssuer(alice), "bob@example.com")
	_, err := env.svc.Verify(context.Background(), issued.CredentialID, "10.0.0.1")
	require.NoError(t, err)

	// 发行方视角：自己发行的凭证上发生的动作全部可见
	recent, err := env.svc.RecentActivity(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, recent.Activities, 2)
	actions := map[string]bool{}
	for _, entry := range recent.Activities {
		actions[entry.ActionType] = true
		assert.Equal(t, issued.CredentialID, entry.CredentialID)
		assert.Equal(t, "diploma", entry.CredentialType)
	}
	assert.True(t, actions[model.ActionIssued])
	assert.True(t, actions[model.ActionVerified])

	// 持有方视角：owner_identifier 命中自己邮箱的凭证也可见
	recent, err = env.svc.RecentActivity(context.Background(), bob.ID)
	require.NoError(t, err)
	require.Len(t, recent.Activities, 2)
}

func TestRecentActivityUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.RecentActivity(context.Background(), 999)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestActivityStats(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "alice@example.com", "0x1111111111111111111111111111111111111111")

	issued := issueOne(t, env, testIssuer(alice), ownerAddr)
	_, err := env.svc.Verify(context.Background(), issued.CredentialID, "10.0.0.1")
	require.NoError(t, err)
	_, err = env.svc.Verify(context.Background(), issued.CredentialID, "10.0.0.1")
	require.NoError(t, err)

	stats, err := env.svc.ActivityStats(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalActivities)
	assert.EqualValues(t, 1, stats.IssuedCount)
	assert.EqualValues(t, 2, stats.VerifiedCount)
	assert.EqualValues(t, 0, stats.ViewedCount)
	assert.EqualValues(t, 3, stats.TodayCount)
	assert.EqualValues(t, 3, stats.WeekCount)
}

func TestUserCredentials(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "alice@example.com", "0x1111111111111111111111111111111111111111")
	bob := env.createUser(t, "bob", "bob@example.com", ownerAddr)

	byEmail := issueOne(t, env, testIssuer(alice), "bob@example.com")
	byAddr := issueOne(t, env, testIssuer(alice), ownerAddr)

	// 发行方两条 issued，零条 owned
	creds, err := env.svc.UserCredentials(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, creds.Issued, 2)
	assert.Empty(t, creds.Owned)
	assert.NotEmpty(t, creds.Issued[0].QRCode)

	// 持有方按邮箱和链地址各命中一条
	creds, err = env.svc.UserCredentials(context.Background(), bob.ID)
	require.NoError(t, err)
	assert.Empty(t, creds.Issued)
	require.Len(t, creds.Owned, 2)

	got := map[string]bool{}
	for _, owned := range creds.Owned {
		got[owned.CredentialID] = true
		assert.Equal(t, "alice", owned.IssuerName)
		assert.Equal(t, model.CredentialStatusActive, owned.Status)
	}
	assert.True(t, got[byEmail.CredentialID])
	assert.True(t, got[byAddr.CredentialID])
}

func TestGlobalStats(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "alice@example.com", "0x1111111111111111111111111111111111111111")

	issued := issueOne(t, env, testIssuer(alice), ownerAddr)
	_, err := env.svc.Verify(context.Background(), issued.CredentialID, "10.0.0.1")
	require.NoError(t, err)

	// 一条 24h 之外的历史验证
	old := true
	entry := &model.CredentialHistory{
		CredentialID:       issued.CredentialID,
		ActionType:         model.ActionVerified,
		VerificationResult: &old,
		PerformedAt:        time.Now().Add(-48 * time.Hour),
	}
	require.NoError(t, env.db.Table(model.TableCredentialHistory).Create(entry).Error)

	stats, err := env.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalUsers)
	assert.EqualValues(t, 1, stats.TotalCredentials)
	assert.EqualValues(t, 2, stats.TotalVerifications)
	assert.EqualValues(t, 1, stats.Verifications24h)
}
