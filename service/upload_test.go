package service

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpload(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.svc.Upload(strings.NewReader("certificate body"), "diploma.pdf")
	require.NoError(t, err)
	assert.Equal(t, "diploma.pdf", result.Filename)
	assert.True(t, strings.HasPrefix(result.IpfsHash, "Qm"))

	// 同内容得到同一 cid
	again, err := env.svc.Upload(strings.NewReader("certificate body"), "copy.pdf")
	require.NoError(t, err)
	assert.Equal(t, result.IpfsHash, again.IpfsHash)
}

func TestUploadStoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.store.AddErr = errors.New("ipfs daemon unreachable")

	_, err := env.svc.Upload(strings.NewReader("x"), "a.pdf")
	require.Error(t, err)
	assert.Equal(t, KindStorage, KindOf(err))
}
