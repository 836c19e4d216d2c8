package chain

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testContract = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

func newTestClient(t *testing.T) *Client {
	t.Helper()

	registry, err := abi.JSON(strings.NewReader(registryABI))
	require.NoError(t, err)

	return &Client{
		registry: registry,
		contract: testContract,
	}
}

func issuedLog(c *Client, addr common.Address, id [32]byte) *types.Log {
	return &types.Log{
		Address: addr,
		Topics: []common.Hash{
			c.registry.Events[eventCredentialIssued].ID,
			common.Hash(id),
			common.HexToHash("0x01"),
			common.HexToHash("0x02"),
		},
	}
}

func TestExtractIssuedID(t *testing.T) {
	c := newTestClient(t)

	var want [32]byte
	copy(want[:], []byte("credential-id-from-the-contract!"))

	id, ok := c.extractIssuedID([]*types.Log{issuedLog(c, testContract, want)})
	require.True(t, ok)
	assert.Equal(t, want, id)
}

func TestExtractIssuedIDSkipsForeignLogs(t *testing.T) {
	c := newTestClient(t)

	var want [32]byte
	want[0] = 0xff

	logs := []*types.Log{
		// 其他合约发出的同名事件
		issuedLog(c, common.HexToAddress("0x1234567890123456789012345678901234567890"), [32]byte{0x01}),
		// 本合约的其他事件
		{
			Address: testContract,
			Topics:  []common.Hash{common.HexToHash("0xdead"), common.HexToHash("0x01")},
		},
		issuedLog(c, testContract, want),
	}

	id, ok := c.extractIssuedID(logs)
	require.True(t, ok)
	assert.Equal(t, want, id)
}

func TestExtractIssuedIDMissing(t *testing.T) {
	c := newTestClient(t)

	_, ok := c.extractIssuedID(nil)
	assert.False(t, ok)

	// topic 数量不足的残缺日志
	_, ok = c.extractIssuedID([]*types.Log{{
		Address: testContract,
		Topics:  []common.Hash{c.registry.Events[eventCredentialIssued].ID},
	}})
	assert.False(t, ok)
}

func TestRegistryABIPacksCalls(t *testing.T) {
	c := newTestClient(t)

	_, err := c.registry.Pack("issueCredential",
		common.HexToAddress("0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1"), "QmHash", "diploma")
	require.NoError(t, err)

	var id [32]byte
	_, err = c.registry.Pack("verifyCredential", id)
	require.NoError(t, err)
}
