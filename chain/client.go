package chain

import (
	"context"
	"math/big"
	"strings"
	"time"

	"credential-proxy/config"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"
	"github.com/pkg/errors"
)

// CredentialRegistry 合约的两个入口 + 发行事件
// credentialId 由合约生成并通过事件携带，客户端永远不自行计算
const registryABI = `[
	{"type":"function","name":"issueCredential","stateMutability":"nonpayable","inputs":[{"name":"owner","type":"address"},{"name":"ipfsHash","type":"string"},{"name":"credentialType","type":"string"}],"outputs":[]},
	{"type":"function","name":"verifyCredential","stateMutability":"view","inputs":[{"name":"credentialId","type":"bytes32"}],"outputs":[{"name":"owner","type":"address"},{"name":"ipfsHash","type":"string"},{"name":"credentialType","type":"string"},{"name":"issuedAt","type":"uint256"},{"name":"issuer","type":"address"}]},
	{"type":"event","name":"CredentialIssued","anonymous":false,"inputs":[{"name":"credentialId","type":"bytes32","indexed":true},{"name":"owner","type":"address","indexed":true},{"name":"issuer","type":"address","indexed":true}]}
]`

const eventCredentialIssued = "CredentialIssued"

var (
	// 交易确认成功但回执中没有发行事件，说明合约行为异常
	ErrEventMissing = errors.New("credential issued event not found in receipt")
	// 链上不存在该凭证
	ErrUnknownCredential = errors.New("credential not found on chain")
)

type Client struct {
	eth            *ethclient.Client
	registry       abi.ABI
	contract       common.Address
	chainID        *big.Int
	gasLimit       uint64
	gasPrice       *big.Int
	confirmTimeout time.Duration
}

// IssueResult 发行交易的确认结果
type IssueResult struct {
	CredentialID [32]byte
	TxHash       common.Hash
	BlockNumber  uint64
}

// CredentialInfo verifyCredential 的链上返回
type CredentialInfo struct {
	Owner          common.Address
	IpfsHash       string
	CredentialType string
	IssuedAt       int64
	Issuer         common.Address
}

// IssuedEvent 对账任务扫描到的历史发行事件
type IssuedEvent struct {
	CredentialID [32]byte
	Owner        common.Address
	Issuer       common.Address
	TxHash       common.Hash
	BlockNumber  uint64
}

var cli *Client

func newClient(cfg config.Chain) (*Client, error) {
	eth, err := ethclient.Dial(cfg.RpcURL)
	if err != nil {
		return nil, errors.Wrap(err, "dial chain rpc")
	}

	registry, err := abi.JSON(strings.NewReader(registryABI))
	if err != nil {
		return nil, errors.Wrap(err, "parse registry abi")
	}

	var gasPrice *big.Int
	if cfg.GasPriceGwei > 0 {
		gasPrice = new(big.Int).Mul(big.NewInt(cfg.GasPriceGwei), big.NewInt(params.GWei))
	}

	return &Client{
		eth:            eth,
		registry:       registry,
		contract:       common.HexToAddress(cfg.ContractAddress),
		chainID:        big.NewInt(cfg.ChainID),
		gasLimit:       cfg.GasLimit,
		gasPrice:       gasPrice,
		confirmTimeout: time.Duration(cfg.ConfirmTimeoutSec) * time.Second,
	}, nil
}

// Init 初始化全局链客户端，并校验节点可达、链 id 匹配
func Init() error {
	if cli != nil {
		return nil
	}

	c, err := newClient(config.GetConfigInstance().Chain)
	if err != nil {
		return err
	}

	remote, err := c.eth.ChainID(context.Background())
	if err != nil {
		return errors.Wrap(err, "chain rpc unreachable")
	}
	if remote.Cmp(c.chainID) != 0 {
		return errors.Errorf("chain id mismatch: config %s, node %s", c.chainID, remote)
	}

	cli = c
	return nil
}

// GetClient 获取链客户端实例
func GetClient() *Client {
	if cli == nil {
		panic("chain client init error")
	}
	return cli
}

// Ping 校验节点是否可达
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.eth.ChainID(ctx)
	return err
}

// IssueCredential 发行凭证：
// 1. 用发行方私钥和当前 nonce 构造并签名交易；
// 2. 同步等待交易上链确认；
// 3. 从回执事件中提取 credentialId，事件是 id 的唯一来源；
func (c *Client) IssueCredential(ctx context.Context, issuerKeyHex string, owner common.Address, ipfsHash, credentialType string) (*IssueResult, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(issuerKeyHex, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "parse issuer private key")
	}
	from := crypto.PubkeyToAddress(key.PublicKey)

	nonce, err := c.eth.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, errors.Wrap(err, "fetch nonce")
	}

	gasPrice := c.gasPrice
	if gasPrice == nil {
		gasPrice, err = c.eth.SuggestGasPrice(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "suggest gas price")
		}
	}

	input, err := c.registry.Pack("issueCredential", owner, ipfsHash, credentialType)
	if err != nil {
		return nil, errors.Wrap(err, "pack issueCredential")
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &c.contract,
		Value:    big.NewInt(0),
		Gas:      c.gasLimit,
		GasPrice: gasPrice,
		Data:     input,
	})

	signed, err := types.SignTx(tx, types.NewEIP155Signer(c.chainID), key)
	if err != nil {
		return nil, errors.Wrap(err, "sign transaction")
	}

	err = c.eth.SendTransaction(ctx, signed)
	if err != nil {
		return nil, errors.Wrap(err, "send transaction")
	}

	waitCtx := ctx
	if c.confirmTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, c.confirmTimeout)
		defer cancel()
	}

	receipt, err := bind.WaitMined(waitCtx, c.eth, signed)
	if err != nil {
		return nil, errors.Wrap(err, "wait transaction mined")
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, errors.Errorf("transaction %s reverted", signed.Hash().Hex())
	}

	id, ok := c.extractIssuedID(receipt.Logs)
	if !ok {
		return nil, ErrEventMissing
	}

	return &IssueResult{
		CredentialID: id,
		TxHash:       signed.Hash(),
		BlockNumber:  receipt.BlockNumber.Uint64(),
	}, nil
}

// extractIssuedID 从回执日志中找到本合约的 CredentialIssued 事件
func (c *Client) extractIssuedID(logs []*types.Log) ([32]byte, bool) {
	topic := c.registry.Events[eventCredentialIssued].ID
	for _, lg := range logs {
		if lg.Address != c.contract {
			continue
		}
		if len(lg.Topics) < 2 || lg.Topics[0] != topic {
			continue
		}
		return [32]byte(lg.Topics[1]), true
	}
	return [32]byte{}, false
}

// VerifyCredential 只读查询凭证，id 未知时返回 ErrUnknownCredential
func (c *Client) VerifyCredential(ctx context.Context, id [32]byte) (*CredentialInfo, error) {
	input, err := c.registry.Pack("verifyCredential", id)
	if err != nil {
		return nil, errors.Wrap(err, "pack verifyCredential")
	}

	out, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &c.contract, Data: input}, nil)
	if err != nil {
		// 合约对未知 id 直接 revert
		if strings.Contains(err.Error(), "revert") {
			return nil, ErrUnknownCredential
		}
		return nil, errors.Wrap(err, "call verifyCredential")
	}

	vals, err := c.registry.Unpack("verifyCredential", out)
	if err != nil {
		return nil, errors.Wrap(err, "unpack verifyCredential")
	}
	if len(vals) != 5 {
		return nil, errors.Errorf("verifyCredential returned %d values, want 5", len(vals))
	}

	info := &CredentialInfo{
		Owner:          vals[0].(common.Address),
		IpfsHash:       vals[1].(string),
		CredentialType: vals[2].(string),
		IssuedAt:       vals[3].(*big.Int).Int64(),
		Issuer:         vals[4].(common.Address),
	}

	if info.Owner == (common.Address{}) {
		return nil, ErrUnknownCredential
	}

	return info, nil
}

// FilterIssued 扫描指定高度之后的发行事件，供对账任务补齐镜像
func (c *Client) FilterIssued(ctx context.Context, fromBlock int64) ([]IssuedEvent, error) {
	if fromBlock < 0 {
		fromBlock = 0
	}

	logs, err := c.eth.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: big.NewInt(fromBlock),
		Addresses: []common.Address{c.contract},
		Topics:    [][]common.Hash{{c.registry.Events[eventCredentialIssued].ID}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "filter issued events")
	}

	events := make([]IssuedEvent, 0, len(logs))
	for _, lg := range logs {
		if len(lg.Topics) < 4 {
			continue
		}
		events = append(events, IssuedEvent{
			CredentialID: [32]byte(lg.Topics[1]),
			Owner:        common.BytesToAddress(lg.Topics[2].Bytes()),
			Issuer:       common.BytesToAddress(lg.Topics[3].Bytes()),
			TxHash:       lg.TxHash,
			BlockNumber:  lg.BlockNumber,
		})
	}

	return events, nil
}
