package mock

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"sync"

	"credential-proxy/chain"

	"github.com/ethereum/go-ethereum/common"
)

// Ledger 模拟链客户端，发行记录保存在内存中
// credentialId 由 (owner, ipfsHash, type, 序号) 哈希生成，模拟合约侧生成 id
type Ledger struct {
	mu      sync.Mutex
	seq     uint64
	block   uint64
	issued    map[[32]byte]*chain.CredentialInfo
	events    []chain.IssuedEvent
	IssueErr  error // 注入发行失败
	VerifyErr error // 注入查询失败
	// 记录最后一次发行的实际接收方地址，断言用
	LastOwner common.Address
}

func NewLedger() *Ledger {
	return &Ledger{
		issued: make(map[[32]byte]*chain.CredentialInfo),
	}
}

func (l *Ledger) IssueCredential(ctx context.Context, issuerKeyHex string, owner common.Address, ipfsHash, credentialType string) (*chain.IssueResult, error) {
	if l.IssueErr != nil {
		return nil, l.IssueErr
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	l.block++

	h := sha256.New()
	h.Write(owner.Bytes())
	h.Write([]byte(ipfsHash))
	h.Write([]byte(credentialType))
	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], l.seq)
	h.Write(seq[:])

	var id [32]byte
	copy(id[:], h.Sum(nil))

	issuer := common.BytesToAddress([]byte(issuerKeyHex))
	l.issued[id] = &chain.CredentialInfo{
		Owner:          owner,
		IpfsHash:       ipfsHash,
		CredentialType: credentialType,
		IssuedAt:       int64(1700000000 + l.seq),
		Issuer:         issuer,
	}

	txHash := common.BytesToHash(id[:8])
	l.events = append(l.events, chain.IssuedEvent{
		CredentialID: id,
		Owner:        owner,
		Issuer:       issuer,
		TxHash:       txHash,
		BlockNumber:  l.block,
	})
	l.LastOwner = owner

	return &chain.IssueResult{
		CredentialID: id,
		TxHash:       txHash,
		BlockNumber:  l.block,
	}, nil
}

func (l *Ledger) VerifyCredential(ctx context.Context, id [32]byte) (*chain.CredentialInfo, error) {
	if l.VerifyErr != nil {
		return nil, l.VerifyErr
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	info, ok := l.issued[id]
	if !ok {
		return nil, chain.ErrUnknownCredential
	}
	return info, nil
}

func (l *Ledger) FilterIssued(ctx context.Context, fromBlock int64) ([]chain.IssuedEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	events := make([]chain.IssuedEvent, 0, len(l.events))
	for _, ev := range l.events {
		if int64(ev.BlockNumber) >= fromBlock {
			events = append(events, ev)
		}
	}
	return events, nil
}

func (l *Ledger) Ping(ctx context.Context) error {
	return nil
}
