package mock

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sync"
)

// ContentStore 模拟内容寻址存储，cid 为内容哈希
type ContentStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	// 注入上传失败
	AddErr error
}

func NewContentStore() *ContentStore {
	return &ContentStore{
		blobs: make(map[string][]byte),
	}
}

func (s *ContentStore) Add(r io.Reader) (string, error) {
	if s.AddErr != nil {
		return "", s.AddErr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(data)
	cid := "Qm" + hex.EncodeToString(sum[:16])

	s.mu.Lock()
	s.blobs[cid] = data
	s.mu.Unlock()

	return cid, nil
}

func (s *ContentStore) GatewayURL(cid string) string {
	return fmt.Sprintf("https://ipfs.io/ipfs/%s", cid)
}

// Sender 模拟邮件发送，记录所有投递
type Sender struct {
	mu   sync.Mutex
	Sent []SentMail
	// 注入发送失败
	SendErr error
}

type SentMail struct {
	To      string
	Subject string
	Body    string
}

func NewSender() *Sender {
	return &Sender{}
}

func (m *Sender) Send(to, subject, body string) error {
	if m.SendErr != nil {
		return m.SendErr
	}

	m.mu.Lock()
	m.Sent = append(m.Sent, SentMail{To: to, Subject: subject, Body: body})
	m.mu.Unlock()

	return nil
}
