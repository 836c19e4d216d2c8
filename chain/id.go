package chain

import (
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

// 凭证 id 在边界上以不带 0x 前缀的 hex 传输，链上为定宽 bytes32

const credentialIDLen = 32

// DecodeCredentialID 解析 hex 形式的凭证 id，长度或字符非法直接报错
func DecodeCredentialID(s string) ([32]byte, error) {
	var id [32]byte

	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id, errors.Wrap(err, "credential id is not valid hex")
	}
	if len(raw) != credentialIDLen {
		return id, errors.Errorf("credential id must be %d bytes, got %d", credentialIDLen, len(raw))
	}

	copy(id[:], raw)
	return id, nil
}

// EncodeCredentialID hex 编码，不带 0x 前缀
func EncodeCredentialID(id [32]byte) string {
	return hex.EncodeToString(id[:])
}
