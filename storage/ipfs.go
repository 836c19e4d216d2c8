package storage

import (
	"fmt"
	"io"
	"strings"

	shell "github.com/ipfs/go-ipfs-api"
	"github.com/pkg/errors"
)

// IPFS 内容寻址存储客户端，上传后以内容 hash 作为检索 key
type IPFS struct {
	sh      *shell.Shell
	gateway string
}

func NewIPFS(apiAddr, gateway string) *IPFS {
	return &IPFS{
		sh:      shell.NewShell(apiAddr),
		gateway: strings.TrimRight(gateway, "/"),
	}
}

// Add 上传内容并返回 cid
func (s *IPFS) Add(r io.Reader) (string, error) {
	cid, err := s.sh.Add(r)
	if err != nil {
		return "", errors.Wrap(err, "ipfs add")
	}
	return cid, nil
}

// GatewayURL 拼接公共网关的访问地址
func (s *IPFS) GatewayURL(cid string) string {
	return fmt.Sprintf("%s/ipfs/%s", s.gateway, cid)
}
