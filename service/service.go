package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"credential-proxy/chain"
	"credential-proxy/db/model"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Ledger 链客户端入口，测试中以 mock 替换
type Ledger interface {
	IssueCredential(ctx context.Context, issuerKeyHex string, owner common.Address, ipfsHash, credentialType string) (*chain.IssueResult, error)
	VerifyCredential(ctx context.Context, id [32]byte) (*chain.CredentialInfo, error)
	FilterIssued(ctx context.Context, fromBlock int64) ([]chain.IssuedEvent, error)
	Ping(ctx context.Context) error
}

// ContentStore 内容寻址存储入口
type ContentStore interface {
	Add(r io.Reader) (string, error)
	GatewayURL(cid string) string
}

// Sender 邮件通知入口，所有调用都是 best effort
type Sender interface {
	Send(to, subject, body string) error
}

type Options struct {
	// 前端地址，拼接 verify url
	FrontendURL string
	// 会话有效期
	SessionTTL time.Duration
	// 对账扫描的默认起始区块
	DefaultBlock int64
}

// Service 凭证发行/验证的协调层
// 链上写入是唯一权威，镜像/流水/通知均为 best effort
type Service struct {
	db     *gorm.DB
	ledger Ledger
	store  ContentStore
	mailer Sender
	log    *zap.Logger
	opts   Options
}

func New(db *gorm.DB, ledger Ledger, store ContentStore, mailer Sender, log *zap.Logger, opts Options) *Service {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	return &Service{
		db:     db,
		ledger: ledger,
		store:  store,
		mailer: mailer,
		log:    log,
		opts:   opts,
	}
}

// Ledger 暴露给 api 层做健康检查
func (s *Service) Ping(ctx context.Context) error {
	return s.ledger.Ping(ctx)
}

func (s *Service) verifyURL(idHex string) string {
	return fmt.Sprintf("%s/verify/%s", strings.TrimRight(s.opts.FrontendURL, "/"), idHex)
}

// logHistory 落一条操作流水，失败只记日志不上抛
func (s *Service) logHistory(ctx context.Context, credentialID, action string, userID *int, result *bool, ip string) {
	entry := &model.CredentialHistory{
		CredentialID:       credentialID,
		ActionType:         action,
		PerformedByUserID:  userID,
		VerificationResult: result,
		PerformedByIP:      ip,
		PerformedAt:        time.Now(),
	}

	err := s.db.WithContext(ctx).Table(model.TableCredentialHistory).Create(entry).Error
	if err != nil {
		s.log.Warn("history write failed",
			zap.String("credential_id", credentialID),
			zap.String("action", action),
			zap.Error(err))
	}
}

// sendMail 发送通知，失败只记日志
func (s *Service) sendMail(to, subject, body string) {
	if to == "" {
		return
	}
	err := s.mailer.Send(to, subject, body)
	if err != nil {
		s.log.Warn("notification failed", zap.String("to", to), zap.Error(err))
	}
}
