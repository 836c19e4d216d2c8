package service

import (
	"context"

	"credential-proxy/chain"
	"credential-proxy/db/model"
	"credential-proxy/qr"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 镜像表与发行方的联查结果
type mirrorRow struct {
	OwnerIdentifier string
	OwnerType       string
	TransactionHash string
	Username        *string
	Email           *string
}

// Verify 验证凭证：
// 1. id 必须是定宽 hex，解码失败直接判 malformed；
// 2. 以链上只读查询为准，镜像只做补充展示，二者不一致时链上胜出；
// 3. 无论成败都落一条 verified 流水（含解码失败，这一行为与历史一致）；
func (s *Service) Verify(ctx context.Context, idHex, ip string) (*VerifyResponse, error) {
	failed := false

	id, err := chain.DecodeCredentialID(idHex)
	if err != nil {
		s.logHistory(ctx, idHex, model.ActionVerified, nil, &failed, ip)
		return nil, WrapE(err, KindMalformedID, "credential id is malformed")
	}

	info, err := s.ledger.VerifyCredential(ctx, id)
	if err != nil {
		s.logHistory(ctx, idHex, model.ActionVerified, nil, &failed, ip)
		if errors.Is(err, chain.ErrUnknownCredential) {
			return nil, WrapE(err, KindNotFound, "credential not found")
		}
		return nil, WrapE(err, KindLedger, "ledger query failed")
	}

	resp := &VerifyResponse{
		Owner:          info.Owner.Hex(),
		Issuer:         info.Issuer.Hex(),
		IpfsHash:       info.IpfsHash,
		CredentialType: info.CredentialType,
		Timestamp:      info.IssuedAt,
	}

	mirror, found := s.lookupMirror(ctx, idHex)
	if found {
		resp.OwnerIdentifier = mirror.OwnerIdentifier
		resp.OwnerType = mirror.OwnerType
		resp.TransactionHash = mirror.TransactionHash
		if mirror.Username != nil {
			resp.IssuerName = *mirror.Username
		}
		if mirror.Email != nil {
			resp.IssuerEmail = *mirror.Email
		}
	}

	resp.OwnerName = s.resolveOwnerName(ctx, mirror, found, info.Owner.Hex())

	ok := true
	s.logHistory(ctx, idHex, model.ActionVerified, nil, &ok, ip)

	resp.VerifyURL = s.verifyURL(idHex)
	resp.IpfsURL = s.store.GatewayURL(info.IpfsHash)
	resp.QRCode, err = qr.Base64PNG(resp.IpfsURL)
	if err != nil {
		s.log.Warn("qr generation failed", zap.String("credential_id", idHex), zap.Error(err))
	}

	return resp, nil
}

// CredentialQRImage 按凭证 id 生成文档访问地址的二维码图片，先回链校验 id 存在
func (s *Service) CredentialQRImage(ctx context.Context, idHex string) ([]byte, error) {
	id, err := chain.DecodeCredentialID(idHex)
	if err != nil {
		return nil, WrapE(err, KindMalformedID, "credential id is malformed")
	}

	info, err := s.ledger.VerifyCredential(ctx, id)
	if err != nil {
		if errors.Is(err, chain.ErrUnknownCredential) {
			return nil, WrapE(err, KindNotFound, "credential not found")
		}
		return nil, WrapE(err, KindLedger, "ledger query failed")
	}

	png, err := qr.PNG(s.store.GatewayURL(info.IpfsHash))
	if err != nil {
		return nil, WrapE(err, KindInternal, "qr generation failed")
	}

	return png, nil
}

func (s *Service) lookupMirror(ctx context.Context, idHex string) (*mirrorRow, bool) {
	var row mirrorRow
	err := s.db.WithContext(ctx).Table(model.TableCredential+" c").
		Select("c.owner_identifier, c.owner_type, c.transaction_hash, u.username, u.email").
		Joins("LEFT JOIN "+model.TableUser+" u ON c.issuer_user_id = u.id").
		Where("c.credential_id = ?", idHex).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false
	}
	if err != nil {
		s.log.Warn("mirror lookup failed", zap.String("credential_id", idHex), zap.Error(err))
		return nil, false
	}
	return &row, true
}

// resolveOwnerName 接收方显示名的宽松解析链，按序尝试，第一个命中即返回：
// a. 镜像记录的接收方标识是邮箱时，按邮箱查注册用户；
// b. 按链上 owner 地址查注册用户；
// c. 镜像原始标识兜底按用户名/邮箱再查一次；
// 全部未命中返回空串，不视为错误
func (s *Service) resolveOwnerName(ctx context.Context, mirror *mirrorRow, found bool, ownerAddr string) string {
	if found && mirror.OwnerType == model.OwnerTypeEmail {
		if name := s.usernameBy(ctx, "email = ?", mirror.OwnerIdentifier); name != "" {
			return name
		}
	}

	if name := s.usernameBy(ctx, "chain_address = ?", ownerAddr); name != "" {
		return name
	}

	fallback := ownerAddr
	if found {
		fallback = mirror.OwnerIdentifier
	}
	return s.usernameBy(ctx, "username = ? OR email = ?", fallback, fallback)
}

func (s *Service) usernameBy(ctx context.Context, cond string, args ...interface{}) string {
	var user model.User
	err := s.db.WithContext(ctx).Table(model.TableUser).
		Where(cond, args...).
		First(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("owner name lookup failed", zap.Error(err))
		}
		return ""
	}
	return user.Username
}
