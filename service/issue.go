package service

import (
	"context"
	"fmt"
	"time"

	"credential-proxy/chain"
	"credential-proxy/db/model"
	"credential-proxy/qr"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Issue 发行凭证，核心编排：
// 1. 解析接收方标识，邮箱尝试换取注册用户的链地址；未注册的邮箱不拒绝，
//    按原样当作地址继续发交易（已知的宽松策略）；
// 2. 链上交易同步确认，凭证 id 只取回执事件，链上写入即整单成功；
// 3. 之后的镜像落库、流水、二维码、邮件全部 best effort，失败不回滚不报错；
func (s *Service) Issue(ctx context.Context, issuer IssuerInfo, req IssueRequest, ip string) (*IssueResponse, error) {
	if issuer.Address == "" || issuer.PrivateKey == "" {
		return nil, E(KindValidation, "issuer identity is incomplete")
	}
	if req.Owner == "" || req.IpfsHash == "" || req.CredentialType == "" {
		return nil, E(KindValidation, "missing required fields")
	}

	ownerRef := ParseOwnerRef(req.Owner)
	effectiveAddr := ownerRef.Value
	ownerEmail := ""

	if ownerRef.Kind == OwnerKindEmail {
		var owner model.User
		err := s.db.WithContext(ctx).Table(model.TableUser).
			Where("email = ?", ownerRef.Value).
			First(&owner).Error
		switch {
		case err == nil:
			effectiveAddr = owner.ChainAddress
			ownerEmail = ownerRef.Value
		case errors.Is(err, gorm.ErrRecordNotFound):
			s.log.Warn("owner email not registered, issuing with raw identifier as address",
				zap.String("owner", ownerRef.Value))
		default:
			s.log.Warn("owner lookup failed, issuing with raw identifier as address",
				zap.String("owner", ownerRef.Value), zap.Error(err))
		}
	}

	result, err := s.ledger.IssueCredential(ctx, issuer.PrivateKey,
		common.HexToAddress(effectiveAddr), req.IpfsHash, req.CredentialType)
	if err != nil {
		if errors.Is(err, chain.ErrEventMissing) {
			return nil, WrapE(err, KindLedger, "transaction confirmed but issued event is missing")
		}
		return nil, WrapE(err, KindLedger, "ledger transaction failed")
	}

	idHex := chain.EncodeCredentialID(result.CredentialID)
	txHex := result.TxHash.Hex()

	// 链上已成，镜像失败只记日志，对账任务会补齐
	mirror := &model.Credential{
		CredentialID:    idHex,
		IssuerUserID:    issuer.UserID,
		OwnerIdentifier: req.Owner,
		OwnerType:       string(ownerRef.Kind),
		IpfsHash:        req.IpfsHash,
		CredentialType:  req.CredentialType,
		TransactionHash: txHex,
		BlockNumber:     int64(result.BlockNumber),
		Status:          model.CredentialStatusActive,
		IssuedAt:        time.Now(),
	}
	err = s.db.WithContext(ctx).Table(model.TableCredential).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(mirror).Error
	if err != nil {
		s.log.Error("mirror write failed after ledger confirm",
			zap.String("credential_id", idHex), zap.Error(err))
	}

	issuerID := issuer.UserID
	s.logHistory(ctx, idHex, model.ActionIssued, &issuerID, nil, ip)

	ipfsURL := s.store.GatewayURL(req.IpfsHash)
	verifyURL := s.verifyURL(idHex)

	qrCode, err := qr.Base64PNG(ipfsURL)
	if err != nil {
		s.log.Warn("qr generation failed", zap.String("credential_id", idHex), zap.Error(err))
	}

	s.sendMail(issuer.Email,
		fmt.Sprintf("Credential Issued Successfully - %s", req.CredentialType),
		fmt.Sprintf(
			"Your credential has been issued successfully!\n\n"+
				"Credential Details:\n"+
				"- Type: %s\n"+
				"- Recipient: %s\n"+
				"- Credential ID: %s\n"+
				"- Transaction Hash: %s\n"+
				"- IPFS Hash: %s\n",
			req.CredentialType, req.Owner, idHex, txHex, req.IpfsHash))

	if ownerEmail != "" {
		s.sendMail(ownerEmail,
			fmt.Sprintf("New Credential Received - %s", req.CredentialType),
			fmt.Sprintf(
				"You have received a new blockchain credential!\n\n"+
					"Credential Details:\n"+
					"- Type: %s\n"+
					"- Issued by: %s\n"+
					"- Credential ID: %s\n"+
					"- IPFS Document: %s\n\n"+
					"You can verify this credential at any time using the Credential ID.\n",
				req.CredentialType, issuer.Username, idHex, ipfsURL))
	}

	return &IssueResponse{
		Message:         "Credential issued successfully",
		CredentialID:    idHex,
		TransactionHash: txHex,
		QRCode:          qrCode,
		VerifyURL:       verifyURL,
		IpfsURL:         ipfsURL,
	}, nil
}
