package service

// 镜像对账任务：
// 1. 镜像写入是 best effort，发行时落库失败的记录靠这里补齐；
// 2. 以 credentials 表的 max(block_number) 为扫描起点，减少冗余扫描；
// 3. 扫到未入库的发行事件时，回查链上详情后补插，冲突跳过；
import (
	"context"
	"database/sql"
	"time"

	"credential-proxy/chain"
	"credential-proxy/db/model"

	"go.uber.org/zap"
	"gorm.io/gorm/clause"
)

// RunReconcile 周期执行对账，单轮失败不中断任务
func (s *Service) RunReconcile(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("reconcile task recv ctx cancel signal, will close")
			return ctx.Err()
		case <-ticker.C:
			err := s.reconcileOnce(ctx)
			if err != nil {
				s.log.Warn("reconcile pass failed", zap.Error(err))
			}
		}
	}
}

func (s *Service) reconcileOnce(ctx context.Context) error {
	start, err := s.reconcileStart(ctx)
	if err != nil {
		return err
	}

	events, err := s.ledger.FilterIssued(ctx, start)
	if err != nil {
		return err
	}

	for _, ev := range events {
		err = s.upsertMirror(ctx, ev)
		if err != nil {
			s.log.Warn("mirror upsert failed",
				zap.String("credential_id", chain.EncodeCredentialID(ev.CredentialID)),
				zap.Error(err))
		}
	}

	return nil
}

// reconcileStart 扫描起始高度，镜像为空时回落到配置的默认高度
func (s *Service) reconcileStart(ctx context.Context) (int64, error) {
	var start sql.NullInt64
	err := s.db.WithContext(ctx).Table(model.TableCredential).
		Select("max(block_number)").
		Scan(&start).Error
	if err != nil {
		return 0, err
	}

	if start.Valid {
		return start.Int64, nil
	}

	return s.opts.DefaultBlock, nil
}

func (s *Service) upsertMirror(ctx context.Context, ev chain.IssuedEvent) error {
	idHex := chain.EncodeCredentialID(ev.CredentialID)

	var count int64
	err := s.db.WithContext(ctx).Table(model.TableCredential).
		Where("credential_id = ?", idHex).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	// 事件只带 id，详情回查链上
	info, err := s.ledger.VerifyCredential(ctx, ev.CredentialID)
	if err != nil {
		return err
	}

	// 发行方是注册用户时补上归属
	issuerUserID := 0
	var issuer model.User
	err = s.db.WithContext(ctx).Table(model.TableUser).
		Where("chain_address = ?", info.Issuer.Hex()).
		First(&issuer).Error
	if err == nil {
		issuerUserID = issuer.ID
	}

	mirror := &model.Credential{
		CredentialID:    idHex,
		IssuerUserID:    issuerUserID,
		OwnerIdentifier: info.Owner.Hex(),
		OwnerType:       model.OwnerTypeAddress,
		IpfsHash:        info.IpfsHash,
		CredentialType:  info.CredentialType,
		TransactionHash: ev.TxHash.Hex(),
		BlockNumber:     int64(ev.BlockNumber),
		Status:          model.CredentialStatusActive,
		IssuedAt:        time.Unix(info.IssuedAt, 0),
	}

	err = s.db.WithContext(ctx).Table(model.TableCredential).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(mirror).Error
	if err != nil {
		return err
	}

	s.log.Info("mirror row restored from chain", zap.String("credential_id", idHex))
	return nil
}
