package service

import (
	"context"
	"encoding/json"
	"os"

	"credential-proxy/db/model"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 账户池文件结构，与链环境导出的 accounts json 一致
type fundedAccount struct {
	Address    string `json:"address"`
	PrivateKey string `json:"private_key"`
}

type accountsFile struct {
	Accounts []fundedAccount `json:"accounts"`
}

const claimMaxAttempts = 5

// SeedAccounts 将预充值账户灌入池表，地址冲突自动跳过，可重复执行
func (s *Service) SeedAccounts(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read accounts file")
	}

	var file accountsFile
	err = json.Unmarshal(raw, &file)
	if err != nil {
		return errors.Wrap(err, "parse accounts file")
	}

	for _, acct := range file.Accounts {
		row := &model.ChainAccount{
			Address:    acct.Address,
			PrivateKey: acct.PrivateKey,
			Status:     model.AccountStatusAvailable,
		}
		err = s.db.Table(model.TableChainAccount).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(row).Error
		if err != nil {
			return errors.Wrapf(err, "seed account %s", acct.Address)
		}
	}

	return nil
}

// claimAccount 原子领取一个可用账户：
// 先选中候选，再以 status 条件更新抢占，RowsAffected = 0 说明被并发领走，重试；
// 条件更新对单行是原子的，同一账户绝不会分配给两个用户
func (s *Service) claimAccount(ctx context.Context) (*model.ChainAccount, error) {
	for attempt := 0; attempt < claimMaxAttempts; attempt++ {
		var acct model.ChainAccount
		err := s.db.WithContext(ctx).Table(model.TableChainAccount).
			Where(model.AccountStatusCol+" = ?", model.AccountStatusAvailable).
			Order("id").
			First(&acct).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, E(KindStorage, "no blockchain accounts available")
		}
		if err != nil {
			return nil, WrapE(err, KindStorage, "query account pool failed")
		}

		res := s.db.WithContext(ctx).Table(model.TableChainAccount).
			Where("id = ? AND "+model.AccountStatusCol+" = ?", acct.ID, model.AccountStatusAvailable).
			Update(model.AccountStatusCol, model.AccountStatusAssigned)
		if res.Error != nil {
			return nil, WrapE(res.Error, KindStorage, "claim account failed")
		}
		if res.RowsAffected == 1 {
			acct.Status = model.AccountStatusAssigned
			return &acct, nil
		}
		// 候选被别的注册请求抢走，换下一个
	}

	return nil, E(KindStorage, "account pool contention, try again")
}

// bindAccount 领取成功并建完用户后，补记账户归属
func (s *Service) bindAccount(ctx context.Context, accountID, userID int) {
	err := s.db.WithContext(ctx).Table(model.TableChainAccount).
		Where("id = ?", accountID).
		Update(model.AccountAssignedToCol, userID).Error
	if err != nil {
		s.log.Warn("bind account owner failed", zap.Int("account_id", accountID), zap.Error(err))
	}
}

// releaseAccount 注册后续步骤失败时把账户放回池子
func (s *Service) releaseAccount(ctx context.Context, accountID int) {
	err := s.db.WithContext(ctx).Table(model.TableChainAccount).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			model.AccountStatusCol:     model.AccountStatusAvailable,
			model.AccountAssignedToCol: nil,
		}).Error
	if err != nil {
		s.log.Warn("release account failed", zap.Int("account_id", accountID), zap.Error(err))
	}
}
