package service

import (
	"context"
	"time"

	"credential-proxy/db/model"
	"credential-proxy/qr"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 用户活动与统计的只读查询，全部走镜像库

type activityRow struct {
	ID                 int
	CredentialID       *string
	ActionType         string
	PerformedAt        time.Time
	VerificationResult *bool
	Notes              string
	CredentialType     *string
	OwnerIdentifier    *string
	IssuerUserID       *int
}

// RecentActivity 与该用户相关的最近 10 条流水：
// 他发行的凭证上的动作、他持有的凭证上的动作、他本人执行的动作
func (s *Service) RecentActivity(ctx context.Context, userID int) (*RecentActivity, error) {
	user, err := s.userByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var rows []activityRow
	err = s.db.WithContext(ctx).Table(model.TableCredentialHistory+" ch").
		Select("ch.id, ch.credential_id, ch.action_type, ch.performed_at, ch.verification_result, ch.notes, "+
			"c.credential_type, c.owner_identifier, c.issuer_user_id").
		Joins("LEFT JOIN "+model.TableCredential+" c ON ch.credential_id = c.credential_id").
		Where("c.issuer_user_id = ? OR c.owner_identifier IN (?, ?) OR ch.performed_by_user_id = ?",
			userID, user.Email, user.ChainAddress, userID).
		Order("ch.performed_at DESC").
		Limit(10).
		Find(&rows).Error
	if err != nil {
		return nil, WrapE(err, KindStorage, "query recent activity failed")
	}

	activities := make([]ActivityEntry, 0, len(rows))
	for _, row := range rows {
		performedAt := row.PerformedAt
		entry := ActivityEntry{
			ID:                 row.ID,
			ActionType:         row.ActionType,
			PerformedAt:        &performedAt,
			VerificationResult: row.VerificationResult,
			Notes:              row.Notes,
		}
		if row.CredentialID != nil {
			entry.CredentialID = *row.CredentialID
		}
		if row.CredentialType != nil {
			entry.CredentialType = *row.CredentialType
		}
		if row.OwnerIdentifier != nil {
			entry.OwnerIdentifier = *row.OwnerIdentifier
		}
		if row.IssuerUserID != nil {
			entry.IssuerUserID = *row.IssuerUserID
		}
		activities = append(activities, entry)
	}

	// 新用户没有任何流水时补一条欢迎记录
	if len(activities) == 0 {
		now := time.Now()
		activities = append(activities, ActivityEntry{
			ActionType:   "welcome",
			PerformedAt:  &now,
			Notes:        "Welcome to Blockchain Credentials!",
			IssuerUserID: userID,
		})
	}

	return &RecentActivity{
		Activities: activities,
		TotalCount: len(activities),
	}, nil
}

// ActivityStats 该用户相关流水的分类计数
func (s *Service) ActivityStats(ctx context.Context, userID int) (*ActivityStats, error) {
	stats := &ActivityStats{}
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekAgo := now.Add(-7 * 24 * time.Hour)

	count := func(extraCond string, extraArgs ...interface{}) (int64, error) {
		var n int64
		q := s.db.WithContext(ctx).Table(model.TableCredentialHistory+" ch").
			Joins("LEFT JOIN "+model.TableCredential+" c ON ch.credential_id = c.credential_id").
			Where("c.issuer_user_id = ? OR ch.performed_by_user_id = ?", userID, userID)
		if extraCond != "" {
			q = q.Where(extraCond, extraArgs...)
		}
		err := q.Count(&n).Error
		return n, err
	}

	var err error
	if stats.TotalActivities, err = count(""); err != nil {
		return nil, WrapE(err, KindStorage, "query activity stats failed")
	}
	if stats.IssuedCount, err = count("ch.action_type = ?", model.ActionIssued); err != nil {
		return nil, WrapE(err, KindStorage, "query activity stats failed")
	}
	if stats.VerifiedCount, err = count("ch.action_type = ?", model.ActionVerified); err != nil {
		return nil, WrapE(err, KindStorage, "query activity stats failed")
	}
	if stats.ViewedCount, err = count("ch.action_type = ?", model.ActionViewed); err != nil {
		return nil, WrapE(err, KindStorage, "query activity stats failed")
	}
	if stats.TodayCount, err = count("ch.performed_at >= ?", midnight); err != nil {
		return nil, WrapE(err, KindStorage, "query activity stats failed")
	}
	if stats.WeekCount, err = count("ch.performed_at >= ?", weekAgo); err != nil {
		return nil, WrapE(err, KindStorage, "query activity stats failed")
	}

	return stats, nil
}

// UserCredentials 用户发行的与持有的凭证列表，持有按邮箱或链地址匹配
func (s *Service) UserCredentials(ctx context.Context, userID int) (*UserCredentials, error) {
	user, err := s.userByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var issuedRows []model.Credential
	err = s.db.WithContext(ctx).Table(model.TableCredential).
		Where("issuer_user_id = ?", userID).
		Order("issued_at DESC").
		Find(&issuedRows).Error
	if err != nil {
		return nil, WrapE(err, KindStorage, "query issued credentials failed")
	}

	type ownedRow struct {
		model.Credential
		IssuerName string
	}
	var ownedRows []ownedRow
	err = s.db.WithContext(ctx).Table(model.TableCredential+" c").
		Select("c.*, u.username AS issuer_name").
		Joins("JOIN "+model.TableUser+" u ON c.issuer_user_id = u.id").
		Where("c.owner_identifier IN (?, ?)", user.Email, user.ChainAddress).
		Order("c.issued_at DESC").
		Find(&ownedRows).Error
	if err != nil {
		return nil, WrapE(err, KindStorage, "query owned credentials failed")
	}

	result := &UserCredentials{
		Issued: make([]IssuedCredential, 0, len(issuedRows)),
		Owned:  make([]OwnedCredential, 0, len(ownedRows)),
	}

	for _, cred := range issuedRows {
		issuedAt := cred.IssuedAt
		result.Issued = append(result.Issued, IssuedCredential{
			CredentialID:    cred.CredentialID,
			Owner:           cred.OwnerIdentifier,
			OwnerType:       cred.OwnerType,
			CredentialType:  cred.CredentialType,
			TransactionHash: cred.TransactionHash,
			IssuedAt:        &issuedAt,
			Status:          cred.Status,
			IpfsHash:        cred.IpfsHash,
			QRCode:          s.credentialQR(cred.IpfsHash),
		})
	}

	for _, cred := range ownedRows {
		issuedAt := cred.IssuedAt
		result.Owned = append(result.Owned, OwnedCredential{
			CredentialID:    cred.CredentialID,
			IssuerName:      cred.IssuerName,
			CredentialType:  cred.CredentialType,
			TransactionHash: cred.TransactionHash,
			IssuedAt:        &issuedAt,
			Status:          cred.Status,
			IpfsHash:        cred.IpfsHash,
			QRCode:          s.credentialQR(cred.IpfsHash),
		})
	}

	return result, nil
}

// Stats 全局统计
func (s *Service) Stats(ctx context.Context) (*GlobalStats, error) {
	stats := &GlobalStats{}

	err := s.db.WithContext(ctx).Table(model.TableUser).
		Where("is_active = ?", true).
		Count(&stats.TotalUsers).Error
	if err != nil {
		return nil, WrapE(err, KindStorage, "query stats failed")
	}

	err = s.db.WithContext(ctx).Table(model.TableCredential).
		Where("status = ?", model.CredentialStatusActive).
		Count(&stats.TotalCredentials).Error
	if err != nil {
		return nil, WrapE(err, KindStorage, "query stats failed")
	}

	err = s.db.WithContext(ctx).Table(model.TableCredentialHistory).
		Where("action_type = ?", model.ActionVerified).
		Count(&stats.TotalVerifications).Error
	if err != nil {
		return nil, WrapE(err, KindStorage, "query stats failed")
	}

	err = s.db.WithContext(ctx).Table(model.TableCredentialHistory).
		Where("action_type = ? AND performed_at >= ?", model.ActionVerified, time.Now().Add(-24*time.Hour)).
		Count(&stats.Verifications24h).Error
	if err != nil {
		return nil, WrapE(err, KindStorage, "query stats failed")
	}

	return stats, nil
}

func (s *Service) userByID(ctx context.Context, userID int) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Table(model.TableUser).
		Where("id = ?", userID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, E(KindNotFound, "user not found")
	}
	if err != nil {
		return nil, WrapE(err, KindStorage, "database error")
	}
	return &user, nil
}

func (s *Service) credentialQR(ipfsHash string) string {
	code, err := qr.Base64PNG(s.store.GatewayURL(ipfsHash))
	if err != nil {
		s.log.Warn("qr generation failed", zap.String("ipfs_hash", ipfsHash), zap.Error(err))
		return ""
	}
	return code
}
