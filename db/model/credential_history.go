package model

import "time"

// 凭证操作流水表，append-only：
// 1. 每次 issue/verify/view 动作都落一条记录，记录一旦写入不再修改；
// 2. performed_by_user_id 可空，验证可以匿名发起；
// 3. verification_result 仅对 verified 动作有意义，失败的验证同样落表；

const TableCredentialHistory = "credential_history"

const (
	ActionIssued   = "issued"
	ActionVerified = "verified"
	ActionViewed   = "viewed"
)

func (CredentialHistory) TableName() string { return TableCredentialHistory }

type CredentialHistory struct {
	ID                 int    `gorm:"primarykey"`
	CredentialID       string `gorm:"size:66;index"`
	ActionType         string `gorm:"size:16;index"`
	PerformedByUserID  *int
	VerificationResult *bool
	PerformedByIP      string `gorm:"size:64"`
	Notes              string `gorm:"size:256"`
	PerformedAt        time.Time `gorm:"index"`
}
