package model

// 预充值链账户池
// 1. 启动时从账户文件灌入，address 唯一，重复灌入自动跳过；
// 2. 领取必须是原子的：同一账户绝不能分配给两个用户；
// 3. 账户领取后不归还池子，assigned_user_id 记录归属；

const TableChainAccount = "chain_accounts"

const (
	AccountStatusAvailable = "available"
	AccountStatusAssigned  = "assigned"
)

const (
	AccountStatusCol     = "status"
	AccountAssignedToCol = "assigned_user_id"
)

type ChainAccount struct {
	CommonField
	Address        string `gorm:"size:64;uniqueIndex"`
	PrivateKey     string `gorm:"size:128"`
	Status         string `gorm:"size:16;index;default:available"`
	AssignedUserID *int
}
