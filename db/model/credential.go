package model

import "time"

// 凭证镜像表
// 1. credential_id 为链上事件返回的 id（hex），全局唯一，绝不在本地生成；
// 2. 该表只是链上事实的缓存，验证时始终以链上数据为准；
// 3. block_number 记录发行交易所在区块，对账任务以 max(block_number) 为扫描起点；

const TableCredential = "credentials"

const (
	CredentialStatusActive  = "active"
	CredentialStatusRevoked = "revoked"
)

const (
	OwnerTypeEmail   = "email"
	OwnerTypeAddress = "address"
)

type Credential struct {
	CommonField
	CredentialID    string `gorm:"size:66;uniqueIndex"`
	IssuerUserID    int    `gorm:"index"`
	OwnerIdentifier string `gorm:"size:128;index"`
	OwnerType       string `gorm:"size:16"`
	IpfsHash        string `gorm:"size:128"`
	CredentialType  string `gorm:"size:64"`
	TransactionHash string `gorm:"size:66"`
	BlockNumber     int64  `gorm:"index"`
	Status          string `gorm:"size:16;default:active"`
	IssuedAt        time.Time
}
