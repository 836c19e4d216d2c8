package model

import "time"

// 该表记录注册用户的信息：
// 1. 注册时从账户池领取一个预充值链账户，address/private_key 即来自该账户；
// 2. 软删除：is_active = false，不做物理删除；
// 3. last_login 在每次登录成功后更新；

const TableUser = "users"

type User struct {
	CommonField
	Username     string `gorm:"size:64;uniqueIndex"`
	Email        string `gorm:"size:128;uniqueIndex"`
	PasswordHash string `gorm:"size:256"`
	ChainAddress string `gorm:"size:64;uniqueIndex"`
	PrivateKey   string `gorm:"size:128"`
	IsActive     bool   `gorm:"default:true"`
	LastLogin    *time.Time
}
