package model

import "time"

// 会话表，cookie 中只存 token，会话状态全部落库

const TableSession = "sessions"

type Session struct {
	CommonField
	Token     string `gorm:"size:64;uniqueIndex"`
	UserID    int    `gorm:"index"`
	ExpiresAt time.Time
}
