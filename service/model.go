package service

import (
	"strings"
	"time"
)

// OwnerKind 凭证接收方标识的类型
// 请求中的 owner 字段既可能是邮箱也可能是链地址，
// 在边界解析一次后以 tagged union 形式透传，后续不再重复判断
type OwnerKind string

const (
	OwnerKindEmail   OwnerKind = "email"
	OwnerKindAddress OwnerKind = "address"
)

type OwnerRef struct {
	Kind  OwnerKind
	Value string
}

// ParseOwnerRef 按是否包含 @ 区分邮箱与地址
func ParseOwnerRef(identifier string) OwnerRef {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return OwnerRef{Kind: OwnerKindEmail, Value: strings.ToLower(identifier)}
	}
	return OwnerRef{Kind: OwnerKindAddress, Value: identifier}
}

// IssuerInfo 发行方身份，由会话中间件从登录态填充
type IssuerInfo struct {
	UserID     int
	Username   string
	Email      string
	Address    string
	PrivateKey string
}

type IssueRequest struct {
	Owner          string `json:"owner"`
	IpfsHash       string `json:"ipfs_hash"`
	CredentialType string `json:"credential_type"`
}

type IssueResponse struct {
	Message         string `json:"message"`
	CredentialID    string `json:"credential_id"`
	TransactionHash string `json:"transaction_hash"`
	QRCode          string `json:"qr_code"`
	VerifyURL       string `json:"verify_url"`
	IpfsURL         string `json:"ipfs_url"`
}

// VerifyResponse 链上事实 + 镜像补充信息的合并视图
type VerifyResponse struct {
	Owner           string `json:"owner"`
	OwnerName       string `json:"owner_name,omitempty"`
	Issuer          string `json:"issuer"`
	IssuerName      string `json:"issuer_name,omitempty"`
	IssuerEmail     string `json:"issuer_email,omitempty"`
	IpfsHash        string `json:"ipfs_hash"`
	CredentialType  string `json:"credential_type"`
	Timestamp       int64  `json:"timestamp"`
	OwnerIdentifier string `json:"owner_identifier,omitempty"`
	OwnerType       string `json:"owner_type,omitempty"`
	TransactionHash string `json:"transaction_hash,omitempty"`
	QRCode          string `json:"qr_code"`
	VerifyURL       string `json:"verify_url"`
	IpfsURL         string `json:"ipfs_url"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	Message      string `json:"message"`
	UserID       int    `json:"user_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	ChainAddress string `json:"blockchain_address"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionInfo 登录态视图，也是登录/会话检查接口的响应体
type SessionInfo struct {
	UserID     int    `json:"user_id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	PrivateKey string `json:"private_key"`
}

type UploadResult struct {
	IpfsHash string `json:"ipfs_hash"`
	Filename string `json:"filename"`
}

type ActivityEntry struct {
	ID                 int        `json:"id"`
	CredentialID       string     `json:"credential_id,omitempty"`
	ActionType         string     `json:"action_type"`
	PerformedAt        *time.Time `json:"performed_at"`
	VerificationResult *bool      `json:"verification_result"`
	Notes              string     `json:"notes,omitempty"`
	CredentialType     string     `json:"credential_type,omitempty"`
	OwnerIdentifier    string     `json:"owner_identifier,omitempty"`
	IssuerUserID       int        `json:"issuer_user_id,omitempty"`
}

type RecentActivity struct {
	Activities []ActivityEntry `json:"activities"`
	TotalCount int             `json:"total_count"`
}

type ActivityStats struct {
	TotalActivities int64 `json:"total_activities"`
	IssuedCount     int64 `json:"issued_count"`
	VerifiedCount   int64 `json:"verified_count"`
	ViewedCount     int64 `json:"viewed_count"`
	TodayCount      int64 `json:"today_count"`
	WeekCount       int64 `json:"week_count"`
}

type IssuedCredential struct {
	CredentialID    string     `json:"credential_id"`
	Owner           string     `json:"owner"`
	OwnerType       string     `json:"owner_type"`
	CredentialType  string     `json:"credential_type"`
	TransactionHash string     `json:"transaction_hash"`
	IssuedAt        *time.Time `json:"issued_at"`
	Status          string     `json:"status"`
	IpfsHash        string     `json:"ipfs_hash"`
	QRCode          string     `json:"qr_code"`
}

type OwnedCredential struct {
	CredentialID    string     `json:"credential_id"`
	IssuerName      string     `json:"issuer_name"`
	CredentialType  string     `json:"credential_type"`
	TransactionHash string     `json:"transaction_hash"`
	IssuedAt        *time.Time `json:"issued_at"`
	Status          string     `json:"status"`
	IpfsHash        string     `json:"ipfs_hash"`
	QRCode          string     `json:"qr_code"`
}

type UserCredentials struct {
	Issued []IssuedCredential `json:"issued"`
	Owned  []OwnedCredential  `json:"owned"`
}

type GlobalStats struct {
	TotalUsers         int64 `json:"total_users"`
	TotalCredentials   int64 `json:"total_credentials"`
	TotalVerifications int64 `json:"total_verifications"`
	Verifications24h   int64 `json:"verifications_last_24h"`
}
