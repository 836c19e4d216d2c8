package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"credential-proxy/db/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLen = 8

// Register 注册用户：
// 1. 从账户池原子领取一个预充值链账户；
// 2. bcrypt 散列密码后建用户；
// 3. 建用户失败时归还账户；
// 4. 欢迎邮件 best effort；
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)

	if username == "" || email == "" || password == "" {
		return nil, E(KindValidation, "username, email, and password are required")
	}
	if len(password) < minPasswordLen {
		return nil, E(KindValidation, fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}

	var count int64
	err := s.db.WithContext(ctx).Table(model.TableUser).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	if err != nil {
		return nil, WrapE(err, KindStorage, "database error")
	}
	if count > 0 {
		return nil, E(KindValidation, "username or email already exists")
	}

	acct, err := s.claimAccount(ctx)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.releaseAccount(ctx, acct.ID)
		return nil, WrapE(err, KindInternal, "hash password failed")
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		ChainAddress: acct.Address,
		PrivateKey:   acct.PrivateKey,
		IsActive:     true,
	}
	err = s.db.WithContext(ctx).Table(model.TableUser).Create(user).Error
	if err != nil {
		s.releaseAccount(ctx, acct.ID)
		return nil, WrapE(err, KindStorage, "create user failed")
	}

	s.bindAccount(ctx, acct.ID, user.ID)

	s.sendMail(email, "Welcome to Blockchain Credentials!", fmt.Sprintf(
		"Dear %s,\n\n"+
			"Welcome to our Blockchain Credential System!\n\n"+
			"Your account has been created successfully:\n"+
			"- Username: %s\n"+
			"- Email: %s\n"+
			"- Blockchain Address: %s\n\n"+
			"You can now log in and start issuing or verifying credentials.\n\n"+
			"Best regards,\nBlockchain Credentials Team\n",
		username, username, email, acct.Address))

	return &RegisterResponse{
		Message:      "Registration successful",
		UserID:       user.ID,
		Username:     username,
		Email:        email,
		ChainAddress: acct.Address,
	}, nil
}

// Login 用户名或邮箱登录，成功后创建落库会话并返回 token
func (s *Service) Login(ctx context.Context, req LoginRequest) (*SessionInfo, string, error) {
	username := strings.TrimSpace(req.Username)
	password := strings.TrimSpace(req.Password)

	if username == "" || password == "" {
		return nil, "", E(KindValidation, "username and password are required")
	}

	var user model.User
	err := s.db.WithContext(ctx).Table(model.TableUser).
		Where("(username = ? OR email = ?) AND is_active = ?", username, username, true).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", E(KindAuth, "invalid username or password")
	}
	if err != nil {
		return nil, "", WrapE(err, KindStorage, "database error")
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		return nil, "", E(KindAuth, "invalid username or password")
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Table(model.TableUser).
		Where("id = ?", user.ID).
		Update("last_login", now).Error
	if err != nil {
		s.log.Warn("update last_login failed", zap.Int("user_id", user.ID), zap.Error(err))
	}

	token := uuid.New().String()
	sess := &model.Session{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: now.Add(s.opts.SessionTTL),
	}
	err = s.db.WithContext(ctx).Table(model.TableSession).Create(sess).Error
	if err != nil {
		return nil, "", WrapE(err, KindStorage, "create session failed")
	}

	return &SessionInfo{
		UserID:     user.ID,
		Username:   user.Username,
		Email:      user.Email,
		Address:    user.ChainAddress,
		PrivateKey: user.PrivateKey,
	}, token, nil
}

// SessionUser 根据 token 取登录态，过期会话顺手清掉
func (s *Service) SessionUser(ctx context.Context, token string) (*SessionInfo, error) {
	if token == "" {
		return nil, E(KindAuth, "authentication required")
	}

	var sess model.Session
	err := s.db.WithContext(ctx).Table(model.TableSession).
		Where("token = ?", token).
		First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, E(KindAuth, "authentication required")
	}
	if err != nil {
		return nil, WrapE(err, KindStorage, "database error")
	}

	if time.Now().After(sess.ExpiresAt) {
		s.deleteSession(ctx, token)
		return nil, E(KindAuth, "session expired")
	}

	var user model.User
	err = s.db.WithContext(ctx).Table(model.TableUser).
		Where("id = ? AND is_active = ?", sess.UserID, true).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, E(KindAuth, "authentication required")
	}
	if err != nil {
		return nil, WrapE(err, KindStorage, "database error")
	}

	return &SessionInfo{
		UserID:     user.ID,
		Username:   user.Username,
		Email:      user.Email,
		Address:    user.ChainAddress,
		PrivateKey: user.PrivateKey,
	}, nil
}

// Logout 删除会话，token 不存在也视为成功
func (s *Service) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	s.deleteSession(ctx, token)
}

func (s *Service) deleteSession(ctx context.Context, token string) {
	err := s.db.WithContext(ctx).Table(model.TableSession).
		Where("token = ?", token).
		Delete(&model.Session{}).Error
	if err != nil {
		s.log.Warn("delete session failed", zap.Error(err))
	}
}
