package service

import (
	"fmt"
	"testing"
	"time"

	"credential-proxy/db/model"
	"credential-proxy/mock"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// 测试基建：内存 sqlite + mock 链/存储/邮件
// 服务层的 sql 全部是方言无关写法，sqlite 行为与 mysql 一致

type testEnv struct {
	svc    *Service
	db     *gorm.DB
	ledger *mock.Ledger
	store  *mock.ContentStore
	mailer *mock.Sender
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// 写串行化，避免内存库的并发写锁冲突
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = gdb.AutoMigrate(
		&model.User{},
		&model.Credential{},
		&model.CredentialHistory{},
		&model.Session{},
		&model.ChainAccount{},
	)
	require.NoError(t, err)

	ledger := mock.NewLedger()
	store := mock.NewContentStore()
	mailer := mock.NewSender()

	svc := New(gdb, ledger, store, mailer, zap.NewNop(), Options{
		FrontendURL: "http://localhost:3000",
		SessionTTL:  time.Hour,
	})

	return &testEnv{
		svc:    svc,
		db:     gdb,
		ledger: ledger,
		store:  store,
		mailer: mailer,
	}
}

// createUser 直接落一个注册用户
func (e *testEnv) createUser(t *testing.T, username, email, address string) *model.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		ChainAddress: address,
		PrivateKey:   "0x" + fmt.Sprintf("%064d", 1),
		IsActive:     true,
	}
	err = e.db.Table(model.TableUser).Create(user).Error
	require.NoError(t, err)

	return user
}

func (e *testEnv) historyRows(t *testing.T, credentialID string) []model.CredentialHistory {
	t.Helper()

	var rows []model.CredentialHistory
	err := e.db.Table(model.TableCredentialHistory).
		Where("credential_id = ?", credentialID).
		Order("id").
		Find(&rows).Error
	require.NoError(t, err)

	return rows
}

func testIssuer(user *model.User) IssuerInfo {
	return IssuerInfo{
		UserID:     user.ID,
		Username:   user.Username,
		Email:      user.Email,
		Address:    user.ChainAddress,
		PrivateKey: user.PrivateKey,
	}
}
