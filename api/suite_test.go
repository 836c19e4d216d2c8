package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"credential-proxy/config"
	"credential-proxy/db"
	"credential-proxy/db/model"
	"credential-proxy/mock"
	"credential-proxy/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	ledger *mock.Ledger
	store  *mock.ContentStore
	mailer *mock.Sender
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:api_%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(gdb))

	ledger := mock.NewLedger()
	store := mock.NewContentStore()
	mailer := mock.NewSender()

	svc := service.New(gdb, ledger, store, mailer, zap.NewNop(), service.Options{
		FrontendURL: "http://localhost:3000",
		SessionTTL:  time.Hour,
	})

	cfg := &config.Config{
		Server: config.Server{
			FrontendURL:       "http://localhost:3000",
			MaxUploadBytes:    1 << 20,
			AllowedExtensions: []string{"pdf", "png", "jpg"},
			SessionTTLHours:   1,
		},
	}

	h := &handlers{svc: svc, cfg: cfg, log: zap.NewNop()}

	return &testEnv{
		router: h.groupInit(),
		db:     gdb,
		ledger: ledger,
		store:  store,
		mailer: mailer,
	}
}

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
	require.NoError(t, e.db.Table(model.TableUser).Create(user).Error)

	return user
}

// login 登录并返回会话 cookie
func (e *testEnv) login(t *testing.T, username string) *http.Cookie {
	t.Helper()

	w := e.doJSON(t, http.MethodPost, "/login", map[string]string{
		"username": username,
		"password": "password123",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == sessionCookie {
			return cookie
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func (e *testEnv) doJSON(t *testing.T, method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	return w
}

func (e *testEnv) doUpload(t *testing.T, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
