package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hugh/go-invite/internal/api/validation"
	"github.com/hugh/go-invite/internal/auth"
	"github.com/hugh/go-invite/internal/database"
	"github.com/hugh/go-invite/internal/database/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Epoch is the starting time of every test clock.
var Epoch = time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)

// TestPassword is the password of users created by CreateActiveUser.
const TestPassword = "testpassword123"

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// every connection to :memory: is a separate database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// CleanupTestDB closes the test database connection
func CleanupTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	if err := database.Close(db); err != nil {
		t.Logf("warning: failed to close db: %v", err)
	}
}

// DiscardLogger returns a logger that drops everything
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Clock is a settable clock for driving expiry in tests
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

var seq atomic.Int64

// UniqueSuffix returns a process-wide increasing number for unique fixtures
func UniqueSuffix() int64 {
	return seq.Add(1)
}

// UniquePhone returns a valid phone number no other fixture uses
func UniquePhone() string {
	return fmt.Sprintf("9%09d", UniqueSuffix())
}

// UniqueEmail returns a valid email address no other fixture uses
func UniqueEmail() string {
	return fmt.Sprintf("user-%d@example.com", UniqueSuffix())
}

// CreatePendingUser inserts a pending user invited at invitedAt
func CreatePendingUser(t *testing.T, db *gorm.DB, invitedAt time.Time) *models.User {
	t.Helper()

	code, err := auth.GenerateCode(auth.InviteCodeLength)
	if err != nil {
		t.Fatalf("failed to generate invite code: %v", err)
	}

	user := &models.User{
		Name:        "Pending User",
		PhoneNumber: UniquePhone(),
		Email:       UniqueEmail(),
		InviteCode:  code,
		InvitedAt:   invitedAt,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create pending user: %v", err)
	}
	return user
}

// CreateActiveUser inserts an activated user whose password is TestPassword
func CreateActiveUser(t *testing.T, db *gorm.DB, hasher auth.Hasher, invitedAt time.Time) *models.User {
	t.Helper()

	digest, err := hasher.Hash(TestPassword)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Name:           "Active User",
		PhoneNumber:    UniquePhone(),
		Email:          UniqueEmail(),
		Activated:      true,
		PasswordDigest: &digest,
		InviteCode:     "",
		InvitedAt:      invitedAt,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create active user: %v", err)
	}
	return user
}

// CreateOrganization inserts an organization owned by userID
func CreateOrganization(t *testing.T, db *gorm.DB, user *models.User, name, role string) *models.Organization {
	t.Helper()

	org := &models.Organization{UserID: user.ID, Name: name, Role: role}
	if err := db.Create(org).Error; err != nil {
		t.Fatalf("failed to create organization: %v", err)
	}
	return org
}

// CreateSession inserts a session for user created at createdAt
func CreateSession(t *testing.T, db *gorm.DB, user *models.User, createdAt time.Time) *models.Session {
	t.Helper()

	token, err := auth.GenerateCode(auth.TokenLength)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	session := &models.Session{
		Base:   models.Base{CreatedAt: createdAt},
		UserID: user.ID,
		Token:  token,
	}
	if err := db.Omit("User").Create(session).Error; err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return session
}

// CountRows returns the number of rows of model matching the optional condition
func CountRows(t *testing.T, db *gorm.DB, model interface{}, query ...interface{}) int64 {
	t.Helper()

	var count int64
	tx := db.Model(model)
	if len(query) > 0 {
		tx = tx.Where(query[0], query[1:]...)
	}
	if err := tx.Count(&count).Error; err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return count
}

// TestSetup holds all the common test dependencies
type TestSetup struct {
	DB        *gorm.DB
	Store     *database.Store
	Clock     *Clock
	Hasher    *auth.PasswordHasher
	Validator validation.Validator
	Policy    auth.ExpiryPolicy
	Logger    *slog.Logger
	Invites   *auth.InviteService
	Sessions  *auth.SessionService
	Profiles  *auth.ProfileService

	JWTService *auth.JWTService
}

// NewTestContext wires the services against a fresh database and a clock at Epoch
func NewTestContext(t *testing.T) *TestSetup {
	t.Helper()

	db := SetupTestDB(t)
	store := database.NewStore(db)
	clock := NewClock(Epoch)
	hasher := auth.NewPasswordHasher("test-pepper")
	policy := auth.DefaultExpiryPolicy()
	log := DiscardLogger()
	validator := validation.Validator{}

	opts := []auth.Option{auth.WithClock(clock.Now), auth.WithLogger(log)}
	sessions := auth.NewSessionService(store, hasher, validator, policy, opts...)

	return &TestSetup{
		DB:        db,
		Store:     store,
		Clock:     clock,
		Hasher:    hasher,
		Validator: validator,
		Policy:    policy,
		Logger:    log,
		Invites:   auth.NewInviteService(store, validator, hasher, policy, opts...),
		Sessions:  sessions,
		Profiles:  auth.NewProfileService(store, sessions, validator, opts...),

		JWTService: auth.NewJWTService("test-secret", time.Hour),
	}
}

// AdminToken mints an administrator JWT accepted by the invite endpoints
func (ts *TestSetup) AdminToken(t *testing.T) string {
	t.Helper()

	token, err := ts.JWTService.GenerateToken("admin@example.com", auth.RoleAdmin)
	if err != nil {
		t.Fatalf("failed to generate admin token: %v", err)
	}
	return token
}

// Cleanup closes the test database
func (ts *TestSetup) Cleanup() {
	if ts.DB != nil {
		_ = database.Close(ts.DB)
	}
}

// AuthenticatedRequest creates an HTTP request carrying a bearer token
func AuthenticatedRequest(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// UnauthenticatedRequest creates an HTTP request without authentication
func UnauthenticatedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	return AuthenticatedRequest(t, method, path, body, "")
}

// AssertStatus checks if the response has the expected status code
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, rr.Code, rr.Body.String())
	}
}

// ParseJSONResponse parses the response body into the given struct
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}

// TestContext creates a context with a timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}
