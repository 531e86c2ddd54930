package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/musikito/imagigenie/internal/catalog"
	"github.com/musikito/imagigenie/internal/domain"
	"github.com/musikito/imagigenie/internal/ledger"
	"github.com/musikito/imagigenie/internal/transform"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database for one test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&domain.User{}, &domain.Image{}, &domain.Transaction{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// newTransformRouter wires TransformHandler behind a stub auth middleware.
func newTransformRouter(db *gorm.DB, providerURL string, userID uint) (*gin.Engine, *ledger.Ledger) {
	gin.SetMode(gin.TestMode)
	l := ledger.New(db)
	gate := ledger.NewGate(l)
	cat := catalog.New(db)
	provider := transform.NewClient(providerURL, "test-key")
	// The refund path never touches the cache, so an unreachable client is fine
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	r := gin.New()
	r.POST("/transformations", func(c *gin.Context) {
		c.Set("userID", userID)
	}, TransformHandler(gate, provider, cat, rdb))
	return r, l
}

const recolorBody = `{
	"title": "Red car",
	"source_url": "https://cdn.example.com/car.png",
	"config": {"kind": "recolor", "recolor": {"prompt": "the car", "color": "red"}}
}`

func TestTransformRefundsOnProviderFailure(t *testing.T) {
	db := newTestDB(t)
	user := domain.User{ExternalID: "user_1", CreditBalance: 10}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create test user: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	r, l := newTransformRouter(db, srv.URL, user.ID)
	req := httptest.NewRequest(http.MethodPost, "/transformations", strings.NewReader(recolorBody))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("status: got %d, want %d", w.Code, http.StatusBadGateway)
	}
	balance, err := l.Balance(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 10 {
		t.Errorf("balance after refunded failure: got %d, want 10", balance)
	}
}

func TestTransformRefundsAfterClientDisconnect(t *testing.T) {
	db := newTestDB(t)
	user := domain.User{ExternalID: "user_1", CreditBalance: 10}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create test user: %v", err)
	}

	// The caller goes away while the provider call is in flight. The charge
	// already happened, so the compensating refund must still land even
	// though the request context is cancelled.
	reqCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server starts its background connection read;
		// without it the client disconnect never cancels r.Context() and the
		// deferred srv.Close() deadlocks.
		io.Copy(io.Discard, r.Body)
		cancel()
		<-r.Context().Done()
	}))
	defer srv.Close()

	r, l := newTransformRouter(db, srv.URL, user.ID)
	req := httptest.NewRequest(http.MethodPost, "/transformations", strings.NewReader(recolorBody)).WithContext(reqCtx)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	balance, err := l.Balance(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 10 {
		t.Errorf("balance after cancelled transformation: got %d, want 10", balance)
	}
}
