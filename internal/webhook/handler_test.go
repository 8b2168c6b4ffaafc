package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/chiahsuan/eatwhat-linebot-go/internal/bot"
	"github.com/chiahsuan/eatwhat-linebot-go/internal/config"
	"github.com/chiahsuan/eatwhat-linebot-go/internal/logger"
	"github.com/chiahsuan/eatwhat-linebot-go/internal/metrics"
	"github.com/chiahsuan/eatwhat-linebot-go/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const testChannelSecret = "test_channel_secret"

// setupTestHandler creates a handler backed by an isolated temp file database.
func setupTestHandler(t *testing.T) *Handler {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := storage.New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	log := logger.NewWithWriter("error", io.Discard)

	dispatcher := bot.NewDispatcher(db, log, m, nil, bot.Config{Location: time.UTC})

	botCfg := config.BotConfig{
		WebhookTimeout:      30 * time.Second,
		Timezone:            "UTC",
		SamplerMaxAttempts:  100,
		MaxEventsPerWebhook: 100,
		MinReplyTokenLength: 10,
		MaxShopNameLength:   30,
		NamePreviewLength:   15,
		MaxEventsInFlight:   4,
	}

	handler, err := NewHandler(HandlerConfig{
		ChannelSecret: testChannelSecret,
		ChannelToken:  "test_channel_token",
		BotConfig:     &botCfg,
		Metrics:       m,
		Logger:        log,
		Dispatcher:    dispatcher,
	})
	if err != nil {
		t.Fatalf("Failed to create handler: %v", err)
	}
	return handler
}

func setupTestRouter(t *testing.T) (*gin.Engine, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	handler := setupTestHandler(t)
	router := gin.New()
	router.POST("/callback", handler.Handle)
	return router, handler
}

// sign computes the x-line-signature value LINE would send for body.
func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testChannelSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestHandlerInitialization(t *testing.T) {
	t.Parallel()
	handler := setupTestHandler(t)

	if handler.channelSecret != testChannelSecret {
		t.Errorf("channel secret = %q", handler.channelSecret)
	}
	if handler.client == nil {
		t.Error("Expected client to be initialized")
	}
	if handler.dispatcher == nil {
		t.Error("Expected dispatcher to be initialized")
	}
}

func TestHandleInvalidSignature(t *testing.T) {
	t.Parallel()
	router, _ := setupTestRouter(t)

	body := []byte(`{"events":[]}`)
	req := httptest.NewRequest(http.MethodPost, "/callback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Line-Signature", "invalid_signature")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestHandleMissingSignature(t *testing.T) {
	t.Parallel()
	router, _ := setupTestRouter(t)

	body := []byte(`{"events":[]}`)
	req := httptest.NewRequest(http.MethodPost, "/callback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestHandleValidSignatureEmptyBatch(t *testing.T) {
	t.Parallel()
	router, handler := setupTestRouter(t)

	body := []byte(`{"destination":"U_bot","events":[]}`)
	req := httptest.NewRequest(http.MethodPost, "/callback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Line-Signature", sign(body))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if err := handler.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

// An unfollow event purges the conversation's records. It carries no reply
// token, so processing stays entirely local and testable.
func TestHandleUnfollowPurgesRecords(t *testing.T) {
	t.Parallel()
	router, handler := setupTestRouter(t)

	// Seed a record through the dispatcher directly.
	ctx := context.Background()
	handler.dispatcher.Dispatch(ctx, "U_gone", true, "可吃 麵店")
	handler.dispatcher.Dispatch(ctx, "U_stays", true, "可吃 別家")

	body := []byte(`{"destination":"U_bot","events":[{"type":"unfollow","mode":"active","timestamp":1700000000000,"webhookEventId":"01HWEBHOOK","deliveryContext":{"isRedelivery":false},"source":{"type":"user","userId":"U_gone"}}]}`)
	req := httptest.NewRequest(http.MethodPost, "/callback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Line-Signature", sign(body))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	// Processing is async; wait for the batch to drain.
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := handler.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	if got := handler.dispatcher.Dispatch(ctx, "U_gone", true, "有啥"); got != "沒有" {
		t.Errorf("unfollowed user still has records: %q", got)
	}
	if got := handler.dispatcher.Dispatch(ctx, "U_stays", true, "有啥"); got == "沒有" {
		t.Error("unrelated user's records were purged")
	}
}

func TestHandleNonPostRejected(t *testing.T) {
	t.Parallel()
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/callback", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for GET, got %d", w.Code)
	}
}

func TestHandlerShutdown(t *testing.T) {
	t.Parallel()
	handler := setupTestHandler(t)

	ctx := context.Background()
	if err := handler.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown should not return error: %v", err)
	}

	// Safe to call multiple times.
	if err := handler.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown should not return error on second call: %v", err)
	}
}
