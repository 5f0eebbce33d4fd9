package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/receiptwatch/internal/config"
	"github.com/polkiloo/receiptwatch/internal/domain/model"
	pkgAuth "github.com/polkiloo/receiptwatch/internal/pkg/auth"
	"github.com/polkiloo/receiptwatch/internal/server/http/handlers"
	testhelpers "github.com/polkiloo/receiptwatch/internal/test"
)

func newEngine(admin bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	facade := testhelpers.ReceiptWatchFacadeStub{
		TokenParserStub: testhelpers.TokenParserStub{ParseFn: func(token string) (model.Principal, error) {
			if token != "valid" {
				return model.Principal{}, pkgAuth.ErrInvalidToken
			}
			return model.Principal{UserID: 1, Email: "user@example.com", Admin: admin}, nil
		}},
		OperationsFacadeStub: testhelpers.OperationsFacadeStub{RunFn: func(context.Context, time.Time) (model.RunSummary, error) {
			return model.RunSummary{Created: 1}, nil
		}},
	}
	return Setup(facade, &config.Config{ScheduleTimezone: time.UTC}, logger)
}

func serve(engine *gin.Engine, method, path, token string, body []byte) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	return resp
}

func TestSetupRoutes(t *testing.T) {
	engine := newEngine(false)
	receipt, _ := json.Marshal(map[string]string{"body": "Order placed on 01 Oct 2025"})

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   []byte
		want   int
	}{
		{name: "health is public", method: http.MethodGet, path: "/healthz", want: http.StatusOK},
		{name: "metrics is public", method: http.MethodGet, path: "/metrics", want: http.StatusOK},
		{name: "api requires token", method: http.MethodGet, path: "/api/user/orders", want: http.StatusUnauthorized},
		{name: "invalid token", method: http.MethodGet, path: "/api/user/orders", token: "forged", want: http.StatusUnauthorized},
		{name: "orders", method: http.MethodGet, path: "/api/user/orders", token: "valid", want: http.StatusOK},
		{name: "order", method: http.MethodGet, path: "/api/user/orders/1", token: "valid", want: http.StatusOK},
		{name: "order notifications", method: http.MethodGet, path: "/api/user/orders/1/notifications", token: "valid", want: http.StatusOK},
		{name: "ingest", method: http.MethodPost, path: "/api/user/receipts", token: "valid", body: receipt, want: http.StatusCreated},
		{name: "extract", method: http.MethodPost, path: "/api/receipts/extract", token: "valid", body: receipt, want: http.StatusOK},
		{name: "merchants", method: http.MethodGet, path: "/api/merchants", token: "valid", want: http.StatusOK},
		{name: "admin forbidden", method: http.MethodPost, path: "/api/admin/reminders/run", token: "valid", want: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := serve(engine, tt.method, tt.path, tt.token, tt.body)
			if resp.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, resp.Code)
			}
		})
	}
}

func TestSetupAdminRoutes(t *testing.T) {
	engine := newEngine(true)

	resp := serve(engine, http.MethodPost, "/api/admin/reminders/run?date=2025-11-02", "valid", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var summary model.RunSummary
	if err := json.Unmarshal(resp.Body.Bytes(), &summary); err != nil || summary.Created != 1 {
		t.Fatalf("unexpected summary %+v err=%v", summary, err)
	}

	resp = serve(engine, http.MethodPost, "/api/admin/merchants", "valid", []byte(`{"merchant_name":"Croma","default_return_days":7}`))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

var _ handlers.ReceiptWatchFacade = testhelpers.ReceiptWatchFacadeStub{}
