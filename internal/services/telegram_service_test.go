package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/agrobazaar/internal/models"
)

func TestNotifyNewSellerPostsToAdminChat(t *testing.T) {
	var got telegramMessage
	var path string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := NewTelegramService("bot-token", "-100200")
	svc.baseURL = srv.URL

	seller := &models.Seller{Name: "Ravi <Patil>", Mobile: "9876543210"}
	seller.ApplyDefaults()
	require.NoError(t, svc.NotifyNewSeller(context.Background(), seller))

	assert.Equal(t, "/botbot-token/sendMessage", path)
	assert.Equal(t, "-100200", got.ChatID)
	assert.Equal(t, "HTML", got.ParseMode)
	assert.Contains(t, got.Text, "Ravi &lt;Patil&gt;")
	assert.Contains(t, got.Text, "Pending")
}

func TestTelegramSkipsWhenUnconfigured(t *testing.T) {
	svc := NewTelegramService("", "")
	assert.NoError(t, svc.NotifyNewSeller(context.Background(), &models.Seller{}))
	assert.NoError(t, svc.SendMessage(context.Background(), "1", "hi"))
}

func TestTelegramReportsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	svc := NewTelegramService("t", "1")
	svc.baseURL = srv.URL
	assert.Error(t, svc.SendToAdmin(context.Background(), "hi"))
}
