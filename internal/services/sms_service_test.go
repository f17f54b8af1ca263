package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlumSenderRetriesOnceOnUnauthorized(t *testing.T) {
	var logins, sends atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			n := logins.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]any{"token": fmt.Sprintf("tok-%d", n), "expires_in": 3600})
		case "/sms/send":
			sends.Add(1)
			if r.Header.Get("Authorization") == "Bearer tok-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "9876543210", body["phone"])
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	sender := NewPlumSMSSender(PlumConfig{BaseURL: srv.URL + "/", Username: "u", Password: "p"})
	require.NoError(t, sender.Send(context.Background(), "9876543210", OTPMessage("1234")))

	assert.EqualValues(t, 2, logins.Load())
	assert.EqualValues(t, 2, sends.Load())
}

func TestPlumSenderCachesToken(t *testing.T) {
	var logins atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/login" {
			logins.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]any{"token": "tok", "expires_in": 3600})
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewPlumSMSSender(PlumConfig{BaseURL: srv.URL})
	for i := 0; i < 3; i++ {
		require.NoError(t, sender.Send(context.Background(), "9876543210", "hi"))
	}
	assert.EqualValues(t, 1, logins.Load())
}

func TestPlumSenderReportsProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/login" {
			_ = json.NewEncoder(w).Encode(map[string]any{"token": "tok"})
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewPlumSMSSender(PlumConfig{BaseURL: srv.URL}).Send(context.Background(), "1", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}
