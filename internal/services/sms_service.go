package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/example/agrobazaar/internal/obs"
)

// SMSSender delivers a text message to a phone number.
type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}

// PlumConfig holds credentials for the Plum SMS gateway.
type PlumConfig struct {
	BaseURL  string
	Username string
	Password string
}

// PlumSMSSender sends messages through the Plum HTTP API. The bearer token is
// cached until shortly before it expires and refreshed once on a 401.
type PlumSMSSender struct {
	cfg    PlumConfig
	client *http.Client

	mu     sync.RWMutex
	token  string
	expiry time.Time
}

// NewPlumSMSSender constructs a PlumSMSSender.
func NewPlumSMSSender(cfg PlumConfig) *PlumSMSSender {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &PlumSMSSender{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type plumAuthResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

func (s *PlumSMSSender) getToken(ctx context.Context, force bool) (string, error) {
	if !force {
		s.mu.RLock()
		if s.token != "" && time.Now().Before(s.expiry) {
			t := s.token
			s.mu.RUnlock()
			return t, nil
		}
		s.mu.RUnlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock.
	if !force && s.token != "" && time.Now().Before(s.expiry) {
		return s.token, nil
	}

	payload, _ := json.Marshal(map[string]string{
		"username": s.cfg.Username,
		"password": s.cfg.Password,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("plum auth request build: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("plum auth request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("plum auth failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var authResp plumAuthResponse
	if err := json.Unmarshal(body, &authResp); err != nil {
		return "", fmt.Errorf("plum auth unmarshal: %w", err)
	}
	if authResp.Token == "" {
		return "", errors.New("plum auth: empty token")
	}

	s.token = authResp.Token
	if authResp.ExpiresIn > 0 {
		s.expiry = time.Now().Add(time.Duration(authResp.ExpiresIn)*time.Second - 30*time.Second)
	} else {
		s.expiry = time.Now().Add(55 * time.Minute)
	}

	return s.token, nil
}

func (s *PlumSMSSender) post(ctx context.Context, path string, payload []byte, token string) (int, []byte, error) {
	url := s.cfg.BaseURL + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("plum request build: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("plum request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body, nil
}

// Send delivers message to phone.
func (s *PlumSMSSender) Send(ctx context.Context, phone, message string) error {
	payload, err := json.Marshal(map[string]string{
		"phone":   phone,
		"message": message,
	})
	if err != nil {
		return fmt.Errorf("plum send sms marshal: %w", err)
	}

	token, err := s.getToken(ctx, false)
	if err != nil {
		return fmt.Errorf("plum send sms: %w", err)
	}

	status, body, err := s.post(ctx, "sms/send", payload, token)
	if err != nil {
		return fmt.Errorf("plum send sms: %w", err)
	}

	// Retry once on 401.
	if status == http.StatusUnauthorized {
		token, err = s.getToken(ctx, true)
		if err != nil {
			return fmt.Errorf("plum send sms: %w", err)
		}
		status, body, err = s.post(ctx, "sms/send", payload, token)
		if err != nil {
			return fmt.Errorf("plum send sms: %w", err)
		}
	}

	if status < 200 || status >= 300 {
		return fmt.Errorf("plum send sms: status %d, body: %s", status, string(body))
	}
	return nil
}

// LogSMSSender writes messages to the application log instead of sending
// them. Used when SMS delivery is disabled.
type LogSMSSender struct{}

func (LogSMSSender) Send(_ context.Context, phone, message string) error {
	obs.Logger.Info("sms delivery disabled, message logged", "phone", phone, "message", message)
	return nil
}

// OTPMessage renders the text sent to a phone for a verification code.
func OTPMessage(code string) string {
	return fmt.Sprintf("Your verification code is %s. Do not share it with anyone.", code)
}
