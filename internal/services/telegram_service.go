package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/example/agrobazaar/internal/models"
	"github.com/example/agrobazaar/internal/obs"
)

const telegramAPIURL = "https://api.telegram.org"

// TelegramService handles sending notifications to Telegram.
type TelegramService struct {
	botToken    string
	adminChatID string
	baseURL     string
	client      *http.Client
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		baseURL:     telegramAPIURL,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to specified chat.
func (s *TelegramService) SendMessage(ctx context.Context, chatID, text string) error {
	if s.botToken == "" {
		obs.Logger.Debug("telegram bot token not configured")
		return nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.botToken)

	body, err := json.Marshal(telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(ctx context.Context, text string) error {
	if s.adminChatID == "" {
		obs.Logger.Debug("telegram admin chat not configured")
		return nil
	}
	return s.SendMessage(ctx, s.adminChatID, text)
}

// NotifyNewSeller tells the admin chat that a store is waiting for review.
func (s *TelegramService) NotifyNewSeller(ctx context.Context, seller *models.Seller) error {
	if s.adminChatID == "" {
		return nil
	}

	storeName := seller.StoreDetails.StoreName
	if storeName == "" {
		storeName = "-"
	}

	message := fmt.Sprintf(`<b>🌾 NEW SELLER REGISTERED</b>
<b>👤 Name:</b> %s
<b>📞 Mobile:</b> %s
<b>🏪 Store:</b> %s
<b>📍 Location:</b> %s, %s %s
<b>📋 Verification:</b> %s
━━━━━━━━━━━━━━━━━━`,
		html.EscapeString(seller.Name),
		html.EscapeString(seller.Mobile),
		html.EscapeString(storeName),
		html.EscapeString(seller.StoreAddress.Village),
		html.EscapeString(seller.StoreAddress.District),
		html.EscapeString(seller.StoreAddress.Pincode),
		seller.StoreDetails.VerificationStatus,
	)

	return s.SendToAdmin(ctx, strings.TrimSpace(message))
}
