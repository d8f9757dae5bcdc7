package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrDisabled is returned when no Cloud API credentials are configured.
var ErrDisabled = errors.New("whatsapp client disabled")

type Client struct {
	baseURL       string
	token         string
	phoneNumberID string
	httpClient    *http.Client
}

// NewClient builds a Cloud API client. baseURL is the versioned Graph API
// root, e.g. https://graph.facebook.com/v19.0.
func NewClient(baseURL, token, phoneNumberID string) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		token:         token,
		phoneNumberID: phoneNumberID,
		httpClient:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Enabled reports whether the client has credentials.
func (c *Client) Enabled() bool {
	return c != nil && c.token != "" && c.phoneNumberID != ""
}

// --- Message Structures ---

type GenericMessage struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	RecipientType    string       `json:"recipient_type,omitempty"`
	Text             *TextObj     `json:"text,omitempty"`
	Template         *TemplateObj `json:"template,omitempty"`
}

type TextObj struct {
	Body       string `json:"body"`
	PreviewUrl bool   `json:"preview_url,omitempty"`
}

type TemplateObj struct {
	Name     string      `json:"name"`
	Language LanguageObj `json:"language"`
}

type LanguageObj struct {
	Code string `json:"code"`
}

// SendResponse is the Cloud API answer to a message send.
type SendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// --- Helper Functions ---

func (c *Client) sendRequest(ctx context.Context, method, url string, body interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return respBody, fmt.Errorf("API error: %s - %s", resp.Status, string(respBody))
	}

	return respBody, nil
}

// --- Messaging Methods ---

func (c *Client) SendRawMessage(ctx context.Context, msg GenericMessage) (*SendResponse, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	raw, err := c.sendRequest(ctx, http.MethodPost, url, msg)
	if err != nil {
		return nil, err
	}
	var out SendResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode send response: %w", err)
	}
	return &out, nil
}

// SendText sends a plain text message to a phone number in international
// format. Spaces and a leading "+" are stripped.
func (c *Client) SendText(ctx context.Context, to, body string) (*SendResponse, error) {
	return c.SendRawMessage(ctx, GenericMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               NormalizeNumber(to),
		Type:             "text",
		Text:             &TextObj{Body: body},
	})
}

// SendTemplate sends an approved template, required to open a conversation
// with a number that has not written first.
func (c *Client) SendTemplate(ctx context.Context, to, templateName, languageCode string) (*SendResponse, error) {
	return c.SendRawMessage(ctx, GenericMessage{
		MessagingProduct: "whatsapp",
		To:               NormalizeNumber(to),
		Type:             "template",
		Template: &TemplateObj{
			Name:     templateName,
			Language: LanguageObj{Code: languageCode},
		},
	})
}

// NormalizeNumber keeps only the digits of a phone number.
func NormalizeNumber(n string) string {
	var b strings.Builder
	for _, r := range n {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
