package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/topstrike/syscall-relayer/internal/models"
	"github.com/topstrike/syscall-relayer/pkg/logger"
)

const smsRequestTimeout = 15 * time.Second

// SMSGateway delivers messages through an HTTP SMS provider. The provider
// accepts a form-encoded POST and answers with a JSON body carrying the
// message sid.
type SMSGateway struct {
	logger *logger.Logger

	providerURL string
	authToken   string
	sender      string

	client *http.Client
}

func NewSMSGateway(logger *logger.Logger, providerURL, authToken, sender string) *SMSGateway {
	return &SMSGateway{
		logger:      logger,
		providerURL: providerURL,
		authToken:   authToken,
		sender:      sender,
		client:      &http.Client{Timeout: smsRequestTimeout},
	}
}

type smsProviderResponse struct {
	Sid    string `json:"sid"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

func (s *SMSGateway) Send(ctx context.Context, req *models.DeliveryRequest) (string, error) {
	if s.providerURL == "" {
		return "", fmt.Errorf("sms provider is not configured")
	}

	sender := s.sender
	if req.SenderName != "" {
		sender = req.SenderName
	}

	form := url.Values{}
	form.Set("To", req.Destination)
	form.Set("From", sender)
	form.Set("Body", req.Content)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.providerURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build sms provider request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if s.authToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.authToken)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("sms provider request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read sms provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("sms provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed smsProviderResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode sms provider response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("sms provider error: %s", parsed.Error)
	}

	s.logger.Debug("SMS delivered ", "destination ", req.Destination, " sid ", parsed.Sid)
	return parsed.Sid, nil
}
