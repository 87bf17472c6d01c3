package gateway

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/smtp"
	"strconv"

	"github.com/topstrike/syscall-relayer/internal/models"
	"github.com/topstrike/syscall-relayer/pkg/logger"
)

// EmailGateway delivers messages over SMTP.
type EmailGateway struct {
	logger *logger.Logger

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPSender   string

	SMTPAuth smtp.Auth

	// sendMail is swapped out in tests
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailGateway(logger *logger.Logger, host string, port int, user, password, sender string) *EmailGateway {
	auth := smtp.PlainAuth(
		"",
		user,
		password,
		host,
	)

	return &EmailGateway{
		logger:       logger,
		SMTPAuth:     auth,
		SMTPHost:     host,
		SMTPPort:     port,
		SMTPUser:     user,
		SMTPPassword: password,
		SMTPSender:   sender,
		sendMail:     smtp.SendMail,
	}
}

func (e *EmailGateway) Send(_ context.Context, req *models.DeliveryRequest) (string, error) {
	subject := req.Subject
	if subject == "" {
		subject = "Notification"
	}

	from := e.SMTPSender
	if req.SenderName != "" {
		from = fmt.Sprintf("%s <%s>", req.SenderName, e.SMTPSender)
	}

	addr := fmt.Sprintf("%s:%s", e.SMTPHost, strconv.Itoa(e.SMTPPort))
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		from,            // From address
		req.Destination, // To address
		subject,         // Subject
		req.Content,     // Email body
	)
	if err := e.sendMail(addr, e.SMTPAuth, e.SMTPSender, []string{req.Destination}, []byte(msg)); err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	receipt := receiptID()
	e.logger.Debug("Email delivered ", "destination ", req.Destination, " receipt ", receipt)
	return receipt, nil
}

// receiptID generates a local receipt identifier; SMTP has no provider sid.
func receiptID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return "smtp-" + hex.EncodeToString(buf)
}
