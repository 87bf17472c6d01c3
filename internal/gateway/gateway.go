package gateway

import (
	"context"
	"fmt"

	"github.com/topstrike/syscall-relayer/internal/models"
	"github.com/topstrike/syscall-relayer/pkg/logger"
)

// Gateway routes a delivery request to the provider for its service type.
type Gateway struct {
	logger *logger.Logger

	SMSGateway   *SMSGateway
	EmailGateway *EmailGateway
}

func NewGateway(logger *logger.Logger, sms *SMSGateway, email *EmailGateway) *Gateway {
	return &Gateway{logger: logger, SMSGateway: sms, EmailGateway: email}
}

// Send delivers the paid action and returns the provider's receipt
// identifier. Nothing here retries; a failure is surfaced once.
func (g *Gateway) Send(ctx context.Context, req *models.DeliveryRequest) (string, error) {
	switch req.Service {
	case models.ServiceSMS:
		g.logger.Info("Calling sms gateway ", "destination ", req.Destination)
		return g.SMSGateway.Send(ctx, req)
	case models.ServiceEmail:
		g.logger.Info("Calling email gateway ", "destination ", req.Destination)
		return g.EmailGateway.Send(ctx, req)
	default:
		g.logger.Warn("Unknown service target ", "service ", req.Service)
		return "", fmt.Errorf("%w: %q", models.ErrUnknownService, req.Service)
	}
}
