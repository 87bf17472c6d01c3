package http_api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/topstrike/syscall-relayer/internal/models"
	"github.com/topstrike/syscall-relayer/pkg/validation"
)

// VerifyRequest represents the JSON body for payment verification
type VerifyRequest struct {
	TxHash string `json:"tx_hash" binding:"required"`
	// Signature and Sender are recorded for auditing; entitlement derives
	// from the on-chain event's payer, not from the HTTP caller.
	Signature string `json:"signature" binding:"required"`
	Sender    string `json:"sender" binding:"required"`
}

// VerifyResponse represents the success response for verification
type VerifyResponse struct {
	Status string `json:"status"`
	JWT    string `json:"jwt"`
}

// DispatchRequest represents the JSON body for capability redemption
type DispatchRequest struct {
	Destination string `json:"destination" binding:"required"`
	Content     string `json:"content" binding:"required"`
	Subject     string `json:"subject"`
	SenderName  string `json:"sender_name"`
}

// verify is a handler for the /verify endpoint. It authenticates the
// submitted transaction as an unconsumed payment and answers with a
// capability token.
func (s *HTTPServer) verify(c *gin.Context) {
	var req VerifyRequest

	// Parse and validate JSON request body
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Debug("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Invalid request body: " + err.Error(),
		})
		return
	}

	if err := validation.ValidateTxHash(req.TxHash); err != nil {
		s.logger.Debug("Invalid transaction hash", "error", err, "tx", req.TxHash)
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Invalid transaction hash: " + err.Error(),
		})
		return
	}

	if err := validation.ValidateAddress(req.Sender); err != nil {
		s.logger.Debug("Invalid sender address", "error", err, "sender", req.Sender)
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Invalid sender address: " + err.Error(),
		})
		return
	}

	s.logger.Info("Verification request ", "client ", c.ClientIP(), " sender ", validation.NormalizeHex(req.Sender), " tx ", req.TxHash)

	payment, reason := s.relay.VerifyPayment(c.Request.Context(), req.TxHash)
	if reason.Rejected() {
		// Rejections are deliberately generic towards the caller so the
		// endpoint cannot be used as a verification oracle.
		s.logger.Warn("Verification failed ", "tx ", req.TxHash, " reason ", reason)
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Transaction failed, not found, or RPC error",
		})
		return
	}

	token, err := s.relay.IssueCapability(payment)
	if err != nil {
		s.logger.Error("Failed to issue capability token ", "tx ", req.TxHash, " error ", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error",
			"error":  "Failed to issue token",
		})
		return
	}

	s.logger.Info("Payment verified, issuing token ", "payer ", payment.Payer, " payment_id ", payment.PaymentID)
	c.JSON(http.StatusOK, VerifyResponse{
		Status: "authorized",
		JWT:    token,
	})
}

// dispatch is a handler for the /dispatch endpoint. It redeems a capability
// token for the paid action.
func (s *HTTPServer) dispatch(c *gin.Context) {
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"status": "error",
			"error":  "Missing bearer token",
		})
		return
	}

	var req DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Debug("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Invalid request body: " + err.Error(),
		})
		return
	}

	s.logger.Info("Dispatch request ", "client ", c.ClientIP(), " destination ", req.Destination)

	result, err := s.relay.Dispatch(c.Request.Context(), token, &models.DispatchRequest{
		Destination: req.Destination,
		Content:     req.Content,
		Subject:     req.Subject,
		SenderName:  req.SenderName,
	})
	if err != nil {
		s.dispatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      result.Status,
		"service":     result.Service,
		"destination": result.Destination,
		"meta": gin.H{
			"paymentId":     result.PaymentID,
			"consumptionTx": result.ConsumptionTx,
			"providerSid":   result.ProviderReceipt,
			"timestamp":     result.Timestamp,
		},
	})
}

// dispatchError maps dispatch failures onto the HTTP error taxonomy.
func (s *HTTPServer) dispatchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrTokenExpired), errors.Is(err, models.ErrTokenMalformed):
		c.JSON(http.StatusUnauthorized, gin.H{
			"status": "error",
			"error":  "Missing, expired or invalid token",
		})
	case errors.Is(err, models.ErrQuotaExceeded):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"status": "error",
			"error":  err.Error(),
		})
	case errors.Is(err, models.ErrUnknownService):
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Unknown service type",
		})
	case errors.Is(err, models.ErrDeliveryFailed):
		c.JSON(http.StatusBadGateway, gin.H{
			"status": "error",
			"error":  "Delivery provider error",
		})
	default:
		s.logger.Error("Dispatch failed ", "error ", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error",
			"error":  "Dispatch failed",
		})
	}
}

// configInfo is a handler for the /config endpoint.
func (s *HTTPServer) configInfo(c *gin.Context) {
	contract, err := s.relay.ServiceContract(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to resolve service contract ", "error ", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "relay misconfigured"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rpc_url":          s.rpcURL,
		"contract_address": contract,
	})
}

// health is a handler for the /health endpoint.
func (s *HTTPServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
