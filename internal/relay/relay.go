package relay

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/topstrike/syscall-relayer/internal/blockchain"
	"github.com/topstrike/syscall-relayer/internal/capability"
	"github.com/topstrike/syscall-relayer/internal/config"
	"github.com/topstrike/syscall-relayer/internal/models"
	"github.com/topstrike/syscall-relayer/pkg/logger"
)

// Relay is the main struct for the syscall relayer application.
// It authenticates on-chain payments, converts them into capability tokens
// and redeems those tokens against the delivery gateway.
type Relay struct {
	logger *logger.Logger
	config *config.Config

	chain   models.ChainService
	writer  models.ConsumptionService
	gateway models.DeliveryService
	alerts  models.AlertService
	tokens  *capability.Tokens
}

// NewRelay creates a new Relay instance
func NewRelay(
	chain models.ChainService,
	writer models.ConsumptionService,
	gateway models.DeliveryService,
	alerts models.AlertService,
	tokens *capability.Tokens,
	logger *logger.Logger,
	config *config.Config,
) models.RelayI {
	return &Relay{
		chain:   chain,
		writer:  writer,
		gateway: gateway,
		alerts:  alerts,
		tokens:  tokens,
		logger:  logger,
		config:  config,
	}
}

// VerifyPayment authenticates a transaction hash as a genuine, unconsumed
// payment. Every check short-circuits to a rejection; chain and ABI errors
// degrade to "not verified" rather than leaking detail to the caller.
// The function is idempotent and side-effect free.
func (r *Relay) VerifyPayment(ctx context.Context, txHash string) (*models.VerifiedPayment, models.RejectReason) {
	receipt, err := r.chain.GetTransactionReceipt(ctx, txHash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			r.logger.Debug("Transaction not found on chain ", "tx ", txHash)
			return nil, models.RejectNotMined
		}
		r.logger.Error("Failed to fetch transaction receipt ", "tx ", txHash, " error ", err)
		return nil, models.RejectChainError
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		r.logger.Warn("Transaction reverted ", "tx ", txHash)
		return nil, models.RejectReverted
	}

	contract, err := r.chain.ResolveServiceContract(ctx)
	if err != nil {
		r.logger.Error("Failed to resolve service contract ", "error ", err)
		return nil, models.RejectChainError
	}

	target, err := r.chain.GetTransactionTarget(ctx, txHash)
	if err != nil {
		r.logger.Error("Failed to fetch transaction target ", "tx ", txHash, " error ", err)
		return nil, models.RejectChainError
	}
	if target == nil || *target != contract {
		// Payment sent to a stale or spoofed contract
		r.logger.Warn("Transaction target does not match authoritative contract ", "tx ", txHash, " contract ", contract.Hex())
		return nil, models.RejectWrongContract
	}

	events, err := blockchain.ExtractPaymentEvents(receipt.Logs, contract)
	if err != nil {
		r.logger.Error("Failed to decode payment events ", "tx ", txHash, " error ", err)
		return nil, models.RejectChainError
	}
	if len(events) == 0 {
		r.logger.Warn("No payment event in transaction ", "tx ", txHash)
		return nil, models.RejectNoPaymentEvent
	}
	// One transaction carries at most one payment relevant to this flow
	event := events[0]

	consumed, err := r.chain.IsConsumed(ctx, contract, event.PaymentID)
	if err != nil {
		r.logger.Error("Failed to read consumption flag ", "tx ", txHash, " payment_id ", event.PaymentID, " error ", err)
		return nil, models.RejectChainError
	}
	if consumed {
		r.logger.Warn("Replay attempt: payment already consumed ", "tx ", txHash, " payment_id ", event.PaymentID)
		return nil, models.RejectAlreadyConsumed
	}

	r.logger.Info("Payment verified ", "tx ", txHash, " payment_id ", event.PaymentID, " payer ", event.Payer, " service ", event.Service)
	return &models.VerifiedPayment{
		PaymentID: event.PaymentID,
		Payer:     event.Payer,
		Service:   event.Service,
		Quantity:  event.Quantity.Uint64(),
	}, models.RejectNone
}

// IssueCapability converts a verified payment into a signed capability token.
func (r *Relay) IssueCapability(v *models.VerifiedPayment) (string, error) {
	return r.tokens.Issue(v)
}

// Dispatch validates the capability, enforces the quota against the payload,
// delivers the paid action and records consumption on chain.
//
// If delivery fails, consumption is never recorded and the client may retry
// the whole verify and dispatch flow. If delivery succeeds but the
// consumption write fails, the dispatch still reports success: the paid
// action already happened, so the inconsistency is an operator problem, not
// a user-facing error.
func (r *Relay) Dispatch(ctx context.Context, token string, req *models.DispatchRequest) (*models.DispatchResult, error) {
	claims, err := r.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	paymentID, ok := new(big.Int).SetString(claims.PaymentID, 10)
	if !ok {
		return nil, models.ErrTokenMalformed
	}

	// Quota is enforced in encoded bytes to match the on-chain unit
	payloadSize := uint64(len(req.Content))
	if payloadSize > claims.Quantity {
		r.logger.Warn("Payload exceeds quota ", "payment_id ", claims.PaymentID, " payload_bytes ", payloadSize, " quota ", claims.Quantity)
		return nil, fmt.Errorf("%w: payload is %d bytes, purchased %d", models.ErrQuotaExceeded, payloadSize, claims.Quantity)
	}

	providerReceipt, err := r.gateway.Send(ctx, &models.DeliveryRequest{
		Service:     claims.Service,
		Destination: req.Destination,
		Content:     req.Content,
		Subject:     req.Subject,
		SenderName:  req.SenderName,
	})
	if err != nil {
		// The payment stays unconsumed; no chain write happens
		if errors.Is(err, models.ErrUnknownService) {
			return nil, err
		}
		r.logger.Error("Delivery failed, payment remains unconsumed ", "payment_id ", claims.PaymentID, " service ", claims.Service, " error ", err)
		return nil, fmt.Errorf("%w: %s", models.ErrDeliveryFailed, err)
	}

	result := &models.DispatchResult{
		Status:          "success",
		Service:         claims.Service,
		Destination:     req.Destination,
		PaymentID:       claims.PaymentID,
		ProviderReceipt: providerReceipt,
		Timestamp:       time.Now().Unix(),
	}

	consumptionTx, err := r.writer.MarkConsumed(ctx, paymentID)
	if err != nil {
		// Delivered but unconsumed: the client got what it paid for, so the
		// response stays a success. Operators reconcile out of band.
		r.logger.Error("DELIVERED BUT UNCONSUMED: consumption write failed after delivery ",
			"payment_id ", claims.PaymentID, " service ", claims.Service, " destination ", req.Destination, " error ", err)
		if r.alerts != nil {
			r.alerts.Alert(ctx, fmt.Sprintf(
				"delivered-but-unconsumed: payment %s (%s to %s) was delivered but consumePayment failed: %s",
				claims.PaymentID, claims.Service, req.Destination, err))
		}
		return result, nil
	}

	result.ConsumptionTx = consumptionTx
	r.logger.Info("Dispatch completed ", "payment_id ", claims.PaymentID, " service ", claims.Service, " consumption_tx ", consumptionTx)
	return result, nil
}

// ServiceContract resolves the current authoritative contract address.
func (r *Relay) ServiceContract(ctx context.Context) (string, error) {
	contract, err := r.chain.ResolveServiceContract(ctx)
	if err != nil {
		return "", err
	}
	return contract.Hex(), nil
}
