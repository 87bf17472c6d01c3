package models

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ChainService is the read-only blockchain surface used during verification.
type ChainService interface {
	// GetTransactionReceipt fetches the receipt for a mined transaction.
	// Returns ethereum.NotFound when the transaction is unknown or pending.
	GetTransactionReceipt(ctx context.Context, txHash string) (*types.Receipt, error)
	// GetTransactionTarget returns the destination address of a transaction,
	// or nil for contract creation.
	GetTransactionTarget(ctx context.Context, txHash string) (*common.Address, error)
	// ResolveServiceContract reads the authoritative service contract
	// address from the registry. Called fresh on every use, never cached.
	ResolveServiceContract(ctx context.Context) (common.Address, error)
	// IsConsumed reads the on-chain consumption flag for a payment.
	IsConsumed(ctx context.Context, contract common.Address, paymentID *big.Int) (bool, error)
}

// ConsumptionService marks a payment consumed on chain.
type ConsumptionService interface {
	// MarkConsumed signs and broadcasts consumePayment(paymentID) and waits
	// until it is mined, returning the transaction hash.
	MarkConsumed(ctx context.Context, paymentID *big.Int) (string, error)
}
