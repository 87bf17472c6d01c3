package blockchain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/topstrike/syscall-relayer/internal/config"
	"github.com/topstrike/syscall-relayer/internal/models"
	"github.com/topstrike/syscall-relayer/pkg/logger"
)

// gasMarginNum/gasMarginDen add 20% on top of the gas estimate to absorb
// minor state changes between estimation and inclusion.
const (
	gasMarginNum = 12
	gasMarginDen = 10
)

// txBackend is the slice of the RPC client the writer needs to build, send
// and await a transaction. *ethclient.Client satisfies it.
type txBackend interface {
	bind.DeployBackend
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

type contractResolver interface {
	ResolveServiceContract(ctx context.Context) (common.Address, error)
}

// ConsumptionWriter signs and submits the on-chain consumePayment
// transaction and waits for it to be mined.
//
// The relayer account's nonce is a process-wide sequential resource, so all
// writes are serialized behind a mutex. Multiple relay instances sharing one
// key need external nonce coordination.
type ConsumptionWriter struct {
	logger   *logger.Logger
	resolver contractResolver
	backend  txBackend

	key         *ecdsa.PrivateKey
	chainID     *big.Int
	fallbackGas uint64
	waitTimeout time.Duration

	mu sync.Mutex
}

// NewConsumptionWriter creates a writer bound to the relayer account. A
// missing key is not a startup error; it surfaces on the first write.
func NewConsumptionWriter(client *Client, logger *logger.Logger, cfg *config.Config) (*ConsumptionWriter, error) {
	w := &ConsumptionWriter{
		logger:      logger,
		resolver:    client,
		backend:     client.Backend(),
		chainID:     cfg.ChainID,
		fallbackGas: cfg.FallbackGasLimit,
		waitTimeout: time.Duration(cfg.ReceiptWaitTimeoutSeconds) * time.Second,
	}

	if cfg.RelayerKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.RelayerKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("failed to parse relayer private key: %w", err)
		}
		w.key = key
	}

	return w, nil
}

// MarkConsumed resolves the authoritative contract fresh, builds and signs
// consumePayment(paymentID) and blocks until the transaction is mined or the
// wait timeout expires. A duplicate call for an already-consumed payment
// simply reverts on chain.
func (w *ConsumptionWriter) MarkConsumed(ctx context.Context, paymentID *big.Int) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.key == nil {
		return "", models.ErrSigningKeyMissing
	}

	contract, err := w.resolver.ResolveServiceContract(ctx)
	if err != nil {
		return "", err
	}

	backend := w.backend
	from := crypto.PubkeyToAddress(w.key.PublicKey)

	// The pending nonce, not the last-confirmed one, so that back-to-back
	// dispatches from this process do not collide on nonce reuse.
	nonce, err := backend.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("failed to fetch pending nonce: %w", err)
	}

	gasPrice, err := backend.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch gas price: %w", err)
	}

	data, err := syscallABI.Pack("consumePayment", paymentID)
	if err != nil {
		return "", fmt.Errorf("failed to pack consumePayment call: %w", err)
	}

	gasLimit := w.fallbackGas
	estimate, err := backend.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &contract, Data: data})
	if err != nil {
		w.logger.Warn("Gas estimation failed, using fallback limit ", "payment_id ", paymentID, " fallback ", w.fallbackGas, " error ", err)
	} else {
		gasLimit = (estimate*gasMarginNum + gasMarginDen - 1) / gasMarginDen
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &contract,
		Value:    big.NewInt(0),
		Data:     data,
	})

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(w.chainID), w.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign consumption transaction: %w", err)
	}

	if err := backend.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to broadcast consumption transaction: %w", err)
	}

	w.logger.Debug("Consumption transaction broadcast ", "payment_id ", paymentID, " tx ", signedTx.Hash().Hex())

	waitCtx, cancel := context.WithTimeout(ctx, w.waitTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, backend, signedTx)
	if err != nil {
		return "", fmt.Errorf("consumption transaction %s not mined: %w", signedTx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", fmt.Errorf("consumption transaction %s reverted", signedTx.Hash().Hex())
	}

	return signedTx.Hash().Hex(), nil
}
