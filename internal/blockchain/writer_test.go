package blockchain

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topstrike/syscall-relayer/internal/config"
	"github.com/topstrike/syscall-relayer/internal/models"
	"github.com/topstrike/syscall-relayer/pkg/logger"
)

// Well-known anvil development key
const anvilKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var writerContract = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

func writerConfig(key string) *config.Config {
	return &config.Config{
		RelayerKey:                key,
		ChainID:                   big.NewInt(6342),
		FallbackGasLimit:          200000,
		ReceiptWaitTimeoutSeconds: 5,
	}
}

type fakeResolver struct {
	contract common.Address
	err      error
}

func (f *fakeResolver) ResolveServiceContract(_ context.Context) (common.Address, error) {
	return f.contract, f.err
}

type fakeBackend struct {
	nonce         uint64
	gasPrice      *big.Int
	estimate      uint64
	estimateErr   error
	sendErr       error
	receiptStatus uint64

	estimated ethereum.CallMsg
	sent      *types.Transaction
}

func (f *fakeBackend) PendingNonceAt(_ context.Context, _ common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeBackend) SuggestGasPrice(_ context.Context) (*big.Int, error) {
	if f.gasPrice == nil {
		return big.NewInt(1_000_000_000), nil
	}
	return f.gasPrice, nil
}

func (f *fakeBackend) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	f.estimated = msg
	return f.estimate, f.estimateErr
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = tx
	return nil
}

func (f *fakeBackend) TransactionReceipt(_ context.Context, _ common.Hash) (*types.Receipt, error) {
	return &types.Receipt{Status: f.receiptStatus}, nil
}

func (f *fakeBackend) CodeAt(_ context.Context, _ common.Address, _ *big.Int) ([]byte, error) {
	return []byte{1}, nil
}

func newTestWriter(t *testing.T, backend *fakeBackend) *ConsumptionWriter {
	t.Helper()
	key, err := crypto.HexToECDSA(anvilKey[2:])
	require.NoError(t, err)
	return &ConsumptionWriter{
		logger:      logger.NewNopLogger(),
		resolver:    &fakeResolver{contract: writerContract},
		backend:     backend,
		key:         key,
		chainID:     big.NewInt(6342),
		fallbackGas: 200000,
		waitTimeout: time.Second,
	}
}

func TestNewConsumptionWriter_ParsesKey(t *testing.T) {
	cfg := writerConfig(anvilKey)
	w, err := NewConsumptionWriter(&Client{}, logger.NewNopLogger(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, w.key)
}

func TestNewConsumptionWriter_BadKey(t *testing.T) {
	cfg := writerConfig("not-a-key")
	_, err := NewConsumptionWriter(&Client{}, logger.NewNopLogger(), cfg)
	assert.Error(t, err)
}

func TestMarkConsumed_SigningKeyMissing(t *testing.T) {
	// No key configured: the write fails before touching the chain
	w, err := NewConsumptionWriter(&Client{}, logger.NewNopLogger(), writerConfig(""))
	require.NoError(t, err)

	_, err = w.MarkConsumed(context.Background(), big.NewInt(7))
	assert.ErrorIs(t, err, models.ErrSigningKeyMissing)
}

func TestMarkConsumed_Success(t *testing.T) {
	backend := &fakeBackend{nonce: 3, estimate: 100000, receiptStatus: types.ReceiptStatusSuccessful}
	w := newTestWriter(t, backend)

	txHash, err := w.MarkConsumed(context.Background(), big.NewInt(7))
	require.NoError(t, err)

	require.NotNil(t, backend.sent)
	assert.Equal(t, backend.sent.Hash().Hex(), txHash)
	assert.Equal(t, writerContract, *backend.sent.To())
	assert.Zero(t, backend.sent.Value().Sign())

	// Calldata is consumePayment(paymentID)
	expected, err := syscallABI.Pack("consumePayment", big.NewInt(7))
	require.NoError(t, err)
	assert.Equal(t, expected, backend.sent.Data())
}

func TestMarkConsumed_UsesPendingNonce(t *testing.T) {
	backend := &fakeBackend{nonce: 42, estimate: 100000, receiptStatus: types.ReceiptStatusSuccessful}
	w := newTestWriter(t, backend)

	_, err := w.MarkConsumed(context.Background(), big.NewInt(7))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), backend.sent.Nonce())
}

func TestMarkConsumed_GasMargin(t *testing.T) {
	// 20% on top of the estimate, rounded up
	cases := []struct {
		estimate uint64
		limit    uint64
	}{
		{100000, 120000},
		{100001, 120002},
		{1, 2},
	}

	for _, tc := range cases {
		backend := &fakeBackend{estimate: tc.estimate, receiptStatus: types.ReceiptStatusSuccessful}
		w := newTestWriter(t, backend)

		_, err := w.MarkConsumed(context.Background(), big.NewInt(7))
		require.NoError(t, err)
		assert.Equal(t, tc.limit, backend.sent.Gas(), "estimate %d", tc.estimate)
	}
}

func TestMarkConsumed_FallbackGasLimit(t *testing.T) {
	backend := &fakeBackend{
		estimateErr:   errors.New("execution reverted"),
		receiptStatus: types.ReceiptStatusSuccessful,
	}
	w := newTestWriter(t, backend)

	_, err := w.MarkConsumed(context.Background(), big.NewInt(7))
	require.NoError(t, err)
	assert.Equal(t, uint64(200000), backend.sent.Gas())
}

func TestMarkConsumed_Reverted(t *testing.T) {
	backend := &fakeBackend{estimate: 100000, receiptStatus: types.ReceiptStatusFailed}
	w := newTestWriter(t, backend)

	_, err := w.MarkConsumed(context.Background(), big.NewInt(7))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reverted")
}

func TestMarkConsumed_BroadcastFailure(t *testing.T) {
	backend := &fakeBackend{estimate: 100000, sendErr: errors.New("nonce too low")}
	w := newTestWriter(t, backend)

	_, err := w.MarkConsumed(context.Background(), big.NewInt(7))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broadcast")
}

func TestMarkConsumed_ResolverFailure(t *testing.T) {
	backend := &fakeBackend{estimate: 100000, receiptStatus: types.ReceiptStatusSuccessful}
	w := newTestWriter(t, backend)
	w.resolver = &fakeResolver{err: models.ErrRegistryUnavailable}

	_, err := w.MarkConsumed(context.Background(), big.NewInt(7))
	assert.ErrorIs(t, err, models.ErrRegistryUnavailable)
	assert.Nil(t, backend.sent)
}
