package blockchain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topstrike/syscall-relayer/internal/models"
)

var syscallContract = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

func actionPaidLog(t *testing.T, paymentID *big.Int, payer common.Address, name string, amount, quantity, timestamp *big.Int) *types.Log {
	t.Helper()

	data, err := syscallABI.Events["ActionPaid"].Inputs.NonIndexed().Pack(name, amount, quantity, timestamp)
	require.NoError(t, err)

	return &types.Log{
		Address: syscallContract,
		Topics: []common.Hash{
			actionPaidTopic,
			common.BigToHash(paymentID),
			common.BytesToHash(common.LeftPadBytes(payer.Bytes(), 32)),
		},
		Data: data,
	}
}

func TestExtractPaymentEvents(t *testing.T) {
	payer := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	lg := actionPaidLog(t, big.NewInt(42), payer, models.ServiceEmail,
		big.NewInt(5_000_000), big.NewInt(2048), big.NewInt(1717000000))

	events, err := ExtractPaymentEvents([]*types.Log{lg}, syscallContract)
	require.NoError(t, err)
	require.Len(t, events, 1)

	event := events[0]
	assert.Equal(t, int64(42), event.PaymentID.Int64())
	assert.Equal(t, "0x70997970c51812dc3a010c7d01b50e0d17dc79c8", event.Payer)
	assert.Equal(t, models.ServiceEmail, event.Service)
	assert.Equal(t, int64(5_000_000), event.Amount.Int64())
	assert.Equal(t, int64(2048), event.Quantity.Int64())
	assert.Equal(t, uint64(1717000000), event.Timestamp)
}

func TestExtractPaymentEvents_SkipsForeignLogs(t *testing.T) {
	payer := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")

	foreign := &types.Log{
		Address: syscallContract,
		Topics:  []common.Hash{common.HexToHash("0xdeadbeef")},
	}
	relevant := actionPaidLog(t, big.NewInt(1), payer, models.ServiceSMS,
		big.NewInt(1), big.NewInt(160), big.NewInt(1717000000))

	events, err := ExtractPaymentEvents([]*types.Log{foreign, relevant}, syscallContract)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(1), events[0].PaymentID.Int64())
}

func TestExtractPaymentEvents_SkipsForeignEmitter(t *testing.T) {
	// A sub-call contract emitting the same topic must not authenticate
	payer := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	spoofed := actionPaidLog(t, big.NewInt(1), payer, models.ServiceSMS,
		big.NewInt(1), big.NewInt(160), big.NewInt(1717000000))
	spoofed.Address = common.HexToAddress("0x000000000000000000000000000000000000bEEF")

	events, err := ExtractPaymentEvents([]*types.Log{spoofed}, syscallContract)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestExtractPaymentEvents_MalformedTopics(t *testing.T) {
	// The emitter's own ActionPaid log with a wrong topic count is an error,
	// not a silent skip
	lg := &types.Log{
		Address: syscallContract,
		Topics:  []common.Hash{actionPaidTopic, common.BigToHash(big.NewInt(1))},
	}

	_, err := ExtractPaymentEvents([]*types.Log{lg}, syscallContract)
	assert.Error(t, err)
}

func TestExtractPaymentEvents_NoLogs(t *testing.T) {
	events, err := ExtractPaymentEvents(nil, syscallContract)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestExtractPaymentEvents_PreservesOrder(t *testing.T) {
	payer := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")

	first := actionPaidLog(t, big.NewInt(1), payer, models.ServiceSMS,
		big.NewInt(1), big.NewInt(160), big.NewInt(1717000000))
	second := actionPaidLog(t, big.NewInt(2), payer, models.ServiceEmail,
		big.NewInt(1), big.NewInt(320), big.NewInt(1717000001))

	events, err := ExtractPaymentEvents([]*types.Log{first, second}, syscallContract)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(1), events[0].PaymentID.Int64())
	assert.Equal(t, int64(2), events[1].PaymentID.Int64())
}
