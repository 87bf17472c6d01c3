package blockchain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/topstrike/syscall-relayer/internal/models"
)

// SyscallABI is the ABI of the syscall service contract
const SyscallABI = `[{"anonymous":false,"inputs":[{"indexed":true,"internalType":"uint256","name":"paymentId","type":"uint256"},{"indexed":true,"internalType":"address","name":"user","type":"address"},{"indexed":false,"internalType":"string","name":"name","type":"string"},{"indexed":false,"internalType":"uint256","name":"amount","type":"uint256"},{"indexed":false,"internalType":"uint256","name":"quantity","type":"uint256"},{"indexed":false,"internalType":"uint256","name":"timestamp","type":"uint256"}],"name":"ActionPaid","type":"event"},{"inputs":[{"internalType":"uint256","name":"paymentId","type":"uint256"}],"name":"isConsumed","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"view","type":"function"},{"inputs":[{"internalType":"uint256","name":"paymentId","type":"uint256"}],"name":"consumePayment","outputs":[],"stateMutability":"nonpayable","type":"function"}]`

// RegistryABI is the ABI of the fixed registry (proxy) contract
const RegistryABI = `[{"inputs":[],"name":"authoritativeContract","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"}]`

var (
	syscallABI  abi.ABI
	registryABI abi.ABI

	// actionPaidTopic is the topic hash of the ActionPaid event
	actionPaidTopic common.Hash
)

func init() {
	var err error
	syscallABI, err = abi.JSON(strings.NewReader(SyscallABI))
	if err != nil {
		panic(fmt.Sprintf("failed to parse syscall contract ABI: %s", err))
	}
	registryABI, err = abi.JSON(strings.NewReader(RegistryABI))
	if err != nil {
		panic(fmt.Sprintf("failed to parse registry contract ABI: %s", err))
	}
	actionPaidTopic = syscallABI.Events["ActionPaid"].ID
}

// ExtractPaymentEvents decodes all ActionPaid events emitted by the given
// contract from a receipt's logs. Logs with other topics, or emitted by any
// other contract, are skipped; an emitter log that carries the ActionPaid
// topic but fails to decode is an error.
func ExtractPaymentEvents(logs []*types.Log, emitter common.Address) ([]*models.PaymentEvent, error) {
	events := []*models.PaymentEvent{}
	for _, lg := range logs {
		if len(lg.Topics) == 0 || lg.Topics[0] != actionPaidTopic {
			continue
		}
		// A sub-call into a different contract can emit a matching topic;
		// only the authoritative contract's own events count.
		if lg.Address != emitter {
			continue
		}
		if len(lg.Topics) != 3 {
			return nil, fmt.Errorf("ActionPaid event has %d topics, want 3", len(lg.Topics))
		}

		// paymentId and user are indexed, the rest sits in the data blob
		data := map[string]interface{}{}
		if err := syscallABI.UnpackIntoMap(data, "ActionPaid", lg.Data); err != nil {
			return nil, fmt.Errorf("failed to decode ActionPaid event: %w", err)
		}

		name, ok := data["name"].(string)
		if !ok {
			return nil, fmt.Errorf("ActionPaid event has malformed name field")
		}
		amount, ok := data["amount"].(*big.Int)
		if !ok {
			return nil, fmt.Errorf("ActionPaid event has malformed amount field")
		}
		quantity, ok := data["quantity"].(*big.Int)
		if !ok {
			return nil, fmt.Errorf("ActionPaid event has malformed quantity field")
		}
		timestamp, ok := data["timestamp"].(*big.Int)
		if !ok {
			return nil, fmt.Errorf("ActionPaid event has malformed timestamp field")
		}

		events = append(events, &models.PaymentEvent{
			PaymentID: new(big.Int).SetBytes(lg.Topics[1].Bytes()),
			Payer:     strings.ToLower(common.BytesToAddress(lg.Topics[2].Bytes()).Hex()),
			Service:   name,
			Amount:    amount,
			Quantity:  quantity,
			Timestamp: timestamp.Uint64(),
		})
	}
	return events, nil
}
