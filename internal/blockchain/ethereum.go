package blockchain

import (
	"context"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/topstrike/syscall-relayer/internal/config"
	"github.com/topstrike/syscall-relayer/internal/models"
	"github.com/topstrike/syscall-relayer/pkg/logger"
)

// Client wraps the Ethereum RPC client with the reads the relay needs:
// receipts, the registry lookup and the consumption flag.
type Client struct {
	logger *logger.Logger
	config *config.Config
	apiURL string
	client *ethclient.Client

	registry common.Address
}

// NewClient creates a new Client instance. Run must be called before use.
func NewClient(apiURL string, logger *logger.Logger, config *config.Config) *Client {
	return &Client{apiURL: apiURL, logger: logger, config: config}
}

func (c *Client) Run() error {
	if err := c.ConnectToRPC(); err != nil {
		return fmt.Errorf("failed to connect to the RPC server: %w", err)
	}
	c.registry = common.HexToAddress(c.config.RegistryAddress)
	return nil
}

func (c *Client) ConnectToRPC() error {
	client, err := ethclient.Dial(c.apiURL)
	if err != nil {
		return fmt.Errorf("failed to connect to the RPC server: %w", err)
	}
	c.client = client
	return nil
}

func (c *Client) Close() error {
	if c.client != nil {
		c.client.Close()
	}
	return nil
}

// Backend exposes the underlying RPC client for the consumption writer.
func (c *Client) Backend() *ethclient.Client {
	return c.client
}

func (c *Client) GetTransactionReceipt(ctx context.Context, txHash string) (*types.Receipt, error) {
	receipt, err := c.client.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func (c *Client) GetTransactionTarget(ctx context.Context, txHash string) (*common.Address, error) {
	tx, _, err := c.client.TransactionByHash(ctx, common.HexToHash(txHash))
	if err != nil {
		return nil, err
	}
	return tx.To(), nil
}

// ResolveServiceContract reads the authoritative service contract address
// from the registry. The registry is queried on every call so that a
// registry-level upgrade takes effect immediately.
func (c *Client) ResolveServiceContract(ctx context.Context) (common.Address, error) {
	data, err := registryABI.Pack("authoritativeContract")
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: failed to pack registry call: %s", models.ErrRegistryUnavailable, err)
	}

	out, err := c.client.CallContract(ctx, ethereum.CallMsg{To: &c.registry, Data: data}, nil)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %s", models.ErrRegistryUnavailable, err)
	}

	results, err := registryABI.Unpack("authoritativeContract", out)
	if err != nil || len(results) != 1 {
		return common.Address{}, fmt.Errorf("%w: malformed registry return", models.ErrRegistryUnavailable)
	}

	contract, ok := results[0].(common.Address)
	if !ok || contract == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: registry resolved to zero address", models.ErrRegistryUnavailable)
	}
	return contract, nil
}

func (c *Client) IsConsumed(ctx context.Context, contract common.Address, paymentID *big.Int) (bool, error) {
	data, err := syscallABI.Pack("isConsumed", paymentID)
	if err != nil {
		return false, fmt.Errorf("failed to pack isConsumed call: %w", err)
	}

	out, err := c.client.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return false, fmt.Errorf("failed to read consumption flag: %w", err)
	}

	results, err := syscallABI.Unpack("isConsumed", out)
	if err != nil || len(results) != 1 {
		return false, fmt.Errorf("malformed isConsumed return")
	}

	consumed, ok := results[0].(bool)
	if !ok {
		return false, fmt.Errorf("malformed isConsumed return")
	}
	return consumed, nil
}
