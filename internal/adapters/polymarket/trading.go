package polymarket

// trading.go — live order execution via the Polymarket CLOB.
//
// Implements ports.LiveSettlement using AuthClient for L1/L2 auth.
// Resting orders are GTC limit bids at the maker quote; all other orders
// cross the spread at the best ask of the side's token.

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/polyarena/internal/domain"
)

const usdcEAddress = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"

var balanceOfABI abi.ABI

func init() {
	var err error
	balanceOfABI, err = abi.JSON(strings.NewReader(`[{
		"name":"balanceOf","type":"function",
		"inputs":[{"name":"account","type":"address"}],
		"outputs":[{"name":"","type":"uint256"}]
	}]`))
	if err != nil {
		panic("balanceOf abi: " + err.Error())
	}
}

// TradingClient implements ports.LiveSettlement.
type TradingClient struct {
	auth      *AuthClient
	rpcClient *ethclient.Client // nil disables the balance preflight
}

// NewTradingClient creates a TradingClient. rpcURL is used for on-chain
// balance checks; empty skips them.
func NewTradingClient(auth *AuthClient, rpcURL string) (*TradingClient, error) {
	tc := &TradingClient{auth: auth}
	if rpcURL == "" {
		return tc, nil
	}
	rpc, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("trading: dial rpc: %w", err)
	}
	tc.rpcClient = rpc
	return tc, nil
}

// Close releases the RPC connection.
func (tc *TradingClient) Close() {
	if tc.rpcClient != nil {
		tc.rpcClient.Close()
	}
}

// SubmitLive signs and submits a BUY order for req.TokenID.
func (tc *TradingClient) SubmitLive(ctx context.Context, req domain.LiveOrderRequest) (domain.LiveFill, error) {
	if err := tc.auth.EnsureCreds(ctx); err != nil {
		return domain.LiveFill{}, fmt.Errorf("trading.SubmitLive: creds: %w", err)
	}

	if tc.rpcClient != nil {
		bal, err := tc.GetBalance(ctx)
		if err != nil {
			slog.Warn("trading: balance preflight failed", "err", err)
		} else if bal < req.Amount {
			return domain.LiveFill{}, fmt.Errorf("trading.SubmitLive: balance %.2f < %.2f: %w",
				bal, req.Amount, domain.ErrExecutionFailure)
		}
	}

	price := req.Price
	if !req.Resting || price <= 0 {
		book, err := tc.auth.FetchOrderBook(ctx, req.TokenID)
		if err != nil {
			return domain.LiveFill{}, fmt.Errorf("trading.SubmitLive: book: %w", err)
		}
		price = book.BestAsk()
		if price <= 0 {
			return domain.LiveFill{}, fmt.Errorf("trading.SubmitLive: no asks for %s: %w",
				req.TokenID, domain.ErrDataUnavailable)
		}
		if depth := book.AskDepthUSDC(price); depth < req.Amount {
			slog.Warn("trading: thin book at best ask, remainder will rest",
				"token", req.TokenID, "depth", depth, "amount", req.Amount)
		}
	}

	negRisk, err := tc.auth.IsNegRisk(ctx, req.TokenID)
	if err != nil {
		slog.Warn("trading: neg-risk lookup failed, assuming standard exchange", "token", req.TokenID, "err", err)
	}

	signed, err := tc.auth.buildSignedOrder(req.TokenID, price, req.Amount, negRisk)
	if err != nil {
		return domain.LiveFill{}, fmt.Errorf("trading.SubmitLive: sign: %w: %v", domain.ErrExecutionFailure, err)
	}

	body := clobOrderRequest{
		Order: clobOrderBody{
			Salt:          json.Number(signed.Order.Salt.String()),
			Maker:         signed.Order.Maker.Hex(),
			Signer:        signed.Order.Signer.Hex(),
			Taker:         signed.Order.Taker.Hex(),
			TokenID:       req.TokenID,
			MakerAmount:   signed.Order.MakerAmount.String(),
			TakerAmount:   signed.Order.TakerAmount.String(),
			Expiration:    signed.Order.Expiration.String(),
			Nonce:         signed.Order.Nonce.String(),
			FeeRateBps:    signed.Order.FeeRateBps.String(),
			Side:          "BUY",
			SignatureType: int(signed.Order.SignatureType.Int64()),
			Signature:     "0x" + hex.EncodeToString(signed.Signature),
		},
		Owner:     tc.auth.creds.APIKey,
		OrderType: "GTC",
	}

	var resp clobOrderResponse
	if err := tc.auth.doL2(ctx, http.MethodPost, "/order", body, &resp); err != nil {
		return domain.LiveFill{}, fmt.Errorf("trading.SubmitLive: post: %w", err)
	}
	if !resp.Success || resp.ErrorMsg != "" {
		return domain.LiveFill{}, fmt.Errorf("trading.SubmitLive: clob error %q: %w", resp.ErrorMsg, domain.ErrExecutionFailure)
	}

	shares := decimal.NewFromBigInt(signed.Order.TakerAmount, -6)
	slog.Info("trading: order placed",
		"order_id", resp.OrderID,
		"side", req.Side,
		"price", price,
		"shares", shares.String(),
		"resting", req.Resting,
		"status", resp.Status,
	)
	return domain.LiveFill{
		OrderID: resp.OrderID,
		Price:   price,
		Size:    shares.InexactFloat64(),
		Status:  resp.Status,
	}, nil
}

// CancelOrder cancels a single order by its CLOB order ID.
func (tc *TradingClient) CancelOrder(ctx context.Context, clobOrderID string) error {
	if err := tc.auth.EnsureCreds(ctx); err != nil {
		return fmt.Errorf("cancel order: creds: %w", err)
	}

	path := "/order/" + clobOrderID
	if err := tc.auth.doL2(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("cancel order %s: %w", clobOrderID, err)
	}
	return nil
}

// CancelAll cancels all open orders for this wallet.
func (tc *TradingClient) CancelAll(ctx context.Context) error {
	if err := tc.auth.EnsureCreds(ctx); err != nil {
		return fmt.Errorf("cancel all: creds: %w", err)
	}

	if err := tc.auth.doL2(ctx, http.MethodDelete, "/orders", nil, nil); err != nil {
		return fmt.Errorf("cancel all: %w", err)
	}
	return nil
}

// GetBalance returns the on-chain USDC.e balance of the wallet.
func (tc *TradingClient) GetBalance(ctx context.Context) (float64, error) {
	if tc.rpcClient == nil {
		return 0, fmt.Errorf("get balance: no rpc configured: %w", domain.ErrConfiguration)
	}
	callData, err := balanceOfABI.Pack("balanceOf", tc.auth.address)
	if err != nil {
		return 0, fmt.Errorf("get balance: pack: %w", err)
	}

	token := common.HexToAddress(usdcEAddress)
	result, err := tc.rpcClient.CallContract(ctx, ethereum.CallMsg{
		To:   &token,
		Data: callData,
	}, nil)
	if err != nil {
		return 0, fmt.Errorf("get balance: rpc call: %w", err)
	}

	vals, err := balanceOfABI.Unpack("balanceOf", result)
	if err != nil || len(vals) == 0 {
		return 0, fmt.Errorf("get balance: unpack: %w", err)
	}

	raw, ok := vals[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("get balance: unexpected type %T", vals[0])
	}
	return decimal.NewFromBigInt(raw, -6).InexactFloat64(), nil
}
