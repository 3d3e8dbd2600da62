// Package venue holds the REST clients for the two trading venues. They are
// the concrete implementations of the balance, allowance, quote and remote
// operation capabilities the engine consumes; the engine itself never sees
// HTTP.
package venue

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/venue-router/internal/domain"
	"github.com/hxuan190/venue-router/internal/metrics"
)

// Client speaks one venue's settlement API. All methods are suspension
// points; the configured HTTP client owns the timeout.
type Client struct {
	kind    domain.VenueKind
	baseURL string
	http    *http.Client
}

func NewClient(kind domain.VenueKind, baseURL string, timeout time.Duration) *Client {
	return &Client{
		kind:    kind,
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Kind() domain.VenueKind {
	return c.kind
}

type amountResponse struct {
	Amount uint64 `json:"amount"`
}

type pairAmountsResponse struct {
	Amount0 uint64 `json:"amount0"`
	Amount1 uint64 `json:"amount1"`
}

type quoteResponse struct {
	AmountOut      uint64 `json:"amountOut"`
	PriceImpactBps uint16 `json:"priceImpactBps"`
	Error          string `json:"error,omitempty"`
}

type opRequest struct {
	Token   string `json:"token"`
	Spender string `json:"spender,omitempty"`
	Amount  uint64 `json:"amount"`
}

type opResponse struct {
	Amount uint64 `json:"amount"`
	Error  string `json:"error,omitempty"`
}

type swapRequest struct {
	TokenIn      string `json:"tokenIn"`
	TokenOut     string `json:"tokenOut"`
	AmountIn     uint64 `json:"amountIn"`
	MinAmountOut uint64 `json:"minAmountOut"`
}

// WalletBalance returns the wallet balance the venue observes for a token.
func (c *Client) WalletBalance(ctx context.Context, token solana.PublicKey) (uint64, error) {
	var resp amountResponse
	q := url.Values{"token": {token.String()}}
	if err := c.get(ctx, "/v1/balances/wallet", q, &resp); err != nil {
		return 0, err
	}
	return resp.Amount, nil
}

// CustodyDeposited returns the deposited custody balances of the traded pair.
func (c *Client) CustodyDeposited(ctx context.Context, pair domain.TokenPair) (uint64, uint64, error) {
	var resp pairAmountsResponse
	q := url.Values{"token0": {pair.In.String()}, "token1": {pair.Out.String()}}
	if err := c.get(ctx, "/v1/balances/deposited", q, &resp); err != nil {
		return 0, 0, err
	}
	return resp.Amount0, resp.Amount1, nil
}

// CustodyUndeposited returns funds sitting on the venue's custody address
// pending an explicit deposit call.
func (c *Client) CustodyUndeposited(ctx context.Context, token solana.PublicKey) (uint64, error) {
	var resp amountResponse
	q := url.Values{"token": {token.String()}}
	if err := c.get(ctx, "/v1/balances/undeposited", q, &resp); err != nil {
		return 0, err
	}
	return resp.Amount, nil
}

// Allowance returns the live allowance granted to a spender.
func (c *Client) Allowance(ctx context.Context, token, spender solana.PublicKey) (uint64, error) {
	var resp amountResponse
	q := url.Values{"token": {token.String()}, "spender": {spender.String()}}
	if err := c.get(ctx, "/v1/allowance", q, &resp); err != nil {
		return 0, err
	}
	return resp.Amount, nil
}

// Quote prices an input amount. The venue's pricing is opaque; only the
// output amount and price impact come back.
func (c *Client) Quote(ctx context.Context, pair domain.TokenPair, amountIn uint64) (domain.Quote, error) {
	start := time.Now()
	defer func() {
		metrics.QuoteDuration.WithLabelValues(c.kind.String()).Observe(time.Since(start).Seconds())
	}()

	var resp quoteResponse
	q := url.Values{
		"tokenIn":  {pair.In.String()},
		"tokenOut": {pair.Out.String()},
		"amount":   {strconv.FormatUint(amountIn, 10)},
	}
	if err := c.get(ctx, "/v1/quote", q, &resp); err != nil {
		return domain.Quote{}, err
	}
	if resp.Error != "" {
		return domain.Quote{}, fmt.Errorf("venue %s quote: %s", c.kind, resp.Error)
	}
	return domain.Quote{
		AmountIn:       amountIn,
		AmountOut:      resp.AmountOut,
		PriceImpactBps: resp.PriceImpactBps,
	}, nil
}

// Approve grants the spender an allowance.
func (c *Client) Approve(ctx context.Context, token, spender solana.PublicKey, amount uint64) error {
	_, err := c.op(ctx, "/v1/ops/approve", opRequest{Token: token.String(), Spender: spender.String(), Amount: amount})
	return err
}

// Transfer pushes wallet funds to the venue's custody address.
func (c *Client) Transfer(ctx context.Context, token solana.PublicKey, amount uint64) error {
	_, err := c.op(ctx, "/v1/ops/transfer", opRequest{Token: token.String(), Amount: amount})
	return err
}

// Deposit moves funds into pool custody and reports the actual custodied
// amount.
func (c *Client) Deposit(ctx context.Context, token solana.PublicKey, amount uint64) (uint64, error) {
	return c.op(ctx, "/v1/ops/deposit", opRequest{Token: token.String(), Amount: amount})
}

// Withdraw pulls custodied funds back to the wallet.
func (c *Client) Withdraw(ctx context.Context, token solana.PublicKey, amount uint64) error {
	_, err := c.op(ctx, "/v1/ops/withdraw", opRequest{Token: token.String(), Amount: amount})
	return err
}

// Swap executes the trade with a minimum-out bound.
func (c *Client) Swap(ctx context.Context, pair domain.TokenPair, amountIn, minAmountOut uint64) (domain.SwapOutcome, error) {
	body := swapRequest{
		TokenIn:      pair.In.String(),
		TokenOut:     pair.Out.String(),
		AmountIn:     amountIn,
		MinAmountOut: minAmountOut,
	}
	amount, err := c.post(ctx, "/v1/ops/swap", body)
	if err != nil {
		return domain.SwapOutcome{}, err
	}
	return domain.SwapOutcome{AmountOut: amount}, nil
}

func (c *Client) op(ctx context.Context, path string, body opRequest) (uint64, error) {
	return c.post(ctx, path, body)
}

func (c *Client) post(ctx context.Context, path string, body any) (uint64, error) {
	payload, err := sonic.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("venue %s: marshal %s: %w", c.kind, path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp opResponse
	if err := c.do(req, &resp); err != nil {
		return 0, err
	}
	if resp.Error != "" {
		return 0, fmt.Errorf("venue %s %s: %s", c.kind, path, resp.Error)
	}
	return resp.Amount, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("venue %s: %w", c.kind, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("venue %s: read body: %w", c.kind, err)
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("venue %s: %s returned %d: %s", c.kind, req.URL.Path, res.StatusCode, string(data))
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("venue %s: decode %s: %w", c.kind, req.URL.Path, err)
	}
	return nil
}
