package polymarket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/alanyoungcy/polyscout/internal/crypto"
	"github.com/alanyoungcy/polyscout/internal/domain"
)

// EndCursor is the CLOB pagination cursor that marks the last page.
const EndCursor = "LTE="

// maxPages bounds cursor pagination so a misbehaving server cannot loop us.
const maxPages = 500

// ClobClient is the REST client for the Polymarket CLOB API. Public
// endpoints (books, sampling markets, price history) need no credentials;
// account endpoints need a signer and API credentials.
type ClobClient struct {
	baseURL    string
	httpClient *http.Client
	signer     *crypto.Signer

	mu    sync.Mutex
	creds crypto.APICreds
}

// NewClobClient creates a new CLOB REST client.
//
// baseURL is the CLOB API root, e.g. "https://clob.polymarket.com".
// signer and creds may be nil/empty for read-only use of public endpoints.
func NewClobClient(baseURL string, signer *crypto.Signer, creds crypto.APICreds) *ClobClient {
	return &ClobClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		signer: signer,
		creds:  creds,
	}
}

// GetOrderBook samples the book of tokenID. It never returns an error: a
// failed fetch yields the 0/0 sentinel with Status BookFailed so callers can
// decide between retrying and treating the book as empty.
func (c *ClobClient) GetOrderBook(ctx context.Context, tokenID string) domain.BookQuote {
	params := url.Values{}
	params.Set("token_id", tokenID)

	body, err := doGet(ctx, c.httpClient, c.baseURL+"/book?"+params.Encode())
	if err != nil {
		return domain.FailedQuote(tokenID, fmt.Errorf("polymarket/clob: get book %s: %w", tokenID, err))
	}

	var book APIBook
	if err := json.Unmarshal(body, &book); err != nil {
		return domain.FailedQuote(tokenID, fmt.Errorf("polymarket/clob: decode book %s: %w", tokenID, err))
	}
	return book.ToQuote(tokenID)
}

// GetSamplingMarkets returns one page of reward-eligible markets. Pass an
// empty cursor for the first page; the returned page carries the next cursor
// (EndCursor on the last page).
func (c *ClobClient) GetSamplingMarkets(ctx context.Context, cursor string) (APISamplingPage, error) {
	params := url.Values{}
	if cursor != "" {
		params.Set("next_cursor", cursor)
	}

	body, err := doGet(ctx, c.httpClient, c.baseURL+"/sampling-markets?"+params.Encode())
	if err != nil {
		return APISamplingPage{}, fmt.Errorf("polymarket/clob: get sampling markets: %w", err)
	}

	var page APISamplingPage
	if err := json.Unmarshal(body, &page); err != nil {
		return APISamplingPage{}, fmt.Errorf("polymarket/clob: decode sampling markets: %w", err)
	}
	return page, nil
}

// GetPriceHistory returns the last month of price samples for tokenID at
// fidelityMinutes resolution.
func (c *ClobClient) GetPriceHistory(ctx context.Context, tokenID string, fidelityMinutes int) ([]APIPricePoint, error) {
	params := url.Values{}
	params.Set("market", tokenID)
	params.Set("interval", "1m")
	params.Set("fidelity", strconv.Itoa(fidelityMinutes))

	body, err := doGet(ctx, c.httpClient, c.baseURL+"/prices-history?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/clob: get price history %s: %w", tokenID, err)
	}

	var hist APIPriceHistory
	if err := json.Unmarshal(body, &hist); err != nil {
		return nil, fmt.Errorf("polymarket/clob: decode price history %s: %w", tokenID, err)
	}
	return hist.History, nil
}

// GetOpenOrders returns every live order of the authenticated account,
// following the cursor until the end page.
func (c *ClobClient) GetOpenOrders(ctx context.Context) ([]domain.OrderRecord, error) {
	const path = "/data/orders"

	var orders []domain.OrderRecord
	cursor := ""
	for page := 0; page < maxPages; page++ {
		headers, err := c.L2Headers(ctx, http.MethodGet, path)
		if err != nil {
			return nil, fmt.Errorf("polymarket/clob: get open orders: %w", err)
		}

		params := url.Values{}
		if cursor != "" {
			params.Set("next_cursor", cursor)
		}
		body, err := doRequest(ctx, c.httpClient, c.baseURL+path+"?"+params.Encode(), headers)
		if err != nil {
			return nil, fmt.Errorf("polymarket/clob: get open orders: %w", err)
		}

		var resp apiOrdersPage
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("polymarket/clob: decode orders: %w", err)
		}
		for i := range resp.Data {
			orders = append(orders, resp.Data[i].ToDomainOrder())
		}

		if resp.NextCursor == "" || resp.NextCursor == EndCursor {
			return orders, nil
		}
		cursor = resp.NextCursor
	}
	return nil, fmt.Errorf("polymarket/clob: get open orders: more than %d pages", maxPages)
}

// Address returns the signer's wallet address, or "" without a signer.
func (c *ClobClient) Address() string {
	if c.signer == nil {
		return ""
	}
	return c.signer.Address().Hex()
}

// L2Headers returns HMAC headers for method+path, deriving API credentials
// first when none were configured.
func (c *ClobClient) L2Headers(ctx context.Context, method, path string) (map[string]string, error) {
	if c.signer == nil {
		return nil, fmt.Errorf("%w: no wallet key configured", domain.ErrUnauthorized)
	}
	creds, err := c.apiCreds(ctx)
	if err != nil {
		return nil, err
	}
	return creds.L2Headers(c.Address(), method, path, ""), nil
}

func (c *ClobClient) apiCreds(ctx context.Context) (crypto.APICreds, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.creds.Complete() {
		return c.creds, nil
	}
	creds, err := c.deriveAPIKey(ctx)
	if err != nil {
		return crypto.APICreds{}, err
	}
	c.creds = creds
	return creds, nil
}

// deriveAPIKey performs the L1 auth flow: it signs a ClobAuth EIP-712
// message and exchanges it for the account's HMAC API credentials.
func (c *ClobClient) deriveAPIKey(ctx context.Context) (crypto.APICreds, error) {
	timestamp := time.Now().Unix()
	const nonce = 0

	sig, err := c.signer.SignAuthMessage(timestamp, nonce)
	if err != nil {
		return crypto.APICreds{}, fmt.Errorf("polymarket/clob: %w: %v", domain.ErrSigningFailed, err)
	}

	body, err := doRequest(ctx, c.httpClient, c.baseURL+"/auth/derive-api-key", map[string]string{
		"POLY_ADDRESS":   c.Address(),
		"POLY_SIGNATURE": sig,
		"POLY_TIMESTAMP": strconv.FormatInt(timestamp, 10),
		"POLY_NONCE":     strconv.Itoa(nonce),
	})
	if err != nil {
		return crypto.APICreds{}, fmt.Errorf("polymarket/clob: derive api key: %w", err)
	}

	var authResp struct {
		APIKey     string `json:"apiKey"`
		Secret     string `json:"secret"`
		Passphrase string `json:"passphrase"`
	}
	if err := json.Unmarshal(body, &authResp); err != nil {
		return crypto.APICreds{}, fmt.Errorf("polymarket/clob: decode auth response: %w", err)
	}

	creds := crypto.APICreds{Key: authResp.APIKey, Secret: authResp.Secret, Passphrase: authResp.Passphrase}
	if !creds.Complete() {
		return crypto.APICreds{}, errors.New("polymarket/clob: derive api key: incomplete credentials in response")
	}
	return creds, nil
}
