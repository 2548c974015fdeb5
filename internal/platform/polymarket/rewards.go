package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

// rewardsRequestPath is the CLOB path the rewards endpoint signs against.
const rewardsRequestPath = "/rewards/user/markets"

// HeaderSigner produces L2 headers for a CLOB request path.
type HeaderSigner interface {
	L2Headers(ctx context.Context, method, path string) (map[string]string, error)
}

// RewardsClient fetches per-market liquidity-reward earnings for a maker
// address. The endpoint proxies to the CLOB and expects the account's L2
// headers as a JSON query parameter.
type RewardsClient struct {
	url          string
	makerAddress string
	signer       HeaderSigner
	httpClient   *http.Client
}

// NewRewardsClient creates a RewardsClient. rewardsURL is e.g.
// "https://polymarket.com/api/rewards/markets".
func NewRewardsClient(rewardsURL, makerAddress string, signer HeaderSigner) *RewardsClient {
	return &RewardsClient{
		url:          rewardsURL,
		makerAddress: makerAddress,
		signer:       signer,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetEarnings returns markets with positive earnings, ordered by earnings
// descending as served. Only the first sub-period of each market is used.
func (r *RewardsClient) GetEarnings(ctx context.Context) ([]domain.EarningsRecord, error) {
	if r.makerAddress == "" {
		return nil, fmt.Errorf("polymarket/rewards: maker address is required")
	}

	var out []domain.EarningsRecord
	cursor := ""
	for page := 0; page < maxPages; page++ {
		headers, err := r.signer.L2Headers(ctx, http.MethodGet, rewardsRequestPath)
		if err != nil {
			return nil, fmt.Errorf("polymarket/rewards: sign request: %w", err)
		}
		l2, err := json.Marshal(headers)
		if err != nil {
			return nil, fmt.Errorf("polymarket/rewards: encode headers: %w", err)
		}

		params := url.Values{}
		params.Set("l2Headers", string(l2))
		params.Set("orderBy", "earnings")
		params.Set("position", "DESC")
		params.Set("makerAddress", r.makerAddress)
		params.Set("authenticationType", "eoa")
		params.Set("nextCursor", cursor)
		params.Set("requestPath", rewardsRequestPath)

		body, err := doGet(ctx, r.httpClient, r.url+"?"+params.Encode())
		if err != nil {
			return nil, fmt.Errorf("polymarket/rewards: get earnings: %w", err)
		}

		var resp apiEarningsPage
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("polymarket/rewards: decode earnings: %w", err)
		}
		for i := range resp.Data {
			rec := resp.Data[i].ToDomainEarnings()
			if rec.Earnings > 0 {
				out = append(out, rec)
			}
		}

		if resp.NextCursor == "" || resp.NextCursor == EndCursor {
			return out, nil
		}
		cursor = resp.NextCursor
	}
	return nil, fmt.Errorf("polymarket/rewards: more than %d pages", maxPages)
}
