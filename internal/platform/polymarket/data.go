package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

// DataClient is the REST client for the Polymarket data API, used here for
// account positions.
type DataClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewDataClient creates a data API client. baseURL is e.g.
// "https://data-api.polymarket.com".
func NewDataClient(baseURL string) *DataClient {
	return &DataClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// positionsPageSize is the largest page the data API serves.
const positionsPageSize = 500

// GetPositions returns every open position of address, paging with
// limit/offset until a short page comes back.
// GET /positions?user={address}&limit=&offset=
func (d *DataClient) GetPositions(ctx context.Context, address string) ([]domain.PositionRecord, error) {
	if address == "" {
		return nil, fmt.Errorf("polymarket/data: get positions: address is required")
	}

	var positions []domain.PositionRecord
	for page := 0; page < maxPages; page++ {
		params := url.Values{}
		params.Set("user", strings.ToLower(address))
		params.Set("sizeThreshold", "0")
		params.Set("limit", strconv.Itoa(positionsPageSize))
		params.Set("offset", strconv.Itoa(page*positionsPageSize))

		body, err := doGet(ctx, d.httpClient, d.baseURL+"/positions?"+params.Encode())
		if err != nil {
			return nil, fmt.Errorf("polymarket/data: get positions: %w", err)
		}

		var apiPositions []APIPosition
		if err := json.Unmarshal(body, &apiPositions); err != nil {
			return nil, fmt.Errorf("polymarket/data: decode positions: %w", err)
		}
		for i := range apiPositions {
			positions = append(positions, apiPositions[i].ToDomainPosition())
		}
		if len(apiPositions) < positionsPageSize {
			if positions == nil {
				positions = []domain.PositionRecord{}
			}
			return positions, nil
		}
	}
	return nil, fmt.Errorf("polymarket/data: get positions: more than %d pages", maxPages)
}
