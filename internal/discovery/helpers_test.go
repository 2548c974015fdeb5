package discovery

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/alanyoungcy/polyscout/internal/domain"
	"github.com/alanyoungcy/polyscout/internal/platform/polymarket"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeBooks serves canned quotes and records the tokens asked for.
type fakeBooks struct {
	quotes map[string]domain.BookQuote
	asked  []string
}

func (f *fakeBooks) GetOrderBook(_ context.Context, tokenID string) domain.BookQuote {
	f.asked = append(f.asked, tokenID)
	if q, ok := f.quotes[tokenID]; ok {
		return q
	}
	return domain.BookQuote{TokenID: tokenID, Status: domain.BookEmpty}
}

func decodeEvent(t *testing.T, raw string) polymarket.APIEvent {
	t.Helper()
	var ev polymarket.APIEvent
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	return ev
}
