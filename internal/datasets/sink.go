// Package datasets reads and writes the named JSON datasets shared with the
// trading tools. Writes go to a primary store and are mirrored best-effort to
// any secondary stores.
package datasets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

// Sink is the dataset persistence facade.
type Sink struct {
	primary domain.DatasetStore
	mirrors []domain.DatasetStore
	logger  *slog.Logger
}

// NewSink creates a Sink writing to primary and mirrors.
func NewSink(primary domain.DatasetStore, mirrors []domain.DatasetStore, logger *slog.Logger) *Sink {
	return &Sink{
		primary: primary,
		mirrors: mirrors,
		logger:  logger.With(slog.String("component", "datasets")),
	}
}

// WriteJSON encodes v in full before touching any store, then writes it to
// the primary store. A primary failure is returned; mirror failures are only
// logged.
func (s *Sink) WriteJSON(ctx context.Context, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("datasets: encode %s: %w", name, err)
	}
	return s.Write(ctx, name, data)
}

// Write stores already-encoded data.
func (s *Sink) Write(ctx context.Context, name string, data []byte) error {
	if err := s.primary.Put(ctx, name, data); err != nil {
		return fmt.Errorf("datasets: write %s to %s: %w", name, s.primary.Name(), err)
	}
	for _, m := range s.mirrors {
		if err := m.Put(ctx, name, data); err != nil {
			s.logger.WarnContext(ctx, "mirror write failed",
				slog.String("dataset", name),
				slog.String("store", m.Name()),
				slog.String("error", err.Error()),
			)
		}
	}
	s.logger.InfoContext(ctx, "dataset written",
		slog.String("dataset", name),
		slog.Int("bytes", len(data)),
	)
	return nil
}

// Read returns the raw dataset from the primary store. Missing datasets
// return an error wrapping domain.ErrNotFound.
func (s *Sink) Read(ctx context.Context, name string) ([]byte, error) {
	data, err := s.primary.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("datasets: read %s: %w", name, err)
	}
	return data, nil
}

// SelectedMarkets loads markets.json, which is either {"markets": [...]} or
// a bare list. Rows with an empty question are dropped. A missing file is an
// empty selection.
func (s *Sink) SelectedMarkets(ctx context.Context) ([]domain.MarketRecord, error) {
	data, err := s.Read(ctx, domain.DatasetSelectedMarkets)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	markets, err := DecodeMarkets(data)
	if err != nil {
		return nil, fmt.Errorf("datasets: decode %s: %w", domain.DatasetSelectedMarkets, err)
	}
	return markets, nil
}

// Catalog loads full_markets.json, falling back to the selected markets when
// discovery has not produced it yet.
func (s *Sink) Catalog(ctx context.Context) ([]domain.MarketRecord, error) {
	data, err := s.Read(ctx, domain.DatasetFullMarkets)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.logger.InfoContext(ctx, "full catalog missing, using selected markets")
		return s.SelectedMarkets(ctx)
	case err != nil:
		return nil, err
	}
	markets, err := DecodeMarkets(data)
	if err != nil {
		return nil, fmt.Errorf("datasets: decode %s: %w", domain.DatasetFullMarkets, err)
	}
	if len(markets) == 0 {
		return s.SelectedMarkets(ctx)
	}
	return markets, nil
}

// Params returns params.json untouched. A missing file yields nil.
func (s *Sink) Params(ctx context.Context) (json.RawMessage, error) {
	data, err := s.Read(ctx, domain.DatasetParams)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("datasets: %s is not valid JSON", domain.DatasetParams)
	}
	return json.RawMessage(data), nil
}
