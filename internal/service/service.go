package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/houseledger/internal/housestore"
	"github.com/roach88/houseledger/internal/metrics"
	"github.com/roach88/houseledger/internal/model"
	"github.com/roach88/houseledger/internal/query"
	"github.com/roach88/houseledger/internal/schema"
)

// Service is the house record store with its operations.
type Service struct {
	store     *housestore.Store
	queries   *query.Engine
	validator *schema.Validator
	metrics   *metrics.Metrics
	logger    *slog.Logger
	backend   Backend
}

// New wraps an existing store with no durable backend. A nil logger
// discards output; nil metrics records nothing.
func New(store *housestore.Store, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Service{
		store:     store,
		queries:   query.NewEngine(store),
		validator: schema.MustValidator(),
		metrics:   m,
		logger:    logger,
	}
	m.SetHouses(store.Len())
	return s
}

// DecodePayload validates raw JSON against the house payload schema and
// decodes it.
func (s *Service) DecodePayload(raw []byte) (model.HousePayload, error) {
	return s.validator.Payload(raw)
}

// AddHouse creates a house and returns it with its new id.
func (s *Service) AddHouse(ctx context.Context, p model.HousePayload) (model.House, error) {
	start := time.Now()
	var h model.House
	err := schema.CheckBounds(p)
	if err == nil {
		h, err = s.store.Add(ctx, p)
	}
	s.finish(OpAddHouse, start, err, "id", h.ID)
	return h, err
}

// GetHouse returns one house.
func (s *Service) GetHouse(_ context.Context, id uint64) (model.House, error) {
	start := time.Now()
	h, err := s.store.Get(id)
	s.finish(OpGetHouse, start, err, "id", id)
	return h, err
}

// GetAllHouses returns every house ordered by id.
func (s *Service) GetAllHouses(context.Context) []model.House {
	start := time.Now()
	out := s.queries.All()
	s.finish(OpGetAllHouses, start, nil, "count", len(out))
	return out
}

// GetAvailableHouses returns the houses whose availability flag is set.
func (s *Service) GetAvailableHouses(context.Context) []model.House {
	start := time.Now()
	out := s.queries.Available()
	s.finish(OpGetAvailableHouses, start, nil, "count", len(out))
	return out
}

// SearchHouses returns houses whose owner, type or location contains text,
// ignoring case.
func (s *Service) SearchHouses(_ context.Context, text string) []model.House {
	start := time.Now()
	out := s.queries.SearchText(text)
	s.finish(OpSearchHouses, start, nil, "query", text, "count", len(out))
	return out
}

// SearchPrice returns houses priced exactly amount.
func (s *Service) SearchPrice(_ context.Context, amount uint64) []model.House {
	start := time.Now()
	out := s.queries.SearchPrice(amount)
	s.finish(OpSearchPrice, start, nil, "price", amount, "count", len(out))
	return out
}

// SortHouseByName returns every house ordered by owner name.
func (s *Service) SortHouseByName(context.Context) []model.House {
	start := time.Now()
	out := s.queries.SortByName()
	s.finish(OpSortHouseByName, start, nil, "count", len(out))
	return out
}

// HouseAvailability returns the availability flag of one house.
func (s *Service) HouseAvailability(_ context.Context, id uint64) (bool, error) {
	start := time.Now()
	ok, err := s.queries.AvailabilityOf(id)
	s.finish(OpHouseAvailability, start, err, "id", id)
	return ok, err
}

// GetHouseUpdateHistory returns the ledger of one house. Unknown ids give
// an empty history; deleted houses keep theirs.
func (s *Service) GetHouseUpdateHistory(_ context.Context, id uint64) []model.ChangeRecord {
	start := time.Now()
	out := s.store.History(id)
	s.finish(OpGetHouseUpdateHistory, start, nil, "id", id, "count", len(out))
	return out
}

// UpdateHouse replaces every mutable field of a house.
func (s *Service) UpdateHouse(ctx context.Context, id uint64, p model.HousePayload) (model.House, error) {
	start := time.Now()
	var h model.House
	err := schema.CheckBounds(p)
	if err == nil {
		h, err = s.store.Update(ctx, id, p)
	}
	s.finish(OpUpdateHouse, start, err, "id", id)
	return h, err
}

// BuyHouse records a purchase of one unit.
func (s *Service) BuyHouse(ctx context.Context, id uint64, p model.HousePayload) (model.House, error) {
	start := time.Now()
	var h model.House
	err := schema.CheckBounds(p)
	if err == nil {
		h, err = s.store.Buy(ctx, id, p)
	}
	s.finish(OpBuyHouse, start, err, "id", id)
	return h, err
}

// SetHouseAvailable sets the availability flag.
func (s *Service) SetHouseAvailable(ctx context.Context, id uint64) (model.House, error) {
	start := time.Now()
	h, err := s.store.SetAvailability(ctx, id, true)
	s.finish(OpSetHouseAvailable, start, err, "id", id)
	return h, err
}

// SetHouseNotAvailable clears the availability flag.
func (s *Service) SetHouseNotAvailable(ctx context.Context, id uint64) (model.House, error) {
	start := time.Now()
	h, err := s.store.SetAvailability(ctx, id, false)
	s.finish(OpSetHouseNotAvailable, start, err, "id", id)
	return h, err
}

// SetPrice changes the price of a house.
func (s *Service) SetPrice(ctx context.Context, id uint64, amount uint64) (model.House, error) {
	start := time.Now()
	var h model.House
	err := schema.CheckAmount("price", amount)
	if err == nil {
		h, err = s.store.SetPrice(ctx, id, amount)
	}
	s.finish(OpSetPrice, start, err, "id", id, "price", amount)
	return h, err
}

// DeleteHouse removes a house and returns it as it was.
func (s *Service) DeleteHouse(ctx context.Context, id uint64) (model.House, error) {
	start := time.Now()
	h, err := s.store.Delete(ctx, id)
	s.finish(OpDeleteHouse, start, err, "id", id)
	return h, err
}

// Len returns the number of houses.
func (s *Service) Len() int {
	return s.store.Len()
}

func (s *Service) finish(op string, start time.Time, err error, attrs ...any) {
	elapsed := time.Since(start)
	outcome := Outcome(err)
	s.metrics.Observe(op, outcome, elapsed)
	if err == nil && isMutation(op) {
		s.metrics.ChangeAppended()
		s.metrics.SetHouses(s.store.Len())
	}

	attrs = append(attrs, "op", op, "outcome", outcome, "duration", elapsed)
	switch outcome {
	case metrics.OutcomeOK, metrics.OutcomeNotFound:
		s.logger.Debug("house operation", attrs...)
	case metrics.OutcomeError:
		s.logger.Error("house operation failed", append(attrs, "error", err)...)
	default:
		s.logger.Info("house operation rejected", append(attrs, "error", err)...)
	}
}

// Outcome classifies err as a metrics outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case model.IsNotFound(err):
		return metrics.OutcomeNotFound
	case model.IsInsufficientUnits(err):
		return metrics.OutcomeInsufficient
	case schema.IsValidation(err):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}

func isMutation(op string) bool {
	switch op {
	case OpAddHouse, OpUpdateHouse, OpBuyHouse, OpSetHouseAvailable,
		OpSetHouseNotAvailable, OpSetPrice, OpDeleteHouse:
		return true
	}
	return false
}
