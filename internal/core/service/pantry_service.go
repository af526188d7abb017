package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/nk2109/pantry/internal/core/domain"
	"github.com/nk2109/pantry/internal/core/spoilage"
	"github.com/nk2109/pantry/internal/port"
)

var (
	ErrValidation = errors.New("validation failed")

	errBuyNotFound = errors.New("ingredient not found")
)

type PantryService struct {
	repo      port.IngredientRepository
	notifier  port.ChangeNotifier
	now       func() time.Time
	newID     func() string
	threshold int
}

type Option func(*PantryService)

// WithClock pins the reference instant source, primarily for tests.
func WithClock(now func() time.Time) Option {
	return func(s *PantryService) { s.now = now }
}

// WithIDGenerator replaces the unique-id source.
func WithIDGenerator(newID func() string) Option {
	return func(s *PantryService) { s.newID = newID }
}

// WithNearExpiryThreshold overrides the inclusive near-expiry bound in days.
func WithNearExpiryThreshold(days int) Option {
	return func(s *PantryService) { s.threshold = days }
}

// WithNotifier wires a change-feed and audit sink. Delivery is best effort
// and never fails an action.
func WithNotifier(n port.ChangeNotifier) Option {
	return func(s *PantryService) { s.notifier = n }
}

func NewPantryService(repo port.IngredientRepository, opts ...Option) *PantryService {
	s := &PantryService{
		repo:      repo,
		now:       time.Now,
		newID:     uuid.NewString,
		threshold: spoilage.DefaultNearExpiryThresholdDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateIngredientInput struct {
	Name          string  `json:"name"`
	Unit          string  `json:"unit"`
	StockQty      float64 `json:"stock_qty"`
	ShelfLifeDays int     `json:"shelf_life_days"`
}

type UpdateIngredientInput struct {
	Name          *string  `json:"name"`
	Unit          *string  `json:"unit"`
	StockQty      *float64 `json:"stock_qty"`
	ShelfLifeDays *int     `json:"shelf_life_days"`
}

type BuyRequest struct {
	IngredientID string  `json:"ingredient_id"`
	PurchasedQty float64 `json:"purchased_qty"`
}

// Create inserts a fresh ingredient. The purchase date always starts nil; it
// is only ever set by Buy.
func (s *PantryService) Create(ctx context.Context, in CreateIngredientInput) (*domain.Ingredient, error) {
	name, err := validName(in.Name)
	if err != nil {
		return nil, err
	}
	unit, err := validUnit(in.Unit)
	if err != nil {
		return nil, err
	}
	if err := validStockQty(in.StockQty); err != nil {
		return nil, err
	}
	if err := validShelfLife(in.ShelfLifeDays); err != nil {
		return nil, err
	}

	now := s.now()
	ing := domain.Ingredient{
		ID:            s.newID(),
		Name:          name,
		Unit:          unit,
		StockQty:      in.StockQty,
		ShelfLifeDays: in.ShelfLifeDays,
		PurchasedAt:   nil,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Insert(ctx, ing); err != nil {
		return nil, fmt.Errorf("insert ingredient: %w", err)
	}

	s.publish(ctx, domain.ChangeCreated, ing.ID)
	return &ing, nil
}

// Update applies the provided fields to an existing record and returns the
// committed state. A missing id returns (nil, nil): nothing to update is a
// valid outcome, not an error.
func (s *PantryService) Update(ctx context.Context, id string, in UpdateIngredientInput) (*domain.Ingredient, error) {
	now := s.now()
	patch := domain.IngredientPatch{StockQty: in.StockQty, ShelfLifeDays: in.ShelfLifeDays, UpdatedAt: &now}

	if in.Name != nil {
		name, err := validName(*in.Name)
		if err != nil {
			return nil, err
		}
		patch.Name = &name
	}
	if in.Unit != nil {
		unit, err := validUnit(*in.Unit)
		if err != nil {
			return nil, err
		}
		patch.Unit = &unit
	}
	if in.StockQty != nil {
		if err := validStockQty(*in.StockQty); err != nil {
			return nil, err
		}
	}
	if in.ShelfLifeDays != nil {
		if err := validShelfLife(*in.ShelfLifeDays); err != nil {
			return nil, err
		}
	}

	var updated *domain.Ingredient
	err := s.repo.WithinTransaction(ctx, func(repo port.IngredientRepository) error {
		existing, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return nil
		}
		if err := repo.Update(ctx, id, patch); err != nil {
			return err
		}
		updated, err = repo.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update ingredient: %w", err)
	}
	if updated == nil {
		return nil, nil
	}

	s.publish(ctx, domain.ChangeUpdated, id)
	return updated, nil
}

// Delete removes a record, reporting whether it existed.
func (s *PantryService) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete ingredient: %w", err)
	}
	if deleted {
		s.publish(ctx, domain.ChangeDeleted, id)
	}
	return deleted, nil
}

// Buy records a purchase: stock goes up by the bought quantity and the
// purchase instant resets, atomically. The result is discriminated; no error
// ever reaches the caller through a second channel.
func (s *PantryService) Buy(ctx context.Context, req BuyRequest) domain.BuyResult {
	if math.IsNaN(req.PurchasedQty) || math.IsInf(req.PurchasedQty, 0) || req.PurchasedQty <= 0 {
		return failBuy(fmt.Sprintf("purchased quantity must be a finite number greater than zero, got %v", req.PurchasedQty))
	}

	now := s.now()
	var (
		prevQty float64
		newQty  float64
		updated *domain.Ingredient
	)
	err := s.repo.WithinTransaction(ctx, func(repo port.IngredientRepository) error {
		existing, err := repo.Get(ctx, req.IngredientID)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("%w: %s", errBuyNotFound, req.IngredientID)
		}

		prevQty = existing.StockQty
		newQty = prevQty + req.PurchasedQty

		patch := domain.IngredientPatch{StockQty: &newQty, PurchasedAt: &now, UpdatedAt: &now}
		if err := repo.Update(ctx, req.IngredientID, patch); err != nil {
			return err
		}

		// Re-read so the caller sees exactly what was committed.
		updated, err = repo.Get(ctx, req.IngredientID)
		if err != nil {
			return err
		}
		if updated == nil {
			return fmt.Errorf("%w: %s", errBuyNotFound, req.IngredientID)
		}
		return nil
	})
	if err != nil {
		return failBuy(err.Error())
	}

	enriched := spoilage.Enrich(*updated, now, s.threshold)
	res := domain.BuyResult{
		Success:          true,
		Ingredient:       &enriched,
		PreviousStockQty: &prevQty,
		NewStockQty:      &newQty,
	}

	if rec, ok := domain.NewBuyAudit(res, now); ok {
		s.audit(ctx, rec)
	}
	s.publish(ctx, domain.ChangeBought, req.IngredientID)
	return res
}

// SearchByName filters by case-insensitive substring; a blank query returns
// the full set.
func (s *PantryService) SearchByName(ctx context.Context, query string) ([]domain.Ingredient, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("search ingredients: %w", err)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return all, nil
	}
	needle := strings.ToLower(query)
	matched := make([]domain.Ingredient, 0, len(all))
	for _, ing := range all {
		if strings.Contains(strings.ToLower(ing.Name), needle) {
			matched = append(matched, ing)
		}
	}
	return matched, nil
}

// NameExists reports whether another record already uses the name,
// case-insensitively. Uniqueness is not enforced on writes; this check only
// feeds caller-side warnings.
func (s *PantryService) NameExists(ctx context.Context, name, excludeID string) (bool, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return false, fmt.Errorf("check name: %w", err)
	}
	target := strings.ToLower(strings.TrimSpace(name))
	for _, ing := range all {
		if ing.ID == excludeID {
			continue
		}
		if strings.ToLower(ing.Name) == target {
			return true, nil
		}
	}
	return false, nil
}

// ListWithSpoilage returns ingredients matching the query (blank = all)
// enriched against the current reference instant and sorted by expiry
// urgency.
func (s *PantryService) ListWithSpoilage(ctx context.Context, query string) ([]domain.IngredientWithSpoilage, error) {
	matched, err := s.SearchByName(ctx, query)
	if err != nil {
		return nil, err
	}
	enriched := spoilage.EnrichAll(matched, s.now(), s.threshold)
	spoilage.SortByExpiryUrgency(enriched)
	return enriched, nil
}

type SummaryReport struct {
	Total    int                           `json:"total"`
	ByStatus map[domain.SpoilageStatus]int `json:"by_status"`
}

// SpoilageSummary counts records per freshness status at the current instant.
func (s *PantryService) SpoilageSummary(ctx context.Context) (*SummaryReport, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("summarize ingredients: %w", err)
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count ingredients: %w", err)
	}
	return &SummaryReport{
		Total:    total,
		ByStatus: spoilage.Summary(spoilage.EnrichAll(all, s.now(), s.threshold)),
	}, nil
}

func failBuy(msg string) domain.BuyResult {
	return domain.BuyResult{Success: false, Error: msg}
}

func (s *PantryService) publish(ctx context.Context, op domain.ChangeOp, id string) {
	if s.notifier == nil {
		return
	}
	event := domain.ChangeEvent{Op: op, IngredientID: id, At: s.now()}
	if err := s.notifier.PublishChange(ctx, event); err != nil {
		log.Printf("publish change %s for %s: %v", op, id, err)
	}
}

func (s *PantryService) audit(ctx context.Context, rec domain.AuditRecord) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.AppendAudit(ctx, rec); err != nil {
		log.Printf("append audit for %s: %v", rec.IngredientID, err)
	}
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name must not be empty", ErrValidation)
	}
	if utf8.RuneCountInString(name) > domain.MaxNameLen {
		return "", fmt.Errorf("%w: name exceeds %d characters", ErrValidation, domain.MaxNameLen)
	}
	return name, nil
}

func validUnit(unit string) (string, error) {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return "", fmt.Errorf("%w: unit must not be empty", ErrValidation)
	}
	if utf8.RuneCountInString(unit) > domain.MaxUnitLen {
		return "", fmt.Errorf("%w: unit exceeds %d characters", ErrValidation, domain.MaxUnitLen)
	}
	return unit, nil
}

func validStockQty(qty float64) error {
	if math.IsNaN(qty) || math.IsInf(qty, 0) || qty < 0 {
		return fmt.Errorf("%w: stock quantity must be a finite number >= 0", ErrValidation)
	}
	return nil
}

func validShelfLife(days int) error {
	if days < 1 || days > domain.MaxShelfLifeDays {
		return fmt.Errorf("%w: shelf life must be between 1 and %d days", ErrValidation, domain.MaxShelfLifeDays)
	}
	return nil
}
