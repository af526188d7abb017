package spoilage

import (
	"math"
	"sort"
	"time"

	"github.com/nk2109/pantry/internal/core/domain"
)

// DefaultNearExpiryThresholdDays is the inclusive days-remaining bound below
// which an ingredient counts as near expiry.
const DefaultNearExpiryThresholdDays = 3

// Compute derives the freshness view of an ingredient at the reference
// instant now. It never fails: a missing or unusable purchase date or shelf
// life degrades to StatusUnknown with nil expiry and days remaining.
func Compute(ing domain.Ingredient, now time.Time, thresholdDays int) domain.Spoilage {
	if ing.PurchasedAt == nil || ing.PurchasedAt.IsZero() || ing.ShelfLifeDays <= 0 {
		return domain.Spoilage{Status: domain.StatusUnknown}
	}

	// Calendar-day addition, not shelfLifeDays*24h.
	expiry := ing.PurchasedAt.AddDate(0, 0, ing.ShelfLifeDays)

	// Ceiling so a partial remaining day still counts as a day left.
	days := int(math.Ceil(expiry.Sub(now).Hours() / 24))

	status := domain.StatusFresh
	switch {
	case days < 0:
		status = domain.StatusExpired
	case days <= thresholdDays:
		status = domain.StatusNearExpiry
	}

	return domain.Spoilage{ExpiryDate: &expiry, DaysRemaining: &days, Status: status}
}

// Enrich joins an ingredient with its spoilage view and stock flag.
func Enrich(ing domain.Ingredient, now time.Time, thresholdDays int) domain.IngredientWithSpoilage {
	return domain.IngredientWithSpoilage{
		Ingredient: ing,
		InStock:    ing.StockQty > 0,
		Spoilage:   Compute(ing, now, thresholdDays),
	}
}

func EnrichAll(ings []domain.Ingredient, now time.Time, thresholdDays int) []domain.IngredientWithSpoilage {
	out := make([]domain.IngredientWithSpoilage, 0, len(ings))
	for _, ing := range ings {
		out = append(out, Enrich(ing, now, thresholdDays))
	}
	return out
}

var statusRank = map[domain.SpoilageStatus]int{
	domain.StatusExpired:    0,
	domain.StatusNearExpiry: 1,
	domain.StatusFresh:      2,
	domain.StatusUnknown:    3,
}

// SortByExpiryUrgency orders a list in place: expired first, then near
// expiry, fresh, unknown; within a status, ascending days remaining with nil
// last. Only unknown entries carry a nil days remaining, so the nil-last rule
// never has to break a tie inside the other buckets. The sort is stable.
func SortByExpiryUrgency(list []domain.IngredientWithSpoilage) {
	sort.SliceStable(list, func(i, j int) bool {
		ri, rj := statusRank[list[i].Status], statusRank[list[j].Status]
		if ri != rj {
			return ri < rj
		}
		di, dj := list[i].DaysRemaining, list[j].DaysRemaining
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return *di < *dj
		}
	})
}

// Summary counts entries per status. All four statuses are present in the
// result even when zero.
func Summary(list []domain.IngredientWithSpoilage) map[domain.SpoilageStatus]int {
	counts := map[domain.SpoilageStatus]int{
		domain.StatusFresh:      0,
		domain.StatusNearExpiry: 0,
		domain.StatusExpired:    0,
		domain.StatusUnknown:    0,
	}
	for _, item := range list {
		counts[item.Status]++
	}
	return counts
}
