package port

import (
	"context"

	"github.com/nk2109/pantry/internal/core/domain"
)

type IngredientRepository interface {
	// Get retrieves an ingredient by id, (nil, nil) when absent.
	Get(ctx context.Context, id string) (*domain.Ingredient, error)

	// GetAll returns every ingredient in the store.
	GetAll(ctx context.Context) ([]domain.Ingredient, error)

	// Insert persists a new ingredient.
	Insert(ctx context.Context, ing domain.Ingredient) error

	// Update applies the non-nil fields of the patch to the record.
	Update(ctx context.Context, id string, patch domain.IngredientPatch) error

	// Delete removes a record, reporting whether it existed.
	Delete(ctx context.Context, id string) (bool, error)

	// Count returns the number of stored ingredients.
	Count(ctx context.Context) (int, error)

	// WithinTransaction runs fn against a repository bound to one atomic
	// scope: fn returning nil commits, an error rolls back every write made
	// through the scoped repository.
	WithinTransaction(ctx context.Context, fn func(repo IngredientRepository) error) error
}
