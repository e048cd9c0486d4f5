/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for all
 * data access operations required by the debitcard-service. By defining an interface,
 * we decouple the application's business logic from the specific database
 * implementation (e.g., PostgreSQL), making the code more modular and easier to test.
 *
 * @dependencies
 * - context: Standard Go library.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"

	"github.com/bankcore/debitcard-service/internal/domain"
)

// Repository defines the set of methods for interacting with the card directory.
//
// Lookup by card number is exact-match and is the sole index the transfer
// consumer depends on. Card-number uniqueness is enforced here (unique index),
// not in the business layer.
type Repository interface {
	FindAllDebitCards(ctx context.Context) ([]domain.DebitCard, error)
	FindDebitCardByID(ctx context.Context, cardID string) (*domain.DebitCard, error)
	FindDebitCardByCardNumber(ctx context.Context, cardNumber string) (*domain.DebitCard, error)
	CreateDebitCard(ctx context.Context, card *domain.DebitCard) error
	// UpdateDebitCard persists a loaded card. It fails with ErrVersionConflict
	// when the stored version no longer matches card.Version; on success the
	// card's Version and UpdatedAt are refreshed in place.
	UpdateDebitCard(ctx context.Context, card *domain.DebitCard) error
	DeleteDebitCard(ctx context.Context, cardID string) error
}
