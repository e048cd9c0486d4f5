/**
 * @description
 * This file contains the core application service for debit card management:
 * issuance, updates, deletion, and the linked (secondary) account set.
 *
 * @notes
 * - The primary account identifier is generated here at issuance time and is
 *   never taken from caller input.
 * - Linked-account mutations are read-modify-write cycles guarded by the
 *   store's optimistic version token; conflicts are retried a bounded number
 *   of times.
 *
 * @dependencies
 * - context, errors, strings, time: Standard Go libraries.
 * - github.com/google/uuid: Card and primary account id generation.
 * - internal/domain, internal/store: Domain models and persistence contract.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bankcore/debitcard-service/internal/domain"
	"github.com/bankcore/debitcard-service/internal/store"
)

// linkedAccountSaveAttempts bounds optimistic-concurrency retries on the
// linked-account read-modify-write cycle.
const linkedAccountSaveAttempts = 3

// primaryAccountIDLength matches the account service's account id format.
const primaryAccountIDLength = 16

// Service implements the card management operations exposed over HTTP.
type Service struct {
	repo store.Repository
}

// NewService creates a new card management service.
func NewService(repo store.Repository) *Service {
	return &Service{repo: repo}
}

// ListDebitCards returns every card in the directory.
func (s *Service) ListDebitCards(ctx context.Context) ([]domain.DebitCard, error) {
	return s.repo.FindAllDebitCards(ctx)
}

// GetDebitCard returns a card by its identifier.
func (s *Service) GetDebitCard(ctx context.Context, cardID string) (*domain.DebitCard, error) {
	return s.repo.FindDebitCardByID(ctx, cardID)
}

// CreateDebitCard issues a new debit card. The card id and the primary
// account id are generated here; any caller-supplied funding account is
// ignored by construction since the payload has no such field.
func (s *Service) CreateDebitCard(ctx context.Context, payload domain.CreateDebitCardPayload) (*domain.DebitCard, error) {
	now := time.Now().UTC()
	card := &domain.DebitCard{
		ID:               uuid.NewString(),
		CustomerID:       payload.CustomerID,
		CardNumber:       strings.TrimSpace(payload.CardNumber),
		CardholderName:   payload.CardholderName,
		ExpirationDate:   payload.ExpirationDate,
		CVV:              payload.CVV,
		PrimaryAccountID: generatePrimaryAccountID(),
		Status:           "active",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for _, accountID := range payload.LinkedAccounts {
		card.AddLinkedAccount(accountID)
	}

	if err := s.repo.CreateDebitCard(ctx, card); err != nil {
		return nil, fmt.Errorf("create debit card: %w", err)
	}

	log.Printf("level=info component=card_service msg=\"debit card issued\" card_id=%s customer_id=%s", card.ID, card.CustomerID)
	return card, nil
}

// generatePrimaryAccountID produces the system-assigned funding account
// identifier: the first 16 characters of a dash-stripped uuid.
func generatePrimaryAccountID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	if len(id) > primaryAccountIDLength {
		id = id[:primaryAccountIDLength]
	}
	return id
}

// UpdateDebitCard applies the mutable card attributes and persists the card.
func (s *Service) UpdateDebitCard(ctx context.Context, cardID string, payload domain.UpdateDebitCardPayload) (*domain.DebitCard, error) {
	card, err := s.repo.FindDebitCardByID(ctx, cardID)
	if err != nil {
		return nil, err
	}

	if payload.CardholderName != "" {
		card.CardholderName = payload.CardholderName
	}
	if payload.ExpirationDate != "" {
		card.ExpirationDate = payload.ExpirationDate
	}
	if payload.Status != "" {
		card.Status = payload.Status
	}

	if err := s.repo.UpdateDebitCard(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// DeleteDebitCard removes a card from the directory.
func (s *Service) DeleteDebitCard(ctx context.Context, cardID string) error {
	return s.repo.DeleteDebitCard(ctx, cardID)
}

// AddLinkedAccount attaches a secondary account to a card. Attaching an
// account that is already linked is a no-op. A missing card yields (nil, nil):
// nothing happened, and callers observe that through the empty result.
func (s *Service) AddLinkedAccount(ctx context.Context, cardID, accountID string) (*domain.DebitCard, error) {
	return s.mutateLinkedAccounts(ctx, cardID, func(card *domain.DebitCard) bool {
		return card.AddLinkedAccount(accountID)
	})
}

// RemoveLinkedAccount detaches a secondary account from a card. Removing an
// account that is not linked is a no-op. A missing card yields (nil, nil).
func (s *Service) RemoveLinkedAccount(ctx context.Context, cardID, accountID string) (*domain.DebitCard, error) {
	return s.mutateLinkedAccounts(ctx, cardID, func(card *domain.DebitCard) bool {
		return card.RemoveLinkedAccount(accountID)
	})
}

// mutateLinkedAccounts runs one load-mutate-save cycle per attempt, retrying
// when a concurrent writer bumped the card's version between load and save.
func (s *Service) mutateLinkedAccounts(ctx context.Context, cardID string, mutate func(*domain.DebitCard) bool) (*domain.DebitCard, error) {
	var lastErr error
	for attempt := 0; attempt < linkedAccountSaveAttempts; attempt++ {
		card, err := s.repo.FindDebitCardByID(ctx, cardID)
		if err != nil {
			if errors.Is(err, store.ErrDebitCardNotFound) {
				return nil, nil
			}
			return nil, err
		}

		if !mutate(card) {
			// Set already in the requested state; nothing to persist.
			return card, nil
		}

		err = s.repo.UpdateDebitCard(ctx, card)
		if err == nil {
			return card, nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return nil, err
		}
		lastErr = err
		log.Printf("level=warn component=card_service msg=\"linked account save conflict; retrying\" card_id=%s attempt=%d", cardID, attempt+1)
	}
	return nil, fmt.Errorf("linked account update exhausted retries: %w", lastErr)
}
