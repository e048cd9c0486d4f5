/**
 * @description
 * This file contains the transfer event consumer, the orchestration core of
 * the debitcard-service. It consumes inbound debit-card transfer requests,
 * resolves the card and the transfer direction, invokes the account service,
 * and publishes exactly one outcome event per recognized request.
 *
 * @notes
 * - Processing is a two-phase pipeline: processTransfer computes the outcome
 *   value without side effects, then a single publish step runs regardless of
 *   how the decision phase went. No failure escapes unobserved.
 * - No retry happens here. A failed outcome publish nacks the delivery so the
 *   transport redelivers it.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - github.com/shopspring/decimal: Monetary amounts.
 * - internal/domain, internal/store, pkg/accountclient.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bankcore/debitcard-service/internal/domain"
	"github.com/bankcore/debitcard-service/internal/store"
	"github.com/bankcore/debitcard-service/pkg/accountclient"
)

const transferProcessingTimeout = 30 * time.Second

const successDescription = "transaction completed successfully"

// AccountGateway is the slice of the account service client the consumer
// depends on.
type AccountGateway interface {
	Transfer(ctx context.Context, fromAccountID, toAccountID string, amount decimal.Decimal) (*accountclient.TransferResult, error)
	GetAccount(ctx context.Context, accountID string) (*accountclient.Account, error)
}

// OutcomePublisher publishes terminal outcome events to the events exchange.
type OutcomePublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}

// TransferEventConsumer orchestrates one inbound transfer request at a time.
// The card directory is read-only from its perspective; it never persists
// anything.
type TransferEventConsumer struct {
	repo              store.Repository
	accounts          AccountGateway
	publisher         OutcomePublisher
	exchange          string
	outcomeRoutingKey string
}

// NewTransferEventConsumer creates a consumer wired to its collaborators.
func NewTransferEventConsumer(repo store.Repository, accounts AccountGateway, publisher OutcomePublisher, exchange, outcomeRoutingKey string) *TransferEventConsumer {
	return &TransferEventConsumer{
		repo:              repo,
		accounts:          accounts,
		publisher:         publisher,
		exchange:          exchange,
		outcomeRoutingKey: outcomeRoutingKey,
	}
}

// HandleMessage processes one raw broker delivery. The return value drives
// ack/nack: true acknowledges the delivery, false re-queues it.
//
// Deliveries that are not recognized transfer events are acknowledged and
// dropped with no emission and no side effect.
func (c *TransferEventConsumer) HandleMessage(body []byte) bool {
	event, err := domain.DecodeInboundEvent(body)
	if err != nil {
		if errors.Is(err, domain.ErrUnrecognizedEvent) {
			log.Printf("transfer-consumer: dropping unrecognized event: %v", err)
		} else {
			log.Printf("transfer-consumer: failed to decode payload: %v", err)
		}
		return true
	}

	switch event := event.(type) {
	case *domain.TransferRequestEvent:
		ctx, cancel := context.WithTimeout(context.Background(), transferProcessingTimeout)
		defer cancel()

		outcome := c.processTransfer(ctx, event)

		if err := c.publisher.Publish(ctx, c.exchange, c.outcomeRoutingKey, outcome); err != nil {
			log.Printf("transfer-consumer: outcome publish failed for transaction %s: %v", event.TransactionID, err)
			return false
		}
		return true
	default:
		return true
	}
}

// processTransfer resolves the card, decides the transfer direction from the
// transaction type, invokes the account service, and returns the outcome
// value. It performs no emission itself; every path, failure included, yields
// an outcome for the caller to publish.
func (c *TransferEventConsumer) processTransfer(ctx context.Context, event *domain.TransferRequestEvent) domain.TransferOutcomeEvent {
	card, err := c.repo.FindDebitCardByCardNumber(ctx, event.DebitCardNumber)
	if err != nil {
		if errors.Is(err, store.ErrDebitCardNotFound) {
			return failureOutcome(event, "Debit card not found")
		}
		log.Printf("transfer-consumer: card lookup error for transaction %s: %v", event.TransactionID, err)
		return failureOutcome(event, err.Error())
	}

	var source, destination string
	switch event.Type {
	case domain.TransactionTypeDeposit:
		source, destination = card.PrimaryAccountID, event.AccountID
	case domain.TransactionTypeWithdraw:
		source, destination = event.AccountID, card.PrimaryAccountID
	default:
		return failureOutcome(event, fmt.Sprintf("Unknown transaction type: %s", event.Type))
	}

	result, err := c.accounts.Transfer(ctx, source, destination, event.Amount)
	if err != nil {
		// BusinessError.Error() is the remote message verbatim; infrastructure
		// errors carry their own description.
		return failureOutcome(event, err.Error())
	}

	return successOutcome(event, result.BalanceAfterMovement)
}

func successOutcome(event *domain.TransferRequestEvent, balance decimal.Decimal) domain.TransferOutcomeEvent {
	amount := event.Amount
	return domain.TransferOutcomeEvent{
		TransID:         event.TransactionID,
		Type:            event.Type,
		AccountID:       event.AccountID,
		DebitCardNumber: event.DebitCardNumber,
		BalanceUpdated:  &balance,
		Amount:          &amount,
		Status:          domain.OutcomeStatusCompleted,
		Description:     successDescription,
	}
}

func failureOutcome(event *domain.TransferRequestEvent, reason string) domain.TransferOutcomeEvent {
	return domain.TransferOutcomeEvent{
		TransID:     event.TransactionID,
		Type:        domain.OutcomeTypeFailed,
		Status:      domain.OutcomeStatusError,
		Description: reason,
	}
}
