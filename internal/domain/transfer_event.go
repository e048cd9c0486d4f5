/**
 * @description
 * This file defines the broker-facing event contracts for the debitcard-service:
 * the inbound transfer-request event consumed from the events exchange and the
 * outbound outcome event published after processing.
 *
 * @notes
 * - Inbound events are modelled as a sealed tagged union. DecodeInboundEvent
 *   inspects the `eventType` discriminator and returns the concrete variant,
 *   so the consumer dispatches with an exhaustive type switch instead of
 *   ad-hoc shape sniffing.
 * - Both events are transient messages: they are never persisted and live only
 *   for the duration of one processing invocation.
 */

package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Transaction types carried on inbound transfer requests.
const (
	TransactionTypeDeposit  = "DEPOSIT_DEBIT_CARD"
	TransactionTypeWithdraw = "WITHDRAW_DEBIT_CARD"
)

// Outcome statuses and failure category.
const (
	OutcomeStatusCompleted = "completed"
	OutcomeStatusError     = "error"
	OutcomeTypeFailed      = "TRANSACTION_FAILED"
)

// EventTypeTransferRequest is the discriminator value for debit-card transfer
// request events.
const EventTypeTransferRequest = "TRANSFER_DEBIT_CARD"

// ErrUnrecognizedEvent is returned by DecodeInboundEvent for well-formed JSON
// whose eventType is not one this service handles.
var ErrUnrecognizedEvent = errors.New("unrecognized event type")

// InboundEvent is the sealed union of event kinds the consumer recognizes.
type InboundEvent interface {
	isInboundEvent()
}

// TransferRequestEvent is the inbound request to move funds between a debit
// card's primary account and a target account.
type TransferRequestEvent struct {
	TransactionID   string          `json:"transactionId"`
	DebitCardNumber string          `json:"debitCardNumber"`
	Type            string          `json:"type"`
	AccountID       string          `json:"accountId"`
	Amount          decimal.Decimal `json:"amount"`
}

func (*TransferRequestEvent) isInboundEvent() {}

// DecodeInboundEvent parses a raw broker payload into its concrete event
// variant. Malformed bodies and unknown eventType values return an error; the
// caller is expected to drop those deliveries without emitting anything.
func DecodeInboundEvent(body []byte) (InboundEvent, error) {
	var envelope struct {
		EventType string `json:"eventType"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode event envelope: %w", err)
	}

	switch envelope.EventType {
	case EventTypeTransferRequest:
		var event TransferRequestEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return nil, fmt.Errorf("decode transfer request event: %w", err)
		}
		return &event, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnrecognizedEvent, envelope.EventType)
	}
}

// TransferOutcomeEvent is the terminal message summarizing the result of
// processing one transfer request. Exactly one outcome is published per
// recognized inbound request, for failures as much as for successes.
// BalanceUpdated is present only on success.
type TransferOutcomeEvent struct {
	TransID         string           `json:"transId"`
	Type            string           `json:"type,omitempty"`
	AccountID       string           `json:"accountId,omitempty"`
	DebitCardNumber string           `json:"debitCardNumber,omitempty"`
	BalanceUpdated  *decimal.Decimal `json:"balanceUpdated,omitempty"`
	Amount          *decimal.Decimal `json:"amount,omitempty"`
	Status          string           `json:"status"`
	Description     string           `json:"description"`
}
