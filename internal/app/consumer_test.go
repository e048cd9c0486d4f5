package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/bankcore/debitcard-service/internal/domain"
	"github.com/bankcore/debitcard-service/internal/store"
	"github.com/bankcore/debitcard-service/pkg/accountclient"
)

type consumerRepoStub struct {
	store.Repository

	card    *domain.DebitCard
	findErr error
	lookups []string
}

func (s *consumerRepoStub) FindDebitCardByCardNumber(ctx context.Context, cardNumber string) (*domain.DebitCard, error) {
	s.lookups = append(s.lookups, cardNumber)
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.card == nil || s.card.CardNumber != cardNumber {
		return nil, store.ErrDebitCardNotFound
	}
	return s.card, nil
}

type transferCall struct {
	from, to string
	amount   decimal.Decimal
}

type gatewayStub struct {
	calls  []transferCall
	result *accountclient.TransferResult
	err    error
}

func (s *gatewayStub) Transfer(ctx context.Context, fromAccountID, toAccountID string, amount decimal.Decimal) (*accountclient.TransferResult, error) {
	s.calls = append(s.calls, transferCall{from: fromAccountID, to: toAccountID, amount: amount})
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *gatewayStub) GetAccount(ctx context.Context, accountID string) (*accountclient.Account, error) {
	return nil, nil
}

type publisherStub struct {
	err      error
	exchange string
	key      string
	events   []domain.TransferOutcomeEvent
}

func (s *publisherStub) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	if s.err != nil {
		return s.err
	}
	outcome, ok := body.(domain.TransferOutcomeEvent)
	if !ok {
		return fmt.Errorf("unexpected body type %T", body)
	}
	s.exchange = exchange
	s.key = routingKey
	s.events = append(s.events, outcome)
	return nil
}

func newTestConsumer(repo *consumerRepoStub, gateway *gatewayStub, publisher *publisherStub) *TransferEventConsumer {
	return NewTransferEventConsumer(repo, gateway, publisher, "bank.events", "debitcard.transaction.outcome")
}

func transferRequestBody(transactionID, cardNumber, transactionType, accountID string, amount int) []byte {
	return []byte(fmt.Sprintf(
		`{"eventType":"TRANSFER_DEBIT_CARD","transactionId":%q,"debitCardNumber":%q,"type":%q,"accountId":%q,"amount":%d}`,
		transactionID, cardNumber, transactionType, accountID, amount,
	))
}

func activeCard(cardNumber, primaryAccountID string) *domain.DebitCard {
	return &domain.DebitCard{
		ID:               "card-1",
		CustomerID:       "cust-1",
		CardNumber:       cardNumber,
		PrimaryAccountID: primaryAccountID,
		Status:           "active",
	}
}

func TestHandleMessage_DepositMovesFundsFromPrimaryToTarget(t *testing.T) {
	repo := &consumerRepoStub{card: activeCard("1234", "A1")}
	balance := decimal.NewFromInt(150)
	gateway := &gatewayStub{result: &accountclient.TransferResult{BalanceAfterMovement: balance}}
	publisher := &publisherStub{}
	consumer := newTestConsumer(repo, gateway, publisher)

	ok := consumer.HandleMessage(transferRequestBody("T1", "1234", domain.TransactionTypeDeposit, "B1", 50))
	if !ok {
		t.Fatal("expected delivery to be acknowledged")
	}

	if len(gateway.calls) != 1 {
		t.Fatalf("expected exactly one transfer call, got %d", len(gateway.calls))
	}
	call := gateway.calls[0]
	if call.from != "A1" || call.to != "B1" {
		t.Fatalf("expected transfer A1 -> B1, got %s -> %s", call.from, call.to)
	}
	if !call.amount.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected amount 50, got %s", call.amount)
	}

	if len(publisher.events) != 1 {
		t.Fatalf("expected exactly one outcome event, got %d", len(publisher.events))
	}
	outcome := publisher.events[0]
	if outcome.TransID != "T1" {
		t.Errorf("expected transId T1, got %q", outcome.TransID)
	}
	if outcome.Status != domain.OutcomeStatusCompleted {
		t.Errorf("expected status completed, got %q", outcome.Status)
	}
	if outcome.BalanceUpdated == nil || !outcome.BalanceUpdated.Equal(balance) {
		t.Errorf("expected balanceUpdated 150, got %v", outcome.BalanceUpdated)
	}
	if outcome.Amount == nil || !outcome.Amount.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected amount 50, got %v", outcome.Amount)
	}
	if outcome.AccountID != "B1" || outcome.DebitCardNumber != "1234" {
		t.Errorf("unexpected outcome identifiers: %+v", outcome)
	}
	if publisher.exchange != "bank.events" || publisher.key != "debitcard.transaction.outcome" {
		t.Errorf("outcome published to %s/%s", publisher.exchange, publisher.key)
	}
}

func TestHandleMessage_WithdrawReversesTransferDirection(t *testing.T) {
	repo := &consumerRepoStub{card: activeCard("1234", "A1")}
	gateway := &gatewayStub{result: &accountclient.TransferResult{BalanceAfterMovement: decimal.NewFromInt(75)}}
	publisher := &publisherStub{}
	consumer := newTestConsumer(repo, gateway, publisher)

	if !consumer.HandleMessage(transferRequestBody("T2", "1234", domain.TransactionTypeWithdraw, "B1", 25)) {
		t.Fatal("expected delivery to be acknowledged")
	}

	if len(gateway.calls) != 1 {
		t.Fatalf("expected exactly one transfer call, got %d", len(gateway.calls))
	}
	call := gateway.calls[0]
	if call.from != "B1" || call.to != "A1" {
		t.Fatalf("expected transfer B1 -> A1, got %s -> %s", call.from, call.to)
	}
	if len(publisher.events) != 1 || publisher.events[0].Status != domain.OutcomeStatusCompleted {
		t.Fatalf("expected one completed outcome, got %+v", publisher.events)
	}
}

func TestHandleMessage_UnknownTypeFailsWithoutTransferCall(t *testing.T) {
	repo := &consumerRepoStub{card: activeCard("1234", "A1")}
	gateway := &gatewayStub{}
	publisher := &publisherStub{}
	consumer := newTestConsumer(repo, gateway, publisher)

	if !consumer.HandleMessage(transferRequestBody("T3", "1234", "FOO", "B1", 10)) {
		t.Fatal("expected delivery to be acknowledged")
	}

	if len(gateway.calls) != 0 {
		t.Fatalf("expected no transfer calls, got %d", len(gateway.calls))
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected exactly one outcome event, got %d", len(publisher.events))
	}
	outcome := publisher.events[0]
	if outcome.Status != domain.OutcomeStatusError {
		t.Errorf("expected status error, got %q", outcome.Status)
	}
	if outcome.Type != domain.OutcomeTypeFailed {
		t.Errorf("expected type TRANSACTION_FAILED, got %q", outcome.Type)
	}
	if outcome.Description != "Unknown transaction type: FOO" {
		t.Errorf("unexpected description %q", outcome.Description)
	}
	if outcome.BalanceUpdated != nil {
		t.Errorf("failure outcome must not carry a balance, got %v", outcome.BalanceUpdated)
	}
}

func TestHandleMessage_CardNotFoundFailsWithoutTransferCall(t *testing.T) {
	repo := &consumerRepoStub{}
	gateway := &gatewayStub{}
	publisher := &publisherStub{}
	consumer := newTestConsumer(repo, gateway, publisher)

	if !consumer.HandleMessage(transferRequestBody("T4", "9999", domain.TransactionTypeDeposit, "B1", 10)) {
		t.Fatal("expected delivery to be acknowledged")
	}

	if len(gateway.calls) != 0 {
		t.Fatalf("expected no transfer calls, got %d", len(gateway.calls))
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected exactly one outcome event, got %d", len(publisher.events))
	}
	outcome := publisher.events[0]
	if outcome.Status != domain.OutcomeStatusError || outcome.Description != "Debit card not found" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

func TestHandleMessage_RemoteRejectionCarriesMessageVerbatim(t *testing.T) {
	repo := &consumerRepoStub{card: activeCard("1234", "A1")}
	gateway := &gatewayStub{err: &accountclient.BusinessError{StatusCode: 422, Message: "insufficient funds"}}
	publisher := &publisherStub{}
	consumer := newTestConsumer(repo, gateway, publisher)

	if !consumer.HandleMessage(transferRequestBody("T5", "1234", domain.TransactionTypeDeposit, "B1", 10)) {
		t.Fatal("expected delivery to be acknowledged")
	}

	if len(publisher.events) != 1 {
		t.Fatalf("expected exactly one outcome event, got %d", len(publisher.events))
	}
	outcome := publisher.events[0]
	if outcome.Status != domain.OutcomeStatusError {
		t.Errorf("expected status error, got %q", outcome.Status)
	}
	if outcome.Description != "insufficient funds" {
		t.Errorf("expected remote message verbatim, got %q", outcome.Description)
	}
}

func TestHandleMessage_LookupInfrastructureErrorStillEmitsOutcome(t *testing.T) {
	repo := &consumerRepoStub{findErr: errors.New("connection reset")}
	gateway := &gatewayStub{}
	publisher := &publisherStub{}
	consumer := newTestConsumer(repo, gateway, publisher)

	if !consumer.HandleMessage(transferRequestBody("T6", "1234", domain.TransactionTypeDeposit, "B1", 10)) {
		t.Fatal("expected delivery to be acknowledged")
	}

	if len(gateway.calls) != 0 {
		t.Fatalf("expected no transfer calls, got %d", len(gateway.calls))
	}
	if len(publisher.events) != 1 || publisher.events[0].Status != domain.OutcomeStatusError {
		t.Fatalf("expected one error outcome, got %+v", publisher.events)
	}
}

func TestHandleMessage_MalformedBodyDroppedWithoutEmission(t *testing.T) {
	repo := &consumerRepoStub{}
	gateway := &gatewayStub{}
	publisher := &publisherStub{}
	consumer := newTestConsumer(repo, gateway, publisher)

	if !consumer.HandleMessage([]byte("{not json")) {
		t.Fatal("malformed deliveries must be acknowledged, not re-queued")
	}

	if len(publisher.events) != 0 {
		t.Fatalf("expected no outcome events, got %d", len(publisher.events))
	}
	if len(repo.lookups) != 0 || len(gateway.calls) != 0 {
		t.Fatal("malformed deliveries must cause no side effects")
	}
}

func TestHandleMessage_UnrecognizedEventTypeDroppedWithoutEmission(t *testing.T) {
	repo := &consumerRepoStub{card: activeCard("1234", "A1")}
	gateway := &gatewayStub{}
	publisher := &publisherStub{}
	consumer := newTestConsumer(repo, gateway, publisher)

	body := []byte(`{"eventType":"CARD_BLOCKED","debitCardNumber":"1234"}`)
	if !consumer.HandleMessage(body) {
		t.Fatal("unrecognized deliveries must be acknowledged, not re-queued")
	}

	if len(publisher.events) != 0 {
		t.Fatalf("expected no outcome events, got %d", len(publisher.events))
	}
	if len(repo.lookups) != 0 || len(gateway.calls) != 0 {
		t.Fatal("unrecognized deliveries must cause no side effects")
	}
}

func TestHandleMessage_PublishFailureRequeuesDelivery(t *testing.T) {
	repo := &consumerRepoStub{card: activeCard("1234", "A1")}
	gateway := &gatewayStub{result: &accountclient.TransferResult{BalanceAfterMovement: decimal.NewFromInt(10)}}
	publisher := &publisherStub{err: errors.New("broker gone")}
	consumer := newTestConsumer(repo, gateway, publisher)

	if consumer.HandleMessage(transferRequestBody("T7", "1234", domain.TransactionTypeDeposit, "B1", 10)) {
		t.Fatal("expected delivery to be re-queued when the outcome cannot be published")
	}
}
