/**
 * @description
 * This file contains the HTTP handlers for the debitcard-service's API endpoints.
 * Handlers are responsible for parsing incoming requests, calling the appropriate
 * methods on the application service, and writing the HTTP response. They act as the
 * bridge between the web layer and the business logic layer.
 *
 * @dependencies
 * - context, encoding/json, errors, log, net/http: Standard Go libraries.
 * - github.com/go-chi/chi/v5: URL parameter extraction.
 * - github.com/go-playground/validator/v10: Payload validation.
 * - internal/app, internal/domain, internal/store: Service logic, models, and custom errors.
 * - pkg/accountclient: Business/infrastructure error classes from the gateway.
 */

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/bankcore/debitcard-service/internal/app"
	"github.com/bankcore/debitcard-service/internal/domain"
	"github.com/bankcore/debitcard-service/internal/store"
	"github.com/bankcore/debitcard-service/pkg/accountclient"
)

// DebitCardHandlers holds the application service and collaborators the
// handlers use.
type DebitCardHandlers struct {
	service  *app.Service
	accounts app.AccountGateway
	validate *validator.Validate
}

// NewDebitCardHandlers creates a new instance of DebitCardHandlers.
func NewDebitCardHandlers(service *app.Service, accounts app.AccountGateway) *DebitCardHandlers {
	return &DebitCardHandlers{
		service:  service,
		accounts: accounts,
		validate: validator.New(),
	}
}

// ListDebitCardsHandler returns every card in the directory.
func (h *DebitCardHandlers) ListDebitCardsHandler(w http.ResponseWriter, r *http.Request) {
	cards, err := h.service.ListDebitCards(r.Context())
	if err != nil {
		log.Printf("level=error component=api endpoint=list_debit_cards err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Could not list debit cards")
		return
	}
	h.writeJSON(w, http.StatusOK, cards)
}

// CreateDebitCardHandler issues a new debit card from a validated payload.
func (h *DebitCardHandlers) CreateDebitCardHandler(w http.ResponseWriter, r *http.Request) {
	var payload domain.CreateDebitCardPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Validation failed: %v", err))
		return
	}

	card, err := h.service.CreateDebitCard(r.Context(), payload)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateCardNumber) {
			h.writeError(w, http.StatusConflict, "Card number already registered")
			return
		}
		log.Printf("level=error component=api endpoint=create_debit_card err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Could not create debit card")
		return
	}

	w.Header().Set("Location", r.URL.Path+"/"+card.ID)
	h.writeJSON(w, http.StatusCreated, card)
}

// GetDebitCardHandler returns one card by id.
func (h *DebitCardHandlers) GetDebitCardHandler(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "card_id")

	card, err := h.service.GetDebitCard(r.Context(), cardID)
	if err != nil {
		if errors.Is(err, store.ErrDebitCardNotFound) {
			h.writeError(w, http.StatusNotFound, "Debit card not found")
			return
		}
		log.Printf("level=error component=api endpoint=get_debit_card card_id=%s err=%v", cardID, err)
		h.writeError(w, http.StatusInternalServerError, "Could not retrieve debit card")
		return
	}
	h.writeJSON(w, http.StatusOK, card)
}

// UpdateDebitCardHandler applies mutable attributes to an existing card.
func (h *DebitCardHandlers) UpdateDebitCardHandler(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "card_id")

	var payload domain.UpdateDebitCardPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Validation failed: %v", err))
		return
	}

	card, err := h.service.UpdateDebitCard(r.Context(), cardID, payload)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDebitCardNotFound):
			h.writeError(w, http.StatusNotFound, "Debit card not found")
		case errors.Is(err, store.ErrVersionConflict):
			h.writeError(w, http.StatusConflict, "Debit card was modified concurrently; retry")
		default:
			log.Printf("level=error component=api endpoint=update_debit_card card_id=%s err=%v", cardID, err)
			h.writeError(w, http.StatusInternalServerError, "Could not update debit card")
		}
		return
	}
	h.writeJSON(w, http.StatusOK, card)
}

// DeleteDebitCardHandler removes a card.
func (h *DebitCardHandlers) DeleteDebitCardHandler(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "card_id")

	if err := h.service.DeleteDebitCard(r.Context(), cardID); err != nil {
		if errors.Is(err, store.ErrDebitCardNotFound) {
			h.writeError(w, http.StatusNotFound, "Debit card not found")
			return
		}
		log.Printf("level=error component=api endpoint=delete_debit_card card_id=%s err=%v", cardID, err)
		h.writeError(w, http.StatusInternalServerError, "Could not delete debit card")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddLinkedAccountHandler attaches a secondary account to a card.
func (h *DebitCardHandlers) AddLinkedAccountHandler(w http.ResponseWriter, r *http.Request) {
	h.mutateLinkedAccount(w, r, "add_linked_account", h.service.AddLinkedAccount)
}

// RemoveLinkedAccountHandler detaches a secondary account from a card.
func (h *DebitCardHandlers) RemoveLinkedAccountHandler(w http.ResponseWriter, r *http.Request) {
	h.mutateLinkedAccount(w, r, "remove_linked_account", h.service.RemoveLinkedAccount)
}

// mutateLinkedAccount runs one of the linked-account set operations. A nil
// card from the service means the card does not exist: nothing happened, and
// that surfaces as a 404.
func (h *DebitCardHandlers) mutateLinkedAccount(w http.ResponseWriter, r *http.Request, endpoint string, op func(ctx context.Context, cardID, accountID string) (*domain.DebitCard, error)) {
	cardID := chi.URLParam(r, "card_id")
	accountID := chi.URLParam(r, "account_id")

	card, err := op(r.Context(), cardID, accountID)
	if err != nil {
		log.Printf("level=error component=api endpoint=%s card_id=%s account_id=%s err=%v", endpoint, cardID, accountID, err)
		h.writeError(w, http.StatusInternalServerError, "Could not update linked accounts")
		return
	}
	if card == nil {
		h.writeError(w, http.StatusNotFound, "Debit card not found")
		return
	}
	h.writeJSON(w, http.StatusOK, card)
}

// GetAccountHandler proxies an account lookup through the gateway client.
// Absence maps to 404, business rejections to 400, infrastructure faults to 502.
func (h *DebitCardHandlers) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "account_id")

	account, err := h.accounts.GetAccount(r.Context(), accountID)
	if err != nil {
		var bizErr *accountclient.BusinessError
		if errors.As(err, &bizErr) {
			h.writeError(w, http.StatusBadRequest, bizErr.Message)
			return
		}
		log.Printf("level=error component=api endpoint=get_account account_id=%s err=%v", accountID, err)
		h.writeError(w, http.StatusBadGateway, "Account service unavailable")
		return
	}
	if account == nil {
		h.writeError(w, http.StatusNotFound, "Account not found")
		return
	}
	h.writeJSON(w, http.StatusOK, account)
}

// writeJSON is a helper for writing JSON responses.
func (h *DebitCardHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *DebitCardHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
