/**
 * @description
 * This file sets up the HTTP router for the debitcard-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies any
 * necessary middleware, such as for authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DebitCardRoutes creates and returns a new router for the debit card service.
func DebitCardRoutes(h *DebitCardHandlers, internalAPIKey string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Group routes that require the internal API key.
	r.Group(func(r chi.Router) {
		r.Use(InternalAPIKeyMiddleware(internalAPIKey))

		r.Route("/debitcards", func(r chi.Router) {
			r.Get("/", h.ListDebitCardsHandler)
			r.Post("/", h.CreateDebitCardHandler)
			r.Get("/{card_id}", h.GetDebitCardHandler)
			r.Put("/{card_id}", h.UpdateDebitCardHandler)
			r.Delete("/{card_id}", h.DeleteDebitCardHandler)
			r.Post("/{card_id}/accounts/{account_id}", h.AddLinkedAccountHandler)
			r.Delete("/{card_id}/accounts/{account_id}", h.RemoveLinkedAccountHandler)
		})

		r.Get("/accounts/{account_id}", h.GetAccountHandler)
	})

	return r
}
