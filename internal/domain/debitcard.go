/**
 * @description
 * This file defines the core domain models for the debitcard-service.
 * These structs represent the main entities and data transfer objects (DTOs)
 * used throughout the service's business logic, database interactions, and API layers.
 *
 * @notes
 * - Using distinct types for API payloads and the stored entity ensures clear
 *   separation of concerns and type safety.
 * - Monetary values use `decimal.Decimal` to avoid floating-point inaccuracies
 *   with financial data.
 */

package domain

import (
	"time"
)

// DebitCard represents a debit card issued to a customer. It maps directly to
// the `debit_cards` table in the database.
//
// PrimaryAccountID is the funding account the card draws from and deposits to
// by default. It is generated by the service at creation time and is never
// taken from caller input.
type DebitCard struct {
	ID               string    `json:"id"`
	CustomerID       string    `json:"customer_id"`
	CardNumber       string    `json:"card_number"`
	CardholderName   string    `json:"cardholder_name,omitempty"`
	ExpirationDate   string    `json:"expiration_date,omitempty"`
	CVV              string    `json:"-"`
	PrimaryAccountID string    `json:"primary_account_id"`
	LinkedAccounts   []string  `json:"linked_accounts,omitempty"`
	Status           string    `json:"status"` // e.g., 'active', 'blocked'
	Version          int64     `json:"-"`      // optimistic concurrency token, bumped on every update
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// HasLinkedAccount reports whether accountID is part of the card's linked
// (secondary) account set.
func (c *DebitCard) HasLinkedAccount(accountID string) bool {
	for _, id := range c.LinkedAccounts {
		if id == accountID {
			return true
		}
	}
	return false
}

// AddLinkedAccount adds accountID to the linked-account set. Adding an element
// that is already present is a no-op; the return value reports whether the set
// changed.
func (c *DebitCard) AddLinkedAccount(accountID string) bool {
	if c.HasLinkedAccount(accountID) {
		return false
	}
	c.LinkedAccounts = append(c.LinkedAccounts, accountID)
	return true
}

// RemoveLinkedAccount removes accountID from the linked-account set. Removing
// an absent element is a no-op; the return value reports whether the set
// changed.
func (c *DebitCard) RemoveLinkedAccount(accountID string) bool {
	for i, id := range c.LinkedAccounts {
		if id == accountID {
			c.LinkedAccounts = append(c.LinkedAccounts[:i], c.LinkedAccounts[i+1:]...)
			return true
		}
	}
	return false
}

// CreateDebitCardPayload is the DTO for incoming card issuance API requests.
// The primary account identifier is deliberately absent: it is always
// generated server-side.
type CreateDebitCardPayload struct {
	CustomerID     string   `json:"customer_id" validate:"required"`
	CardNumber     string   `json:"card_number" validate:"required"`
	CardholderName string   `json:"cardholder_name"`
	ExpirationDate string   `json:"expiration_date"`
	CVV            string   `json:"cvv"`
	LinkedAccounts []string `json:"linked_accounts,omitempty"`
}

// UpdateDebitCardPayload is the DTO for card update API requests. Only the
// mutable card attributes are accepted.
type UpdateDebitCardPayload struct {
	CardholderName string `json:"cardholder_name"`
	ExpirationDate string `json:"expiration_date"`
	Status         string `json:"status" validate:"omitempty,oneof=active blocked"`
}
