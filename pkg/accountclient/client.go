/**
 * @description
 * This package provides a client for communicating with the external account
 * service through the bank's API gateway. It encapsulates the logic for making
 * authenticated HTTP requests, handling request construction, and normalizing
 * the gateway's failure modes into the classes callers dispatch on:
 *
 *   - BusinessError: the gateway rejected the request (insufficient funds,
 *     invalid account, ...). Carries the remote-supplied message verbatim.
 *   - plain error: infrastructure fault (gateway unreachable, 5xx, malformed
 *     response body).
 *   - account lookup absence: GetAccount returns (nil, nil), not an error.
 *
 * No retry or circuit breaking happens here; that is the transport layer's
 * concern.
 *
 * @dependencies
 * - context, encoding/json, fmt, io, net/http, time: Standard Go libraries.
 * - github.com/shopspring/decimal: Monetary amounts and balances.
 */

package accountclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// fallbackErrorMessage is used when a rejection body carries no readable message.
const fallbackErrorMessage = "An error occurred"

// Client is a client for the account service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new account service client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// BusinessError represents a request the account service rejected on business
// grounds, as opposed to an infrastructure fault. Error() returns only the
// remote message so callers can surface it verbatim.
type BusinessError struct {
	StatusCode int
	Message    string
}

func (e *BusinessError) Error() string {
	return e.Message
}

// TransferResult is the account service's record of a completed movement.
type TransferResult struct {
	ID                   string          `json:"id"`
	CustomerID           string          `json:"customer_id"`
	AccountID            string          `json:"account_id"`
	ProductName          string          `json:"product_name"`
	Type                 string          `json:"type"`
	Amount               decimal.Decimal `json:"amount"`
	BalanceAfterMovement decimal.Decimal `json:"balance_after_movement"`
	CreatedAt            time.Time       `json:"created_at"`
	Description          string          `json:"description"`
}

// Account is a snapshot of a bank account as reported by the account service.
type Account struct {
	ID          string          `json:"id"`
	AccountType string          `json:"account_type"`
	CustomerID  string          `json:"customer_id"`
	Balance     decimal.Decimal `json:"balance"`
	Status      string          `json:"status"`
}

// Transfer moves amount from one account to another and returns the resulting
// state of the movement, including the balance after it.
func (c *Client) Transfer(ctx context.Context, fromAccountID, toAccountID string, amount decimal.Decimal) (*TransferResult, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("account service base url is empty")
	}

	endpoint := fmt.Sprintf("%s/accounts/%s/%s/transfer?amount=%s",
		c.baseURL, url.PathEscape(fromAccountID), url.PathEscape(toAccountID), url.QueryEscape(amount.String()))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create transfer request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute transfer request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read transfer response: %w", err)
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		message := extractErrorMessage(bodyBytes)
		log.Printf("level=warn component=account_client op=transfer status=%d message=%q", resp.StatusCode, message)
		return nil, &BusinessError{StatusCode: resp.StatusCode, Message: message}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("level=error component=account_client op=transfer status=%d msg=\"unexpected response\"", resp.StatusCode)
		return nil, fmt.Errorf("account service returned status %d", resp.StatusCode)
	}

	var result TransferResult
	if err := json.Unmarshal(bodyBytes, &result); err != nil {
		return nil, fmt.Errorf("failed to decode transfer response: %w", err)
	}
	return &result, nil
}

// GetAccount fetches an account snapshot by id. A 404 from the gateway is a
// legitimate "no such account" outcome and yields (nil, nil).
func (c *Client) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("account service base url is empty")
	}

	endpoint := fmt.Sprintf("%s/accounts/%s", c.baseURL, url.PathEscape(accountID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create account request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute account request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read account response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		message := extractErrorMessage(bodyBytes)
		log.Printf("level=warn component=account_client op=get_account account_id=%s status=%d message=%q", accountID, resp.StatusCode, message)
		return nil, &BusinessError{StatusCode: resp.StatusCode, Message: message}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		log.Printf("level=error component=account_client op=get_account account_id=%s status=%d msg=\"unexpected response\"", accountID, resp.StatusCode)
		return nil, fmt.Errorf("account service returned status %d", resp.StatusCode)
	}

	var account Account
	if err := json.Unmarshal(bodyBytes, &account); err != nil {
		return nil, fmt.Errorf("failed to decode account response: %w", err)
	}
	return &account, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Internal-API-Key", c.apiKey)
	}
}

// extractErrorMessage pulls the `message` field out of a structured error
// body, falling back to a generic message when the body is unparsable.
func extractErrorMessage(body []byte) string {
	var errBody struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &errBody); err != nil || strings.TrimSpace(errBody.Message) == "" {
		return fallbackErrorMessage
	}
	return errBody.Message
}
