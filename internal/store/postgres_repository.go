/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains all the necessary SQL queries to interact with the `debit_cards`
 * table.
 *
 * @dependencies
 * - context, errors: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bankcore/debitcard-service/internal/domain"
)

var (
	ErrDebitCardNotFound   = errors.New("debit card not found")
	ErrDuplicateCardNumber = errors.New("card number already registered")
	// ErrVersionConflict signals that the card row changed between load and
	// save. Callers retry the whole read-modify-write cycle.
	ErrVersionConflict = errors.New("debit card version conflict")
)

const uniqueViolationCode = "23505"

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const debitCardColumns = `id, customer_id, card_number, cardholder_name, expiration_date, cvv,
	primary_account_id, linked_accounts, status, version, created_at, updated_at`

func scanDebitCard(row pgx.Row, card *domain.DebitCard) error {
	return row.Scan(
		&card.ID,
		&card.CustomerID,
		&card.CardNumber,
		&card.CardholderName,
		&card.ExpirationDate,
		&card.CVV,
		&card.PrimaryAccountID,
		&card.LinkedAccounts,
		&card.Status,
		&card.Version,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
}

// FindAllDebitCards returns every card in the directory.
func (r *PostgresRepository) FindAllDebitCards(ctx context.Context) ([]domain.DebitCard, error) {
	query := `SELECT ` + debitCardColumns + ` FROM debit_cards ORDER BY created_at`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cards := make([]domain.DebitCard, 0)
	for rows.Next() {
		var card domain.DebitCard
		if err := scanDebitCard(rows, &card); err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// FindDebitCardByID retrieves a card by its identifier.
func (r *PostgresRepository) FindDebitCardByID(ctx context.Context, cardID string) (*domain.DebitCard, error) {
	var card domain.DebitCard
	query := `SELECT ` + debitCardColumns + ` FROM debit_cards WHERE id = $1`
	err := scanDebitCard(r.db.QueryRow(ctx, query, cardID), &card)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDebitCardNotFound
		}
		return nil, err
	}
	return &card, nil
}

// FindDebitCardByCardNumber retrieves a card by its exact card number.
func (r *PostgresRepository) FindDebitCardByCardNumber(ctx context.Context, cardNumber string) (*domain.DebitCard, error) {
	var card domain.DebitCard
	query := `SELECT ` + debitCardColumns + ` FROM debit_cards WHERE card_number = $1`
	err := scanDebitCard(r.db.QueryRow(ctx, query, cardNumber), &card)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDebitCardNotFound
		}
		return nil, err
	}
	return &card, nil
}

// CreateDebitCard inserts a new card record.
func (r *PostgresRepository) CreateDebitCard(ctx context.Context, card *domain.DebitCard) error {
	query := `
		INSERT INTO debit_cards (id, customer_id, card_number, cardholder_name, expiration_date, cvv,
			primary_account_id, linked_accounts, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.Exec(ctx, query,
		card.ID,
		card.CustomerID,
		card.CardNumber,
		card.CardholderName,
		card.ExpirationDate,
		card.CVV,
		card.PrimaryAccountID,
		card.LinkedAccounts,
		card.Status,
		card.Version,
		card.CreatedAt,
		card.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrDuplicateCardNumber
		}
		return err
	}
	return nil
}

// UpdateDebitCard persists a previously loaded card using optimistic
// concurrency: the row is only written when the stored version still matches
// the version the caller loaded.
func (r *PostgresRepository) UpdateDebitCard(ctx context.Context, card *domain.DebitCard) error {
	query := `
		UPDATE debit_cards
		SET cardholder_name = $1, expiration_date = $2, linked_accounts = $3, status = $4,
			version = version + 1, updated_at = NOW()
		WHERE id = $5 AND version = $6
		RETURNING version, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		card.CardholderName,
		card.ExpirationDate,
		card.LinkedAccounts,
		card.Status,
		card.ID,
		card.Version,
	).Scan(&card.Version, &card.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Distinguish a missing card from a stale version.
			var exists bool
			if checkErr := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM debit_cards WHERE id = $1)`, card.ID).Scan(&exists); checkErr != nil {
				return checkErr
			}
			if !exists {
				return ErrDebitCardNotFound
			}
			return ErrVersionConflict
		}
		return err
	}
	return nil
}

// DeleteDebitCard removes a card by its identifier.
func (r *PostgresRepository) DeleteDebitCard(ctx context.Context, cardID string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM debit_cards WHERE id = $1`, cardID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrDebitCardNotFound
	}
	return nil
}
