package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"kinetic/internal/services"
)

const accountColumns = "id, wallet_address, world_id_nullifier, is_verified, created_at, updated_at"

// GetAccount fetches an account by wallet address.
func (s *Store) GetAccount(ctx context.Context, address string) (*Account, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE wallet_address = ?",
		NormalizeAddress(address),
	)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "catalog", "get account", address, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

// EnsureAccount creates an account row for the address when none exists.
// A concurrent insert racing on the wallet_address uniqueness constraint is
// treated as success.
func (s *Store) EnsureAccount(ctx context.Context, address string, verified bool) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, wallet_address, is_verified, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(wallet_address) DO NOTHING`,
		uuid.NewString(),
		NormalizeAddress(address),
		boolToInt(verified),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("ensure account: %w", err)
	}
	return nil
}

// MarkAccountVerified records a successful personhood proof for the address.
func (s *Store) MarkAccountVerified(ctx context.Context, address, nullifier string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET world_id_nullifier = ?, is_verified = 1, updated_at = ?
         WHERE wallet_address = ?`,
		nullableString(nullifier),
		now,
		NormalizeAddress(address),
	)
	if err != nil {
		return fmt.Errorf("mark account verified: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark account verified: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "catalog", "mark account verified", address, nil)
	}
	return nil
}

func scanAccount(scanner interface{ Scan(dest ...any) error }) (*Account, error) {
	var (
		id         string
		wallet     string
		nullifier  sql.NullString
		isVerified sql.NullInt64
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&id, &wallet, &nullifier, &isVerified, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	account := &Account{
		ID:               id,
		WalletAddress:    wallet,
		WorldIDNullifier: nullifier.String,
		IsVerified:       isVerified.Int64 != 0,
	}
	account.CreatedAt = parseTimestamp(createdRaw)
	account.UpdatedAt = parseTimestamp(updatedRaw)
	return account, nil
}

func parseTimestamp(raw string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
