package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	keyGatewayURL    = "GatewayUrl"
	keyProductID     = "ProductId"
	keyProductName   = "ProductName"
	keySharedSecret  = "SharedSecret"
	keyAdditionalFee = "AdditionalFee"
)

// PG stores settings as per-plugin key/value rows, mirroring how the host
// platform keeps plugin configuration.
type PG struct {
	Pool *pgxpool.Pool
}

// Load reads the full settings snapshot. ErrNotConfigured is returned when no
// rows exist for the plugin.
func (s PG) Load(ctx context.Context) (Settings, error) {
	if s.Pool == nil {
		return Settings{}, errors.New("settings: pool not configured")
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT key, value FROM plugin_settings WHERE plugin = $1`, SystemName)
	if err != nil {
		return Settings{}, fmt.Errorf("settings: load: %w", err)
	}
	defer rows.Close()

	var (
		out   Settings
		found bool
	)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Settings{}, fmt.Errorf("settings: scan: %w", err)
		}
		found = true
		switch key {
		case keyGatewayURL:
			out.GatewayURL = value
		case keyProductID:
			out.ProductID = value
		case keyProductName:
			out.ProductName = value
		case keySharedSecret:
			out.SharedSecret = value
		case keyAdditionalFee:
			fee, err := strconv.ParseFloat(value, 64)
			if err == nil {
				out.AdditionalFee = fee
			}
		}
	}
	if err := rows.Err(); err != nil {
		return Settings{}, fmt.Errorf("settings: load: %w", err)
	}
	if !found {
		return Settings{}, ErrNotConfigured
	}
	return out, nil
}

// Save upserts all settings keys in one transaction.
func (s PG) Save(ctx context.Context, in Settings) error {
	if s.Pool == nil {
		return errors.New("settings: pool not configured")
	}
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("settings: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	pairs := map[string]string{
		keyGatewayURL:    in.GatewayURL,
		keyProductID:     in.ProductID,
		keyProductName:   in.ProductName,
		keySharedSecret:  in.SharedSecret,
		keyAdditionalFee: strconv.FormatFloat(in.AdditionalFee, 'f', -1, 64),
	}
	for key, value := range pairs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO plugin_settings (plugin, key, value)
			VALUES ($1, $2, $3)
			ON CONFLICT (plugin, key) DO UPDATE SET value = EXCLUDED.value`,
			SystemName, key, value); err != nil {
			return fmt.Errorf("settings: save %s: %w", key, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("settings: commit: %w", err)
	}
	return nil
}

// Delete removes all settings rows for the plugin.
func (s PG) Delete(ctx context.Context) error {
	if s.Pool == nil {
		return errors.New("settings: pool not configured")
	}
	if _, err := s.Pool.Exec(ctx,
		`DELETE FROM plugin_settings WHERE plugin = $1`, SystemName); err != nil {
		return fmt.Errorf("settings: delete: %w", err)
	}
	return nil
}
