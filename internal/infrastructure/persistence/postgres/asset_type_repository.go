// Package postgres - AssetTypeRepository implementation.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Haleralex/coinvault/internal/application/ports"
	"github.com/Haleralex/coinvault/internal/domain/entities"
	domainErrors "github.com/Haleralex/coinvault/internal/domain/errors"
)

// Compile-time check
var _ ports.AssetTypeRepository = (*AssetTypeRepository)(nil)

// AssetTypeRepository реализует ports.AssetTypeRepository.
type AssetTypeRepository struct {
	pool *pgxpool.Pool
}

// NewAssetTypeRepository создаёт новый AssetTypeRepository.
func NewAssetTypeRepository(pool *pgxpool.Pool) *AssetTypeRepository {
	return &AssetTypeRepository{pool: pool}
}

func (r *AssetTypeRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const assetTypeColumns = `id, name, symbol, description, is_active, created_at`

// FindByID возвращает тип актива по id.
func (r *AssetTypeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.AssetType, error) {
	q := r.getQuerier(ctx)

	row := q.QueryRow(ctx,
		`SELECT `+assetTypeColumns+` FROM asset_types WHERE id = $1`, id)
	return scanAssetType(row)
}

// ListActive возвращает активные типы активов.
func (r *AssetTypeRepository) ListActive(ctx context.Context) ([]*entities.AssetType, error) {
	q := r.getQuerier(ctx)

	rows, err := q.Query(ctx,
		`SELECT `+assetTypeColumns+` FROM asset_types WHERE is_active = TRUE ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list asset types: %w", err)
	}
	defer rows.Close()

	var assets []*entities.AssetType
	for rows.Next() {
		asset, err := scanAssetType(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

func scanAssetType(row pgx.Row) (*entities.AssetType, error) {
	var (
		asset       entities.AssetType
		description *string
	)

	err := row.Scan(
		&asset.ID,
		&asset.Name,
		&asset.Symbol,
		&description,
		&asset.IsActive,
		&asset.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to scan asset type: %w", err)
	}

	asset.Description = stringOrEmpty(description)
	return &asset, nil
}
