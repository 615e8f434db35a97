package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/model"
	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PublicationStore = (*PublicationRepo)(nil)

// PublicationRepo is the SQLite implementation of the PublicationStore port
// interface. The ON CONFLICT clause in Upsert deliberately excludes the cost
// columns: syncs can never overwrite user-entered cost data.
type PublicationRepo struct {
	db *DB
}

// NewPublicationRepo creates a new PublicationRepo backed by the given DB.
func NewPublicationRepo(db *DB) *PublicationRepo {
	return &PublicationRepo{db: db}
}

const publicationColumns = `id, account_id, meli_item_id, title, sku, price_meli, category_id_meli,
       cost_price_user, iva_rate_user, cost_last_updated_at, fetched_at, created_at, updated_at`

// Upsert inserts a publication or overwrites the mirrored fields of the
// existing (account_id, meli_item_id) row.
func (r *PublicationRepo) Upsert(ctx context.Context, pub model.Publication) error {
	const query = `
		INSERT INTO publications (
			id, account_id, meli_item_id, title, sku, price_meli, category_id_meli, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id, meli_item_id) DO UPDATE SET
			title = excluded.title,
			sku = excluded.sku,
			price_meli = excluded.price_meli,
			category_id_meli = excluded.category_id_meli,
			fetched_at = excluded.fetched_at,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		pub.ID, pub.AccountID, pub.MeliItemID,
		pub.Title, pub.SKU, pub.PriceMeli, pub.CategoryIDMeli,
		formatTime(pub.FetchedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert publication %s/%s: %w", pub.AccountID, pub.MeliItemID, err)
	}
	return nil
}

// GetByItemID retrieves the cache entry for one (account, item) pair.
// Returns nil, nil if it does not exist.
func (r *PublicationRepo) GetByItemID(ctx context.Context, accountID, meliItemID string) (*model.Publication, error) {
	query := `SELECT ` + publicationColumns + ` FROM publications WHERE account_id = ? AND meli_item_id = ?`

	pub, err := scanPublication(r.db.Reader.QueryRowContext(ctx, query, accountID, meliItemID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get publication %s/%s: %w", accountID, meliItemID, err)
	}
	return pub, nil
}

// GetBySKU retrieves the first publication with the given SKU for the
// account. Returns nil, nil if none matches.
func (r *PublicationRepo) GetBySKU(ctx context.Context, accountID, sku string) (*model.Publication, error) {
	query := `SELECT ` + publicationColumns + ` FROM publications WHERE account_id = ? AND sku = ? ORDER BY created_at LIMIT 1`

	pub, err := scanPublication(r.db.Reader.QueryRowContext(ctx, query, accountID, sku))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get publication by sku %s/%s: %w", accountID, sku, err)
	}
	return pub, nil
}

// UpdateCost sets the locally-owned cost fields for one publication.
func (r *PublicationRepo) UpdateCost(ctx context.Context, id string, netCost, ivaRate float64, updatedAt time.Time) error {
	const query = `
		UPDATE publications SET
			cost_price_user = ?,
			iva_rate_user = ?,
			cost_last_updated_at = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	res, err := r.db.Writer.ExecContext(ctx, query, netCost, ivaRate, formatTime(updatedAt), id)
	if err != nil {
		return fmt.Errorf("update cost for publication %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update cost for publication %s: rows affected: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("update cost for publication %s: no such row", id)
	}
	return nil
}

// ListByAccount returns all cached publications for the account, ordered by title.
func (r *PublicationRepo) ListByAccount(ctx context.Context, accountID string) ([]model.Publication, error) {
	query := `SELECT ` + publicationColumns + ` FROM publications WHERE account_id = ? ORDER BY title`

	rows, err := r.db.Reader.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list publications for %s: %w", accountID, err)
	}
	defer rows.Close()

	var pubs []model.Publication
	for rows.Next() {
		pub, err := scanPublication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan publication: %w", err)
		}
		pubs = append(pubs, *pub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate publications: %w", err)
	}

	return pubs, nil
}

func scanPublication(row scanner) (*model.Publication, error) {
	var (
		pub           model.Publication
		sku           sql.NullString
		categoryID    sql.NullString
		costPrice     sql.NullFloat64
		ivaRate       sql.NullFloat64
		costUpdatedAt sql.NullString
		fetchedAt     string
		createdAt     string
		updatedAt     string
	)

	if err := row.Scan(
		&pub.ID, &pub.AccountID, &pub.MeliItemID,
		&pub.Title, &sku, &pub.PriceMeli, &categoryID,
		&costPrice, &ivaRate, &costUpdatedAt,
		&fetchedAt, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	if sku.Valid {
		pub.SKU = &sku.String
	}
	if categoryID.Valid {
		pub.CategoryIDMeli = &categoryID.String
	}
	if costPrice.Valid {
		pub.CostPriceUser = &costPrice.Float64
	}
	if ivaRate.Valid {
		pub.IvaRateUser = &ivaRate.Float64
	}

	var err error
	if pub.CostLastUpdatedAt, err = parseNullTime(costUpdatedAt); err != nil {
		return nil, fmt.Errorf("parse cost_last_updated_at: %w", err)
	}
	if pub.FetchedAt, err = parseTime(fetchedAt); err != nil {
		return nil, fmt.Errorf("parse fetched_at: %w", err)
	}
	if pub.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if pub.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &pub, nil
}
