package access

import (
	"context"
	"database/sql"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// Resources is the keyed-record interface for access-controlled entities.
type Resources interface {
	GetByID(ctx context.Context, id string) (*Resource, error)
	Create(ctx context.Context, record *Resource) (*Resource, error)
	Delete(ctx context.Context, id string) error
}

type resources struct {
	db *bun.DB
}

// NewResourcesRepository returns a Resources store over db.
func NewResourcesRepository(db *bun.DB) Resources {
	return &resources{db: db}
}

func (a *resources) GetByID(ctx context.Context, id string) (*Resource, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, repository.NewRecordNotFound()
	}

	record := &Resource{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.NewRecordNotFound().WithMetadata(map[string]any{
				"id": id,
			})
		}
		return nil, err
	}

	return record, nil
}

func (a *resources) Create(ctx context.Context, record *Resource) (*Resource, error) {
	if record.Visibility == "" {
		record.Visibility = VisibilityPrivate
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	if _, err := a.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConflict, "could not create resource")
	}

	return record, nil
}

// Delete removes a resource. The contributors table declares an ON DELETE
// CASCADE on resource_id so no dangling grants survive.
func (a *resources) Delete(ctx context.Context, id string) error {
	res, err := a.db.NewDelete().
		Model((*Resource)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.NewRecordNotFound().WithMetadata(map[string]any{
			"id": id,
		})
	}

	return nil
}
