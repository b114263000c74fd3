package access

import (
	"context"
	"database/sql"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// Users is the keyed-record interface the core requires for user lookups.
// All methods are point reads/writes by indexed key; misses surface as
// record-not-found errors the callers classify.
type Users interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByExternalID(ctx context.Context, externalID string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, record *User) (*User, error)
	SetAPIKey(ctx context.Context, id, apiKeyHash string) error
}

type users struct {
	db *bun.DB
}

// NewUsersRepository returns a Users store over db.
func NewUsersRepository(db *bun.DB) Users {
	return &users{db: db}
}

func (a *users) GetByID(ctx context.Context, id string) (*User, error) {
	return a.getByColumn(ctx, "id", strings.TrimSpace(id))
}

func (a *users) GetByExternalID(ctx context.Context, externalID string) (*User, error) {
	return a.getByColumn(ctx, "external_id", strings.TrimSpace(externalID))
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.getByColumn(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
}

func (a *users) getByColumn(ctx context.Context, column, value string) (*User, error) {
	if value == "" {
		return nil, repository.NewRecordNotFound().WithMetadata(map[string]any{
			"column": column,
		})
	}

	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias."+column+" = ?", value).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.NewRecordNotFound().WithMetadata(map[string]any{
				"column": column,
				"value":  value,
			})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) Create(ctx context.Context, record *User) (*User, error) {
	record.Normalize()
	if err := record.Validate(); err != nil {
		return nil, err
	}

	if _, err := a.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConflict, "could not create user")
	}

	return record, nil
}

func (a *users) SetAPIKey(ctx context.Context, id, apiKeyHash string) error {
	res, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("api_key_hash = ?", apiKeyHash).
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
