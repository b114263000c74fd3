package access

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Contributors is the keyed-record interface for contributor grants. The
// mutating methods are conditional writes: CreatePending inserts only when
// no row exists for the (user, resource) pair and AcceptPending updates
// only while the row is still pending, so concurrent invites and
// duplicate accepts resolve inside a single statement instead of a
// read-then-write race.
type Contributors interface {
	Find(ctx context.Context, userID, resourceID string) (*Contributor, error)
	FindByID(ctx context.Context, id uuid.UUID, resourceID string) (*Contributor, error)
	FindByEmail(ctx context.Context, email, resourceID string) (*Contributor, error)
	ListByResource(ctx context.Context, resourceID string) ([]*Contributor, error)

	CreatePending(ctx context.Context, record *Contributor) (*Contributor, error)
	AcceptPending(ctx context.Context, userID, resourceID, username string, at time.Time) (*Contributor, error)
	UpdateAccessLevel(ctx context.Context, id uuid.UUID, resourceID string, level AccessLevel) (*Contributor, error)
	Delete(ctx context.Context, id uuid.UUID, resourceID string) error
	DeleteByUserResource(ctx context.Context, userID, resourceID string) error
}

type contributors struct {
	db *bun.DB
}

var _ Contributors = (*contributors)(nil)

// NewContributorsRepository returns a Contributors store over db.
func NewContributorsRepository(db *bun.DB) Contributors {
	return &contributors{db}
}

// NewContributorRecordsRepository exposes contributors through the generic
// record interface for callers that paginate or filter with criteria.
func NewContributorRecordsRepository(db *bun.DB) repository.Repository[*Contributor] {
	handlers := repository.ModelHandlers[*Contributor]{
		NewRecord: func() *Contributor {
			return &Contributor{}
		},
		GetID: func(record *Contributor) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *Contributor, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "email"
		},
	}
	return repository.NewRepository(db, handlers)
}

func (a *contributors) Find(ctx context.Context, userID, resourceID string) (*Contributor, error) {
	record := &Contributor{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ? AND ?TableAlias.resource_id = ?", userID, resourceID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, a.mapNotFound(err, map[string]any{
			"user_id":     userID,
			"resource_id": resourceID,
		})
	}

	return record, nil
}

func (a *contributors) FindByID(ctx context.Context, id uuid.UUID, resourceID string) (*Contributor, error) {
	record := &Contributor{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ? AND ?TableAlias.resource_id = ?", id, resourceID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, a.mapNotFound(err, map[string]any{
			"id":          id.String(),
			"resource_id": resourceID,
		})
	}

	return record, nil
}

func (a *contributors) FindByEmail(ctx context.Context, email, resourceID string) (*Contributor, error) {
	record := &Contributor{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ? AND ?TableAlias.resource_id = ?", strings.ToLower(strings.TrimSpace(email)), resourceID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, a.mapNotFound(err, map[string]any{
			"resource_id": resourceID,
		})
	}

	return record, nil
}

func (a *contributors) ListByResource(ctx context.Context, resourceID string) ([]*Contributor, error) {
	var records []*Contributor
	err := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.resource_id = ?", resourceID).
		Order("invited_at ASC").
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return []*Contributor{}, nil
		}
		return nil, err
	}

	return records, nil
}

// CreatePending inserts a pending row unless a row for the (user,
// resource) pair already exists; the loser of a concurrent invite gets
// ErrContributorConflict instead of a second row.
func (a *contributors) CreatePending(ctx context.Context, record *Contributor) (*Contributor, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.Pending = true
	record.AcceptedAt = nil

	if err := record.Validate(); err != nil {
		return nil, err
	}

	res, err := a.db.NewInsert().
		Model(record).
		On("CONFLICT (user_id, resource_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, ErrContributorConflict.WithMetadata(map[string]any{
			"user_id":     record.UserID,
			"resource_id": record.ResourceID,
		})
	}

	return record, nil
}

// AcceptPending flips the pending flag, stamps accepted_at, and refreshes
// the denormalized username in one conditional update; zero affected rows
// means there was no pending invitation.
func (a *contributors) AcceptPending(ctx context.Context, userID, resourceID, username string, at time.Time) (*Contributor, error) {
	res, err := a.db.NewUpdate().
		Model((*Contributor)(nil)).
		Set("pending = ?", false).
		Set("accepted_at = ?", at).
		Set("username = ?", username).
		Where("user_id = ? AND resource_id = ? AND pending", userID, resourceID).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, repository.NewRecordNotFound().WithMetadata(map[string]any{
			"user_id":     userID,
			"resource_id": resourceID,
		})
	}

	return a.Find(ctx, userID, resourceID)
}

func (a *contributors) UpdateAccessLevel(ctx context.Context, id uuid.UUID, resourceID string, level AccessLevel) (*Contributor, error) {
	res, err := a.db.NewUpdate().
		Model((*Contributor)(nil)).
		Set("access_level = ?", level).
		Where("id = ? AND resource_id = ?", id, resourceID).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, repository.NewRecordNotFound().WithMetadata(map[string]any{
			"id":          id.String(),
			"resource_id": resourceID,
		})
	}

	return a.FindByID(ctx, id, resourceID)
}

func (a *contributors) Delete(ctx context.Context, id uuid.UUID, resourceID string) error {
	res, err := a.db.NewDelete().
		Model((*Contributor)(nil)).
		Where("id = ? AND resource_id = ?", id, resourceID).
		Exec(ctx)
	if err != nil {
		return err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.NewRecordNotFound().WithMetadata(map[string]any{
			"id": id.String(),
		})
	}

	return nil
}

func (a *contributors) DeleteByUserResource(ctx context.Context, userID, resourceID string) error {
	res, err := a.db.NewDelete().
		Model((*Contributor)(nil)).
		Where("user_id = ? AND resource_id = ?", userID, resourceID).
		Exec(ctx)
	if err != nil {
		return err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.NewRecordNotFound().WithMetadata(map[string]any{
			"user_id":     userID,
			"resource_id": resourceID,
		})
	}

	return nil
}

func (a *contributors) mapNotFound(err error, meta map[string]any) error {
	if err == sql.ErrNoRows {
		return repository.NewRecordNotFound().WithMetadata(meta)
	}
	return err
}
