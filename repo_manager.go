package access

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	Resources() Resources
	Contributors() Contributors
	ContributorRecords() repository.Repository[*Contributor]
}

type mngr struct {
	db                 *bun.DB
	users              Users
	resources          Resources
	contributors       Contributors
	contributorRecords repository.Repository[*Contributor]
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:                 db,
		users:              NewUsersRepository(db),
		resources:          NewResourcesRepository(db),
		contributors:       NewContributorsRepository(db),
		contributorRecords: NewContributorRecordsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.resources == nil {
		return errors.New("repository resources should be initialized")
	}

	if m.contributors == nil {
		return errors.New("repository contributors should be initialized")
	}

	if m.contributorRecords == nil {
		return errors.New("repository contributorRecords should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Resources() Resources {
	return m.resources
}

func (m mngr) Contributors() Contributors {
	return m.contributors
}

func (m mngr) ContributorRecords() repository.Repository[*Contributor] {
	return m.contributorRecords
}
