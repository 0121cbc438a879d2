package pgsql

import (
	"context"
	"time"

	"github.com/SscSPs/community_billing/internal/apperrors"
	"github.com/SscSPs/community_billing/internal/core/domain"
	portsrepo "github.com/SscSPs/community_billing/internal/core/ports/repositories"
	"github.com/SscSPs/community_billing/internal/models"
)

const accountColumns = `account_id, entity_type, entity_id, kyc_level, created_at, updated_at`

type PgxAccountRepository struct {
	db querier
}

func newPgxAccountRepository(db querier) portsrepo.AccountRepositoryFacade {
	return &PgxAccountRepository{db: db}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

func toModelAccount(d domain.Account) models.Account {
	return models.Account{
		AccountID:  d.AccountID,
		EntityType: string(d.EntityType),
		EntityID:   d.EntityID,
		KYCLevel:   string(d.KYCLevel),
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func toDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountID:  m.AccountID,
		EntityType: domain.EntityType(m.EntityType),
		EntityID:   m.EntityID,
		KYCLevel:   domain.KYCLevel(m.KYCLevel),
		AuditFields: domain.AuditFields{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
	}
}

func (r *PgxAccountRepository) findOne(ctx context.Context, query string, args ...any) (*domain.Account, error) {
	m, err := collectOne[models.Account](ctx, r.db, "find account", query, args...)
	if err != nil {
		return nil, err
	}
	account := toDomainAccount(m)
	return &account, nil
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_id = $1`, accountID)
}

func (r *PgxAccountRepository) FindAccountByEntity(ctx context.Context, entityType domain.EntityType, entityID string) (*domain.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE entity_type = $1 AND entity_id = $2`,
		string(entityType), entityID)
}

// CreateAccountIfAbsent relies on the entity unique key: a concurrent creator
// loses the insert and reads the winner's row.
func (r *PgxAccountRepository) CreateAccountIfAbsent(ctx context.Context, account domain.Account) (*domain.Account, error) {
	m := toModelAccount(account)
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (entity_type, entity_id) DO NOTHING;
	`
	if _, err := r.db.Exec(ctx, query,
		m.AccountID,
		m.EntityType,
		m.EntityID,
		m.KYCLevel,
		m.CreatedAt,
		m.UpdatedAt,
	); err != nil {
		return nil, mapError(err, "create account "+m.AccountID)
	}
	return r.FindAccountByEntity(ctx, account.EntityType, account.EntityID)
}

func (r *PgxAccountRepository) UpdateKYCLevel(ctx context.Context, accountID string, level domain.KYCLevel, now time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE accounts SET kyc_level = $2, updated_at = $3 WHERE account_id = $1`,
		accountID, string(level), now)
	if err != nil {
		return mapError(err, "update kyc level of "+accountID)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// LockAccount takes the account row lock that serializes payouts, referral
// binding and code creation for one account.
func (r *PgxAccountRepository) LockAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_id = $1 FOR UPDATE`, accountID)
}
