package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/SscSPs/community_billing/internal/apperrors"
	"github.com/SscSPs/community_billing/internal/core/domain"
	portsrepo "github.com/SscSPs/community_billing/internal/core/ports/repositories"
	"github.com/SscSPs/community_billing/internal/models"
	"github.com/jackc/pgx/v5"
)

const (
	codeColumns         = `code_id, account_id, code, status, max_uses, expires_at, use_count, revoked_at, revoked_by, created_at`
	registrationColumns = `registration_id, referee_account_id, referrer_account_id, code_id, created_at, rebound_at, attribution_expires_at`
	eventColumns        = `event_id, referee_account_id, referrer_account_id, code_id, registration_id, outcome, previous_referrer_account_id, created_at`
)

type PgxReferralRepository struct {
	db querier
}

func newPgxReferralRepository(db querier) portsrepo.ReferralRepositoryFacade {
	return &PgxReferralRepository{db: db}
}

var _ portsrepo.ReferralRepositoryFacade = (*PgxReferralRepository)(nil)

func toModelCode(d domain.ReferralCode) models.ReferralCode {
	m := models.ReferralCode{
		CodeID:    d.CodeID,
		AccountID: d.AccountID,
		Code:      d.Code,
		Status:    string(d.Status),
		ExpiresAt: nullTime(d.ExpiresAt),
		UseCount:  int32(d.UseCount),
		RevokedAt: nullTime(d.RevokedAt),
		RevokedBy: d.RevokedBy,
		CreatedAt: d.CreatedAt,
	}
	if d.MaxUses != nil {
		m.MaxUses = sql.NullInt32{Int32: int32(*d.MaxUses), Valid: true}
	}
	return m
}

func toDomainCode(m models.ReferralCode) domain.ReferralCode {
	d := domain.ReferralCode{
		CodeID:    m.CodeID,
		AccountID: m.AccountID,
		Code:      m.Code,
		Status:    domain.CodeStatus(m.Status),
		ExpiresAt: timePtr(m.ExpiresAt),
		UseCount:  int(m.UseCount),
		RevokedAt: timePtr(m.RevokedAt),
		RevokedBy: m.RevokedBy,
		CreatedAt: m.CreatedAt,
	}
	if m.MaxUses.Valid {
		maxUses := int(m.MaxUses.Int32)
		d.MaxUses = &maxUses
	}
	return d
}

func toDomainRegistration(m models.ReferralRegistration) domain.ReferralRegistration {
	return domain.ReferralRegistration{
		RegistrationID:       m.RegistrationID,
		RefereeAccountID:     m.RefereeAccountID,
		ReferrerAccountID:    m.ReferrerAccountID,
		CodeID:               m.CodeID,
		CreatedAt:            m.CreatedAt,
		ReboundAt:            timePtr(m.ReboundAt),
		AttributionExpiresAt: m.AttributionExpiresAt,
	}
}

func toDomainEvent(m models.AttributionEvent) domain.AttributionEvent {
	return domain.AttributionEvent{
		EventID:                   m.EventID,
		RefereeAccountID:          m.RefereeAccountID,
		ReferrerAccountID:         m.ReferrerAccountID,
		CodeID:                    m.CodeID,
		RegistrationID:            m.RegistrationID,
		Outcome:                   domain.AttributionOutcome(m.Outcome),
		PreviousReferrerAccountID: m.PreviousReferrerAccountID,
		CreatedAt:                 m.CreatedAt,
	}
}

// InsertCode reports false when the code value is taken or the account
// already has an active code; both are unique indexes.
func (r *PgxReferralRepository) InsertCode(ctx context.Context, code domain.ReferralCode) (bool, error) {
	m := toModelCode(code)
	query := `
		INSERT INTO referral_codes (` + codeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT DO NOTHING
		RETURNING code_id;
	`
	var id string
	err := r.db.QueryRow(ctx, query,
		m.CodeID,
		m.AccountID,
		m.Code,
		m.Status,
		m.MaxUses,
		m.ExpiresAt,
		m.UseCount,
		m.RevokedAt,
		m.RevokedBy,
		m.CreatedAt,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, mapError(err, "insert referral code "+m.CodeID)
	}
	return true, nil
}

func (r *PgxReferralRepository) findCode(ctx context.Context, query string, args ...any) (*domain.ReferralCode, error) {
	m, err := collectOne[models.ReferralCode](ctx, r.db, "find referral code", query, args...)
	if err != nil {
		return nil, err
	}
	code := toDomainCode(m)
	return &code, nil
}

func (r *PgxReferralRepository) FindCodeByID(ctx context.Context, codeID string) (*domain.ReferralCode, error) {
	return r.findCode(ctx, `SELECT `+codeColumns+` FROM referral_codes WHERE code_id = $1`, codeID)
}

func (r *PgxReferralRepository) FindActiveCodeByAccount(ctx context.Context, accountID string) (*domain.ReferralCode, error) {
	return r.findCode(ctx, `SELECT `+codeColumns+` FROM referral_codes WHERE account_id = $1 AND status = 'active'`, accountID)
}

func (r *PgxReferralRepository) FindCodeByValue(ctx context.Context, value string) (*domain.ReferralCode, error) {
	return r.findCode(ctx, `SELECT `+codeColumns+` FROM referral_codes WHERE code = $1`, value)
}

func (r *PgxReferralRepository) RevokeCode(ctx context.Context, codeID, revokedBy string, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE referral_codes
		SET status = 'revoked', revoked_at = $2, revoked_by = $3
		WHERE code_id = $1 AND status = 'active'`, codeID, now, revokedBy)
	if err != nil {
		return false, mapError(err, "revoke referral code "+codeID)
	}
	return tag.RowsAffected() == 1, nil
}

// IncrementCodeUse guards the limit in the UPDATE itself so concurrent binds
// cannot overshoot it.
func (r *PgxReferralRepository) IncrementCodeUse(ctx context.Context, codeID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE referral_codes
		SET use_count = use_count + 1
		WHERE code_id = $1 AND (max_uses IS NULL OR use_count < max_uses)`, codeID)
	if err != nil {
		return false, mapError(err, "count use of referral code "+codeID)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	if _, err := r.FindCodeByID(ctx, codeID); err != nil {
		return false, err
	}
	return false, nil
}

func (r *PgxReferralRepository) DecrementCodeUse(ctx context.Context, codeID string) error {
	tag, err := r.db.Exec(ctx, `UPDATE referral_codes SET use_count = GREATEST(use_count - 1, 0) WHERE code_id = $1`, codeID)
	if err != nil {
		return mapError(err, "release use of referral code "+codeID)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxReferralRepository) findRegistration(ctx context.Context, query string, args ...any) (*domain.ReferralRegistration, error) {
	m, err := collectOne[models.ReferralRegistration](ctx, r.db, "find registration", query, args...)
	if err != nil {
		return nil, err
	}
	reg := toDomainRegistration(m)
	return &reg, nil
}

func (r *PgxReferralRepository) FindRegistrationByReferee(ctx context.Context, refereeAccountID string) (*domain.ReferralRegistration, error) {
	return r.findRegistration(ctx, `SELECT `+registrationColumns+` FROM referral_registrations WHERE referee_account_id = $1`, refereeAccountID)
}

func (r *PgxReferralRepository) FindRegistrationForUpdate(ctx context.Context, refereeAccountID string) (*domain.ReferralRegistration, error) {
	return r.findRegistration(ctx, `SELECT `+registrationColumns+` FROM referral_registrations WHERE referee_account_id = $1 FOR UPDATE`, refereeAccountID)
}

func (r *PgxReferralRepository) FindRegistrationForShare(ctx context.Context, refereeAccountID string) (*domain.ReferralRegistration, error) {
	return r.findRegistration(ctx, `SELECT `+registrationColumns+` FROM referral_registrations WHERE referee_account_id = $1 FOR SHARE`, refereeAccountID)
}

// InsertRegistration leaves the self-referral and one-binding-per-referee
// rules to the table constraints, which mapError turns into
// apperrors.ErrValidation and apperrors.ErrDuplicate.
func (r *PgxReferralRepository) InsertRegistration(ctx context.Context, reg domain.ReferralRegistration) error {
	query := `
		INSERT INTO referral_registrations (` + registrationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := r.db.Exec(ctx, query,
		reg.RegistrationID,
		reg.RefereeAccountID,
		reg.ReferrerAccountID,
		reg.CodeID,
		reg.CreatedAt,
		nullTime(reg.ReboundAt),
		reg.AttributionExpiresAt,
	)
	return mapError(err, "bind referee "+reg.RefereeAccountID)
}

func (r *PgxReferralRepository) RebindRegistration(ctx context.Context, reg domain.ReferralRegistration) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE referral_registrations
		SET referrer_account_id = $2, code_id = $3, rebound_at = $4
		WHERE referee_account_id = $1`,
		reg.RefereeAccountID, reg.ReferrerAccountID, reg.CodeID, nullTime(reg.ReboundAt))
	if err != nil {
		return mapError(err, "rebind referee "+reg.RefereeAccountID)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxReferralRepository) AppendAttributionEvent(ctx context.Context, event domain.AttributionEvent) error {
	query := `
		INSERT INTO attribution_events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := r.db.Exec(ctx, query,
		event.EventID,
		event.RefereeAccountID,
		event.ReferrerAccountID,
		event.CodeID,
		event.RegistrationID,
		string(event.Outcome),
		event.PreviousReferrerAccountID,
		event.CreatedAt,
	)
	return mapError(err, "record attribution event "+event.EventID)
}

func (r *PgxReferralRepository) ListAttributionEvents(ctx context.Context, refereeAccountID string) ([]domain.AttributionEvent, error) {
	rows, err := collectAll[models.AttributionEvent](ctx, r.db, "list attribution events", `
		SELECT `+eventColumns+`
		FROM attribution_events
		WHERE referee_account_id = $1
		ORDER BY seq`, refereeAccountID)
	if err != nil {
		return nil, err
	}
	events := make([]domain.AttributionEvent, 0, len(rows))
	for _, m := range rows {
		events = append(events, toDomainEvent(m))
	}
	return events, nil
}
