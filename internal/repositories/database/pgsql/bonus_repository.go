package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"time"

	"github.com/SscSPs/community_billing/internal/apperrors"
	"github.com/SscSPs/community_billing/internal/core/domain"
	portsrepo "github.com/SscSPs/community_billing/internal/core/ports/repositories"
	"github.com/SscSPs/community_billing/internal/models"
	"github.com/jackc/pgx/v5"
)

const bonusColumns = `bonus_id, registration_id, referrer_account_id, referee_account_id, action_type, action_id, amount_micro, referrer_bps, source_charge_micro, status, settle_after, settled_at, clawed_back_at, clawback_reason, risk_score, flag_reason, reviewed_by, created_at`

type PgxBonusRepository struct {
	db querier
}

func newPgxBonusRepository(db querier) portsrepo.BonusRepositoryFacade {
	return &PgxBonusRepository{db: db}
}

var _ portsrepo.BonusRepositoryFacade = (*PgxBonusRepository)(nil)

func toModelBonus(d domain.ReferralBonus) models.ReferralBonus {
	m := models.ReferralBonus{
		BonusID:           d.BonusID,
		RegistrationID:    d.RegistrationID,
		ReferrerAccountID: d.ReferrerAccountID,
		RefereeAccountID:  d.RefereeAccountID,
		ActionType:        string(d.ActionType),
		ActionID:          d.ActionID,
		AmountMicro:       d.AmountMicro,
		ReferrerBps:       d.ReferrerBps,
		SourceChargeMicro: d.SourceChargeMicro,
		Status:            string(d.Status),
		SettleAfter:       d.SettleAfter,
		SettledAt:         nullTime(d.SettledAt),
		ClawedBackAt:      nullTime(d.ClawedBackAt),
		ClawbackReason:    d.ClawbackReason,
		FlagReason:        d.FlagReason,
		ReviewedBy:        d.ReviewedBy,
		CreatedAt:         d.CreatedAt,
	}
	if d.RiskScore != nil {
		m.RiskScore = sql.NullFloat64{Float64: *d.RiskScore, Valid: true}
	}
	return m
}

func toDomainBonus(m models.ReferralBonus) domain.ReferralBonus {
	d := domain.ReferralBonus{
		BonusID:           m.BonusID,
		RegistrationID:    m.RegistrationID,
		ReferrerAccountID: m.ReferrerAccountID,
		RefereeAccountID:  m.RefereeAccountID,
		ActionType:        domain.ActionType(m.ActionType),
		ActionID:          m.ActionID,
		AmountMicro:       m.AmountMicro,
		ReferrerBps:       m.ReferrerBps,
		SourceChargeMicro: m.SourceChargeMicro,
		Status:            domain.BonusStatus(m.Status),
		SettleAfter:       m.SettleAfter,
		SettledAt:         timePtr(m.SettledAt),
		ClawedBackAt:      timePtr(m.ClawedBackAt),
		ClawbackReason:    m.ClawbackReason,
		FlagReason:        m.FlagReason,
		ReviewedBy:        m.ReviewedBy,
		CreatedAt:         m.CreatedAt,
	}
	if m.RiskScore.Valid {
		risk := m.RiskScore.Float64
		d.RiskScore = &risk
	}
	return d
}

func toDomainBonuses(rows []models.ReferralBonus) []domain.ReferralBonus {
	bonuses := make([]domain.ReferralBonus, 0, len(rows))
	for _, m := range rows {
		bonuses = append(bonuses, toDomainBonus(m))
	}
	return bonuses
}

func (r *PgxBonusRepository) findBonus(ctx context.Context, query string, args ...any) (*domain.ReferralBonus, error) {
	m, err := collectOne[models.ReferralBonus](ctx, r.db, "find bonus", query, args...)
	if err != nil {
		return nil, err
	}
	bonus := toDomainBonus(m)
	return &bonus, nil
}

func (r *PgxBonusRepository) FindBonusByID(ctx context.Context, bonusID string) (*domain.ReferralBonus, error) {
	return r.findBonus(ctx, `SELECT `+bonusColumns+` FROM referral_bonuses WHERE bonus_id = $1`, bonusID)
}

func (r *PgxBonusRepository) FindBonusByAction(ctx context.Context, refereeAccountID string, actionType domain.ActionType, actionID string) (*domain.ReferralBonus, error) {
	return r.findBonus(ctx, `
		SELECT `+bonusColumns+`
		FROM referral_bonuses
		WHERE referee_account_id = $1 AND action_type = $2 AND action_id = $3`,
		refereeAccountID, string(actionType), actionID)
}

func (r *PgxBonusRepository) CountBonusesByReferrer(ctx context.Context, referrerAccountID string) (int, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM referral_bonuses WHERE referrer_account_id = $1`, referrerAccountID).Scan(&n)
	if err != nil {
		return 0, mapError(err, "count bonuses of "+referrerAccountID)
	}
	return int(n), nil
}

func (r *PgxBonusRepository) HasBonusForRegistration(ctx context.Context, registrationID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM referral_bonuses WHERE registration_id = $1)`, registrationID).Scan(&exists)
	if err != nil {
		return false, mapError(err, "check bonuses of registration "+registrationID)
	}
	return exists, nil
}

func (r *PgxBonusRepository) BonusTotalsByStatus(ctx context.Context, referrerAccountID string) (map[domain.BonusStatus]domain.BonusTotals, error) {
	rows, err := collectAll[models.BonusTotal](ctx, r.db, "total bonuses", `
		SELECT status, COUNT(*) AS count, COALESCE(SUM(amount_micro), 0)::bigint AS amount_micro
		FROM referral_bonuses
		WHERE referrer_account_id = $1
		GROUP BY status`, referrerAccountID)
	if err != nil {
		return nil, err
	}
	totals := make(map[domain.BonusStatus]domain.BonusTotals, len(rows))
	for _, row := range rows {
		totals[domain.BonusStatus(row.Status)] = domain.BonusTotals{Count: int(row.Count), AmountMicro: row.AmountMicro}
	}
	return totals, nil
}

// InsertBonus reports false when the (referee, action type, action id) triple already earned a bonus.
func (r *PgxBonusRepository) InsertBonus(ctx context.Context, bonus domain.ReferralBonus) (bool, error) {
	m := toModelBonus(bonus)
	query := `
		INSERT INTO referral_bonuses (` + bonusColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (referee_account_id, action_type, action_id) DO NOTHING
		RETURNING bonus_id;
	`
	var id string
	err := r.db.QueryRow(ctx, query,
		m.BonusID,
		m.RegistrationID,
		m.ReferrerAccountID,
		m.RefereeAccountID,
		m.ActionType,
		m.ActionID,
		m.AmountMicro,
		m.ReferrerBps,
		m.SourceChargeMicro,
		m.Status,
		m.SettleAfter,
		m.SettledAt,
		m.ClawedBackAt,
		m.ClawbackReason,
		m.RiskScore,
		m.FlagReason,
		m.ReviewedBy,
		m.CreatedAt,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, mapError(err, "insert bonus "+m.BonusID)
	}
	return true, nil
}

func (r *PgxBonusRepository) FindBonusForUpdate(ctx context.Context, bonusID string) (*domain.ReferralBonus, error) {
	return r.findBonus(ctx, `SELECT `+bonusColumns+` FROM referral_bonuses WHERE bonus_id = $1 FOR UPDATE`, bonusID)
}

func (r *PgxBonusRepository) UpdateBonus(ctx context.Context, bonus domain.ReferralBonus) error {
	m := toModelBonus(bonus)
	query := `
		UPDATE referral_bonuses
		SET status = $2, settled_at = $3, clawed_back_at = $4, clawback_reason = $5, flag_reason = $6, reviewed_by = $7
		WHERE bonus_id = $1;
	`
	tag, err := r.db.Exec(ctx, query,
		m.BonusID,
		m.Status,
		m.SettledAt,
		m.ClawedBackAt,
		m.ClawbackReason,
		m.FlagReason,
		m.ReviewedBy,
	)
	if err != nil {
		return mapError(err, "update bonus "+m.BonusID)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SettleDueBonuses skips rows locked by a concurrent settle or clawback; they
// are reconsidered on the next run.
func (r *PgxBonusRepository) SettleDueBonuses(ctx context.Context, asOf time.Time) ([]domain.ReferralBonus, error) {
	rows, err := collectAll[models.ReferralBonus](ctx, r.db, "settle bonuses", `
		WITH due AS (
			SELECT bonus_id AS due_id
			FROM referral_bonuses
			WHERE status = 'pending' AND settle_after <= $1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE referral_bonuses b
		SET status = 'settled', settled_at = $1
		FROM due
		WHERE b.bonus_id = due.due_id
		RETURNING `+bonusColumns, asOf)
	if err != nil {
		return nil, err
	}
	bonuses := toDomainBonuses(rows)
	slices.SortFunc(bonuses, func(a, b domain.ReferralBonus) int { return a.SettleAfter.Compare(b.SettleAfter) })
	return bonuses, nil
}
