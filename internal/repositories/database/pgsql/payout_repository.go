package pgsql

import (
	"context"
	"time"

	"github.com/SscSPs/community_billing/internal/apperrors"
	"github.com/SscSPs/community_billing/internal/core/domain"
	portsrepo "github.com/SscSPs/community_billing/internal/core/ports/repositories"
	"github.com/SscSPs/community_billing/internal/models"
)

const payoutColumns = `payout_id, account_id, amount_micro, fee_micro, net_micro, currency, payout_address, status, failure_reason, created_at, approved_at, completed_at, failed_at`

type PgxPayoutRepository struct {
	db querier
}

func newPgxPayoutRepository(db querier) portsrepo.PayoutRepositoryFacade {
	return &PgxPayoutRepository{db: db}
}

var _ portsrepo.PayoutRepositoryFacade = (*PgxPayoutRepository)(nil)

func toModelPayout(d domain.PayoutRequest) models.PayoutRequest {
	return models.PayoutRequest{
		PayoutID:      d.PayoutID,
		AccountID:     d.AccountID,
		AmountMicro:   d.AmountMicro,
		FeeMicro:      d.FeeMicro,
		NetMicro:      d.NetMicro,
		Currency:      d.Currency,
		PayoutAddress: d.PayoutAddress,
		Status:        string(d.Status),
		FailureReason: d.FailureReason,
		CreatedAt:     d.CreatedAt,
		ApprovedAt:    nullTime(d.ApprovedAt),
		CompletedAt:   nullTime(d.CompletedAt),
		FailedAt:      nullTime(d.FailedAt),
	}
}

func toDomainPayout(m models.PayoutRequest) domain.PayoutRequest {
	return domain.PayoutRequest{
		PayoutID:      m.PayoutID,
		AccountID:     m.AccountID,
		AmountMicro:   m.AmountMicro,
		FeeMicro:      m.FeeMicro,
		NetMicro:      m.NetMicro,
		Currency:      m.Currency,
		PayoutAddress: m.PayoutAddress,
		Status:        domain.PayoutStatus(m.Status),
		FailureReason: m.FailureReason,
		CreatedAt:     m.CreatedAt,
		ApprovedAt:    timePtr(m.ApprovedAt),
		CompletedAt:   timePtr(m.CompletedAt),
		FailedAt:      timePtr(m.FailedAt),
	}
}

func statusStrings(statuses []domain.PayoutStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func (r *PgxPayoutRepository) findPayout(ctx context.Context, query string, args ...any) (*domain.PayoutRequest, error) {
	m, err := collectOne[models.PayoutRequest](ctx, r.db, "find payout", query, args...)
	if err != nil {
		return nil, err
	}
	payout := toDomainPayout(m)
	return &payout, nil
}

func (r *PgxPayoutRepository) FindPayoutByID(ctx context.Context, payoutID string) (*domain.PayoutRequest, error) {
	return r.findPayout(ctx, `SELECT `+payoutColumns+` FROM payout_requests WHERE payout_id = $1`, payoutID)
}

func (r *PgxPayoutRepository) SumPayouts(ctx context.Context, accountID string, statuses []domain.PayoutStatus) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_micro), 0)::bigint
		FROM payout_requests
		WHERE account_id = $1 AND status = ANY($2)`, accountID, statusStrings(statuses)).Scan(&total)
	if err != nil {
		return 0, mapError(err, "sum payouts of "+accountID)
	}
	return total, nil
}

func (r *PgxPayoutRepository) CountPayoutsSince(ctx context.Context, accountID string, statuses []domain.PayoutStatus, since time.Time) (int, error) {
	var n int64
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM payout_requests
		WHERE account_id = $1 AND status = ANY($2) AND created_at > $3`, accountID, statusStrings(statuses), since).Scan(&n)
	if err != nil {
		return 0, mapError(err, "count payouts of "+accountID)
	}
	return int(n), nil
}

func (r *PgxPayoutRepository) InsertPayout(ctx context.Context, payout domain.PayoutRequest) error {
	m := toModelPayout(payout)
	query := `
		INSERT INTO payout_requests (` + payoutColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := r.db.Exec(ctx, query,
		m.PayoutID,
		m.AccountID,
		m.AmountMicro,
		m.FeeMicro,
		m.NetMicro,
		m.Currency,
		m.PayoutAddress,
		m.Status,
		m.FailureReason,
		m.CreatedAt,
		m.ApprovedAt,
		m.CompletedAt,
		m.FailedAt,
	)
	return mapError(err, "insert payout "+m.PayoutID)
}

func (r *PgxPayoutRepository) FindPayoutForUpdate(ctx context.Context, payoutID string) (*domain.PayoutRequest, error) {
	return r.findPayout(ctx, `SELECT `+payoutColumns+` FROM payout_requests WHERE payout_id = $1 FOR UPDATE`, payoutID)
}

func (r *PgxPayoutRepository) UpdatePayout(ctx context.Context, payout domain.PayoutRequest) error {
	m := toModelPayout(payout)
	query := `
		UPDATE payout_requests
		SET status = $2, failure_reason = $3, approved_at = $4, completed_at = $5, failed_at = $6
		WHERE payout_id = $1;
	`
	tag, err := r.db.Exec(ctx, query,
		m.PayoutID,
		m.Status,
		m.FailureReason,
		m.ApprovedAt,
		m.CompletedAt,
		m.FailedAt,
	)
	if err != nil {
		return mapError(err, "update payout "+m.PayoutID)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
