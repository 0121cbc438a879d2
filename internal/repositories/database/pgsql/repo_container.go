package pgsql

import (
	portsrepo "github.com/SscSPs/community_billing/internal/core/ports/repositories"
)

// newRepositoryProvider binds every repository to one transaction.
func newRepositoryProvider(q querier) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:  newPgxAccountRepository(q),
		LedgerRepo:   newPgxLedgerRepository(q),
		ReferralRepo: newPgxReferralRepository(q),
		BonusRepo:    newPgxBonusRepository(q),
		PayoutRepo:   newPgxPayoutRepository(q),
	}
}
