package repositories

// RepositoryProvider holds the repositories of a single unit of work.
type RepositoryProvider struct {
	AccountRepo  AccountRepositoryFacade
	LedgerRepo   LedgerRepositoryFacade
	ReferralRepo ReferralRepositoryFacade
	BonusRepo    BonusRepositoryFacade
	PayoutRepo   PayoutRepositoryFacade
}
