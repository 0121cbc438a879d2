package services

// ServiceContainer holds instances of all the application services.
// Handlers, jobs and commands reach the core through it.
type ServiceContainer struct {
	Ledger   LedgerSvcFacade
	Referral ReferralSvcFacade
	Earnings EarningsSvcFacade
	Payout   PayoutSvcFacade
}
