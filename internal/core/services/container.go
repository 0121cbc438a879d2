package services

import (
	portsrepo "github.com/SscSPs/community_billing/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/community_billing/internal/core/ports/services"
)

// NewServiceContainer wires every service against one transaction manager.
func NewServiceContainer(txm portsrepo.TransactionManager, options ...ServiceOption) *portssvc.ServiceContainer {
	return &portssvc.ServiceContainer{
		Ledger:   NewLedgerService(txm, options...),
		Referral: NewReferralService(txm, options...),
		Earnings: NewEarningsService(txm, options...),
		Payout:   NewPayoutService(txm, options...),
	}
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.LedgerSvcFacade   = (*ledgerService)(nil)
	_ portssvc.ReferralSvcFacade = (*referralService)(nil)
	_ portssvc.EarningsSvcFacade = (*earningsService)(nil)
	_ portssvc.PayoutSvcFacade   = (*payoutService)(nil)
)
