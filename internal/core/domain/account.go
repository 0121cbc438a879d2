package domain

// EntityType identifies what kind of platform entity a billing account belongs to.
type EntityType string

const (
	EntityPerson    EntityType = "person"
	EntityCommunity EntityType = "community"
)

// Valid reports whether t is a known entity type.
func (t EntityType) Valid() bool {
	return t == EntityPerson || t == EntityCommunity
}

// KYCLevel is the identity-verification tier supplied by the external KYC pipeline.
type KYCLevel string

const (
	KYCNone     KYCLevel = "none"
	KYCBasic    KYCLevel = "basic"
	KYCEnhanced KYCLevel = "enhanced"
	KYCVerified KYCLevel = "verified"
)

// Rank orders levels so that a higher rank satisfies every lower requirement.
// Unknown levels rank below none.
func (l KYCLevel) Rank() int {
	switch l {
	case KYCNone:
		return 0
	case KYCBasic:
		return 1
	case KYCEnhanced:
		return 2
	case KYCVerified:
		return 3
	}
	return -1
}

func (l KYCLevel) Valid() bool { return l.Rank() >= 0 }

// Satisfies reports whether l meets the required tier. Verified always passes.
func (l KYCLevel) Satisfies(required KYCLevel) bool {
	if l == KYCVerified {
		return true
	}
	return l.Rank() >= required.Rank()
}

// Account identifies a billable entity. Accounts are never deleted.
type Account struct {
	AccountID  string     `json:"accountID"`
	EntityType EntityType `json:"entityType"`
	EntityID   string     `json:"entityID"`
	KYCLevel   KYCLevel   `json:"kycLevel"`
	AuditFields
}
