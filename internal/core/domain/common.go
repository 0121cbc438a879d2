package domain

import "time"

// AuditFields holds the creation and last-update timestamps shared by stored entities.
type AuditFields struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultPoolID is the sub-ledger used when a caller does not name one.
const DefaultPoolID = "general"

// PoolOrDefault returns poolID, or DefaultPoolID when it is empty.
func PoolOrDefault(poolID string) string {
	if poolID == "" {
		return DefaultPoolID
	}
	return poolID
}
