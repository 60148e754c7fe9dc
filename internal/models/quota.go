package models

// QuotaRecord tracks one user's usage for the current quota day.
type QuotaRecord struct {
	Count     int    `json:"count"`
	LastUsage string `json:"last_usage,omitempty"`
}

// QuotaTable is the whole quota file. User keys are always canonicalized to a
// single string form before they enter the map, so there is never more than
// one record per logical user.
type QuotaTable struct {
	LastReset string                 `json:"last_reset"`
	Users     map[string]QuotaRecord `json:"users"`
}

// QuotaStatistics summarizes the current quota table.
type QuotaStatistics struct {
	TotalUsers int    `json:"total_users"`
	TotalUsage int    `json:"total_usage"`
	LastReset  string `json:"last_reset"`
}

// QuotaStatus is the per-user view returned by GET /api/quota/:user.
type QuotaStatus struct {
	UserID    string `json:"user_id"`
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	ResetAt   string `json:"reset_at"`
}
