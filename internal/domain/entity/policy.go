package entity

// PolicyLimits holds the resolved numeric thresholds for one claim category
// under one tenant. A nil field means the corresponding rule does not apply;
// the engine never treats an absent threshold as zero.
type PolicyLimits struct {
	Category        string   `json:"category"`
	AmountCeiling   *float64 `json:"amount_ceiling,omitempty"`
	MinTenureMonths *int     `json:"min_tenure_months,omitempty"`
	MinDocuments    int      `json:"min_documents"`
}

// PolicyCategory is a tenant-scoped claim category definition, including the
// human-readable policy text handed to the reasoning fallback.
type PolicyCategory struct {
	ID           string `json:"id"`
	TenantID     string `json:"tenant_id"`
	CategoryCode string `json:"category_code"`
	CategoryName string `json:"category_name"`
	ClaimType    string `json:"claim_type"`
	PolicyText   string `json:"policy_text"`
	Limits       PolicyLimits
	IsActive     bool `json:"is_active"`
}
