package domain

// Tenant identifies one household inventory whose collections are
// backed up and restored independently of any other tenant's.
type Tenant struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Actor is the identity that produced a snapshot. It is carried for
// audit only; no authentication logic lives in this module.
type Actor struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}
