package dto

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse is the readiness payload.
type ReadyResponse struct {
	Status        string `json:"status"`
	Authenticated bool   `json:"authenticated"`
}
