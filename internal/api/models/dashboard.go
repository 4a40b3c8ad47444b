package models

// FetchDashboardRequest is the body of POST /v1/dashboard/{sessionID}/fetch.
type FetchDashboardRequest struct {
	Zip string `json:"zip"`
}
