package models

// DeleteResponse is the body returned by the record delete endpoint.
// Deleted is true even when the record was already absent, so client
// retries stay safe.
type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// ErrorResponse is the JSON error body returned by the HTTP API.
type ErrorResponse struct {
	Error string `json:"error"`
}
