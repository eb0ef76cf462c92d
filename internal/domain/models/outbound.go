package models

// OutboundMessageRequest represents requests to push a report manually via the API.
// An empty recipient falls back to the configured report recipient.
type OutboundMessageRequest struct {
	To         string `json:"to"`
	Message    string `json:"message"`
	PreviewURL bool   `json:"preview_url"`
}
