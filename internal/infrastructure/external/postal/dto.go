package postal

import (
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// WIRE FORMAT
// ══════════════════════════════════════════════════════════════════════════════

// lookupResponseDTO is the postal directory API response envelope. The API
// returns an array with one element per queried pincode.
type lookupResponseDTO struct {
	Message    string          `json:"Message"`
	Status     string          `json:"Status"`
	PostOffice []postOfficeDTO `json:"PostOffice"`
}

// postOfficeDTO is one post office serving the queried pincode. The first
// entry's name is used as the ward name.
type postOfficeDTO struct {
	Name     string `json:"Name"`
	Block    string `json:"Block"`
	District string `json:"District"`
	Division string `json:"Division"`
	State    string `json:"State"`
	Pincode  string `json:"Pincode"`
}

// Directory API status values.
const (
	statusSuccess = "Success"
	statusError   = "Error"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// APIError is a non-2xx response from the postal directory.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("postal api error: status %d: %s", e.StatusCode, e.Message)
}

// RateLimitError signals a 429 response with the server's Retry-After hint.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("postal api rate limited: retry after %s", e.RetryAfter)
}
