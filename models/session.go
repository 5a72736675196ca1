package models

// Credentials holds the resolved market-data API credentials for one run.
// Immutable once resolved.
type Credentials struct {
	APIKey    string
	SecretKey string
	Source    string
	BaseURL   string
}

// MaskedAPIKey returns a truncated api key safe for logging.
func (c Credentials) MaskedAPIKey() string {
	if len(c.APIKey) <= 4 {
		return "****"
	}
	return c.APIKey[:4] + "..."
}

// Session is the result of a successful login. The token becomes the
// bearer credential for every subsequent request; expiry is not tracked,
// a stale token surfaces as a request-time authorization failure.
type Session struct {
	Token         string
	UserID        string
	Authenticated bool
}
