package datasource

import (
	"context"
	"errors"
	"time"

	"github.com/yourusername/matchup-engine/internal/models"
)

// GameSource fetches competitors and finished games from an external provider
type GameSource interface {
	// FetchCompetitors retrieves every competitor the provider knows
	FetchCompetitors(ctx context.Context) ([]CompetitorData, error)

	// FetchGames retrieves the finished games played on date, ordered by start time then id
	FetchGames(ctx context.Context, date time.Time) ([]GameData, error)

	// Name returns the name of the data source
	Name() string
}

// CompetitorData represents a normalized competitor from any data source
type CompetitorData struct {
	ID     models.CompetitorID `json:"id"`
	Name   string              `json:"name"`
	Abbrev string              `json:"abbrev"`
}

// GameData represents a normalized finished game with both sides' identities
type GameData struct {
	Game models.Game    `json:"game"`
	Away CompetitorData `json:"away"`
	Home CompetitorData `json:"home"`
}

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

// Unwrap returns the underlying error
func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
	ErrCodeCircuitOpen          = "circuit_open"
)

// Sentinel errors
var (
	ErrCircuitOpen = errors.New("circuit breaker open")
	ErrNotFound    = errors.New("data not found")
)

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
