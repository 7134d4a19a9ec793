package integration

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Connection is a merchant's authorized link to one platform account.
// A merchant holds at most one connection per platform.
type Connection struct {
	ID          uuid.UUID
	MerchantID  string
	Platform    PlatformType
	Credentials PlatformCredentials
	Status      ConnectionStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewConnection validates the credentials and creates an active connection
func NewConnection(merchantID string, creds PlatformCredentials) (*Connection, error) {
	if strings.TrimSpace(merchantID) == "" {
		return nil, ErrInvalidMerchantID
	}
	if creds == nil {
		return nil, &InvalidCredentialsError{Reason: "credentials are required"}
	}
	if !creds.Platform().IsValid() {
		return nil, ErrUnsupportedPlatform
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Connection{
		ID:          uuid.New(),
		MerchantID:  merchantID,
		Platform:    creds.Platform(),
		Credentials: creds,
		Status:      ConnectionStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Identity returns the routing identity of the connected shop
func (c *Connection) Identity() string {
	if c.Credentials == nil {
		return ""
	}
	return c.Credentials.Identity()
}

// IsActive returns true if the connection can be used for platform calls
func (c *Connection) IsActive() bool {
	return c.Status == ConnectionStatusActive
}

// ReplaceCredentials swaps in new credentials for the same platform and reactivates the connection
func (c *Connection) ReplaceCredentials(creds PlatformCredentials) error {
	if creds == nil {
		return &InvalidCredentialsError{Platform: c.Platform, Reason: "credentials are required"}
	}
	if creds.Platform() != c.Platform {
		return ErrPlatformMismatch
	}
	if err := creds.Validate(); err != nil {
		return err
	}
	c.Credentials = creds
	c.Status = ConnectionStatusActive
	c.UpdatedAt = time.Now()
	return nil
}

// Disconnect marks the connection unusable, e.g. after the app is uninstalled
func (c *Connection) Disconnect() {
	c.Status = ConnectionStatusDisconnected
	c.UpdatedAt = time.Now()
}
