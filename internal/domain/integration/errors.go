package integration

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	// Credential errors
	ErrCredentialsNotFound = errors.New("integration: credentials not found")
	ErrInvalidCredentials  = errors.New("integration: invalid credentials")
	ErrInvalidMerchantID   = errors.New("integration: invalid merchant ID")
	ErrUnsupportedPlatform = errors.New("integration: unsupported platform")
	ErrPlatformMismatch    = errors.New("integration: credentials belong to a different platform")
	ErrConnectionInactive  = errors.New("integration: connection is disconnected")

	// Value errors
	ErrInvalidAmount = errors.New("integration: invalid amount")

	// Webhook errors
	ErrInvalidSignature = errors.New("integration: invalid webhook signature")
	ErrInvalidPayload   = errors.New("integration: invalid webhook payload")

	// Platform errors
	ErrPlatformUnavailable     = errors.New("integration: platform temporarily unavailable")
	ErrPlatformRequestFailed   = errors.New("integration: platform request failed")
	ErrPlatformRateLimited     = errors.New("integration: platform rate limited")
	ErrPlatformAuthFailed      = errors.New("integration: platform authentication failed")
	ErrPlatformInvalidResponse = errors.New("integration: invalid platform response")
	ErrUndecodableItem         = errors.New("integration: remote item could not be decoded")

	// Sync errors
	ErrConcurrentSync     = errors.New("integration: sync already in progress")
	ErrItemSyncFailed     = errors.New("integration: item sync failed")
	ErrInvalidProduct     = errors.New("integration: product has no platform ID")
	ErrInvalidOrder       = errors.New("integration: order has no platform ID")
	ErrProductNotFound    = errors.New("integration: catalog product not found")
	ErrOrderNotFound      = errors.New("integration: order not found")
	ErrSyncStatusNotFound = errors.New("integration: sync status not found")
	ErrSyncNotInProgress  = errors.New("integration: no sync in progress")
	ErrSyncSuperseded     = errors.New("integration: sync claim was taken over by a newer run")
	ErrSweepUnconfirmed   = errors.New("integration: remote reported zero products, sweep needs explicit confirmation")
	ErrSweepIncomplete    = errors.New("integration: remote listing incomplete, sweep aborted")
)

// ---------------------------------------------------------------------------
// CredentialsNotFoundError
// ---------------------------------------------------------------------------

// CredentialsNotFoundError is returned when no connection exists for the lookup key
type CredentialsNotFoundError struct {
	MerchantID   string
	Platform     PlatformType
	ConnectionID uuid.UUID
	Identity     string
}

func (e *CredentialsNotFoundError) Error() string {
	switch {
	case e.ConnectionID != uuid.Nil:
		return fmt.Sprintf("integration: no credentials for connection %s", e.ConnectionID)
	case e.Identity != "":
		return fmt.Sprintf("integration: no %s credentials for shop %s", e.Platform, e.Identity)
	default:
		return fmt.Sprintf("integration: no %s credentials for merchant %s", e.Platform, e.MerchantID)
	}
}

// Is reports whether target is ErrCredentialsNotFound
func (e *CredentialsNotFoundError) Is(target error) bool {
	return target == ErrCredentialsNotFound
}

// ---------------------------------------------------------------------------
// InvalidCredentialsError
// ---------------------------------------------------------------------------

// InvalidCredentialsError names the offending fields, never their values
type InvalidCredentialsError struct {
	Platform PlatformType
	Fields   []string
	Reason   string
}

func (e *InvalidCredentialsError) Error() string {
	msg := fmt.Sprintf("integration: invalid %s credentials", e.Platform)
	if len(e.Fields) > 0 {
		msg += ": invalid fields " + strings.Join(e.Fields, ", ")
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Is reports whether target is ErrInvalidCredentials
func (e *InvalidCredentialsError) Is(target error) bool {
	return target == ErrInvalidCredentials
}

// ---------------------------------------------------------------------------
// InvalidSignatureError
// ---------------------------------------------------------------------------

// InvalidSignatureError is returned when a webhook cannot be authenticated
type InvalidSignatureError struct {
	Platform PlatformType
	Topic    string
	Reason   string
}

func (e *InvalidSignatureError) Error() string {
	msg := fmt.Sprintf("integration: invalid %s webhook signature for topic %q", e.Platform, e.Topic)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Is reports whether target is ErrInvalidSignature
func (e *InvalidSignatureError) Is(target error) bool {
	return target == ErrInvalidSignature
}

// ---------------------------------------------------------------------------
// PlatformRequestError
// ---------------------------------------------------------------------------

// PlatformRequestError describes a failed call to a platform API.
// StatusCode is 0 when no response was received (network error or timeout).
type PlatformRequestError struct {
	Platform        PlatformType
	Method          string
	Path            string
	StatusCode      int
	PlatformMessage string
	Err             error
}

func (e *PlatformRequestError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "integration: %s %s %s", e.Platform, e.Method, e.Path)
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " returned %d", e.StatusCode)
	} else {
		b.WriteString(" failed")
	}
	if e.PlatformMessage != "" {
		fmt.Fprintf(&b, ": %s", e.PlatformMessage)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying transport error, if any
func (e *PlatformRequestError) Unwrap() error {
	return e.Err
}

// Is classifies the error against the platform sentinels
func (e *PlatformRequestError) Is(target error) bool {
	switch target {
	case ErrPlatformRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case ErrPlatformUnavailable:
		return e.StatusCode == 0 || e.StatusCode >= http.StatusInternalServerError
	case ErrPlatformAuthFailed:
		return e.IsAuthFailure()
	case ErrPlatformRequestFailed:
		return e.StatusCode >= http.StatusBadRequest &&
			e.StatusCode < http.StatusInternalServerError &&
			e.StatusCode != http.StatusTooManyRequests
	default:
		return false
	}
}

// Retryable reports whether the caller may try again later
func (e *PlatformRequestError) Retryable() bool {
	return e.StatusCode == 0 ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError
}

// IsAuthFailure reports whether the platform rejected the credentials
func (e *PlatformRequestError) IsAuthFailure() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// ---------------------------------------------------------------------------
// ItemDecodeError
// ---------------------------------------------------------------------------

// ItemDecodeError is a listed remote item that could not be mapped to a
// domain value. PlatformID is empty when the item carried no readable ID.
type ItemDecodeError struct {
	Platform   PlatformType
	Item       string
	PlatformID string
	Err        error
}

func (e *ItemDecodeError) Error() string {
	return fmt.Sprintf("integration: undecodable %s %s: %v", e.Platform, e.Item, e.Err)
}

// Unwrap returns the decoding failure
func (e *ItemDecodeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrUndecodableItem
func (e *ItemDecodeError) Is(target error) bool {
	return target == ErrUndecodableItem
}

// ---------------------------------------------------------------------------
// ConcurrentSyncError
// ---------------------------------------------------------------------------

// ConcurrentSyncError is returned when a run is already in flight for the connection
type ConcurrentSyncError struct {
	ConnectionID uuid.UUID
	StartedAt    *time.Time
}

func (e *ConcurrentSyncError) Error() string {
	if e.StartedAt != nil {
		return fmt.Sprintf("integration: sync for connection %s already in progress since %s",
			e.ConnectionID, e.StartedAt.UTC().Format(time.RFC3339))
	}
	return fmt.Sprintf("integration: sync for connection %s already in progress", e.ConnectionID)
}

// Is reports whether target is ErrConcurrentSync
func (e *ConcurrentSyncError) Is(target error) bool {
	return target == ErrConcurrentSync
}

// ---------------------------------------------------------------------------
// PerItemSyncError
// ---------------------------------------------------------------------------

// PerItemSyncError records a failure for one product inside a batch.
// It is collected into SyncResult.Errors and never aborts the batch.
type PerItemSyncError struct {
	PlatformProductID string
	SKU               string
	Op                string
	Err               error
	// Item names what failed in messages; empty means "product"
	Item string
}

func (e *PerItemSyncError) Error() string {
	id := e.PlatformProductID
	if id == "" {
		id = "<missing id>"
	}
	item := e.Item
	if item == "" {
		item = "product"
	}
	msg := item + " " + id
	if e.SKU != "" {
		msg += " (sku " + e.SKU + ")"
	}
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the cause
func (e *PerItemSyncError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrItemSyncFailed
func (e *PerItemSyncError) Is(target error) bool {
	return target == ErrItemSyncFailed
}
