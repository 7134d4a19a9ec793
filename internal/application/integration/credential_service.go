package integration

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/domain/integration"
)

// CredentialService manages merchant connections and their platform credentials
type CredentialService struct {
	connections integration.ConnectionRepository
	tracker     *SyncStatusTracker
	clients     integration.PlatformClientResolver
	logger      *zap.Logger
}

// NewCredentialService creates a new CredentialService
func NewCredentialService(
	connections integration.ConnectionRepository,
	tracker *SyncStatusTracker,
	clients integration.PlatformClientResolver,
	logger *zap.Logger,
) *CredentialService {
	return &CredentialService{
		connections: connections,
		tracker:     tracker,
		clients:     clients,
		logger:      logger,
	}
}

// GetCredentials returns the stored credentials of a merchant's connection
func (s *CredentialService) GetCredentials(ctx context.Context, merchantID string, platform integration.PlatformType) (integration.PlatformCredentials, error) {
	conn, err := s.connections.FindByMerchant(ctx, merchantID, platform)
	if err != nil {
		return nil, err
	}
	return conn.Credentials, nil
}

// GetConnection returns a connection by ID
func (s *CredentialService) GetConnection(ctx context.Context, connectionID uuid.UUID) (*integration.Connection, error) {
	return s.connections.FindByID(ctx, connectionID)
}

// ResolveByIdentity finds the connection a webhook for the given shop belongs to
func (s *CredentialService) ResolveByIdentity(ctx context.Context, platform integration.PlatformType, identity string) (*integration.Connection, error) {
	return s.connections.FindByIdentity(ctx, platform, normalizeIdentity(platform, identity))
}

// SaveCredentials validates the credential shape, then creates or updates the
// merchant's connection. Nothing is persisted when validation fails.
func (s *CredentialService) SaveCredentials(
	ctx context.Context,
	merchantID string,
	platform integration.PlatformType,
	creds integration.PlatformCredentials,
) (*integration.Connection, error) {
	if strings.TrimSpace(merchantID) == "" {
		return nil, integration.ErrInvalidMerchantID
	}
	if !platform.IsValid() {
		return nil, integration.ErrUnsupportedPlatform
	}
	if creds == nil {
		return nil, &integration.InvalidCredentialsError{Platform: platform, Reason: "credentials are required"}
	}
	if creds.Platform() != platform {
		return nil, integration.ErrPlatformMismatch
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	// a store may be connected to one merchant only
	owner, err := s.connections.FindByIdentity(ctx, platform, creds.Identity())
	switch {
	case err == nil && owner.MerchantID != merchantID:
		return nil, &integration.InvalidCredentialsError{
			Platform: platform,
			Reason:   "store already connected to another merchant",
		}
	case err != nil && !errors.Is(err, integration.ErrCredentialsNotFound):
		return nil, err
	}

	conn, err := s.connections.FindByMerchant(ctx, merchantID, platform)
	switch {
	case err == nil:
		if err := conn.ReplaceCredentials(creds); err != nil {
			return nil, err
		}
		if err := s.connections.Save(ctx, conn); err != nil {
			return nil, err
		}
		s.logger.Info("Connection credentials updated",
			zap.String("merchant_id", merchantID),
			zap.String("connection_id", conn.ID.String()),
			zap.String("platform", platform.String()),
			zap.Stringer("credentials", creds),
		)
		return conn, nil
	case !errors.Is(err, integration.ErrCredentialsNotFound):
		return nil, err
	}

	conn, err = integration.NewConnection(merchantID, creds)
	if err != nil {
		return nil, err
	}
	if err := s.connections.Save(ctx, conn); err != nil {
		return nil, err
	}
	if err := s.tracker.Initialize(ctx, conn); err != nil {
		return nil, err
	}
	s.logger.Info("Connection created",
		zap.String("merchant_id", merchantID),
		zap.String("connection_id", conn.ID.String()),
		zap.String("platform", platform.String()),
		zap.String("identity", conn.Identity()),
	)
	return conn, nil
}

// Reauthorize checks the credentials against the platform before saving them.
// Accepted credentials flag the connection for a resync.
func (s *CredentialService) Reauthorize(
	ctx context.Context,
	merchantID string,
	platform integration.PlatformType,
	creds integration.PlatformCredentials,
) (*integration.Connection, error) {
	if creds == nil {
		return nil, &integration.InvalidCredentialsError{Platform: platform, Reason: "credentials are required"}
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	client, err := s.clients.Client(platform)
	if err != nil {
		return nil, err
	}
	ok, err := client.Authenticate(ctx, creds)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Warn("Platform rejected credentials",
			zap.String("merchant_id", merchantID),
			zap.String("platform", platform.String()),
		)
		return nil, &integration.InvalidCredentialsError{Platform: platform, Reason: "platform rejected credentials"}
	}

	conn, err := s.SaveCredentials(ctx, merchantID, platform, creds)
	if err != nil {
		return nil, err
	}
	if _, err := s.tracker.MarkPending(ctx, conn.ID); err != nil {
		return nil, err
	}
	return conn, nil
}

// Disconnect marks a connection unusable. Its credentials and history are kept.
func (s *CredentialService) Disconnect(ctx context.Context, connectionID uuid.UUID) (*integration.Connection, error) {
	conn, err := s.connections.FindByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if !conn.IsActive() {
		return conn, nil
	}
	conn.Disconnect()
	if err := s.connections.Save(ctx, conn); err != nil {
		return nil, err
	}
	s.logger.Info("Connection disconnected",
		zap.String("merchant_id", conn.MerchantID),
		zap.String("connection_id", conn.ID.String()),
		zap.String("platform", conn.Platform.String()),
	)
	return conn, nil
}

// normalizeIdentity applies the platform's identity rules to a webhook header value
func normalizeIdentity(platform integration.PlatformType, identity string) string {
	if platform == integration.PlatformShopify {
		return integration.NormalizeShopDomain(identity)
	}
	return integration.NormalizeStoreIdentity(identity)
}
