// Package provisioning handles the integration lifecycle against the
// remote backend: credential validation, install and update
// registration, and uninstall cleanup.
package provisioning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/angelmondragon/shipquote-backend/internal/storeopts"
	"github.com/angelmondragon/shipquote-backend/pkg/config"
	"github.com/angelmondragon/shipquote-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shipquote-backend/pkg/errors"
	"github.com/angelmondragon/shipquote-backend/pkg/logger"
	"github.com/angelmondragon/shipquote-backend/pkg/remote"
)

const (
	processingLockTTL = 10 * time.Minute

	installPath   = "/public/integrations/install"
	updatePath    = "/public/integrations/update"
	uninstallPath = "/public/integrations/uninstall"
)

// Authenticator mints bearer tokens; a successful mint proves the
// configured credentials.
type Authenticator interface {
	AccessToken(ctx context.Context) (string, error)
}

// Caller posts lifecycle notifications to the remote backend.
type Caller interface {
	Post(ctx context.Context, rawURL string, body any) (*remote.Response, error)
}

// Locker provides the mutual-exclusion primitive for lifecycle runs.
type Locker interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

// LockKeyer names the lock key.
type LockKeyer interface {
	ProcessingLockKey() string
}

// Installations persists installation snapshots.
type Installations interface {
	Upsert(ctx context.Context, installation *models.Installation) error
	DeleteByTenant(ctx context.Context, tenantID string) error
}

// Service runs the provisioning lifecycle.
type Service struct {
	auth     Authenticator
	remote   Caller
	options  storeopts.Store
	installs Installations
	locks    Locker
	lockKey  LockKeyer
	remoteC  config.RemoteConfig
	storeC   config.StoreConfig
	logger   *logger.Logger
}

// NewService wires the provisioning service.
func NewService(auth Authenticator, caller Caller, options storeopts.Store, installs Installations, locks Locker, lockKey LockKeyer, remoteCfg config.RemoteConfig, storeCfg config.StoreConfig, logg *logger.Logger) (*Service, error) {
	if auth == nil || caller == nil {
		return nil, fmt.Errorf("remote client is required")
	}
	if options == nil || installs == nil {
		return nil, fmt.Errorf("persistence is required")
	}
	if locks == nil || lockKey == nil {
		return nil, fmt.Errorf("lock store is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{
		auth:     auth,
		remote:   caller,
		options:  options,
		installs: installs,
		locks:    locks,
		lockKey:  lockKey,
		remoteC:  remoteCfg,
		storeC:   storeCfg,
		logger:   logg,
	}, nil
}

// InstallInput is the storefront context captured at install time.
type InstallInput struct {
	Version          string   `json:"version" validate:"required"`
	Production       bool     `json:"production"`
	ActiveExtensions []string `json:"active_extensions"`
}

// ValidateCredentials proves the configured API credentials by minting
// a token, and records the outcome in the option store.
func (s *Service) ValidateCredentials(ctx context.Context) error {
	if !s.remoteC.URLsConfigured() {
		return pkgerrors.New(pkgerrors.CodeConfiguration, "remote endpoints are not configured")
	}
	if _, err := s.auth.AccessToken(ctx); err != nil {
		if setErr := s.options.Set(ctx, storeopts.KeyCredentialsValid, "no"); setErr != nil {
			s.logger.Error(ctx, "failed to record credential validation result", setErr)
		}
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "credential validation failed")
	}
	if err := s.options.Set(ctx, storeopts.KeyCredentialsValid, "yes"); err != nil {
		return err
	}
	s.logger.Info(ctx, "remote credentials validated")
	return nil
}

// Install registers this instance with the remote backend. Concurrent
// lifecycle runs are rejected while the processing lock is held.
func (s *Service) Install(ctx context.Context, input InstallInput) error {
	release, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	defer release()

	tenantID, err := storeopts.EnsureTenantID(ctx, s.options, s.storeC.Host())
	if err != nil {
		return err
	}
	ctx = s.logger.WithTenantID(ctx, tenantID)

	if err := s.persistSecrets(ctx); err != nil {
		return err
	}

	installation := &models.Installation{
		TenantID:         tenantID,
		StoreName:        s.storeC.Name,
		Production:       input.Production,
		ActiveExtensions: pq.StringArray(input.ActiveExtensions),
		InstalledAt:      time.Now().UTC(),
	}
	if err := s.installs.Upsert(ctx, installation); err != nil {
		return err
	}

	if err := s.notify(ctx, installPath, map[string]any{
		"tenant_id":         tenantID,
		"store_name":        s.storeC.Name,
		"store_url":         s.storeC.URL,
		"version":           input.Version,
		"production":        input.Production,
		"active_extensions": input.ActiveExtensions,
	}); err != nil {
		return err
	}

	if err := s.options.Set(ctx, storeopts.KeyInstalledVersion, input.Version); err != nil {
		return err
	}
	s.logger.Info(ctx, "integration installed")
	return nil
}

// Update notifies the remote backend of a version change.
func (s *Service) Update(ctx context.Context, version string) error {
	if strings.TrimSpace(version) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "version is required")
	}
	release, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	defer release()

	tenantID, err := storeopts.EnsureTenantID(ctx, s.options, s.storeC.Host())
	if err != nil {
		return err
	}

	if err := s.notify(ctx, updatePath, map[string]any{
		"tenant_id": tenantID,
		"version":   version,
	}); err != nil {
		return err
	}
	return s.options.Set(ctx, storeopts.KeyInstalledVersion, version)
}

// Uninstall deregisters this instance and wipes stored credentials.
// The tenant UID survives so a reinstall keeps its remote history.
func (s *Service) Uninstall(ctx context.Context) error {
	release, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	defer release()

	tenantID, err := s.options.Get(ctx, storeopts.KeyTenantUID)
	if err != nil && err != storeopts.ErrNotFound {
		return err
	}
	if tenantID != "" {
		if err := s.notify(ctx, uninstallPath, map[string]any{"tenant_id": tenantID}); err != nil {
			// Remote dereg is best-effort; local cleanup still runs.
			s.logger.Error(ctx, "uninstall notification failed", err)
		}
		if err := s.installs.DeleteByTenant(ctx, tenantID); err != nil {
			return err
		}
	}

	for _, key := range []string{storeopts.KeySecretID, storeopts.KeySecretKey, storeopts.KeyCredentialsValid, storeopts.KeyInstalledVersion} {
		if err := s.options.Delete(ctx, key); err != nil {
			return err
		}
	}
	s.logger.Info(ctx, "integration uninstalled")
	return nil
}

func (s *Service) persistSecrets(ctx context.Context) error {
	if err := s.options.Set(ctx, storeopts.KeySecretID, s.remoteC.SecretID); err != nil {
		return err
	}
	return s.options.Set(ctx, storeopts.KeySecretKey, s.remoteC.SecretKey)
}

func (s *Service) notify(ctx context.Context, path string, body map[string]any) error {
	url := strings.TrimRight(s.remoteC.APIURL, "/") + path
	if _, err := s.remote.Post(ctx, url, body); err != nil {
		return err
	}
	return nil
}

func (s *Service) acquireLock(ctx context.Context) (func(), error) {
	key := s.lockKey.ProcessingLockKey()
	acquired, err := s.locks.SetNX(ctx, key, "1", processingLockTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire provisioning lock")
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "a provisioning run is already in progress")
	}
	return func() {
		if err := s.locks.Del(ctx, key); err != nil {
			s.logger.Error(ctx, "failed to release provisioning lock", err)
		}
	}, nil
}
