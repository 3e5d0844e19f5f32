// Package quotes fetches carrier quotes for assembled packages and maps
// them into host-consumable rate lines.
package quotes

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/shipquote-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/shipquote-backend/pkg/errors"
	"github.com/angelmondragon/shipquote-backend/pkg/logger"
	"github.com/angelmondragon/shipquote-backend/pkg/metrics"
	redisclient "github.com/angelmondragon/shipquote-backend/pkg/redis"
	"github.com/angelmondragon/shipquote-backend/pkg/remote"
	"github.com/angelmondragon/shipquote-backend/pkg/types"
)

const (
	quotePath    = "/shipping/quotes"
	settingsPath = "/shipping/settings"

	rateMethodID       = "shipquote"
	rateTaxCalculation = "per_order"
)

// Caller is the slice of the remote client the quote service uses.
type Caller interface {
	Get(ctx context.Context, rawURL string, query map[string]string) (*remote.Response, error)
	Post(ctx context.Context, rawURL string, body any) (*remote.Response, error)
}

// Cache is the quote/settings cache surface.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Keyer builds the cache keys.
type Keyer interface {
	QuoteKey(contentHash string) string
	SettingsKey() string
}

// Service runs the quoting flow: content-hash cache lookup, remote
// call, settings side-cache, and rate-line mapping.
type Service struct {
	remote  Caller
	cache   Cache
	keyer   Keyer
	remoteC config.RemoteConfig
	storeC  config.StoreConfig
	metrics *metrics.PipelineMetrics
	logger  *logger.Logger
}

// NewService wires the quote service.
func NewService(caller Caller, cache Cache, keyer Keyer, remoteCfg config.RemoteConfig, storeCfg config.StoreConfig, m *metrics.PipelineMetrics, logg *logger.Logger) (*Service, error) {
	if caller == nil {
		return nil, fmt.Errorf("remote caller is required")
	}
	if cache == nil || keyer == nil {
		return nil, fmt.Errorf("cache and keyer are required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{
		remote:  caller,
		cache:   cache,
		keyer:   keyer,
		remoteC: remoteCfg,
		storeC:  storeCfg,
		metrics: m,
		logger:  logg,
	}, nil
}

// GetRates returns the quote response for a package, served from the
// content-hash cache when an identical package was quoted recently.
// Only successful responses are cached; failures always retry upstream.
func (s *Service) GetRates(ctx context.Context, pkg types.Package) (types.QuoteResponse, error) {
	hash, err := contentHash(pkg)
	if err != nil {
		return types.QuoteResponse{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash package contents")
	}
	key := s.keyer.QuoteKey(hash)

	cached, err := s.cache.Get(ctx, key)
	if err != nil && !errors.Is(err, redisclient.Nil) {
		return types.QuoteResponse{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read quote cache")
	}
	if cached != "" {
		var resp types.QuoteResponse
		if err := json.Unmarshal([]byte(cached), &resp); err == nil {
			s.metrics.IncQuoteCacheHit()
			s.logger.Debug(s.logger.WithField(ctx, "content_hash", hash), "quote served from cache")
			return resp, nil
		}
		// Corrupt cache entries fall through to a fresh quote.
		s.logger.Warn(ctx, "discarding unreadable quote cache entry")
	}
	s.metrics.IncQuoteCacheMiss()

	response, err := s.remote.Post(ctx, s.quoteURL(), pkg)
	if err != nil {
		return types.QuoteResponse{}, err
	}
	var resp types.QuoteResponse
	if err := response.Decode(&resp); err != nil {
		return types.QuoteResponse{}, pkgerrors.Wrap(pkgerrors.CodeRemoteCall, err, "decode quote response")
	}

	if resp.Settings != nil {
		s.storeSettings(ctx, *resp.Settings)
	}

	if resp.Success {
		payload, err := json.Marshal(resp)
		if err == nil {
			if err := s.cache.Set(ctx, key, payload, s.quoteTTL()); err != nil {
				s.logger.Error(ctx, "failed to cache quote response", err)
			}
		}
	} else {
		s.logger.Warn(s.logger.WithField(ctx, "remote_errors", resp.Errors), "quoting declined by remote service")
	}

	return resp, nil
}

// MapRates converts a quote response into checkout rate lines.
func (s *Service) MapRates(resp types.QuoteResponse) []types.RateLine {
	quoteList := resp.QuoteList()
	lines := make([]types.RateLine, 0, len(quoteList))
	for i, quote := range quoteList {
		label := strings.TrimSpace(quote.Label)
		if label == "" {
			label = s.storeC.MethodTitle
		}
		lines = append(lines, types.RateLine{
			ID:             fmt.Sprintf("%s:%d:%d", rateMethodID, s.storeC.MethodInstanceID, i),
			Label:          label,
			Cost:           quote.Cost,
			TaxCalculation: rateTaxCalculation,
			Metadata:       types.RateMetadata{PriceID: quote.Original.PriceID},
		})
	}
	s.metrics.AddRateLines(len(lines))
	return lines
}

// Settings returns the merchant settings, preferring the short-lived
// side cache filled by quote responses and falling back to a direct
// fetch.
func (s *Service) Settings(ctx context.Context) (types.MerchantSettings, error) {
	cached, err := s.cache.Get(ctx, s.keyer.SettingsKey())
	if err != nil && !errors.Is(err, redisclient.Nil) {
		return types.MerchantSettings{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read settings cache")
	}
	if cached != "" {
		var settings types.MerchantSettings
		if err := json.Unmarshal([]byte(cached), &settings); err == nil {
			return settings, nil
		}
		s.logger.Warn(ctx, "discarding unreadable settings cache entry")
	}

	response, err := s.remote.Get(ctx, s.settingsURL(), nil)
	if err != nil {
		return types.MerchantSettings{}, err
	}
	var settings types.MerchantSettings
	if err := response.Decode(&settings); err != nil {
		return types.MerchantSettings{}, pkgerrors.Wrap(pkgerrors.CodeRemoteCall, err, "decode settings response")
	}
	s.storeSettings(ctx, settings)
	return settings, nil
}

func (s *Service) storeSettings(ctx context.Context, settings types.MerchantSettings) {
	payload, err := json.Marshal(settings)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.keyer.SettingsKey(), payload, s.settingsTTL()); err != nil {
		s.logger.Error(ctx, "failed to cache merchant settings", err)
	}
}

func (s *Service) quoteURL() string {
	return strings.TrimRight(s.remoteC.BFFURL, "/") + quotePath
}

func (s *Service) settingsURL() string {
	return strings.TrimRight(s.remoteC.BFFURL, "/") + settingsPath
}

func (s *Service) quoteTTL() time.Duration {
	if s.remoteC.QuoteCacheTTL > 0 {
		return s.remoteC.QuoteCacheTTL
	}
	return 5 * time.Minute
}

func (s *Service) settingsTTL() time.Duration {
	if s.remoteC.SettingsCacheTTL > 0 {
		return s.remoteC.SettingsCacheTTL
	}
	return 30 * time.Second
}

// contentHash fingerprints the quotable parts of a package. The ID is
// excluded: it is minted fresh per assembly and would defeat caching.
func contentHash(pkg types.Package) (string, error) {
	fingerprint := struct {
		Contents        []types.LineItem      `json:"contents"`
		Destination     types.Destination     `json:"destination"`
		MaxItemWeight   float64               `json:"max_item_weight"`
		ShippingOptions types.ShippingOptions `json:"shipping_options"`
	}{
		Contents:        pkg.Contents,
		Destination:     pkg.Destination,
		MaxItemWeight:   pkg.MaxItemWeight,
		ShippingOptions: pkg.ShippingOptions,
	}
	payload, err := json.Marshal(fingerprint)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
