package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/shipquote-backend/pkg/enums"
	redisclient "github.com/angelmondragon/shipquote-backend/pkg/redis"
	"github.com/angelmondragon/shipquote-backend/pkg/types"
)

const (
	fieldReceiptedDelivery  = "receipted_delivery"
	fieldTransportAssurance = "transport_assurance"
	fieldShippingOptions    = "shipping_options"
	fieldQuotes             = "quotes"
)

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(sessionID, field string) string
}

// Store keeps customer-scoped quoting state: prior checkbox choices,
// the last derived shipping options, and the last quote response.
// Entries expire with the session TTL; writes are last-writer-wins.
type Store struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// NewStore constructs a session store backed by Redis.
func NewStore(client *redisclient.Client, ttl time.Duration) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Store{store: client, keyer: client, ttl: ttl}, nil
}

// OptionChoice returns the customer's stored yes/no answer for the
// named option, defaulting to no when nothing is stored.
func (s *Store) OptionChoice(ctx context.Context, sessionID string, name enums.ShippingOptionName) (enums.OptionChoice, error) {
	field, err := optionField(name)
	if err != nil {
		return enums.OptionChoiceNo, err
	}
	raw, err := s.store.Get(ctx, s.keyer.SessionKey(sessionID, field))
	if err != nil {
		if errors.Is(err, redisclient.Nil) {
			return enums.OptionChoiceNo, nil
		}
		return enums.OptionChoiceNo, err
	}
	choice, err := enums.ParseOptionChoice(raw)
	if err != nil {
		return enums.OptionChoiceNo, nil
	}
	return choice, nil
}

// SetOptionChoice stores the customer's answer for the named option.
func (s *Store) SetOptionChoice(ctx context.Context, sessionID string, name enums.ShippingOptionName, choice enums.OptionChoice) error {
	field, err := optionField(name)
	if err != nil {
		return err
	}
	if !choice.IsValid() {
		return fmt.Errorf("invalid option choice %q", choice)
	}
	return s.store.Set(ctx, s.keyer.SessionKey(sessionID, field), choice.String(), s.ttl)
}

// SetShippingOptions mirrors the derived options for cart/checkout
// display and later order-metadata embedding.
func (s *Store) SetShippingOptions(ctx context.Context, sessionID string, options types.ShippingOptions) error {
	payload, err := json.Marshal(options)
	if err != nil {
		return fmt.Errorf("marshal shipping options: %w", err)
	}
	return s.store.Set(ctx, s.keyer.SessionKey(sessionID, fieldShippingOptions), payload, s.ttl)
}

// ShippingOptions returns the last derived options for the session.
func (s *Store) ShippingOptions(ctx context.Context, sessionID string) (types.ShippingOptions, bool, error) {
	raw, err := s.store.Get(ctx, s.keyer.SessionKey(sessionID, fieldShippingOptions))
	if err != nil {
		if errors.Is(err, redisclient.Nil) {
			return types.ShippingOptions{}, false, nil
		}
		return types.ShippingOptions{}, false, err
	}
	var options types.ShippingOptions
	if err := json.Unmarshal([]byte(raw), &options); err != nil {
		return types.ShippingOptions{}, false, fmt.Errorf("unmarshal shipping options: %w", err)
	}
	return options, true, nil
}

// SetQuotes stores the last quote response for order-meta embedding.
func (s *Store) SetQuotes(ctx context.Context, sessionID string, resp types.QuoteResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal quotes: %w", err)
	}
	return s.store.Set(ctx, s.keyer.SessionKey(sessionID, fieldQuotes), payload, s.ttl)
}

// Quotes returns the last stored quote response for the session.
func (s *Store) Quotes(ctx context.Context, sessionID string) (types.QuoteResponse, bool, error) {
	raw, err := s.store.Get(ctx, s.keyer.SessionKey(sessionID, fieldQuotes))
	if err != nil {
		if errors.Is(err, redisclient.Nil) {
			return types.QuoteResponse{}, false, nil
		}
		return types.QuoteResponse{}, false, err
	}
	var resp types.QuoteResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return types.QuoteResponse{}, false, fmt.Errorf("unmarshal quotes: %w", err)
	}
	return resp, true, nil
}

// InvalidateRates drops the cached quote/options state so the next
// calculation runs the full pipeline again.
func (s *Store) InvalidateRates(ctx context.Context, sessionID string) error {
	return s.store.Del(ctx,
		s.keyer.SessionKey(sessionID, fieldQuotes),
		s.keyer.SessionKey(sessionID, fieldShippingOptions),
	)
}

func optionField(name enums.ShippingOptionName) (string, error) {
	switch name {
	case enums.ShippingOptionReceiptedDelivery:
		return fieldReceiptedDelivery, nil
	case enums.ShippingOptionTransportAssurance:
		return fieldTransportAssurance, nil
	default:
		return "", fmt.Errorf("invalid shipping option %q", name)
	}
}

// SessionIDValid applies the minimal sanity check used at the API edge.
func SessionIDValid(sessionID string) bool {
	trimmed := strings.TrimSpace(sessionID)
	return trimmed != "" && len(trimmed) <= 128
}
