package session

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/shipquote-backend/pkg/enums"
	redisclient "github.com/angelmondragon/shipquote-backend/pkg/redis"
	"github.com/angelmondragon/shipquote-backend/pkg/types"
)

type memoryBackend struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryBackend) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	switch v := value.(type) {
	case string:
		m.values[key] = v
	case []byte:
		m.values[key] = string(v)
	}
	m.ttls[key] = ttl
	return nil
}

func (m *memoryBackend) Get(_ context.Context, key string) (string, error) {
	value, ok := m.values[key]
	if !ok {
		return "", redisclient.Nil
	}
	return value, nil
}

func (m *memoryBackend) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

type plainKeyer struct{}

func (plainKeyer) SessionKey(sessionID, field string) string {
	return "session:" + sessionID + ":" + field
}

func newTestStore(backend *memoryBackend) *Store {
	return &Store{store: backend, keyer: plainKeyer{}, ttl: time.Hour}
}

func TestOptionChoiceDefaultsToNo(t *testing.T) {
	store := newTestStore(newMemoryBackend())

	choice, err := store.OptionChoice(context.Background(), "sess-1", enums.ShippingOptionReceiptedDelivery)
	if err != nil {
		t.Fatalf("OptionChoice: %v", err)
	}
	if choice != enums.OptionChoiceNo {
		t.Fatalf("choice = %q, want no", choice)
	}
}

func TestOptionChoiceRoundTrip(t *testing.T) {
	backend := newMemoryBackend()
	store := newTestStore(backend)
	ctx := context.Background()

	if err := store.SetOptionChoice(ctx, "sess-1", enums.ShippingOptionTransportAssurance, enums.OptionChoiceYes); err != nil {
		t.Fatalf("SetOptionChoice: %v", err)
	}
	choice, err := store.OptionChoice(ctx, "sess-1", enums.ShippingOptionTransportAssurance)
	if err != nil {
		t.Fatalf("OptionChoice: %v", err)
	}
	if choice != enums.OptionChoiceYes {
		t.Fatalf("choice = %q, want yes", choice)
	}
	if ttl := backend.ttls["session:sess-1:transport_assurance"]; ttl != time.Hour {
		t.Fatalf("ttl = %v, want session ttl", ttl)
	}
}

func TestShippingOptionsRoundTrip(t *testing.T) {
	store := newTestStore(newMemoryBackend())
	ctx := context.Background()

	want := types.ShippingOptions{
		TailLift:          enums.TailLiftDelivery,
		ReceiptedDelivery: true,
	}
	if err := store.SetShippingOptions(ctx, "sess-1", want); err != nil {
		t.Fatalf("SetShippingOptions: %v", err)
	}
	got, ok, err := store.ShippingOptions(ctx, "sess-1")
	if err != nil {
		t.Fatalf("ShippingOptions: %v", err)
	}
	if !ok {
		t.Fatal("expected stored options")
	}
	if got != want {
		t.Fatalf("options = %+v, want %+v", got, want)
	}
}

func TestShippingOptionsMissIsNotAnError(t *testing.T) {
	store := newTestStore(newMemoryBackend())

	_, ok, err := store.ShippingOptions(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("ShippingOptions: %v", err)
	}
	if ok {
		t.Fatal("expected miss")
	}
}

func TestInvalidateRatesDropsQuotesAndOptions(t *testing.T) {
	backend := newMemoryBackend()
	store := newTestStore(backend)
	ctx := context.Background()

	if err := store.SetQuotes(ctx, "sess-1", types.QuoteResponse{Success: true}); err != nil {
		t.Fatalf("SetQuotes: %v", err)
	}
	if err := store.SetShippingOptions(ctx, "sess-1", types.ShippingOptions{}); err != nil {
		t.Fatalf("SetShippingOptions: %v", err)
	}

	if err := store.InvalidateRates(ctx, "sess-1"); err != nil {
		t.Fatalf("InvalidateRates: %v", err)
	}

	if _, ok, _ := store.Quotes(ctx, "sess-1"); ok {
		t.Fatal("quotes survived invalidation")
	}
	if _, ok, _ := store.ShippingOptions(ctx, "sess-1"); ok {
		t.Fatal("options survived invalidation")
	}
}

func TestSetOptionChoiceRejectsUnknownOption(t *testing.T) {
	store := newTestStore(newMemoryBackend())

	err := store.SetOptionChoice(context.Background(), "sess-1", enums.ShippingOptionName("giftWrap"), enums.OptionChoiceYes)
	if err == nil {
		t.Fatal("expected error for unknown option")
	}
}
