package quotes

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shipquote-backend/pkg/config"
	"github.com/angelmondragon/shipquote-backend/pkg/enums"
	"github.com/angelmondragon/shipquote-backend/pkg/logger"
	redisclient "github.com/angelmondragon/shipquote-backend/pkg/redis"
	"github.com/angelmondragon/shipquote-backend/pkg/remote"
	"github.com/angelmondragon/shipquote-backend/pkg/types"
)

type fakeCaller struct {
	postCalls int
	getCalls  int
	response  *remote.Response
	err       error
}

func (f *fakeCaller) Get(_ context.Context, _ string, _ map[string]string) (*remote.Response, error) {
	f.getCalls++
	return f.response, f.err
}

func (f *fakeCaller) Post(_ context.Context, _ string, _ any) (*remote.Response, error) {
	f.postCalls++
	return f.response, f.err
}

type fakeCache struct {
	entries map[string]string
	ttls    map[string]time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	value, ok := f.entries[key]
	if !ok {
		return "", redisclient.Nil
	}
	return value, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	switch v := value.(type) {
	case string:
		f.entries[key] = v
	case []byte:
		f.entries[key] = string(v)
	}
	f.ttls[key] = ttl
	return nil
}

type fakeKeyer struct{}

func (fakeKeyer) QuoteKey(hash string) string { return "quotes:" + hash }
func (fakeKeyer) SettingsKey() string         { return "settings" }

func jsonResponse(t *testing.T, v any) *remote.Response {
	t.Helper()
	payload, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return &remote.Response{StatusCode: 200, Body: payload, IsJSON: true}
}

func newService(t *testing.T, caller Caller, cache Cache) *Service {
	t.Helper()
	svc, err := NewService(caller, cache, fakeKeyer{},
		config.RemoteConfig{BFFURL: "https://bff.example.com", QuoteCacheTTL: 5 * time.Minute, SettingsCacheTTL: 30 * time.Second},
		config.StoreConfig{MethodTitle: "SmartShip", MethodInstanceID: 7},
		nil,
		logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func testPackage() types.Package {
	return types.Package{
		ID: "pkg-1",
		Contents: []types.LineItem{
			{Description: "Standard Parcel", Length: 30, Width: 20, Height: 10, Weight: 2},
		},
		Destination:   types.Destination{City: "Sydney", State: "NSW", Postcode: "2000"},
		MaxItemWeight: 2,
	}
}

func successResponse() types.QuoteResponse {
	return types.QuoteResponse{
		Success: true,
		Quotes: []types.Quote{
			{Label: "Express", Cost: decimal.NewFromFloat(12.5), Original: types.QuoteOrigin{PriceID: "price-1"}},
		},
	}
}

func TestGetRatesCachesSuccessfulResponses(t *testing.T) {
	caller := &fakeCaller{response: jsonResponse(t, successResponse())}
	cache := newFakeCache()
	svc := newService(t, caller, cache)

	first, err := svc.GetRates(context.Background(), testPackage())
	if err != nil {
		t.Fatalf("GetRates: %v", err)
	}
	if !first.Success || len(first.QuoteList()) != 1 {
		t.Fatalf("unexpected response %+v", first)
	}

	second, err := svc.GetRates(context.Background(), testPackage())
	if err != nil {
		t.Fatalf("GetRates (cached): %v", err)
	}
	if caller.postCalls != 1 {
		t.Fatalf("postCalls = %d, want 1 (second call served from cache)", caller.postCalls)
	}
	if len(second.QuoteList()) != 1 {
		t.Fatalf("cached response lost its quotes: %+v", second)
	}
}

func TestGetRatesIgnoresPackageIDForCaching(t *testing.T) {
	caller := &fakeCaller{response: jsonResponse(t, successResponse())}
	svc := newService(t, caller, newFakeCache())

	pkg := testPackage()
	if _, err := svc.GetRates(context.Background(), pkg); err != nil {
		t.Fatalf("GetRates: %v", err)
	}
	pkg.ID = "pkg-2"
	if _, err := svc.GetRates(context.Background(), pkg); err != nil {
		t.Fatalf("GetRates: %v", err)
	}
	if caller.postCalls != 1 {
		t.Fatalf("postCalls = %d, want 1 (id change must not bust the cache)", caller.postCalls)
	}
}

func TestGetRatesDoesNotCacheFailures(t *testing.T) {
	caller := &fakeCaller{response: jsonResponse(t, types.QuoteResponse{
		Success: false,
		Errors:  []string{"account suspended"},
	})}
	svc := newService(t, caller, newFakeCache())

	for i := 0; i < 2; i++ {
		resp, err := svc.GetRates(context.Background(), testPackage())
		if err != nil {
			t.Fatalf("GetRates: %v", err)
		}
		if resp.Success {
			t.Fatal("expected a failed response")
		}
	}
	if caller.postCalls != 2 {
		t.Fatalf("postCalls = %d, want 2 (failures are never cached)", caller.postCalls)
	}
}

func TestGetRatesFillsSettingsSideCache(t *testing.T) {
	resp := successResponse()
	resp.Settings = &types.MerchantSettings{ReceiptedDelivery: enums.ServiceLevelOptional}
	caller := &fakeCaller{response: jsonResponse(t, resp)}
	cache := newFakeCache()
	svc := newService(t, caller, cache)

	if _, err := svc.GetRates(context.Background(), testPackage()); err != nil {
		t.Fatalf("GetRates: %v", err)
	}
	settings, err := svc.Settings(context.Background())
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if settings.ReceiptedDelivery != enums.ServiceLevelOptional {
		t.Fatalf("settings not served from side cache: %+v", settings)
	}
	if caller.getCalls != 0 {
		t.Fatalf("getCalls = %d, want 0 (side cache should satisfy the read)", caller.getCalls)
	}
	if cache.ttls["settings"] != 30*time.Second {
		t.Fatalf("settings TTL = %v, want 30s", cache.ttls["settings"])
	}
}

func TestSettingsFallsBackToRemoteFetch(t *testing.T) {
	caller := &fakeCaller{response: jsonResponse(t, types.MerchantSettings{
		TransportAssurance: enums.ServiceLevelIncluded,
	})}
	svc := newService(t, caller, newFakeCache())

	settings, err := svc.Settings(context.Background())
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if settings.TransportAssurance != enums.ServiceLevelIncluded {
		t.Fatalf("unexpected settings %+v", settings)
	}
	if caller.getCalls != 1 {
		t.Fatalf("getCalls = %d, want 1", caller.getCalls)
	}
}

func TestMapRates(t *testing.T) {
	svc := newService(t, &fakeCaller{}, newFakeCache())
	resp := types.QuoteResponse{
		Success: true,
		Quotes: []types.Quote{
			{Label: "Express", Cost: decimal.NewFromFloat(12.5), Original: types.QuoteOrigin{PriceID: "price-1"}},
			{Label: "", Cost: decimal.NewFromFloat(8), Original: types.QuoteOrigin{PriceID: "price-2"}},
		},
	}
	lines := svc.MapRates(resp)
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2", len(lines))
	}
	if lines[0].ID != "shipquote:7:0" {
		t.Fatalf("ID = %q", lines[0].ID)
	}
	if lines[0].Label != "Express" {
		t.Fatalf("Label = %q", lines[0].Label)
	}
	if lines[1].Label != "SmartShip" {
		t.Fatalf("empty label must fall back to the method title, got %q", lines[1].Label)
	}
	if lines[0].TaxCalculation != "per_order" {
		t.Fatalf("TaxCalculation = %q", lines[0].TaxCalculation)
	}
	if lines[1].Metadata.PriceID != "price-2" {
		t.Fatalf("Metadata.PriceID = %q", lines[1].Metadata.PriceID)
	}
}

func TestMapRatesPrefersSingularQuoteKey(t *testing.T) {
	svc := newService(t, &fakeCaller{}, newFakeCache())
	raw := `{"success":true,"quote":[{"label":"A","cost":"1"}],"quotes":[{"label":"B","cost":"2"},{"label":"C","cost":"3"}]}`
	var resp types.QuoteResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	lines := svc.MapRates(resp)
	if len(lines) != 1 || lines[0].Label != "A" {
		t.Fatalf("expected the singular quote list to win, got %+v", lines)
	}
}

func TestMapRatesNonListQuoteKeyFallsBackToQuotes(t *testing.T) {
	svc := newService(t, &fakeCaller{}, newFakeCache())
	raw := `{"success":true,"quote":{"note":"not a list"},"quotes":[{"label":"B","cost":"2"}]}`
	var resp types.QuoteResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	lines := svc.MapRates(resp)
	if len(lines) != 1 || lines[0].Label != "B" {
		t.Fatalf("expected quotes fallback, got %+v", lines)
	}
}

func TestQuoteURLJoinsCleanly(t *testing.T) {
	svc := newService(t, &fakeCaller{}, newFakeCache())
	if got := svc.quoteURL(); !strings.HasSuffix(got, "/shipping/quotes") || strings.Contains(got, "com//") {
		t.Fatalf("quoteURL = %q", got)
	}
}
