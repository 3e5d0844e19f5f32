package packages

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shipquote-backend/internal/lineitems"
	"github.com/angelmondragon/shipquote-backend/pkg/db/models"
	"github.com/angelmondragon/shipquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shipquote-backend/pkg/errors"
	"github.com/angelmondragon/shipquote-backend/pkg/logger"
	"github.com/angelmondragon/shipquote-backend/pkg/types"
)

func ptr(v float64) *float64 { return &v }

type fakeCatalog struct {
	products map[string]*models.Product
}

func (f *fakeCatalog) GetProductBySKU(_ context.Context, sku string) (*models.Product, error) {
	if product, ok := f.products[sku]; ok {
		return product, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (f *fakeCatalog) GetVariationBySKU(_ context.Context, _ string) (*models.ProductVariation, *models.Product, error) {
	return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "product variation not found")
}

type fakeSessions struct {
	choices  map[enums.ShippingOptionName]enums.OptionChoice
	mirrored *types.ShippingOptions
}

func (f *fakeSessions) OptionChoice(_ context.Context, _ string, name enums.ShippingOptionName) (enums.OptionChoice, error) {
	if choice, ok := f.choices[name]; ok {
		return choice, nil
	}
	return enums.OptionChoiceNo, nil
}

func (f *fakeSessions) SetShippingOptions(_ context.Context, _ string, options types.ShippingOptions) error {
	f.mirrored = &options
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newAssembler(t *testing.T, cat *fakeCatalog, sessions *fakeSessions, shipTo enums.ShipTo) *Assembler {
	t.Helper()
	normalizer, err := lineitems.NewNormalizer(cat, enums.WeightUnitKilogram, enums.DimensionUnitCentimetre)
	if err != nil {
		t.Fatalf("NewNormalizer: %v", err)
	}
	assembler, err := NewAssembler(normalizer, sessions, shipTo, testLogger())
	if err != nil {
		t.Fatalf("NewAssembler: %v", err)
	}
	return assembler
}

func product(sku string, weight float64) *models.Product {
	return &models.Product{
		SKU:    sku,
		Weight: ptr(weight),
		Length: ptr(30),
		Width:  ptr(20),
		Height: ptr(10),
	}
}

func completeAddress() types.Destination {
	return types.Destination{
		FirstName: "Ana",
		Address1:  "1 Harbour St",
		City:      "Sydney",
		State:     "NSW",
		Postcode:  "2000",
		Country:   "AU",
		Email:     "ana@example.com",
	}
}

func TestAssembleBuildsPackage(t *testing.T) {
	cat := &fakeCatalog{products: map[string]*models.Product{
		"BOX":   product("BOX", 2),
		"HEAVY": product("HEAVY", 40),
	}}
	sessions := &fakeSessions{}
	assembler := newAssembler(t, cat, sessions, enums.ShipToBilling)

	assembly, err := assembler.Assemble(context.Background(), Request{
		SessionID: "sess-1",
		Cart: []lineitems.CartItem{
			{ProductSKU: "BOX", Quantity: 2},
			{ProductSKU: "HEAVY", Quantity: 1},
		},
		CartTotal: decimal.NewFromInt(300),
		Billing:   completeAddress(),
	}, types.MerchantSettings{})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if !assembly.OK() {
		t.Fatalf("expected a package, got errors %v", assembly.Errors)
	}
	if len(assembly.Package.Contents) != 3 {
		t.Fatalf("len(Contents) = %d, want 3", len(assembly.Package.Contents))
	}
	if assembly.Package.MaxItemWeight != 40 {
		t.Fatalf("MaxItemWeight = %v, want heaviest single item", assembly.Package.MaxItemWeight)
	}
	if assembly.Package.ID == "" {
		t.Fatal("package id must be set")
	}
	if sessions.mirrored == nil {
		t.Fatal("derived options must be mirrored into the session")
	}
}

func TestAssembleEmptyCartIsValidationError(t *testing.T) {
	virtual := product("EBOOK", 1)
	virtual.Virtual = true
	cat := &fakeCatalog{products: map[string]*models.Product{"EBOOK": virtual}}
	assembler := newAssembler(t, cat, &fakeSessions{}, enums.ShipToBilling)

	assembly, err := assembler.Assemble(context.Background(), Request{
		SessionID: "sess-1",
		Cart:      []lineitems.CartItem{{ProductSKU: "EBOOK", Quantity: 1}},
		Billing:   completeAddress(),
	}, types.MerchantSettings{})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if assembly.OK() {
		t.Fatal("an all-virtual cart must not produce a package")
	}
	if len(assembly.Errors) != 1 || assembly.Errors[0].Field != "contents" {
		t.Fatalf("expected a contents validation error, got %+v", assembly.Errors)
	}
}

func TestAssembleIncompleteDestination(t *testing.T) {
	cat := &fakeCatalog{products: map[string]*models.Product{"BOX": product("BOX", 2)}}
	assembler := newAssembler(t, cat, &fakeSessions{}, enums.ShipToBilling)

	address := completeAddress()
	address.Postcode = ""
	assembly, err := assembler.Assemble(context.Background(), Request{
		SessionID: "sess-1",
		Cart:      []lineitems.CartItem{{ProductSKU: "BOX", Quantity: 1}},
		Billing:   address,
	}, types.MerchantSettings{})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if assembly.OK() {
		t.Fatal("incomplete destination must block quoting")
	}
	if assembly.Messages()[0] != "Incomplete destination address" {
		t.Fatalf("message = %q", assembly.Messages()[0])
	}
}

func TestAssembleShipToShippingTakesBillingEmail(t *testing.T) {
	cat := &fakeCatalog{products: map[string]*models.Product{"BOX": product("BOX", 2)}}
	assembler := newAssembler(t, cat, &fakeSessions{}, enums.ShipToShipping)

	shipping := completeAddress()
	shipping.Email = ""
	shipping.City = "Melbourne"
	billing := completeAddress()
	billing.Email = "billing@example.com"

	assembly, err := assembler.Assemble(context.Background(), Request{
		SessionID: "sess-1",
		Cart:      []lineitems.CartItem{{ProductSKU: "BOX", Quantity: 1}},
		Billing:   billing,
		Shipping:  shipping,
	}, types.MerchantSettings{})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if !assembly.OK() {
		t.Fatalf("expected a package, got %v", assembly.Errors)
	}
	got := assembly.Package.Destination
	if got.City != "Melbourne" {
		t.Fatalf("City = %q, want shipping block's city", got.City)
	}
	if got.Email != "billing@example.com" {
		t.Fatalf("Email = %q, want billing email carried over", got.Email)
	}
}

func TestAssembleDerivesOptionsFromSessionChoices(t *testing.T) {
	cat := &fakeCatalog{products: map[string]*models.Product{"HEAVY": product("HEAVY", 40)}}
	sessions := &fakeSessions{choices: map[enums.ShippingOptionName]enums.OptionChoice{
		enums.ShippingOptionReceiptedDelivery: enums.OptionChoiceYes,
	}}
	assembler := newAssembler(t, cat, sessions, enums.ShipToBilling)

	settings := types.MerchantSettings{
		ReceiptedDelivery:     enums.ServiceLevelOptional,
		ForceTailLiftDelivery: true,
	}
	assembly, err := assembler.Assemble(context.Background(), Request{
		SessionID:       "sess-1",
		Cart:            []lineitems.CartItem{{ProductSKU: "HEAVY", Quantity: 1}},
		Billing:         completeAddress(),
		NoCompanySignal: true,
	}, settings)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	opts := assembly.Package.ShippingOptions
	if !opts.ReceiptedDelivery {
		t.Fatal("receipted delivery should follow the stored yes")
	}
	if opts.TailLift != enums.TailLiftDelivery {
		t.Fatalf("TailLift = %s, want DELIVERY for a 40kg residential drop", opts.TailLift)
	}
}
