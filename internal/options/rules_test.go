package options

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shipquote-backend/pkg/enums"
	"github.com/angelmondragon/shipquote-backend/pkg/types"
)

func TestDeriveReceiptedDelivery(t *testing.T) {
	cases := []struct {
		name   string
		level  enums.ServiceLevel
		choice enums.OptionChoice
		want   bool
	}{
		{"included overrides a no", enums.ServiceLevelIncluded, enums.OptionChoiceNo, true},
		{"disabled overrides a yes", enums.ServiceLevelDisabled, enums.OptionChoiceYes, false},
		{"optional follows yes", enums.ServiceLevelOptional, enums.OptionChoiceYes, true},
		{"optional follows no", enums.ServiceLevelOptional, enums.OptionChoiceNo, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Derive(Inputs{
				Settings:                types.MerchantSettings{ReceiptedDelivery: tc.level},
				ReceiptedDeliveryChoice: tc.choice,
			})
			if got.ReceiptedDelivery != tc.want {
				t.Fatalf("ReceiptedDelivery = %v, want %v", got.ReceiptedDelivery, tc.want)
			}
		})
	}
}

func TestDeriveTransportAssurance(t *testing.T) {
	settings := types.MerchantSettings{
		TransportAssurance:    enums.ServiceLevelOptional,
		TransportAssuranceMin: decimal.NewFromInt(100),
	}

	cases := []struct {
		name   string
		total  decimal.Decimal
		choice enums.OptionChoice
		want   bool
	}{
		{"yes above minimum", decimal.NewFromInt(150), enums.OptionChoiceYes, true},
		{"yes exactly at minimum", decimal.NewFromInt(100), enums.OptionChoiceYes, true},
		{"yes below minimum", decimal.NewFromInt(99), enums.OptionChoiceYes, false},
		{"no above minimum", decimal.NewFromInt(150), enums.OptionChoiceNo, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Derive(Inputs{
				Settings:                 settings,
				CartTotal:                tc.total,
				TransportAssuranceChoice: tc.choice,
			})
			if got.TransportAssurance != tc.want {
				t.Fatalf("TransportAssurance = %v, want %v", got.TransportAssurance, tc.want)
			}
		})
	}

	t.Run("included ignores minimum and choice", func(t *testing.T) {
		got := Derive(Inputs{
			Settings: types.MerchantSettings{
				TransportAssurance:    enums.ServiceLevelIncluded,
				TransportAssuranceMin: decimal.NewFromInt(100),
			},
			CartTotal:                decimal.NewFromInt(5),
			TransportAssuranceChoice: enums.OptionChoiceNo,
		})
		if !got.TransportAssurance {
			t.Fatal("included service must always be on")
		}
	})
}

func TestDeriveTailLiftDecisionTable(t *testing.T) {
	cases := []struct {
		name          string
		forceDelivery bool
		pickupFrom    float64
		maxWeight     float64
		noCompany     bool
		want          enums.TailLift
	}{
		{"light package, nothing configured", false, 0, 10, true, enums.TailLiftNone},
		{"delivery: heavy residential", true, 0, 31, true, enums.TailLiftDelivery},
		{"delivery: heavy but business address", true, 0, 31, false, enums.TailLiftNone},
		{"delivery: residential but at threshold", true, 0, 30, true, enums.TailLiftNone},
		{"delivery: not forced", false, 0, 31, true, enums.TailLiftNone},
		{"pickup: above threshold", false, 25, 26, false, enums.TailLiftPickup},
		{"pickup: exactly at threshold", false, 25, 25, false, enums.TailLiftNone},
		{"pickup: threshold disabled at zero", false, 0, 500, false, enums.TailLiftNone},
		{"both legs", true, 25, 31, true, enums.TailLiftBoth},
		{"pickup fires while delivery blocked by company", true, 25, 31, false, enums.TailLiftPickup},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Derive(Inputs{
				Settings: types.MerchantSettings{
					ForceTailLiftDelivery: tc.forceDelivery,
					TailLiftPickup:        tc.pickupFrom,
				},
				MaxItemWeight:   tc.maxWeight,
				NoCompanySignal: tc.noCompany,
			})
			if got.TailLift != tc.want {
				t.Fatalf("TailLift = %s, want %s", got.TailLift, tc.want)
			}
		})
	}
}

func TestVisibleCheckboxes(t *testing.T) {
	settings := types.MerchantSettings{
		ReceiptedDelivery:     enums.ServiceLevelOptional,
		TransportAssurance:    enums.ServiceLevelOptional,
		TransportAssuranceMin: decimal.NewFromInt(50),
	}
	vis := VisibleCheckboxes(settings, decimal.NewFromInt(60))
	if !vis.ReceiptedDelivery || !vis.TransportAssurance {
		t.Fatalf("both checkboxes should be visible, got %+v", vis)
	}
	vis = VisibleCheckboxes(settings, decimal.NewFromInt(40))
	if vis.TransportAssurance {
		t.Fatal("transport assurance hidden below the cart minimum")
	}
	settings.ReceiptedDelivery = enums.ServiceLevelIncluded
	vis = VisibleCheckboxes(settings, decimal.NewFromInt(60))
	if vis.ReceiptedDelivery {
		t.Fatal("included services show no checkbox")
	}
}
