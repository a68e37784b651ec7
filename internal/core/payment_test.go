package core

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
)

func deliveryRowFixture() map[string]any {
	return map[string]any{
		"data_entrega": "2025-03-05",
		"svc":          "CAP SP",
		"ciclo_final":  "AM_1",
		"veiculo":      "Van",
		"apoio":        "sim",
		"placa":        "ABC1D23",
		"driver":       "drv-9",
		"hora_inicio":  "08:30",
		"hora_fim":     "13:45",
		"parada":       "85",
		"pacotes":      "95",
	}
}

func TestCalculatePayment(t *testing.T) {
	pricing := pricingFixture()
	row := deliveryRowFixture()

	p := CalculatePayment(row, pricing, "upload/export.csv", 1)

	if p.Region != RegionCapital {
		t.Errorf("Region = %q, want %q", p.Region, RegionCapital)
	}
	if p.Period != PeriodAM {
		t.Errorf("Period = %q, want %q", p.Period, PeriodAM)
	}
	if !p.BaseTariff.Valid || p.BaseTariff.Float64 != 100 {
		t.Errorf("BaseTariff = %+v, want 100", p.BaseTariff)
	}
	if p.StopBonus != 15 {
		t.Errorf("StopBonus = %v, want 15 (85 stops hits the >80 tier)", p.StopBonus)
	}
	if p.PackageBonus != 25 {
		t.Errorf("PackageBonus = %v, want 25 (95 packages hits the 91-100 tier)", p.PackageBonus)
	}
	if !p.FlatBonus.Valid || p.FlatBonus.Float64 != 5 {
		t.Errorf("FlatBonus = %+v, want 5", p.FlatBonus)
	}
	// 100 base + 15 stops + 25 packages + 0 per-km + 5 flat.
	if p.Total != 145 {
		t.Errorf("Total = %v, want 145", p.Total)
	}
	if !p.SourcePath.Valid || p.SourcePath.String != "upload/export.csv" {
		t.Errorf("SourcePath = %+v, want upload/export.csv", p.SourcePath)
	}
	if p.SourceLine != 1 {
		t.Errorf("SourceLine = %d, want 1", p.SourceLine)
	}
}

func TestCalculatePaymentStopTierDefaults(t *testing.T) {
	pricing := pricingFixture()

	// The VAN entry leaves acima_de_110 at zero, so the default applies.
	row := deliveryRowFixture()
	row["parada"] = "111"
	p := CalculatePayment(row, pricing, "upload/export.csv", 1)
	if p.StopBonus != DefaultStopBonus110 {
		t.Errorf("StopBonus = %v, want default %v for blank >110 tier", p.StopBonus, DefaultStopBonus110)
	}

	// No pricing entry at all still pays the stop defaults.
	row = deliveryRowFixture()
	row["veiculo"] = "BICICLETA"
	row["apoio"] = nil
	row["parada"] = "90"
	p = CalculatePayment(row, pricing, "upload/export.csv", 2)
	if p.StopBonus != DefaultStopBonus80 {
		t.Errorf("StopBonus = %v, want default %v without pricing entry", p.StopBonus, DefaultStopBonus80)
	}
	if p.BaseTariff.Valid {
		t.Errorf("BaseTariff = %+v, want NULL without pricing entry", p.BaseTariff)
	}
	// Package tiers have no defaults.
	if p.PackageBonus != 0 {
		t.Errorf("PackageBonus = %v, want 0 without pricing entry", p.PackageBonus)
	}
}

func TestCalculatePaymentWildcardSupport(t *testing.T) {
	pricing := pricingFixture()

	row := deliveryRowFixture()
	row["apoio"] = "NAO"
	p := CalculatePayment(row, pricing, "upload/export.csv", 1)

	if !p.BaseTariff.Valid || p.BaseTariff.Float64 != 100 {
		t.Errorf("BaseTariff = %+v, want 100 via vehicle wildcard", p.BaseTariff)
	}
}

func TestCalculatePaymentNullCounts(t *testing.T) {
	pricing := pricingFixture()

	row := deliveryRowFixture()
	row["parada"] = nil
	row["pacotes"] = ""
	p := CalculatePayment(row, pricing, "upload/export.csv", 1)

	if p.Stops.Valid {
		t.Errorf("Stops = %+v, want NULL", p.Stops)
	}
	if p.Packages.Valid {
		t.Errorf("Packages = %+v, want NULL", p.Packages)
	}
	if p.StopBonus != 0 || p.PackageBonus != 0 {
		t.Errorf("bonuses = %v/%v, want 0/0 for NULL counts", p.StopBonus, p.PackageBonus)
	}
	// 100 base + 0 per-km + 5 flat.
	if p.Total != 105 {
		t.Errorf("Total = %v, want 105", p.Total)
	}
}

func TestCalculatePaymentDeterministic(t *testing.T) {
	pricing := pricingFixture()
	row := deliveryRowFixture()

	first := CalculatePayment(row, pricing, "upload/export.csv", 1)
	for i := 0; i < 5; i++ {
		again := CalculatePayment(row, pricing, "upload/export.csv", 1)
		if again.Total != first.Total || again.Period != first.Period || again.Region != first.Region {
			t.Fatalf("CalculatePayment not deterministic: %+v vs %+v", again, first)
		}
	}
}

func TestPaymentDate(t *testing.T) {
	if got := paymentDate("2025-03-05"); !got.Valid || got.String != "2025-03-05" {
		t.Errorf("paymentDate(iso) = %+v", got)
	}
	// Unparseable dates are carried through, not dropped.
	if got := paymentDate("quinta-feira"); !got.Valid || got.String != "quinta-feira" {
		t.Errorf("paymentDate(opaque) = %+v, want carried through", got)
	}
	if got := paymentDate(nil); got.Valid {
		t.Errorf("paymentDate(nil) = %+v, want NULL", got)
	}
}

func TestFieldHelpers(t *testing.T) {
	row := map[string]any{
		"a": "  12,5 ",
		"b": 7.0,
		"c": nil,
		"d": int64(3),
		"e": "texto",
	}

	if got := fieldNumber(row, "a"); !got.Valid || got.Float64 != 12.5 {
		t.Errorf("fieldNumber(string) = %+v, want 12.5", got)
	}
	if got := fieldNumber(row, "b"); !got.Valid || got.Float64 != 7 {
		t.Errorf("fieldNumber(float) = %+v, want 7", got)
	}
	if got := fieldNumber(row, "c"); got.Valid {
		t.Errorf("fieldNumber(nil) = %+v, want NULL", got)
	}
	if got := fieldInteger(row, "d"); !got.Valid || got.Int32 != 3 {
		t.Errorf("fieldInteger(int64) = %+v, want 3", got)
	}
	if got := fieldText(row, "missing", "e"); !got.Valid || got.String != "texto" {
		t.Errorf("fieldText fallback = %+v, want texto", got)
	}
	if got := fieldText(row, "c"); got.Valid {
		t.Errorf("fieldText(nil) = %+v, want NULL", got)
	}
}

func TestPaymentDateCase(t *testing.T) {
	// Scanned rows may hold a "quinta 05/03/25" style cell; the day-first
	// rule still extracts the leading date when it starts the string.
	got := paymentDate("05/03/25 quinta")
	want := pgtype.Text{String: "2025-03-05", Valid: true}
	if got != want {
		t.Errorf("paymentDate = %+v, want %+v", got, want)
	}
}
