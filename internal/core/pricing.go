package core

import (
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// Region classifies a delivery area from the service code.
type Region string

const (
	RegionCapital  Region = "CAPITAL"
	RegionInterior Region = "INTERIOR"
	RegionUnknown  Region = "UNKNOWN"
)

// Period classifies a delivery shift, used to pick the base tariff.
type Period string

const (
	PeriodAM      Period = "AM"
	PeriodPM      Period = "PM"
	PeriodUnknown Period = "UNKNOWN"
)

// pricingKeySep joins the vehicle-type and support-flag components of a
// pricing lookup key.
const pricingKeySep = "__"

// NormalizeRegion derives the region from the service code: a
// case-insensitive "CAP" substring means capital, "INT" interior. The
// region is informational only; it never affects the price lookup.
func NormalizeRegion(svc pgtype.Text) Region {
	if !svc.Valid {
		return RegionUnknown
	}
	clean := strings.ToUpper(svc.String)
	if strings.Contains(clean, "CAP") {
		return RegionCapital
	}
	if strings.Contains(clean, "INT") {
		return RegionInterior
	}
	return RegionUnknown
}

// DeterminePeriod classifies a shift as AM or PM. The cycle label wins when
// it contains an AM/PM token (AM checked first); otherwise the first one-
// or two-digit run in hora_inicio (falling back to hora_fim) is read as an
// hour, with <12 AM and >=12 PM. No extractable hour means UNKNOWN.
func DeterminePeriod(cicloFinal, horaInicio, horaFim pgtype.Text) Period {
	if cicloFinal.Valid {
		label := strings.ToUpper(cicloFinal.String)
		if strings.Contains(label, "AM") {
			return PeriodAM
		}
		if strings.Contains(label, "PM") {
			return PeriodPM
		}
	}

	hour := extractHour(horaInicio)
	if hour == nil || *hour == 0 {
		hour = extractHour(horaFim)
	}
	if hour == nil {
		return PeriodUnknown
	}
	if *hour < 12 {
		return PeriodAM
	}
	return PeriodPM
}

func extractHour(t pgtype.Text) *int {
	if !t.Valid {
		return nil
	}
	m := leadingHour.FindString(t.String)
	if m == "" {
		return nil
	}
	h := 0
	for _, c := range m {
		h = h*10 + int(c-'0')
	}
	return &h
}

// BuildPricingKey builds the composite lookup key from the uppercased
// vehicle type and support flag. A NULL component contributes an empty
// string, which is how the support-wildcard fallback key is formed.
func BuildPricingKey(vehicleType, support pgtype.Text) string {
	v := ""
	if vehicleType.Valid {
		v = strings.ToUpper(vehicleType.String)
	}
	a := ""
	if support.Valid {
		a = strings.ToUpper(support.String)
	}
	return v + pricingKeySep + a
}

// PricingEntry is one valores_meli row: base tariffs per period plus the
// bonus schedule for one (vehicle type, support flag) combination.
type PricingEntry struct {
	VehicleType pgtype.Text
	Support     pgtype.Text

	TariffAM pgtype.Float8
	TariffPM pgtype.Float8

	StopsAbove80  pgtype.Float8
	StopsAbove110 pgtype.Float8

	Packages60To90  pgtype.Float8
	Packages91To100 pgtype.Float8
	PackagesOver100 pgtype.Float8

	PerKM     pgtype.Float8
	FlatBonus pgtype.Float8
}

// PricingTable is the immutable pricing lookup built once per run from the
// valores_meli scan and passed explicitly to the payment calculator.
type PricingTable struct {
	entries map[string]PricingEntry
}

// BuildPricingTable parses scanned valores_meli rows into a lookup table.
// Every entry is registered twice: under its exact (vehicle, support) key
// and under the support-wildcard key, so records whose support flag matches
// no entry still resolve by vehicle type. Later rows with the same vehicle
// type overwrite the wildcard, matching load order.
func BuildPricingTable(rows []map[string]any) *PricingTable {
	t := &PricingTable{entries: make(map[string]PricingEntry, len(rows)*2)}

	for _, row := range rows {
		entry := PricingEntry{
			VehicleType:     fieldText(row, "tipo_de_veiculo"),
			Support:         fieldText(row, "apoio"),
			TariffAM:        fieldNumber(row, "tarifa_am"),
			TariffPM:        fieldNumber(row, "tarifa_pm"),
			StopsAbove80:    fieldNumber(row, "acima_de_80"),
			StopsAbove110:   fieldNumber(row, "acima_de_110"),
			Packages60To90:  fieldNumber(row, "c_60_90"),
			Packages91To100: fieldNumber(row, "c_91_100"),
			PackagesOver100: fieldNumber(row, "gt_100"),
			PerKM:           fieldNumber(row, "adicional_km"),
			FlatBonus:       fieldNumber(row, "bonus_sdd"),
		}

		t.entries[BuildPricingKey(entry.VehicleType, entry.Support)] = entry
		if entry.VehicleType.Valid {
			t.entries[BuildPricingKey(entry.VehicleType, pgtype.Text{})] = entry
		}
	}

	return t
}

// Len returns the number of distinct lookup keys.
func (t *PricingTable) Len() int {
	return len(t.entries)
}

// Lookup resolves the pricing entry for a vehicle type and support flag,
// trying the exact key first and the support-wildcard key second.
func (t *PricingTable) Lookup(vehicleType, support pgtype.Text) (PricingEntry, bool) {
	if e, ok := t.entries[BuildPricingKey(vehicleType, support)]; ok {
		return e, true
	}
	e, ok := t.entries[BuildPricingKey(vehicleType, pgtype.Text{})]
	return e, ok
}

// SelectBaseTariff picks the base tariff for a period: PM prefers the PM
// tariff falling back to AM, AM the reverse, and UNKNOWN prefers AM. A
// tariff of zero counts as undefined, mirroring how the pricing sheet
// leaves cells blank; the result may be NULL when no tariff applies.
func SelectBaseTariff(entry PricingEntry, ok bool, period Period) pgtype.Float8 {
	if !ok {
		return pgtype.Float8{}
	}
	if period == PeriodPM {
		return orTariff(entry.TariffPM, entry.TariffAM)
	}
	return orTariff(entry.TariffAM, entry.TariffPM)
}

// orTariff returns a when it is a usable (non-NULL, non-zero) tariff,
// otherwise b as-is.
func orTariff(a, b pgtype.Float8) pgtype.Float8 {
	if a.Valid && a.Float64 != 0 {
		return a
	}
	return b
}
