package core

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Default stop-count bonuses applied when the matched tier defines none.
const (
	DefaultStopBonus80  = 20
	DefaultStopBonus110 = 40
)

// Payment is one pagamento_delivery row: the resolved pricing context and
// the monetary breakdown for a single delivery record. Computed once,
// written once, never mutated.
type Payment struct {
	SourcePath pgtype.Text
	SourceLine int

	DataEntrega pgtype.Text
	Svc         pgtype.Text
	Region      Region
	Period      Period
	VehicleType pgtype.Text
	Support     pgtype.Text
	Plate       pgtype.Text
	DriverID    pgtype.Text
	HoraInicio  pgtype.Text
	HoraFim     pgtype.Text
	Stops       pgtype.Int4
	Packages    pgtype.Int4

	BaseTariff   pgtype.Float8
	StopBonus    float64
	PackageBonus float64
	PerKM        pgtype.Float8
	FlatBonus    pgtype.Float8
	OtherBonus   float64
	Total        float64

	Notes pgtype.Text

	// Raw is the scanned delivery row the payment derives from, persisted
	// verbatim for auditing.
	Raw map[string]any
}

// CalculatePayment derives the payment for one scanned delivery_success
// row. It is pure: identical inputs always produce the identical breakdown,
// with NULL components contributing exactly 0.0 to the total.
func CalculatePayment(row map[string]any, pricing *PricingTable, sourcePath string, line int) Payment {
	svc := fieldText(row, ColSvc)
	cicloFinal := fieldText(row, ColCicloFinal)
	horaInicio := fieldText(row, ColHoraInicio)
	horaFim := fieldText(row, ColHoraFim)
	vehicleType := fieldText(row, "veículo", ColVeiculo)
	support := fieldText(row, "apoio", "apoio_veiculo")

	entry, ok := pricing.Lookup(vehicleType, support)
	period := DeterminePeriod(cicloFinal, horaInicio, horaFim)
	baseTariff := SelectBaseTariff(entry, ok, period)

	stops := fieldInteger(row, ColParada)
	stopBonus := 0.0
	if stops.Valid {
		switch {
		case stops.Int32 > 110:
			stopBonus = bonusOrDefault(ok, entry.StopsAbove110, DefaultStopBonus110)
		case stops.Int32 > 80:
			stopBonus = bonusOrDefault(ok, entry.StopsAbove80, DefaultStopBonus80)
		}
	}

	packages := fieldInteger(row, ColPacotes)
	packageBonus := 0.0
	if packages.Valid {
		switch {
		case packages.Int32 >= 60 && packages.Int32 <= 90:
			packageBonus = bonusOrDefault(ok, entry.Packages60To90, 0)
		case packages.Int32 >= 91 && packages.Int32 <= 100:
			packageBonus = bonusOrDefault(ok, entry.Packages91To100, 0)
		case packages.Int32 > 100:
			packageBonus = bonusOrDefault(ok, entry.PackagesOver100, 0)
		}
	}

	perKM := pgtype.Float8{}
	flatBonus := pgtype.Float8{}
	if ok {
		perKM = entry.PerKM
		flatBonus = entry.FlatBonus
	}

	otherBonus := 0.0
	total := zeroIfNull(baseTariff) + stopBonus + packageBonus +
		zeroIfNull(perKM) + zeroIfNull(flatBonus) + otherBonus

	return Payment{
		SourcePath:   NormalizeText(sourcePath),
		SourceLine:   line,
		DataEntrega:  paymentDate(row[ColDataEntrega]),
		Svc:          svc,
		Region:       NormalizeRegion(svc),
		Period:       period,
		VehicleType:  vehicleType,
		Support:      support,
		Plate:        fieldText(row, "placa"),
		DriverID:     fieldText(row, "driver"),
		HoraInicio:   horaInicio,
		HoraFim:      horaFim,
		Stops:        stops,
		Packages:     packages,
		BaseTariff:   baseTariff,
		StopBonus:    stopBonus,
		PackageBonus: packageBonus,
		PerKM:        perKM,
		FlatBonus:    flatBonus,
		OtherBonus:   otherBonus,
		Total:        total,
		Raw:          row,
	}
}

// bonusOrDefault reads a tier bonus, falling back when no tier matched or
// the tier leaves the cell blank. A zero bonus counts as blank, like an
// empty cell in the pricing sheet.
func bonusOrDefault(ok bool, v pgtype.Float8, def float64) float64 {
	if ok && v.Valid && v.Float64 != 0 {
		return v.Float64
	}
	return def
}

func zeroIfNull(v pgtype.Float8) float64 {
	if !v.Valid {
		return 0
	}
	return v.Float64
}

// paymentDate re-normalizes the delivery date for the payment row. A date
// string that still fails to normalize is carried through as-is rather
// than dropped: the payment table keeps whatever the delivery table holds.
func paymentDate(v any) pgtype.Text {
	switch d := v.(type) {
	case nil:
		return pgtype.Text{}
	case time.Time:
		return pgtype.Text{String: d.Format("2006-01-02"), Valid: true}
	case string:
		if n := NormalizeDate(d); n.Valid {
			return n
		}
		return NormalizeText(d)
	default:
		return NormalizeText(fmt.Sprint(d))
	}
}

// fieldText reads the first present key of a scanned row as normalized
// text. Scanned values may be strings, numbers, times, or NULL depending
// on the column type.
func fieldText(row map[string]any, keys ...string) pgtype.Text {
	for _, key := range keys {
		v, ok := row[key]
		if !ok || v == nil {
			continue
		}
		var t pgtype.Text
		switch s := v.(type) {
		case string:
			t = NormalizeText(s)
		case time.Time:
			t = pgtype.Text{String: s.Format("2006-01-02"), Valid: true}
		default:
			t = NormalizeText(fmt.Sprint(s))
		}
		if t.Valid {
			return t
		}
	}
	return pgtype.Text{}
}

// fieldNumber reads a scanned row value as a float, applying ParseNumber
// to string columns and passing numeric columns through (infinities are
// NULL, as in ParseNumber).
func fieldNumber(row map[string]any, key string) pgtype.Float8 {
	v, ok := row[key]
	if !ok || v == nil {
		return pgtype.Float8{}
	}
	switch n := v.(type) {
	case string:
		return ParseNumber(n)
	case float64:
		if math.IsInf(n, 0) {
			return pgtype.Float8{}
		}
		return pgtype.Float8{Float64: n, Valid: true}
	case float32:
		return pgtype.Float8{Float64: float64(n), Valid: true}
	case int64:
		return pgtype.Float8{Float64: float64(n), Valid: true}
	case int32:
		return pgtype.Float8{Float64: float64(n), Valid: true}
	case int:
		return pgtype.Float8{Float64: float64(n), Valid: true}
	case pgtype.Numeric:
		f, err := n.Float64Value()
		if err != nil || !f.Valid {
			return pgtype.Float8{}
		}
		return f
	default:
		return ParseNumber(strings.TrimSpace(fmt.Sprint(v)))
	}
}

// fieldInteger reads a scanned row value as an integer via ParseInteger
// semantics.
func fieldInteger(row map[string]any, key string) pgtype.Int4 {
	v, ok := row[key]
	if !ok || v == nil {
		return pgtype.Int4{}
	}
	switch n := v.(type) {
	case string:
		return ParseInteger(n)
	case int64:
		return pgtype.Int4{Int32: int32(n), Valid: true}
	case int32:
		return pgtype.Int4{Int32: n, Valid: true}
	case int:
		return pgtype.Int4{Int32: int32(n), Valid: true}
	case float64:
		if math.IsInf(n, 0) {
			return pgtype.Int4{}
		}
		return pgtype.Int4{Int32: int32(n), Valid: true}
	default:
		return ParseInteger(fmt.Sprint(v))
	}
}
