package core

// convert.go provides the field parsers that turn loosely formatted export
// cells into typed values. They handle the messy reality of spreadsheet
// exports: comma decimal separators, stray currency characters, Portuguese
// long-form dates, and 2-digit years.
//
// All parsers return pgtype values with Valid=false for NULL, so the
// null-vs-value distinction survives all the way into the database.
//
// ParseNumber and ParseInteger are deliberately asymmetric: an empty or
// dash-only cell is 0.0 for numbers (data-entry convention in the source
// sheets) but NULL for integers. Do not "fix" this.

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

var (
	nonNumberChars  = regexp.MustCompile(`[^0-9.\-]`)
	nonIntegerChars = regexp.MustCompile(`[^0-9\-]`)

	// Portuguese long form: "18 de jan. de 2025", "1 de março de 2025".
	ptLongDate = regexp.MustCompile(`(?i)^(\d{1,2})\s+de\s+([a-zç]+)\.?\s*de\s+(\d{4})`)

	// Day-first short form with /, - or space separators.
	dayFirstDate = regexp.MustCompile(`^(\d{1,2})[\s/\-](\d{1,2})[\s/\-](\d{2,4})`)

	// First run of one or two digits anywhere in a time-ish string.
	leadingHour = regexp.MustCompile(`\d{1,2}`)
)

// ptMonths maps Portuguese month names (abbreviated and full, with and
// without diacritics for March) to month numbers.
var ptMonths = map[string]time.Month{
	"jan": time.January, "janeiro": time.January,
	"fev": time.February, "fevereiro": time.February,
	"mar": time.March, "março": time.March, "marco": time.March,
	"abr": time.April, "abril": time.April,
	"mai": time.May, "maio": time.May,
	"jun": time.June, "junho": time.June,
	"jul": time.July, "julho": time.July,
	"ago": time.August, "agosto": time.August,
	"set": time.September, "setembro": time.September,
	"out": time.October, "outubro": time.October,
	"nov": time.November, "novembro": time.November,
	"dez": time.December, "dezembro": time.December,
}

// isoLayouts cover the ISO-8601 shapes seen in real exports.
var isoLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseNumber converts a cell to a float. The comma decimal separator is
// replaced with a dot first, then every character outside [0-9.-] is
// stripped. An empty or dash/dot-only residue is 0.0, not NULL; anything
// that still fails to parse (or parses to an infinity) is NULL.
func ParseNumber(s string) pgtype.Float8 {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	cleaned = nonNumberChars.ReplaceAllString(cleaned, "")

	switch cleaned {
	case "", "-", "--", ".":
		return pgtype.Float8{Float64: 0, Valid: true}
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsInf(f, 0) {
		return pgtype.Float8{}
	}
	return pgtype.Float8{Float64: f, Valid: true}
}

// ParseInteger converts a cell to an integer after stripping everything
// outside [0-9-]. An empty or bare "-" residue is NULL (contrast with
// ParseNumber's zero fallback).
func ParseInteger(s string) pgtype.Int4 {
	cleaned := nonIntegerChars.ReplaceAllString(s, "")
	if cleaned == "" || cleaned == "-" {
		return pgtype.Int4{}
	}

	n, err := strconv.ParseInt(cleaned, 10, 32)
	if err != nil {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(n), Valid: true}
}

// NormalizeText trims whitespace; an empty result is NULL.
func NormalizeText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

// NormalizeDate converts a date cell to "YYYY-MM-DD" text. Rules are tried
// in order: ISO-8601, the Portuguese long form, then day-first short forms
// (2-digit years are prefixed with "20"). The first matching rule wins;
// no rule matching yields NULL.
func NormalizeDate(s string) pgtype.Text {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return pgtype.Text{}
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return pgtype.Text{String: t.Format("2006-01-02"), Valid: true}
		}
	}

	if m := ptLongDate.FindStringSubmatch(trimmed); m != nil {
		name := strings.TrimSuffix(strings.ToLower(m[2]), ".")
		if month, ok := ptMonths[name]; ok {
			day, _ := strconv.Atoi(m[1])
			return pgtype.Text{
				String: fmt.Sprintf("%s-%02d-%02d", m[3], int(month), day),
				Valid:  true,
			}
		}
	}

	if m := dayFirstDate.FindStringSubmatch(trimmed); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year := m[3]
		if len(year) == 2 {
			year = "20" + year
		}
		for len(year) < 4 {
			year = "0" + year
		}
		return pgtype.Text{
			String: fmt.Sprintf("%s-%02d-%02d", year, month, day),
			Valid:  true,
		}
	}

	return pgtype.Text{}
}
