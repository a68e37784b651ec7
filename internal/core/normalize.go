package core

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgtype"
)

// HeaderIndex maps lower-cased, trimmed column names to their position in
// the CSV row.
type HeaderIndex map[string]int

// MakeHeaderIndex builds a HeaderIndex from a header row. Built once per
// file and reused for every row.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

// WarnCounter caps the number of date-conversion warnings emitted per run,
// so a file full of bad dates does not flood the log. It is passed through
// the pipeline explicitly; there is no package-level warning state.
type WarnCounter struct {
	mu    sync.Mutex
	limit int
	seen  int
}

// NewWarnCounter returns a counter that allows limit warnings.
func NewWarnCounter(limit int) *WarnCounter {
	return &WarnCounter{limit: limit}
}

// Allow reports whether one more warning may be emitted, consuming a slot
// if so.
func (w *WarnCounter) Allow() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen >= w.limit {
		return false
	}
	w.seen++
	return true
}

// Count returns the number of warnings emitted so far.
func (w *WarnCounter) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.seen
}

// Normalizer converts raw CSV rows of either export layout into canonical
// Records. It is safe for concurrent use across rows: the header index and
// format are read-only after construction, and the warn counter locks
// internally.
type Normalizer struct {
	format    Format
	headerIdx HeaderIndex
	warn      *WarnCounter
	log       *slog.Logger
}

// NewNormalizer builds a Normalizer for one file. The header row is only
// consulted on the new path; the old path is purely positional.
func NewNormalizer(format Format, header []string, warn *WarnCounter, log *slog.Logger) *Normalizer {
	return &Normalizer{
		format:    format,
		headerIdx: MakeHeaderIndex(header),
		warn:      warn,
		log:       log,
	}
}

// Row normalizes one data row. line is the 1-based CSV line number (the
// first data row is line 2) and is used for warning attribution only.
// Malformed cells degrade to NULL or zero; Row never fails.
func (n *Normalizer) Row(line int, values []string) Record {
	if n.format == FormatNew {
		return n.newRow(line, values)
	}
	return n.oldRow(line, values)
}

// oldRow maps cells positionally onto the canonical column list. Missing
// trailing cells are NULL. Every field is normalized text except the date.
func (n *Normalizer) oldRow(line int, values []string) Record {
	rec := make(Record, len(deliveryColumns))

	for i, col := range deliveryColumns {
		if i >= len(values) {
			rec[col] = pgtype.Text{}
			continue
		}
		raw := strings.TrimSpace(values[i])
		if col == ColDataEntrega {
			rec[col] = n.date(line, raw)
			continue
		}
		rec[col] = NormalizeText(raw)
	}

	return rec
}

// newRow maps cells by header name using the declarative rename tables in
// record.go, then fills the canonical columns the new layout lacks.
func (n *Normalizer) newRow(line int, values []string) Record {
	rec := make(Record, len(deliveryColumns))

	cell := func(name string) (string, bool) {
		idx, ok := n.headerIdx[name]
		if !ok || idx >= len(values) {
			return "", false
		}
		return values[idx], true
	}

	for newName, col := range newFormatRenames {
		if v, ok := cell(newName); ok {
			rec[col] = NormalizeText(v)
		}
	}

	if v, ok := cell("ciclo"); ok {
		rec[ColCicloFinal] = NormalizeText(v)
	}
	if v, ok := cell("cluster"); ok {
		rec[ColClus] = NormalizeText(v)
	}

	if v, ok := cell("total de insucessos"); ok {
		rec[ColInsucessos] = NormalizeText(v)
	} else if v, ok := cell("total_insucessos"); ok {
		rec[ColInsucessos] = NormalizeText(v)
	}

	// Failure counts default to 0, never NULL, so sums over them stay
	// well-defined even when the exporter drops a column.
	for newName, col := range newFormatFailureCounts {
		count := pgtype.Int4{Valid: true}
		if v, ok := cell(newName); ok {
			if parsed := ParseInteger(v); parsed.Valid {
				count = parsed
			}
		}
		rec[col] = count
	}

	if v, ok := cell("outros motivos"); ok {
		rec[ColOutros] = NormalizeText(v)
	} else if v, ok := cell("outros_motivos"); ok {
		rec[ColOutros] = NormalizeText(v)
	} else {
		rec[ColOutros] = pgtype.Text{}
	}

	for _, col := range newFormatMissing {
		rec[col] = pgtype.Text{}
	}

	if date := rec.Text(ColDataEntrega); date.Valid {
		rec[ColDataEntrega] = n.date(line, date.String)
	}

	// Every canonical column is present even when the source lacks it.
	for _, col := range deliveryColumns {
		if _, ok := rec[col]; !ok {
			rec[col] = pgtype.Text{}
		}
	}

	return rec
}

// date normalizes a date cell, logging a capped warning when a non-empty
// value cannot be converted.
func (n *Normalizer) date(line int, raw string) pgtype.Text {
	normalized := NormalizeDate(raw)
	if !normalized.Valid && n.warn.Allow() {
		n.log.Warn("could not convert date, storing NULL",
			"line", line,
			"value", raw,
		)
	}
	return normalized
}
