package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/entregaops/deliverypay/internal/store"
)

// ErrTooFewLines is returned when an upload has no data rows under the
// header.
var ErrTooFewLines = errors.New("csv has fewer than two lines")

// PipelineConfig carries the tunables for a processing run. Zero values are
// replaced with the defaults below.
type PipelineConfig struct {
	DeliveryBatchSize int
	PaymentBatchSize  int
	ScanPageSize      int
	DateWarnLimit     int
	Workers           int
}

const (
	defaultDeliveryBatchSize = 500
	defaultPaymentBatchSize  = 200
	defaultScanPageSize      = 1000
	defaultDateWarnLimit     = 4
)

func (c PipelineConfig) withDefaults() PipelineConfig {
	if c.DeliveryBatchSize <= 0 {
		c.DeliveryBatchSize = defaultDeliveryBatchSize
	}
	if c.PaymentBatchSize <= 0 {
		c.PaymentBatchSize = defaultPaymentBatchSize
	}
	if c.ScanPageSize <= 0 {
		c.ScanPageSize = defaultScanPageSize
	}
	if c.DateWarnLimit <= 0 {
		c.DateWarnLimit = defaultDateWarnLimit
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	return c
}

// Result summarizes a completed processing run.
type Result struct {
	SourceFile         string `json:"source_file"`
	Format             Format `json:"format"`
	InsertedDeliveries int    `json:"inserted_deliveries"`
	InsertedPayments   int    `json:"inserted_payments"`
	DateWarnings       int    `json:"date_warnings"`
}

// Pipeline runs the two-stage flow for one upload: normalize and persist the
// delivery rows, then recompute payments for every persisted delivery row
// against the current pricing table.
type Pipeline struct {
	store store.Store
	cfg   PipelineConfig
	log   *slog.Logger
}

func NewPipeline(st store.Store, cfg PipelineConfig, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{store: st, cfg: cfg.withDefaults(), log: log}
}

// Run processes one uploaded CSV end to end. The payment stage reads the
// delivery table back from the store rather than reusing the in-memory rows,
// so payments always cover everything persisted so far, not just this
// upload.
func (p *Pipeline) Run(ctx context.Context, fileName string, data []byte) (*Result, error) {
	log := p.log.With(slog.String("file", fileName))

	reader := csv.NewReader(NewCSVInputReader(bytes.NewReader(data)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	lines, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(lines) < 2 {
		return nil, ErrTooFewLines
	}

	headers := lines[0]
	rows := lines[1:]
	format := DetectFormat(headers)
	log.Info("detected csv format",
		slog.String("format", string(format)),
		slog.Int("columns", len(headers)),
		slog.Int("rows", len(rows)))

	warn := NewWarnCounter(p.cfg.DateWarnLimit)
	records, err := p.normalize(ctx, format, headers, rows, warn, log)
	if err != nil {
		return nil, err
	}

	inserted, err := p.insertDeliveries(ctx, records)
	if err != nil {
		return nil, err
	}
	log.Info("persisted delivery rows", slog.Int("rows", inserted))

	payments, err := p.computePayments(ctx, fileName, log)
	if err != nil {
		return nil, err
	}

	paid, err := p.insertPayments(ctx, payments)
	if err != nil {
		return nil, err
	}
	log.Info("persisted payment rows", slog.Int("rows", paid))

	return &Result{
		SourceFile:         fileName,
		Format:             format,
		InsertedDeliveries: inserted,
		InsertedPayments:   paid,
		DateWarnings:       warn.Count(),
	}, nil
}

// normalize converts raw CSV rows to canonical records, fanning the work out
// across workers while keeping the output in input order.
func (p *Pipeline) normalize(ctx context.Context, format Format, headers []string, rows [][]string, warn *WarnCounter, log *slog.Logger) ([]Record, error) {
	norm := NewNormalizer(format, headers, warn, log)
	records := make([]Record, len(rows))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	for i, row := range rows {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			// Line numbers are 1-based and include the header.
			records[i] = norm.Row(i+2, row)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

func (p *Pipeline) insertDeliveries(ctx context.Context, records []Record) (int, error) {
	def := mustTable(TableDelivery)

	inserted := 0
	for start := 0; start < len(records); start += p.cfg.DeliveryBatchSize {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}

		end := min(start+p.cfg.DeliveryBatchSize, len(records))
		batch := make([][]any, 0, end-start)
		for _, rec := range records[start:end] {
			batch = append(batch, def.BuildRow(rec))
		}

		if err := p.store.InsertBatch(ctx, def.Key, def.Columns, batch); err != nil {
			return inserted, &store.BatchError{
				Table:         def.Key,
				Batch:         start/p.cfg.DeliveryBatchSize + 1,
				RowsCommitted: inserted,
				Err:           err,
			}
		}
		inserted += end - start
		p.log.Debug("committed batch",
			slog.String("table", def.Key),
			slog.Int("batch", start/p.cfg.DeliveryBatchSize+1),
			slog.Int("rows", inserted))
	}
	return inserted, nil
}

// computePayments loads the full delivery table and the pricing table, then
// derives one payment row per delivery row.
func (p *Pipeline) computePayments(ctx context.Context, fileName string, log *slog.Logger) ([]Payment, error) {
	pricingRows, err := p.store.ScanOrdered(ctx, TablePricing, mustTable(TablePricing).OrderColumn, p.cfg.ScanPageSize)
	if err != nil {
		return nil, fmt.Errorf("load pricing table: %w", err)
	}
	pricing := BuildPricingTable(pricingRows)
	log.Info("loaded pricing table", slog.Int("entries", len(pricingRows)))

	deliveryRows, err := p.store.ScanOrdered(ctx, TableDelivery, mustTable(TableDelivery).OrderColumn, p.cfg.ScanPageSize)
	if err != nil {
		return nil, fmt.Errorf("scan delivery rows: %w", err)
	}

	sourcePath := "upload/" + filepath.Base(fileName)
	payments := make([]Payment, len(deliveryRows))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i, row := range deliveryRows {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			payments[i] = CalculatePayment(row, pricing, sourcePath, i+1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return payments, nil
}

func (p *Pipeline) insertPayments(ctx context.Context, payments []Payment) (int, error) {
	def := mustTable(TablePayments)

	inserted := 0
	for start := 0; start < len(payments); start += p.cfg.PaymentBatchSize {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}

		end := min(start+p.cfg.PaymentBatchSize, len(payments))
		batch := make([][]any, 0, end-start)
		for _, pay := range payments[start:end] {
			batch = append(batch, def.BuildRow(pay))
		}

		if err := p.store.InsertBatch(ctx, def.Key, def.Columns, batch); err != nil {
			return inserted, &store.BatchError{
				Table:         def.Key,
				Batch:         start/p.cfg.PaymentBatchSize + 1,
				RowsCommitted: inserted,
				Err:           err,
			}
		}
		inserted += end - start
		p.log.Debug("committed batch",
			slog.String("table", def.Key),
			slog.Int("batch", start/p.cfg.PaymentBatchSize+1),
			slog.Int("rows", inserted))
	}
	return inserted, nil
}
