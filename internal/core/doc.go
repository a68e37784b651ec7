// Package core implements the delivery-pay processing engine.
//
// The package contains all domain logic independent of any transport layer:
// CSV format detection, normalization of raw export rows into the canonical
// delivery_success shape, pricing resolution against the valores_meli table,
// and per-record payment calculation.
//
// # Processing flow
//
//  1. [Pipeline.Run] parses the uploaded CSV and detects its layout
//     ([DetectFormat]): the legacy positional export ("old") or the
//     name-mapped export ("new").
//  2. A [Normalizer] converts every data row into a [Record] with the full
//     canonical column set. Malformed cells degrade to NULL (or zero, for
//     failure counts); they never abort the run.
//  3. Canonical rows are inserted into delivery_success in batches.
//  4. All delivery rows and the valores_meli pricing rows are scanned back
//     through the store, a [PricingTable] is built, and [CalculatePayment]
//     produces one pagamento_delivery row per delivery row.
//
// # Error handling
//
// Only two conditions abort a run: a file with fewer than two lines
// ([ErrTooFewLines]) and a store failure (wrapped in [store.BatchError]
// with the batch number and rows already committed). Everything at the cell
// level is recovered locally.
//
// Persistence goes through the store.Store collaborator, which the pipeline
// driver invokes around, never inside, the pure transform functions.
package core
