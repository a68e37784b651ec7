package tables

import "github.com/entregaops/deliverypay/internal/core"

// delivery_success holds the canonical normalized rows. Ordered scans for
// the payment pass sort by delivery date, matching insertion semantics of
// the reporting queries downstream.
func registerDeliverySuccess() {
	core.RegisterTable(core.TableDefinition{
		Key:         core.TableDelivery,
		Columns:     core.DeliveryColumns(),
		OrderColumn: core.ColDataEntrega,
		BuildRow: func(v any) []any {
			return v.(core.Record).Values()
		},
	})
}
