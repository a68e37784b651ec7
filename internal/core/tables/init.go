// Package tables registers the store tables the pipeline reads and writes.
// Import for side effects:
//
//	import _ "github.com/entregaops/deliverypay/internal/core/tables"
package tables

func init() {
	registerDeliverySuccess()
	registerPagamentoDelivery()
	registerValoresMeli()
}
