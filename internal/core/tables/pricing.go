package tables

import "github.com/entregaops/deliverypay/internal/core"

// valores_meli is the pricing table. The pipeline only reads it; the
// ordered scan keeps runs deterministic when vehicle types collide on the
// support-wildcard key.
func registerValoresMeli() {
	core.RegisterTable(core.TableDefinition{
		Key:         core.TablePricing,
		OrderColumn: "tipo_de_veiculo",
	})
}
