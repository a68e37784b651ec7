package core

import "github.com/jackc/pgx/v5/pgtype"

// Canonical delivery_success column names referenced by the normalizer and
// the payment pass.
const (
	ColDataEntrega = "data_entrega"
	ColSvc         = "svc"
	ColCicloFinal  = "ciclo_final"
	ColClus        = "clus"
	ColVeiculo     = "veiculo"
	ColHoraInicio  = "hora_inicio"
	ColHoraFim     = "hora_fim"
	ColParada      = "parada"
	ColPacotes     = "pacotes"
	ColInsucessos  = "insucessos"
	ColOutros      = "outros"
)

// deliveryColumns is the canonical delivery_success column order. The old
// export format uses exactly this order positionally, so the list doubles
// as the positional mapping table.
var deliveryColumns = []string{
	ColDataEntrega,
	ColSvc,
	"xpt",
	"mlp",
	"rotas",
	ColCicloFinal,
	ColClus,
	"driver",
	"placa",
	"id_veiculo",
	ColVeiculo,
	ColHoraInicio,
	ColHoraFim,
	ColParada,
	ColPacotes,
	"entregue",
	ColInsucessos,
	"ds",
	"orh_hours",
	"nao_visitado",
	"end_fechado",
	"cli_ausente",
	"mudou_se",
	"recusado",
	"avariado",
	"end_inacessivel",
	"falha",
	"roubado",
	"end_errado",
	ColOutros,
	"outros_insucessos_nao_mapeados",
	"at_station_problem_solving",
	"at_station",
	"at_station_aduana",
	"at_station_dev_buyer",
	"blocked_by_keyword",
}

// DeliveryColumns returns the canonical column order for delivery_success.
func DeliveryColumns() []string {
	cols := make([]string, len(deliveryColumns))
	copy(cols, deliveryColumns)
	return cols
}

// Record is one canonical delivery row, keyed by delivery_success column
// name. Every canonical column is always present: absent source cells are
// stored as invalid (NULL) pgtype values, never omitted. Values are
// pgtype.Text except the failure counts the new format parses to
// pgtype.Int4.
//
// A Record is built once per CSV data line and never mutated afterwards.
type Record map[string]any

// Values returns the record's values in canonical column order, ready for
// a COPY or multi-row insert.
func (r Record) Values() []any {
	vals := make([]any, len(deliveryColumns))
	for i, col := range deliveryColumns {
		vals[i] = r[col]
	}
	return vals
}

// Text returns the named column as text. Int4 values (the new format's
// failure counts) are not texts and come back NULL.
func (r Record) Text(col string) pgtype.Text {
	if t, ok := r[col].(pgtype.Text); ok {
		return t
	}
	return pgtype.Text{}
}

// newFormatRenames maps lower-cased new-format header names to canonical
// columns for the ~18 concepts both layouts share. Both diacritic spellings
// of the vehicle column appear in the wild.
var newFormatRenames = map[string]string{
	"data":               ColDataEntrega,
	"svc":                ColSvc,
	"xpt":                "xpt",
	"mlp":                "mlp",
	"rotas":              "rotas",
	"driver":             "driver",
	"placa":              "placa",
	"id_veiculo":         "id_veiculo",
	"veículo":            ColVeiculo,
	"veiculo":            ColVeiculo,
	"hora_inicio":        ColHoraInicio,
	"hora_fim":           ColHoraFim,
	"parada":             ColParada,
	"pacotes":            ColPacotes,
	"entregue":           "entregue",
	"ds":                 "ds",
	"orh_hours":          "orh_hours",
	"at_station":         "at_station",
	"blocked_by_keyword": "blocked_by_keyword",
}

// newFormatFailureCounts maps the new format's per-reason failure columns
// to their canonical counterparts. These are parsed as integers and default
// to 0 when the column is absent, so downstream sums stay well-defined.
var newFormatFailureCounts = map[string]string{
	"inaccessible_address": "end_inacessivel",
	"buyer_rejected":       "recusado",
	"buyer_moved":          "mudou_se",
	"buyer_absent":         "cli_ausente",
	"business_closed":      "end_fechado",
	"bad_address":          "end_errado",
	"not_attempted":        "nao_visitado",
}

// newFormatMissing lists canonical columns with no equivalent in the new
// layout. They are always NULL on the new path.
var newFormatMissing = []string{
	"avariado",
	"falha",
	"roubado",
	"outros_insucessos_nao_mapeados",
	"at_station_problem_solving",
	"at_station_aduana",
	"at_station_dev_buyer",
}
