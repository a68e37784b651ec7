package tables

import "github.com/entregaops/deliverypay/internal/core"

// pagamento_delivery holds one computed payment per delivery row, plus the
// raw source row for auditing.
func registerPagamentoDelivery() {
	core.RegisterTable(core.TableDefinition{
		Key: core.TablePayments,
		Columns: []string{
			"source_path",
			"source_line",
			"data_entrega",
			"svc",
			"tipo_regiao",
			"tipo_periodo",
			"tipo_veiculo",
			"apoio",
			"placa_veiculo",
			"driver_id",
			"hora_inicio",
			"hora_fim",
			"paradas",
			"pacotes",
			"tarifa_base",
			"bonus_paradas",
			"bonus_pacotes",
			"adicional_km",
			"bonus_sdd",
			"outro_bonus",
			"valor_total",
			"observacoes",
			"raw_row",
		},
		BuildRow: func(v any) []any {
			p := v.(core.Payment)
			return []any{
				p.SourcePath,
				p.SourceLine,
				p.DataEntrega,
				p.Svc,
				string(p.Region),
				string(p.Period),
				p.VehicleType,
				p.Support,
				p.Plate,
				p.DriverID,
				p.HoraInicio,
				p.HoraFim,
				p.Stops,
				p.Packages,
				p.BaseTariff,
				p.StopBonus,
				p.PackageBonus,
				p.PerKM,
				p.FlatBonus,
				p.OtherBonus,
				p.Total,
				p.Notes,
				p.Raw,
			}
		},
	})
}
