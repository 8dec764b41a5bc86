package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Contadores de negocio expuestos en /metrics (registro global de prometheus).
var (
	// MovementsTotal asientos en el libro por tipo (IN, OUT, TRANSFER).
	MovementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ventas",
		Name:      "movements_total",
		Help:      "Movimientos de inventario asentados, por tipo.",
	}, []string{"type"})

	// SalesCreatedTotal ventas confirmadas.
	SalesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ventas",
		Name:      "sales_created_total",
		Help:      "Ventas creadas exitosamente.",
	})

	// SaleConflictsTotal asignaciones perdidas por carrera o stock insuficiente
	// detectado a nivel de unidad dentro de la transacción.
	SaleConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ventas",
		Name:      "sale_conflicts_total",
		Help:      "Ventas abortadas en la asignación de unidades.",
	})
)
