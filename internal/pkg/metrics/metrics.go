package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry guarda os coletores Prometheus da aplicação.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gofulfill",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Requisições HTTP em andamento.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gofulfill",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total de requisições HTTP atendidas.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gofulfill",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duração das requisições HTTP.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	ordersPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gofulfill",
			Subsystem: "orders",
			Name:      "placed_total",
			Help:      "Pedidos gravados no ledger, por armazém.",
		},
		[]string{"warehouse"},
	)

	unitsShipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gofulfill",
			Subsystem: "orders",
			Name:      "units_total",
			Help:      "Unidades baixadas do estoque por pedidos, por produto.",
		},
		[]string{"product"},
	)

	placementOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gofulfill",
			Subsystem: "orders",
			Name:      "placement_outcomes_total",
			Help:      "Resultado das tentativas de PlaceOrder.",
		},
		[]string{"outcome"},
	)

	placementDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "gofulfill",
			Subsystem: "orders",
			Name:      "placement_duration_seconds",
			Help:      "Duração de PlaceOrder, incluindo novas tentativas.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
	)

	restocks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gofulfill",
			Subsystem: "inventory",
			Name:      "restocks_total",
			Help:      "Reposições de estoque aplicadas, por armazém.",
		},
		[]string{"warehouse"},
	)

	lockTimeouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gofulfill",
			Subsystem: "inventory",
			Name:      "lock_timeouts_total",
			Help:      "Aquisições de lock que excederam o tempo de espera.",
		},
		[]string{"resource"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		ordersPlaced,
		unitsShipped,
		placementOutcomes,
		placementDuration,
		restocks,
		lockTimeouts,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler expõe as métricas registradas.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler envolve o handler com a coleta de métricas HTTP.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		path := routeTemplate(r)
		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

// Middleware adapta InstrumentHandler para router.Use.
func Middleware(next http.Handler) http.Handler {
	return InstrumentHandler(next)
}

// RecordOrderPlaced registra um pedido gravado com sucesso.
func RecordOrderPlaced(warehouse, product string, quantity int) {
	ordersPlaced.WithLabelValues(warehouse).Inc()
	unitsShipped.WithLabelValues(product).Add(float64(quantity))
}

// RecordPlacement registra o resultado final de PlaceOrder e sua duração.
func RecordPlacement(outcome string, duration time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	placementOutcomes.WithLabelValues(outcome).Inc()
	placementDuration.Observe(duration.Seconds())
}

// RecordRestock registra uma reposição aplicada.
func RecordRestock(warehouse string) {
	restocks.WithLabelValues(warehouse).Inc()
}

// RecordLockTimeout registra um lock não obtido no prazo.
func RecordLockTimeout(resource string) {
	lockTimeouts.WithLabelValues(resource).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// routeTemplate usa o template da rota do mux para não explodir a cardinalidade
// com IDs de armazém no path.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "other"
}
