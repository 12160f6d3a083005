package metrics

import "github.com/prometheus/client_golang/prometheus"

// CartMetrics counts cart mutations and session store failures.
type CartMetrics struct {
	mutations    *prometheus.CounterVec
	storeErrors  *prometheus.CounterVec
	restoreDrops prometheus.Counter
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by operation.",
	}, []string{"op"})
	storeErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "session_store_errors_total",
		Help: "Session store failures by operation.",
	}, []string{"op"})
	restoreDrops := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_restore_discarded_total",
		Help: "Stored carts discarded because they could not be decoded.",
	})
	reg.MustRegister(mutations, storeErrors, restoreDrops)
	return &CartMetrics{
		mutations:    mutations,
		storeErrors:  storeErrors,
		restoreDrops: restoreDrops,
	}
}

func (c *CartMetrics) IncMutation(op string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(op)).Inc()
}

func (c *CartMetrics) IncStoreError(op string) {
	if c == nil || c.storeErrors == nil {
		return
	}
	c.storeErrors.WithLabelValues(normalizeLabel(op)).Inc()
}

func (c *CartMetrics) IncRestoreDiscarded() {
	if c == nil || c.restoreDrops == nil {
		return
	}
	c.restoreDrops.Inc()
}
