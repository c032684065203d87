package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// IPNCallbackTotal counts processed gateway callbacks by outcome.
	IPNCallbackTotal *prometheus.CounterVec
	// RedirectBuildTotal counts hosted-payment redirect form builds by result.
	RedirectBuildTotal *prometheus.CounterVec
	// RepostCheckTotal counts repost eligibility checks by decision.
	RepostCheckTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers payment-specific
// Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		IPNCallbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ipn_callback_total",
			Help:      "Count of processed payment notifications by outcome.",
		}, []string{"outcome"})
		RedirectBuildTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirect_build_total",
			Help:      "Count of gateway redirect form builds by result.",
		}, []string{"result"})
		RepostCheckTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repost_check_total",
			Help:      "Count of payment repost eligibility checks by decision.",
		}, []string{"allowed"})

		mustRegisterCollector(reg, IPNCallbackTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				IPNCallbackTotal = v
			}
		})
		mustRegisterCollector(reg, RedirectBuildTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				RedirectBuildTotal = v
			}
		})
		mustRegisterCollector(reg, RepostCheckTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				RepostCheckTotal = v
			}
		})
	})
}
