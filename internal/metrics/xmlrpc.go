package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	XMLRPCCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xmlrpc_calls_total",
		Help: "Llamadas XML-RPC atendidas, por método",
	}, []string{"method"})

	XMLRPCFaults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xmlrpc_faults_total",
		Help: "Faults XML-RPC devueltos, por método y código",
	}, []string{"method", "code"})

	XMLRPCDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "xmlrpc_call_duration_seconds",
		Help:    "Duración de cada llamada XML-RPC",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	}, []string{"method"})

	GroupSyncGrants = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "groupsync_grants_total",
		Help: "Membresías otorgadas por sincronización de grupos",
	})

	GroupSyncRemovals = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "groupsync_removals_total",
		Help: "Membresías removidas al dar de baja una regla",
	})
)

// Register registra las métricas en el registry dado (default si es nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{
		XMLRPCCalls, XMLRPCFaults, XMLRPCDuration, GroupSyncGrants, GroupSyncRemovals,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
