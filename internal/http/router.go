package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/multiblog/internal/metrics"
	"github.com/dropDatabas3/multiblog/internal/observability/logger"
	core "github.com/dropDatabas3/multiblog/internal/store/core"
	"github.com/dropDatabas3/multiblog/internal/xmlrpc"
)

// RPCHooks arma los hooks de observabilidad del server XML-RPC: métricas
// siempre, logs de llamada y fault según lo configurado (equivalentes a los
// viejos switches log_calls / log_errors).
func RPCHooks(logCalls, logFaults bool) xmlrpc.Hooks {
	return xmlrpc.Hooks{
		OnCall: func(method string) {
			metrics.XMLRPCCalls.WithLabelValues(method).Inc()
			if logCalls {
				logger.L().Named("xmlrpc").Info("call", logger.RPCMethod(method))
			}
		},
		OnFault: func(method string, f *xmlrpc.Fault) {
			metrics.XMLRPCFaults.WithLabelValues(method, strconv.Itoa(f.Code)).Inc()
			if logFaults {
				logger.L().Named("xmlrpc").Warn("fault",
					logger.RPCMethod(method), logger.FaultCode(f.Code), logger.Err(f))
			}
		},
		OnDone: func(method string, d time.Duration) {
			metrics.XMLRPCDuration.WithLabelValues(method).Observe(d.Seconds())
		},
	}
}

// NewRouter arma el router completo del servicio.
func NewRouter(rpcSrv *xmlrpc.Server, st core.Store) http.Handler {
	r := chi.NewRouter()

	r.Method(http.MethodPost, "/xmlrpc",
		Chain(rpcSrv, WithRequestID(), WithLogging()))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if err := st.Ping(req.Context()); err != nil {
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
