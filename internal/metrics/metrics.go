package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"order-relay/internal/config"
)

// Version is stamped at build time via -ldflags.
var Version = "0.0.0"

var buildInfo = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "order_relay_info",
		Help: "Version and backends (Redis, RabbitMQ) used by order-relay",
	},
	[]string{"version", "redis_addr", "rabbitmq_host", "rabbitmq_port"},
)

func init() {
	prometheus.MustRegister(buildInfo)
}

// SetBuildInfo exposes the configured backends without credentials.
func SetBuildInfo(cfg config.App) {
	buildInfo.WithLabelValues(
		Version,
		cfg.Redis.Addr,
		cfg.RabbitMQ.Host,
		strconv.Itoa(cfg.RabbitMQ.Port),
	).Set(1)
}

func Handler() http.Handler { return promhttp.Handler() }
