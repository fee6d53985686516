package observability

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_fetches_total",
			Help: "Total de requisições ao site por resultado",
		},
		[]string{"result"},
	)

	URLsCollected = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scraper_urls_collected",
			Help: "URLs de produto únicas coletadas por categoria",
		},
		[]string{"category"},
	)

	ProductsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_products_total",
			Help: "Produtos processados por categoria e resultado",
		},
		[]string{"category", "result"},
	)

	EmbeddingsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "embeddings_total",
			Help: "Total de embeddings gerados",
		},
	)
)

// Start exposes /metrics on port in the background.
func Start(port string) {
	prometheus.MustRegister(FetchesTotal, URLsCollected, ProductsTotal, EmbeddingsTotal)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(":"+port, nil); err != nil {
			slog.Error("servidor de métricas parou", slog.Any("error", err))
		}
	}()
}
