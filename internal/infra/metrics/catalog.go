package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(catalogImages, catalogImportTotal) }

var (
	catalogImages = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_images",
			Help: "Number of records currently in the image catalog.",
		},
	)

	catalogImportTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_import_total",
			Help: "Files seen by catalog imports, by result.",
		},
		[]string{"result"}, // added | skipped | error
	)
)

func SetCatalogImages(n int) {
	catalogImages.Set(float64(n))
}

func IncCatalogImport(result string) {
	catalogImportTotal.WithLabelValues(norm(result)).Inc()
}

