package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		telegramCommandsReceivedTotal,
		telegramRateLimitTriggeredTotal,
		telegramHandlerErrorsTotal,
		imagesServedTotal,
	)
}

var (
	telegramCommandsReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_commands_received_total",
			Help: "Counts incoming commands and button clicks from users.",
		},
		[]string{"command"},
	)

	telegramRateLimitTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_rate_limit_triggered_total",
			Help: "Total number of times users have been rate-limited.",
		},
	)

	telegramHandlerErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_handler_errors_total",
			Help: "Update handlers that failed or panicked.",
		},
		[]string{"kind"}, // error | panic
	)

	imagesServedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "images_served_total",
			Help: "Random image requests by outcome.",
		},
		[]string{"result"}, // photo | missing_file | empty
	)
)

func IncTelegramCommand(command string) {
	telegramCommandsReceivedTotal.WithLabelValues(norm(command)).Inc()
}

func IncRateLimitTriggered() {
	telegramRateLimitTriggeredTotal.Inc()
}

func IncHandlerError(kind string) {
	telegramHandlerErrorsTotal.WithLabelValues(norm(kind)).Inc()
}

func IncImageServed(result string) {
	imagesServedTotal.WithLabelValues(norm(result)).Inc()
}
