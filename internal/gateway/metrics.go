package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chatExchanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hostelmess_chat_exchanges_total",
		Help: "Chat exchanges relayed to the webhook, by outcome.",
	}, []string{"outcome"})

	mealSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hostelmess_meal_submissions_total",
		Help: "Meal orders forwarded to the webhook, by outcome.",
	}, []string{"outcome"})

	historyFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hostelmess_history_fetches_total",
		Help: "Meal history fetches, by outcome.",
	}, []string{"outcome"})
)
