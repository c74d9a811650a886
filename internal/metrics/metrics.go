// Package metrics exposes the prometheus collectors for the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ToolsRegistered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toolcrib_tools_registered_total",
		Help: "Tools registered, by workshop.",
	}, []string{"workshop"})

	Checkouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toolcrib_checkouts_total",
		Help: "Tool checkouts, by workshop.",
	}, []string{"workshop"})

	Checkins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toolcrib_checkins_total",
		Help: "Tool check-ins, by workshop and outcome (ok, incident).",
	}, []string{"workshop", "outcome"})

	AccessDenied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toolcrib_access_denied_total",
		Help: "Requests refused by the workshop access checks, by action.",
	}, []string{"action"})

	BarcodeRenders = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toolcrib_barcode_renders_total",
		Help: "Barcode image requests, by cache result (hit, miss).",
	}, []string{"cache"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
