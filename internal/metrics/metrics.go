// Package metrics registers the service's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	IngestsTotal     *prometheus.CounterVec
	AttachmentsTotal *prometheus.CounterVec
	EventsExtracted  prometheus.Counter
	RowsAppended     prometheus.Counter
}

// New creates and registers the metric set on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		IngestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flyerdrop",
			Name:      "ingests_total",
			Help:      "Inbound emails processed, by final status",
		}, []string{"status"}),
		AttachmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flyerdrop",
			Name:      "attachments_total",
			Help:      "Image attachments processed, by outcome",
		}, []string{"outcome"}),
		EventsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flyerdrop",
			Name:      "events_extracted_total",
			Help:      "Events extracted from flyer images",
		}),
		RowsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flyerdrop",
			Name:      "rows_appended_total",
			Help:      "Rows appended to the destination spreadsheet",
		}),
	}
	reg.MustRegister(m.IngestsTotal, m.AttachmentsTotal, m.EventsExtracted, m.RowsAppended)
	return m
}
