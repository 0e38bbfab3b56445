package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes the bot's counters on the default prometheus registry,
// scraped by the observability server's /metrics endpoint.
type Recorder struct {
	fetchTotal  *prometheus.CounterVec
	actionTotal *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	return &Recorder{
		fetchTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plandesk",
			Subsystem: "inbox",
			Name:      "fetch_total",
			Help:      "Inbox fetch cycles by result.",
		}, []string{"result"}),
		actionTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plandesk",
			Subsystem: "inbox",
			Name:      "actions_total",
			Help:      "Admin actions by kind and result.",
		}, []string{"action", "result"}),
	}
}

func (r *Recorder) ObserveFetch(err error) {
	r.fetchTotal.WithLabelValues(result(err)).Inc()
}

func (r *Recorder) ObserveAction(action string, err error) {
	r.actionTotal.WithLabelValues(action, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
