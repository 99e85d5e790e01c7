package session

import "github.com/prometheus/client_golang/prometheus"

// Outcome labels for auth counters.
const (
	resultSuccess  = "success"
	resultRejected = "rejected"
	resultInvalid  = "invalid_input"
	resultError    = "error"
)

// Metrics counts authentication outcomes. A nil *Metrics records nothing.
type Metrics struct {
	logins  *prometheus.CounterVec
	resumes *prometheus.CounterVec
	logouts prometheus.Counter
}

// NewMetrics registers the auth counters on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "estate",
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Credential login attempts by result.",
		}, []string{"result"}),
		resumes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "estate",
			Subsystem: "auth",
			Name:      "token_resumes_total",
			Help:      "Remember-token resume attempts by result.",
		}, []string{"result"}),
		logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "estate",
			Subsystem: "auth",
			Name:      "logouts_total",
			Help:      "Logouts.",
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.logins, m.resumes, m.logouts} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) login(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) resume(result string) {
	if m == nil {
		return
	}
	m.resumes.WithLabelValues(result).Inc()
}

func (m *Metrics) logout() {
	if m == nil {
		return
	}
	m.logouts.Inc()
}
