package exporter

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	METRIC_ERROR_COUNT       = "error_count"
	METRIC_RECONNECT_COUNT   = "bridge_reconnect_count"
	METRIC_EVENT_COUNT       = "bridge_event_count"
	METRIC_DECRYPT_FAILURES  = "bridge_decrypt_failure_count"
	METRIC_SENT_TRANSACTIONS = "sent_transaction_count"
	METRIC_EMULATION_FAILURE = "emulation_failure_count"
)

var (
	counters map[string]prometheus.Counter
)

func Init() {

	// --- Static Metrics: the metrics which are not depended on running configuration

	// Create metric spaces
	counters = make(map[string]prometheus.Counter)

	register := func(name string, help string) {
		counter := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wallet",
			Subsystem: "bridge",
			Name:      name,
			Help:      help,
		})
		prometheus.MustRegister(counter)
		counters[name] = counter
	}

	register(METRIC_ERROR_COUNT, "Counts unclassified failures")
	register(METRIC_RECONNECT_COUNT, "Counts bridge stream reconnect attempts")
	register(METRIC_EVENT_COUNT, "Counts decrypted bridge events")
	register(METRIC_DECRYPT_FAILURES, "Counts bridge events dropped for decryption failures")
	register(METRIC_SENT_TRANSACTIONS, "Counts broadcast transactions")
	register(METRIC_EMULATION_FAILURE, "Counts failed fee emulations")
}

func GetCounter(name string) prometheus.Counter {
	return counters[name]
}

func inc(name string) {
	if counter, ok := counters[name]; ok {
		counter.Inc()
	}
}

func IncErrorCount()        { inc(METRIC_ERROR_COUNT) }
func IncReconnectCount()    { inc(METRIC_RECONNECT_COUNT) }
func IncEventCount()        { inc(METRIC_EVENT_COUNT) }
func IncDecryptFailures()   { inc(METRIC_DECRYPT_FAILURES) }
func IncSentTransactions()  { inc(METRIC_SENT_TRANSACTIONS) }
func IncEmulationFailures() { inc(METRIC_EMULATION_FAILURE) }
