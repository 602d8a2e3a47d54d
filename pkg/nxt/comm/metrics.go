package comm

import "github.com/VictoriaMetrics/metrics"

var (
	exchangesOK        = metrics.GetOrCreateCounter(`nxt_exchanges_total{result="ok"}`)
	exchangesFailed    = metrics.GetOrCreateCounter(`nxt_exchanges_total{result="error"}`)
	exchangesImmediate = metrics.GetOrCreateCounter(`nxt_exchanges_total{result="immediate"}`)
	exchangesRetried   = metrics.GetOrCreateCounter(`nxt_exchanges_retried_total`)
	readTimeoutsTotal  = metrics.GetOrCreateCounter(`nxt_read_timeouts_total`)
	framingErrorsTotal = metrics.GetOrCreateCounter(`nxt_framing_errors_total`)
	writeErrorsTotal   = metrics.GetOrCreateCounter(`nxt_write_errors_total`)
	statusChangesTotal = metrics.GetOrCreateCounter(`nxt_status_changes_total`)
	exchangeDuration   = metrics.GetOrCreateHistogram(`nxt_exchange_duration_seconds`)
)
