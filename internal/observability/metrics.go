package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	framesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskctl",
			Subsystem: "transport",
			Name:      "frames_sent_total",
			Help:      "Frames handed to the serial writer, by kind.",
		},
		[]string{"kind"},
	)
	bytesWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "taskctl",
			Subsystem: "transport",
			Name:      "bytes_written_total",
			Help:      "Bytes written to the serial device.",
		},
	)
	bytesRead = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "taskctl",
			Subsystem: "transport",
			Name:      "bytes_read_total",
			Help:      "Bytes drained from the serial device.",
		},
	)
	transientErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskctl",
			Subsystem: "transport",
			Name:      "transient_errors_total",
			Help:      "Transient read/write errors on the open connection.",
		},
		[]string{"op"},
	)
	writeRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "taskctl",
			Subsystem: "transport",
			Name:      "write_retries_total",
			Help:      "Byte writes retried after a transient error.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(framesSent, bytesWritten, bytesRead, transientErrors, writeRetries)
	})
}

func RecordFrameSent(kind string) {
	RegisterMetrics()
	framesSent.WithLabelValues(kind).Inc()
}

func RecordBytesWritten(n int) {
	RegisterMetrics()
	bytesWritten.Add(float64(n))
}

func RecordBytesRead(n int) {
	RegisterMetrics()
	bytesRead.Add(float64(n))
}

func RecordTransientError(op string) {
	RegisterMetrics()
	transientErrors.WithLabelValues(op).Inc()
}

func RecordWriteRetry() {
	RegisterMetrics()
	writeRetries.Inc()
}
