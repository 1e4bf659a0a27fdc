package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	pageStartedTotal   atomic.Uint64
	pageCompletedTotal atomic.Uint64
	pageFailedTotal    atomic.Uint64
	pageAttemptsTotal  atomic.Uint64
	repairCyclesTotal  atomic.Uint64

	pageJobsReceivedTotal             atomic.Uint64
	pageJobsCompletedTotal            atomic.Uint64
	pageJobsFailedTotal               atomic.Uint64
	pageJobsDeletedUnrecoverableTotal atomic.Uint64

	pageDuration = newHistogram([]float64{1000, 2500, 5000, 10000, 20000, 45000, 90000, 180000, 300000})
)

// IncPageStarted increments the started counter.
func IncPageStarted() {
	pageStartedTotal.Add(1)
}

// IncPageCompleted increments the completed counter.
func IncPageCompleted() {
	pageCompletedTotal.Add(1)
}

// IncPageFailed increments the failed counter.
func IncPageFailed() {
	pageFailedTotal.Add(1)
}

// AddPageAttempts records how many generation attempts a page consumed.
func AddPageAttempts(n int) {
	if n > 0 {
		pageAttemptsTotal.Add(uint64(n))
	}
}

// IncRepairCycles increments the repair cycle counter.
func IncRepairCycles() {
	repairCyclesTotal.Add(1)
}

// ObservePageDurationMs records a page generation duration in milliseconds.
func ObservePageDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	pageDuration.Observe(value)
}

// IncPageJobsReceived increments the queue jobs received counter.
func IncPageJobsReceived() {
	pageJobsReceivedTotal.Add(1)
}

// IncPageJobsCompleted increments the queue jobs completed counter.
func IncPageJobsCompleted() {
	pageJobsCompletedTotal.Add(1)
}

// IncPageJobsFailed increments the queue jobs failed counter.
func IncPageJobsFailed() {
	pageJobsFailedTotal.Add(1)
}

// IncPageJobsDeletedUnrecoverable counts malformed messages dropped from the queue.
func IncPageJobsDeletedUnrecoverable() {
	pageJobsDeletedUnrecoverableTotal.Add(1)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "page_started_total", "Total page generations started", pageStartedTotal.Load())
	writeCounter(&buf, "page_completed_total", "Total page generations completed", pageCompletedTotal.Load())
	writeCounter(&buf, "page_failed_total", "Total page generations failed", pageFailedTotal.Load())
	writeCounter(&buf, "page_attempts_total", "Total generation attempts across all pages", pageAttemptsTotal.Load())
	writeCounter(&buf, "repair_cycles_total", "Total repair cycles executed", repairCyclesTotal.Load())
	writeCounter(&buf, "page_jobs_received_total", "Total queue jobs received", pageJobsReceivedTotal.Load())
	writeCounter(&buf, "page_jobs_completed_total", "Total queue jobs completed", pageJobsCompletedTotal.Load())
	writeCounter(&buf, "page_jobs_failed_total", "Total queue jobs failed", pageJobsFailedTotal.Load())
	writeCounter(&buf, "page_jobs_deleted_unrecoverable_total", "Total malformed queue jobs dropped", pageJobsDeletedUnrecoverableTotal.Load())
	writeHistogram(&buf, "page_duration_ms", "Page generation duration in milliseconds", pageDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
