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
	documentsUploadedTotal             atomic.Uint64
	documentsUploadFailedTotal         atomic.Uint64
	documentsMetadataInsertFailedTotal atomic.Uint64
	processingNotifySentTotal          atomic.Uint64
	processingNotifyFailedTotal        atomic.Uint64
	listCacheHitsTotal                 atomic.Uint64
	listCacheMissesTotal               atomic.Uint64

	uploadBytes    = newHistogram([]float64{1 << 10, 16 << 10, 128 << 10, 512 << 10, 1 << 20, 4 << 20, 10 << 20})
	listDurationMs = newHistogram([]float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500})
)

// IncDocumentsUploaded counts a stored upload.
func IncDocumentsUploaded() {
	documentsUploadedTotal.Add(1)
}

// IncDocumentsUploadFailed counts an upload rejected by storage or an internal error.
func IncDocumentsUploadFailed() {
	documentsUploadFailedTotal.Add(1)
}

// IncMetadataInsertFailed counts uploads whose blob was stored but whose row insert failed.
func IncMetadataInsertFailed() {
	documentsMetadataInsertFailedTotal.Add(1)
}

func IncNotifySent() {
	processingNotifySentTotal.Add(1)
}

func IncNotifyFailed() {
	processingNotifyFailedTotal.Add(1)
}

func IncListCacheHit() {
	listCacheHitsTotal.Add(1)
}

func IncListCacheMiss() {
	listCacheMissesTotal.Add(1)
}

// ObserveUploadBytes records the size of an accepted upload.
func ObserveUploadBytes(n int64) {
	if n < 0 {
		n = 0
	}
	uploadBytes.Observe(float64(n))
}

// ObserveListDurationMs records listing query latency in milliseconds.
func ObserveListDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	listDurationMs.Observe(value)
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
	writeCounter(&buf, "documents_uploaded_total", "Total documents uploaded", documentsUploadedTotal.Load())
	writeCounter(&buf, "documents_upload_failed_total", "Total uploads that failed", documentsUploadFailedTotal.Load())
	writeCounter(&buf, "documents_metadata_insert_failed_total", "Total uploads stored without a metadata row", documentsMetadataInsertFailedTotal.Load())
	writeCounter(&buf, "processing_notify_sent_total", "Total processing notifications delivered", processingNotifySentTotal.Load())
	writeCounter(&buf, "processing_notify_failed_total", "Total processing notifications that failed", processingNotifyFailedTotal.Load())
	writeCounter(&buf, "documents_list_cache_hits_total", "Total listing cache hits", listCacheHitsTotal.Load())
	writeCounter(&buf, "documents_list_cache_misses_total", "Total listing cache misses", listCacheMissesTotal.Load())
	writeHistogram(&buf, "documents_upload_bytes", "Size of accepted uploads in bytes", uploadBytes.Snapshot())
	writeHistogram(&buf, "documents_list_duration_ms", "Listing query duration in milliseconds", listDurationMs.Snapshot())
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
