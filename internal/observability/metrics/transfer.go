package metrics

import "github.com/kirillkom/docshelf/internal/core/domain"

// ObserveUpload records the outcome of one upload attempt.
func (m *ClientMetrics) ObserveUpload(status domain.TransferStatus, bytes int64, bandwidthMbps float64) {
	m.uploadsTotal.WithLabelValues(m.service, string(status)).Inc()
	if status != domain.TransferComplete {
		return
	}
	if bytes > 0 {
		m.uploadBytesTotal.Add(float64(bytes))
	}
	if bandwidthMbps > 0 {
		m.uploadBandwidth.Observe(bandwidthMbps)
	}
}
