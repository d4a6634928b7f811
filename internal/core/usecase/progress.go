package usecase

import (
	"fmt"
	"math"
	"time"

	"github.com/kirillkom/docshelf/internal/core/domain"
)

// minBandwidthElapsed suppresses rate estimates right after the transfer
// starts, when dividing by a near-zero elapsed time gives wild numbers.
const minBandwidthElapsed = 100 * time.Millisecond

// TransferStats is the user-facing view of an upload in progress.
type TransferStats struct {
	Percent        int            `json:"percent"`
	BytesPerSecond float64        `json:"bytes_per_second"`
	Mbps           float64        `json:"mbps"`
	Bandwidth      string         `json:"bandwidth,omitempty"`
	Remaining      *time.Duration `json:"remaining,omitempty"`
	Reported       bool           `json:"reported"`
}

// Estimator turns cumulative byte samples into percent, bandwidth and ETA.
//
// The rate is a cumulative average: bytes loaded so far divided by the time
// since the upload started. There is no sliding window and no smoothing, so
// the estimate settles as the transfer runs longer.
type Estimator struct {
	stats TransferStats
}

func (e *Estimator) Stats() TransferStats {
	return e.stats
}

func (e *Estimator) Reset() {
	e.stats = TransferStats{}
}

// Observe folds one sample taken elapsed after the upload started.
func (e *Estimator) Observe(sample domain.ProgressSample, elapsed time.Duration) TransferStats {
	loaded := sample.Loaded
	if loaded > sample.Total {
		loaded = sample.Total
	}
	if loaded < 0 {
		loaded = 0
	}

	e.stats.Percent = percentOf(loaded, sample.Total)

	if elapsed <= minBandwidthElapsed {
		return e.stats
	}

	bytesPerSecond := float64(loaded) / elapsed.Seconds()
	if bytesPerSecond <= 0 {
		return e.stats
	}
	e.setRate(bytesPerSecond)

	remaining := remainingDuration(sample.Total-loaded, bytesPerSecond)
	e.stats.Remaining = &remaining
	return e.stats
}

// Finalize pins the stats after a successful upload and recomputes the
// average rate over the whole transfer.
func (e *Estimator) Finalize(totalSize int64, elapsed time.Duration) TransferStats {
	e.stats.Percent = 100
	zero := time.Duration(0)
	e.stats.Remaining = &zero
	if totalSize > 0 && elapsed > 0 {
		e.setRate(float64(totalSize) / elapsed.Seconds())
	}
	return e.stats
}

func (e *Estimator) setRate(bytesPerSecond float64) {
	mbps := bytesPerSecond * 8 / (1024 * 1024)
	e.stats.BytesPerSecond = bytesPerSecond
	e.stats.Mbps = mbps
	e.stats.Bandwidth = fmt.Sprintf("%.2f", mbps)
	e.stats.Reported = true
}

func percentOf(loaded, total int64) int {
	if total <= 0 {
		return 0
	}
	pct := math.Round(float64(loaded) / float64(total) * 100)
	return int(math.Min(100, pct))
}

func remainingDuration(remainingBytes int64, bytesPerSecond float64) time.Duration {
	if remainingBytes <= 0 || bytesPerSecond <= 0 {
		return 0
	}
	return time.Duration(float64(remainingBytes) / bytesPerSecond * float64(time.Second))
}

// FormatRemaining renders an ETA the way the progress line shows it.
func FormatRemaining(d time.Duration) string {
	secs := d.Seconds()
	if secs < 1 {
		return "< 1s"
	}
	if secs < 60 {
		return fmt.Sprintf("%ds", int(math.Ceil(secs)))
	}
	minutes := int(math.Floor(secs / 60))
	rest := int(math.Ceil(math.Mod(secs, 60)))
	if rest == 60 {
		minutes++
		rest = 0
	}
	return fmt.Sprintf("%dm %ds", minutes, rest)
}

func FormatFileSize(bytes int64) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.2f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.2f MB", float64(bytes)/(1024*1024))
	}
}
