package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillkom/docshelf/internal/core/usecase"
)

const (
	progressRedrawInterval = 100 * time.Millisecond
	progressBarWidth       = 30
)

// progressRenderer draws a single carriage-return progress line. Samples
// arrive far more often than a terminal can usefully repaint, so redraws are
// throttled; the final 100% line is always drawn.
type progressRenderer struct {
	w io.Writer

	mu       sync.Mutex
	throttle rate.Sometimes
	drawn    bool
	lastLen  int
}

func newProgressRenderer(w io.Writer) *progressRenderer {
	return &progressRenderer{
		w:        w,
		throttle: rate.Sometimes{Interval: progressRedrawInterval},
	}
}

func (p *progressRenderer) Update(stats usecase.TransferStats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if stats.Percent >= 100 {
		p.draw(stats)
		return
	}
	p.throttle.Do(func() { p.draw(stats) })
}

// Finish ends the progress line if anything was drawn.
func (p *progressRenderer) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.drawn {
		fmt.Fprintln(p.w)
		p.drawn = false
		p.lastLen = 0
	}
}

func (p *progressRenderer) draw(stats usecase.TransferStats) {
	line := progressLine(stats)
	pad := ""
	if n := p.lastLen - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	fmt.Fprintf(p.w, "\r%s%s", line, pad)
	p.drawn = true
	p.lastLen = len(line)
}

func progressLine(stats usecase.TransferStats) string {
	percent := min(max(stats.Percent, 0), 100)
	filled := percent * progressBarWidth / 100

	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(strings.Repeat("#", filled))
	b.WriteString(strings.Repeat(".", progressBarWidth-filled))
	fmt.Fprintf(&b, "] %3d%%", percent)
	if stats.Bandwidth != "" {
		fmt.Fprintf(&b, "  %s Mbps", stats.Bandwidth)
	}
	if stats.Remaining != nil && percent < 100 {
		fmt.Fprintf(&b, "  %s left", usecase.FormatRemaining(*stats.Remaining))
	}
	return b.String()
}
