package main

import (
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// progress draws a progress bar on stderr. A disabled progress does nothing.
type progress struct {
	enabled     bool
	description string
	bar         *progressbar.ProgressBar
}

func newProgress(enabled bool, description string) *progress {
	return &progress{enabled: enabled, description: description}
}

// Update matches engine.ProgressFunc. The bar is created on the first call,
// once the total is known.
func (p *progress) Update(processed, total int) error {
	if !p.enabled {
		return nil
	}
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(p.description),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}
	return p.bar.Set(processed)
}

// Finish clears the bar.
func (p *progress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
