package notifier

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"sjsage522/pricewatcher/internal/crawler"
)

// CycleStats is what a cycle summary reports
type CycleStats struct {
	Iteration       int
	Checked         int
	Found           int
	ErrorCategories int
	Threshold       float64
	Elapsed         time.Duration
}

// ShouldNotify reports whether the cycle is worth a summary message
func (s CycleStats) ShouldNotify() bool {
	return s.Found > 0 || s.ErrorCategories > 0
}

// FormatProductAlert builds the message for a newly found product
func FormatProductAlert(p crawler.Product) string {
	var b strings.Builder
	b.WriteString("🎯 CHEAP PRODUCT FOUND!\n\n")
	fmt.Fprintf(&b, "Title: %s\n", p.Title)
	fmt.Fprintf(&b, "Price: %s\n", formatPrice(p.Price))
	fmt.Fprintf(&b, "URL: %s", p.URL)
	return b.String()
}

// FormatCycleSummary builds the end-of-cycle message
func FormatCycleSummary(s CycleStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔍 Scan #%d Complete\n\n", s.Iteration)
	fmt.Fprintf(&b, "✅ Products checked: %d\n", s.Checked)
	fmt.Fprintf(&b, "🎯 Found (<= %s): %d\n", formatPrice(s.Threshold), s.Found)
	if s.ErrorCategories > 0 {
		fmt.Fprintf(&b, "⚠️ Categories with errors: %d\n", s.ErrorCategories)
	}
	fmt.Fprintf(&b, "⏱️ Time: %.1fs", s.Elapsed.Seconds())
	return b.String()
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
