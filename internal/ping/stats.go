package ping

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/openrouter-inspector/openrouter-inspector/internal/format"
	"github.com/shopspring/decimal"
)

// Stats summarizes a ping run.
type Stats struct {
	Sent             int             `json:"sent" yaml:"sent"`
	Received         int             `json:"received" yaml:"received"`
	Lost             int             `json:"lost" yaml:"lost"`
	LossPercent      float64         `json:"loss_percent" yaml:"loss_percent"`
	Min              time.Duration   `json:"min_ns" yaml:"min"`
	Max              time.Duration   `json:"max_ns" yaml:"max"`
	Avg              time.Duration   `json:"avg_ns" yaml:"avg"`
	TotalCost        decimal.Decimal `json:"total_cost" yaml:"total_cost"`
	CompletionTokens int64           `json:"completion_tokens" yaml:"completion_tokens"`
}

// Summarize computes the statistics of results. Times only cover replies.
func Summarize(results []Result) Stats {
	var (
		s     Stats
		total time.Duration
	)
	s.Sent = len(results)
	for _, r := range results {
		if !r.OK() {
			continue
		}
		s.Received++
		total += r.Elapsed
		if s.Received == 1 || r.Elapsed < s.Min {
			s.Min = r.Elapsed
		}
		if r.Elapsed > s.Max {
			s.Max = r.Elapsed
		}
		s.CompletionTokens += r.CompletionTokens
		if c, err := decimal.NewFromString(r.Cost); err == nil {
			s.TotalCost = s.TotalCost.Add(c)
		}
	}
	s.Lost = s.Sent - s.Received
	if s.Sent > 0 {
		s.LossPercent = float64(s.Lost) * 100 / float64(s.Sent)
	}
	if s.Received > 0 {
		s.Avg = total / time.Duration(s.Received)
	}
	return s
}

// Header is the line printed before the first reply.
func Header(r Result) string {
	return fmt.Sprintf("Pinging %s with %d input tokens:", r.Target, r.PromptTokens)
}

// Line renders a single reply.
func Line(r Result) string {
	ttl := int(r.TTL.Seconds())
	if !r.OK() {
		return fmt.Sprintf(
			"Reply from: %s tokens: 0 time=%s TTL=%ds (error: %s)",
			r.Target, format.Elapsed(r.Elapsed), ttl, r.Error,
		)
	}
	return fmt.Sprintf(
		"Reply from: %s tokens: %d cost: $%s time=%s TTL=%ds",
		r.Target, r.CompletionTokens, format.Cost(r.Cost), format.Elapsed(r.Elapsed), ttl,
	)
}

// WriteStats prints the summary block.
func WriteStats(w io.Writer, name string, s Stats) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n--- %s ping statistics ---\n", name)
	fmt.Fprintf(
		&sb, "%d requests transmitted, %d replies received, %s loss, total cost $%s\n",
		s.Sent, s.Received, formatLoss(s.LossPercent), format.Cost(s.TotalCost.String()),
	)
	if s.Received > 0 {
		fmt.Fprintf(
			&sb, "round-trip min/avg/max = %s/%s/%s\n",
			format.Elapsed(s.Min), format.Elapsed(s.Avg), format.Elapsed(s.Max),
		)
	}
	_, err := io.WriteString(w, sb.String())
	return err //nolint:wrapcheck
}

func formatLoss(p float64) string {
	if p == float64(int(p)) {
		return fmt.Sprintf("%d%%", int(p))
	}
	return fmt.Sprintf("%.1f%%", p)
}

func isZero(s string) bool {
	d, err := decimal.NewFromString(s)
	return err == nil && d.IsZero()
}
