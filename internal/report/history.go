// Package report summarizes nutrition over several days and renders the
// result as text, an HTML chart or a PNG plot.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/bituwy/wheyout/internal/nutrition"
)

// Day is one calendar day's summary.
type Day struct {
	Start   time.Time         `json:"start"`
	Summary nutrition.Summary `json:"summary"`
}

// History is a run of consecutive days, oldest first.
type History struct {
	Days   []Day   `json:"days"`
	Target float64 `json:"target_kcal"`
	// Mean and StdDev are over daily consumption; StdDev is zero for fewer
	// than two days.
	Mean       float64 `json:"mean_kcal"`
	StdDev     float64 `json:"stddev_kcal"`
	OverBudget int     `json:"over_budget_days"`
}

// Build reads the last n days, today included, through tracker. Days start
// at dayStartHour local time; today ends at now.
func Build(ctx context.Context, tracker *nutrition.Tracker, now time.Time, n, dayStartHour int) (History, error) {
	if n < 1 {
		return History{}, errors.New("history needs at least one day")
	}

	today := nutrition.DayWindow(now, dayStartHour, 0)
	h := History{Target: tracker.Target(), Days: make([]Day, 0, n)}
	consumed := make([]float64, 0, n)
	for i := n - 1; i >= 0; i-- {
		start := today.Start.AddDate(0, 0, -i)
		end := now
		if i > 0 {
			end = start.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		w, err := nutrition.NewTimeWindow(start, end)
		if err != nil {
			return History{}, err
		}
		s, err := tracker.Fetch(ctx, w)
		if err != nil {
			return History{}, fmt.Errorf("failed to summarize %s: %w", start.Format(time.DateOnly), err)
		}
		h.Days = append(h.Days, Day{Start: start, Summary: s})
		consumed = append(consumed, s.Consumed)
		if s.Remaining < 0 {
			h.OverBudget++
		}
	}

	if len(consumed) > 1 {
		h.Mean, h.StdDev = stat.MeanStdDev(consumed, nil)
	} else {
		h.Mean = consumed[0]
	}
	return h, nil
}

// Labels returns the day labels used on chart axes.
func (h History) Labels() []string {
	labels := make([]string, len(h.Days))
	for i, d := range h.Days {
		labels[i] = d.Start.Format("Mon 01-02")
	}
	return labels
}

// WriteText prints one line per day followed by the aggregate figures.
func WriteText(w io.Writer, h History) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DAY\tCONSUMED\tREMAINING\tPROTEIN\tCARBS\tFAT")
	for _, d := range h.Days {
		s := d.Summary
		fmt.Fprintf(tw, "%s\t%d\t%d\t%dg\t%dg\t%dg\n",
			d.Start.Format(time.DateOnly), int(s.Consumed), int(s.Remaining),
			int(s.Protein), int(s.Carbs), int(s.Fat))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "target %d kcal, mean %d kcal, stddev %d kcal, over budget on %d of %d days\n",
		int(h.Target), int(h.Mean), int(h.StdDev), h.OverBudget, len(h.Days))
	return err
}
