// Package nutrition turns nutrition entries read from a health-data
// provider into a calorie summary against a daily target.
package nutrition

import (
	"fmt"
	"math"
	"time"
)

// DefaultTarget is the daily calorie budget in kilocalories.
const DefaultTarget = 1600.0

// Entry is one nutrition record. Nil fields were not recorded and count as
// zero when summed.
type Entry struct {
	ID           string    `json:"id"`
	EnergyKcal   *float64  `json:"energy_kcal,omitempty"`
	ProteinGrams *float64  `json:"protein_g,omitempty"`
	CarbGrams    *float64  `json:"carbs_g,omitempty"`
	FatGrams     *float64  `json:"fat_g,omitempty"`
	Time         time.Time `json:"time"`
}

// Float returns a pointer to v, for building entries.
func Float(v float64) *float64 { return &v }

// Summary is the calorie budget derived from a set of entries.
type Summary struct {
	Target    float64 `json:"target_kcal"`
	Consumed  float64 `json:"consumed_kcal"`
	Remaining float64 `json:"remaining_kcal"`
	// Percent is Consumed/Target as a fraction; it exceeds 1 once the
	// budget is spent.
	Percent float64 `json:"percent_of_target"`
	Protein float64 `json:"protein_g"`
	Carbs   float64 `json:"carbs_g"`
	Fat     float64 `json:"fat_g"`
}

// Summarize totals energy and macros over entries. Remaining goes negative
// when the target is exceeded; neither it nor Percent is clamped.
func Summarize(entries []Entry, target float64) (Summary, error) {
	if target <= 0 || math.IsNaN(target) || math.IsInf(target, 0) {
		return Summary{}, &ConfigurationError{
			Field:  "calorie target",
			Reason: fmt.Sprintf("must be a positive number, got %v", target),
		}
	}

	s := Summary{Target: target}
	for _, e := range entries {
		s.Consumed += valueOf(e.EnergyKcal)
		s.Protein += valueOf(e.ProteinGrams)
		s.Carbs += valueOf(e.CarbGrams)
		s.Fat += valueOf(e.FatGrams)
	}
	s.Remaining = target - s.Consumed
	s.Percent = s.Consumed / target
	return s, nil
}

func valueOf(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// FormatRemaining renders the remaining budget as shown on the matrix,
// e.g. "-400 kcal". Values are truncated toward zero.
func FormatRemaining(s Summary) string {
	return fmt.Sprintf("%d kcal", int(s.Remaining))
}

// FormatSummary adds the macro totals: "1200 kcal 80p 150c 40f".
func FormatSummary(s Summary) string {
	return fmt.Sprintf("%s %dp %dc %df", FormatRemaining(s), int(s.Protein), int(s.Carbs), int(s.Fat))
}
