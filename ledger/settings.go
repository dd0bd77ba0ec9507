/*
settings.go - Typed runtime settings

PURPOSE:
  All tunable behavior of the ledger lives in one typed Settings struct,
  built once at startup and passed to the engines by value. The engines
  never look up configuration keys at call time.

LOADING:
  LoadSettings reads the persisted key/value config entries through a small
  reader interface and overlays them on DefaultSettings. A missing or
  malformed value falls back to its default and is logged by the caller;
  it never fails the load.

KEYS:
  grade_to_minutes_map              JSON {"1":15,"2":10,"3":0,"4":-20,"5":-25}
  bonus_fund_weekly_topup           int
  topic_review_thresholds           JSON {"2":1,"3":2,"4":3,"5":3}
  homework_bonus_ontime_minutes     int
  homework_penalty_overdue_minutes  int (negative)
  grade_escalation_threshold        int (1-5)
*/
package ledger

import (
	"context"
	"encoding/json"
	"strconv"
	"time"
)

// Config entry keys recognized by LoadSettings.
const (
	KeyGradeMinutes        = "grade_to_minutes_map"
	KeyWeeklyTopup         = "bonus_fund_weekly_topup"
	KeyReviewThresholds    = "topic_review_thresholds"
	KeyHomeworkBonusOnTime = "homework_bonus_ontime_minutes"
	KeyHomeworkPenaltyLate = "homework_penalty_overdue_minutes"
	KeyEscalationThreshold = "grade_escalation_threshold"
)

// ConfigReader is the slice of the config store that settings loading needs.
type ConfigReader interface {
	// ConfigValue returns the stored value for key, and whether it is set.
	ConfigValue(ctx context.Context, key string) (string, bool, error)
}

// Settings is the complete tunable behavior of the ledger engines.
type Settings struct {
	// GradeMinutes maps a grade value to signed minutes. Values absent
	// from the map contribute 0.
	GradeMinutes map[GradeValue]int

	// WeeklyTopup is the number of bonus-task slots added to the fund by
	// each weekly calculation. Zero or negative skips the topup.
	WeeklyTopup int

	// ReviewThresholds maps a grade value to the repeat count at which a
	// topic review auto-closes. A grade value absent from the map never
	// auto-closes.
	ReviewThresholds map[GradeValue]int

	// HomeworkBonusOnTime / HomeworkPenaltyOverdue are the minutes written
	// to a homework's bonus on completion.
	HomeworkBonusOnTime    int
	HomeworkPenaltyOverdue int

	// EscalationThreshold is the grade value at or above which auto-synced
	// grades are surfaced to a responsible adult.
	EscalationThreshold GradeValue

	// BonusDedupWindow is the window inside which an identical ad-hoc
	// reason is treated as a duplicate.
	BonusDedupWindow time.Duration
}

// DefaultSettings returns the hardcoded fallbacks used when a config entry
// is unset or malformed.
func DefaultSettings() Settings {
	return Settings{
		GradeMinutes: map[GradeValue]int{
			GradeExcellent:    15,
			GradeGood:         10,
			GradeSatisfactory: 0,
			GradePoor:         -20,
			GradeFail:         -25,
		},
		WeeklyTopup: 15,
		ReviewThresholds: map[GradeValue]int{
			GradeGood:         1,
			GradeSatisfactory: 2,
			GradePoor:         3,
			GradeFail:         3,
		},
		HomeworkBonusOnTime:    5,
		HomeworkPenaltyOverdue: -5,
		EscalationThreshold:    GradePoor,
		BonusDedupWindow:       10 * time.Minute,
	}
}

// LoadSettings overlays persisted config entries on the defaults. Unset or
// malformed entries keep their defaults.
func LoadSettings(ctx context.Context, r ConfigReader) (Settings, error) {
	s := DefaultSettings()

	if m, ok, err := readGradeIntMap(ctx, r, KeyGradeMinutes); err != nil {
		return s, err
	} else if ok {
		s.GradeMinutes = m
	}

	if m, ok, err := readGradeIntMap(ctx, r, KeyReviewThresholds); err != nil {
		return s, err
	} else if ok {
		s.ReviewThresholds = m
	}

	if n, ok, err := readInt(ctx, r, KeyWeeklyTopup); err != nil {
		return s, err
	} else if ok {
		s.WeeklyTopup = n
	}

	if n, ok, err := readInt(ctx, r, KeyHomeworkBonusOnTime); err != nil {
		return s, err
	} else if ok {
		s.HomeworkBonusOnTime = n
	}

	if n, ok, err := readInt(ctx, r, KeyHomeworkPenaltyLate); err != nil {
		return s, err
	} else if ok {
		s.HomeworkPenaltyOverdue = n
	}

	if n, ok, err := readInt(ctx, r, KeyEscalationThreshold); err != nil {
		return s, err
	} else if ok && GradeValue(n).Valid() {
		s.EscalationThreshold = GradeValue(n)
	}

	return s, nil
}

// MinutesFor maps a grade value through the configured table. Unknown
// values contribute nothing.
func (s Settings) MinutesFor(v GradeValue) int { return s.GradeMinutes[v] }

// AutoCloseAt returns the repeat-count threshold for a grade value, and
// whether one is configured.
func (s Settings) AutoCloseAt(v GradeValue) (int, bool) {
	n, ok := s.ReviewThresholds[v]
	return n, ok
}

func readInt(ctx context.Context, r ConfigReader, key string) (int, bool, error) {
	raw, set, err := r.ConfigValue(ctx, key)
	if err != nil {
		return 0, false, err
	}
	if !set {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, nil // malformed: fall back to default
	}
	return n, true, nil
}

func readGradeIntMap(ctx context.Context, r ConfigReader, key string) (map[GradeValue]int, bool, error) {
	raw, set, err := r.ConfigValue(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !set {
		return nil, false, nil
	}
	var decoded map[string]int
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, false, nil
	}
	out := make(map[GradeValue]int, len(decoded))
	for k, v := range decoded {
		g, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		out[GradeValue(g)] = v
	}
	if len(out) == 0 {
		return nil, false, nil
	}
	return out, true, nil
}
