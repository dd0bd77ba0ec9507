package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthside/learning-hub/ledger"
)

type mapConfig map[string]string

func (m mapConfig) ConfigValue(_ context.Context, key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func TestLoadSettings_Defaults(t *testing.T) {
	s, err := ledger.LoadSettings(context.Background(), mapConfig{})
	require.NoError(t, err)

	assert.Equal(t, 15, s.MinutesFor(ledger.GradeExcellent))
	assert.Equal(t, -25, s.MinutesFor(ledger.GradeFail))
	assert.Equal(t, 15, s.WeeklyTopup)
	assert.Equal(t, 5, s.HomeworkBonusOnTime)
	assert.Equal(t, -5, s.HomeworkPenaltyOverdue)
	assert.Equal(t, ledger.GradePoor, s.EscalationThreshold)

	threshold, ok := s.AutoCloseAt(ledger.GradeGood)
	assert.True(t, ok)
	assert.Equal(t, 1, threshold)
	_, ok = s.AutoCloseAt(ledger.GradeExcellent)
	assert.False(t, ok, "a best grade never auto-closes")
}

func TestLoadSettings_Overlay(t *testing.T) {
	cfg := mapConfig{
		ledger.KeyGradeMinutes:        `{"1":20,"2":12,"3":0,"4":-10,"5":-30}`,
		ledger.KeyWeeklyTopup:         "7",
		ledger.KeyHomeworkBonusOnTime: "8",
		ledger.KeyEscalationThreshold: "5",
	}
	s, err := ledger.LoadSettings(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 20, s.MinutesFor(ledger.GradeExcellent))
	assert.Equal(t, -30, s.MinutesFor(ledger.GradeFail))
	assert.Equal(t, 7, s.WeeklyTopup)
	assert.Equal(t, 8, s.HomeworkBonusOnTime)
	assert.Equal(t, ledger.GradeFail, s.EscalationThreshold)
	// Untouched keys keep their defaults
	assert.Equal(t, -5, s.HomeworkPenaltyOverdue)
}

func TestLoadSettings_MalformedFallsBack(t *testing.T) {
	cfg := mapConfig{
		ledger.KeyGradeMinutes:        `not json`,
		ledger.KeyWeeklyTopup:         "seven",
		ledger.KeyEscalationThreshold: "9",
	}
	s, err := ledger.LoadSettings(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 15, s.MinutesFor(ledger.GradeExcellent))
	assert.Equal(t, 15, s.WeeklyTopup)
	assert.Equal(t, ledger.GradePoor, s.EscalationThreshold, "off-scale threshold is ignored")
}

func TestGradeValue_Ordering(t *testing.T) {
	assert.True(t, ledger.GradeFail.WorseThan(ledger.GradePoor))
	assert.False(t, ledger.GradeExcellent.WorseThan(ledger.GradeGood))
	assert.False(t, ledger.GradeExcellent.NeedsReview())
	assert.True(t, ledger.GradeGood.NeedsReview())
	assert.False(t, ledger.GradeSatisfactory.NeedsRetry())
	assert.True(t, ledger.GradePoor.NeedsRetry())
	assert.False(t, ledger.GradeValue(0).Valid())
	assert.False(t, ledger.GradeValue(6).Valid())
}
