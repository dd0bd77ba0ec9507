package syncfeed_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthside/learning-hub/ledger"
	"github.com/hearthside/learning-hub/syncfeed"
)

func TestConvertMark_PlainIntegers(t *testing.T) {
	for mark, want := range map[string]ledger.GradeValue{
		"1": ledger.GradeExcellent,
		"3": ledger.GradeSatisfactory,
		"5": ledger.GradeFail,
	} {
		got, err := syncfeed.ConvertMark(mark)
		require.NoError(t, err, "mark %q", mark)
		assert.Equal(t, want, got, "mark %q", mark)
	}
}

func TestConvertMark_FractionalRoundsHalfAwayFromZero(t *testing.T) {
	// A 1.5 is the worse grade 2, not the better 1.
	got, err := syncfeed.ConvertMark("1.5")
	require.NoError(t, err)
	assert.Equal(t, ledger.GradeGood, got)

	got, err = syncfeed.ConvertMark("2.4")
	require.NoError(t, err)
	assert.Equal(t, ledger.GradeGood, got)
}

func TestConvertMark_PercentBands(t *testing.T) {
	for mark, want := range map[string]ledger.GradeValue{
		"95%":   ledger.GradeExcellent,
		"90%":   ledger.GradeExcellent,
		"89.9%": ledger.GradeGood,
		"75%":   ledger.GradeGood,
		"60%":   ledger.GradeSatisfactory,
		"40%":   ledger.GradePoor,
		"39%":   ledger.GradeFail,
		"0%":    ledger.GradeFail,
	} {
		got, err := syncfeed.ConvertMark(mark)
		require.NoError(t, err, "mark %q", mark)
		assert.Equal(t, want, got, "mark %q", mark)
	}
}

func TestConvertMark_Whitespace(t *testing.T) {
	got, err := syncfeed.ConvertMark("  2 ")
	require.NoError(t, err)
	assert.Equal(t, ledger.GradeGood, got)
}

func TestConvertMark_Rejections(t *testing.T) {
	for _, mark := range []string{"", "  ", "abc", "0", "6", "5.6", "%"} {
		_, err := syncfeed.ConvertMark(mark)
		assert.Error(t, err, "mark %q should be rejected", mark)
	}
}
