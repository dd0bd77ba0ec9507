/*
convert.go - Raw mark conversion

PURPOSE:
  Upstream feeds report marks in whatever form their school uses: plain
  integers ("2"), fractional values ("1.5"), or percentages ("87.5%").
  ConvertMark maps all of them onto the 1-5 scale.

RULES:
  - Percentages band as >=90 -> 1, >=75 -> 2, >=60 -> 3, >=40 -> 4, else 5
  - Fractional marks round half away from zero, so a 1.5 becomes the
    worse grade 2
  - Anything outside 1-5 after conversion is rejected
*/
package syncfeed

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hearthside/learning-hub/ledger"
)

var percentBands = []struct {
	min   decimal.Decimal
	grade ledger.GradeValue
}{
	{decimal.NewFromInt(90), ledger.GradeExcellent},
	{decimal.NewFromInt(75), ledger.GradeGood},
	{decimal.NewFromInt(60), ledger.GradeSatisfactory},
	{decimal.NewFromInt(40), ledger.GradePoor},
}

// ConvertMark maps an upstream raw mark onto the 1-5 scale.
func ConvertMark(raw string) (ledger.GradeValue, error) {
	mark := strings.TrimSpace(raw)
	if mark == "" {
		return 0, fmt.Errorf("empty mark")
	}

	if strings.HasSuffix(mark, "%") {
		pct, err := decimal.NewFromString(strings.TrimSuffix(mark, "%"))
		if err != nil {
			return 0, fmt.Errorf("invalid percentage mark %q: %w", raw, err)
		}
		for _, band := range percentBands {
			if pct.GreaterThanOrEqual(band.min) {
				return band.grade, nil
			}
		}
		return ledger.GradeFail, nil
	}

	d, err := decimal.NewFromString(mark)
	if err != nil {
		return 0, fmt.Errorf("invalid mark %q: %w", raw, err)
	}
	value := ledger.GradeValue(d.Round(0).IntPart())
	if !value.Valid() {
		return 0, fmt.Errorf("mark %q is outside the 1-5 scale", raw)
	}
	return value, nil
}
