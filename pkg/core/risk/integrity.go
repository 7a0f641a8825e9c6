package risk

import (
	"fmt"
	"math"

	"valuation_engine/pkg/core/dataset"
)

// balanceTolerance is the share of total assets an identity gap may reach
// before it is reported.
const balanceTolerance = 0.001

// IntegrityWarnings checks the accounting identities the dataset lets us test:
// assets = liabilities + equity, and operating + investing + financing cash
// flow = net change in cash.
func IntegrityWarnings(ds dataset.Dataset) []string {
	var out []string
	if ta, ok := ds.Float("total_assets"); ok {
		tl, okL := ds.Float("total_liabilities")
		te, okE := ds.Float("total_equity")
		if okL && okE {
			gap := ta - (tl + te)
			if math.Abs(gap) > math.Max(0.01, balanceTolerance*math.Abs(ta)) {
				out = append(out, fmt.Sprintf("balance sheet out of balance by %.2f", gap))
			}
		}
	}

	cfo, ok1 := ds.Float("operating_cash_flow")
	cfi, ok2 := ds.Float("investing_cash_flow")
	cff, ok3 := ds.Float("financing_cash_flow")
	change, ok4 := ds.Float("net_change_in_cash")
	if ok1 && ok2 && ok3 && ok4 {
		gap := change - (cfo + cfi + cff)
		if math.Abs(gap) > 0.01 {
			out = append(out, fmt.Sprintf("cash flow statement inconsistent by %.2f", gap))
		}
	}
	return out
}
