package question

import (
	"math/big"

	"github.com/shopspring/decimal"
)

var siUnits = []struct {
	shift int32
	unit  string
}{
	{12, "TWh"},
	{9, "GWh"},
	{6, "MWh"},
	{3, "kWh"},
	{0, "Wh"},
}

// ConsumptionString renders a Wh value with an SI prefix and two decimals,
// e.g. 1895 -> "1.90 kWh".
func ConsumptionString(wh uint64) string {
	d := decimal.NewFromBigInt(new(big.Int).SetUint64(wh), 0)
	for _, u := range siUnits {
		if d.GreaterThanOrEqual(decimal.New(1, u.shift)) || u.shift == 0 {
			return d.Shift(-u.shift).StringFixed(2) + " " + u.unit
		}
	}
	return d.StringFixed(2) + " Wh"
}
