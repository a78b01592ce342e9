package csvbill

import (
	"strings"

	"github.com/shopspring/decimal"
)

var amountReplacer = strings.NewReplacer("¥", "", "￥", "", ",", "", " ", "", "\t", "")

// parseAmount parses a bill amount such as "¥1,234.56" or "35.00" into a decimal.
func parseAmount(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(amountReplacer.Replace(s))
}
