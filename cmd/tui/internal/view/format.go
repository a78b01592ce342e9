package view

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jizhang-jingling/jizhang/internal/transaction"
)

const dbTimeout = 5 * time.Second

// FormatAmount renders an amount with its sign: income positive, expense negative.
func FormatAmount(kind transaction.Kind, amount decimal.Decimal) string {
	sign := "-"
	if kind == transaction.KindIncome {
		sign = "+"
	}

	return sign + "¥" + amount.StringFixed(2)
}

func FormatDate(t time.Time) string {
	return t.Local().Format(time.DateOnly)
}

func FormatTime(t time.Time) string {
	return t.Local().Format("01-02 15:04")
}

func KindLabel(k transaction.Kind) string {
	if k == transaction.KindIncome {
		return "收入"
	}

	return "支出"
}

// DbCtx returns a context with a standard timeout for storage operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}
