package mcp

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jizhang-jingling/jizhang/internal/intake"
	"github.com/jizhang-jingling/jizhang/internal/transaction"
	"github.com/jizhang-jingling/jizhang/internal/wire"
)

// args wraps the loosely typed argument map a tool call arrives with.
type args map[string]any

func (a args) str(name string) string {
	s, _ := a[name].(string)
	return strings.TrimSpace(s)
}

// raw reads a string argument as sent.
func (a args) raw(name string) string {
	s, _ := a[name].(string)
	return s
}

func (a args) requireStr(name string) (string, error) {
	s := a.str(name)
	if s == "" {
		return "", &intake.ValidationError{Field: name, Reason: "is required"}
	}

	return s, nil
}

// integer reads a whole number, returning def when the argument is absent.
func (a args) integer(name string, def int) (int, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return def, nil
	}

	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			break
		}

		return int(n), nil
	case int:
		return n, nil
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i, nil
		}
	}

	return 0, &intake.ValidationError{Field: name, Reason: "must be an integer"}
}

func (a args) strs(name string) ([]string, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return nil, nil
	}

	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))

		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, &intake.ValidationError{Field: name, Reason: "must be a list of strings"}
			}

			out = append(out, s)
		}

		return out, nil
	}

	return nil, &intake.ValidationError{Field: name, Reason: "must be a list of strings"}
}

// amount accepts a JSON number or a decimal string.
func (a args) amount() (decimal.Decimal, error) {
	switch v := a["amount"].(type) {
	case float64:
		return intake.AmountFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Decimal{}, &intake.ValidationError{Field: "amount", Reason: "must be a number"}
		}

		return d, nil
	case nil:
		return decimal.Decimal{}, &intake.ValidationError{Field: "amount", Reason: "is required"}
	}

	return decimal.Decimal{}, &intake.ValidationError{Field: "amount", Reason: "must be a number"}
}

// timeArg parses an optional date or timestamp argument.
func (a args) timeArg(name string) (*time.Time, error) {
	s := a.str(name)
	if s == "" {
		return nil, nil
	}

	t, err := wire.ParseTime(s)
	if err != nil {
		return nil, &intake.ValidationError{Field: name, Reason: "must look like 2006-01-02 or 2006-01-02 15:04:05"}
	}

	return &t, nil
}

// input builds a transaction input. Range checks are left to intake validation.
func (a args) input() (transaction.Input, error) {
	amount, err := a.amount()
	if err != nil {
		return transaction.Input{}, err
	}

	tags, err := a.strs("tags")
	if err != nil {
		return transaction.Input{}, err
	}

	occurred, err := a.timeArg("timestamp")
	if err != nil {
		return transaction.Input{}, err
	}

	return transaction.Input{
		Kind:        transaction.Kind(a.str("type")),
		Amount:      amount,
		Description: a.raw("description"),
		Category:    a.str("category"),
		Tags:        tags,
		OccurredAt:  occurred,
	}, nil
}

// inputs reads an array of transaction objects.
func (a args) inputs(name string) ([]transaction.Input, error) {
	list, ok := a[name].([]any)
	if !ok {
		return nil, &intake.ValidationError{Field: name, Reason: "must be a list of transactions"}
	}

	out := make([]transaction.Input, len(list))

	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, &intake.BatchItemError{Index: i, Err: errors.New("must be an object")}
		}

		in, err := args(m).input()
		if err != nil {
			return nil, &intake.BatchItemError{Index: i, Err: err}
		}

		out[i] = in
	}

	return out, nil
}
