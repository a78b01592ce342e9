package wire_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jizhang-jingling/jizhang/internal/intake"
	"github.com/jizhang-jingling/jizhang/internal/transaction"
	"github.com/jizhang-jingling/jizhang/internal/wire"
)

func TestInput_DecodesJSONNumbers(t *testing.T) {
	var in wire.Input

	require.NoError(t, json.Unmarshal([]byte(`{"type":"expense","amount":35.5,"description":"午饭","tags":["工作日"]}`), &in))

	got, err := in.ToInput()
	require.NoError(t, err)

	assert.Equal(t, transaction.KindExpense, got.Kind)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("35.5")))
	assert.Equal(t, []string{"工作日"}, got.Tags)
	assert.Nil(t, got.OccurredAt)
}

func TestInput_Timestamp(t *testing.T) {
	got, err := wire.Input{Timestamp: "2024-06-07 14:25:36"}.ToInput()
	require.NoError(t, err)
	require.NotNil(t, got.OccurredAt)
	assert.True(t, time.Date(2024, 6, 7, 14, 25, 36, 0, time.Local).Equal(*got.OccurredAt))

	got, err = wire.Input{Timestamp: "2024-06-07"}.ToInput()
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 6, 7, 0, 0, 0, 0, time.Local).Equal(*got.OccurredAt))

	_, err = wire.Input{Timestamp: "yesterday"}.ToInput()

	var verr *intake.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "timestamp", verr.Field)
}

func TestToInputs_ReportsIndex(t *testing.T) {
	_, err := wire.ToInputs([]wire.Input{{}, {Timestamp: "bad"}})

	var berr *intake.BatchItemError
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, 1, berr.Index)
}

func TestTransaction_RoundTrip(t *testing.T) {
	tx := &transaction.Transaction{
		ID:          "abc",
		Kind:        transaction.KindIncome,
		Amount:      decimal.RequireFromString("8000"),
		Category:    "工资收入",
		Description: "发工资",
		OccurredAt:  time.Date(2024, 6, 1, 9, 0, 0, 0, time.Local),
		CreatedAt:   time.Date(2024, 6, 1, 9, 0, 1, 0, time.UTC),
	}

	w := wire.FromTransaction(tx)
	assert.Equal(t, "2024-06-01 09:00:00", w.Timestamp)
	assert.Equal(t, []string{}, w.Tags)

	body, err := json.Marshal(w)
	require.NoError(t, err)

	var decoded wire.Transaction
	require.NoError(t, json.Unmarshal(body, &decoded))

	back, err := decoded.ToTransaction()
	require.NoError(t, err)

	assert.Equal(t, tx.ID, back.ID)
	assert.True(t, tx.Amount.Equal(back.Amount))
	assert.True(t, tx.OccurredAt.Equal(back.OccurredAt))
	assert.True(t, tx.CreatedAt.Equal(back.CreatedAt))
}
