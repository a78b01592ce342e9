package reldate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jizhang-jingling/jizhang/internal/reldate"
)

var (
	base  = time.Date(2024, 6, 10, 8, 0, 0, 0, time.Local)
	clock = func() time.Time { return time.Date(2030, 1, 1, 14, 25, 36, 999, time.Local) }
)

func TestResolver_Resolve(t *testing.T) {
	type testCase struct {
		name        string
		text        string
		wantOffset  int
		wantKeyword string
	}

	tests := []testCase{
		{name: "LongerKeywordFirst", text: "大前天买书花了35块", wantOffset: -3, wantKeyword: "大前天"},
		{name: "DayBeforeYesterday", text: "前天的晚餐花了50元", wantOffset: -2, wantKeyword: "前天"},
		{name: "Yesterday", text: "我昨天买了一个雪糕5块钱", wantOffset: -1, wantKeyword: "昨天"},
		{name: "Today", text: "今天吃早餐7块钱", wantOffset: 0, wantKeyword: "今天"},
		{name: "Tomorrow", text: "明天要去超市买菜", wantOffset: 1, wantKeyword: "明天"},
		{name: "ThreeDaysLater", text: "大后天出发", wantOffset: 3, wantKeyword: "大后天"},
		{name: "WeekAgo", text: "一周前的房租", wantOffset: -7, wantKeyword: "一周前"},
		{name: "TableKeywordBeforePattern", text: "三天前买的书", wantOffset: -3, wantKeyword: "三天前"},
		{name: "PreviousDay", text: "前一天的打车费", wantOffset: -1, wantKeyword: "前一天"},
		{name: "CJKNumeral", text: "七天前交的话费", wantOffset: -7, wantKeyword: "七天前"},
		{name: "Ten", text: "十天后还款", wantOffset: 10, wantKeyword: "十天后"},
		{name: "Digits", text: "15天前的体检", wantOffset: -15, wantKeyword: "15天前"},
		{name: "SingleDigit", text: "2天后交学费", wantOffset: 2, wantKeyword: "2天后"},
	}

	r := reldate.NewWithClock(clock)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(tt.text, base)

			require.True(t, got.Found)
			assert.Equal(t, tt.wantOffset, got.DayOffset)
			assert.Equal(t, tt.wantKeyword, got.Keyword)

			want := time.Date(2024, 6, 10+tt.wantOffset, 14, 25, 36, 0, time.Local)
			assert.True(t, want.Equal(got.Time), "got %s want %s", got.Time, want)
		})
	}
}

func TestResolver_Resolve_NotFound(t *testing.T) {
	r := reldate.NewWithClock(clock)

	for _, text := range []string{
		"午饭吃了麻辣烫",
		"",
		"0天前",
		"十五天前",
		"三天",
		"天前",
	} {
		got := r.Resolve(text, base)
		assert.False(t, got.Found, text)
		assert.Empty(t, got.Timestamp(), text)
		assert.True(t, got.Time.IsZero(), text)
	}
}

func TestResult_Timestamp(t *testing.T) {
	got := reldate.NewWithClock(clock).Resolve("大前天买书花了35块", base)

	assert.Equal(t, "2024-06-07 14:25:36", got.Timestamp())
}

func TestResolver_CrossesMonthBoundary(t *testing.T) {
	got := reldate.NewWithClock(clock).Resolve("前天", time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local))

	assert.Equal(t, "2024-02-28 14:25:36", got.Timestamp())
}

func TestHasRelativeDate(t *testing.T) {
	assert.True(t, reldate.HasRelativeDate("昨日聚餐"))
	assert.True(t, reldate.HasRelativeDate("3天后"))
	assert.True(t, reldate.HasRelativeDate("十五天前"))
	assert.False(t, reldate.HasRelativeDate("早餐7块"))
}

func TestDescribe(t *testing.T) {
	tests := map[int]string{
		0:   "今天",
		1:   "明天",
		3:   "大后天",
		-1:  "昨天",
		-3:  "大前天",
		5:   "5天后",
		-4:  "4天前",
		-15: "15天前",
	}

	for offset, want := range tests {
		assert.Equal(t, want, reldate.Describe(offset), "offset %d", offset)
	}
}
