// Package reldate resolves Chinese relative-day expressions ("昨天", "大前天", "3天后") found in
// free text to absolute times.
package reldate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jizhang-jingling/jizhang/internal/transaction"
)

type keyword struct {
	word   string
	offset int
}

// Scanned in order, first hit wins. Longer words precede their suffixes (大前天 before 前天).
var keywords = []keyword{
	{"大前天", -3},
	{"三天前", -3},
	{"大后天", 3},
	{"三天后", 3},
	{"前天", -2},
	{"前日", -2},
	{"后天", 2},
	{"后日", 2},
	{"今天", 0},
	{"今日", 0},
	{"当天", 0},
	{"昨天", -1},
	{"昨日", -1},
	{"前一天", -1},
	{"明天", 1},
	{"明日", 1},
	{"后一天", 1},
	{"四天前", -4},
	{"五天前", -5},
	{"六天前", -6},
	{"一周前", -7},
	{"四天后", 4},
	{"五天后", 5},
	{"六天后", 6},
	{"一周后", 7},
}

var dayPattern = regexp.MustCompile(`([一二三四五六七八九十\d]+)天(前|后)`)

var numerals = map[string]int{
	"一": 1, "二": 2, "三": 3, "四": 4, "五": 5,
	"六": 6, "七": 7, "八": 8, "九": 9, "十": 10,
}

var descriptions = map[int]string{
	0:  "今天",
	1:  "明天",
	2:  "后天",
	3:  "大后天",
	-1: "昨天",
	-2: "前天",
	-3: "大前天",
}

type Result struct {
	Found     bool
	DayOffset int
	Keyword   string // the matched text
	Time      time.Time
}

// Timestamp renders Time as "YYYY-MM-DD HH:MM:SS". Empty when nothing was found.
func (r Result) Timestamp() string {
	if !r.Found {
		return ""
	}

	return r.Time.Format(transaction.TimestampLayout)
}

// Resolver is safe for concurrent use.
type Resolver struct {
	now func() time.Time
}

func New() *Resolver {
	return &Resolver{now: time.Now}
}

// NewWithClock builds a resolver whose time-of-day comes from now.
func NewWithClock(now func() time.Time) *Resolver {
	return &Resolver{now: now}
}

// Resolve finds the first relative-day expression in text. The resolved time falls on base's
// date shifted by the offset, at the resolver clock's current time of day, truncated to seconds.
func (r *Resolver) Resolve(text string, base time.Time) Result {
	offset, word, ok := match(text)
	if !ok {
		return Result{}
	}

	day := base.AddDate(0, 0, offset)
	clock := r.now().In(base.Location())

	return Result{
		Found:     true,
		DayOffset: offset,
		Keyword:   word,
		Time: time.Date(day.Year(), day.Month(), day.Day(),
			clock.Hour(), clock.Minute(), clock.Second(), 0, base.Location()),
	}
}

func match(text string) (int, string, bool) {
	for _, k := range keywords {
		if strings.Contains(text, k.word) {
			return k.offset, k.word, true
		}
	}

	m := dayPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, "", false
	}

	days := parseDays(m[1])
	if days <= 0 {
		return 0, "", false
	}

	if m[2] == "前" {
		days = -days
	}

	return days, m[0], true
}

// parseDays accepts a single numeral 一..十 or plain decimal digits. Compound numerals such as
// 十五 are not understood and yield 0.
func parseDays(s string) int {
	if n, ok := numerals[s]; ok {
		return n
	}

	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}

	return n
}

// HasRelativeDate reports whether text contains a relative-day keyword or an "N天前/后" phrase.
// A phrase is reported even when its number cannot be resolved.
func HasRelativeDate(text string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k.word) {
			return true
		}
	}

	return dayPattern.MatchString(text)
}

// Describe renders a day offset as Chinese text: 今天, 大前天, "5天后" and so on.
func Describe(offset int) string {
	if d, ok := descriptions[offset]; ok {
		return d
	}

	if offset > 0 {
		return fmt.Sprintf("%d天后", offset)
	}

	return fmt.Sprintf("%d天前", -offset)
}
