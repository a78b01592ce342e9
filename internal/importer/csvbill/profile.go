package csvbill

import "github.com/jizhang-jingling/jizhang/internal/transaction"

// Profile names.
const (
	ProfileJizhang = "jizhang"
	ProfileWechat  = "wechat"
	ProfileAlipay  = "alipay"
)

// Columns of the jizhang layout, shared with the exporter so exports round-trip.
const (
	ColTime        = "时间"
	ColKind        = "类型"
	ColAmount      = "金额"
	ColCategory    = "分类"
	ColDescription = "描述"
	ColTags        = "标签"
)

// TagSeparator joins tags inside the single tags cell.
const TagSeparator = ";"

// Header is the jizhang export header row.
var Header = []string{ColTime, ColKind, ColAmount, ColCategory, ColDescription, ColTags}

// KindLabel renders a kind the way the jizhang layout stores it.
func KindLabel(k transaction.Kind) string {
	if k == transaction.KindIncome {
		return "收入"
	}

	return "支出"
}

// Profile describes the column layout of a bill CSV export.
// Adding a new format is just adding a new Profile to the profiles slice.
type Profile struct {
	Name    string
	DateCol string
	KindCol string
	// AmountCol holds an unsigned amount; the kind comes from KindCol.
	AmountCol string
	DescCol   string
	// FallbackDescCol is used when DescCol is empty or "/".
	FallbackDescCol string
	CategoryCol     string // optional
	TagsCol         string // optional
}

// requiredCols returns the column names that must be present for this profile to match.
func (p Profile) requiredCols() []string {
	cols := []string{p.DateCol, p.KindCol, p.AmountCol, p.DescCol}
	if p.FallbackDescCol != "" {
		cols = append(cols, p.FallbackDescCol)
	}

	if p.CategoryCol != "" {
		cols = append(cols, p.CategoryCol)
	}

	return cols
}

// profiles is the ordered list of formats tried during auto-detection.
// More specific profiles come first to avoid false matches.
var profiles = []Profile{
	{
		Name:            ProfileWechat,
		DateCol:         "交易时间",
		KindCol:         "收/支",
		AmountCol:       "金额(元)",
		DescCol:         "商品",
		FallbackDescCol: "交易对方",
	},
	{
		Name:            ProfileAlipay,
		DateCol:         "交易时间",
		KindCol:         "收/支",
		AmountCol:       "金额",
		DescCol:         "商品说明",
		FallbackDescCol: "交易对方",
	},
	{
		Name:        ProfileJizhang,
		DateCol:     ColTime,
		KindCol:     ColKind,
		AmountCol:   ColAmount,
		DescCol:     ColDescription,
		CategoryCol: ColCategory,
		TagsCol:     ColTags,
	},
}

// Names lists the known profile names in detection order.
func Names() []string {
	names := make([]string, len(profiles))
	for i, p := range profiles {
		names[i] = p.Name
	}

	return names
}
