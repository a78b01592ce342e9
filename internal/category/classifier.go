// Package category infers a transaction category from its free-text description.
package category

import (
	"regexp"
	"slices"
	"strings"

	"github.com/jizhang-jingling/jizhang/internal/transaction"
)

// Fallback categories returned when no rule scores.
const (
	DefaultExpense = "未分类消费"
	DefaultIncome  = "其他收入"
)

const (
	keywordWeight = 1
	patternWeight = 2
)

type rule struct {
	category string
	keywords []string
	patterns []*regexp.Regexp
}

func newRule(category string, keywords []string, patterns ...string) rule {
	r := rule{category: category}

	// Descriptions are lower-cased before matching, so keywords must be too.
	for _, k := range keywords {
		r.keywords = append(r.keywords, strings.ToLower(k))
	}

	for _, p := range patterns {
		r.patterns = append(r.patterns, regexp.MustCompile(p))
	}

	return r
}

// Declaration order matters: ties go to the earlier category.
var expenseRules = []rule{
	newRule("餐饮美食",
		[]string{"吃饭", "午餐", "晚餐", "早餐", "饭店", "餐厅", "外卖", "点餐", "食物", "零食", "咖啡", "奶茶", "饮料", "酒", "聚餐", "火锅", "烧烤", "快餐"},
		`吃了?.*`, `买了?.*吃`, `.*餐厅.*`, `.*饭店.*`, `.*外卖.*`),
	newRule("交通出行",
		[]string{"打车", "出租车", "地铁", "公交", "滴滴", "uber", "高铁", "火车", "飞机", "机票", "车票", "油费", "停车", "加油", "汽车", "摩托", "电动车"},
		`.*打车.*`, `.*地铁.*`, `.*公交.*`, `.*机票.*`, `.*车票.*`),
	newRule("购物消费",
		[]string{"买", "购买", "购物", "商场", "超市", "淘宝", "京东", "拼多多", "网购", "商品", "东西"},
		`买了?.*`, `购买.*`, `购物.*`, `.*商场.*`, `.*超市.*`),
	newRule("服装鞋帽",
		[]string{"衣服", "裤子", "鞋子", "帽子", "袜子", "内衣", "外套", "毛衣", "T恤", "裙子", "包包", "手表", "首饰", "化妆品"},
		`.*衣服.*`, `.*鞋子.*`, `.*裤子.*`, `.*包包.*`, `.*化妆品.*`),
	newRule("电子产品",
		[]string{"手机", "电脑", "笔记本", "平板", "耳机", "音响", "相机", "电视", "空调", "冰箱", "洗衣机", "充电器", "数据线", "键盘", "鼠标"},
		`.*手机.*`, `.*电脑.*`, `.*平板.*`, `.*耳机.*`, `.*电视.*`),
	newRule("医疗健康",
		[]string{"医院", "看病", "药品", "药物", "体检", "医疗", "诊所", "牙医", "眼科", "感冒", "发烧", "治疗"},
		`.*医院.*`, `.*看病.*`, `.*药.*`, `.*体检.*`, `.*医疗.*`),
	newRule("教育培训",
		[]string{"学费", "培训", "课程", "书籍", "教材", "学习", "补习", "家教", "驾校", "考试", "证书"},
		`.*学费.*`, `.*培训.*`, `.*课程.*`, `.*书籍.*`, `.*学习.*`),
	newRule("娱乐休闲",
		[]string{"电影", "游戏", "ktv", "酒吧", "旅游", "景点", "门票", "娱乐", "运动", "健身", "游泳", "球类"},
		`.*电影.*`, `.*游戏.*`, `.*ktv.*`, `.*旅游.*`, `.*门票.*`, `.*健身.*`),
	newRule("生活服务",
		[]string{"理发", "美容", "洗衣", "维修", "快递", "水电费", "物业费", "网费", "话费", "房租", "水费", "电费", "燃气费"},
		`.*理发.*`, `.*美容.*`, `.*维修.*`, `.*水电费.*`, `.*房租.*`, `.*话费.*`),
	newRule("日用百货",
		[]string{"洗发水", "沐浴露", "牙膏", "牙刷", "毛巾", "纸巾", "洗衣液", "清洁用品", "生活用品", "日用品"},
		`.*洗发水.*`, `.*沐浴露.*`, `.*牙膏.*`, `.*纸巾.*`, `.*生活用品.*`),
}

var incomeRules = []rule{
	newRule("工资收入",
		[]string{"工资", "薪水", "薪资", "月薪", "年薪", "奖金", "津贴", "补贴", "绩效"},
		`.*工资.*`, `.*薪水.*`, `.*奖金.*`, `.*津贴.*`, `.*补贴.*`),
	newRule("投资收益",
		[]string{"股票", "基金", "理财", "分红", "利息", "收益", "投资", "债券"},
		`.*股票.*`, `.*基金.*`, `.*理财.*`, `.*分红.*`, `.*利息.*`, `.*投资.*`),
	newRule("兼职收入",
		[]string{"兼职", "外快", "副业", "接单", "代驾", "外卖", "快递", "临时工"},
		`.*兼职.*`, `.*外快.*`, `.*副业.*`, `.*接单.*`, `.*代驾.*`),
	newRule("转账收入",
		[]string{"转账", "红包", "借款", "还款", "报销", "退款", "返现", "返利"},
		`.*转账.*`, `.*红包.*`, `.*报销.*`, `.*退款.*`, `.*返现.*`),
}

// Classifier scores a description against the built-in rule tables. The tables are read-only,
// so a Classifier is safe for concurrent use.
type Classifier struct {
	expense []rule
	income  []rule
}

// New returns a classifier over the built-in expense and income rule tables.
func New() *Classifier {
	return &Classifier{expense: expenseRules, income: incomeRules}
}

func (c *Classifier) rules(kind transaction.Kind) []rule {
	if kind == transaction.KindIncome {
		return c.income
	}

	return c.expense
}

// Classify returns the highest-scoring category for description, or Default(kind) when nothing
// matches. Keyword hits score 1 and pattern matches 2.
func (c *Classifier) Classify(description string, kind transaction.Kind) string {
	text := strings.ToLower(strings.TrimSpace(description))

	best, bestScore := "", 0

	for _, r := range c.rules(kind) {
		score := 0

		for _, k := range r.keywords {
			if strings.Contains(text, k) {
				score += keywordWeight
			}
		}

		for _, p := range r.patterns {
			if p.MatchString(text) {
				score += patternWeight
			}
		}

		if score > bestScore {
			best, bestScore = r.category, score
		}
	}

	if bestScore == 0 {
		return Default(kind)
	}

	return best
}

// Default is the category used when no rule matches: 未分类消费 or 其他收入.
func Default(kind transaction.Kind) string {
	if kind == transaction.KindIncome {
		return DefaultIncome
	}

	return DefaultExpense
}

// Supported lists the categories of kind's table in declaration order.
func (c *Classifier) Supported(kind transaction.Kind) []string {
	rules := c.rules(kind)

	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.category
	}

	return out
}

// Keywords returns the keyword hints for category, or nil when the category is unknown.
func (c *Classifier) Keywords(category string, kind transaction.Kind) []string {
	rules := c.rules(kind)

	i := slices.IndexFunc(rules, func(r rule) bool { return r.category == category })
	if i < 0 {
		return nil
	}

	return slices.Clone(rules[i].keywords)
}
