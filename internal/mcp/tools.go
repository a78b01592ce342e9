package mcp

import (
	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Tool names.
const (
	ToolRecord         = "record_transaction"
	ToolRecordBatch    = "record_transactions_batch"
	ToolCheckDuplicate = "check_duplicate_transaction"
	ToolToday          = "get_today_transactions"
	ToolByDateRange    = "get_transactions_by_date_range"
	ToolSummary        = "get_transaction_summary"
	ToolDelete         = "delete_transaction"
	ToolDeleteBatch    = "delete_transactions_batch"
)

const (
	typeDescription     = "交易类型：income（收入）或 expense（支出）"
	categoryDescription = "交易分类（可选），如：餐饮美食、交通出行、服装鞋帽。未提供时自动分类"
)

var transactionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"type":        map[string]any{"type": "string", "enum": []string{"income", "expense"}, "description": typeDescription},
		"amount":      map[string]any{"type": "number", "description": "交易金额，必须为正数"},
		"description": map[string]any{"type": "string", "description": "交易描述，记录用户的原始输入内容"},
		"category":    map[string]any{"type": "string", "description": categoryDescription},
		"tags":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"timestamp":   map[string]any{"type": "string", "description": "发生时间（可选），格式 2006-01-02 15:04:05"},
	},
	"required": []string{"type", "amount", "description"},
}

func transactionParams() []mcpgo.ToolOption {
	return []mcpgo.ToolOption{
		mcpgo.WithString("type", mcpgo.Required(), mcpgo.Enum("income", "expense"), mcpgo.Description(typeDescription)),
		mcpgo.WithNumber("amount", mcpgo.Required(), mcpgo.Description("交易金额，必须为正数")),
		mcpgo.WithString("description", mcpgo.Required(), mcpgo.Description("交易描述，记录用户的原始输入内容；可包含“昨天”“3天前”等相对日期")),
		mcpgo.WithString("category", mcpgo.Description(categoryDescription)),
	}
}

func rangeParams() []mcpgo.ToolOption {
	return []mcpgo.ToolOption{
		mcpgo.WithString("type", mcpgo.Enum("income", "expense"), mcpgo.Description(typeDescription)),
		mcpgo.WithString("category", mcpgo.Description("只统计该分类")),
		mcpgo.WithString("end_date", mcpgo.Description("结束日期，格式 2006-01-02，包含当天")),
	}
}

// Tools lists every tool with its handler.
func (s *Server) Tools() []server.ServerTool {
	record := append([]mcpgo.ToolOption{
		mcpgo.WithDescription("记录一笔金钱收支交易 - 仅当用户明确要记录收入、支出、花费、购买等交易时使用。"),
	}, transactionParams()...)
	record = append(record,
		mcpgo.WithArray("tags", mcpgo.Items(map[string]any{"type": "string"}), mcpgo.Description("交易标签（可选），例如 ['reimbursement'] 表示可报销")),
		mcpgo.WithString("timestamp", mcpgo.Description("发生时间（可选），格式 2006-01-02 15:04:05；省略时根据描述推断")),
	)

	check := append([]mcpgo.ToolOption{
		mcpgo.WithDescription("检查是否存在相似的交易记录 - 在记录前使用，避免重复添加。基于类型、金额、描述和分类计算相似度。"),
	}, transactionParams()...)
	check = append(check,
		mcpgo.WithNumber("hours_back", mcpgo.Description("检查时间窗口（小时），默认24小时")),
		mcpgo.WithString("scope", mcpgo.Enum("today"), mcpgo.Description("设为 today 时只与今天的记录比较")),
	)

	byRange := append([]mcpgo.ToolOption{
		mcpgo.WithDescription("按日期范围查询交易记录"),
		mcpgo.WithString("start_date", mcpgo.Required(), mcpgo.Description("开始日期，格式 2006-01-02")),
		mcpgo.WithNumber("limit", mcpgo.Description("最多返回的记录数")),
	}, rangeParams()...)

	summary := append([]mcpgo.ToolOption{
		mcpgo.WithDescription("获取财务统计汇总 - 计算总收入、总支出、余额及分类合计"),
		mcpgo.WithString("start_date", mcpgo.Description("开始日期（可选），格式 2006-01-02")),
	}, rangeParams()...)

	return []server.ServerTool{
		{Tool: mcpgo.NewTool(ToolRecord, record...), Handler: s.handler(ToolRecord, s.record)},
		{
			Tool: mcpgo.NewTool(ToolRecordBatch,
				mcpgo.WithDescription("批量记录多笔交易 - 用户一句话提到多笔交易时使用，例如“早餐7块，雪糕2块，衣服200”。全部成功或全部不记录。"),
				mcpgo.WithArray("transactions", mcpgo.Required(), mcpgo.Items(transactionSchema), mcpgo.Description("交易记录数组，至少包含一笔交易")),
			),
			Handler: s.handler(ToolRecordBatch, s.recordBatch),
		},
		{Tool: mcpgo.NewTool(ToolCheckDuplicate, check...), Handler: s.handler(ToolCheckDuplicate, s.checkDuplicate)},
		{
			Tool:    mcpgo.NewTool(ToolToday, mcpgo.WithDescription("获取今天的交易记录")),
			Handler: s.handler(ToolToday, s.today),
		},
		{Tool: mcpgo.NewTool(ToolByDateRange, byRange...), Handler: s.handler(ToolByDateRange, s.byDateRange)},
		{Tool: mcpgo.NewTool(ToolSummary, summary...), Handler: s.handler(ToolSummary, s.summary)},
		{
			Tool: mcpgo.NewTool(ToolDelete,
				mcpgo.WithDescription("删除一笔交易记录"),
				mcpgo.WithString("id", mcpgo.Required(), mcpgo.Description("交易ID")),
			),
			Handler: s.handler(ToolDelete, s.delete),
		},
		{
			Tool: mcpgo.NewTool(ToolDeleteBatch,
				mcpgo.WithDescription("批量删除交易记录"),
				mcpgo.WithArray("ids", mcpgo.Required(), mcpgo.Items(map[string]any{"type": "string"}), mcpgo.Description("交易ID数组")),
			),
			Handler: s.handler(ToolDeleteBatch, s.deleteBatch),
		},
	}
}
