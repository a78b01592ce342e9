package importer

import (
	"io"

	"github.com/jizhang-jingling/jizhang/internal/transaction"
)

// Source names the bill format of an uploaded file.
type Source string

const (
	SourceAuto    Source = "auto"
	SourceJizhang Source = "jizhang"
	SourceWechat  Source = "wechat"
	SourceAlipay  Source = "alipay"
)

// Sources lists the accepted source values.
var Sources = []Source{SourceAuto, SourceJizhang, SourceWechat, SourceAlipay}

type Importer interface {
	Parse(r io.Reader) ([]transaction.Input, error)
}
