package importer

import (
	"fmt"
	"io"

	"github.com/jizhang-jingling/jizhang/internal/importer/csvbill"
	"github.com/jizhang-jingling/jizhang/internal/transaction"
)

type Service struct {
	importers map[Source]Importer
}

func NewService() *Service {
	return &Service{
		importers: map[Source]Importer{
			SourceAuto:    csvbill.NewParser(),
			SourceJizhang: csvbill.NewParser(csvbill.ProfileJizhang),
			SourceWechat:  csvbill.NewParser(csvbill.ProfileWechat),
			SourceAlipay:  csvbill.NewParser(csvbill.ProfileAlipay),
		},
	}
}

// Import parses r as the given source. An empty source auto-detects the format.
func (s *Service) Import(source Source, r io.Reader) ([]transaction.Input, error) {
	if source == "" {
		source = SourceAuto
	}

	importer, ok := s.importers[source]
	if !ok {
		return nil, fmt.Errorf("unknown source: %s", source)
	}

	ins, err := importer.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse %s bill: %w", source, err)
	}

	return ins, nil
}
