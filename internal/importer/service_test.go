package importer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jizhang-jingling/jizhang/internal/importer"
	"github.com/jizhang-jingling/jizhang/internal/importer/csvbill"
)

const jizhangCSV = `时间,类型,金额,分类,描述,标签
2026-02-01 12:00:00,支出,35.00,餐饮美食,午餐,
`

func TestService_Import(t *testing.T) {
	tests := []struct {
		name    string
		source  importer.Source
		wantLen int
		wantErr error
	}{
		{name: "auto detects", source: importer.SourceAuto, wantLen: 1},
		{name: "empty source auto detects", source: "", wantLen: 1},
		{name: "explicit profile", source: importer.SourceJizhang, wantLen: 1},
		{name: "wrong profile", source: importer.SourceWechat, wantErr: csvbill.ErrUnknownFormat},
	}

	svc := importer.NewService()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ins, err := svc.Import(tt.source, strings.NewReader(jizhangCSV))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Len(t, ins, tt.wantLen)
		})
	}
}

func TestService_ImportUnknownSource(t *testing.T) {
	_, err := importer.NewService().Import("bank", strings.NewReader(jizhangCSV))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source: bank")
}
