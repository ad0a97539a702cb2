package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableNames(t *testing.T) {
	tests := []struct {
		name     string
		model    interface{ TableName() string }
		expected string
	}{
		{"Run", &Run{}, "runs"},
		{"FrameStat", &FrameStat{}, "frame_stats"},
		{"SummaryStat", &SummaryStat{}, "summary_stats"},
		{"BandStat", &BandStat{}, "band_stats"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.model.TableName())
		})
	}
}

func TestDatabaseModels_CoversEveryTable(t *testing.T) {
	assert.Len(t, DatabaseModels, 4)
	for _, m := range DatabaseModels {
		_, ok := m.(interface{ TableName() string })
		assert.True(t, ok, "%T must name its table", m)
	}
}
