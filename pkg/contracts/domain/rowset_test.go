package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowSetClone(t *testing.T) {
	rs := NewRowSet([]string{"region", "ano_titulacion"})
	rs.Rows = append(rs.Rows, Row{"region": "Los Ríos", "ano_titulacion": "2020"})

	clone := rs.Clone()
	require.Equal(t, rs.Columns, clone.Columns)
	require.Equal(t, rs.Rows, clone.Rows)

	clone.Rows[0]["region"] = "Biobío"
	clone.Columns[0] = "changed"

	assert.Equal(t, "Los Ríos", rs.Rows[0]["region"], "clone must not share row maps")
	assert.Equal(t, "region", rs.Columns[0], "clone must not share the column slice")
}

func TestRowKeyDistinguishesAbsentFromEmpty(t *testing.T) {
	columns := []string{"region", "comuna"}
	withEmpty := Row{"region": "Los Ríos", "comuna": ""}
	withAbsent := Row{"region": "Los Ríos"}

	assert.NotEqual(t, withEmpty.Key(columns), withAbsent.Key(columns))
}

func TestRowSetDuplicateCount(t *testing.T) {
	tests := []struct {
		name string
		rows []Row
		want int
	}{
		{
			name: "no duplicates",
			rows: []Row{{"region": "Los Ríos"}, {"region": "Biobío"}},
			want: 0,
		},
		{
			name: "one exact duplicate",
			rows: []Row{{"region": "Los Ríos"}, {"region": "Los Ríos"}, {"region": "Biobío"}},
			want: 1,
		},
		{
			name: "triple counts twice",
			rows: []Row{{"region": "Los Ríos"}, {"region": "Los Ríos"}, {"region": "Los Ríos"}},
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := NewRowSet([]string{"region"})
			rs.Rows = tt.rows
			assert.Equal(t, tt.want, rs.DuplicateCount())
		})
	}
}

func TestRowSetMissingByColumn(t *testing.T) {
	rs := NewRowSet([]string{"region", "ano_titulacion", "carrera"})
	rs.Rows = []Row{
		{"region": "Los Ríos", "ano_titulacion": "2020", "carrera": "Derecho"},
		{"region": "Los Ríos", "carrera": "Derecho"},
		{"region": "Los Ríos"},
	}

	missing := rs.MissingByColumn()
	assert.Equal(t, map[string]int{"ano_titulacion": 2, "carrera": 1}, missing)
	assert.NotContains(t, missing, "region")
}

func TestQualityReportScore(t *testing.T) {
	tests := []struct {
		name   string
		report *QualityReport
		want   float64
	}{
		{"nil report", nil, 0},
		{"no records", &QualityReport{}, 0},
		{"all valid", &QualityReport{TotalRecords: 8, ValidRecords: 8}, 100},
		{"seven of eight", &QualityReport{TotalRecords: 8, ValidRecords: 7, InvalidRecords: 1}, 87.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.report.QualityScore(), 0.001)
		})
	}
}
