package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "siescli/internal/errors"
	"siescli/pkg/contracts/domain"
)

func regionRowSet(regions ...string) *domain.RowSet {
	rs := domain.NewRowSet([]string{"region", "ano_titulacion"})
	for _, r := range regions {
		rs.Rows = append(rs.Rows, domain.Row{"region": r, "ano_titulacion": "2020"})
	}
	return rs
}

func TestFilterMatchesVariations(t *testing.T) {
	f := NewRegionalFilter("Los Ríos", nil)

	tests := []struct {
		value string
		want  bool
	}{
		{"Los Ríos", true},
		{"los rios", true},
		{"LOS RÍOS", true},
		{"Región de Los Ríos", true},
		{"DE LOS RIOS", true},
		{"XIV Región", true},
		{"Los Lagos", false},
		{"Biobío", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, f.matches(tt.value), "matches(%q)", tt.value)
	}
}

func TestFilterReturnsSubset(t *testing.T) {
	f := NewRegionalFilter("Los Ríos", nil)
	rs := regionRowSet("Los Ríos", "Biobío", "Región de Los Ríos", "Los Lagos")

	out, err := f.Filter(rs)
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())
	assert.Equal(t, rs.Columns, out.Columns)
	for _, row := range out.Rows {
		assert.True(t, f.matches(row["region"]))
	}
	// Input is untouched.
	assert.Equal(t, 4, rs.Len())
}

func TestFilterZeroMatchesIsNotAnError(t *testing.T) {
	f := NewRegionalFilter("Magallanes", nil)
	rs := regionRowSet("Los Ríos", "Biobío")

	out, err := f.Filter(rs)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
}

func TestFilterWithoutRegionColumn(t *testing.T) {
	f := NewRegionalFilter("Los Ríos", nil)
	rs := domain.NewRowSet([]string{"carrera", "ano_titulacion"})
	rs.Rows = append(rs.Rows, domain.Row{"carrera": "Derecho", "ano_titulacion": "2020"})

	_, err := f.Filter(rs)
	require.Error(t, err)
	assert.True(t, apperrors.IsStage(err, apperrors.StageTransformation))
}

func TestFilterFindsRawRegionColumn(t *testing.T) {
	f := NewRegionalFilter("Los Ríos", nil)
	rs := domain.NewRowSet([]string{"Región de Residencia", "ano_titulacion"})
	rs.Rows = append(rs.Rows,
		domain.Row{"Región de Residencia": "Los Ríos", "ano_titulacion": "2020"},
		domain.Row{"Región de Residencia": "Biobío", "ano_titulacion": "2020"},
	)

	out, err := f.Filter(rs)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Len())
}

func TestBuildRegionalSummary(t *testing.T) {
	f := NewRegionalFilter("Los Ríos", nil)
	rs := domain.NewRowSet([]string{"region", "ano_titulacion", "nombre_institucion", "nivel_academico"})
	rs.Rows = append(rs.Rows,
		domain.Row{"region": "Los Ríos", "ano_titulacion": "2020", "nombre_institucion": "Universidad Austral", "nivel_academico": "Pregrado"},
		domain.Row{"region": "Los Ríos", "ano_titulacion": "2021", "nombre_institucion": "Universidad Austral", "nivel_academico": "Pregrado"},
		domain.Row{"region": "Biobío", "ano_titulacion": "2020", "nombre_institucion": "Universidad de Concepción", "nivel_academico": "Pregrado"},
		domain.Row{"region": "Los Lagos", "ano_titulacion": "2020", "nombre_institucion": "Universidad de Los Lagos", "nivel_academico": "Postgrado"},
	)

	summary := f.BuildRegionalSummary(rs)
	require.NotNil(t, summary)
	assert.Equal(t, "Los Ríos", summary.TargetRegion)
	assert.Equal(t, 4, summary.TotalRecords)
	assert.Equal(t, 2, summary.TargetRecords)
	assert.InDelta(t, 50.0, summary.TargetSharePercent, 0.001)

	assert.Equal(t, 2, summary.CountsByRegion["Los Ríos"])
	assert.Equal(t, 1, summary.CountsByRegion["Biobío"])
	assert.Equal(t, map[string]int{"2020": 1, "2021": 1}, summary.CountsByYear)
	assert.Equal(t, map[string]int{"Universidad Austral": 2}, summary.CountsByInstitution)
	assert.Equal(t, map[string]int{"Pregrado": 2}, summary.CountsByLevel)
}
