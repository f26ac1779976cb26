package diary_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/dmcalde/sitework/internal/importer/diary"
	"github.com/dmcalde/sitework/internal/project"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestParser_Standard(t *testing.T) {
	csv := `date;stage;increment;hours;lat;lon;evidence;notes
2025-03-01;foundation;5;8;12.9716;77.5946;s3://evidence/p1/d1.jpg;Excavation done
2025-03-02;foundation;10;7.5;;;s3://evidence/p1/d2.jpg,s3://evidence/p1/d2b.jpg;Footings poured
`

	p := diary.NewParser()
	rows, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, date(2025, 3, 1), rows[0].Date)
	assert.Equal(t, project.StageFoundation, rows[0].Stage)
	assert.Equal(t, 5.0, rows[0].IncrementalPct)
	assert.Equal(t, 8.0, rows[0].WorkingHours)
	require.NotNil(t, rows[0].Lat)
	assert.Equal(t, 12.9716, *rows[0].Lat)
	assert.Equal(t, []string{"s3://evidence/p1/d1.jpg"}, rows[0].EvidenceRefs)
	assert.Equal(t, "Excavation done", rows[0].Notes)

	assert.Equal(t, date(2025, 3, 2), rows[1].Date)
	assert.Nil(t, rows[1].Lat)
	assert.Len(t, rows[1].EvidenceRefs, 2)
}

func TestParser_Fieldbook(t *testing.T) {
	csv := `Projekt;Hausbau Müller
Export;01.03.2025

Datum;Gewerk;Fortschritt %;Stunden;Breite;Länge;Fotos;Bemerkung
01.03.2025;brickwork;12,5;8,0;12.9716;77.5946;ref-1;Mauerwerk EG
`

	p := diary.NewParser()
	rows, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, date(2025, 3, 1), rows[0].Date)
	assert.Equal(t, project.StageBrickwork, rows[0].Stage)
	assert.Equal(t, 12.5, rows[0].IncrementalPct)
	assert.Equal(t, 8.0, rows[0].WorkingHours)
	assert.Equal(t, "Mauerwerk EG", rows[0].Notes)
}

func TestParser_Windows1252Encoding(t *testing.T) {
	utf8CSV := "date;stage;increment;notes\n2025-03-01;finishing;5;Pintura concluída\n"

	latin1Bytes, err := charmap.Windows1252.NewEncoder().Bytes([]byte(utf8CSV))
	require.NoError(t, err)

	p := diary.NewParser()
	rows, err := p.Parse(bytes.NewReader(latin1Bytes))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "Pintura concluída", rows[0].Notes)
}

func TestParser_DifferentColumnOrder(t *testing.T) {
	csv := `increment;notes;date;stage;ignored
7,5;reordered;2025-03-01;roofing;XXX
`

	p := diary.NewParser()
	rows, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, project.StageRoofing, rows[0].Stage)
	assert.Equal(t, 7.5, rows[0].IncrementalPct)
}

func TestParser_UnknownStage(t *testing.T) {
	csv := `date;stage;increment
2025-03-01;landscaping;5
`

	p := diary.NewParser()
	_, err := p.Parse(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
	assert.Contains(t, err.Error(), "landscaping")
}

func TestParser_InvalidIncrement(t *testing.T) {
	csv := `date;stage;increment
2025-03-01;foundation;lots
`

	p := diary.NewParser()
	_, err := p.Parse(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
	assert.Contains(t, err.Error(), "increment")
}

func TestParser_LatWithoutLon(t *testing.T) {
	csv := `date;stage;increment;lat;lon
2025-03-01;foundation;5;12.9716;
`

	p := diary.NewParser()
	_, err := p.Parse(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "latitude and longitude")
}

func TestParser_EmptyFile(t *testing.T) {
	p := diary.NewParser()
	_, err := p.Parse(strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no matching diary format")
}

func TestParser_HeaderOnly(t *testing.T) {
	csv := `date;stage;increment;hours`

	p := diary.NewParser()
	rows, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParser_SkipsFooterRows(t *testing.T) {
	csv := `date;stage;increment
2025-03-01;foundation;5
Total;;5
`

	p := diary.NewParser()
	rows, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestParser_PercentSuffix(t *testing.T) {
	csv := `date;stage;increment
2025-03-01;electrical;15%
`

	p := diary.NewParser()
	rows, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, 15.0, rows[0].IncrementalPct)
}
