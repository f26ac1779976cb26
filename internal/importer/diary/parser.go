// Package diary parses site-diary CSV exports into daily progress
// submissions. It auto-detects which field app produced the file by
// matching column headers against known profiles.
package diary

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	enc "github.com/dmcalde/sitework/internal/encoding"
	"github.com/dmcalde/sitework/internal/progress"
	"github.com/dmcalde/sitework/internal/project"
)

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]progress.SubmitParams, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, cols, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("no matching diary format found: expected date, stage and increment columns")
	}

	return parseRows(profile, cols, rows[headerIdx+1:], headerIdx+1)
}

// colIndex maps column names to their index in the row.
type colIndex map[string]int

// detectProfile scans rows for a header that matches a known profile.
// Field apps sometimes emit metadata lines before the header, so the
// header is not assumed to be the first row.
func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.TrimSpace(cell)
			if name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// parseRows extracts submissions from data rows using the matched profile.
// headerRowNum is the 0-based index of the header in the original file,
// used for 1-based row numbers in error messages.
func parseRows(p *Profile, cols colIndex, rows [][]string, headerRowNum int) ([]progress.SubmitParams, error) {
	var params []progress.SubmitParams

	for i, row := range rows {
		rowNum := headerRowNum + i + 2 // 1-based, skipping header

		date, ok := parseDate(p, row, cols)
		if !ok {
			// Blank or unparseable dates mark footer/summary rows.
			continue
		}

		stage := project.Stage(strings.ToLower(cellValue(row, cols[p.StageCol])))
		if !stage.Valid() {
			return nil, fmt.Errorf("row %d: unknown stage %q", rowNum, cellValue(row, cols[p.StageCol]))
		}

		increment, err := parsePercentage(cellValue(row, cols[p.IncrementCol]))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid increment: %w", rowNum, err)
		}

		entry := progress.SubmitParams{
			Date:           date,
			Stage:          stage,
			IncrementalPct: increment,
			Notes:          optionalCell(p.NotesCol, row, cols),
		}

		if s := optionalCell(p.HoursCol, row, cols); s != "" {
			hours, err := parseDecimal(s)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid hours: %w", rowNum, err)
			}

			entry.WorkingHours = hours
		}

		lat, lon, err := parseLocation(p, row, cols)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		entry.Lat = lat
		entry.Lon = lon

		if s := optionalCell(p.EvidenceCol, row, cols); s != "" {
			entry.EvidenceRefs = splitRefs(s)
		}

		params = append(params, entry)
	}

	return params, nil
}

func parseDate(p *Profile, row []string, cols colIndex) (time.Time, bool) {
	s := cellValue(row, cols[p.DateCol])
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range p.DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// parsePercentage accepts "12,5", "12.5" and "12,5%".
func parsePercentage(s string) (float64, error) {
	return parseDecimal(strings.TrimSuffix(strings.TrimSpace(s), "%"))
}

// parseDecimal handles both comma and dot decimal separators.
func parseDecimal(s string) (float64, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", ".")

	return strconv.ParseFloat(clean, 64)
}

func parseLocation(p *Profile, row []string, cols colIndex) (*float64, *float64, error) {
	latStr := optionalCell(p.LatCol, row, cols)
	lonStr := optionalCell(p.LonCol, row, cols)

	if latStr == "" && lonStr == "" {
		return nil, nil, nil
	}

	if latStr == "" || lonStr == "" {
		return nil, nil, fmt.Errorf("location needs both latitude and longitude")
	}

	lat, err := parseDecimal(latStr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid latitude: %w", err)
	}

	lon, err := parseDecimal(lonStr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid longitude: %w", err)
	}

	return &lat, &lon, nil
}

func splitRefs(s string) []string {
	var refs []string

	for _, part := range strings.Split(s, ",") {
		if ref := strings.TrimSpace(part); ref != "" {
			refs = append(refs, ref)
		}
	}

	return refs
}

func optionalCell(col string, row []string, cols colIndex) string {
	if col == "" {
		return ""
	}

	idx, ok := cols[col]
	if !ok {
		return ""
	}

	return cellValue(row, idx)
}

// cellValue safely gets a trimmed cell value from a row.
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
