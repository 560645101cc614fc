package arga

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// ListData is a user taxa list with its rows, as exported.
type ListData struct {
	List  UserTaxa    `json:"list"`
	Items []UserTaxon `json:"items"`
}

// ToListData normalizes rows for export: values are trimmed and every row is assigned
// to list.
func ToListData(list UserTaxa, items []UserTaxon) ListData {
	normalized := make([]UserTaxon, len(items))
	for i, item := range items {
		for _, col := range userTaxonColumns {
			*col.field(&item) = strings.TrimSpace(*col.field(&item))
		}
		if list.ID != "" {
			item.TaxaListsID = list.ID
		}
		normalized[i] = item
	}
	return ListData{List: list, Items: normalized}
}

// ToJSON converts a list and its rows to JSON.
func ToJSON(list UserTaxa, items []UserTaxon, indent bool) (string, error) {
	data := ToListData(list, items)
	var result []byte
	var err error

	if indent {
		result, err = json.MarshalIndent(data, "", "  ")
	} else {
		result, err = json.Marshal(data)
	}

	if err != nil {
		return "", fmt.Errorf("failed to marshal list data: %w", err)
	}

	return string(result), nil
}

type userTaxonColumn struct {
	name  string
	field func(*UserTaxon) *string
}

// CSV columns, named after the API fields. taxa_lists_id is implied by the list.
var userTaxonColumns = []userTaxonColumn{
	{"id", func(t *UserTaxon) *string { return &t.ID }},
	{"scientific_name", func(t *UserTaxon) *string { return &t.ScientificName }},
	{"scientific_name_authorship", func(t *UserTaxon) *string { return &t.ScientificNameAuthorship }},
	{"canonical_name", func(t *UserTaxon) *string { return &t.CanonicalName }},
	{"generic_name", func(t *UserTaxon) *string { return &t.GenericName }},
	{"specific_epithet", func(t *UserTaxon) *string { return &t.SpecificEpithet }},
	{"intraspecific_epithet", func(t *UserTaxon) *string { return &t.IntraspecificEpithet }},
	{"taxon_rank", func(t *UserTaxon) *string { return &t.TaxonRank }},
	{"name_according_to", func(t *UserTaxon) *string { return &t.NameAccordingTo }},
	{"name_published_in", func(t *UserTaxon) *string { return &t.NamePublishedIn }},
	{"taxonomic_status", func(t *UserTaxon) *string { return &t.TaxonomicStatus }},
	{"taxon_remarks", func(t *UserTaxon) *string { return &t.TaxonRemarks }},
	{"kingdom", func(t *UserTaxon) *string { return &t.Kingdom }},
	{"phylum", func(t *UserTaxon) *string { return &t.Phylum }},
	{"class", func(t *UserTaxon) *string { return &t.Class }},
	{"order", func(t *UserTaxon) *string { return &t.Order }},
	{"family", func(t *UserTaxon) *string { return &t.Family }},
	{"genus", func(t *UserTaxon) *string { return &t.Genus }},
}

// WriteUserTaxaCSV writes rows as CSV with a header line.
func WriteUserTaxaCSV(w io.Writer, rows []UserTaxon) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(userTaxonColumns))
	for i, col := range userTaxonColumns {
		header[i] = col.name
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range rows {
		record := make([]string, len(userTaxonColumns))
		for i, col := range userTaxonColumns {
			record[i] = *col.field(&row)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %s: %w", row.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadUserTaxaCSV reads rows written by WriteUserTaxaCSV, or any CSV whose header
// names a subset of its columns, into rows of listID. Rows with an empty id are new
// and get a fresh one.
func ReadUserTaxaCSV(r io.Reader, listID string) ([]UserTaxon, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("CSV file is empty")
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	byName := make(map[string]userTaxonColumn, len(userTaxonColumns))
	for _, col := range userTaxonColumns {
		byName[col.name] = col
	}
	columns := make([]*userTaxonColumn, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if col, ok := byName[name]; ok {
			columns[i] = &col
		} else {
			log.Warnf("Ignoring unknown CSV column %q", name)
		}
	}

	var rows []UserTaxon
	seen := make(map[string]int)
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		row := UserTaxon{TaxaListsID: listID}
		for i, value := range record {
			if i < len(columns) && columns[i] != nil {
				*columns[i].field(&row) = strings.TrimSpace(value)
			}
		}
		if row.ID == "" {
			row.ID = uuid.NewString()
		}
		if prev, dup := seen[row.ID]; dup {
			return nil, fmt.Errorf("CSV line %d repeats id %s from line %d", line, row.ID, prev)
		}
		seen[row.ID] = line
		rows = append(rows, row)
	}

	log.Debugf("Read %d rows from CSV", len(rows))
	return rows, nil
}
