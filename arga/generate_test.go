package arga

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/zenibako/arga-golang/templates"
)

func TestGenerateUserTaxaValidation(t *testing.T) {
	tests := []struct {
		name string
		req  templates.GenerationRequest
		want []string
	}{
		{
			name: "missing everything",
			req:  templates.GenerationRequest{},
			want: []string{"a list id is required", "a genus is required", "at least one epithet is required"},
		},
		{
			name: "blank genus",
			req:  templates.GenerationRequest{ListID: "L1", Genus: "  ", Epithets: []string{"dealbata"}},
			want: []string{"a genus is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, result := GenerateUserTaxa(tt.req)
			if len(rows) != 0 {
				t.Errorf("expected no rows, got %d", len(rows))
			}
			if result.Success {
				t.Errorf("expected the request to fail")
			}
			if diff := cmp.Diff(tt.want, result.Errors); diff != "" {
				t.Errorf("errors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGenerateUserTaxaDefaults(t *testing.T) {
	rows, result := GenerateUserTaxa(templates.GenerationRequest{
		ListID:   "L1",
		Genus:    "Acacia",
		Epithets: []string{" Dealbata", "baileyana", "dealbata", ""},
	})

	wantErrors := []string{"duplicate name Acacia dealbata", "epithet 4 is empty"}
	if diff := cmp.Diff(wantErrors, result.Errors); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
	if result.Success {
		t.Errorf("expected partial failure to be reported")
	}
	if len(rows) != 2 || len(result.Created) != 2 {
		t.Fatalf("expected 2 rows, got %d rows and %d results", len(rows), len(result.Created))
	}

	first := rows[0]
	if first.ID == "" || first.ID != result.Created[0].ID {
		t.Errorf("expected a fresh id reported in the result, got %q", first.ID)
	}
	first.ID = ""
	want := UserTaxon{
		TaxaListsID:     "L1",
		ScientificName:  "Acacia dealbata",
		CanonicalName:   "Acacia dealbata",
		GenericName:     "Acacia",
		SpecificEpithet: "dealbata",
		TaxonRank:       "species",
		TaxonomicStatus: "accepted",
		Genus:           "Acacia",
	}
	if diff := cmp.Diff(want, first); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
	if rows[0].ID == rows[1].ID {
		t.Errorf("expected distinct ids")
	}
}

func TestGenerateUserTaxaInfraspecific(t *testing.T) {
	rows, result := GenerateUserTaxa(templates.GenerationRequest{
		ListID:   "L1",
		Genus:    "Acacia",
		Epithets: []string{"dealbata", "dealbata"},
		Infra:    []string{"Subalpina"},
		Template: templates.TaxonTemplate{
			Rank:       "species",
			Status:     "accepted",
			Authorship: "Tindale & Kodela",
			Kingdom:    "Plantae",
			Family:     "Fabaceae",
		},
	})
	if !result.Success {
		t.Fatalf("unexpected errors %v", result.Errors)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	sub := rows[0]
	if sub.ScientificName != "Acacia dealbata subalpina Tindale & Kodela" {
		t.Errorf("unexpected scientific name %q", sub.ScientificName)
	}
	if sub.TaxonRank != "subspecies" || sub.IntraspecificEpithet != "subalpina" {
		t.Errorf("expected a subspecies row, got %+v", sub)
	}
	if sub.Family != "Fabaceae" || sub.Kingdom != "Plantae" {
		t.Errorf("expected the template classification, got %+v", sub)
	}
	if rows[1].TaxonRank != "species" || rows[1].CanonicalName != "Acacia dealbata" {
		t.Errorf("expected the second row to stay a species, got %+v", rows[1])
	}
}
