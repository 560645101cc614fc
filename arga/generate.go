package arga

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/zenibako/arga-golang/templates"
)

// GenerateUserTaxa builds new rows for req.ListID, one per epithet of req.Genus, with
// the classification and status of req.Template. Rows get fresh ids so they can be
// staged with Session.Append before anything reaches the server.
func GenerateUserTaxa(req templates.GenerationRequest) ([]UserTaxon, templates.GenerationResult) {
	result := templates.GenerationResult{}

	genus := strings.TrimSpace(req.Genus)
	if req.ListID == "" {
		result.Errors = append(result.Errors, "a list id is required")
	}
	if genus == "" {
		result.Errors = append(result.Errors, "a genus is required")
	}
	if len(req.Epithets) == 0 {
		result.Errors = append(result.Errors, "at least one epithet is required")
	}
	if len(result.Errors) > 0 {
		return nil, result
	}

	tmpl := req.Template
	if tmpl == (templates.TaxonTemplate{}) {
		tmpl = templates.DefaultTaxonTemplate()
	}

	seen := make(map[string]bool)
	var rows []UserTaxon
	for i, raw := range req.Epithets {
		epithet := strings.ToLower(strings.TrimSpace(raw))
		if epithet == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("epithet %d is empty", i+1))
			continue
		}

		var infra string
		if i < len(req.Infra) {
			infra = strings.ToLower(strings.TrimSpace(req.Infra[i]))
		}

		canonical := genus + " " + epithet
		if infra != "" {
			canonical += " " + infra
		}
		if seen[canonical] {
			result.Errors = append(result.Errors, fmt.Sprintf("duplicate name %s", canonical))
			continue
		}
		seen[canonical] = true

		scientific := canonical
		if tmpl.Authorship != "" {
			scientific += " " + tmpl.Authorship
		}

		rank := tmpl.Rank
		if infra != "" && (rank == "" || rank == "species") {
			rank = "subspecies"
		}

		row := UserTaxon{
			ID:                       uuid.NewString(),
			TaxaListsID:              req.ListID,
			ScientificName:           scientific,
			ScientificNameAuthorship: tmpl.Authorship,
			CanonicalName:            canonical,
			GenericName:              genus,
			SpecificEpithet:          epithet,
			IntraspecificEpithet:     infra,
			TaxonRank:                rank,
			NameAccordingTo:          tmpl.NameAccordingTo,
			NamePublishedIn:          tmpl.NamePublishedIn,
			TaxonomicStatus:          tmpl.Status,
			Kingdom:                  tmpl.Kingdom,
			Phylum:                   tmpl.Phylum,
			Class:                    tmpl.Class,
			Order:                    tmpl.Order,
			Family:                   tmpl.Family,
			Genus:                    genus,
		}
		rows = append(rows, row)
		result.Created = append(result.Created, templates.GeneratedRow{
			ID:             row.ID,
			ScientificName: row.ScientificName,
			Rank:           row.TaxonRank,
		})
		log.Debug("Generated user taxon", "id", row.ID, "name", row.ScientificName)
	}

	result.Success = len(result.Errors) == 0
	return rows, result
}
