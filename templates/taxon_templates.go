package templates

// TaxonTemplate holds the values copied into every generated user taxon
type TaxonTemplate struct {
	Rank            string `json:"taxon_rank" yaml:"taxon_rank"`                 // e.g. "species", "subspecies"
	Status          string `json:"taxonomic_status" yaml:"taxonomic_status"`     // e.g. "accepted"
	Authorship      string `json:"scientific_name_authorship" yaml:"authorship"` // appended to the scientific name
	NameAccordingTo string `json:"name_according_to" yaml:"name_according_to"`
	NamePublishedIn string `json:"name_published_in" yaml:"name_published_in"`

	// Higher classification
	Kingdom string `json:"kingdom" yaml:"kingdom"`
	Phylum  string `json:"phylum" yaml:"phylum"`
	Class   string `json:"class" yaml:"class"`
	Order   string `json:"order" yaml:"order"`
	Family  string `json:"family" yaml:"family"`
}

// DefaultTaxonTemplate is used when a request carries no template
func DefaultTaxonTemplate() TaxonTemplate {
	return TaxonTemplate{
		Rank:   "species",
		Status: "accepted",
	}
}

// GenerationRequest represents a request to generate user taxa rows for one list
type GenerationRequest struct {
	ListID   string        `json:"list_id"`
	Genus    string        `json:"genus"`
	Epithets []string      `json:"epithets"`           // one row per epithet
	Infra    []string      `json:"infra,omitempty"`    // optional intraspecific epithets, parallel to Epithets
	Template TaxonTemplate `json:"template"`
}

// GenerationResult represents the result of row generation
type GenerationResult struct {
	Success bool           `json:"success"`
	Created []GeneratedRow `json:"created,omitempty"`
	Errors  []string       `json:"errors,omitempty"`
}

// GeneratedRow represents a successfully generated row
type GeneratedRow struct {
	ID             string `json:"id"`
	ScientificName string `json:"scientific_name"`
	Rank           string `json:"taxon_rank"`
}
