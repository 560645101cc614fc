package arga

import (
	"strings"

	"github.com/goccy/go-json"
)

// Page is one page of a listing endpoint.
type Page[T any] struct {
	Total   int `json:"total"`
	Records []T `json:"records"`
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Dataset struct {
	ID          string `json:"id"`
	GlobalID    string `json:"global_id"`
	Name        string `json:"name"`
	ShortName   string `json:"short_name"`
	Description string `json:"description,omitempty"`
}

// Taxon is a name in the reference taxonomy.
type Taxon struct {
	ID                       string `json:"id"`
	ScientificName           string `json:"scientific_name,omitempty"`
	ScientificNameAuthorship string `json:"scientific_name_authorship,omitempty"`
	CanonicalName            string `json:"canonical_name,omitempty"`
	GenericName              string `json:"generic_name,omitempty"`
	SpecificEpithet          string `json:"specific_epithet,omitempty"`
	IntraspecificEpithet     string `json:"intraspecific_epithet,omitempty"`
	TaxonRank                string `json:"taxon_rank,omitempty"`
	NameAccordingTo          string `json:"name_according_to,omitempty"`
	NamePublishedIn          string `json:"name_published_in,omitempty"`
	TaxonomicStatus          string `json:"taxonomic_status,omitempty"`
	Kingdom                  string `json:"kingdom,omitempty"`
	Phylum                   string `json:"phylum,omitempty"`
	Class                    string `json:"class,omitempty"`
	Order                    string `json:"order,omitempty"`
	Family                   string `json:"family,omitempty"`
	Genus                    string `json:"genus,omitempty"`
}

// AttributeValue is an attribute value the API sends either as a string or as a list
// of strings.
type AttributeValue []string

func (v *AttributeValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = nil
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*v = AttributeValue{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*v = list
	return nil
}

func (v AttributeValue) MarshalJSON() ([]byte, error) {
	if len(v) == 1 {
		return json.Marshal(v[0])
	}
	return json.Marshal([]string(v))
}

func (v AttributeValue) String() string {
	return strings.Join(v, ", ")
}

type TaxonAttribute struct {
	ID       string         `json:"id"`
	DataType string         `json:"data_type"`
	Name     string         `json:"name"`
	Value    AttributeValue `json:"value"`
}

type NameList struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ListType    string `json:"list_type"`
	Description string `json:"description,omitempty"`
}

// UserTaxa is a curated list of user taxon rows.
type UserTaxa struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// UserTaxon is one editable row of a user taxa list.
type UserTaxon struct {
	ID                       string `json:"id,omitempty"`
	TaxaListsID              string `json:"taxa_lists_id"`
	ScientificName           string `json:"scientific_name,omitempty"`
	ScientificNameAuthorship string `json:"scientific_name_authorship,omitempty"`
	CanonicalName            string `json:"canonical_name,omitempty"`
	GenericName              string `json:"generic_name,omitempty"`
	SpecificEpithet          string `json:"specific_epithet,omitempty"`
	IntraspecificEpithet     string `json:"intraspecific_epithet,omitempty"`
	TaxonRank                string `json:"taxon_rank,omitempty"`
	NameAccordingTo          string `json:"name_according_to,omitempty"`
	NamePublishedIn          string `json:"name_published_in,omitempty"`
	TaxonomicStatus          string `json:"taxonomic_status,omitempty"`
	TaxonRemarks             string `json:"taxon_remarks,omitempty"`
	Kingdom                  string `json:"kingdom,omitempty"`
	Phylum                   string `json:"phylum,omitempty"`
	Class                    string `json:"class,omitempty"`
	Order                    string `json:"order,omitempty"`
	Family                   string `json:"family,omitempty"`
	Genus                    string `json:"genus,omitempty"`
}

func (t UserTaxon) RowID() string { return t.ID }

// Attribute is a definition of a taxon attribute.
type Attribute struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	DataType     string `json:"data_type"`
	Description  string `json:"description,omitempty"`
	ReferenceURL string `json:"reference_url,omitempty"`
}

func (a Attribute) RowID() string { return a.ID }

// Same reports whether two rows carry identical values. It serves as the equality
// for comparable row types such as UserTaxon and Attribute.
func Same[R comparable](a, b R) bool {
	return a == b
}

type TaxaImport struct {
	File        string `json:"file"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// DefaultListImportWorker is the import worker used when a ListImport names none.
const DefaultListImportWorker = "import_conservation_status"

type ListImport struct {
	File        string `json:"file"`
	Name        string `json:"name"`
	Worker      string `json:"worker"`
	Description string `json:"description,omitempty"`
}

type Media struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	Source       string `json:"source,omitempty"`
	Publisher    string `json:"publisher,omitempty"`
	License      string `json:"license,omitempty"`
	RightsHolder string `json:"rights_holder,omitempty"`
}

// LargeURL is the medium sized rendition of a main image.
func (m Media) LargeURL() string {
	return strings.Replace(m.URL, "original", "medium", 1)
}

type SetMainMedia struct {
	URL            string `json:"url"`
	ScientificName string `json:"scientific_name"`
	Publisher      string `json:"publisher"`
	RightsHolder   string `json:"rights_holder"`
	License        string `json:"license"`
	Source         string `json:"source"`
}

type UploadMainMedia struct {
	File           string `json:"file"`
	ScientificName string `json:"scientific_name"`
	Publisher      string `json:"publisher"`
	RightsHolder   string `json:"rights_holder"`
	License        string `json:"license"`
	Source         string `json:"source,omitempty"`
}
