package endpoints

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// REST routes of the ARGA admin API

// Route identifies one admin endpoint
type Route string

const (
	// Auth
	RouteLogin Route = "login"

	// Taxa
	RouteDatasets        Route = "datasets"
	RouteTaxa            Route = "taxa"
	RouteTaxonAttributes Route = "taxon_attributes"

	// Lists
	RouteNameLists Route = "name_lists"

	// User taxa lists
	RouteUserTaxaList  Route = "user_taxa_list"
	RouteUserTaxa      Route = "user_taxa"
	RouteUserTaxaItems Route = "user_taxa_items"
	RouteUserTaxon     Route = "user_taxon"

	// Attributes
	RouteAttributes Route = "attributes"
	RouteAttribute  Route = "attribute"

	// Imports
	RouteUpload Route = "upload"
	RouteQueue  Route = "queue"

	// Media
	RouteMedia           Route = "media"
	RouteMediaUpload     Route = "media_upload"
	RouteMainMedia       Route = "main_media"
	RouteMainMediaUpload Route = "main_media_upload"
)

// Path patterns, relative to the API base URL
const (
	PathLogin = "login"

	PathDatasets        = "taxa/datasets"
	PathTaxa            = "taxa"
	PathTaxonAttributes = "taxa/{id}"

	PathNameLists = "lists"

	PathUserTaxaList  = "user_taxa"
	PathUserTaxa      = "user_taxa/{id}"
	PathUserTaxaItems = "user_taxa/{id}/items"
	PathUserTaxon     = "user_taxon/{id}"

	PathAttributes = "attributes"
	PathAttribute  = "attributes/{id}"

	PathUpload = "upload"
	PathQueue  = "queue"

	PathMedia           = "media"
	PathMediaUpload     = "media/upload"
	PathMainMedia       = "media/main"
	PathMainMediaUpload = "media/upload_main_image"
)

var routePaths = map[Route]string{
	RouteLogin:           PathLogin,
	RouteDatasets:        PathDatasets,
	RouteTaxa:            PathTaxa,
	RouteTaxonAttributes: PathTaxonAttributes,
	RouteNameLists:       PathNameLists,
	RouteUserTaxaList:    PathUserTaxaList,
	RouteUserTaxa:        PathUserTaxa,
	RouteUserTaxaItems:   PathUserTaxaItems,
	RouteUserTaxon:       PathUserTaxon,
	RouteAttributes:      PathAttributes,
	RouteAttribute:       PathAttribute,
	RouteUpload:          PathUpload,
	RouteQueue:           PathQueue,
	RouteMedia:           PathMedia,
	RouteMediaUpload:     PathMediaUpload,
	RouteMainMedia:       PathMainMedia,
	RouteMainMediaUpload: PathMainMediaUpload,
}

// Builder builds request URLs from routes and parameters
type Builder struct {
	baseURL string
}

// NewBuilder creates a builder rooted at baseURL
func NewBuilder(baseURL string) *Builder {
	return &Builder{
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// BaseURL returns the root every path is joined to
func (b *Builder) BaseURL() string {
	return b.baseURL
}

// Path builds the relative path of a route, substituting {placeholders} from params.
// Unknown routes return "".
func (b *Builder) Path(route Route, params map[string]string) string {
	path, ok := routePaths[route]
	if !ok {
		return ""
	}

	for key, value := range params {
		placeholder := fmt.Sprintf("{%s}", key)
		path = strings.ReplaceAll(path, placeholder, url.PathEscape(value))
	}

	return path
}

// URL builds the absolute URL of a route with an optional query string
func (b *Builder) URL(route Route, params map[string]string, query url.Values) string {
	path := b.Path(route, params)
	if path == "" {
		return ""
	}

	u := b.baseURL + "/" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Unresolved reports whether a built path still contains a placeholder
func Unresolved(path string) bool {
	return strings.Contains(path, "{") && strings.Contains(path, "}")
}

// IsWrite reports whether a request with this method changes server state
func IsWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
