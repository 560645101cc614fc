package endpoints

import (
	"net/http"
	"net/url"
	"testing"
)

func TestPath(t *testing.T) {
	b := NewBuilder("https://api.example.org/admin/")

	tests := []struct {
		name     string
		route    Route
		params   map[string]string
		expected string
	}{
		{
			name:     "static route",
			route:    RouteDatasets,
			expected: "taxa/datasets",
		},
		{
			name:     "user taxa items",
			route:    RouteUserTaxaItems,
			params:   map[string]string{"id": "list-1"},
			expected: "user_taxa/list-1/items",
		},
		{
			name:     "user taxon",
			route:    RouteUserTaxon,
			params:   map[string]string{"id": "abc"},
			expected: "user_taxon/abc",
		},
		{
			name:     "escapes path segments",
			route:    RouteAttribute,
			params:   map[string]string{"id": "a/b"},
			expected: "attributes/a%2Fb",
		},
		{
			name:     "missing parameter stays unresolved",
			route:    RouteTaxonAttributes,
			expected: "taxa/{id}",
		},
		{
			name:     "unknown route",
			route:    Route("nope"),
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := b.Path(tt.route, tt.params)
			if result != tt.expected {
				t.Errorf("Path(%q) = %q, want %q", tt.route, result, tt.expected)
			}
		})
	}
}

func TestURL(t *testing.T) {
	b := NewBuilder("https://api.example.org/admin/")

	query := url.Values{}
	query.Set("page", "2")
	query.Set("page_size", "50")
	query.Set("q", "Acacia")

	got := b.URL(RouteTaxa, nil, query)
	want := "https://api.example.org/admin/taxa?page=2&page_size=50&q=Acacia"
	if got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}

	if got := b.URL(RouteMainMedia, nil, nil); got != "https://api.example.org/admin/media/main" {
		t.Errorf("unexpected main media URL %q", got)
	}
	if got := b.URL(Route("nope"), nil, nil); got != "" {
		t.Errorf("expected empty URL for unknown route, got %q", got)
	}
}

func TestUnresolved(t *testing.T) {
	if !Unresolved("user_taxon/{id}") {
		t.Errorf("expected placeholder to be detected")
	}
	if Unresolved("user_taxon/abc") {
		t.Errorf("expected resolved path")
	}
}

func TestIsWrite(t *testing.T) {
	for method, want := range map[string]bool{
		http.MethodGet:    false,
		http.MethodHead:   false,
		http.MethodPost:   true,
		http.MethodPut:    true,
		http.MethodDelete: true,
	} {
		if got := IsWrite(method); got != want {
			t.Errorf("IsWrite(%s) = %v, want %v", method, got, want)
		}
	}
}
