package arga

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/h2non/gock"
)

const inatHost = "https://api.inaturalist.org"

func TestExtractRightsHolder(t *testing.T) {
	tests := []struct {
		attribution string
		want        string
	}{
		{"", ""},
		{"(c) Jane Doe, some rights reserved (CC BY)", "Jane Doe"},
		{"(c) Jane Doe, some rights reserved (CC BY-NC)", "Jane Doe"},
		{"(c) Jane Doe, all rights reserved", "Jane Doe, all rights reserved"},
		{"Jane Doe", "Jane Doe"},
	}
	for _, tt := range tests {
		t.Run(tt.attribution, func(t *testing.T) {
			if got := ExtractRightsHolder(tt.attribution); got != tt.want {
				t.Errorf("ExtractRightsHolder(%q) = %q, want %q", tt.attribution, got, tt.want)
			}
		})
	}
}

func TestINaturalistPhotos(t *testing.T) {
	n := NewINaturalist("")
	gock.InterceptClient(n.HTTPClient())
	defer gock.OffAll()

	gock.New(inatHost).
		Get("/v1/observations").
		MatchParam("taxon_name", "Acacia dealbata").
		MatchParam("quality_grade", "research").
		MatchParam("photo_licensed", "true").
		MatchParam("page", "2").
		MatchParam("per_page", "20").
		Reply(200).
		BodyString(`{
			"total_results": 41,
			"page": 2,
			"per_page": 20,
			"results": [
				{
					"uri": "https://www.inaturalist.org/observations/100",
					"photos": [
						{
							"id": 11,
							"url": "https://static.inaturalist.org/photos/11/square.jpg",
							"license_code": "cc-by",
							"attribution": "(c) Jane Doe, some rights reserved (CC BY)"
						},
						{
							"id": 12,
							"url": "https://static.inaturalist.org/photos/12/square.jpg",
							"license_code": "cc0",
							"attribution": "Jane Doe"
						}
					]
				}
			]
		}`)

	page, err := n.Photos(context.Background(), "Acacia dealbata", 2, 0)
	if err != nil {
		t.Fatalf("Photos failed: %v", err)
	}
	if page.TotalResults != 41 || page.Page != 2 || len(page.Photos) != 2 {
		t.Fatalf("unexpected page %+v", page)
	}

	photo := page.Photos[0]
	if photo.URL != "https://static.inaturalist.org/photos/11/small.jpg" {
		t.Errorf("expected the small rendition, got %s", photo.URL)
	}

	want := SetMainMedia{
		URL:            "https://static.inaturalist.org/photos/11/small.jpg",
		ScientificName: "Acacia dealbata",
		Publisher:      "iNaturalist",
		RightsHolder:   "Jane Doe",
		License:        "cc-by",
		Source:         "https://www.inaturalist.org/observations/100",
	}
	if diff := cmp.Diff(want, photo.MainMedia("Acacia dealbata")); diff != "" {
		t.Errorf("main media mismatch (-want +got):\n%s", diff)
	}
}

func TestINaturalistErrors(t *testing.T) {
	n := NewINaturalist(inatHost + "/v1")
	gock.InterceptClient(n.HTTPClient())
	defer gock.OffAll()

	gock.New(inatHost).Get("/v1/observations").Reply(404).JSON(map[string]string{"error": "unknown taxon"})
	if _, err := n.Photos(context.Background(), "Nothing", 1, 10); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	gock.New(inatHost).Get("/v1/observations").Reply(200).BodyString("not json")
	if _, err := n.Photos(context.Background(), "Acacia", 1, 10); err == nil {
		t.Errorf("expected an invalid reply to fail")
	}
}
