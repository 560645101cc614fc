package arga

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"
)

const DefaultINaturalistURL = "https://api.inaturalist.org/v1/"

// Photo is a licensed observation photo that can become a main image.
type Photo struct {
	ID          int64
	URL         string // small rendition
	License     string
	Attribution string
	Source      string // observation page
}

// RightsHolder is the attribution without the copyright mark and rights notice.
func (p Photo) RightsHolder() string {
	return ExtractRightsHolder(p.Attribution)
}

// MainMedia converts the photo into a main image request for scientificName.
func (p Photo) MainMedia(scientificName string) SetMainMedia {
	return SetMainMedia{
		URL:            p.URL,
		ScientificName: scientificName,
		Publisher:      "iNaturalist",
		RightsHolder:   p.RightsHolder(),
		License:        p.License,
		Source:         p.Source,
	}
}

// PhotoPage is one page of photo search results.
type PhotoPage struct {
	TotalResults int
	Page         int
	PerPage      int
	Photos       []Photo
}

// ExtractRightsHolder strips "(c)" and everything from ", some rights reserved" on.
// "(c) Jane Doe, some rights reserved (CC BY)" gives "Jane Doe".
func ExtractRightsHolder(attribution string) string {
	if attribution == "" {
		return ""
	}
	attribution = strings.ReplaceAll(attribution, "(c)", "")
	if idx := strings.Index(attribution, ", some rights reserved"); idx > 0 {
		attribution = attribution[:idx]
	}
	return strings.TrimSpace(attribution)
}

// INaturalist searches research grade observation photos.
type INaturalist struct {
	baseURL string
	http    *http.Client
}

func NewINaturalist(baseURL string) *INaturalist {
	if baseURL == "" {
		baseURL = DefaultINaturalistURL
	}
	return &INaturalist{
		baseURL: strings.TrimRight(baseURL, "/") + "/",
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// HTTPClient returns the underlying HTTP client
func (n *INaturalist) HTTPClient() *http.Client {
	return n.http
}

// Photos returns licensed photos of research grade species observations of
// scientificName, most voted first.
func (n *INaturalist) Photos(ctx context.Context, scientificName string, page, perPage int) (PhotoPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	q := url.Values{}
	q.Set("photos", "true")
	q.Set("photo_licensed", "true")
	q.Set("lrank", "species")
	q.Set("quality_grade", "research")
	q.Set("order", "desc")
	q.Set("order_by", "votes")
	q.Set("taxon_name", scientificName)
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	target := n.baseURL + "observations?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return PhotoPage{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	startTime := time.Now()
	resp, err := n.http.Do(req)
	if err != nil {
		return PhotoPage{}, fmt.Errorf("iNaturalist request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return PhotoPage{}, fmt.Errorf("failed to read iNaturalist reply: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return PhotoPage{}, newAPIError(http.MethodGet, target, resp.StatusCode, body)
	}
	log.Debugf("iNaturalist reply for %q received in %v", scientificName, time.Since(startTime))

	return parseObservations(body)
}

func parseObservations(body []byte) (PhotoPage, error) {
	if !gjson.ValidBytes(body) {
		return PhotoPage{}, formatErrorWithJSON("invalid iNaturalist reply", string(body))
	}
	reply := gjson.ParseBytes(body)

	result := PhotoPage{
		TotalResults: int(reply.Get("total_results").Int()),
		Page:         int(reply.Get("page").Int()),
		PerPage:      int(reply.Get("per_page").Int()),
	}
	reply.Get("results").ForEach(func(_, observation gjson.Result) bool {
		source := observation.Get("uri").String()
		observation.Get("photos").ForEach(func(_, photo gjson.Result) bool {
			result.Photos = append(result.Photos, Photo{
				ID:          photo.Get("id").Int(),
				URL:         strings.Replace(photo.Get("url").String(), "square", "small", 1),
				License:     photo.Get("license_code").String(),
				Attribution: photo.Get("attribution").String(),
				Source:      source,
			})
			return true
		})
		return true
	})
	return result, nil
}
