package arga

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/zenibako/arga-golang/endpoints"
)

// MediaList returns the images the server holds for a scientific name
func (c *Client) MediaList(ctx context.Context, scientificName string, page, pageSize int) (Page[Media], error) {
	q := pageQuery(page, pageSize)
	q.Set("scientific_name", scientificName)

	var media Page[Media]
	err := c.doJSON(ctx, http.MethodGet, endpoints.RouteMedia, nil, q, nil, &media)
	return media, err
}

// MainMedia returns the image shown for a scientific name
func (c *Client) MainMedia(ctx context.Context, scientificName string) (Media, error) {
	q := url.Values{}
	q.Set("scientific_name", scientificName)

	var media Media
	err := c.doJSON(ctx, http.MethodGet, endpoints.RouteMainMedia, nil, q, nil, &media)
	return media, err
}

// SetMainMedia makes a remote image the main image of a scientific name
func (c *Client) SetMainMedia(ctx context.Context, m SetMainMedia) error {
	if err := requireAttribution(m.ScientificName, m.Publisher, m.RightsHolder, m.License); err != nil {
		return err
	}
	if m.URL == "" {
		return fmt.Errorf("an image url is required")
	}
	return c.doJSON(ctx, http.MethodPost, endpoints.RouteMainMedia, nil, nil, m, nil)
}

// UploadMainMedia makes an uploaded image the main image of a scientific name
func (c *Client) UploadMainMedia(ctx context.Context, m UploadMainMedia) error {
	if err := requireAttribution(m.ScientificName, m.Publisher, m.RightsHolder, m.License); err != nil {
		return err
	}
	if m.File == "" {
		return fmt.Errorf("no uploaded image")
	}
	return c.doJSON(ctx, http.MethodPost, endpoints.RouteMainMediaUpload, nil, nil, m, nil)
}

func requireAttribution(scientificName, publisher, rightsHolder, license string) error {
	switch {
	case scientificName == "":
		return fmt.Errorf("a scientific name is required")
	case publisher == "":
		return fmt.Errorf("enter the publisher")
	case rightsHolder == "":
		return fmt.Errorf("enter the rights holder")
	case license == "":
		return fmt.Errorf("enter the license")
	}
	return nil
}
