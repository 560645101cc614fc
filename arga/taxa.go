package arga

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/zenibako/arga-golang/endpoints"
)

// TaxaParams filters a page of the reference taxonomy
type TaxaParams struct {
	Page      int
	PageSize  int
	Search    string // free text, matched by the server
	DatasetID string
}

func (p TaxaParams) query() url.Values {
	q := pageQuery(p.Page, p.PageSize)
	if p.Search != "" {
		q.Set("q", p.Search)
	}
	if p.DatasetID != "" {
		q.Set("dataset_id", p.DatasetID)
	}
	return q
}

func pageQuery(page, pageSize int) url.Values {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))
	return q
}

func idParam(id string) map[string]string {
	return map[string]string{"id": id}
}

func (c *Client) Datasets(ctx context.Context) (Page[Dataset], error) {
	var page Page[Dataset]
	err := c.doJSON(ctx, http.MethodGet, endpoints.RouteDatasets, nil, nil, nil, &page)
	return page, err
}

func (c *Client) Taxa(ctx context.Context, params TaxaParams) (Page[Taxon], error) {
	var page Page[Taxon]
	err := c.doJSON(ctx, http.MethodGet, endpoints.RouteTaxa, nil, params.query(), nil, &page)
	return page, err
}

// TaxonAttributes returns the attribute values recorded for one taxon
func (c *Client) TaxonAttributes(ctx context.Context, taxonID string) ([]TaxonAttribute, error) {
	var attrs []TaxonAttribute
	err := c.doJSON(ctx, http.MethodGet, endpoints.RouteTaxonAttributes, idParam(taxonID), nil, nil, &attrs)
	return attrs, err
}

func (c *Client) NameLists(ctx context.Context) (Page[NameList], error) {
	var page Page[NameList]
	err := c.doJSON(ctx, http.MethodGet, endpoints.RouteNameLists, nil, nil, nil, &page)
	return page, err
}

// collectPages walks a paged listing until every record reported by Total is read or
// a page comes back empty.
func collectPages[T any](ctx context.Context, pageSize int, fetch func(ctx context.Context, page, pageSize int) (Page[T], error)) ([]T, error) {
	var all []T
	for page := 1; ; page++ {
		p, err := fetch(ctx, page, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, p.Records...)
		if len(p.Records) == 0 || len(all) >= p.Total {
			return all, nil
		}
	}
}
