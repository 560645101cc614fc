package arga

import (
	"context"
	"fmt"
	"net/http"

	"github.com/zenibako/arga-golang/endpoints"
)

func (c *Client) UserTaxaLists(ctx context.Context) (Page[UserTaxa], error) {
	var page Page[UserTaxa]
	err := c.doJSON(ctx, http.MethodGet, endpoints.RouteUserTaxaList, nil, nil, nil, &page)
	return page, err
}

func (c *Client) GetUserTaxa(ctx context.Context, id string) (UserTaxa, error) {
	var list UserTaxa
	err := c.doJSON(ctx, http.MethodGet, endpoints.RouteUserTaxa, idParam(id), nil, nil, &list)
	return list, err
}

func (c *Client) CreateUserTaxa(ctx context.Context, list UserTaxa) (UserTaxa, error) {
	if list.Name == "" {
		return UserTaxa{}, fmt.Errorf("a user taxa list needs a name")
	}
	var created UserTaxa
	err := c.doJSON(ctx, http.MethodPost, endpoints.RouteUserTaxaList, nil, nil, list, &created)
	return created, err
}

// UpdateUserTaxa sends every field but the id, which only appears in the path
func (c *Client) UpdateUserTaxa(ctx context.Context, list UserTaxa) (UserTaxa, error) {
	body := list
	body.ID = ""
	var updated UserTaxa
	err := c.doJSON(ctx, http.MethodPut, endpoints.RouteUserTaxa, idParam(list.ID), nil, body, &updated)
	return updated, err
}

func (c *Client) DeleteUserTaxa(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, endpoints.RouteUserTaxa, idParam(id), nil, nil, nil)
}

// UserTaxaItems returns one page of the rows of a user taxa list
func (c *Client) UserTaxaItems(ctx context.Context, listID string, page, pageSize int) (Page[UserTaxon], error) {
	var items Page[UserTaxon]
	err := c.doJSON(ctx, http.MethodGet, endpoints.RouteUserTaxaItems, idParam(listID), pageQuery(page, pageSize), nil, &items)
	return items, err
}

// AllUserTaxaItems returns every row of a user taxa list
func (c *Client) AllUserTaxaItems(ctx context.Context, listID string) ([]UserTaxon, error) {
	items, err := collectPages(ctx, c.pageSize, func(ctx context.Context, page, pageSize int) (Page[UserTaxon], error) {
		return c.UserTaxaItems(ctx, listID, page, pageSize)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch items of list %s: %w", listID, err)
	}
	return items, nil
}

func (c *Client) GetUserTaxon(ctx context.Context, id string) (UserTaxon, error) {
	var taxon UserTaxon
	err := c.doJSON(ctx, http.MethodGet, endpoints.RouteUserTaxon, idParam(id), nil, nil, &taxon)
	return taxon, err
}

// CreateUserTaxon adds a row to the list named by its TaxaListsID
func (c *Client) CreateUserTaxon(ctx context.Context, taxon UserTaxon) (UserTaxon, error) {
	if taxon.TaxaListsID == "" {
		return UserTaxon{}, fmt.Errorf("user taxon %s has no taxa list id", taxon.ID)
	}
	var created UserTaxon
	err := c.doJSON(ctx, http.MethodPost, endpoints.RouteUserTaxaItems, idParam(taxon.TaxaListsID), nil, taxon, &created)
	return created, err
}

func (c *Client) UpdateUserTaxon(ctx context.Context, taxon UserTaxon) (UserTaxon, error) {
	body := taxon
	body.ID = ""
	var updated UserTaxon
	err := c.doJSON(ctx, http.MethodPut, endpoints.RouteUserTaxon, idParam(taxon.ID), nil, body, &updated)
	return updated, err
}

func (c *Client) DeleteUserTaxon(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, endpoints.RouteUserTaxon, idParam(id), nil, nil, nil)
}
