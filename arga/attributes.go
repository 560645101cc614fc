package arga

import (
	"context"
	"fmt"
	"net/http"

	"github.com/zenibako/arga-golang/endpoints"
)

func (c *Client) Attributes(ctx context.Context, page, pageSize int) (Page[Attribute], error) {
	var attrs Page[Attribute]
	err := c.doJSON(ctx, http.MethodGet, endpoints.RouteAttributes, nil, pageQuery(page, pageSize), nil, &attrs)
	return attrs, err
}

func (c *Client) AllAttributes(ctx context.Context) ([]Attribute, error) {
	return collectPages(ctx, c.pageSize, c.Attributes)
}

func (c *Client) GetAttribute(ctx context.Context, id string) (Attribute, error) {
	var attr Attribute
	err := c.doJSON(ctx, http.MethodGet, endpoints.RouteAttribute, idParam(id), nil, nil, &attr)
	return attr, err
}

func (c *Client) CreateAttribute(ctx context.Context, attr Attribute) (Attribute, error) {
	if attr.Name == "" || attr.DataType == "" {
		return Attribute{}, fmt.Errorf("an attribute needs a name and a data type")
	}
	var created Attribute
	err := c.doJSON(ctx, http.MethodPost, endpoints.RouteAttributes, nil, nil, attr, &created)
	return created, err
}

func (c *Client) UpdateAttribute(ctx context.Context, attr Attribute) (Attribute, error) {
	body := attr
	body.ID = ""
	var updated Attribute
	err := c.doJSON(ctx, http.MethodPut, endpoints.RouteAttribute, idParam(attr.ID), nil, body, &updated)
	return updated, err
}

func (c *Client) DeleteAttribute(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, endpoints.RouteAttribute, idParam(id), nil, nil, nil)
}
