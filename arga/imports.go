package arga

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/zenibako/arga-golang/endpoints"
)

// uploadField is the multipart field the upload endpoints read the file from
const uploadField = "fileUuid"

// UploadFile stores a file for a later import and returns the id the server gave it
func (c *Client) UploadFile(ctx context.Context, name string, r io.Reader) (string, error) {
	return c.upload(ctx, endpoints.RouteUpload, name, r)
}

// UploadMediaFile stores an image for UploadMainMedia and returns its file id
func (c *Client) UploadMediaFile(ctx context.Context, name string, r io.Reader) (string, error) {
	return c.upload(ctx, endpoints.RouteMediaUpload, name, r)
}

func (c *Client) upload(ctx context.Context, route endpoints.Route, name string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(uploadField, name)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finish upload body: %w", err)
	}

	reply, err := c.send(ctx, request{
		method:      http.MethodPost,
		route:       route,
		payload:     buf.Bytes(),
		contentType: w.FormDataContentType(),
	})
	if err != nil {
		return "", fmt.Errorf("upload of %s failed: %w", name, err)
	}

	fileID := strings.Trim(strings.TrimSpace(string(reply)), `"`)
	if fileID == "" {
		return "", fmt.Errorf("upload of %s returned no file id", name)
	}
	log.Infof("Uploaded %s as %s", name, fileID)
	return fileID, nil
}

// QueueTaxaImport queues an uploaded file to be imported as a new user taxa list
func (c *Client) QueueTaxaImport(ctx context.Context, imp TaxaImport) error {
	if imp.Name == "" {
		return fmt.Errorf("enter a name for the new taxa list")
	}
	if imp.File == "" {
		return fmt.Errorf("no uploaded file to import")
	}
	return c.doJSON(ctx, http.MethodPost, endpoints.RouteQueue, nil, nil, imp, nil)
}

// QueueListImport queues an uploaded file to be imported as a name list
func (c *Client) QueueListImport(ctx context.Context, imp ListImport) error {
	if imp.Name == "" {
		return fmt.Errorf("enter a name for the new list")
	}
	if imp.File == "" {
		return fmt.Errorf("no uploaded file to import")
	}
	if imp.Worker == "" {
		imp.Worker = DefaultListImportWorker
	}
	return c.doJSON(ctx, http.MethodPost, endpoints.RouteQueue, nil, nil, imp, nil)
}
