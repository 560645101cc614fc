package arga

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/h2non/gock"
)

const testBaseURL = "https://arga.test"

func newGockClient(t *testing.T) *Client {
	t.Helper()
	c := NewClient(testBaseURL)
	gock.InterceptClient(c.HTTPClient())
	t.Cleanup(gock.OffAll)
	return c
}

func TestTaxaQueryParameters(t *testing.T) {
	c := newGockClient(t)

	gock.New(testBaseURL).
		Get("/taxa").
		MatchParam("page", "2").
		MatchParam("page_size", "50").
		MatchParam("q", "Acacia").
		MatchParam("dataset_id", "ds-1").
		Reply(200).
		JSON(map[string]any{
			"total": 1,
			"records": []map[string]any{
				{"id": "t1", "scientific_name": "Acacia dealbata", "taxon_rank": "species"},
			},
		})

	page, err := c.Taxa(context.Background(), TaxaParams{Page: 2, PageSize: 50, Search: "Acacia", DatasetID: "ds-1"})
	if err != nil {
		t.Fatalf("Taxa failed: %v", err)
	}
	if page.Total != 1 || len(page.Records) != 1 || page.Records[0].ScientificName != "Acacia dealbata" {
		t.Errorf("unexpected page %+v", page)
	}
	if !gock.IsDone() {
		t.Errorf("expected the taxa mock to be used")
	}
}

func TestTaxonAttributeValues(t *testing.T) {
	c := newGockClient(t)

	gock.New(testBaseURL).
		Get("/taxa/t1").
		Reply(200).
		BodyString(`[
			{"id": "a1", "data_type": "String", "name": "habitat", "value": "coastal heath"},
			{"id": "a2", "data_type": "Array", "name": "states", "value": ["NSW", "VIC"]}
		]`)

	attrs, err := c.TaxonAttributes(context.Background(), "t1")
	if err != nil {
		t.Fatalf("TaxonAttributes failed: %v", err)
	}
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if got := attrs[0].Value.String(); got != "coastal heath" {
		t.Errorf("unexpected string value %q", got)
	}
	if got := attrs[1].Value.String(); got != "NSW, VIC" {
		t.Errorf("unexpected array value %q", got)
	}
}

func TestUnauthorizedReply(t *testing.T) {
	c := newGockClient(t)

	called := 0
	c.OnUnauthorized(func() { called++ })

	gock.New(testBaseURL).
		Get("/user_taxa").
		Reply(401).
		JSON(map[string]string{"error": "session expired"})

	_, err := c.UserTaxaLists(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if called != 1 {
		t.Errorf("expected the unauthorized callback once, got %d", called)
	}
	if got := ErrorMessage(err); got != "session expired" {
		t.Errorf("unexpected user message %q", got)
	}
}

func TestRetryOnServerError(t *testing.T) {
	c := newGockClient(t)
	c.SetMaxRetries(2)
	c.SetRetryDelay(time.Millisecond)

	gock.New(testBaseURL).
		Get("/taxa/datasets").
		Reply(503).
		BodyString("<html>unavailable</html>")
	gock.New(testBaseURL).
		Get("/taxa/datasets").
		Reply(200).
		JSON(map[string]any{"total": 1, "records": []map[string]string{{"id": "ds-1", "name": "AFD"}}})

	page, err := c.Datasets(context.Background())
	if err != nil {
		t.Fatalf("expected the retry to succeed, got %v", err)
	}
	if len(page.Records) != 1 || page.Records[0].Name != "AFD" {
		t.Errorf("unexpected datasets %+v", page)
	}
}

func TestServerErrorAfterRetries(t *testing.T) {
	c := newGockClient(t)
	c.SetMaxRetries(1)
	c.SetRetryDelay(time.Millisecond)

	gock.New(testBaseURL).Get("/lists").Times(2).Reply(500).BodyString("<html>oops</html>")

	_, err := c.NameLists(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 500 {
		t.Fatalf("expected a 500 APIError, got %v", err)
	}
	if got := ErrorMessage(err); got != "500 Internal Server Error" {
		t.Errorf("expected the status as the message for HTML replies, got %q", got)
	}
}

func TestNotFoundIsNotRetried(t *testing.T) {
	c := newGockClient(t)
	c.SetMaxRetries(3)

	gock.New(testBaseURL).
		Get("/user_taxon/missing").
		Reply(404).
		BodyString("no such taxon")

	_, err := c.GetUserTaxon(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got := ErrorMessage(err); got != "no such taxon" {
		t.Errorf("unexpected message %q", got)
	}
	if gock.HasUnmatchedRequest() {
		t.Errorf("expected a single request")
	}
}

func TestUpdateSendsIDOnlyInPath(t *testing.T) {
	c := newGockClient(t)

	gock.New(testBaseURL).
		Put("/user_taxon/abc").
		AddMatcher(func(req *http.Request, _ *gock.Request) (bool, error) {
			body, err := io.ReadAll(req.Body)
			if err != nil {
				return false, err
			}
			return !strings.Contains(string(body), `"id"`) &&
				strings.Contains(string(body), `"scientific_name":"Acacia dealbata"`), nil
		}).
		Reply(200).
		JSON(map[string]string{"id": "abc", "taxa_lists_id": "L1", "scientific_name": "Acacia dealbata"})

	updated, err := c.UpdateUserTaxon(context.Background(), UserTaxon{ID: "abc", TaxaListsID: "L1", ScientificName: "Acacia dealbata"})
	if err != nil {
		t.Fatalf("UpdateUserTaxon failed: %v", err)
	}
	if updated.ID != "abc" {
		t.Errorf("unexpected reply %+v", updated)
	}
}

func TestCreateUserTaxonNeedsList(t *testing.T) {
	c := newGockClient(t)

	if _, err := c.CreateUserTaxon(context.Background(), UserTaxon{ID: "x"}); err == nil {
		t.Errorf("expected an error for a row without a list")
	}
}

func TestDryRunSkipsWrites(t *testing.T) {
	c := newGockClient(t)
	c.SetDryRun(true)

	created, err := c.CreateUserTaxa(context.Background(), UserTaxa{Name: "Weeds of NSW"})
	if err != nil {
		t.Fatalf("dry-run create failed: %v", err)
	}
	if !strings.HasPrefix(created.ID, "DRYRUN-") || created.Name != "Weeds of NSW" {
		t.Errorf("expected a fabricated reply, got %+v", created)
	}

	if err := c.DeleteUserTaxon(context.Background(), "abc"); err != nil {
		t.Errorf("dry-run delete failed: %v", err)
	}

	fileID, err := c.UploadFile(context.Background(), "names.csv", strings.NewReader("a,b\n"))
	if err != nil || !strings.HasPrefix(fileID, "DRYRUN-") {
		t.Errorf("expected a fabricated file id, got %q (%v)", fileID, err)
	}

	if gock.HasUnmatchedRequest() {
		t.Errorf("expected no request to leave the client in dry-run mode")
	}
}

func TestUploadFile(t *testing.T) {
	c := newGockClient(t)

	gock.New(testBaseURL).
		Post("/upload").
		AddMatcher(func(req *http.Request, _ *gock.Request) (bool, error) {
			return strings.HasPrefix(req.Header.Get("Content-Type"), "multipart/form-data"), nil
		}).
		Reply(200).
		BodyString("FILE-42\n")

	fileID, err := c.UploadFile(context.Background(), "names.csv", strings.NewReader("scientific_name\nAcacia dealbata\n"))
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if fileID != "FILE-42" {
		t.Errorf("unexpected file id %q", fileID)
	}
}

func TestQueueListImportDefaultsWorker(t *testing.T) {
	c := newGockClient(t)

	gock.New(testBaseURL).
		Post("/queue").
		AddMatcher(func(req *http.Request, _ *gock.Request) (bool, error) {
			body, err := io.ReadAll(req.Body)
			if err != nil {
				return false, err
			}
			return strings.Contains(string(body), `"worker":"`+DefaultListImportWorker+`"`), nil
		}).
		Reply(200)

	if err := c.QueueListImport(context.Background(), ListImport{File: "FILE-1", Name: "EPBC"}); err != nil {
		t.Fatalf("QueueListImport failed: %v", err)
	}
	if err := c.QueueListImport(context.Background(), ListImport{File: "FILE-1"}); err == nil {
		t.Errorf("expected a missing name to be rejected")
	}
	if err := c.QueueTaxaImport(context.Background(), TaxaImport{Name: "Weeds"}); err == nil {
		t.Errorf("expected a missing file to be rejected")
	}
}

func TestSetMainMediaRequiresAttribution(t *testing.T) {
	c := newGockClient(t)

	tests := []struct {
		name  string
		media SetMainMedia
	}{
		{"no publisher", SetMainMedia{URL: "u", ScientificName: "s", RightsHolder: "r", License: "cc-by"}},
		{"no rights holder", SetMainMedia{URL: "u", ScientificName: "s", Publisher: "p", License: "cc-by"}},
		{"no license", SetMainMedia{URL: "u", ScientificName: "s", Publisher: "p", RightsHolder: "r"}},
		{"no url", SetMainMedia{ScientificName: "s", Publisher: "p", RightsHolder: "r", License: "cc-by"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.SetMainMedia(context.Background(), tt.media); err == nil {
				t.Errorf("expected a validation error")
			}
		})
	}
}

func TestLoginKeepsSession(t *testing.T) {
	server := NewMockAPIServer()
	server.RequireAuth("curator@example.org", "secret")
	server.AddList(UserTaxa{ID: "L1", Name: "Weeds"})
	if err := server.Start(); err != nil {
		t.Fatalf("failed to start mock server: %v", err)
	}
	defer server.Stop()

	c := NewClient(server.URL())

	if _, err := c.UserTaxaLists(context.Background()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized before login, got %v", err)
	}
	if _, err := c.Login(context.Background(), "curator@example.org", "wrong"); err == nil {
		t.Fatalf("expected a bad password to fail")
	}

	user, err := c.Login(context.Background(), "curator@example.org", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.Email != "curator@example.org" {
		t.Errorf("unexpected user %+v", user)
	}

	lists, err := c.UserTaxaLists(context.Background())
	if err != nil {
		t.Fatalf("expected the session cookie to authorize, got %v", err)
	}
	if len(lists.Records) != 1 || lists.Records[0].ID != "L1" {
		t.Errorf("unexpected lists %+v", lists)
	}

	cookies := c.Cookies()
	if cookies[mockSessionCookie] == "" {
		t.Fatalf("expected the session cookie, got %v", cookies)
	}

	restored := NewClient(server.URL())
	restored.RestoreCookies(cookies)
	if _, err := restored.UserTaxaLists(context.Background()); err != nil {
		t.Errorf("expected restored cookies to authorize, got %v", err)
	}
}

func TestAllUserTaxaItemsWalksPages(t *testing.T) {
	server := NewMockAPIServer()
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		server.PutItem(UserTaxon{ID: id, TaxaListsID: "L1", ScientificName: "name " + id})
	}
	server.PutItem(UserTaxon{ID: "other", TaxaListsID: "L2"})
	if err := server.Start(); err != nil {
		t.Fatalf("failed to start mock server: %v", err)
	}
	defer server.Stop()

	c := NewClient(server.URL())
	c.SetPageSize(2)

	items, err := c.AllUserTaxaItems(context.Background(), "L1")
	if err != nil {
		t.Fatalf("AllUserTaxaItems failed: %v", err)
	}
	if len(items) != 5 {
		t.Errorf("expected 5 items, got %d", len(items))
	}
	if got := len(server.GetRequestsFor(http.MethodGet, "/user_taxa/L1/items")); got != 3 {
		t.Errorf("expected 3 page requests, got %d", got)
	}
}
