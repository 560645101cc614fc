package arga

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/zenibako/arga-golang/sheet"
)

type fixedResolver map[string]sheet.Choice

func (f fixedResolver) ResolveConflicts(_ context.Context, conflicts []sheet.Conflict[UserTaxon]) (map[string]sheet.Choice, error) {
	choices := make(map[string]sheet.Choice)
	for _, c := range conflicts {
		if choice, ok := f[c.ID]; ok {
			choices[c.ID] = choice
		}
	}
	return choices, nil
}

type stubConfirmer struct {
	answer bool
	asked  int
}

func (s *stubConfirmer) ConfirmCommit(context.Context, string) (bool, error) {
	s.asked++
	return s.answer, nil
}

func seedList(server *MockAPIServer) {
	server.AddList(UserTaxa{ID: "L1", Name: "Weeds of NSW"})
	server.PutItem(UserTaxon{ID: "a", TaxaListsID: "L1", ScientificName: "Acacia dealbata", TaxonRank: "species"})
	server.PutItem(UserTaxon{ID: "b", TaxaListsID: "L1", ScientificName: "Banksia serrata", TaxonRank: "species"})
	server.PutItem(UserTaxon{ID: "c", TaxaListsID: "L1", ScientificName: "Callistemon citrinus", TaxonRank: "species"})
}

func startServer(t *testing.T) (*MockAPIServer, *Client) {
	t.Helper()
	server := NewMockAPIServer()
	seedList(server)
	if err := server.Start(); err != nil {
		t.Fatalf("failed to start mock server: %v", err)
	}
	t.Cleanup(server.Stop)
	return server, NewClient(server.URL())
}

func loadSession(t *testing.T, c *Client, opts SessionOptions) *Session[UserTaxon] {
	t.Helper()
	s := NewUserTaxaSession(c, "L1", opts)
	if _, err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return s
}

func rowIDs(rows []UserTaxon) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

func TestSessionCommitRoundTrip(t *testing.T) {
	server, c := startServer(t)
	cacheDir := t.TempDir()
	s := loadSession(t, c, SessionOptions{CacheDir: cacheDir})

	edited := s.Tracker().Rows()
	edited[1].ScientificName = "Banksia serrata L.f."
	edited = append(edited[:2], UserTaxon{ID: "d", ScientificName: "Dodonaea viscosa"})

	if n := s.Sync(edited); n != 3 {
		t.Fatalf("expected 3 staged edits, got %d", n)
	}

	result, err := s.Commit(context.Background())
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if result.Batch.Len() != 3 {
		t.Errorf("expected a batch of 3 rows, got %d", result.Batch.Len())
	}

	items := server.Items("L1")
	if diff := cmp.Diff([]string{"a", "b", "d"}, rowIDs(items)); diff != "" {
		t.Errorf("server rows mismatch (-want +got):\n%s", diff)
	}
	if item, _ := server.GetItem("b"); item.ScientificName != "Banksia serrata L.f." {
		t.Errorf("expected b to be updated, got %+v", item)
	}
	if item, _ := server.GetItem("d"); item.TaxaListsID != "L1" {
		t.Errorf("expected d to be created in L1, got %+v", item)
	}

	if s.Tracker().HasChanges() {
		t.Errorf("expected nothing staged after commit")
	}
	if diff := cmp.Diff(items, s.Tracker().Rows()); diff != "" {
		t.Errorf("expected the reloaded rows to match the server (-want +got):\n%s", diff)
	}

	var cached []UserTaxon
	if _, err := LoadLatestBaseline(cacheDir, "user_taxa_L1", &cached); err != nil {
		t.Fatalf("expected a cached baseline: %v", err)
	}
	if diff := cmp.Diff(items, cached); diff != "" {
		t.Errorf("cached baseline mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionNothingToCommit(t *testing.T) {
	server, c := startServer(t)
	s := loadSession(t, c, SessionOptions{})
	server.ClearReceivedRequests()

	result, err := s.Commit(context.Background())
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if !result.Batch.IsEmpty() {
		t.Errorf("expected an empty batch")
	}
	if got := len(server.GetReceivedRequests()); got != 0 {
		t.Errorf("expected no requests, got %d", got)
	}
}

func TestSessionConflictKeepServer(t *testing.T) {
	server, c := startServer(t)
	s := loadSession(t, c, SessionOptions{})
	s.SetResolver(fixedResolver{"b": sheet.ChoiceKeepServer})

	edited := s.Tracker().Rows()
	edited[1].TaxonRemarks = "mine"
	s.Sync(edited)

	theirs := UserTaxon{ID: "b", TaxaListsID: "L1", ScientificName: "Banksia serrata", TaxonRank: "species", TaxonRemarks: "theirs"}
	server.PutItem(theirs)

	if _, err := s.Commit(context.Background()); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if got := len(server.GetRequestsFor(http.MethodPut, "/user_taxon/")); got != 0 {
		t.Errorf("expected no update to be sent, got %d", got)
	}
	if s.Tracker().HasChanges() {
		t.Errorf("expected the staged edit to be dropped")
	}

	rows := s.Tracker().Rows()
	if diff := cmp.Diff(theirs, rows[1]); diff != "" {
		t.Errorf("expected the server version after reload (-want +got):\n%s", diff)
	}
}

func TestSessionServerDeletedUseLocal(t *testing.T) {
	server, c := startServer(t)
	s := loadSession(t, c, SessionOptions{})
	s.SetResolver(fixedResolver{"b": sheet.ChoiceUseLocal})

	edited := s.Tracker().Rows()
	edited[1].TaxonRemarks = "mine"
	s.Sync(edited)

	server.RemoveItem("b")

	result, err := s.Commit(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected the update of a deleted row to fail with ErrNotFound, got %v", err)
	}
	var batchErr *sheet.BatchError
	if !errors.As(err, &batchErr) || len(batchErr.Failures) != 1 || batchErr.Failures[0].ID != "b" {
		t.Fatalf("expected one failure for b, got %v", err)
	}
	if len(result.Failed) != 1 || result.Retained {
		t.Errorf("unexpected result %+v", result)
	}

	// the default policy resyncs with the server
	if s.Tracker().HasChanges() {
		t.Errorf("expected nothing staged after resync")
	}
	if diff := cmp.Diff([]string{"a", "c"}, rowIDs(s.Tracker().Rows())); diff != "" {
		t.Errorf("rows mismatch after resync (-want +got):\n%s", diff)
	}
}

func TestSessionWithoutResolverKeepsEdits(t *testing.T) {
	server, c := startServer(t)
	s := loadSession(t, c, SessionOptions{})

	edited := s.Tracker().Rows()
	edited[0].TaxonRemarks = "mine"
	s.Sync(edited)

	server.PutItem(UserTaxon{ID: "a", TaxaListsID: "L1", ScientificName: "Acacia dealbata", TaxonRemarks: "theirs"})

	if _, err := s.Commit(context.Background()); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if item, _ := server.GetItem("a"); item.TaxonRemarks != "mine" {
		t.Errorf("expected the staged edit to overwrite the server, got %+v", item)
	}
}

func TestSessionCommitDeclined(t *testing.T) {
	server, c := startServer(t)
	s := loadSession(t, c, SessionOptions{})
	confirmer := &stubConfirmer{answer: false}
	s.SetConfirmer(confirmer)

	if err := s.Remove("c"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	result, err := s.Commit(context.Background())
	if !errors.Is(err, ErrCommitDeclined) {
		t.Fatalf("expected ErrCommitDeclined, got %v", err)
	}
	if confirmer.asked != 1 {
		t.Errorf("expected the confirmer to be asked once, got %d", confirmer.asked)
	}
	if diff := cmp.Diff([]string{"c"}, result.Batch.IDs(sheet.OpDelete)); diff != "" {
		t.Errorf("declined batch mismatch (-want +got):\n%s", diff)
	}
	if got := len(server.GetRequestsFor(http.MethodDelete, "/user_taxon/")); got != 0 {
		t.Errorf("expected no delete to be sent, got %d", got)
	}
	if s.Tracker().State("c") != sheet.Deleted {
		t.Errorf("expected c to stay staged for deletion")
	}

	confirmer.answer = true
	if _, err := s.Commit(context.Background()); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if _, ok := server.GetItem("c"); ok {
		t.Errorf("expected c to be deleted once confirmed")
	}
}

func TestSessionLoadReportsDrift(t *testing.T) {
	server, c := startServer(t)
	cacheDir := t.TempDir()

	if _, err := SaveBaseline(cacheDir, "user_taxa_L1", server.Items("L1")); err != nil {
		t.Fatalf("SaveBaseline failed: %v", err)
	}

	server.RemoveItem("a")
	server.PutItem(UserTaxon{ID: "b", TaxaListsID: "L1", ScientificName: "Banksia integrifolia"})
	server.PutItem(UserTaxon{ID: "e", TaxaListsID: "L1", ScientificName: "Eucalyptus regnans"})

	s := NewUserTaxaSession(c, "L1", SessionOptions{CacheDir: cacheDir})
	drift, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := sheet.Drift{Created: []string{"e"}, Updated: []string{"b"}, Deleted: []string{"a"}}
	if diff := cmp.Diff(want, drift, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("drift mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionDuplicateAndRemove(t *testing.T) {
	server, c := startServer(t)
	s := loadSession(t, c, SessionOptions{})

	dup, err := s.Duplicate("a")
	if err != nil {
		t.Fatalf("Duplicate failed: %v", err)
	}
	if dup.ID == "a" || dup.ScientificName != "Acacia dealbata" {
		t.Errorf("unexpected duplicate %+v", dup)
	}
	if diff := cmp.Diff([]string{"a", dup.ID, "b", "c"}, rowIDs(s.Tracker().Rows())); diff != "" {
		t.Errorf("expected the copy right after its source (-want +got):\n%s", diff)
	}
	if s.Tracker().State(dup.ID) != sheet.Created {
		t.Errorf("expected the copy to be staged as created")
	}

	if _, err := s.Duplicate("missing"); err == nil {
		t.Errorf("expected duplicating an unknown row to fail")
	}
	if err := s.Remove("b"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := s.Duplicate("b"); err == nil {
		t.Errorf("expected duplicating a deleted row to fail")
	}
	if err := s.Remove("missing"); err == nil {
		t.Errorf("expected removing an unknown row to fail")
	}

	if _, err := s.Commit(context.Background()); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "c", dup.ID}, rowIDs(server.Items("L1"))); diff != "" {
		t.Errorf("server rows mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionRetainFailedRetries(t *testing.T) {
	server, c := startServer(t)
	s := loadSession(t, c, SessionOptions{Policy: sheet.RetainFailed, Concurrency: 2})

	s.Append(
		UserTaxon{ID: "n1", ScientificName: "Grevillea robusta"},
		UserTaxon{ID: "n2", ScientificName: "Hakea sericea"},
	)
	server.FailOn(http.MethodPost, "n1", http.StatusUnprocessableEntity)

	result, err := s.Commit(context.Background())
	if err == nil {
		t.Fatalf("expected the commit to report the failed row")
	}
	if !result.Retained {
		t.Errorf("expected failed rows to be retained")
	}
	if got := ErrorMessage(result.Failed[0].Err); got != "injected failure for n1" {
		t.Errorf("unexpected failure message %q", got)
	}
	if s.Tracker().State("n1") != sheet.Created {
		t.Errorf("expected n1 to stay staged")
	}
	if s.Tracker().State("n2") != sheet.Unchanged {
		t.Errorf("expected n2 to be committed")
	}
	if _, ok := server.GetItem("n2"); !ok {
		t.Errorf("expected n2 on the server")
	}

	server.ClearFailures()
	if _, err := s.Commit(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if _, ok := server.GetItem("n1"); !ok {
		t.Errorf("expected n1 on the server after the retry")
	}
	if s.Tracker().HasChanges() {
		t.Errorf("expected nothing staged after the retry")
	}
}

func TestAttributeSession(t *testing.T) {
	server := NewMockAPIServer()
	server.PutAttribute(Attribute{ID: "x", Name: "habitat", DataType: "String"})
	if err := server.Start(); err != nil {
		t.Fatalf("failed to start mock server: %v", err)
	}
	defer server.Stop()

	s := NewAttributeSession(NewClient(server.URL()), SessionOptions{})
	if _, err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	s.Append(Attribute{ID: "y", Name: "states", DataType: "Array"}, Attribute{Name: "notes", DataType: "String"})
	rows := s.Tracker().Rows()
	if len(rows) != 3 || rows[2].ID == "" {
		t.Fatalf("expected a fresh id for the row without one, got %+v", rows)
	}
	generated := rows[2].ID
	edited := s.Tracker().Rows()
	edited[0].Description = "Where it grows"
	s.Sync(edited)

	if _, err := s.Commit(context.Background()); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	want := []Attribute{
		{ID: "x", Name: "habitat", DataType: "String", Description: "Where it grows"},
		{ID: "y", Name: "states", DataType: "Array"},
		{ID: generated, Name: "notes", DataType: "String"},
	}
	got := server.Attributes()
	sort.Slice(got[1:], func(i, j int) bool { return got[1+i].Name > got[1+j].Name })
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("server attributes mismatch (-want +got):\n%s", diff)
	}
}
