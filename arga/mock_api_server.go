package arga

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
)

const mockSessionCookie = "arga_session"

// ReceivedRequest captures details about requests received by the mock server
type ReceivedRequest struct {
	Method    string
	Path      string
	Query     string
	Body      []byte
	Timestamp time.Time
}

type mockFailure struct {
	status int
	body   string
}

// MockAPIServer simulates the ARGA admin API for testing
type MockAPIServer struct {
	server      *httptest.Server
	mu          sync.RWMutex
	requireAuth bool
	users       map[string]string // email -> password
	lists       map[string]UserTaxa
	items       map[string]UserTaxon // id -> row
	itemOrder   []string             // ids in insertion order
	attributes  map[string]Attribute
	attrOrder   []string
	queue       []json.RawMessage
	mainMedia   map[string]SetMainMedia // scientific name -> main image
	failures    map[string]mockFailure  // "METHOD id" -> failure
	nextID      int
	nextFile    int
	received    []ReceivedRequest
}

// NewMockAPIServer creates a new mock admin API server
func NewMockAPIServer() *MockAPIServer {
	return &MockAPIServer{
		users:      make(map[string]string),
		lists:      make(map[string]UserTaxa),
		items:      make(map[string]UserTaxon),
		attributes: make(map[string]Attribute),
		mainMedia:  make(map[string]SetMainMedia),
		failures:   make(map[string]mockFailure),
	}
}

// Start starts the mock server on a random local port
func (m *MockAPIServer) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.server != nil {
		return fmt.Errorf("mock server already running")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", m.handleLogin)
	mux.HandleFunc("GET /user_taxa", m.handleListUserTaxa)
	mux.HandleFunc("POST /user_taxa", m.handleCreateUserTaxa)
	mux.HandleFunc("GET /user_taxa/{id}", m.handleGetUserTaxa)
	mux.HandleFunc("DELETE /user_taxa/{id}", m.handleDeleteUserTaxa)
	mux.HandleFunc("GET /user_taxa/{id}/items", m.handleListItems)
	mux.HandleFunc("POST /user_taxa/{id}/items", m.handleCreateItem)
	mux.HandleFunc("GET /user_taxon/{id}", m.handleGetItem)
	mux.HandleFunc("PUT /user_taxon/{id}", m.handleUpdateItem)
	mux.HandleFunc("DELETE /user_taxon/{id}", m.handleDeleteItem)
	mux.HandleFunc("GET /attributes", m.handleListAttributes)
	mux.HandleFunc("POST /attributes", m.handleCreateAttribute)
	mux.HandleFunc("GET /attributes/{id}", m.handleGetAttribute)
	mux.HandleFunc("PUT /attributes/{id}", m.handleUpdateAttribute)
	mux.HandleFunc("DELETE /attributes/{id}", m.handleDeleteAttribute)
	mux.HandleFunc("POST /upload", m.handleUpload)
	mux.HandleFunc("POST /media/upload", m.handleUpload)
	mux.HandleFunc("POST /queue", m.handleQueue)
	mux.HandleFunc("GET /media/main", m.handleGetMainMedia)
	mux.HandleFunc("POST /media/main", m.handleSetMainMedia)

	m.server = httptest.NewServer(m.capture(mux))
	log.Debugf("Mock API server listening on %s", m.server.URL)
	return nil
}

// Stop stops the mock server
func (m *MockAPIServer) Stop() {
	m.mu.Lock()
	server := m.server
	m.server = nil
	m.mu.Unlock()

	// Close waits for in-flight handlers, which take the lock
	if server != nil {
		server.Close()
	}
}

// URL returns the base URL of the running server
func (m *MockAPIServer) URL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.server == nil {
		return ""
	}
	return m.server.URL
}

// RequireAuth makes every endpoint but login answer 401 without a session cookie
func (m *MockAPIServer) RequireAuth(email, password string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requireAuth = true
	m.users[email] = password
}

// AddList adds a user taxa list
func (m *MockAPIServer) AddList(list UserTaxa) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists[list.ID] = list
}

// PutItem inserts or replaces a row, simulating an edit made by someone else
func (m *MockAPIServer) PutItem(item UserTaxon) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putItemLocked(item)
}

func (m *MockAPIServer) putItemLocked(item UserTaxon) {
	if _, exists := m.items[item.ID]; !exists {
		m.itemOrder = append(m.itemOrder, item.ID)
	}
	m.items[item.ID] = item
}

// RemoveItem deletes a row, simulating a deletion made by someone else
func (m *MockAPIServer) RemoveItem(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeItemLocked(id)
}

func (m *MockAPIServer) removeItemLocked(id string) {
	delete(m.items, id)
	m.itemOrder = slices.DeleteFunc(m.itemOrder, func(s string) bool { return s == id })
}

// GetItem returns a row held by the server
func (m *MockAPIServer) GetItem(id string) (UserTaxon, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[id]
	return item, ok
}

// Items returns the rows of a list in insertion order
func (m *MockAPIServer) Items(listID string) []UserTaxon {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.itemsLocked(listID)
}

func (m *MockAPIServer) itemsLocked(listID string) []UserTaxon {
	var out []UserTaxon
	for _, id := range m.itemOrder {
		if item := m.items[id]; item.TaxaListsID == listID {
			out = append(out, item)
		}
	}
	return out
}

// PutAttribute inserts or replaces an attribute definition
func (m *MockAPIServer) PutAttribute(attr Attribute) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.attributes[attr.ID]; !exists {
		m.attrOrder = append(m.attrOrder, attr.ID)
	}
	m.attributes[attr.ID] = attr
}

// Attributes returns the attribute definitions in insertion order
func (m *MockAPIServer) Attributes() []Attribute {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Attribute, 0, len(m.attrOrder))
	for _, id := range m.attrOrder {
		out = append(out, m.attributes[id])
	}
	return out
}

// FailOn makes requests with method on the record id answer status. For POST the id
// is the one in the request body.
func (m *MockAPIServer) FailOn(method, id string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[method+" "+id] = mockFailure{
		status: status,
		body:   fmt.Sprintf(`{"error": "injected failure for %s"}`, id),
	}
}

// ClearFailures removes every injected failure
func (m *MockAPIServer) ClearFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = make(map[string]mockFailure)
}

// QueuedImports returns the bodies posted to the import queue
func (m *MockAPIServer) QueuedImports() []json.RawMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.queue)
}

// GetReceivedRequests returns a copy of all received requests
func (m *MockAPIServer) GetReceivedRequests() []ReceivedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.received)
}

// GetRequestsFor returns received requests with method whose path starts with prefix
func (m *MockAPIServer) GetRequestsFor(method, prefix string) []ReceivedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ReceivedRequest
	for _, r := range m.received {
		if r.Method == method && strings.HasPrefix(r.Path, prefix) {
			out = append(out, r)
		}
	}
	return out
}

// ClearReceivedRequests clears captured requests
func (m *MockAPIServer) ClearReceivedRequests() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.received = nil
}

func (m *MockAPIServer) capture(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		m.mu.Lock()
		m.received = append(m.received, ReceivedRequest{
			Method:    r.Method,
			Path:      r.URL.Path,
			Query:     r.URL.RawQuery,
			Body:      body,
			Timestamp: time.Now(),
		})
		requireAuth := m.requireAuth
		m.mu.Unlock()

		if requireAuth && r.URL.Path != "/login" {
			if _, err := r.Cookie(mockSessionCookie); err != nil {
				m.sendError(w, http.StatusUnauthorized, "not logged in")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (m *MockAPIServer) sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warnf("Mock server failed to encode reply: %v", err)
	}
}

func (m *MockAPIServer) sendError(w http.ResponseWriter, status int, msg string) {
	m.sendJSON(w, status, map[string]string{"error": msg})
}

// injected reports and sends an injected failure for method on id
func (m *MockAPIServer) injected(w http.ResponseWriter, method, id string) bool {
	m.mu.RLock()
	f, ok := m.failures[method+" "+id]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.status)
	_, _ = io.WriteString(w, f.body)
	return true
}

func paging(r *http.Request) (page, size int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	size, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	return page, size
}

func pageOf[T any](all []T, page, size int) Page[T] {
	from := min((page-1)*size, len(all))
	to := min(from+size, len(all))
	return Page[T]{Total: len(all), Records: slices.Clone(all[from:to])}
}

func (m *MockAPIServer) newIDLocked(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%04d", prefix, m.nextID)
}

func (m *MockAPIServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var params loginParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		m.sendError(w, http.StatusBadRequest, "invalid login body")
		return
	}

	m.mu.RLock()
	password, known := m.users[params.Email]
	requireAuth := m.requireAuth
	m.mu.RUnlock()
	if requireAuth && (!known || password != params.Password) {
		m.sendError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	http.SetCookie(w, &http.Cookie{Name: mockSessionCookie, Value: "mock-session", Path: "/"})
	m.sendJSON(w, http.StatusOK, User{ID: "user-1", Name: "Mock Curator", Email: params.Email})
}

func (m *MockAPIServer) handleListUserTaxa(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	lists := make([]UserTaxa, 0, len(m.lists))
	for _, l := range m.lists {
		lists = append(lists, l)
	}
	m.mu.RUnlock()
	slices.SortFunc(lists, func(a, b UserTaxa) int { return strings.Compare(a.Name, b.Name) })
	m.sendJSON(w, http.StatusOK, Page[UserTaxa]{Total: len(lists), Records: lists})
}

func (m *MockAPIServer) handleCreateUserTaxa(w http.ResponseWriter, r *http.Request) {
	var list UserTaxa
	if err := json.NewDecoder(r.Body).Decode(&list); err != nil {
		m.sendError(w, http.StatusBadRequest, "invalid list body")
		return
	}
	m.mu.Lock()
	if list.ID == "" {
		list.ID = m.newIDLocked("LIST")
	}
	m.lists[list.ID] = list
	m.mu.Unlock()
	m.sendJSON(w, http.StatusCreated, list)
}

func (m *MockAPIServer) handleGetUserTaxa(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	list, ok := m.lists[r.PathValue("id")]
	m.mu.RUnlock()
	if !ok {
		m.sendError(w, http.StatusNotFound, "list not found")
		return
	}
	m.sendJSON(w, http.StatusOK, list)
}

func (m *MockAPIServer) handleDeleteUserTaxa(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lists[id]; !ok {
		m.sendError(w, http.StatusNotFound, "list not found")
		return
	}
	delete(m.lists, id)
	for _, item := range m.itemsLocked(id) {
		m.removeItemLocked(item.ID)
	}
	m.sendJSON(w, http.StatusOK, nil)
}

func (m *MockAPIServer) handleListItems(w http.ResponseWriter, r *http.Request) {
	page, size := paging(r)
	m.mu.RLock()
	items := m.itemsLocked(r.PathValue("id"))
	m.mu.RUnlock()
	m.sendJSON(w, http.StatusOK, pageOf(items, page, size))
}

func (m *MockAPIServer) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var item UserTaxon
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		m.sendError(w, http.StatusBadRequest, "invalid user taxon body")
		return
	}
	if m.injected(w, http.MethodPost, item.ID) {
		return
	}

	m.mu.Lock()
	if item.ID == "" {
		item.ID = m.newIDLocked("TAXON")
	}
	if _, exists := m.items[item.ID]; exists {
		m.mu.Unlock()
		m.sendError(w, http.StatusConflict, "user taxon already exists")
		return
	}
	item.TaxaListsID = r.PathValue("id")
	m.putItemLocked(item)
	m.mu.Unlock()
	m.sendJSON(w, http.StatusCreated, item)
}

func (m *MockAPIServer) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, ok := m.GetItem(r.PathValue("id"))
	if !ok {
		m.sendError(w, http.StatusNotFound, "user taxon not found")
		return
	}
	m.sendJSON(w, http.StatusOK, item)
}

func (m *MockAPIServer) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if m.injected(w, http.MethodPut, id) {
		return
	}
	var item UserTaxon
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		m.sendError(w, http.StatusBadRequest, "invalid user taxon body")
		return
	}

	m.mu.Lock()
	existing, ok := m.items[id]
	if !ok {
		m.mu.Unlock()
		m.sendError(w, http.StatusNotFound, "user taxon not found")
		return
	}
	item.ID = id
	if item.TaxaListsID == "" {
		item.TaxaListsID = existing.TaxaListsID
	}
	m.items[id] = item
	m.mu.Unlock()
	m.sendJSON(w, http.StatusOK, item)
}

func (m *MockAPIServer) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if m.injected(w, http.MethodDelete, id) {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		m.sendError(w, http.StatusNotFound, "user taxon not found")
		return
	}
	m.removeItemLocked(id)
	m.sendJSON(w, http.StatusOK, nil)
}

func (m *MockAPIServer) handleListAttributes(w http.ResponseWriter, r *http.Request) {
	page, size := paging(r)
	m.sendJSON(w, http.StatusOK, pageOf(m.Attributes(), page, size))
}

func (m *MockAPIServer) handleCreateAttribute(w http.ResponseWriter, r *http.Request) {
	var attr Attribute
	if err := json.NewDecoder(r.Body).Decode(&attr); err != nil {
		m.sendError(w, http.StatusBadRequest, "invalid attribute body")
		return
	}
	if m.injected(w, http.MethodPost, attr.ID) {
		return
	}
	m.mu.Lock()
	if attr.ID == "" {
		attr.ID = m.newIDLocked("ATTR")
	}
	m.mu.Unlock()
	m.PutAttribute(attr)
	m.sendJSON(w, http.StatusCreated, attr)
}

func (m *MockAPIServer) handleGetAttribute(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	attr, ok := m.attributes[r.PathValue("id")]
	m.mu.RUnlock()
	if !ok {
		m.sendError(w, http.StatusNotFound, "attribute not found")
		return
	}
	m.sendJSON(w, http.StatusOK, attr)
}

func (m *MockAPIServer) handleUpdateAttribute(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if m.injected(w, http.MethodPut, id) {
		return
	}
	var attr Attribute
	if err := json.NewDecoder(r.Body).Decode(&attr); err != nil {
		m.sendError(w, http.StatusBadRequest, "invalid attribute body")
		return
	}
	m.mu.RLock()
	_, ok := m.attributes[id]
	m.mu.RUnlock()
	if !ok {
		m.sendError(w, http.StatusNotFound, "attribute not found")
		return
	}
	attr.ID = id
	m.PutAttribute(attr)
	m.sendJSON(w, http.StatusOK, attr)
}

func (m *MockAPIServer) handleDeleteAttribute(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if m.injected(w, http.MethodDelete, id) {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.attributes[id]; !ok {
		m.sendError(w, http.StatusNotFound, "attribute not found")
		return
	}
	delete(m.attributes, id)
	m.attrOrder = slices.DeleteFunc(m.attrOrder, func(s string) bool { return s == id })
	m.sendJSON(w, http.StatusOK, nil)
}

func (m *MockAPIServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile(uploadField)
	if err != nil {
		m.sendError(w, http.StatusBadRequest, "missing "+uploadField)
		return
	}
	file.Close()

	m.mu.Lock()
	m.nextFile++
	fileID := fmt.Sprintf("FILE-%04d", m.nextFile)
	m.mu.Unlock()

	w.Header().Set("Content-Type", "text/plain")
	_, _ = io.WriteString(w, fileID)
}

func (m *MockAPIServer) handleQueue(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil || !json.Valid(body) {
		m.sendError(w, http.StatusBadRequest, "invalid import body")
		return
	}
	m.mu.Lock()
	m.queue = append(m.queue, json.RawMessage(body))
	m.mu.Unlock()
	m.sendJSON(w, http.StatusOK, nil)
}

func (m *MockAPIServer) handleGetMainMedia(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("scientific_name")
	m.mu.RLock()
	media, ok := m.mainMedia[name]
	m.mu.RUnlock()
	if !ok {
		m.sendError(w, http.StatusNotFound, "no main image")
		return
	}
	m.sendJSON(w, http.StatusOK, Media{
		ID:           "MEDIA-" + name,
		URL:          media.URL,
		Source:       media.Source,
		Publisher:    media.Publisher,
		License:      media.License,
		RightsHolder: media.RightsHolder,
	})
}

func (m *MockAPIServer) handleSetMainMedia(w http.ResponseWriter, r *http.Request) {
	var media SetMainMedia
	if err := json.NewDecoder(r.Body).Decode(&media); err != nil {
		m.sendError(w, http.StatusBadRequest, "invalid media body")
		return
	}
	m.mu.Lock()
	m.mainMedia[media.ScientificName] = media
	m.mu.Unlock()
	m.sendJSON(w, http.StatusOK, nil)
}
