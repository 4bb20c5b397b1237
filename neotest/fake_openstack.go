package neotest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// FakeTokenID is the token the fake hands out for valid credentials
const FakeTokenID = "fake-token"

// FakeOpenStack is a mock of the identity and compute APIs.  It issues
// tokens for a single user and serves whatever JSON the test registers.  The
// catalog it returns points back at itself, with the compute API under
// /compute/v2.1 (and /internal/compute/v2.1 for the internal interface) and
// the identity admin API under /admin.
type FakeOpenStack struct {
	Username string
	Password string
	Region   string

	server    *httptest.Server
	lock      sync.Mutex
	handlers  map[string]http.HandlerFunc
	requests  []string
	badTokens int
}

// NewFakeOpenStack creates a new instance of FakeOpenStack but does not
// start the server
func NewFakeOpenStack() *FakeOpenStack {
	f := &FakeOpenStack{
		Username: "admin",
		Password: "secret",
		Region:   "RegionOne",
		handlers: map[string]http.HandlerFunc{},
	}
	f.handlers["/v2.0/tokens"] = f.handleTokensV2
	f.handlers["/v3/auth/tokens"] = f.handleTokensV3
	return f
}

// Start creates and starts the mock HTTP server
func (f *FakeOpenStack) Start() {
	f.server = httptest.NewUnstartedServer(f)
	f.server.Start()
}

// Close stops the mock HTTP server
func (f *FakeOpenStack) Close() {
	f.server.Close()
}

// URL is the base URL of the mock server
func (f *FakeOpenStack) URL() string {
	return f.server.URL
}

// AuthURL is the identity endpoint for the given API version, v2 or v3
func (f *FakeOpenStack) AuthURL(version string) string {
	if version == "v2" {
		return f.server.URL + "/v2.0"
	}
	return f.server.URL + "/v3"
}

// ServeHTTP records the request and routes it by its exact path
func (f *FakeOpenStack) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	f.lock.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.RequestURI())
	handler, ok := f.handlers[r.URL.Path]
	authorized := strings.HasSuffix(r.URL.Path, "/tokens") || r.Header.Get("X-Auth-Token") == FakeTokenID
	if !authorized {
		f.badTokens++
	}
	f.lock.Unlock()

	switch {
	case !authorized:
		http.Error(rw, `{"error": {"code": 401, "message": "invalid token"}}`, http.StatusUnauthorized)
	case !ok:
		http.Error(rw, `{"error": {"code": 404, "message": "not found"}}`, http.StatusNotFound)
	default:
		handler(rw, r)
	}
}

// HandleFunc registers a handler for requests to path, replacing any handler
// already registered for it.  Query strings are not considered when
// matching.
func (f *FakeOpenStack) HandleFunc(path string, h http.HandlerFunc) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.handlers[path] = h
}

// HandleJSON serves body, marshalled to JSON, for GET requests to path
func (f *FakeOpenStack) HandleJSON(path string, body interface{}) {
	f.HandleFunc(path, func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		WriteJSON(rw, http.StatusOK, body)
	})
}

// HandleFixtures loads a JSON file that maps request paths to response
// bodies and serves each of them with HandleJSON.
func (f *FakeOpenStack) HandleFixtures(t *testing.T, path string) {
	var bodies map[string]json.RawMessage
	LoadJSON(t, path, &bodies)
	for p, body := range bodies {
		f.HandleJSON(p, body)
	}
}

// HandleStatus makes requests to path fail with the given status code
func (f *FakeOpenStack) HandleStatus(path string, status int) {
	f.HandleFunc(path, func(rw http.ResponseWriter, r *http.Request) {
		http.Error(rw, fmt.Sprintf(`{"error": {"code": %d}}`, status), status)
	})
}

// Requests returns every request received so far as "METHOD /path?query"
func (f *FakeOpenStack) Requests() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]string(nil), f.requests...)
}

// BadTokens is the number of requests that did not carry a valid token
func (f *FakeOpenStack) BadTokens() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.badTokens
}

func (f *FakeOpenStack) computeURL(iface string) string {
	if iface == "internal" {
		return f.server.URL + "/internal/compute/v2.1/"
	}
	return f.server.URL + "/compute/v2.1/"
}

func (f *FakeOpenStack) identityURL(version, iface string) string {
	if iface == "admin" {
		return f.server.URL + "/admin" + strings.TrimPrefix(f.AuthURL(version), f.server.URL) + "/"
	}
	return f.AuthURL(version) + "/"
}

func (f *FakeOpenStack) handleTokensV2(rw http.ResponseWriter, r *http.Request) {
	var req struct {
		Auth struct {
			PasswordCredentials struct {
				Username string `json:"username"`
				Password string `json:"password"`
			} `json:"passwordCredentials"`
			TenantName string `json:"tenantName"`
		} `json:"auth"`
	}
	if r.Method != http.MethodPost || json.NewDecoder(r.Body).Decode(&req) != nil {
		http.Error(rw, "bad request", http.StatusBadRequest)
		return
	}
	creds := req.Auth.PasswordCredentials
	if creds.Username != f.Username || creds.Password != f.Password {
		http.Error(rw, `{"error": {"code": 401, "message": "bad credentials"}}`, http.StatusUnauthorized)
		return
	}

	var catalog []interface{}
	for _, svc := range []struct{ typ, name, version string }{
		{"identity", "keystone", "v2"},
		{"compute", "nova", ""},
	} {
		endpoint := map[string]interface{}{"region": f.Region}
		for _, iface := range []string{"public", "internal", "admin"} {
			url := f.computeURL(iface)
			if svc.typ == "identity" {
				url = f.identityURL(svc.version, iface)
			}
			endpoint[iface+"URL"] = url
		}
		catalog = append(catalog, map[string]interface{}{
			"type":      svc.typ,
			"name":      svc.name,
			"endpoints": []interface{}{endpoint},
		})
	}

	WriteJSON(rw, http.StatusOK, map[string]interface{}{
		"access": map[string]interface{}{
			"token": map[string]interface{}{
				"id":      FakeTokenID,
				"expires": "2099-01-01T00:00:00Z",
				"tenant":  map[string]interface{}{"id": "t-1", "name": req.Auth.TenantName},
			},
			"serviceCatalog": catalog,
		},
	})
}

func (f *FakeOpenStack) handleTokensV3(rw http.ResponseWriter, r *http.Request) {
	var req struct {
		Auth struct {
			Identity struct {
				Password struct {
					User struct {
						Name     string `json:"name"`
						Password string `json:"password"`
					} `json:"user"`
				} `json:"password"`
			} `json:"identity"`
		} `json:"auth"`
	}
	if r.Method != http.MethodPost || json.NewDecoder(r.Body).Decode(&req) != nil {
		http.Error(rw, "bad request", http.StatusBadRequest)
		return
	}
	user := req.Auth.Identity.Password.User
	if user.Name != f.Username || user.Password != f.Password {
		http.Error(rw, `{"error": {"code": 401, "message": "bad credentials"}}`, http.StatusUnauthorized)
		return
	}

	var catalog []interface{}
	for _, svc := range []struct{ typ, name string }{
		{"identity", "keystone"},
		{"compute", "nova"},
	} {
		var endpoints []interface{}
		for i, iface := range []string{"public", "internal", "admin"} {
			url := f.computeURL(iface)
			if svc.typ == "identity" {
				url = f.identityURL("v3", iface)
			}
			endpoints = append(endpoints, map[string]interface{}{
				"id":        fmt.Sprintf("%s-%d", svc.name, i),
				"interface": iface,
				"region":    f.Region,
				"region_id": f.Region,
				"url":       url,
			})
		}
		catalog = append(catalog, map[string]interface{}{
			"id":        svc.name,
			"type":      svc.typ,
			"name":      svc.name,
			"endpoints": endpoints,
		})
	}

	rw.Header().Set("X-Subject-Token", FakeTokenID)
	WriteJSON(rw, http.StatusCreated, map[string]interface{}{
		"token": map[string]interface{}{
			"methods":    []string{"password"},
			"expires_at": "2099-01-01T00:00:00.000000Z",
			"issued_at":  "2020-01-01T00:00:00.000000Z",
			"catalog":    catalog,
		},
	})
}

// WriteJSON writes body as a JSON response with the given status
func WriteJSON(rw http.ResponseWriter, status int, body interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(body)
}
