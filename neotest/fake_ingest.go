package neotest

import (
	"compress/gzip"
	"io"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gogo/protobuf/proto"
	sfxproto "github.com/signalfx/com_signalfx_metrics_protobuf"
)

// FakeSignalFx is a mock of the ingest server.  Holds all of the received
// datapoints and auth tokens for later inspection
type FakeSignalFx struct {
	server   *httptest.Server
	received []*sfxproto.DataPoint
	paths    []string
	tokens   []string
	lock     sync.Mutex
}

// NewFakeSignalFx creates a new instance of FakeSignalFx but does not start
// the server
func NewFakeSignalFx() *FakeSignalFx {
	return &FakeSignalFx{
		received: make([]*sfxproto.DataPoint, 0),
	}
}

// Start creates and starts the mock HTTP server
func (f *FakeSignalFx) Start() {
	f.server = httptest.NewUnstartedServer(f)
	f.server.Start()
}

// Close stops the mock HTTP server
func (f *FakeSignalFx) Close() {
	f.server.Close()
}

// URL is the base URL of the mock server to point the writer under test to
func (f *FakeSignalFx) URL() string {
	return f.server.URL
}

// ServeHTTP handles a single request
func (f *FakeSignalFx) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var body io.Reader = r.Body
	if r.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(r.Body)
		if err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		defer gz.Close()
		body = gz
	}

	contents, err := ioutil.ReadAll(body)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}

	dpUpload := &sfxproto.DataPointUploadMessage{}
	if err := proto.Unmarshal(contents, dpUpload); err != nil {
		http.Error(rw, "bad datapoint upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	f.lock.Lock()
	f.received = append(f.received, dpUpload.GetDatapoints()...)
	f.paths = append(f.paths, r.URL.Path)
	f.tokens = append(f.tokens, r.Header.Get("X-Sf-Token"))
	f.lock.Unlock()

	rw.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(rw, "\"OK\"")
}

// PopIngestedDatapoints returns all currently received datapoints and removes
// them from the server state so that they won't be returned again.
func (f *FakeSignalFx) PopIngestedDatapoints() []*sfxproto.DataPoint {
	f.lock.Lock()
	defer f.lock.Unlock()

	ret := make([]*sfxproto.DataPoint, len(f.received))
	copy(ret, f.received)
	f.received = f.received[:0]
	return ret
}

// Requests returns the path and auth token of every request received so far
func (f *FakeSignalFx) Requests() (paths []string, tokens []string) {
	f.lock.Lock()
	defer f.lock.Unlock()

	return append([]string(nil), f.paths...), append([]string(nil), f.tokens...)
}
