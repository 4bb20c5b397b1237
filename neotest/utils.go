// Package neotest contains fakes and helpers shared by the tests of the
// plugins and writers.
package neotest

import (
	"encoding/json"
	"os"
	"testing"
)

// LoadJSON unmarshals a JSON fixture file into dst, failing the test if it
// can't.
func LoadJSON(t *testing.T, path string, dst interface{}) {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read fixture: %v", err)
	}
	if err := json.Unmarshal(content, dst); err != nil {
		t.Fatalf("fixture %s is not valid JSON: %v", path, err)
	}
}
