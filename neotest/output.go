package neotest

import (
	"context"
	"sync"
	"testing"
	"time"

	"collectd.org/api"
	"github.com/onsi/gomega"
)

// TestWriter can be used in place of a real writer to provide a simpler way
// of testing plugin output.
type TestWriter struct {
	vlChan chan *api.ValueList

	// Use a lock since plugins share the writer across goroutines
	lock    sync.Mutex
	flushes int
}

// NewTestWriter creates a new initialized TestWriter instance
func NewTestWriter() *TestWriter {
	return &TestWriter{
		vlChan: make(chan *api.ValueList, 1000),
	}
}

// Write accepts a value list and sticks it in a buffered queue
func (tw *TestWriter) Write(_ context.Context, vl *api.ValueList) error {
	tw.vlChan <- vl
	return nil
}

// Flush counts the number of flushes
func (tw *TestWriter) Flush(context.Context) error {
	tw.lock.Lock()
	tw.flushes++
	tw.lock.Unlock()
	return nil
}

// Flushes returns how many times Flush was called
func (tw *TestWriter) Flushes() int {
	tw.lock.Lock()
	defer tw.lock.Unlock()
	return tw.flushes
}

// Close is a no-op
func (tw *TestWriter) Close() error {
	return nil
}

// WaitForValueLists will keep pulling value lists off of the internal queue
// until it either gets the expected count or waitSeconds seconds have
// elapsed.  It then returns those value lists.  It will never return more
// than 'count' value lists.
func (tw *TestWriter) WaitForValueLists(count, waitSeconds int) []*api.ValueList {
	var vls []*api.ValueList

	timeout := time.After(time.Duration(waitSeconds) * time.Second)
loop:
	for len(vls) < count {
		select {
		case vl := <-tw.vlChan:
			vls = append(vls, vl)
		case <-timeout:
			break loop
		}
	}

	return vls
}

// EnsureNoValueLists asserts that nothing is written for the given duration
func (tw *TestWriter) EnsureNoValueLists(t *testing.T, d time.Duration) {
	gomega.NewWithT(t).Consistently(func() int { return len(tw.vlChan) }, d).Should(gomega.Equal(0))
}
