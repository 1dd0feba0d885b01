package observability

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordRequest("/claims", "GET", 200, time.Millisecond)
			m.RecordAuditFailure("ASSIGNED")
		}()
	}
	wg.Wait()
	m.RecordError("/claims", "POST", "NOT_FOUND")
	m.RecordAttachmentFailure()

	assert.Equal(t, int64(10), m.Requests("/claims", "GET", 200))
	assert.Equal(t, int64(10), m.AuditFailures("ASSIGNED"))
	assert.Equal(t, int64(1), m.Errors("/claims", "POST", "NOT_FOUND"))
	assert.Equal(t, int64(1), m.AttachmentFailures())
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, 0)
	m.RecordAuditFailure("CREATED")
	m.RecordAttachmentFailure()
	assert.Zero(t, m.AuditFailures("CREATED"))
	assert.Zero(t, m.AttachmentFailures())
}
