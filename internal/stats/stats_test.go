package stats

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	m := New()

	m.RecordConnection()
	m.RecordConnection()
	m.RecordRequest("GET", "ok")
	m.RecordRequest("GET", "notfound")
	m.RecordRequest("SET", "ok")
	m.RecordParseError("5")
	m.RecordSendError()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.connections))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "notfound")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("SET", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.parseErrors.WithLabelValues("5")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sendErrors))
}

func TestMetricsIndependentRegistries(t *testing.T) {
	// Two instances must not collide on registration.
	a := New()
	b := New()
	a.RecordConnection()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.connections))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.connections))
}
