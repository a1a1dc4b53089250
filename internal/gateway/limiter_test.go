package gateway

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClientLimiter(t *testing.T) {
	l := newClientLimiter(Config{RPS: 1, Burst: 1, IdleTTL: time.Minute})
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, l.allow("ip:a", now))
	assert.False(t, l.allow("ip:a", now))
	assert.True(t, l.allow("ip:b", now), "clients have separate buckets")
	assert.True(t, l.allow("ip:a", now.Add(time.Second)), "bucket refills")
	assert.Equal(t, 2, l.size())
}

func TestClientLimiter_EvictsIdle(t *testing.T) {
	l := newClientLimiter(Config{RPS: 1000, Burst: 1000, IdleTTL: time.Minute})
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	l.allow("ip:idle", start)
	later := start.Add(2 * time.Minute)
	for i := 0; i < 511; i++ {
		l.allow("ip:busy", later)
	}
	assert.Equal(t, 1, l.size())
}

func TestClientLimiter_NilAllows(t *testing.T) {
	var l *clientLimiter
	assert.True(t, l.allow("ip:a", time.Now()))
	assert.Nil(t, newClientLimiter(Config{RPS: 0}))
}

func TestClientKey(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "ip:10.0.0.1", clientKey(r))

	r.RemoteAddr = "10.0.0.2"
	assert.Equal(t, "ip:10.0.0.2", clientKey(r))

	r.RemoteAddr = ""
	assert.Equal(t, "ip:unknown", clientKey(r))
}
