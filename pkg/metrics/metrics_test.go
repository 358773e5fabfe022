package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	datadog "github.com/DataDog/datadog-api-client-go/api/v2/datadog"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	p := NewPrometheus()
	ctx := context.Background()

	p.ObserveCounter(8)
	p.RelayConfirmed(ctx, 5, 100)
	p.RelayConfirmed(ctx, 6, 250)
	p.RelayFailed(ctx, 7)

	assert.Equal(t, float64(8), testutil.ToFloat64(p.counter))
	assert.Equal(t, float64(6), testutil.ToFloat64(p.lastProcessed))
	assert.Equal(t, float64(2), testutil.ToFloat64(p.relayed))
	assert.Equal(t, float64(350), testutil.ToFloat64(p.relayedAmount))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.failed))
}

type recordingSubmitter struct {
	payloads []datadog.MetricPayload
	ctxKeys  []interface{}
	err      error
}

func (r *recordingSubmitter) submit(ctx context.Context, payload datadog.MetricPayload) error {
	r.payloads = append(r.payloads, payload)
	r.ctxKeys = append(r.ctxKeys, ctx.Value(datadog.ContextAPIKeys))
	return r.err
}

func TestDatadogPostsRelayOutcome(t *testing.T) {
	sub := &recordingSubmitter{}
	d := NewDatadog("api", "app", []string{"environment:test"})
	d.submitter = sub

	d.RelayConfirmed(context.Background(), 3, 1000)
	d.RelayFailed(context.Background(), 4)

	require.Len(t, sub.payloads, 2)
	ok := sub.payloads[0].Series[0]
	assert.Equal(t, metricRelaySuccess, ok.Metric)
	assert.Equal(t, float64(1000), *ok.Points[0].Value)
	assert.Equal(t, []string{"environment:test", "event_index:3"}, ok.Tags)

	failed := sub.payloads[1].Series[0]
	assert.Equal(t, metricRelayFailure, failed.Metric)
	assert.Equal(t, []string{"environment:test", "event_index:4"}, failed.Tags)

	assert.Equal(t, d.keys, sub.ctxKeys[0])
}

func TestDatadogSubmitErrorIsSwallowed(t *testing.T) {
	d := NewDatadog("api", "app", nil)
	d.submitter = &recordingSubmitter{err: errors.New("403 Forbidden")}
	assert.NotPanics(t, func() { d.RelayConfirmed(context.Background(), 0, 1) })
}

// hangingSubmitter never answers and only returns once its context ends.
type hangingSubmitter struct{}

func (hangingSubmitter) submit(ctx context.Context, _ datadog.MetricPayload) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestDatadogPostIsBounded(t *testing.T) {
	d := NewDatadog("api", "app", nil)
	d.submitter = hangingSubmitter{}
	d.timeout = 50 * time.Millisecond

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.RelayConfirmed(context.Background(), 0, 100)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RelayConfirmed blocked on an unresponsive datadog intake")
	}
}

func TestNewDatadogBoundsHTTPClient(t *testing.T) {
	d := NewDatadog("api", "app", nil)
	assert.Equal(t, DefaultDatadogTimeout, d.timeout)

	sub, ok := d.submitter.(apiSubmitter)
	require.True(t, ok)
	require.NotNil(t, sub.client.GetConfig().HTTPClient)
	assert.Equal(t, DefaultDatadogTimeout, sub.client.GetConfig().HTTPClient.Timeout)
}

func TestRelayPayload(t *testing.T) {
	now := time.Unix(1700000000, 0)
	p := relayPayload(metricRelaySuccess, 1.5, []string{"a:b"}, now)
	require.Len(t, p.Series, 1)
	assert.Equal(t, int64(1700000000), *p.Series[0].Points[0].Timestamp)
	assert.Equal(t, datadog.METRICINTAKETYPE_GAUGE, *p.Series[0].Type)
}

func TestMultiFansOut(t *testing.T) {
	a, b := NewPrometheus(), NewPrometheus()
	m := Multi{a, b, Noop{}}
	m.ObserveCounter(2)
	m.RelayConfirmed(context.Background(), 1, 10)
	assert.Equal(t, float64(1), testutil.ToFloat64(a.relayed))
	assert.Equal(t, float64(1), testutil.ToFloat64(b.relayed))
	assert.Equal(t, float64(2), testutil.ToFloat64(b.counter))
}
