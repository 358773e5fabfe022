package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	datadog "github.com/DataDog/datadog-api-client-go/api/v2/datadog"
	"github.com/rs/zerolog/log"
)

const (
	metricRelaySuccess = "bridging.success"
	metricRelayFailure = "bridging.failure"

	// DefaultDatadogTimeout bounds each post so an unresponsive intake never
	// holds up the relay loop.
	DefaultDatadogTimeout = 5 * time.Second
)

type metricSubmitter interface {
	submit(ctx context.Context, payload datadog.MetricPayload) error
}

type apiSubmitter struct {
	client *datadog.APIClient
}

func (s apiSubmitter) submit(ctx context.Context, payload datadog.MetricPayload) error {
	_, _, err := s.client.MetricsApi.SubmitMetrics(ctx, payload)
	return err
}

// Datadog posts one gauge point per relay outcome. Submission errors are logged
// and never interrupt relaying.
type Datadog struct {
	keys      map[string]datadog.APIKey
	submitter metricSubmitter
	tags      []string
	timeout   time.Duration
}

func NewDatadog(apiKey, appKey string, tags []string) *Datadog {
	cfg := datadog.NewConfiguration()
	cfg.HTTPClient = &http.Client{Timeout: DefaultDatadogTimeout}
	return &Datadog{
		keys: map[string]datadog.APIKey{
			"apiKeyAuth": {Key: apiKey},
			"appKeyAuth": {Key: appKey},
		},
		submitter: apiSubmitter{client: datadog.NewAPIClient(cfg)},
		tags:      tags,
		timeout:   DefaultDatadogTimeout,
	}
}

func (d *Datadog) ObserveCounter(uint64) {}

func (d *Datadog) RelayConfirmed(ctx context.Context, index, amount uint64) {
	d.post(ctx, metricRelaySuccess, float64(amount), index)
}

func (d *Datadog) RelayFailed(ctx context.Context, index uint64) {
	d.post(ctx, metricRelayFailure, 1, index)
}

func (d *Datadog) post(ctx context.Context, metricName string, value float64, index uint64) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, datadog.ContextAPIKeys, d.keys)
	payload := relayPayload(metricName, value, d.relayTags(index), time.Now())
	if err := d.submitter.submit(ctx, payload); err != nil {
		log.Warn().Err(err).Msgf("failed to post %s metric to datadog", metricName)
		return
	}
	log.Debug().Msgf("Metric %s posted to datadog", metricName)
}

func (d *Datadog) relayTags(index uint64) []string {
	tags := make([]string, 0, len(d.tags)+1)
	tags = append(tags, d.tags...)
	return append(tags, "event_index:"+strconv.FormatUint(index, 10))
}

func relayPayload(metricName string, value float64, tags []string, now time.Time) datadog.MetricPayload {
	point := datadog.MetricPoint{
		Timestamp: datadog.PtrInt64(now.Unix()),
		Value:     datadog.PtrFloat64(value),
	}
	series := datadog.MetricSeries{
		Metric: metricName,
		Type:   datadog.METRICINTAKETYPE_GAUGE.Ptr(),
		Points: []datadog.MetricPoint{point},
		Tags:   tags,
	}
	return datadog.MetricPayload{
		Series: []datadog.MetricSeries{series},
	}
}
