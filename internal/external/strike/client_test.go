package strike

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/universe/internal/contracts"
	"github.com/wonny/universe/pkg/config"
	"github.com/wonny/universe/pkg/httputil"
	"github.com/wonny/universe/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{Env: "test"}
	feed := config.FeedConfig{
		TickURL:    server.URL + "/priceticks?dateTimes={date}",
		CircuitURL: server.URL + "/last-traded-state",
	}
	httpClient := httputil.New(cfg, logger.Nop()).DisableRetry()
	return NewClient(httpClient, logger.Nop(), feed)
}

func TestClient_FetchTicks(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("dateTimes") {
		case "2026-01-09":
			_, _ = w.Write([]byte(`{"data": {"fields": ["dateTime", "open", "high", "low", "close", "volume"], "ticks": {"ABC": [["2026-01-09T00:00:00+05:30", 90, 101, 89, 100, 5000]]}}}`))
		case "2026-01-10":
			_, _ = w.Write([]byte(`{"data": {"fields": ["open"], "ticks": {}}}`))
		case "2026-01-11":
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})
	ctx := context.Background()

	payload, err := client.FetchTicks(ctx, time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, payload.HasTicks())
	assert.Equal(t, []string{"dateTime", "open", "high", "low", "close", "volume"}, payload.Fields)

	payload, err = client.FetchTicks(ctx, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, payload.HasTicks())

	payload, err = client.FetchTicks(ctx, time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, payload.HasTicks(), "missing data envelope is empty")

	_, err = client.FetchTicks(ctx, time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrFetchFailure))
}

func TestClient_FetchTicks_URLDateMatchesTradeDate(t *testing.T) {
	requested := make(chan string, 1)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requested <- r.URL.Query().Get("dateTimes")
		_, _ = w.Write([]byte(`{"data": {"fields": ["open"], "ticks": {}}}`))
	})

	ist := time.FixedZone("IST", 5*3600+1800)
	day := time.Date(2026, 3, 2, 9, 15, 0, 0, ist)
	_, err := client.FetchTicks(context.Background(), day)
	require.NoError(t, err)

	got := <-requested
	assert.Equal(t, "2026-03-02", got)
	assert.Equal(t, day.Format(contracts.DateLayout), got)
}

func TestClient_FetchCircuitBands(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"current": {
			"fields": ["dateTime", "ltp", "circuitLimit"],
			"ticks": {
				"ZED": [["2026-01-09T15:30:00+05:30", 10, 5]],
				"ABC": [["2026-01-09T15:30:00+05:30", 100, 20]],
				"NOB": [["2026-01-09T15:30:00+05:30", 50, "No Band"]],
				"SHORT": [["2026-01-09T15:30:00+05:30"]],
				"EMPTY": []
			}
		}}}`))
	})

	doc, err := client.FetchCircuitBands(context.Background())
	require.NoError(t, err)

	require.Len(t, doc.Data, 3)
	assert.Equal(t, "ABC", doc.Data[0].Symbol, "sorted by symbol")
	assert.Equal(t, 20.0, doc.Data[0].Band)
	assert.Equal(t, "No Band", doc.Data[1].Band)
	assert.Equal(t, "ZED", doc.Data[2].Symbol)
	assert.Equal(t, "2026-01-09T15:30:00+05:30", doc.SourceDate)
	assert.NotEmpty(t, doc.LastUpdated)
}

func TestClient_FetchCircuitBands_MissingField(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"current": {"fields": ["dateTime"], "ticks": {"A": [["x"]]}}}}`))
	})

	_, err := client.FetchCircuitBands(context.Background())
	assert.Error(t, err)
}
