package strike

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wonny/universe/internal/contracts"
	"github.com/wonny/universe/internal/refdata"
	"github.com/wonny/universe/pkg/config"
	"github.com/wonny/universe/pkg/httputil"
	"github.com/wonny/universe/pkg/logger"
)

// Client handles communication with the Strike equity API
// ⭐ SSOT: Strike API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	tickURL    string
	circuitURL string
}

// NewClient creates a new Strike client
func NewClient(httpClient *httputil.Client, log *logger.Logger, feed config.FeedConfig) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		tickURL:    feed.TickURL,
		circuitURL: feed.CircuitURL,
	}
}

type tickEnvelope struct {
	Data *contracts.TickPayload `json:"data"`
}

// FetchTicks downloads one day of daily candles for every equity.
// A response without data is an empty payload, not an error.
// Transport and status failures wrap contracts.ErrFetchFailure.
func (c *Client) FetchTicks(ctx context.Context, date time.Time) (*contracts.TickPayload, error) {
	day := date.Format(contracts.DateLayout)
	url := strings.ReplaceAll(c.tickURL, "{date}", day)

	var env tickEnvelope
	if err := c.httpClient.GetJSON(ctx, url, &env); err != nil {
		return nil, fmt.Errorf("%w: ticks for %s: %v", contracts.ErrFetchFailure, day, err)
	}

	if env.Data == nil {
		return &contracts.TickPayload{}, nil
	}
	return env.Data, nil
}

type lastTradedEnvelope struct {
	Data struct {
		Current struct {
			Fields []string                   `json:"fields"`
			Ticks  map[string][][]interface{} `json:"ticks"`
		} `json:"current"`
	} `json:"data"`
}

// FetchCircuitBands reads the last traded state and extracts each symbol's circuit band
func (c *Client) FetchCircuitBands(ctx context.Context) (refdata.CircuitDocument, error) {
	var env lastTradedEnvelope
	if err := c.httpClient.GetJSON(ctx, c.circuitURL, &env); err != nil {
		return refdata.CircuitDocument{}, fmt.Errorf("%w: last traded state: %v", contracts.ErrFetchFailure, err)
	}

	cur := env.Data.Current
	if len(cur.Fields) == 0 || len(cur.Ticks) == 0 {
		return refdata.CircuitDocument{}, fmt.Errorf("last traded state has no fields or ticks")
	}

	bandIdx, dateIdx := indexOf(cur.Fields, "circuitLimit"), indexOf(cur.Fields, "dateTime")
	if bandIdx < 0 || dateIdx < 0 {
		return refdata.CircuitDocument{}, fmt.Errorf("last traded state is missing circuitLimit or dateTime")
	}

	symbols := make([]string, 0, len(cur.Ticks))
	for s := range cur.Ticks {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	doc := refdata.CircuitDocument{
		LastUpdated: time.Now().Format("2006-01-02 15:04:05"),
		Data:        make([]refdata.CircuitEntry, 0, len(symbols)),
	}
	for _, symbol := range symbols {
		rows := cur.Ticks[symbol]
		if len(rows) == 0 || len(rows[0]) <= bandIdx || len(rows[0]) <= dateIdx {
			continue
		}
		latest := rows[0]

		doc.Data = append(doc.Data, refdata.CircuitEntry{Symbol: symbol, Band: latest[bandIdx]})
		if doc.SourceDate == "" {
			if s, ok := latest[dateIdx].(string); ok {
				doc.SourceDate = s
			}
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"symbols":     len(doc.Data),
		"source_date": doc.SourceDate,
	}).Info("circuit bands fetched")

	return doc, nil
}

func indexOf(fields []string, name string) int {
	for i, f := range fields {
		if f == name {
			return i
		}
	}
	return -1
}
