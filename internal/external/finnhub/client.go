package finnhub

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/wonny/fxpulse/internal/contracts"
	"github.com/wonny/fxpulse/pkg/httputil"
	"github.com/wonny/fxpulse/pkg/logger"
	"github.com/wonny/fxpulse/pkg/metrics"
)

// Client fetches quotes from the Finnhub REST API
// ⭐ SSOT: provider calls happen in this client only
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	metrics    *metrics.Recorder
	symbols    *SymbolTable
	baseURL    string
	token      string
	timeout    time.Duration
	now        func() time.Time
}

// Config holds client settings
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration // per-symbol bound
}

// quoteResponse is the /quote payload. d and dp are null for unknown symbols.
type quoteResponse struct {
	Current       float64  `json:"c"`
	Change        *float64 `json:"d"`
	ChangePercent *float64 `json:"dp"`
	High          float64  `json:"h"`
	Low           float64  `json:"l"`
	Open          float64  `json:"o"`
	PrevClose     float64  `json:"pc"`
	Timestamp     int64    `json:"t"`
}

var errZeroPrice = errors.New("malformed quote: zero price")

// NewClient creates a new Finnhub client
func NewClient(httpClient *httputil.Client, symbols *SymbolTable, cfg Config, log *logger.Logger, rec *metrics.Recorder) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.Module("finnhub"),
		metrics:    rec,
		symbols:    symbols,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.APIKey,
		timeout:    timeout,
		now:        time.Now,
	}
}

// FetchQuotes fetches every symbol concurrently.
// A failed symbol is omitted from Quotes and reported in Failures.
func (c *Client) FetchQuotes(ctx context.Context, symbols []string) contracts.FetchResult {
	result := contracts.FetchResult{Quotes: make(map[string]contracts.Quote, len(symbols))}

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()

			quote, err := c.fetchQuote(ctx, symbol)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				var fetchErr *contracts.ProviderFetchError
				if !errors.As(err, &fetchErr) {
					fetchErr = &contracts.ProviderFetchError{Symbol: symbol, Err: err}
				}
				result.Failures = append(result.Failures, fetchErr)
				return
			}
			result.Quotes[symbol] = *quote
		}(symbol)
	}

	wg.Wait()

	if len(result.Failures) > 0 {
		c.logger.WithFields(map[string]interface{}{
			"requested": len(symbols),
			"fetched":   len(result.Quotes),
			"failed":    len(result.Failures),
		}).Warn("Quote fetch completed with failures")
	}

	return result
}

// fetchQuote fetches one symbol under its own timeout
func (c *Client) fetchQuote(ctx context.Context, symbol string) (*contracts.Quote, error) {
	providerSymbol, ok := c.symbols.ToProvider(symbol)
	if !ok {
		c.metrics.RecordProviderRequest("error")
		return nil, &contracts.ProviderFetchError{
			Symbol: symbol,
			Err:    fmt.Errorf("no provider mapping"),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("symbol", providerSymbol)
	params.Set("token", c.token)
	fullURL := fmt.Sprintf("%s/quote?%s", c.baseURL, params.Encode())

	var resp quoteResponse
	err := c.httpClient.GetJSON(ctx, fullURL, &resp)
	if err == nil && resp.Current <= 0 {
		err = errZeroPrice
	}
	if err != nil {
		fetchErr := &contracts.ProviderFetchError{
			Symbol:         symbol,
			ProviderSymbol: providerSymbol,
			Timeout:        isTimeout(ctx, err),
			Err:            err,
		}
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) {
			fetchErr.StatusCode = statusErr.StatusCode
		}

		if fetchErr.Timeout {
			c.metrics.RecordProviderRequest("timeout")
		} else {
			c.metrics.RecordProviderRequest("error")
		}
		c.logger.WithError(err).WithField("symbol", symbol).Warn("Quote fetch failed")
		return nil, fetchErr
	}

	c.metrics.RecordProviderRequest("ok")

	quote := &contracts.Quote{
		Symbol:    symbol,
		Price:     resp.Current,
		FetchedAt: c.now(),
	}
	if resp.Change != nil {
		quote.Change = *resp.Change
	}
	if resp.ChangePercent != nil {
		quote.ChangePercent = *resp.ChangePercent
	}
	return quote, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
