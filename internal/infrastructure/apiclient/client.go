package apiclient

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client implements port.DataFetcher over fasthttp: GET the URL, decode the
// JSON body. Requests are rate limited so the poll loops cannot hammer the
// remote API.
type Client struct {
	client  *fasthttp.Client
	timeout time.Duration
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient creates a rate-limited JSON fetcher.
func NewClient(timeout time.Duration, rateLimit, burstLimit int, logger *zap.Logger) *Client {
	if rateLimit <= 0 {
		rateLimit = 20
	}
	if burstLimit <= 0 {
		burstLimit = 1
	}
	return &Client{
		client:  &fasthttp.Client{},
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), burstLimit),
		logger:  logger.Named("APIClient"),
	}
}

// FetchJSON GETs the URL and decodes the response body into out.
func (c *Client) FetchJSON(ctx context.Context, url string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetContentTypeBytes([]byte("application/json"))

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			c.logger.Debug("Request failed", zap.String("url", url), zap.Error(err))
			return fmt.Errorf("failed to execute request to %s: %w", url, err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			c.logger.Debug("Request failed", zap.String("url", url), zap.Error(err))
			return fmt.Errorf("failed to execute request to %s: %w", url, err)
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return fmt.Errorf("the server returned error code %d for %s", resp.StatusCode(), url)
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return nil
}
