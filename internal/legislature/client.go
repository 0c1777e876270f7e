// Package legislature fetches bills from the NYS Open Legislation API.
package legislature

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/nysgpt/billembed/internal/models"
	"github.com/nysgpt/billembed/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public Open Legislation v3 API.
const DefaultBaseURL = "https://legislation.nysenate.gov/api/3"

// maxErrorBody bounds how much of a failed response body is kept in an error message.
const maxErrorBody = 500

// Client is an Open Legislation API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client (30s timeout).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit caps outgoing requests per second. Zero or negative disables limiting.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithLogger sets a logger for request debug output.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for baseURL (DefaultBaseURL when empty). An empty API key is a
// configuration error.
func NewClient(baseURL, apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: legislative API key not set", models.ErrConfig)
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type amendmentPayload struct {
	FullTextHTML string `json:"fullTextHtml"`
	FullText     string `json:"fullText"`
	Memo         string `json:"memo"`
}

type billPayload struct {
	BasePrintNo   string `json:"basePrintNo"`
	Session       int    `json:"session"`
	Title         string `json:"title"`
	Summary       string `json:"summary"`
	Memo          string `json:"memo"`
	ActiveVersion string `json:"activeVersion"`
	Amendments    struct {
		Items map[string]amendmentPayload `json:"items"`
	} `json:"amendments"`
}

type billResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Result  *billPayload `json:"result"`
}

// FetchBill retrieves one bill with the full text of its active amendment. The bill number is
// normalized and an even session year is coerced to its odd session key before querying.
// Any failure, including a response without a success flag or result, is an ErrFetch.
func (c *Client) FetchBill(ctx context.Context, billNumber string, sessionYear int) (*models.Bill, error) {
	printNo := NormalizeBillNumber(billNumber)
	session := SessionYear(sessionYear)
	q := url.Values{}
	q.Set("view", "default")
	q.Set("fullTextFormat", "html")
	endpoint := fmt.Sprintf("%s/bills/%d/%s", c.baseURL, session, url.PathEscape(printNo))

	var resp billResponse
	if err := c.get(ctx, endpoint, q, &resp); err != nil {
		return nil, fmt.Errorf("%w: %s (%d): %w", models.ErrFetch, printNo, session, err)
	}
	if !resp.Success || resp.Result == nil {
		msg := resp.Message
		if msg == "" {
			msg = "response missing success flag or result"
		}
		return nil, fmt.Errorf("%w: %s (%d): %s", models.ErrFetch, printNo, session, msg)
	}

	r := resp.Result
	bill := &models.Bill{
		BillID:        BillID(session, printNo),
		BillNumber:    printNo,
		SessionYear:   session,
		Title:         r.Title,
		Summary:       r.Summary,
		Memo:          r.Memo,
		ActiveVersion: r.ActiveVersion,
		Amendments:    make(map[string]models.Amendment, len(r.Amendments.Items)),
	}
	for version, a := range r.Amendments.Items {
		bill.Amendments[version] = models.Amendment{
			Version:      version,
			FullTextHTML: a.FullTextHTML,
			FullText:     a.FullText,
			Memo:         a.Memo,
		}
	}
	resolveText(bill)
	c.logger.Debug("bill fetched",
		zap.String("bill_number", printNo),
		zap.Int("session_year", session),
		zap.String("text_version", bill.TextVersion),
		zap.Bool("has_text", bill.HasText()),
	)
	return bill, nil
}

// resolveText picks the active amendment's text, falling back to the first other amendment
// (by version key) that has any. The memo falls back to the chosen amendment's memo.
func resolveText(bill *models.Bill) {
	candidates := []string{bill.ActiveVersion}
	others := make([]string, 0, len(bill.Amendments))
	for v := range bill.Amendments {
		if v != bill.ActiveVersion {
			others = append(others, v)
		}
	}
	sort.Strings(others)
	candidates = append(candidates, others...)
	for _, v := range candidates {
		a, ok := bill.Amendments[v]
		if !ok || (a.FullTextHTML == "" && a.FullText == "") {
			continue
		}
		bill.TextVersion = v
		bill.FullTextHTML = a.FullTextHTML
		bill.FullText = a.FullText
		if bill.Memo == "" {
			bill.Memo = a.Memo
		}
		return
	}
	if active, ok := bill.Amendments[bill.ActiveVersion]; ok && bill.Memo == "" {
		bill.Memo = active.Memo
	}
	bill.TextVersion = bill.ActiveVersion
}

type billListItem struct {
	BasePrintNo string `json:"basePrintNo"`
	Session     int    `json:"session"`
	Title       string `json:"title"`
}

type billListResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Total   int    `json:"total"`
	Result  *struct {
		Items []billListItem `json:"items"`
	} `json:"result"`
}

// ListBills returns one page of a session's bills and the session's total bill count.
// offset is 0-based; the API's 1-based offsets are handled here.
func (c *Client) ListBills(ctx context.Context, sessionYear, offset, limit int) ([]models.BillRecord, int, error) {
	session := SessionYear(sessionYear)
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset+1))
	endpoint := fmt.Sprintf("%s/bills/%d", c.baseURL, session)

	var resp billListResponse
	if err := c.get(ctx, endpoint, q, &resp); err != nil {
		return nil, 0, fmt.Errorf("%w: list session %d: %w", models.ErrFetch, session, err)
	}
	if !resp.Success || resp.Result == nil {
		return nil, 0, fmt.Errorf("%w: list session %d: response missing success flag or result", models.ErrFetch, session)
	}
	records := make([]models.BillRecord, 0, len(resp.Result.Items))
	for _, it := range resp.Result.Items {
		printNo := NormalizeBillNumber(it.BasePrintNo)
		records = append(records, models.BillRecord{
			BillID:      BillID(session, printNo),
			BillNumber:  printNo,
			SessionYear: session,
			Title:       it.Title,
		})
	}
	return records, resp.Total, nil
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}
	q.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody*2))
		return fmt.Errorf("API returned %d: %s", resp.StatusCode, utils.Truncate(string(b), maxErrorBody))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
