package poster

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/posterops/poster-bridge/pkg/config"
	pkgerrors "github.com/posterops/poster-bridge/pkg/errors"
	"github.com/posterops/poster-bridge/pkg/logger"
	"github.com/posterops/poster-bridge/pkg/types"
)

const defaultTimeout = 10 * time.Second

var (
	errTokenRequired   = errors.New("poster access token is required")
	errBaseURLRequired = errors.New("poster base url is required")
	errLoggerRequired  = errors.New("poster logger is required")
)

// Client talks to the Poster POS API. Every request carries the account
// token as a query parameter; responses arrive wrapped in a
// {"response": ...} envelope.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *logger.Logger
}

// NewClient initializes the Poster wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.PosterConfig, token string, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errTokenRequired
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		token:      token,
		logger:     logg,
	}

	logg.Info(ctx, "poster client initialized")
	return c, nil
}

// GetProducts lists menu products. An empty token uses the configured one.
func (c *Client) GetProducts(ctx context.Context, token string) ([]Product, error) {
	c.log(ctx, "request", "menu.getProducts", nil)

	body, err := c.get(ctx, "menu.getProducts", token, nil)
	if err != nil {
		c.log(ctx, "error", "menu.getProducts", map[string]any{"error": err.Error()})
		return nil, err
	}

	var products []Product
	if err := decodeEnvelope(body, &products); err != nil {
		c.log(ctx, "error", "menu.getProducts", map[string]any{"error": err.Error()})
		return nil, c.mapDecodeError(err, "menu.getProducts")
	}

	c.log(ctx, "response", "menu.getProducts", map[string]any{"count": len(products)})
	return products, nil
}

// GetIngredients lists stock ingredients. An empty token uses the
// configured one.
func (c *Client) GetIngredients(ctx context.Context, token string) ([]Ingredient, error) {
	c.log(ctx, "request", "menu.getIngredients", nil)

	body, err := c.get(ctx, "menu.getIngredients", token, nil)
	if err != nil {
		c.log(ctx, "error", "menu.getIngredients", map[string]any{"error": err.Error()})
		return nil, err
	}

	var ingredients []Ingredient
	if err := decodeEnvelope(body, &ingredients); err != nil {
		c.log(ctx, "error", "menu.getIngredients", map[string]any{"error": err.Error()})
		return nil, c.mapDecodeError(err, "menu.getIngredients")
	}

	c.log(ctx, "response", "menu.getIngredients", map[string]any{"count": len(ingredients)})
	return ingredients, nil
}

// GetTransaction fetches the full detail for one transaction, including
// sold products. A nil result without error means the upstream has no
// usable data for the id.
func (c *Client) GetTransaction(ctx context.Context, transactionID string) (*Transaction, error) {
	query := url.Values{}
	query.Set("transaction_id", transactionID)
	query.Set("include_products", "true")
	c.log(ctx, "request", "dash.getTransaction", map[string]any{"transaction_id": transactionID})

	body, err := c.get(ctx, "dash.getTransaction", "", query)
	if err != nil {
		c.log(ctx, "error", "dash.getTransaction", map[string]any{"error": err.Error()})
		return nil, err
	}

	tx, err := decodeTransaction(body)
	if err != nil {
		c.log(ctx, "error", "dash.getTransaction", map[string]any{"error": err.Error()})
		return nil, c.mapDecodeError(err, "dash.getTransaction")
	}
	if tx == nil {
		c.log(ctx, "response", "dash.getTransaction", map[string]any{"found": false})
		return nil, nil
	}

	c.log(ctx, "response", "dash.getTransaction", map[string]any{
		"found":          true,
		"transaction_id": tx.TransactionID.String(),
		"products":       len(tx.Products),
	})
	return tx, nil
}

// GetTransactions pulls one page of the transaction feed, newest first.
func (c *Client) GetTransactions(ctx context.Context, params TransactionListParams) (*TransactionPage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(params.Page))
	query.Set("per_page", strconv.Itoa(params.PerPage))
	if params.DateFrom != "" {
		query.Set("date_from", params.DateFrom)
	}
	if params.DateTo != "" {
		query.Set("date_to", params.DateTo)
	}
	c.log(ctx, "request", "dash.getTransactions", map[string]any{
		"page":     params.Page,
		"per_page": params.PerPage,
	})

	body, err := c.get(ctx, "dash.getTransactions", "", query)
	if err != nil {
		c.log(ctx, "error", "dash.getTransactions", map[string]any{"error": err.Error()})
		return nil, err
	}

	var transactions []Transaction
	if err := decodeEnvelope(body, &transactions); err != nil {
		c.log(ctx, "error", "dash.getTransactions", map[string]any{"error": err.Error()})
		return nil, c.mapDecodeError(err, "dash.getTransactions")
	}

	c.log(ctx, "response", "dash.getTransactions", map[string]any{
		"page":  params.Page,
		"count": len(transactions),
	})
	return &TransactionPage{Transactions: transactions, Page: params.Page}, nil
}

// GetTransactionWriteOffs fetches the stock write-offs recorded against
// one transaction.
func (c *Client) GetTransactionWriteOffs(ctx context.Context, transactionID string) ([]WriteOff, error) {
	query := url.Values{}
	query.Set("transaction_id", transactionID)
	c.log(ctx, "request", "dash.getTransactionWriteoffs", map[string]any{"transaction_id": transactionID})

	body, err := c.get(ctx, "dash.getTransactionWriteoffs", "", query)
	if err != nil {
		c.log(ctx, "error", "dash.getTransactionWriteoffs", map[string]any{"error": err.Error()})
		return nil, err
	}

	var writeOffs []WriteOff
	if err := decodeEnvelope(body, &writeOffs); err != nil {
		c.log(ctx, "error", "dash.getTransactionWriteoffs", map[string]any{"error": err.Error()})
		return nil, c.mapDecodeError(err, "dash.getTransactionWriteoffs")
	}

	c.log(ctx, "response", "dash.getTransactionWriteoffs", map[string]any{
		"transaction_id": transactionID,
		"count":          len(writeOffs),
	})
	return writeOffs, nil
}

func (c *Client) get(ctx context.Context, op, token string, query url.Values) ([]byte, error) {
	if query == nil {
		query = url.Values{}
	}
	if token == "" {
		token = c.token
	}
	query.Set("token", token)

	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, op, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, sanitizeURLError(err), fmt.Sprintf("poster %s request", op))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, sanitizeURLError(err), fmt.Sprintf("poster %s failed", op))
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn(ctx, fmt.Sprintf("poster %s: closing response body failed", op))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, fmt.Sprintf("poster %s read body", op))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, fmt.Sprintf("poster %s returned status %d", op, resp.StatusCode))
	}

	return body, nil
}

func (c *Client) mapDecodeError(err error, op string) error {
	return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, fmt.Sprintf("poster %s response", op))
}

// sanitizeURLError strips the request URL, which carries the token
// query parameter, from transport errors.
func sanitizeURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}
	return err
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("poster %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Debug(ctx, fmt.Sprintf("poster %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"token", "secret", "key"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

type envelope struct {
	Response json.RawMessage `json:"response"`
	Error    types.Number    `json:"error"`
	Message  string          `json:"message"`
}

// decodeEnvelope unwraps the Poster {"response": ...} envelope into out.
// A null or absent response leaves out untouched. An in-band error
// object becomes an error even on HTTP 200.
func decodeEnvelope(data []byte, out any) error {
	var env envelope
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if env.Error != 0 {
		return fmt.Errorf("upstream error %d: %s", env.Error.Int64(), env.Message)
	}
	raw := bytes.TrimSpace(env.Response)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeTransaction tolerates the detail endpoint answering with either
// a single object or a one-element array.
func decodeTransaction(body []byte) (*Transaction, error) {
	var list []Transaction
	if err := decodeEnvelope(body, &list); err == nil {
		if len(list) == 0 {
			return nil, nil
		}
		if list[0].TransactionID == 0 {
			return nil, nil
		}
		return &list[0], nil
	}

	var single Transaction
	if err := decodeEnvelope(body, &single); err != nil {
		return nil, err
	}
	if single.TransactionID == 0 {
		return nil, nil
	}
	return &single, nil
}
