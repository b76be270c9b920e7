package monnify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/obafemi/chopwell-backend/pkg/config"
	pkgerrors "github.com/obafemi/chopwell-backend/pkg/errors"
	"github.com/obafemi/chopwell-backend/pkg/logger"
)

const (
	loginPath            = "/api/v1/auth/login"
	reservedAccountsPath = "/api/v2/bank-transfer/reserved-accounts"
	transactionsPath     = "/api/v1/bank-transfer/reserved-accounts/transactions"

	transactionsPageSize = 50
	tokenExpirySlack     = 30 * time.Second
)

var (
	errAPIKeyRequired    = errors.New("monnify api key is required")
	errSecretKeyRequired = errors.New("monnify secret key is required")
	errContractRequired  = errors.New("monnify contract code is required")
	errLoggerRequired    = errors.New("monnify logger is required")
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client wraps the provider's REST API with token caching and error mapping.
type Client struct {
	httpClient   httpDoer
	baseURL      string
	apiKey       string
	secretKey    string
	contractCode string
	logger       *logger.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient validates the credentials and builds the provider client.
func NewClient(ctx context.Context, cfg config.MonnifyConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errAPIKeyRequired
	}
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, errSecretKeyRequired
	}
	if strings.TrimSpace(cfg.ContractCode) == "" {
		return nil, errContractRequired
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := &Client{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       strings.TrimSpace(cfg.APIKey),
		secretKey:    strings.TrimSpace(cfg.SecretKey),
		contractCode: strings.TrimSpace(cfg.ContractCode),
		logger:       logg,
	}

	logg.Info(ctx, "monnify client initialized")
	return c, nil
}

// SigningSecret returns the secret used to verify webhook signatures.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.secretKey
}

type apiEnvelope struct {
	RequestSuccessful bool            `json:"requestSuccessful"`
	ResponseMessage   string          `json:"responseMessage"`
	ResponseCode      string          `json:"responseCode"`
	ResponseBody      json.RawMessage `json:"responseBody"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

type reserveAccountRequest struct {
	AccountReference string `json:"accountReference"`
	AccountName      string `json:"accountName"`
	CurrencyCode     string `json:"currencyCode"`
	ContractCode     string `json:"contractCode"`
	CustomerEmail    string `json:"customerEmail"`
	CustomerName     string `json:"customerName"`
}

type transactionsPage struct {
	Content     []Transaction `json:"content"`
	TotalPages  int           `json:"totalPages"`
	Number      int           `json:"number"`
	Last        bool          `json:"last"`
	TotalElems  int           `json:"totalElements"`
	NumberOfEls int           `json:"numberOfElements"`
}

// ReserveAccount allocates a virtual account dedicated to one payment session.
func (c *Client) ReserveAccount(ctx context.Context, accountReference, customerName, customerEmail string) (*ReservedAccount, error) {
	body := reserveAccountRequest{
		AccountReference: accountReference,
		AccountName:      customerName,
		CurrencyCode:     "NGN",
		ContractCode:     c.contractCode,
		CustomerEmail:    customerEmail,
		CustomerName:     customerName,
	}

	var account ReservedAccount
	if err := c.call(ctx, http.MethodPost, reservedAccountsPath, nil, body, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// ListTransactions pages through the settlement feed for a reserved account and
// returns the flattened rows, newest first as the provider serves them.
func (c *Client) ListTransactions(ctx context.Context, accountReference string) ([]Transaction, error) {
	var all []Transaction
	for page := 0; ; page++ {
		query := url.Values{}
		query.Set("accountReference", accountReference)
		query.Set("page", strconv.Itoa(page))
		query.Set("size", strconv.Itoa(transactionsPageSize))

		var result transactionsPage
		if err := c.call(ctx, http.MethodGet, transactionsPath, query, nil, &result); err != nil {
			return nil, err
		}
		all = append(all, result.Content...)
		if result.Last || len(result.Content) == 0 || page >= result.TotalPages {
			break
		}
	}
	return all, nil
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode monnify request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build monnify request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	envelope, err := c.doJSON(req)
	if err != nil {
		return err
	}
	if out == nil || len(envelope.ResponseBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.ResponseBody, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode monnify response body")
	}
	return nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-tokenExpirySlack)) {
		return c.accessToken, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, nil)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build monnify login request")
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(c.apiKey + ":" + c.secretKey))
	req.Header.Set("Authorization", "Basic "+credentials)

	envelope, err := c.doJSON(req)
	if err != nil {
		return "", err
	}

	var login loginResponse
	if err := json.Unmarshal(envelope.ResponseBody, &login); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode monnify login response")
	}
	if login.AccessToken == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "monnify login returned no token")
	}

	c.accessToken = login.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(login.ExpiresIn) * time.Second)
	return c.accessToken, nil
}

func (c *Client) doJSON(req *http.Request) (*apiEnvelope, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "monnify request failed")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read monnify response")
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode monnify response (status %d)", resp.StatusCode))
	}
	if resp.StatusCode >= http.StatusBadRequest || !envelope.RequestSuccessful {
		message := envelope.ResponseMessage
		if message == "" {
			message = fmt.Sprintf("monnify returned status %d", resp.StatusCode)
		}
		return nil, pkgerrors.New(pkgerrors.CodeDependency, message).WithDetails(map[string]any{
			"response_code": envelope.ResponseCode,
			"http_status":   resp.StatusCode,
		})
	}
	return &envelope, nil
}
