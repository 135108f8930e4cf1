package exchange

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"tradelink/internal/metrics"
	"tradelink/pkg/ratelimit"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxResponseSize - ограничение на размер тела ответа вендора
const maxResponseSize = 10 << 20

// DefaultTimeout - таймаут одного вызова, если в конфиге не задан
const DefaultTimeout = 15 * time.Second

// AdapterConfig - параметры конструирования адаптера
type AdapterConfig struct {
	Vendor  string
	BaseURL string
	Auth    Authenticator // nil - публичные эндпоинты без подписи
	Client  *HTTPClient
	Timeout time.Duration
	Limiter *ratelimit.MultiLimiter // лимитер ищется по Vendor
}

// Adapter выполняет вызовы одного вендора под одной идентичностью
//
// Кроме базового URL, ключей и общего HTTP клиента состояния между вызовами нет.
// Ошибки: ErrConfiguration/ErrUnsupportedMethod до сети, *UpstreamError на всё остальное.
// Повторных отправок нет.
type Adapter struct {
	vendor  string
	baseURL string
	auth    Authenticator
	client  *HTTPClient
	timeout time.Duration
	limiter *ratelimit.MultiLimiter
}

// NewAdapter создаёт адаптер
func NewAdapter(cfg AdapterConfig) (*Adapter, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: empty base url for %s", ErrConfiguration, cfg.Vendor)
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid base url %q", ErrConfiguration, cfg.BaseURL)
	}

	if cfg.Client == nil {
		cfg.Client = NewHTTPClient(DefaultHTTPClientConfig())
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Adapter{
		vendor:  cfg.Vendor,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		auth:    cfg.Auth,
		client:  cfg.Client,
		timeout: cfg.Timeout,
		limiter: cfg.Limiter,
	}, nil
}

// Vendor возвращает имя вендора адаптера
func (a *Adapter) Vendor() string {
	return a.vendor
}

// Get выполняет GET и декодирует ответ в out
func (a *Adapter) Get(ctx context.Context, path string, out interface{}) error {
	return a.Do(ctx, http.MethodGet, path, nil, out)
}

// Post выполняет POST с JSON телом
func (a *Adapter) Post(ctx context.Context, path string, body, out interface{}) error {
	return a.Do(ctx, http.MethodPost, path, body, out)
}

// Delete выполняет DELETE
func (a *Adapter) Delete(ctx context.Context, path string, out interface{}) error {
	return a.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do выполняет один запрос к вендору
//
// body: nil, []byte (отправляется как есть) или значение для JSON-кодирования.
// out: nil или указатель для декодирования 2xx ответа.
func (a *Adapter) Do(ctx context.Context, method, path string, body, out interface{}) error {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodDelete:
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}

	if a.auth != nil {
		if err := a.auth.Ready(); err != nil {
			return err
		}
	}

	payload, err := encodeBody(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrConfiguration, err)
	}
	req.Header.Set("Accept", "application/json")
	if len(payload) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	if err := waitLimiter(ctx, a.limiter, a.vendor); err != nil {
		return newTransportError(a.vendor, err)
	}

	if a.auth != nil {
		if err := a.auth.Authenticate(req, payload); err != nil {
			return err
		}
	}

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		metrics.RecordUpstream(a.vendor, method, 0, time.Since(start))
		return newTransportError(a.vendor, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	metrics.RecordUpstream(a.vendor, method, resp.StatusCode, time.Since(start))
	if err != nil {
		return newTransportError(a.vendor, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newStatusError(a.vendor, resp.StatusCode, respBody)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return newDecodeError(a.vendor, resp.StatusCode, respBody, err)
	}
	return nil
}

// waitLimiter ждёт токен вендора и пишет время ожидания и остаток ведра
func waitLimiter(ctx context.Context, limiter *ratelimit.MultiLimiter, vendor string) error {
	waitStart := time.Now()
	if err := limiter.Wait(ctx, vendor); err != nil {
		return err
	}
	metrics.RecordRateLimitWait(vendor, time.Since(waitStart))
	if left, ok := limiter.Tokens(vendor); ok {
		metrics.RecordRateLimitTokens(vendor, left)
	}
	return nil
}

func encodeBody(body interface{}) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	default:
		return json.Marshal(b)
	}
}
