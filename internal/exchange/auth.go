package exchange

import (
	"net/http"
	"strconv"
)

// Authenticator добавляет к запросу материал аутентификации вендора
//
// Ready вызывается до ожидания rate limiter и до любой сетевой активности.
// Authenticate - после ожидания, непосредственно перед отправкой, чтобы
// timestamp подписи не старел в очереди лимитера.
type Authenticator interface {
	Ready() error
	Authenticate(req *http.Request, body []byte) error
}

func ready(apiKey string, s *Signer) error {
	if apiKey == "" {
		return ErrConfiguration
	}
	return s.Ready()
}

// HeaderAuth - общая схема: HMAC(timestamp ‖ path ‖ body) в заголовках
type HeaderAuth struct {
	APIKey string
	Signer *Signer
}

// NewHeaderAuth создаёт HeaderAuth со схемой SchemeTimestampPathBody
func NewHeaderAuth(apiKey, secret string, opts ...SignerOption) *HeaderAuth {
	return &HeaderAuth{APIKey: apiKey, Signer: NewSigner(secret, SchemeTimestampPathBody, opts...)}
}

func (a *HeaderAuth) Ready() error { return ready(a.APIKey, a.Signer) }

func (a *HeaderAuth) Authenticate(req *http.Request, body []byte) error {
	if err := a.Ready(); err != nil {
		return err
	}
	sig, err := a.Signer.Sign(req.URL.RequestURI(), body)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-KEY", a.APIKey)
	req.Header.Set("X-API-TIMESTAMP", strconv.FormatInt(sig.Timestamp(), 10))
	req.Header.Set("X-API-SIGNATURE", sig.Value)
	return nil
}

// BinanceAuth - SIGNED эндпоинты Binance
//
// recvWindow и timestamp дописываются в query, signature - последним параметром.
type BinanceAuth struct {
	APIKey string
	Signer *Signer
}

// NewBinanceAuth создаёт BinanceAuth
func NewBinanceAuth(apiKey, secret string, recvWindow int64, opts ...SignerOption) *BinanceAuth {
	opts = append([]SignerOption{WithRecvWindow(recvWindow)}, opts...)
	return &BinanceAuth{APIKey: apiKey, Signer: NewSigner(secret, SchemeBinance, opts...)}
}

func (a *BinanceAuth) Ready() error { return ready(a.APIKey, a.Signer) }

func (a *BinanceAuth) Authenticate(req *http.Request, body []byte) error {
	if err := a.Ready(); err != nil {
		return err
	}
	sig, err := a.Signer.Sign(req.URL.RequestURI(), body)
	if err != nil {
		return err
	}
	req.URL.RawQuery = binanceSignedQuery(req.URL.RawQuery, sig.TimestampMillis(), a.Signer.recvWindow) +
		"&signature=" + sig.Value
	req.Header.Set("X-MBX-APIKEY", a.APIKey)
	return nil
}

// ThreeCommasAuth - подпись 3Commas: HMAC(request URI ‖ body)
type ThreeCommasAuth struct {
	APIKey string
	Signer *Signer
}

// NewThreeCommasAuth создаёт ThreeCommasAuth
func NewThreeCommasAuth(apiKey, secret string) *ThreeCommasAuth {
	return &ThreeCommasAuth{APIKey: apiKey, Signer: NewSigner(secret, SchemeThreeCommas)}
}

func (a *ThreeCommasAuth) Ready() error { return ready(a.APIKey, a.Signer) }

func (a *ThreeCommasAuth) Authenticate(req *http.Request, body []byte) error {
	if err := a.Ready(); err != nil {
		return err
	}
	sig, err := a.Signer.Sign(req.URL.RequestURI(), body)
	if err != nil {
		return err
	}
	req.Header.Set("APIKEY", a.APIKey)
	req.Header.Set("Signature", sig.Value)
	return nil
}
