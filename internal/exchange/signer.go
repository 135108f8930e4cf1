package exchange

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Scheme определяет из чего собирается подписываемая строка
type Scheme int

const (
	// SchemeTimestampPathBody - timestamp(сек) ‖ path ‖ body
	SchemeTimestampPathBody Scheme = iota
	// SchemeBinance - query из path + recvWindow + timestamp(мс), затем body
	SchemeBinance
	// SchemeThreeCommas - request URI ‖ body, время в подпись не входит
	SchemeThreeCommas
)

// Signature - результат подписи одного запроса
type Signature struct {
	At    time.Time // момент подписи, берётся из часов Signer
	Value string    // hex HMAC-SHA256
}

// Timestamp возвращает время подписи в секундах Unix
func (s Signature) Timestamp() int64 {
	return s.At.Unix()
}

// TimestampMillis возвращает время подписи в миллисекундах (Binance)
func (s Signature) TimestampMillis() int64 {
	return s.At.UnixMilli()
}

// Signer вычисляет HMAC-SHA256 подписи запросов к вендору
//
// Каждая подпись берёт свежее время, кэширования нет.
// Signer не хранит изменяемого состояния и безопасен для конкурентного использования.
type Signer struct {
	secret     []byte
	scheme     Scheme
	recvWindow int64
	now        func() time.Time
}

// SignerOption настраивает Signer
type SignerOption func(*Signer)

// WithClock подменяет источник времени (для тестов)
func WithClock(now func() time.Time) SignerOption {
	return func(s *Signer) { s.now = now }
}

// WithRecvWindow задаёт recvWindow для схемы Binance (мс)
func WithRecvWindow(ms int64) SignerOption {
	return func(s *Signer) { s.recvWindow = ms }
}

// NewSigner создаёт Signer для секрета и схемы
func NewSigner(secret string, scheme Scheme, opts ...SignerOption) *Signer {
	s := &Signer{
		secret: []byte(secret),
		scheme: scheme,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ready - ErrConfiguration, если секрет не задан
func (s *Signer) Ready() error {
	if len(s.secret) == 0 {
		return ErrConfiguration
	}
	return nil
}

// Sign подписывает запрос
//
// path - путь с query (для 3Commas - полный request URI), body - сырое тело.
// Пустой секрет -> ErrConfiguration.
func (s *Signer) Sign(path string, body []byte) (Signature, error) {
	if len(s.secret) == 0 {
		return Signature{}, ErrConfiguration
	}

	sig := Signature{At: s.now()}
	sig.Value = s.hmacHex(s.payload(sig, path, body))
	return sig, nil
}

func (s *Signer) payload(sig Signature, path string, body []byte) string {
	switch s.scheme {
	case SchemeBinance:
		return binanceSignedQuery(rawQuery(path), sig.TimestampMillis(), s.recvWindow) + string(body)
	case SchemeThreeCommas:
		return path + string(body)
	default:
		return strconv.FormatInt(sig.Timestamp(), 10) + path + string(body)
	}
}

func (s *Signer) hmacHex(payload string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

// binanceSignedQuery дописывает recvWindow и timestamp к query.
// Та же строка отправляется в запросе, поэтому порядок параметров не меняется.
func binanceSignedQuery(query string, tsMillis, recvWindow int64) string {
	var b strings.Builder
	b.WriteString(query)
	if recvWindow > 0 {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString("recvWindow=")
		b.WriteString(strconv.FormatInt(recvWindow, 10))
	}
	if b.Len() > 0 {
		b.WriteByte('&')
	}
	b.WriteString("timestamp=")
	b.WriteString(strconv.FormatInt(tsMillis, 10))
	return b.String()
}

func rawQuery(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[i+1:]
	}
	return ""
}
