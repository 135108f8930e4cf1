package exchange

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tradelink/internal/models"
)

func newTestBinance(srv *httptest.Server) *Binance {
	return NewBinance(BinanceConfig{
		BaseURL:    srv.URL,
		RecvWindow: 5000,
		Timeout:    2 * time.Second,
		Client:     WrapHTTPClient(srv.Client()),
	})
}

var testKeys = models.APIKeys{APIKey: "key", APISecret: "secret"}

func TestBinance_Account(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/account" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("X-MBX-APIKEY") != "key" {
			t.Errorf("missing api key header")
		}
		if r.URL.Query().Get("signature") == "" || r.URL.Query().Get("timestamp") == "" {
			t.Errorf("unsigned request: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"balances":[{"asset":"BTC","free":"1.5","locked":"0.5"},{"asset":"ETH","free":"0","locked":"0"}]}`))
	}))
	defer srv.Close()

	balances, err := newTestBinance(srv).Account(context.Background(), testKeys)
	if err != nil {
		t.Fatalf("Account: %v", err)
	}
	if len(balances) != 2 {
		t.Fatalf("len = %d, want 2", len(balances))
	}
	if !balances[0].Free.Equal(decimal.RequireFromString("1.5")) || !balances[0].Locked.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("unexpected BTC balance: %+v", balances[0])
	}
}

func TestBinance_AccountRequiresKeys(t *testing.T) {
	b := NewBinance(BinanceConfig{BaseURL: "https://api.binance.com"})
	if _, err := b.Account(context.Background(), models.APIKeys{APIKey: "key"}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
}

func TestBinance_MyTrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/myTrades" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("symbol") != "BTCUSDT" || q.Get("limit") != "50" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		w.Write([]byte(`[{"symbol":"BTCUSDT","id":1,"orderId":10,"price":"100","qty":"1","quoteQty":"100",
			"commission":"0","commissionAsset":"BNB","time":1700000000000,"isBuyer":true,"isMaker":false}]`))
	}))
	defer srv.Close()

	trades, err := newTestBinance(srv).MyTrades(context.Background(), testKeys, "BTCUSDT", 50)
	if err != nil {
		t.Fatalf("MyTrades: %v", err)
	}
	if len(trades) != 1 || !trades[0].IsBuyer || trades[0].OrderID != 10 {
		t.Errorf("unexpected trades: %+v", trades)
	}
}

func TestBinance_Prices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/price" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`[{"symbol":"BTCUSDT","price":"50000.00"},{"symbol":"ETHUSDT","price":"3000.5"}]`))
	}))
	defer srv.Close()

	prices, err := newTestBinance(srv).Prices(context.Background())
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}
	if !prices["BTCUSDT"].Equal(decimal.NewFromInt(50000)) {
		t.Errorf("BTCUSDT = %s", prices["BTCUSDT"])
	}
	if _, ok := prices["XRPUSDT"]; ok {
		t.Error("unexpected XRPUSDT price")
	}
}

func TestBinance_DailyCloses(t *testing.T) {
	day1 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/klines" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("symbol") != "BTCUSDT" || q.Get("interval") != "1d" || q.Get("limit") != "2" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		w.Write([]byte(`[
			[1714521600000,"60000","61000","59000","60500","10",1714607999999,"0",100,"0","0","0"],
			[1714608000000,"60500","62000","60000","61500","12",1714694399999,"0",120,"0","0","0"]
		]`))
	}))
	defer srv.Close()

	end := day2.Add(24*time.Hour - time.Nanosecond)
	candles, err := newTestBinance(srv).DailyCloses(context.Background(), "BTCUSDT", day1, end)
	if err != nil {
		t.Fatalf("DailyCloses: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("len = %d, want 2", len(candles))
	}
	if !candles[0].OpenTime.Equal(day1) || !candles[1].Close.Equal(decimal.NewFromInt(61500)) {
		t.Errorf("unexpected candles: %+v", candles)
	}
}

func TestBinance_MarketErrorBecomesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer srv.Close()

	_, err := newTestBinance(srv).DailyCloses(context.Background(), "NOPEUSDT", time.Now().Add(-time.Hour), time.Now())
	ue, ok := AsUpstream(err)
	if !ok {
		t.Fatalf("error = %v, want *UpstreamError", err)
	}
	if ue.StatusCode != http.StatusBadRequest || ue.Code != "-1121" || ue.Message != "Invalid symbol." {
		t.Errorf("unexpected error: %+v", ue)
	}
}
