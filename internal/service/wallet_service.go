package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tradelink/internal/metrics"
	"tradelink/internal/models"
	"tradelink/internal/portfolio"
	"tradelink/pkg/utils"
)

// KeyProvider - расшифровка ключей владельца на время запроса
type KeyProvider interface {
	Keys(ctx context.Context, vendor models.Vendor, ownerID string) (models.APIKeys, error)
}

var _ KeyProvider = (*CredentialService)(nil)

// WalletConfig - параметры агрегации кошелька
type WalletConfig struct {
	QuoteAsset  string
	TopN        int
	DefaultDays int
	MaxDays     int
	TradesLimit int
}

// WalletQuery - параметры запроса GET /binance/wallet
type WalletQuery struct {
	Sort      string
	Order     string
	Timeframe string
}

// WalletService - кошелек, тренд и сделки владельца на Binance
type WalletService struct {
	keys    KeyProvider
	binance BinanceAPI
	cfg     WalletConfig
	now     func() time.Time
	log     *utils.Logger
}

// NewWalletService создает новый экземпляр сервиса
func NewWalletService(keys KeyProvider, binance BinanceAPI, cfg WalletConfig, log *utils.Logger) *WalletService {
	if cfg.QuoteAsset == "" {
		cfg.QuoteAsset = "USDT"
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}
	if cfg.DefaultDays <= 0 {
		cfg.DefaultDays = 7
	}
	if cfg.MaxDays <= 0 {
		cfg.MaxDays = 30
	}
	if cfg.TradesLimit <= 0 {
		cfg.TradesLimit = 50
	}
	if log == nil {
		log = utils.NewNopLogger()
	}
	return &WalletService{
		keys:    keys,
		binance: binance,
		cfg:     cfg,
		now:     time.Now,
		log:     log.WithComponent("wallet"),
	}
}

// Snapshot собирает оценку кошелька и дневной тренд топ-активов.
//
// Ошибка цен или балансов возвращается как есть. Ошибки свечей отдельных
// активов не прерывают запрос: актив-дни попадают в TrendGaps.
func (s *WalletService) Snapshot(ctx context.Context, ownerID string, q WalletQuery) (*models.WalletSnapshot, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, invalid("ownerId is required")
	}
	sortKey, order, err := portfolio.ParseSort(q.Sort, q.Order)
	if err != nil {
		return nil, invalid(err.Error())
	}
	days, err := portfolio.ParseTimeframe(q.Timeframe, s.cfg.DefaultDays, s.cfg.MaxDays)
	if err != nil {
		return nil, invalid(err.Error())
	}

	keys, err := s.keys.Keys(ctx, models.VendorBinance, ownerID)
	if err != nil {
		return nil, err
	}

	balances, err := s.binance.Account(ctx, keys)
	if err != nil {
		return nil, err
	}

	prices := make(map[string]decimal.Decimal)
	if len(portfolio.HeldSymbols(balances, s.cfg.QuoteAsset)) > 0 {
		prices, err = s.binance.Prices(ctx)
		if err != nil {
			return nil, err
		}
	}

	lines := portfolio.BuildWallet(balances, prices, s.cfg.QuoteAsset)
	trend, gaps := s.trend(ctx, portfolio.TopByValue(lines, s.cfg.TopN), days)
	portfolio.SortLines(lines, sortKey, order)

	if len(gaps) > 0 {
		metrics.RecordTrendGaps(len(gaps))
		s.log.WithOwner(ownerID).Warn("wallet trend is partial", zap.Int("gaps", len(gaps)))
	}

	return &models.WalletSnapshot{
		TotalValue:   portfolio.TotalValue(lines),
		QuoteAsset:   s.cfg.QuoteAsset,
		Assets:       lines,
		Trend:        trend,
		TrendPartial: len(gaps) > 0,
		TrendGaps:    gaps,
	}, nil
}

// trend запрашивает дневные свечи по каждому топ-активу параллельно,
// не более TopN запросов одновременно.
func (s *WalletService) trend(ctx context.Context, top []models.BalanceLine, days int) ([]models.TrendPoint, []models.TrendGap) {
	now := s.now()
	window := utils.DaysBack(now, days)
	rng := utils.LastNDaysFrom(now, days)

	series := make([]portfolio.AssetSeries, len(top))

	var g errgroup.Group
	g.SetLimit(s.cfg.TopN)

	for i, line := range top {
		if strings.EqualFold(line.Asset, s.cfg.QuoteAsset) {
			series[i] = portfolio.ConstantSeries(line.Asset, line.Total, window, line.Price)
			continue
		}

		i, line := i, line
		g.Go(func() error {
			symbol := portfolio.PriceSymbol(line.Asset, s.cfg.QuoteAsset)
			candles, err := s.binance.DailyCloses(ctx, symbol, rng.Start, rng.End)
			if err != nil {
				s.log.Warn("daily closes unavailable", utils.Symbol(symbol), zap.Error(err))
			}
			series[i] = portfolio.AssetSeries{Asset: line.Asset, Qty: line.Total, Candles: candlesIn(rng, candles), Err: err}
			return nil
		})
	}
	_ = g.Wait()

	points, gaps := portfolio.BuildTrend(window, series)
	if gaps == nil {
		gaps = []models.TrendGap{}
	}
	return points, gaps
}

// candlesIn отбрасывает свечи вне окна тренда
func candlesIn(rng utils.TimeRange, candles []models.Candle) []models.Candle {
	kept := candles[:0:0]
	for _, c := range candles {
		if rng.Contains(c.OpenTime) {
			kept = append(kept, c)
		}
	}
	return kept
}

// Trades возвращает последние сделки владельца по паре
func (s *WalletService) Trades(ctx context.Context, ownerID, pair string) ([]models.Trade, error) {
	symbol, err := s.pairArgs(ownerID, pair)
	if err != nil {
		return nil, err
	}

	keys, err := s.keys.Keys(ctx, models.VendorBinance, ownerID)
	if err != nil {
		return nil, err
	}

	trades, err := s.binance.MyTrades(ctx, keys, symbol, s.cfg.TradesLimit)
	if err != nil {
		return nil, err
	}
	if trades == nil {
		trades = []models.Trade{}
	}
	return trades, nil
}

// Stats агрегирует сделки владельца по паре
func (s *WalletService) Stats(ctx context.Context, ownerID, pair string) (*models.TradeStats, error) {
	trades, err := s.Trades(ctx, ownerID, pair)
	if err != nil {
		return nil, err
	}
	stats := portfolio.ComputeTradeStats(utils.NormalizeSymbol(pair), trades)
	return &stats, nil
}

func (s *WalletService) pairArgs(ownerID, pair string) (string, error) {
	if strings.TrimSpace(ownerID) == "" {
		return "", invalid("ownerId is required")
	}
	if strings.TrimSpace(pair) == "" {
		return "", invalid("pair is required")
	}
	if err := utils.ValidateSymbol(strings.TrimSpace(pair)); err != nil {
		return "", invalid(err.Error())
	}
	return utils.NormalizeSymbol(pair), nil
}
