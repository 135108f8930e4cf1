package portfolio

import (
	"time"

	"github.com/shopspring/decimal"

	"tradelink/internal/models"
	"tradelink/pkg/utils"
)

// AssetSeries - дневные закрытия одного актива за окно тренда
//
// Err != nil означает что запрос свечей для актива завершился ошибкой,
// все дни актива тогда считаются пропусками.
type AssetSeries struct {
	Asset   string
	Qty     decimal.Decimal
	Candles []models.Candle
	Err     error
}

// ConstantSeries строит ряд с одинаковой ценой на каждый день,
// используется для котируемой валюты (цена 1).
func ConstantSeries(asset string, qty decimal.Decimal, days []time.Time, price decimal.Decimal) AssetSeries {
	candles := make([]models.Candle, len(days))
	for i, d := range days {
		candles[i] = models.Candle{OpenTime: d, Close: price}
	}
	return AssetSeries{Asset: asset, Qty: qty, Candles: candles}
}

// BuildTrend суммирует qty * close по активам для каждого дня days.
//
// days ожидаются началами UTC-дней от старого к новому (utils.DaysBack),
// результат идет в том же порядке. Отсутствующая свеча или ошибка актива
// дают 0 за актив-день и запись в gaps.
func BuildTrend(days []time.Time, series []AssetSeries) (points []models.TrendPoint, gaps []models.TrendGap) {
	points = make([]models.TrendPoint, len(days))
	for i, d := range days {
		points[i] = models.TrendPoint{Date: utils.FormatDay(d), Value: decimal.Zero}
	}

	for _, s := range series {
		closes := make(map[string]decimal.Decimal, len(s.Candles))
		if s.Err == nil {
			for _, c := range s.Candles {
				closes[utils.FormatDay(c.OpenTime)] = c.Close
			}
		}

		for i := range points {
			c, ok := closes[points[i].Date]
			if !ok {
				gaps = append(gaps, models.TrendGap{Asset: s.Asset, Date: points[i].Date})
				continue
			}
			points[i].Value = points[i].Value.Add(s.Qty.Mul(c))
		}
	}
	return points, gaps
}
