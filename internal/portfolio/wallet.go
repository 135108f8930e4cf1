// Package portfolio содержит чистые функции агрегации: оценка кошелька,
// сортировка, дневной тренд стоимости и статистика сделок.
//
// Пакет не ходит в сеть и не знает о вендорах, все данные передаются
// вызывающей стороной (service.WalletService).
package portfolio

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"tradelink/internal/models"
)

var (
	ErrInvalidSort      = errors.New("sort must be 'asset' or 'value'")
	ErrInvalidOrder     = errors.New("order must be 'asc' or 'desc'")
	ErrInvalidTimeframe = errors.New("invalid timeframe")
)

// SortKey - поле сортировки строк кошелька
type SortKey string

const (
	SortByAsset SortKey = "asset"
	SortByValue SortKey = "value"
)

// SortOrder - направление сортировки
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// ParseSort разбирает параметры sort/order запроса.
// Пустые значения дают value/desc.
func ParseSort(key, order string) (SortKey, SortOrder, error) {
	k := SortKey(strings.ToLower(strings.TrimSpace(key)))
	if k == "" {
		k = SortByValue
	}
	if k != SortByAsset && k != SortByValue {
		return "", "", ErrInvalidSort
	}

	o := SortOrder(strings.ToLower(strings.TrimSpace(order)))
	if o == "" {
		o = OrderDesc
	}
	if o != OrderAsc && o != OrderDesc {
		return "", "", ErrInvalidOrder
	}
	return k, o, nil
}

// ParseTimeframe разбирает timeframe вида "Nd" и возвращает число дней.
// Пустая строка дает defaultDays, значения вне 1..maxDays отклоняются.
func ParseTimeframe(s string, defaultDays, maxDays int) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return defaultDays, nil
	}
	if !strings.HasSuffix(s, "d") {
		return 0, fmt.Errorf("%w: %q, expected <days>d", ErrInvalidTimeframe, s)
	}
	n, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
	if err != nil {
		return 0, fmt.Errorf("%w: %q, expected <days>d", ErrInvalidTimeframe, s)
	}
	if n < 1 || n > maxDays {
		return 0, fmt.Errorf("%w: %d days, allowed 1..%d", ErrInvalidTimeframe, n, maxDays)
	}
	return n, nil
}

// PriceSymbol возвращает символ пары актива к котируемой валюте (BTC + USDT = BTCUSDT)
func PriceSymbol(asset, quote string) string {
	return strings.ToUpper(asset) + strings.ToUpper(quote)
}

// BuildWallet оценивает ненулевые остатки в котируемой валюте.
//
// Остатки с free = 0 и locked = 0 отбрасываются. Котируемая валюта
// оценивается по цене 1. Актив без цены в prices получает Priced=false и Value=0.
// Порядок строк совпадает с порядком balances.
func BuildWallet(balances []models.Balance, prices map[string]decimal.Decimal, quote string) []models.BalanceLine {
	quote = strings.ToUpper(quote)
	lines := make([]models.BalanceLine, 0, len(balances))

	for _, b := range balances {
		if !b.Free.IsPositive() && !b.Locked.IsPositive() {
			continue
		}

		line := models.BalanceLine{
			Asset:  b.Asset,
			Free:   b.Free,
			Locked: b.Locked,
			Total:  b.Free.Add(b.Locked),
		}

		if strings.EqualFold(b.Asset, quote) {
			line.Price = decimal.NewFromInt(1)
			line.Priced = true
		} else if p, ok := prices[PriceSymbol(b.Asset, quote)]; ok {
			line.Price = p
			line.Priced = true
		}

		if line.Priced {
			line.Value = line.Price.Mul(line.Total)
		}
		lines = append(lines, line)
	}
	return lines
}

// HeldSymbols возвращает символы пар, цены которых нужны для оценки остатков
func HeldSymbols(balances []models.Balance, quote string) []string {
	seen := make(map[string]struct{})
	var symbols []string
	for _, b := range balances {
		if !b.Free.IsPositive() && !b.Locked.IsPositive() {
			continue
		}
		if strings.EqualFold(b.Asset, quote) {
			continue
		}
		s := PriceSymbol(b.Asset, quote)
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		symbols = append(symbols, s)
	}
	return symbols
}

// SortLines сортирует строки на месте. Равные значения упорядочиваются
// по символу актива по возрастанию, порядок детерминирован.
func SortLines(lines []models.BalanceLine, key SortKey, order SortOrder) {
	sort.SliceStable(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]

		var cmp int
		switch key {
		case SortByAsset:
			cmp = strings.Compare(a.Asset, b.Asset)
		default:
			cmp = a.Value.Cmp(b.Value)
		}

		if cmp == 0 {
			return a.Asset < b.Asset
		}
		if order == OrderAsc {
			return cmp < 0
		}
		return cmp > 0
	})
}

// TotalValue - сумма Value по всем строкам
func TotalValue(lines []models.BalanceLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Value)
	}
	return total
}

// TopByValue возвращает до n оцененных строк с наибольшей стоимостью.
// Исходный срез не меняется.
func TopByValue(lines []models.BalanceLine, n int) []models.BalanceLine {
	if n <= 0 {
		return nil
	}
	priced := make([]models.BalanceLine, 0, len(lines))
	for _, l := range lines {
		if l.Priced && l.Value.IsPositive() {
			priced = append(priced, l)
		}
	}
	SortLines(priced, SortByValue, OrderDesc)
	if len(priced) > n {
		priced = priced[:n]
	}
	return priced
}
