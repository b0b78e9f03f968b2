package frame

import (
	"sort"
	"strings"
	"time"

	"github.com/newthinker/macrolens/internal/core"
	"github.com/newthinker/macrolens/internal/indicator"
)

// Market column fields. A market column is named <symbol>_<field>.
const (
	FieldClose            = "close"
	FieldDailyReturn      = "daily_return"
	FieldCumulativeReturn = "cumulative_return"
	FieldMA5              = "ma5"
	FieldMA20             = "ma20"
	FieldMA60             = "ma60"
	FieldVolatility       = "volatility"
	FieldMomentum20       = "momentum_20"
	FieldMomentum60       = "momentum_60"
	FieldRSI              = "rsi"
	FieldUpDaysRatio      = "up_days_ratio"
)

const (
	volatilityWindow  = 20
	upDaysWindow      = 20
	rsiPeriod         = 14
	correlationWindow = 60
)

// MarketOptions selects the symbols joined into a market frame and the
// index pair whose daily returns are correlated. An empty Symbols keeps
// every symbol.
type MarketOptions struct {
	Symbols     []string `mapstructure:"symbols" json:"symbols,omitempty"`
	IndexSymbol string   `mapstructure:"index_symbol" json:"index_symbol"`
	TechSymbol  string   `mapstructure:"tech_symbol" json:"tech_symbol"`
}

// DefaultMarketOptions joins the S&P 500, the NASDAQ composite and the VIX,
// correlating the first two.
func DefaultMarketOptions() MarketOptions {
	return MarketOptions{
		Symbols:     []string{"sp500", "nasdaq", "vix"},
		IndexSymbol: "sp500",
		TechSymbol:  "nasdaq",
	}
}

func (o MarketOptions) keep(closes map[string]Series) map[string]Series {
	if len(o.Symbols) == 0 {
		return closes
	}
	kept := make(map[string]Series, len(o.Symbols))
	for _, sym := range o.Symbols {
		sym = strings.ToLower(sym)
		if s, ok := closes[sym]; ok {
			kept[sym] = s
		}
	}
	return kept
}

// Col names a market column.
func Col(symbol, field string) string {
	return strings.ToLower(symbol) + "_" + field
}

// CorrCol names the rolling correlation column of two symbols.
func CorrCol(index, tech string) string {
	return strings.ToLower(index) + "_" + strings.ToLower(tech) + "_corr"
}

// Closes groups valid bars by lower-cased symbol, one close per UTC day
// (first bar wins), sorted by day.
func Closes(bars []core.OHLCV) map[string]Series {
	type point struct {
		day   time.Time
		close float64
	}
	grouped := make(map[string][]point)
	seen := make(map[string]map[time.Time]struct{})

	for _, b := range bars {
		if !b.IsValid() {
			continue
		}
		sym := strings.ToLower(b.Symbol)
		day := Day(b.Time)
		if seen[sym] == nil {
			seen[sym] = make(map[time.Time]struct{})
		}
		if _, dup := seen[sym][day]; dup {
			continue
		}
		seen[sym][day] = struct{}{}
		grouped[sym] = append(grouped[sym], point{day: day, close: b.Close})
	}

	out := make(map[string]Series, len(grouped))
	for sym, points := range grouped {
		sort.SliceStable(points, func(i, j int) bool { return points[i].day.Before(points[j].day) })
		s := Series{
			Dates:  make([]time.Time, len(points)),
			Values: make([]float64, len(points)),
		}
		for i, p := range points {
			s.Dates[i] = p.day
			s.Values[i] = p.close
		}
		out[sym] = s
	}
	return out
}

// Series is a single dated value series.
type Series struct {
	Dates  []time.Time
	Values []float64
}

// Len returns the number of points.
func (s Series) Len() int { return len(s.Values) }

// BuildMarket derives the per-symbol market columns from price bars of the
// selected symbols and joins them by date. Bars of other symbols add neither
// rows nor columns. Derivations run on each symbol's own history, so a
// symbol that trades on fewer days is not penalized by gaps in another.
func BuildMarket(bars []core.OHLCV, opts MarketOptions) *Frame {
	closes := opts.keep(Closes(bars))

	symbols := make([]string, 0, len(closes))
	for sym := range closes {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	days := make(map[time.Time]struct{})
	for _, s := range closes {
		for _, d := range s.Dates {
			days[d] = struct{}{}
		}
	}
	dates := make([]time.Time, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	index := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		index[d] = i
	}

	f := &Frame{
		dates:   dates,
		columns: make(map[string][]float64),
	}
	for _, sym := range symbols {
		s := closes[sym]
		for field, values := range deriveSymbol(s.Values) {
			col := nanColumn(len(dates))
			for i, d := range s.Dates {
				col[index[d]] = values[i]
			}
			f.columns[Col(sym, field)] = col
		}
	}

	idx := strings.ToLower(opts.IndexSymbol)
	tech := strings.ToLower(opts.TechSymbol)
	if idx != "" && tech != "" && idx != tech {
		a, okA := f.columns[Col(idx, FieldDailyReturn)]
		b, okB := f.columns[Col(tech, FieldDailyReturn)]
		if okA && okB {
			f.columns[CorrCol(idx, tech)] = indicator.RollingCorr(a, b, correlationWindow)
		}
	}

	return f
}

func deriveSymbol(closes []float64) map[string][]float64 {
	returns := indicator.PctChange(closes, 1)

	cumulative := nanColumn(len(closes))
	if len(closes) > 0 && closes[0] != 0 {
		for i, c := range closes {
			cumulative[i] = (c/closes[0] - 1) * 100
		}
	}

	ups := make([]float64, len(returns))
	for i, r := range returns {
		if r > 0 {
			ups[i] = 1
		}
	}
	upRatio := indicator.RollingMean(ups, upDaysWindow)
	for i := range upRatio {
		upRatio[i] *= 100
	}

	return map[string][]float64{
		FieldClose:            append([]float64(nil), closes...),
		FieldDailyReturn:      returns,
		FieldCumulativeReturn: cumulative,
		FieldMA5:              indicator.SMA(closes, 5),
		FieldMA20:             indicator.SMA(closes, 20),
		FieldMA60:             indicator.SMA(closes, 60),
		FieldVolatility:       indicator.RollingStd(returns, volatilityWindow),
		FieldMomentum20:       indicator.PctChange(closes, 20),
		FieldMomentum60:       indicator.PctChange(closes, 60),
		FieldRSI:              indicator.RSI(closes, rsiPeriod),
		FieldUpDaysRatio:      upRatio,
	}
}
