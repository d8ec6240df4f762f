package domain

import (
	"fmt"
	"strings"
)

// Asset is one supported crypto asset together with the identifiers each
// price source knows it by.
type Asset struct {
	Symbol         string `json:"symbol"`
	Name           string `json:"name"`
	CoinGeckoID    string `json:"-"`
	YahooTicker    string `json:"-"`
	HistoricalFile string `json:"-"`
}

// SupportedAssets is the closed set of assets the dashboard serves.
var SupportedAssets = []Asset{
	{Symbol: "BTC", Name: "Bitcoin", CoinGeckoID: "bitcoin", YahooTicker: "BTC-USD", HistoricalFile: "btc_history.csv"},
	{Symbol: "ETH", Name: "Ethereum", CoinGeckoID: "ethereum", YahooTicker: "ETH-USD", HistoricalFile: "eth_history.csv"},
	{Symbol: "SOL", Name: "Solana", CoinGeckoID: "solana", YahooTicker: "SOL-USD", HistoricalFile: "sol_history.csv"},
	{Symbol: "XRP", Name: "XRP", CoinGeckoID: "ripple", YahooTicker: "XRP-USD", HistoricalFile: "xrp_history.csv"},
	{Symbol: "ADA", Name: "Cardano", CoinGeckoID: "cardano", YahooTicker: "ADA-USD", HistoricalFile: "ada_history.csv"},
	{Symbol: "DOGE", Name: "Dogecoin", CoinGeckoID: "dogecoin", YahooTicker: "DOGE-USD", HistoricalFile: "doge_history.csv"},
}

// SupportedSymbols lists the symbols of SupportedAssets in order.
func SupportedSymbols() []string {
	out := make([]string, 0, len(SupportedAssets))
	for _, a := range SupportedAssets {
		out = append(out, a.Symbol)
	}
	return out
}

// LookupAsset resolves a symbol case-insensitively.
func LookupAsset(symbol string) (Asset, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	for _, a := range SupportedAssets {
		if a.Symbol == symbol {
			return a, true
		}
	}
	return Asset{}, false
}

// ValidateAssets checks that every asset carries all source identifiers and
// that symbols are unique. It runs once at startup.
func ValidateAssets(assets []Asset) error {
	if len(assets) == 0 {
		return fmt.Errorf("no assets configured")
	}
	seen := make(map[string]struct{}, len(assets))
	for i, a := range assets {
		if a.Symbol == "" || a.Symbol != strings.ToUpper(a.Symbol) {
			return fmt.Errorf("asset %d: symbol %q must be non-empty upper case", i, a.Symbol)
		}
		if _, dup := seen[a.Symbol]; dup {
			return fmt.Errorf("asset %s: duplicate symbol", a.Symbol)
		}
		seen[a.Symbol] = struct{}{}
		if a.CoinGeckoID == "" || a.YahooTicker == "" || a.HistoricalFile == "" {
			return fmt.Errorf("asset %s: missing source identifier", a.Symbol)
		}
	}
	return nil
}
