package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

type Config struct {
	HTTPAddr  string
	APIKey    string
	LogLevel  string
	LogFormat string

	RedisURL      string
	CacheTTLSecs  int
	CacheWarmSecs int

	HistoricalDataBase string
	MarketFeed         string
	RecentDays         int
	SourceTimeoutSecs  int

	NewsAPIKey        string
	NewsAPIBaseURL    string
	NewsFallbackFeeds []string
	NewsLimit         int

	CorpusFiles []string

	ClassifierBackend     string
	HFAPIToken            string
	HFModel               string
	OpenAIAPIKey          string
	OpenAIModel           string
	ClassifierMaxTokens   int
	ClassifierTimeoutSecs int

	TelegramBotToken string

	TracingEnabled bool
	OTLPEndpoint   string
}

var defaultFallbackFeeds = []string{
	"https://www.coindesk.com/arc/outboundfeeds/rss/",
	"https://cointelegraph.com/rss",
}

func Load() *Config {
	cfg := &Config{
		NewsAPIKey:       strings.TrimSpace(os.Getenv("NEWS_API_KEY")),
		NewsAPIBaseURL:   strings.TrimSpace(os.Getenv("NEWS_API_BASE_URL")),
		HFAPIToken:       strings.TrimSpace(os.Getenv("HF_API_TOKEN")),
		OpenAIAPIKey:     strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		TelegramBotToken: strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		RedisURL:         strings.TrimSpace(os.Getenv("REDIS_URL")),
		APIKey:           strings.TrimSpace(os.Getenv("API_KEY")),
	}

	cfg.HTTPAddr = stringOr("HTTP_ADDR", ":8080")
	cfg.LogLevel = strings.ToLower(stringOr("LOG_LEVEL", "info"))
	cfg.LogFormat = strings.ToLower(stringOr("LOG_FORMAT", "json"))

	if cfg.RedisURL == "" {
		log.Info().Msg("REDIS_URL not set, shared cache tier disabled")
	}
	cfg.CacheTTLSecs = intOr("CACHE_TTL_SECS", 0, 0)
	cfg.CacheWarmSecs = intOr("CACHE_WARM_SECS", 300, 0)

	cfg.HistoricalDataBase = stringOr("HISTORICAL_DATA_BASE", "data")

	cfg.MarketFeed = strings.ToLower(stringOr("MARKET_FEED", "coingecko"))
	if cfg.MarketFeed != "coingecko" && cfg.MarketFeed != "yahoo" {
		log.Warn().Str("value", cfg.MarketFeed).Msg("unsupported MARKET_FEED, defaulting to coingecko")
		cfg.MarketFeed = "coingecko"
	}

	cfg.RecentDays = intOr("RECENT_DAYS", 30, 1)
	cfg.SourceTimeoutSecs = intOr("SOURCE_TIMEOUT_SECS", 15, 1)

	if cfg.NewsAPIKey == "" {
		log.Warn().Msg("NEWS_API_KEY not set, news will use the RSS fallback only")
	}
	cfg.NewsFallbackFeeds = listOr("NEWS_FALLBACK_FEEDS", defaultFallbackFeeds)
	cfg.NewsLimit = intOr("NEWS_LIMIT", 20, 1)

	cfg.CorpusFiles = listOr("CORPUS_FILES", []string{"data/telegram_messages.csv"})

	cfg.ClassifierBackend = strings.ToLower(stringOr("CLASSIFIER_BACKEND", "huggingface"))
	if cfg.ClassifierBackend != "huggingface" && cfg.ClassifierBackend != "openai" {
		log.Warn().Str("value", cfg.ClassifierBackend).Msg("unsupported CLASSIFIER_BACKEND, defaulting to huggingface")
		cfg.ClassifierBackend = "huggingface"
	}
	cfg.HFModel = stringOr("HF_MODEL", "cardiffnlp/twitter-roberta-base-sentiment")
	cfg.OpenAIModel = stringOr("OPENAI_MODEL", "gpt-4o-mini")
	if cfg.ClassifierBackend == "openai" && cfg.OpenAIAPIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY not set, classification will be unavailable")
	}
	cfg.ClassifierMaxTokens = intOr("CLASSIFIER_MAX_TOKENS", 512, 1)
	cfg.ClassifierTimeoutSecs = intOr("CLASSIFIER_TIMEOUT_SECS", 10, 1)

	if cfg.TelegramBotToken == "" {
		log.Info().Msg("TELEGRAM_BOT_TOKEN not set, bot disabled")
	}

	cfg.TracingEnabled = !strings.EqualFold(strings.TrimSpace(os.Getenv("TRACING_ENABLED")), "false")
	cfg.OTLPEndpoint = stringOr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")

	return cfg
}

func stringOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// intOr returns the integer value of key when it parses and is at least
// minValue, def otherwise.
func intOr(key string, def, minValue int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < minValue {
		log.Warn().Str("key", key).Str("value", v).Int("default", def).Msg("invalid integer setting, using default")
		return def
	}
	return n
}

func listOr(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return append([]string(nil), def...)
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), def...)
	}
	return out
}
