package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"crypto-lens/internal/domain"
	"crypto-lens/internal/series"
	"crypto-lens/internal/service"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"
)

const (
	replyTimeout  = 30 * time.Second
	maxHeadlines  = 5
	usageSymbols  = "Usage: /price BTC\nSupported: %s"
	usageClassify = "Usage: /sentiment <text to classify>"
)

type PriceReader interface {
	Series(ctx context.Context, symbol string, q domain.PriceQuery) (service.PriceResult, error)
}

type NewsReader interface {
	Headlines(ctx context.Context, query, category string) (service.NewsResult, error)
}

type Classifier interface {
	Classify(ctx context.Context, text string) (domain.Label, error)
}

var newBot = tele.NewBot

// StartTelegramBot serves /price, /sentiment and /news until ctx is
// cancelled. An empty token disables the bot.
func StartTelegramBot(ctx context.Context, token string, prices PriceReader, news NewsReader, classifier Classifier) error {
	if strings.TrimSpace(token) == "" {
		log.Info().Msg("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	b, err := newBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return fmt.Errorf("create telegram bot: %w", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})
	b.Handle("/price", func(c tele.Context) error {
		rctx, cancel := context.WithTimeout(ctx, replyTimeout)
		defer cancel()
		return c.Send(priceReply(rctx, prices, c.Args()))
	})
	b.Handle("/sentiment", func(c tele.Context) error {
		rctx, cancel := context.WithTimeout(ctx, replyTimeout)
		defer cancel()
		return c.Send(sentimentReply(rctx, classifier, c.Message().Payload))
	})
	b.Handle("/news", func(c tele.Context) error {
		rctx, cancel := context.WithTimeout(ctx, replyTimeout)
		defer cancel()
		return c.Send(newsReply(rctx, news, c.Message().Payload))
	})

	go func() {
		<-ctx.Done()
		b.Stop()
	}()
	log.Info().Msg("telegram bot started")
	go b.Start()
	return nil
}

func priceReply(ctx context.Context, prices PriceReader, args []string) string {
	supported := strings.Join(domain.SupportedSymbols(), ", ")
	if len(args) == 0 {
		return fmt.Sprintf(usageSymbols, supported)
	}
	asset, ok := domain.LookupAsset(args[0])
	if !ok {
		return fmt.Sprintf("Unknown symbol: %s\nSupported: %s", strings.ToUpper(args[0]), supported)
	}

	result, err := prices.Series(ctx, asset.Symbol, domain.PriceQuery{})
	if err != nil {
		return fmt.Sprintf("Prices for %s unavailable: %v", asset.Symbol, err)
	}
	latest, ok := series.Latest(result.Points)
	if !ok {
		return fmt.Sprintf("No prices recorded for %s", asset.Symbol)
	}
	msg := fmt.Sprintf("%s (%s)\nPrice: $%s\nAs of: %s",
		asset.Symbol, asset.Name, latest.Price.StringFixed(2), latest.Timestamp.Format("2006-01-02 15:04 MST"))
	for _, w := range result.Warnings {
		msg += "\nNote: " + w
	}
	return msg
}

func sentimentReply(ctx context.Context, classifier Classifier, text string) string {
	if strings.TrimSpace(text) == "" {
		return usageClassify
	}
	label, err := classifier.Classify(ctx, text)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "Sentiment model timed out, try again later"
	case err != nil:
		return "Sentiment model unavailable, try again later"
	}
	return fmt.Sprintf("Sentiment: %s", label)
}

func newsReply(ctx context.Context, news NewsReader, query string) string {
	result, err := news.Headlines(ctx, query, "")
	if err != nil {
		return fmt.Sprintf("News unavailable: %v", err)
	}
	if len(result.Articles) == 0 {
		return "No headlines found"
	}
	var b strings.Builder
	for i, a := range result.Articles {
		if i == maxHeadlines {
			break
		}
		fmt.Fprintf(&b, "• %s", a.Title)
		if a.URL != "" {
			fmt.Fprintf(&b, "\n  %s", a.URL)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
