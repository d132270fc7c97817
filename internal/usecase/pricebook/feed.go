package pricebook

import (
	"context"
	"time"

	pricereaderv1 "github.com/muhammadchandra19/market-simulator/internal/domain/price-reader/v1"
	"github.com/muhammadchandra19/market-simulator/pkg/errors"
	"github.com/muhammadchandra19/market-simulator/pkg/logger"
)

// RetryDelay is how long Follow waits after a transport failure before reading again.
var RetryDelay = 500 * time.Millisecond

// Follow feeds book from reader until ctx is cancelled. It is the book's only writer.
// Malformed ticks are logged and skipped.
func Follow(ctx context.Context, reader pricereaderv1.PriceReader, book *Book, log logger.Interface) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, update, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.HasCode(err, errors.TransportDecodeError) {
				log.Warn("skipping malformed price update", logger.NewField("error", err.Error()))
				continue
			}
			log.Error(err, logger.NewField("operation", "ReadPriceUpdate"))
			select {
			case <-ctx.Done():
				return
			case <-time.After(RetryDelay):
			}
			continue
		}

		if err := book.Update(*update); err != nil {
			log.Warn("skipping invalid price update",
				logger.NewField("symbol", update.Name),
				logger.NewField("price", update.Price),
			)
			continue
		}

		log.Debug("price updated",
			logger.NewField("symbol", update.Name),
			logger.NewField("price", update.Price),
		)
	}
}
