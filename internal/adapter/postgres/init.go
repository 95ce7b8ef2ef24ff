package postgres

import (
	"log/slog"

	"github.com/partnerlens/partnerlens/internal/adapter"
)

func init() {
	adapter.Register("postgres", func(logger *slog.Logger) adapter.Adapter {
		return New(logger)
	})
}
