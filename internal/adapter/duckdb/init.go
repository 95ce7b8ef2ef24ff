package duckdb

import (
	"log/slog"

	"github.com/partnerlens/partnerlens/internal/adapter"
)

func init() {
	adapter.Register("duckdb", func(logger *slog.Logger) adapter.Adapter {
		return New(logger)
	})
}
