package session

import (
	"log/slog"

	"github.com/robert-malhotra/ncattr/internal/logging"
)

var logger = logging.Discard()

func init() {
	logging.Register(func(l *slog.Logger) {
		logger = l
	})
}
