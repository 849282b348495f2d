package subpub

import (
	"github.com/Leegeev/ebus/internal/log"
	"github.com/rs/zerolog"
)

type options struct {
	logger   zerolog.Logger
	skipDead bool
}

func defaultOptions() options {
	return options{logger: log.WithComponent("subpub")}
}

// Option настраивает Bus.
type Option func(*options)

// WithLogger задаёт приёмник диагностики. Записи помечаются именем шины.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSkipDeadSubscribers включает пропуск закрытых, но ещё не собранных
// подписчиков при рассылке. По умолчанию они продолжают получать события,
// которые выбрасываются при сборке.
func WithSkipDeadSubscribers(skip bool) Option {
	return func(o *options) { o.skipDead = skip }
}
