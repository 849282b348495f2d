// Package log хранит общий для процесса zerolog-логгер шины и soak-прогона.
package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config — параметры глобального логгера.
type Config struct {
	Level   string    // "debug", "info", "warn"...; иначе LOG_LEVEL
	Output  io.Writer // по умолчанию os.Stderr
	Service string    // пишется в каждую запись; по умолчанию "ebus"
}

var (
	mu         sync.RWMutex
	configured bool
	base       zerolog.Logger
)

// Configure устанавливает глобальный логгер. Действует только первый вызов.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if configured {
		return
	}
	configured = true

	level := zerolog.InfoLevel
	lvl := cfg.Level
	if lvl == "" {
		lvl = os.Getenv("LOG_LEVEL")
	}
	if lvl != "" {
		if parsed, err := zerolog.ParseLevel(lvl); err == nil {
			level = parsed
		}
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	w := cfg.Output
	if w == nil {
		w = os.Stderr
	}
	service := cfg.Service
	if service == "" {
		service = "ebus"
	}

	base = zerolog.New(w).Level(level).With().
		Timestamp().
		Str("service", service).
		Logger()
}

// Base возвращает базовый логгер, настраивая его при первом обращении.
func Base() zerolog.Logger {
	mu.RLock()
	if configured {
		l := base
		mu.RUnlock()
		return l
	}
	mu.RUnlock()
	Configure(Config{})
	return Base()
}

// WithComponent возвращает дочерний логгер с полем component.
func WithComponent(component string) zerolog.Logger {
	return Base().With().Str("component", component).Logger()
}
