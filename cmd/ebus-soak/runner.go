package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Leegeev/ebus/pkg/config"
	"github.com/Leegeev/ebus/pkg/subpub"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Sample — полезная нагрузка, которую шлёт каждый soak-издатель.
type Sample struct {
	Publisher int
	Seq       uint64
}

// Report — JSON-итог одного прогона.
type Report struct {
	RunID           string    `json:"run_id"`
	Bus             string    `json:"bus"`
	Seed            uint64    `json:"seed"`
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
	DurationSeconds float64   `json:"duration_s"`
	Publishers      int       `json:"publishers"`
	Subscribers     int       `json:"subscribers"`
	Published       uint64    `json:"published"`
	Delivered       uint64    `json:"delivered"`
	Dropped         uint64    `json:"dropped"`
	Received        uint64    `json:"received"`
	OrderViolations uint64    `json:"order_violations"`
	Collected       int       `json:"collected"`
}

type runner struct {
	cfg  *config.Config
	log  zerolog.Logger
	bus  *subpub.Bus[Sample]
	seed uint64

	received   atomic.Uint64
	violations atomic.Uint64

	mu        sync.Mutex
	collected int
}

// Run гоняет cfg.Soak.Publishers издателей и cfg.Soak.Subscribers
// подписчиков на одной шине, пока не истечёт soak.duration или не
// отменится ctx.
func Run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Report, error) {
	seed := cfg.Soak.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	r := &runner{
		cfg:  cfg,
		log:  logger,
		seed: seed,
		bus: subpub.New[Sample](cfg.Bus.Name,
			subpub.WithLogger(logger),
			subpub.WithSkipDeadSubscribers(cfg.Bus.SkipDeadSubscribers)),
	}
	report := &Report{
		RunID:       uuid.NewString(),
		Bus:         cfg.Bus.Name,
		Seed:        seed,
		StartedAt:   time.Now().UTC(),
		Publishers:  cfg.Soak.Publishers,
		Subscribers: cfg.Soak.Subscribers,
	}
	r.log.Info().Str("run_id", report.RunID).
		Int("publishers", cfg.Soak.Publishers).
		Int("subscribers", cfg.Soak.Subscribers).
		Dur("duration", cfg.Soak.Duration).
		Bool("churn", cfg.Soak.Churn).
		Msg("soak started")

	runCtx, cancel := context.WithTimeout(ctx, cfg.Soak.Duration)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	for i := 0; i < cfg.Soak.Subscribers; i++ {
		g.Go(func() error { return r.subscribe(gctx, i) })
	}
	for i := 0; i < cfg.Soak.Publishers; i++ {
		g.Go(func() error { return r.publish(gctx, i) })
	}
	if cfg.Soak.GCInterval > 0 {
		g.Go(func() error { return r.collectLoop(gctx) })
	}
	err := g.Wait()

	r.addCollected(r.bus.GarbageCollect())
	st := r.bus.Stats()
	r.bus.Close()

	report.EndedAt = time.Now().UTC()
	report.DurationSeconds = report.EndedAt.Sub(report.StartedAt).Seconds()
	report.Published = st.Published
	report.Delivered = st.Delivered
	report.Dropped = st.Dropped
	report.Received = r.received.Load()
	report.OrderViolations = r.violations.Load()
	report.Collected = r.collectedTotal()

	r.log.Info().Str("run_id", report.RunID).
		Uint64("published", report.Published).
		Uint64("received", report.Received).
		Uint64("dropped", report.Dropped).
		Uint64("order_violations", report.OrderViolations).
		Msg("soak finished")
	if err != nil {
		return report, fmt.Errorf("soak run: %w", err)
	}
	return report, nil
}

func (r *runner) rng(stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(r.seed, stream))
}

// window возвращает задержку перед присоединением и время жизни воркера.
// Без churn все воркеры входят сразу и живут весь прогон.
func (r *runner) window(rng *rand.Rand) (delay, stay time.Duration) {
	total := r.cfg.Soak.Duration
	if !r.cfg.Soak.Churn || total < 4 {
		return 0, total
	}
	delay = time.Duration(rng.Int64N(int64(total / 4)))
	stay = total/4 + time.Duration(rng.Int64N(int64(total/2)))
	return delay, stay
}

func (r *runner) publish(ctx context.Context, id int) error {
	rng := r.rng(uint64(id) << 1)
	delay, stay := r.window(rng)
	if !sleep(ctx, delay) {
		return nil
	}
	pub := r.bus.JoinAsPublisher(fmt.Sprintf("pub_%d", id))
	until := time.Now().Add(stay)

	var seq uint64
	for time.Now().Before(until) {
		seq++
		pub.Publish(Sample{Publisher: id, Seq: seq})
		if !sleep(ctx, jitter(rng, r.cfg.Soak.PublishInterval)) {
			return nil
		}
	}
	return nil
}

func (r *runner) subscribe(ctx context.Context, id int) error {
	rng := r.rng(uint64(id)<<1 | 1)
	delay, stay := r.window(rng)
	if !sleep(ctx, delay) {
		return nil
	}
	sub := r.bus.JoinAsSubscriber(fmt.Sprintf("sub_%d", id), r.cfg.Bus.SubscriberQueueSize)
	defer sub.Close()

	last := make(map[int]uint64)
	until := time.Now().Add(stay)
	for {
		for _, ev := range sub.Drain() {
			r.observe(last, ev.Value())
		}
		if !time.Now().Before(until) {
			return nil
		}
		if !sleep(ctx, jitter(rng, r.cfg.Soak.DrainInterval)) {
			for _, ev := range sub.Drain() {
				r.observe(last, ev.Value())
			}
			return nil
		}
	}
}

func (r *runner) observe(last map[int]uint64, s Sample) {
	r.received.Add(1)
	if prev, ok := last[s.Publisher]; ok && s.Seq <= prev {
		r.violations.Add(1)
		r.log.Error().Int("publisher", s.Publisher).
			Uint64("seq", s.Seq).Uint64("prev", prev).
			Msg("per-publisher order violated")
	}
	last[s.Publisher] = s.Seq
}

func (r *runner) collectLoop(ctx context.Context) error {
	tick := time.NewTicker(r.cfg.Soak.GCInterval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			r.addCollected(r.bus.GarbageCollect())
		}
	}
}

func (r *runner) addCollected(n int) {
	r.mu.Lock()
	r.collected += n
	r.mu.Unlock()
}

func (r *runner) collectedTotal() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.collected
}

// jitter разбрасывает d в пределах +/-50%.
func jitter(rng *rand.Rand, d time.Duration) time.Duration {
	if d <= 1 {
		return d
	}
	return d/2 + time.Duration(rng.Int64N(int64(d)))
}

// sleep ждёт d и возвращает false, если ctx закончился раньше.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
