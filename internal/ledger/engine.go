package ledger

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"

	"kanakku/internal/cache"
	"kanakku/internal/core"
	"kanakku/internal/locale"
	"kanakku/internal/log"
)

// EngineConfig configures an Engine.
type EngineConfig struct {
	CacheSize int
	CacheTTL  time.Duration
	// Strict rejects malformed transaction sets with a *core.ValidationError.
	Strict bool
	// Registerer receives the engine metrics. Nil skips registration.
	Registerer prometheus.Registerer
	Logger     *log.Logger
}

// Engine memoizes derived ledgers by labeler and content fingerprint. The
// cache is an optimization only: a purged or cold engine returns the same
// ledgers as Derive.
type Engine struct {
	cache   *cache.LRUCache[Ledger]
	group   singleflight.Group
	strict  bool
	gen     atomic.Uint64
	logger  *log.Logger
	metrics engineMetrics
}

type engineMetrics struct {
	requests *prometheus.CounterVec
	duration prometheus.Histogram
	purges   prometheus.Counter
}

// NewEngine builds an Engine. Registering metrics twice on the same
// registerer panics.
func NewEngine(cfg EngineConfig) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}
	e := &Engine{
		cache:  cache.NewLRUCache[Ledger](cfg.CacheSize, cfg.CacheTTL),
		strict: cfg.Strict,
		logger: logger.WithComponent(log.ComponentLedger),
	}

	factory := promauto.With(cfg.Registerer)
	e.metrics = engineMetrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kanakku",
			Subsystem: "ledger",
			Name:      "cache_requests_total",
			Help:      "Derived ledger lookups by cache result",
		}, []string{"result"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kanakku",
			Subsystem: "ledger",
			Name:      "derive_duration_seconds",
			Help:      "Time spent deriving a ledger on a cache miss",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		purges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "kanakku",
			Subsystem: "ledger",
			Name:      "cache_purges_total",
			Help:      "Number of times the derived ledger cache was dropped",
		}),
	}
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "kanakku",
		Subsystem: "ledger",
		Name:      "cache_entries",
		Help:      "Derived ledgers currently cached",
	}, func() float64 { return float64(e.cache.Size()) })

	return e
}

// Ledger returns the derived ledger for txns labeled by labeler. In strict
// mode a malformed set yields a *core.ValidationError and nothing is cached.
// The returned ledger is a private copy.
func (e *Engine) Ledger(txns []core.Transaction, labeler locale.MonthLabeler) (Ledger, error) {
	fp := Fingerprint(txns)
	key := labeler.CacheKey() + "|" + fp

	if l, ok := e.cache.Get(key); ok {
		e.metrics.requests.WithLabelValues("hit").Inc()
		e.logger.Debug("Ledger cache hit",
			log.FieldCacheHit, true,
			log.FieldFingerprint, fp,
			log.FieldLabeler, labeler.CacheKey())
		return l.Clone(), nil
	}
	e.metrics.requests.WithLabelValues("miss").Inc()

	gen := e.gen.Load()
	v, err, shared := e.group.Do(key, func() (any, error) {
		start := time.Now()
		var (
			l   Ledger
			err error
		)
		if e.strict {
			l, err = DeriveStrict(txns, labeler.MonthLabel)
		} else {
			l = Derive(txns, labeler.MonthLabel)
		}
		if err != nil {
			return nil, err
		}
		e.metrics.duration.Observe(time.Since(start).Seconds())

		// A purge during derivation means txns may already be stale.
		if e.gen.Load() == gen {
			e.cache.Set(key, l)
		}
		return l, nil
	})
	if err != nil {
		e.logger.Debug("Ledger derivation rejected",
			log.FieldOperation, log.OpValidate,
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeValidation)
		return Ledger{}, err
	}

	l := v.(Ledger)
	e.logger.Debug("Ledger derived",
		log.FieldOperation, log.OpDerive,
		log.FieldCount, len(l.Entries),
		log.FieldMonthCount, l.Months.Len(),
		log.FieldLabeler, labeler.CacheKey(),
		log.FieldCacheHit, false,
		log.FieldFingerprint, fp,
		"shared", shared)
	return l.Clone(), nil
}

// Purge drops every cached ledger.
func (e *Engine) Purge() {
	e.gen.Add(1)
	e.cache.Purge()
	e.metrics.purges.Inc()
	e.logger.Debug("Ledger cache purged", log.FieldOperation, log.OpPurge)
}

// CleanExpired drops cached ledgers past their TTL.
func (e *Engine) CleanExpired() int {
	return e.cache.CleanExpired()
}

// Size returns the number of cached ledgers.
func (e *Engine) Size() int {
	return e.cache.Size()
}
