package revalidate

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/medagenda/clinic-api/pkg/messaging"
)

// Channel carries path invalidation events between replicas.
const Channel = "revalidate"

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "revalidate_cache_hits_total",
		Help: "Listing cache hits by path",
	}, []string{"path"})
	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "revalidate_cache_misses_total",
		Help: "Listing cache misses by path",
	}, []string{"path"})
	invalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "revalidate_invalidations_total",
		Help: "Path invalidations by path",
	}, []string{"path"})
)

// Signal is the wire shape of an invalidation event. Scope is the id the
// listing is keyed by: the clinic for tenant listings, the user for the
// caller's clinic listing.
type Signal struct {
	Scope uuid.UUID `json:"scope"`
	Path  string    `json:"path"`
}

// Invalidator caches scope-keyed listings and drops them after mutations,
// locally and (best effort) on other replicas via the broker. It is the
// server-side analogue of the UI's revalidatePath hint.
type Invalidator struct {
	cache  *gocache.Cache
	broker messaging.Broker
	logger *zerolog.Logger
}

type Config struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		TTL:             5 * time.Minute,
		CleanupInterval: 15 * time.Minute,
	}
}

// New creates an Invalidator. broker may be nil, in which case invalidation
// is local-only.
func New(cfg Config, broker messaging.Broker, logger *zerolog.Logger) *Invalidator {
	return &Invalidator{
		cache:  gocache.New(cfg.TTL, cfg.CleanupInterval),
		broker: broker,
		logger: logger,
	}
}

func key(scope uuid.UUID, path string) string {
	return scope.String() + path
}

func (i *Invalidator) Get(scope uuid.UUID, path string) (interface{}, bool) {
	v, ok := i.cache.Get(key(scope, path))
	if ok {
		cacheHits.WithLabelValues(path).Inc()
	} else {
		cacheMisses.WithLabelValues(path).Inc()
	}
	return v, ok
}

func (i *Invalidator) Set(scope uuid.UUID, path string, value interface{}) {
	i.cache.SetDefault(key(scope, path), value)
}

// Invalidate drops the given listing paths for a scope. Publish failures are
// logged and swallowed; the mutation has already committed.
func (i *Invalidator) Invalidate(ctx context.Context, scope uuid.UUID, paths ...string) {
	for _, path := range paths {
		i.cache.Delete(key(scope, path))
		invalidations.WithLabelValues(path).Inc()

		if i.broker == nil {
			continue
		}
		if err := i.broker.Publish(ctx, Channel, Signal{Scope: scope, Path: path}); err != nil {
			i.logger.Warn().Err(err).Str("path", path).Msg("failed to publish invalidation")
		}
	}
}

// Listen drops local cache entries for invalidations published by other
// replicas. Blocks until ctx is cancelled.
func (i *Invalidator) Listen(ctx context.Context) error {
	if i.broker == nil {
		<-ctx.Done()
		return nil
	}

	msgs, err := i.broker.Subscribe(ctx, Channel)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			var sig Signal
			if err := json.Unmarshal(msg, &sig); err != nil {
				i.logger.Warn().Err(err).Msg("bad invalidation payload")
				continue
			}
			i.cache.Delete(key(sig.Scope, sig.Path))
		}
	}
}
