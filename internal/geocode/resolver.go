// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

package geocode

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/plotshare/plotshare/internal/cache"
	"github.com/plotshare/plotshare/internal/logging"
	"github.com/plotshare/plotshare/internal/metrics"
)

// shardIndex maps whitespace-stripped postcodes to their records.
type shardIndex map[string]Record

// errShardMissing marks a shard file that does not exist. It is not a read
// failure: plenty of prefixes have no group F postcodes at all.
var errShardMissing = errors.New("postcode shard not found")

// Config holds resolver settings.
type Config struct {
	// DataDir is the directory holding per-prefix CSV shards.
	DataDir string

	// CacheTTL bounds how long a parsed shard index stays in memory.
	CacheTTL time.Duration

	// BreakerThreshold is the consecutive read failures that open the
	// circuit. 0 uses a default of 5.
	BreakerThreshold uint32

	// BreakerCooldown is the open interval before a probe. 0 uses 30s.
	BreakerCooldown time.Duration

	// Persistent is an optional on-disk cache of resolved records.
	Persistent *BadgerCache
}

// Resolver looks up postcodes in CSV shards, memoizing parsed shards in a
// TTL cache and guarding file reads with a circuit breaker so a corrupt
// data directory cannot stall every request.
type Resolver struct {
	dataDir string
	shards  *cache.Cache
	breaker *gobreaker.CircuitBreaker[shardIndex]
	persist *BadgerCache
	logger  zerolog.Logger
}

// NewResolver creates a Resolver for the given configuration.
func NewResolver(cfg Config) *Resolver {
	threshold := cfg.BreakerThreshold
	if threshold == 0 {
		threshold = 5
	}
	cooldown := cfg.BreakerCooldown
	if cooldown == 0 {
		cooldown = 30 * time.Second
	}
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = 15 * time.Minute
	}

	settings := gobreaker.Settings{
		Name: "geocode-shard-reads",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		Timeout: cooldown,
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				metrics.GeocodeBreakerState.Set(1)
			} else {
				metrics.GeocodeBreakerState.Set(0)
			}
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("shard read breaker state change")
		},
	}

	return &Resolver{
		dataDir: cfg.DataDir,
		shards:  cache.New(ttl),
		breaker: gobreaker.NewCircuitBreaker[shardIndex](settings),
		persist: cfg.Persistent,
		logger:  logging.WithComponent("geocode"),
	}
}

// Lookup resolves a postcode. Whitespace is ignored; matching against the
// shard rows is otherwise exact. The result is always usable: a missing
// shard or postcode yields OutcomeNotFound, and read failures yield
// OutcomeReadFailure with Err set.
func (r *Resolver) Lookup(ctx context.Context, postcode string) Result {
	result := r.lookup(ctx, postcode)
	metrics.GeocodeLookups.WithLabelValues(result.Outcome.String()).Inc()
	return result
}

func (r *Resolver) lookup(ctx context.Context, postcode string) Result {
	key := stripSpaces(postcode)
	if key == "" {
		return Result{Outcome: OutcomeNotFound}
	}

	if r.persist != nil {
		if rec, ok := r.persist.Get(key); ok {
			return Result{Outcome: OutcomeFound, Record: rec}
		}
	}

	prefix := Prefix(postcode)
	index, err := r.shardFor(ctx, prefix)
	if err != nil {
		if errors.Is(err, errShardMissing) {
			r.logger.Debug().Str("prefix", prefix).Msg("no postcode shard for prefix")
			return Result{Outcome: OutcomeNotFound}
		}
		logging.Ctx(ctx).Error().Err(err).Str("prefix", prefix).Msg("shard read failed")
		return Result{Outcome: OutcomeReadFailure, Err: err}
	}

	rec, ok := index[key]
	if !ok {
		return Result{Outcome: OutcomeNotFound}
	}

	if r.persist != nil {
		r.persist.Set(key, rec)
	}

	return Result{Outcome: OutcomeFound, Record: rec}
}

// shardFor returns the parsed shard for a prefix, loading and caching it
// on miss.
func (r *Resolver) shardFor(ctx context.Context, prefix string) (shardIndex, error) {
	if prefix == "" {
		return nil, errShardMissing
	}

	cacheKey := "shard:" + prefix
	if cached, ok := r.shards.Get(cacheKey); ok {
		metrics.GeocodeCacheHits.Inc()
		return cached.(shardIndex), nil
	}
	metrics.GeocodeCacheMisses.Inc()

	index, err := r.breaker.Execute(func() (shardIndex, error) {
		return r.loadShard(ctx, prefix)
	})
	if err != nil {
		return nil, err
	}

	r.shards.Set(cacheKey, index)
	return index, nil
}

// loadShard parses one CSV shard into an index. The expected header is
// Postcode,Type,Eastings,Northings; the Eastings and Northings columns are
// assigned crosswise to match the data export.
func (r *Resolver) loadShard(ctx context.Context, prefix string) (shardIndex, error) {
	start := time.Now()

	path := filepath.Join(r.dataDir, prefix+".csv")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errShardMissing
		}
		return nil, fmt.Errorf("open shard %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			r.logger.Warn().Err(cerr).Str("path", path).Msg("shard close failed")
		}
	}()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read shard header %s: %w", path, err)
	}
	cols := columnIndexes(header)

	index := make(shardIndex)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read shard row %s: %w", path, err)
		}

		rec, ok := recordFromRow(row, cols)
		if !ok {
			continue
		}
		index[stripSpaces(rec.Postcode)] = rec
	}

	metrics.GeocodeShardLoadDuration.Observe(time.Since(start).Seconds())
	r.logger.Debug().
		Str("prefix", prefix).
		Int("postcodes", len(index)).
		Dur("elapsed", time.Since(start)).
		Msg("shard loaded")

	return index, nil
}

// columns holds the positions of the shard CSV columns.
type columns struct {
	postcode, typ, eastings, northings int
}

func columnIndexes(header []string) columns {
	c := columns{postcode: -1, typ: -1, eastings: -1, northings: -1}
	for i, name := range header {
		switch name {
		case "Postcode":
			c.postcode = i
		case "Type":
			c.typ = i
		case "Eastings":
			c.eastings = i
		case "Northings":
			c.northings = i
		}
	}
	return c
}

// recordFromRow builds a Record from one CSV row. The export's Eastings
// column feeds Northings and vice versa; this mirrors the upstream data
// pipeline and must not be "corrected" here.
func recordFromRow(row []string, cols columns) (Record, bool) {
	if cols.postcode < 0 || cols.postcode >= len(row) {
		return Record{}, false
	}
	postcode := row[cols.postcode]
	if postcode == "" {
		return Record{}, false
	}

	rec := Record{
		Postcode: postcode,
		Group:    "F",
	}
	if cols.typ >= 0 && cols.typ < len(row) {
		rec.Type = MosaicType(row[cols.typ])
	}
	if cols.eastings >= 0 && cols.eastings < len(row) {
		rec.Northings = row[cols.eastings]
	}
	if cols.northings >= 0 && cols.northings < len(row) {
		rec.Eastings = row[cols.northings]
	}
	return rec, true
}
