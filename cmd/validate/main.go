// Command validate runs integrity checks over a saved MSG.1 dataset: the
// local store written by the etl command, a remote published copy, or both.
// It verifies collection keys, row schema, value ranges, key consistency,
// and, when both sources are given, that they hold the same rows.
//
// Usage:
//
//	go run ./cmd/validate -store ./msg1-dataset
//	REMOTE_BASE_URL=https://example.org/msg1 go run ./cmd/validate -remote
//	go run ./cmd/validate -store ./msg1-dataset -remote
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"slices"
	"syscall"

	pebblestore "github.com/couchcryptid/icoads-msg1-etl/internal/adapter/pebble"
	"github.com/couchcryptid/icoads-msg1-etl/internal/adapter/remote"
	"github.com/couchcryptid/icoads-msg1-etl/internal/config"
	"github.com/couchcryptid/icoads-msg1-etl/internal/domain"
	"github.com/couchcryptid/icoads-msg1-etl/internal/observability"
)

const (
	minYear = 1800
	maxYear = 2054

	// maxErrorsPerPhase bounds the detail printed for a failing phase.
	maxErrorsPerPhase = 50
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// dataset is one loaded source of collections.
type dataset struct {
	name        string
	collections domain.Collections
}

func main() {
	storePath := flag.String("store", "", "path of a dataset written by the etl command")
	useRemote := flag.Bool("remote", false, "load the published dataset from REMOTE_BASE_URL")
	flag.Parse()

	if *storePath == "" && !*useRemote {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sets []dataset
	if *storePath != "" {
		collections, err := loadStore(ctx, cfg, *storePath, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load store: %v\n", err)
			os.Exit(1)
		}
		sets = append(sets, dataset{name: "store", collections: collections})
	}
	if *useRemote {
		collections, err := loadRemote(ctx, cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load remote: %v\n", err)
			os.Exit(1)
		}
		sets = append(sets, dataset{name: "remote", collections: collections})
	}

	os.Exit(run(sets))
}

func loadStore(ctx context.Context, cfg *config.Config, path string, logger *slog.Logger) (domain.Collections, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	store, err := pebblestore.Open(pebblestore.Options{
		Path:      path,
		ChunkRows: cfg.StoreChunkRows,
		CacheSize: cfg.StoreCacheSize,
	}, logger)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.LoadAll(ctx)
}

func loadRemote(ctx context.Context, cfg *config.Config, logger *slog.Logger) (domain.Collections, error) {
	if cfg.RemoteBaseURL == "" {
		return nil, errors.New("REMOTE_BASE_URL is not set")
	}
	metrics := observability.NewMetrics()
	client := remote.NewClient(cfg.RemoteBaseURL, cfg.RemoteToken, cfg.RemoteTimeout, metrics, logger)
	loader := remote.NewCachedLoader(client, cfg.RemoteCacheSize, metrics)
	if err := loader.Warm(ctx); err != nil {
		return nil, err
	}

	collections := make(domain.Collections)
	for _, c := range domain.Categories() {
		key := domain.GroupKey(c)
		rows, err := loader.Load(ctx, key)
		if err != nil {
			return nil, err
		}
		collections[key] = rows
	}
	return collections, nil
}

func run(sets []dataset) int {
	fmt.Println("=== MSG.1 Dataset Integrity Validation ===")
	fmt.Println()

	var phases []*phase
	for _, ds := range sets {
		phases = append(phases,
			validateKeys(ds),
			validateSchema(ds),
			validateRanges(ds),
			validateKeyConsistency(ds),
		)
	}
	if len(sets) == 2 {
		phases = append(phases, validateParity(sets[0], sets[1]))
	}

	// ── Report results ──
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-48s %s\n", p.name, status)
	}

	fmt.Println()
	for _, ds := range sets {
		fmt.Printf("Rows (%s):", ds.name)
		for _, key := range ds.collections.Keys() {
			fmt.Printf(" %s=%d", key, len(ds.collections[key]))
		}
		fmt.Printf(" total=%d\n", ds.collections.Len())
	}

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == maxErrorsPerPhase {
				fmt.Printf("  ... %d more\n", len(p.errors)-maxErrorsPerPhase)
				break
			}
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Collection Keys ──
// A dataset holds either group collections or a single merged one.

func validateKeys(ds dataset) *phase {
	p := &phase{name: fmt.Sprintf("Collection Keys (%s)", ds.name)}

	keys := ds.collections.Keys()
	if len(keys) == 0 {
		p.errorf("no collections")
		return p
	}
	merged := slices.Contains(keys, domain.MergedKey)
	for _, key := range keys {
		if key == domain.MergedKey {
			continue
		}
		if _, err := domain.ParseGroupKey(key); err != nil {
			p.errorf("unexpected collection key %q", key)
			continue
		}
		if merged {
			p.errorf("group collection %q stored next to merged collection", key)
		}
	}
	return p
}

// ── Phase 2: Schema ──
// Every row carries the essential header fields and the variable set of
// its own group.

func validateSchema(ds dataset) *phase {
	p := &phase{name: fmt.Sprintf("Row Schema (%s)", ds.name)}

	for _, key := range ds.collections.Keys() {
		rows := ds.collections[key]
		withAux := 0
		for i, row := range rows {
			if err := row.Validate(); err != nil {
				p.errorf("%s row %d: %v", key, i, err)
				continue
			}
			if row.Variables == nil {
				p.errorf("%s row %d: no variables", key, i)
			} else if row.Variables.Category() != row.DataGroup {
				p.errorf("%s row %d: %s variables on a %s row", key, i, row.Variables.Category(), row.DataGroup)
			}
			if row.SourceFile == "" {
				p.errorf("%s row %d: empty source_file", key, i)
			}
			if row.Auxiliary != nil {
				withAux++
			}
		}
		if withAux != 0 && withAux != len(rows) {
			p.errorf("%s: %d of %d rows carry auxiliary columns", key, withAux, len(rows))
		}
	}
	return p
}

// ── Phase 3: Value Ranges ──

func validateRanges(ds dataset) *phase {
	p := &phase{name: fmt.Sprintf("Value Ranges (%s)", ds.name)}

	for _, key := range ds.collections.Keys() {
		for i, row := range ds.collections[key] {
			checkRowRanges(p, fmt.Sprintf("%s row %d", key, i), row)
		}
	}
	return p
}

func checkRowRanges(p *phase, at string, row domain.Row) {
	if row.Year != nil && (*row.Year < minYear || *row.Year > maxYear) {
		p.errorf("%s: year %d outside %d-%d", at, *row.Year, minYear, maxYear)
	}
	if row.Month != nil && (*row.Month < 1 || *row.Month > 12) {
		p.errorf("%s: month %d outside 1-12", at, *row.Month)
	}
	if row.Latitude < -90 || row.Latitude > 90 {
		p.errorf("%s: latitude %g outside [-90, 90]", at, row.Latitude)
	}
	if row.Longitude < 0 || row.Longitude >= 360 {
		p.errorf("%s: longitude %g outside [0, 360)", at, row.Longitude)
	}
	if row.BoxSizeDegrees < 0 {
		p.errorf("%s: negative box size %g", at, row.BoxSizeDegrees)
	}
	if row.Checksum < 0 || row.Checksum > 15 {
		p.errorf("%s: checksum %d outside 0-15", at, row.Checksum)
	}
	for _, f := range row.Fields() {
		v, ok := f.Value.(*float64)
		if !ok || v == nil {
			continue
		}
		if math.IsNaN(*v) || math.IsInf(*v, 0) || *v == domain.Missing {
			p.errorf("%s: column %s holds %g", at, f.Name, *v)
		}
	}
}

// ── Phase 4: Key Consistency ──
// Rows sit in the collection of their own group.

func validateKeyConsistency(ds dataset) *phase {
	p := &phase{name: fmt.Sprintf("Key Consistency (%s)", ds.name)}

	for _, key := range ds.collections.Keys() {
		if key == domain.MergedKey {
			continue
		}
		want, err := domain.ParseGroupKey(key)
		if err != nil {
			continue
		}
		for i, row := range ds.collections[key] {
			if row.DataGroup != want {
				p.errorf("%s row %d: data_group %d", key, i, int(row.DataGroup))
			}
		}
	}
	return p
}

// ── Phase 5: Cross-Source Parity ──
// Both sources hold the same rows per group, compared by row ID.

func validateParity(a, b dataset) *phase {
	p := &phase{name: fmt.Sprintf("Cross-Source Parity (%s vs %s)", a.name, b.name)}

	ga, gb := byGroup(a.collections), byGroup(b.collections)
	for _, c := range domain.Categories() {
		key := domain.GroupKey(c)
		ia, ib := idCounts(ga[key]), idCounts(gb[key])
		if len(ga[key]) != len(gb[key]) {
			p.errorf("group %s: %s has %d rows, %s has %d", key, a.name, len(ga[key]), b.name, len(gb[key]))
		}
		for id, n := range ia {
			if ib[id] != n {
				p.errorf("group %s: row %s appears %d times in %s, %d in %s", key, id, n, a.name, ib[id], b.name)
			}
		}
		for id, n := range ib {
			if _, ok := ia[id]; !ok {
				p.errorf("group %s: row %s appears %d times in %s only", key, id, n, b.name)
			}
		}
	}
	return p
}

// byGroup repartitions collections by each row's own group, so merged and
// separated datasets compare alike.
func byGroup(collections domain.Collections) domain.Collections {
	out := make(domain.Collections)
	for _, key := range collections.Keys() {
		for _, row := range collections[key] {
			gk := domain.GroupKey(row.DataGroup)
			out[gk] = append(out[gk], row)
		}
	}
	return out
}

func idCounts(rows []domain.Row) map[string]int {
	m := make(map[string]int, len(rows))
	for _, row := range rows {
		m[row.ID()]++
	}
	return m
}
