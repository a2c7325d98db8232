// Command genmock writes synthetic MSG.1 group archives for local runs and
// integration tests. Each archive holds one compressed payload per month,
// built with the domain encoder, with sync-invalid windows mixed in between
// the records the way real archive padding appears.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock \
//	  -start-year 1960 -years 2 -records 200 \
//	  -groups 3,4,9 -ext .gz
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/icoads-msg1-etl/internal/adapter/archive"
	"github.com/couchcryptid/icoads-msg1-etl/internal/domain"
)

// Archives are stamped with a fixed time so repeated runs are byte-identical.
var modTime = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

const (
	minYear = 1800
	maxYear = 2054

	// missingRate is the share of data slots left unreported.
	missingRate = 0.15
)

type options struct {
	outDir    string
	startYear int
	years     int
	records   int
	groups    []domain.Category
	padding   float64
	ext       string
	seed      uint64
}

type archiveStats struct {
	name     string
	group    domain.Category
	payloads int
	records  int
	padding  int
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "", "output directory for generated archives")
	startYear := flag.Int("start-year", 1960, "first year to generate")
	years := flag.Int("years", 1, "number of years per archive")
	records := flag.Int("records", 100, "records per monthly payload")
	groups := flag.String("groups", "3,4,5,6,7,9", "comma-separated data groups")
	padding := flag.Float64("padding", 0.1, "probability of a sync-invalid window before each record")
	ext := flag.String("ext", archive.ExtGzip, "payload compression extension (.gz, .zst, .lz4, .s2)")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	cats, err := parseGroups(*groups)
	if err != nil {
		return err
	}

	opts := options{
		outDir:    *outDir,
		startYear: *startYear,
		years:     *years,
		records:   *records,
		groups:    cats,
		padding:   *padding,
		ext:       *ext,
		seed:      *seed,
	}
	if err := opts.validate(); err != nil {
		return err
	}

	stats, err := generate(opts)
	if err != nil {
		return err
	}
	printStats(stats)
	return nil
}

func parseGroups(list string) ([]domain.Category, error) {
	var cats []domain.Category
	for _, key := range strings.Split(list, ",") {
		c, err := domain.ParseGroupKey(strings.TrimSpace(key))
		if err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, nil
}

func (o options) validate() error {
	switch {
	case o.years < 1:
		return fmt.Errorf("-years must be at least 1, got %d", o.years)
	case o.startYear < minYear || o.startYear+o.years-1 > maxYear:
		return fmt.Errorf("years %d-%d outside %d-%d", o.startYear, o.startYear+o.years-1, minYear, maxYear)
	case o.records < 0:
		return fmt.Errorf("-records must not be negative, got %d", o.records)
	case o.padding < 0 || o.padding > 1:
		return fmt.Errorf("-padding must be within [0, 1], got %g", o.padding)
	case !archive.IsPayload("payload" + o.ext):
		return fmt.Errorf("unsupported payload extension %q", o.ext)
	case len(o.groups) == 0:
		return fmt.Errorf("no groups selected")
	}
	return nil
}

// generate writes one archive per group into opts.outDir.
func generate(opts options) ([]archiveStats, error) {
	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15)) //nolint:gosec // synthetic fixtures

	stats := make([]archiveStats, 0, len(opts.groups))
	for _, g := range opts.groups {
		s, err := writeArchive(opts, g, rng)
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", int(g), err)
		}
		stats = append(stats, s)
		log.Printf("%s: %d payloads, %d records", s.name, s.payloads, s.records)
	}
	return stats, nil
}

func archiveName(g domain.Category, first, last int) string {
	return fmt.Sprintf("MSG1_%d-%d_G%d_SYN.tar", first, last, int(g))
}

func writeArchive(opts options, g domain.Category, rng *rand.Rand) (archiveStats, error) {
	last := opts.startYear + opts.years - 1
	s := archiveStats{name: archiveName(g, opts.startYear, last), group: g}

	f, err := os.Create(filepath.Join(opts.outDir, s.name))
	if err != nil {
		return s, err
	}
	defer f.Close()

	w := archive.NewWriter(f, modTime)
	dir := fmt.Sprintf("G%d/", int(g))
	if err := w.AddDir(dir); err != nil {
		return s, err
	}

	for year := opts.startYear; year <= last; year++ {
		for month := 1; month <= 12; month++ {
			data, padded, err := payload(rng, g, year, month, opts.records, opts.padding)
			if err != nil {
				return s, err
			}
			name := fmt.Sprintf("%sMSG1.%d.%02d%s", dir, year, month, opts.ext)
			if err := w.AddPayload(name, data); err != nil {
				return s, err
			}
			s.payloads++
			s.records += opts.records
			s.padding += padded
		}
	}

	if err := w.Close(); err != nil {
		return s, err
	}
	return s, f.Close()
}

// payload builds one month of packed records with random padding windows.
func payload(rng *rand.Rand, g domain.Category, year, month, n int, padding float64) ([]byte, int, error) {
	var buf bytes.Buffer
	buf.Grow(n * domain.RecordSize)

	padded := 0
	for range n {
		if rng.Float64() < padding {
			buf.Write(paddingWindow(rng))
			padded++
		}
		rec, err := domain.Encode(randomCoded(rng, g, year, month))
		if err != nil {
			return nil, 0, err
		}
		buf.Write(rec[:])
	}
	return buf.Bytes(), padded, nil
}

// paddingWindow returns random bytes whose sync nibble is never 1.
func paddingWindow(rng *rand.Rand) []byte {
	b := make([]byte, domain.RecordSize)
	for i := range b {
		b[i] = byte(rng.IntN(256))
	}
	b[1] = b[1]&0xF0 | byte(2+rng.IntN(14))
	return b
}

func randomCoded(rng *rand.Rand, g domain.Category, year, month int) domain.Coded {
	var c domain.Coded
	c[1] = year - minYear + 1
	c[2] = month
	c[3] = 2 + rng.IntN(2)   // 1 or 2 degree box
	c[4] = 1 + rng.IntN(720) // longitude 0..359.5
	c[5] = 1 + rng.IntN(361) // latitude -90..90
	c[6] = 1 + rng.IntN(7)
	c[7] = 1 + rng.IntN(7)
	c[8] = int(g)
	c[9] = rng.IntN(16)

	for slot := 10; slot <= 33; slot++ {
		if rng.Float64() < missingRate {
			continue
		}
		c[slot] = 1 + rng.IntN(1<<16-1)
	}
	for slot := 34; slot < domain.SlotCount; slot++ {
		c[slot] = rng.IntN(16)
	}
	return c
}

func printStats(stats []archiveStats) {
	fmt.Println()
	fmt.Println("=== Generated Archives ===")
	totalRecords, totalPadding := 0, 0
	for _, s := range stats {
		fmt.Printf("  %-32s group %-2d %4d payloads %8d records %6d padding\n",
			s.name, int(s.group), s.payloads, s.records, s.padding)
		totalRecords += s.records
		totalPadding += s.padding
	}
	fmt.Printf("\nTotal: %d archives, %d records, %d padding windows\n",
		len(stats), totalRecords, totalPadding)
}
