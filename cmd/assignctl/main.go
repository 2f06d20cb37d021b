// Command assignctl inspects and edits the persisted weather photo
// assignments using the same environment configuration as the service.
//
// Usage:
//
//	go run ./cmd/assignctl list
//	go run ./cmd/assignctl assign -category Rain -photo 3f0e...-uuid
//	go run ./cmd/assignctl reset
//	go run ./cmd/assignctl check
//
// check runs integrity phases over the stored snapshot and, when
// PHOTO_CATALOG_ENABLED is set, verifies every assigned photo still exists.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/couchcryptid/weathernow-service/internal/adapter/objectstore"
	"github.com/couchcryptid/weathernow-service/internal/assignment"
	"github.com/couchcryptid/weathernow-service/internal/config"
	"github.com/couchcryptid/weathernow-service/internal/domain"
	"github.com/couchcryptid/weathernow-service/internal/observability"
	"github.com/couchcryptid/weathernow-service/internal/storage"
	"github.com/google/uuid"
)

// phase tracks pass/fail for a check phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}
	logger := observability.NewLogger("error", "text")

	os.Exit(run(context.Background(), cfg, logger, os.Args[1], os.Args[2:], os.Stdout))
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: assignctl <list|assign|reset|check> [flags]")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, cmd string, args []string, out io.Writer) int {
	backend, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open %s backend: %v\n", cfg.AssignmentBackend, err)
		return 1
	}
	defer backend.Close()

	store, err := assignment.Open(ctx, backend, observability.NewMetricsForTesting(), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load assignments: %v\n", err)
		return 1
	}

	switch cmd {
	case "list":
		printSummary(out, store.Summary())
		return 0
	case "assign":
		return runAssign(ctx, store, args, out)
	case "reset":
		summary, err := store.ResetAll(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: reset: %v\n", err)
			return 1
		}
		printSummary(out, summary)
		return 0
	case "check":
		var catalog domain.PhotoCatalog
		if cfg.PhotoCatalogEnabled {
			c, err := objectstore.NewCatalog(objectstore.Config{
				Endpoint:  cfg.PhotoEndpoint,
				AccessKey: cfg.PhotoAccessKey,
				SecretKey: cfg.PhotoSecretKey,
				Bucket:    cfg.PhotoBucket,
				Prefix:    cfg.PhotoPrefix,
				Region:    cfg.PhotoRegion,
			}, logger)
			if err != nil {
				fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
				return 1
			}
			catalog = c
		}
		return runCheck(ctx, backend, store, catalog, out)
	default:
		usage()
		return 2
	}
}

func runAssign(ctx context.Context, store *assignment.Store, args []string, out io.Writer) int {
	fs := flag.NewFlagSet("assign", flag.ContinueOnError)
	categoryFlag := fs.String("category", "", "weather category (Clear, Rain, Snow, Fog)")
	photoFlag := fs.String("photo", "", "photo UUID")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	category, err := domain.ParseCategory(*categoryFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 2
	}
	photoID, err := uuid.Parse(*photoFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: -photo must be a UUID: %v\n", err)
		return 2
	}

	summary, err := store.Assign(ctx, category, photoID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: assign: %v\n", err)
		return 1
	}
	printSummary(out, summary)
	return 0
}

func printSummary(out io.Writer, s assignment.Summary) {
	for _, c := range domain.AllCategories() {
		id, ok := s.Assignments[c]
		value := "(unassigned)"
		if ok {
			value = id.String()
		}
		fmt.Fprintf(out, "  %-6s %s\n", c, value)
	}
	if s.Complete {
		fmt.Fprintln(out, "\nAll categories assigned.")
	} else {
		fmt.Fprintf(out, "\nMissing: %v\n", s.Missing)
	}
}

func runCheck(ctx context.Context, blobs assignment.BlobStore, store *assignment.Store, catalog domain.PhotoCatalog, out io.Writer) int {
	fmt.Fprintln(out, "=== Weather Photo Assignment Check ===")
	fmt.Fprintln(out)

	phases := []*phase{
		checkSnapshot(ctx, blobs),
		checkComplete(store),
	}
	if catalog != nil {
		phases = append(phases, checkPhotosExist(ctx, store, catalog))
	} else {
		fmt.Fprintln(out, "  photo catalog disabled, skipping existence check")
	}

	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll checks passed.")
		return 0
	}
	fmt.Fprintln(out, "\nCheck FAILED.")
	return 1
}

// checkSnapshot reports entries the store silently drops on load.
func checkSnapshot(ctx context.Context, blobs assignment.BlobStore) *phase {
	p := &phase{name: "Snapshot decodes cleanly"}

	blob, err := blobs.Load(ctx, assignment.SnapshotKey)
	if errors.Is(err, assignment.ErrBlobNotFound) {
		return p
	}
	if err != nil {
		p.errorf("load snapshot: %v", err)
		return p
	}

	var raw map[string]string
	if err := json.Unmarshal(blob, &raw); err != nil {
		p.errorf("snapshot is not a JSON object of strings: %v", err)
		return p
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !domain.WeatherCategory(k).Valid() {
			p.errorf("unknown category key %q", k)
			continue
		}
		if _, err := uuid.Parse(raw[k]); err != nil {
			p.errorf("%s: invalid photo id %q", k, raw[k])
		}
	}
	return p
}

func checkComplete(store *assignment.Store) *phase {
	p := &phase{name: "Every category assigned"}
	for _, c := range store.Missing() {
		p.errorf("%s has no photo", c)
	}
	return p
}

func checkPhotosExist(ctx context.Context, store *assignment.Store, catalog domain.PhotoCatalog) *phase {
	p := &phase{name: "Assigned photos exist in catalog"}
	snapshot := store.Snapshot()
	for _, c := range domain.AllCategories() {
		id, ok := snapshot[c]
		if !ok {
			continue
		}
		_, found, err := catalog.LookupByID(ctx, id)
		switch {
		case err != nil:
			p.errorf("%s: lookup %s: %v", c, id, err)
		case !found:
			p.errorf("%s: photo %s no longer exists", c, id)
		}
	}
	return p
}
