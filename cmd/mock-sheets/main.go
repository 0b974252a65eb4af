// Package main implements a mock Google Sheets server for e2e testing.
// It serves /v4/spreadsheets/{id}/values/{range} responses from JSON fixture
// files, routing by range name. This eliminates the need for real Google
// credentials during sync wiring tests, making them fast, deterministic,
// and offline-capable.
//
// Usage:
//
//	mock-sheets -fixtures /path/to/fixtures -port 9090
//
// Fixture files are JSON arrays of rows named by range (e.g.,
// "Transactions.json" answers the "Transactions" range). The first row is
// the header, the rest are cell values:
//
//	[["Date", "Description", "Category", "Amount"],
//	 ["2024-01-10", "Landlord", "Rent", "-$1,000.00"]]
//
// Sequential fixtures: If numbered files exist (e.g., "Transactions.1.json",
// "Transactions.2.json"), the Nth fetch of that range returns the Nth
// fixture. After exhausting numbered fixtures, the base "Transactions.json"
// is used as a repeating fallback. This enables testing re-syncs against a
// sheet that changed between pulls.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// valueRange mirrors the Sheets API values.get response body.
type valueRange struct {
	Range          string  `json:"range"`
	MajorDimension string  `json:"majorDimension"`
	Values         [][]any `json:"values"`
}

// apiError mirrors the Google API error envelope.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

type server struct {
	fixtures map[string][][][]any // range name → ordered fixture row sets (sequential)
	calls    atomic.Int64         // total calls served

	// Per-range call counters for sequential fixture selection.
	rangeCalls   map[string]*atomic.Int64
	rangeCallsMu sync.Mutex // protects lazy init of rangeCalls entries
}

func newServer(fixtures map[string][][][]any) *server {
	return &server{
		fixtures:   fixtures,
		rangeCalls: make(map[string]*atomic.Int64),
	}
}

// getRangeCounter returns the call counter for a range, creating it lazily.
func (s *server) getRangeCounter(rangeName string) *atomic.Int64 {
	s.rangeCallsMu.Lock()
	defer s.rangeCallsMu.Unlock()
	if c, ok := s.rangeCalls[rangeName]; ok {
		return c
	}
	c := &atomic.Int64{}
	s.rangeCalls[rangeName] = c
	return c
}

func main() {
	fixtureDir := flag.String("fixtures", "", "directory containing fixture row files")
	port := flag.Int("port", 9090, "port to listen on")
	flag.Parse()

	// Allow env var override
	if envDir := os.Getenv("MOCK_SHEETS_FIXTURES"); envDir != "" && *fixtureDir == "" {
		*fixtureDir = envDir
	}
	if *fixtureDir == "" {
		*fixtureDir = "/fixtures"
	}

	fixtures, err := loadFixtures(*fixtureDir)
	if err != nil {
		log.Fatalf("Failed to load fixtures from %s: %v", *fixtureDir, err)
	}
	log.Printf("Loaded %d range(s) from %s", len(fixtures), *fixtureDir)
	for rangeName, seq := range fixtures {
		log.Printf("  range: %s (%d fixture(s))", rangeName, len(seq))
	}

	s := newServer(fixtures)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("GET /v4/spreadsheets/{id}/values/{range}", s.handleValues)
	mux.HandleFunc("/stats", s.handleStats)

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("Mock Sheets server listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *server) handleValues(w http.ResponseWriter, r *http.Request) {
	spreadsheetID := r.PathValue("id")
	rangeName := r.PathValue("range")

	callNum := s.calls.Add(1)
	log.Printf("[call %d] spreadsheet=%s range=%q", callNum, spreadsheetID, rangeName)

	seq, ok := s.fixtures[rangeName]
	if !ok {
		log.Printf("[call %d] WARNING: no fixture for range %q", callNum, rangeName)
		writeAPIError(w, http.StatusBadRequest, "INVALID_ARGUMENT",
			fmt.Sprintf("Unable to parse range: %s", rangeName))
		return
	}

	// Select fixture from sequence based on per-range call count
	counter := s.getRangeCounter(rangeName)
	callIndex := int(counter.Add(1) - 1) // 0-indexed

	values := seq[len(seq)-1] // repeat last fixture
	if callIndex < len(seq) {
		values = seq[callIndex]
	}

	log.Printf("[call %d] range=%s call_index=%d/%d rows=%d", callNum, rangeName, callIndex+1, len(seq), len(values))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(valueRange{
		Range:          rangeName,
		MajorDimension: "ROWS",
		Values:         values,
	})
}

// handleStats returns call counts for test assertions.
// Returns total_calls and per-range calls_by_range breakdown.
func (s *server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.rangeCallsMu.Lock()
	callsByRange := make(map[string]int64, len(s.rangeCalls))
	for rangeName, counter := range s.rangeCalls {
		callsByRange[rangeName] = counter.Load()
	}
	s.rangeCallsMu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"total_calls":    s.calls.Load(),
		"calls_by_range": callsByRange,
	})
}

func writeAPIError(w http.ResponseWriter, code int, status, message string) {
	var e apiError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.Status = status

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(e)
}

// numberedFileRe matches files like "Transactions.1.json", "Categories.2.json".
var numberedFileRe = regexp.MustCompile(`^(.+)\.(\d+)\.json$`)

// loadFixtures reads JSON row files from dir and returns a map of
// range name → ordered row-set sequence.
//
// For each range, fixtures are ordered:
//  1. Numbered files (range.1.json, range.2.json, ...) in numeric order
//  2. Base file (range.json) appended as the final fallback
func loadFixtures(dir string) (map[string][][][]any, error) {
	baseFiles := make(map[string][][]any)
	numberedFiles := make(map[string]map[int][][]any)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(info.Name(), ".json") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		var rows [][]any
		if err := json.Unmarshal(data, &rows); err != nil {
			return fmt.Errorf("%s is not a JSON array of rows: %w", path, err)
		}

		// Check for numbered pattern: range.N.json
		if matches := numberedFileRe.FindStringSubmatch(info.Name()); matches != nil {
			rangeName := matches[1]
			index, _ := strconv.Atoi(matches[2])
			if numberedFiles[rangeName] == nil {
				numberedFiles[rangeName] = make(map[int][][]any)
			}
			numberedFiles[rangeName][index] = rows
			return nil
		}

		// Base file: range.json
		rangeName := strings.TrimSuffix(info.Name(), ".json")
		baseFiles[rangeName] = rows
		return nil
	})

	if err != nil {
		return nil, err
	}

	// Build ordered sequences
	fixtures := make(map[string][][][]any)

	allRanges := make(map[string]bool)
	for rangeName := range baseFiles {
		allRanges[rangeName] = true
	}
	for rangeName := range numberedFiles {
		allRanges[rangeName] = true
	}

	for rangeName := range allRanges {
		var seq [][][]any

		// Add numbered fixtures in order
		if numbered, ok := numberedFiles[rangeName]; ok {
			indices := make([]int, 0, len(numbered))
			for idx := range numbered {
				indices = append(indices, idx)
			}
			sort.Ints(indices)

			for _, idx := range indices {
				seq = append(seq, numbered[idx])
			}
		}

		// Append base file as fallback
		if base, ok := baseFiles[rangeName]; ok {
			seq = append(seq, base)
		}

		if len(seq) > 0 {
			fixtures[rangeName] = seq
		}
	}

	if len(fixtures) == 0 {
		return nil, fmt.Errorf("no fixture files found in %s", dir)
	}

	return fixtures, nil
}
