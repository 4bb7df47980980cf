package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/tkingovr/rulesel/api"
)

const defaultMaxMem = 10000

// JSONLStore is an append-only JSONL decision log with date-based rotation.
type JSONLStore struct {
	mu          sync.Mutex
	dir         string
	currentDate string
	file        *os.File
	writer      *bufio.Writer

	// In-memory buffer for queries and stats (bounded)
	records []*api.DecisionRecord
	maxMem  int
	seq     uint64
}

// NewJSONLStore creates a new JSONL decision store writing to the given
// directory. Records already logged there are loaded so Query and Stats see
// earlier runs; only the most recent ones are kept in memory.
func NewJSONLStore(dir string) (*JSONLStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating decision log directory: %w", err)
	}
	s := &JSONLStore{
		dir:    dir,
		maxMem: defaultMaxMem,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *JSONLStore) Write(_ context.Context, record *api.DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	if record.ID == "" {
		s.seq++
		record.ID = fmt.Sprintf("%d-%d", record.Timestamp.UnixNano(), s.seq)
	}

	// Rotate file if date changed
	dateStr := record.Timestamp.Format("2006-01-02")
	if dateStr != s.currentDate {
		if err := s.rotate(dateStr); err != nil {
			return err
		}
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling decision record: %w", err)
	}
	if _, err := s.writer.Write(data); err != nil {
		return err
	}
	if err := s.writer.WriteByte('\n'); err != nil {
		return err
	}
	if err := s.writer.Flush(); err != nil {
		return err
	}

	s.remember(record)

	return nil
}

func (s *JSONLStore) Query(_ context.Context, filter api.QueryFilter) ([]*api.DecisionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var results []*api.DecisionRecord
	for _, r := range s.records {
		if matchesFilter(r, filter) {
			results = append(results, r)
		}
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(results) {
			return nil, nil
		}
		results = results[filter.Offset:]
	}
	if filter.Limit > 0 && len(results) > filter.Limit {
		results = results[:filter.Limit]
	}

	return results, nil
}

func (s *JSONLStore) Stats(_ context.Context) (*api.DecisionStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := &api.DecisionStats{
		ByFilterType: make(map[string]int),
		ByEngine:     make(map[string]int),
	}

	for _, r := range s.records {
		stats.TotalDecisions++
		if r.Included {
			stats.IncludedCount++
		} else {
			stats.ExcludedCount++
			if r.Filter != nil {
				stats.ByFilterType[r.Filter.Type().String()]++
			}
		}
		if r.Engine != "" {
			stats.ByEngine[r.Engine]++
		}
	}

	return stats, nil
}

func (s *JSONLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writer != nil {
		if err := s.writer.Flush(); err != nil {
			return err
		}
	}
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

// load reads the existing decisions-*.jsonl files oldest first. Lines that
// do not decode, such as a tail cut short by a crash, are skipped.
func (s *JSONLStore) load() error {
	paths, err := filepath.Glob(filepath.Join(s.dir, "decisions-*.jsonl"))
	if err != nil {
		return fmt.Errorf("listing decision log files: %w", err)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if err := s.loadFile(path); err != nil {
			return err
		}
	}
	return nil
}

func (s *JSONLStore) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening decision log file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record api.DecisionRecord
		if err := json.Unmarshal(line, &record); err != nil {
			continue
		}
		s.remember(&record)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return nil
}

// remember appends a record to the in-memory buffer, dropping the oldest
// once maxMem is reached.
func (s *JSONLStore) remember(record *api.DecisionRecord) {
	if len(s.records) >= s.maxMem {
		s.records = s.records[1:]
	}
	s.records = append(s.records, record)
}

func (s *JSONLStore) rotate(dateStr string) error {
	if s.writer != nil {
		if err := s.writer.Flush(); err != nil {
			return err
		}
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			return err
		}
	}

	path := filepath.Join(s.dir, "decisions-"+dateStr+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return fmt.Errorf("opening decision log file: %w", err)
	}

	s.file = f
	s.writer = bufio.NewWriter(f)
	s.currentDate = dateStr
	return nil
}

func matchesFilter(r *api.DecisionRecord, f api.QueryFilter) bool {
	if !f.Since.IsZero() && r.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && r.Timestamp.After(f.Until) {
		return false
	}
	if f.RunID != "" && r.RunID != f.RunID {
		return false
	}
	if f.Rule != "" && r.Rule != f.Rule {
		return false
	}
	if f.Included != nil && r.Included != *f.Included {
		return false
	}
	return true
}
