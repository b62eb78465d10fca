// Package storage persists bench reports under a data directory, one
// directory per report holding metadata.json and results.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/pointmass/internal/bench"
)

const (
	metadataFile = "metadata.json"
	resultsFile  = "results.csv"
)

var ErrMalformedResults = errors.New("storage: malformed results file")

var resultsHeader = []string{"strategy", "bodies", "iterations", "mean_ns", "stddev_ns", "pairs_per_sec"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// ReportMetadata is everything about a report except its per-case rows.
type ReportMetadata struct {
	ID                string    `json:"id"`
	Timestamp         time.Time `json:"timestamp"`
	GoMaxProcs        int       `json:"gomaxprocs"`
	Workers           int       `json:"workers"`
	ParallelThreshold int       `json:"parallel_threshold"`
	Seed              int64     `json:"seed"`
	Strategies        []string  `json:"strategies"`
	Sizes             []int     `json:"sizes"`
	Cases             int       `json:"cases"`
}

func (s *Store) Save(report *bench.Report) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}

	ts := report.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	id, runDir, err := s.newRunDir(ts)
	if err != nil {
		return "", err
	}

	meta := ReportMetadata{
		ID:                id,
		Timestamp:         ts,
		GoMaxProcs:        report.GoMaxProcs,
		Workers:           report.Workers,
		ParallelThreshold: report.ParallelThreshold,
		Seed:              report.Seed,
		Strategies:        report.Strategies(),
		Sizes:             sizes(report.Results),
		Cases:             len(report.Results),
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeResults(filepath.Join(runDir, resultsFile), report.Results); err != nil {
		return "", err
	}
	return id, nil
}

// newRunDir creates a fresh directory named after ts, suffixing on collision.
func (s *Store) newRunDir(ts time.Time) (string, string, error) {
	base := fmt.Sprintf("bench_%d", ts.Unix())
	for i := 0; ; i++ {
		id := base
		if i > 0 {
			id = fmt.Sprintf("%s_%d", base, i)
		}
		dir := filepath.Join(s.baseDir, id)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return id, dir, nil
		}
		if !os.IsExist(err) {
			return "", "", err
		}
	}
}

func sizes(results []bench.Result) []int {
	seen := make(map[int]bool)
	var out []int
	for _, r := range results {
		if !seen[r.Bodies] {
			seen[r.Bodies] = true
			out = append(out, r.Bodies)
		}
	}
	return out
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeResults(path string, results []bench.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(resultsHeader); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{
			r.Strategy,
			strconv.Itoa(r.Bodies),
			strconv.Itoa(r.Iterations),
			strconv.FormatFloat(r.MeanNs, 'f', 3, 64),
			strconv.FormatFloat(r.StdDevNs, 'f', 3, 64),
			strconv.FormatFloat(r.PairsPerSec, 'g', 8, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the metadata of every stored report, oldest first.
// Directories without readable metadata are skipped.
func (s *Store) List() ([]ReportMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []ReportMetadata{}, nil
		}
		return nil, err
	}

	reports := make([]ReportMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		reports = append(reports, *meta)
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].Timestamp.Before(reports[j].Timestamp)
	})
	return reports, nil
}

func (s *Store) Load(id string) (*ReportMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta ReportMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadResults(id string) ([]bench.Result, error) {
	file, err := os.Open(filepath.Join(s.baseDir, id, resultsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(resultsHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResults, err)
	}
	if len(records) < 2 {
		return []bench.Result{}, nil
	}

	results := make([]bench.Result, 0, len(records)-1)
	for line, rec := range records[1:] {
		res, err := parseResult(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedResults, line+2, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func parseResult(rec []string) (bench.Result, error) {
	var (
		res bench.Result
		err error
	)
	res.Strategy = rec[0]
	if res.Bodies, err = strconv.Atoi(rec[1]); err != nil {
		return res, err
	}
	if res.Iterations, err = strconv.Atoi(rec[2]); err != nil {
		return res, err
	}
	if res.MeanNs, err = strconv.ParseFloat(rec[3], 64); err != nil {
		return res, err
	}
	if res.StdDevNs, err = strconv.ParseFloat(rec[4], 64); err != nil {
		return res, err
	}
	if res.PairsPerSec, err = strconv.ParseFloat(rec[5], 64); err != nil {
		return res, err
	}
	return res, nil
}

// LoadReport reassembles a stored report.
func (s *Store) LoadReport(id string) (*ReportMetadata, *bench.Report, error) {
	meta, err := s.Load(id)
	if err != nil {
		return nil, nil, err
	}
	results, err := s.LoadResults(id)
	if err != nil {
		return nil, nil, err
	}
	return meta, &bench.Report{
		Timestamp:         meta.Timestamp,
		GoMaxProcs:        meta.GoMaxProcs,
		Workers:           meta.Workers,
		ParallelThreshold: meta.ParallelThreshold,
		Seed:              meta.Seed,
		Results:           results,
	}, nil
}
