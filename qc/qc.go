// Package qc produces the quality-control artifacts of a clustering run:
// a machine-readable run summary, a cluster size table, and an optional
// block-compressed export of the similarity graph.
package qc

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"
)

// StageTiming records the wall time of one pipeline stage.
type StageTiming struct {
	Stage  string  `json:"stage"`
	Millis float64 `json:"millis"`
}

// Summary is the run report written to qc/summary.json.
type Summary struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Input      string    `json:"input"`

	Cells       int  `json:"cells"`
	Markers     int  `json:"markers"`
	Transformed bool `json:"transformed"`

	Neighbors  int     `json:"neighbors"`
	Metric     string  `json:"metric"`
	Mode       string  `json:"mode"`
	Weight     string  `json:"weight"`
	Resolution float64 `json:"resolution"`
	Seed       int64   `json:"seed"`

	Edges      int     `json:"edges"`
	Clusters   int     `json:"clusters"`
	Modularity float64 `json:"modularity"`
	Levels     int     `json:"levels"`
	Passes     int     `json:"passes"`

	Timings []StageTiming `json:"timings"`
}

// WriteSummary writes s as indented JSON.
func WriteSummary(w io.Writer, s *Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}

// WriteClusterSizes writes a cluster,count table ordered by descending
// count; clusters of equal size order by ascending label.
func WriteClusterSizes(w io.Writer, labels []int) error {
	counts := make(map[int]int)
	for _, c := range labels {
		counts[c]++
	}
	clusters := make([]int, 0, len(counts))
	for c := range counts {
		clusters = append(clusters, c)
	}
	sort.Slice(clusters, func(i, j int) bool {
		ci, cj := clusters[i], clusters[j]
		if counts[ci] != counts[cj] {
			return counts[ci] > counts[cj]
		}
		return ci < cj
	})

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"cluster", "count"}); err != nil {
		return fmt.Errorf("writing cluster sizes: %w", err)
	}
	for _, c := range clusters {
		row := []string{strconv.Itoa(c), strconv.Itoa(counts[c])}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing cluster sizes: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing cluster sizes: %w", err)
	}
	return nil
}
