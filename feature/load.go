package feature

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Load reads a CSV feature table from path. Files ending in .gz are
// decompressed transparently. The first record is the header; the table must
// be rectangular and contain at least one data row.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	return Read(r)
}

// Read parses a CSV feature table from r.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty input table")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	var records [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(records)+2, err)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("input table has a header but no rows")
	}

	return &Table{Header: header, Records: records}, nil
}

// ReadMarkers reads a marker list file: one column name per line, blank
// lines ignored.
func ReadMarkers(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening markers file %s: %w", path, err)
	}
	defer f.Close()

	var markers []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			markers = append(markers, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading markers file %s: %w", path, err)
	}
	if len(markers) == 0 {
		return nil, fmt.Errorf("markers file %s is empty", path)
	}
	return markers, nil
}
