package qc

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cellclust/simgraph"
)

// denseGraph builds a complete graph large enough to span several
// compression blocks.
func denseGraph(n int) *simgraph.Graph {
	var edges []simgraph.Edge
	for u := 0; u < n; u++ {
		for v := u + 1; v < n; v++ {
			edges = append(edges, simgraph.Edge{
				U: uint32(u),
				V: uint32(v),
				W: 1 / (1 + float64(u+v)),
			})
		}
	}
	return simgraph.NewGraph(n, edges)
}

func allCodecs() []Codec {
	return []Codec{CodecNone, CodecGzip, CodecZstd, CodecLZ4}
}

func TestExportImportRoundTrip(t *testing.T) {
	// 150 vertices give 11175 edges, well past one 64 KiB block.
	g := denseGraph(150)

	for _, codec := range allCodecs() {
		t.Run(codec.String(), func(t *testing.T) {
			var buf bytes.Buffer
			meta, err := ExportGraph(&buf, g, codec)
			require.NoError(t, err)

			assert.Equal(t, g.NumVertices(), meta.Vertices)
			assert.Equal(t, g.NumEdges(), meta.Edges)
			assert.Equal(t, codec.String(), meta.Codec)
			assert.Equal(t, 16, meta.RecordBytes)

			edges, err := ImportGraph(buf.Bytes(), codec)
			require.NoError(t, err)
			require.Equal(t, g.NumEdges(), len(edges))

			back := simgraph.NewGraph(g.NumVertices(), edges)
			assert.Equal(t, g.NumEdges(), back.NumEdges())
			assert.InDelta(t, g.TotalWeight(), back.TotalWeight(), 1e-9)
			for _, v := range []int{0, 74, 149} {
				wantT, wantW := g.Neighbors(v)
				gotT, gotW := back.Neighbors(v)
				assert.Equal(t, wantT, gotT)
				assert.Equal(t, wantW, gotW)
			}
		})
	}
}

func TestExportCompresses(t *testing.T) {
	g := denseGraph(150)

	var raw, zst bytes.Buffer
	_, err := ExportGraph(&raw, g, CodecNone)
	require.NoError(t, err)
	_, err = ExportGraph(&zst, g, CodecZstd)
	require.NoError(t, err)

	// Edge records over a regular graph compress well.
	assert.Less(t, zst.Len(), raw.Len())
}

func TestExportDeterministic(t *testing.T) {
	g := denseGraph(60)

	for _, codec := range allCodecs() {
		var a, b bytes.Buffer
		_, err := ExportGraph(&a, g, codec)
		require.NoError(t, err)
		_, err = ExportGraph(&b, g, codec)
		require.NoError(t, err)
		assert.Equal(t, a.Bytes(), b.Bytes(), "codec %s", codec)
	}
}

func TestExportSelfLoops(t *testing.T) {
	// Aggregated graphs carry self-loops; they round-trip like any edge.
	g := simgraph.NewGraph(2, []simgraph.Edge{
		{U: 0, V: 0, W: 2.5},
		{U: 0, V: 1, W: 0.25},
		{U: 1, V: 1, W: 4},
	})

	var buf bytes.Buffer
	meta, err := ExportGraph(&buf, g, CodecZstd)
	require.NoError(t, err)
	assert.Equal(t, 3, meta.Edges)

	edges, err := ImportGraph(buf.Bytes(), CodecZstd)
	require.NoError(t, err)
	require.Equal(t, 3, len(edges))

	back := simgraph.NewGraph(2, edges)
	w, ok := back.EdgeWeight(0, 0)
	require.True(t, ok)
	assert.Equal(t, 2.5, w)
	w, ok = back.EdgeWeight(1, 1)
	require.True(t, ok)
	assert.Equal(t, 4.0, w)
}

func TestExportEmptyGraph(t *testing.T) {
	g := simgraph.NewGraph(3, nil)

	var buf bytes.Buffer
	meta, err := ExportGraph(&buf, g, CodecZstd)
	require.NoError(t, err)
	assert.Equal(t, 0, meta.Edges)
	assert.Equal(t, 0, buf.Len())

	edges, err := ImportGraph(nil, CodecZstd)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestImportGraphTruncated(t *testing.T) {
	g := denseGraph(20)

	var buf bytes.Buffer
	_, err := ExportGraph(&buf, g, CodecNone)
	require.NoError(t, err)

	_, err = ImportGraph(buf.Bytes()[:buf.Len()-3], CodecNone)
	require.Error(t, err)

	// A few header bytes alone cannot form a block either.
	_, err = ImportGraph(buf.Bytes()[:5], CodecNone)
	require.Error(t, err)
}

func TestImportGraphCorrupt(t *testing.T) {
	_, err := ImportGraph([]byte("this is not a graph export at all"), CodecZstd)
	require.Error(t, err)
}

func TestWriteGraphMeta(t *testing.T) {
	meta := &GraphMeta{
		Vertices:    10,
		Edges:       45,
		Codec:       "zstd",
		BlockSize:   65536,
		RecordBytes: 16,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteGraphMeta(&buf, meta))

	var back GraphMeta
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, *meta, back)
}

func TestCodecString(t *testing.T) {
	assert.Equal(t, "none", CodecNone.String())
	assert.Equal(t, "gzip", CodecGzip.String())
	assert.Equal(t, "zstd", CodecZstd.String())
	assert.Equal(t, "lz4", CodecLZ4.String())
	assert.Contains(t, Codec(9).String(), "codec(9)")
}

func TestParseCodec(t *testing.T) {
	tests := []struct {
		input    string
		expected Codec
		wantErr  bool
	}{
		{"none", CodecNone, false},
		{"gzip", CodecGzip, false},
		{"zstd", CodecZstd, false},
		{"lz4", CodecLZ4, false},
		{"snappy", 0, true},
		{"ZSTD", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCodec(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
