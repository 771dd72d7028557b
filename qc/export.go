package qc

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/cellclust/simgraph"
)

// Codec selects the block compression used by the graph export.
type Codec uint8

const (
	// CodecNone stores blocks uncompressed.
	CodecNone Codec = iota
	// CodecGzip compresses blocks with gzip.
	CodecGzip
	// CodecZstd compresses blocks with zstandard.
	CodecZstd
	// CodecLZ4 compresses blocks with LZ4.
	CodecLZ4
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecGzip:
		return "gzip"
	case CodecZstd:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

// ParseCodec parses a codec name.
func ParseCodec(s string) (Codec, error) {
	switch s {
	case "none":
		return CodecNone, nil
	case "gzip":
		return CodecGzip, nil
	case "zstd":
		return CodecZstd, nil
	case "lz4":
		return CodecLZ4, nil
	default:
		return CodecNone, fmt.Errorf("unknown graph codec %q (want none, gzip, zstd or lz4)", s)
	}
}

const (
	// Each edge record is [u uint32][v uint32][weight float64], little
	// endian.
	edgeRecordSize = 16

	blockHeaderSize  = 8
	defaultBlockSize = 64 * 1024
)

// GraphMeta is the sidecar written next to a graph export.
type GraphMeta struct {
	Vertices    int    `json:"vertices"`
	Edges       int    `json:"edges"`
	Codec       string `json:"codec"`
	BlockSize   int    `json:"block_size"`
	RecordBytes int    `json:"record_bytes"`
}

// ExportGraph writes the edge list of g as fixed-size records in
// block-compressed frames. Each undirected edge appears once with u <= v;
// vertices and adjacency are emitted in ascending order, so the byte
// stream is deterministic for a given graph.
func ExportGraph(w io.Writer, g *simgraph.Graph, codec Codec) (*GraphMeta, error) {
	bw := newBlockWriter(w, codec, defaultBlockSize)

	var rec [edgeRecordSize]byte
	for v := 0; v < g.NumVertices(); v++ {
		targets, weights := g.Neighbors(v)
		for i, t := range targets {
			if int(t) < v {
				continue
			}
			binary.LittleEndian.PutUint32(rec[0:], uint32(v))
			binary.LittleEndian.PutUint32(rec[4:], t)
			binary.LittleEndian.PutUint64(rec[8:], math.Float64bits(weights[i]))
			if _, err := bw.Write(rec[:]); err != nil {
				return nil, fmt.Errorf("exporting graph: %w", err)
			}
		}
	}
	if err := bw.Flush(); err != nil {
		return nil, fmt.Errorf("exporting graph: %w", err)
	}

	return &GraphMeta{
		Vertices:    g.NumVertices(),
		Edges:       g.NumEdges(),
		Codec:       codec.String(),
		BlockSize:   defaultBlockSize,
		RecordBytes: edgeRecordSize,
	}, nil
}

// ImportGraph parses a graph export back into an edge list.
func ImportGraph(data []byte, codec Codec) ([]simgraph.Edge, error) {
	raw, err := decompressAll(data, codec)
	if err != nil {
		return nil, fmt.Errorf("importing graph: %w", err)
	}
	if len(raw)%edgeRecordSize != 0 {
		return nil, fmt.Errorf("importing graph: %d payload bytes are not a whole number of records", len(raw))
	}

	edges := make([]simgraph.Edge, 0, len(raw)/edgeRecordSize)
	for off := 0; off < len(raw); off += edgeRecordSize {
		edges = append(edges, simgraph.Edge{
			U: binary.LittleEndian.Uint32(raw[off:]),
			V: binary.LittleEndian.Uint32(raw[off+4:]),
			W: math.Float64frombits(binary.LittleEndian.Uint64(raw[off+8:])),
		})
	}
	return edges, nil
}

// WriteGraphMeta writes the sidecar as indented JSON.
func WriteGraphMeta(w io.Writer, meta *GraphMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling graph meta: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing graph meta: %w", err)
	}
	return nil
}

// zstd encoder/decoder pools, shared across exports.
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) { zstdEncoderPool.Put(enc) }

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) { zstdDecoderPool.Put(dec) }

// blockWriter buffers writes into fixed-size blocks and emits each block
// framed as [uncompressedSize u32][compressedSize u32][payload]. A
// compressedSize of 0 marks a stored (uncompressed) payload, which is also
// used when compression does not pay for itself.
type blockWriter struct {
	w         io.Writer
	codec     Codec
	blockSize int
	buf       *bytes.Buffer
	written   int64
}

func newBlockWriter(w io.Writer, codec Codec, blockSize int) *blockWriter {
	if blockSize <= 0 {
		blockSize = defaultBlockSize
	}
	return &blockWriter{
		w:         w,
		codec:     codec,
		blockSize: blockSize,
		buf:       bytes.NewBuffer(make([]byte, 0, blockSize)),
	}
}

func (c *blockWriter) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		space := c.blockSize - c.buf.Len()
		if space <= 0 {
			if err := c.flushBlock(); err != nil {
				return total, err
			}
			space = c.blockSize
		}

		toWrite := len(p)
		if toWrite > space {
			toWrite = space
		}
		n, err := c.buf.Write(p[:toWrite])
		if err != nil {
			return total, err
		}
		total += n
		p = p[n:]
	}
	return total, nil
}

// Flush writes any remaining buffered data as a final block.
func (c *blockWriter) Flush() error {
	return c.flushBlock()
}

// BytesWritten returns the total framed bytes written so far.
func (c *blockWriter) BytesWritten() int64 { return c.written }

func (c *blockWriter) flushBlock() error {
	if c.buf.Len() == 0 {
		return nil
	}

	framed, err := frameBlock(c.buf.Bytes(), c.codec)
	if err != nil {
		return err
	}
	n, err := c.w.Write(framed)
	if err != nil {
		return err
	}
	c.written += int64(n)
	c.buf.Reset()
	return nil
}

// frameBlock compresses data with the codec and prepends the block header.
// Incompressible blocks (ratio above 0.9) are stored raw.
func frameBlock(data []byte, codec Codec) ([]byte, error) {
	var compressed []byte
	var err error

	switch codec {
	case CodecGzip:
		compressed, err = compressGzip(data)
	case CodecZstd:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		putZstdEncoder(enc)
	case CodecLZ4:
		compressed, err = compressLZ4(data)
	}
	if err != nil {
		return nil, err
	}

	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		result := make([]byte, blockHeaderSize+len(data))
		binary.LittleEndian.PutUint32(result[0:], uint32(len(data)))
		binary.LittleEndian.PutUint32(result[4:], 0)
		copy(result[blockHeaderSize:], data)
		return result, nil
	}

	result := make([]byte, blockHeaderSize+len(compressed))
	binary.LittleEndian.PutUint32(result[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(result[4:], uint32(len(compressed)))
	copy(result[blockHeaderSize:], compressed)
	return result, nil
}

func compressGzip(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(data); err != nil {
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func compressLZ4(data []byte) ([]byte, error) {
	compressed := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil // incompressible
	}
	return compressed[:n], nil
}

// blockReader walks the framed blocks of an export sequentially.
type blockReader struct {
	data   []byte
	offset int
	codec  Codec
}

func newBlockReader(data []byte, codec Codec) *blockReader {
	return &blockReader{data: data, codec: codec}
}

// readBlock reads and decompresses the next block, returning io.EOF after
// the last one.
func (c *blockReader) readBlock() ([]byte, error) {
	if c.offset+blockHeaderSize > len(c.data) {
		if c.offset == len(c.data) {
			return nil, io.EOF
		}
		return nil, errors.New("truncated block header")
	}

	uncompressedSize := int(binary.LittleEndian.Uint32(c.data[c.offset:]))
	compressedSize := int(binary.LittleEndian.Uint32(c.data[c.offset+4:]))
	c.offset += blockHeaderSize

	if compressedSize == 0 {
		if c.offset+uncompressedSize > len(c.data) {
			return nil, errors.New("stored block extends beyond data")
		}
		block := c.data[c.offset : c.offset+uncompressedSize]
		c.offset += uncompressedSize
		return block, nil
	}

	if c.offset+compressedSize > len(c.data) {
		return nil, errors.New("compressed block extends beyond data")
	}
	payload := c.data[c.offset : c.offset+compressedSize]
	c.offset += compressedSize

	var block []byte
	var err error
	switch c.codec {
	case CodecGzip:
		block, err = decompressGzip(payload)
	case CodecZstd:
		dec := getZstdDecoder()
		block, err = dec.DecodeAll(payload, make([]byte, 0, uncompressedSize))
		putZstdDecoder(dec)
	case CodecLZ4:
		block = make([]byte, uncompressedSize)
		var n int
		n, err = lz4.UncompressBlock(payload, block)
		if err == nil {
			block = block[:n]
		}
	default:
		return nil, fmt.Errorf("compressed block under codec %s", c.codec)
	}
	if err != nil {
		return nil, err
	}
	if len(block) != uncompressedSize {
		return nil, errors.New("decompressed size mismatch")
	}
	return block, nil
}

func decompressGzip(payload []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer gr.Close()
	return io.ReadAll(gr)
}

func decompressAll(data []byte, codec Codec) ([]byte, error) {
	r := newBlockReader(data, codec)
	var out []byte
	for {
		block, err := r.readBlock()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, block...)
	}
}
