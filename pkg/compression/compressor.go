// Package compression provides the codecs used for brainless snapshots.
//
// # Overview
//
// The compression package provides:
//   - Gzip, LZ4, Zstd and S2 codecs plus a pass-through None
//   - Configurable compression levels (Fastest, Default, Better, Best)
//   - Pooling of encoder and decoder instances
//   - Both in-memory and streaming operations
//
// # Basic Usage
//
//	comp, err := compression.NewCompressor(&compression.Config{
//	    Algorithm: compression.Zstd,
//	    Level:     compression.Default,
//	})
//	compressed, err := comp.Compress(data)
//	original, err := comp.Decompress(compressed)
//
// Decompression output is capped by Config.MaxDecompressedSize so a corrupt or
// hostile snapshot cannot exhaust memory.
package compression

import (
	"bytes"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/ajitpratap0/brainless/pkg/errors"
)

// Algorithm represents a compression algorithm.
type Algorithm string

const (
	// None represents no compression
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// LZ4 represents lz4 frame compression
	LZ4 Algorithm = "lz4"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
	// S2 represents s2 compression (Snappy compatible)
	S2 Algorithm = "s2"
)

// Algorithms lists every supported algorithm.
func Algorithms() []Algorithm {
	return []Algorithm{None, Gzip, LZ4, Zstd, S2}
}

// ParseAlgorithm resolves a case-insensitive name. The empty string is None.
func ParseAlgorithm(name string) (Algorithm, error) {
	a := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	if a == "" {
		return None, nil
	}
	for _, known := range Algorithms() {
		if a == known {
			return a, nil
		}
	}
	return "", errors.New(errors.ErrorTypeConfig, "unsupported compression algorithm").
		WithDetail("algorithm", name)
}

// Level represents compression level, controlling the trade-off between
// compression speed and compression ratio.
type Level int

const (
	// Fastest prioritizes speed over compression ratio.
	Fastest Level = 1
	// Default balances speed and compression.
	Default Level = 5
	// Better improves compression at cost of speed.
	Better Level = 7
	// Best maximizes compression ratio.
	Best Level = 9
)

// LevelOf maps a numeric 1-9 setting onto the nearest named level.
func LevelOf(n int) Level {
	switch {
	case n <= 0:
		return Default
	case n <= 2:
		return Fastest
	case n <= 5:
		return Default
	case n <= 7:
		return Better
	default:
		return Best
	}
}

// DefaultMaxDecompressedSize bounds Decompress output (1 GiB).
const DefaultMaxDecompressedSize = 1 << 30

// Compressor provides compression and decompression functionality.
// All implementations are safe for concurrent use.
type Compressor interface {
	// Compress compresses data and returns the compressed bytes.
	Compress(data []byte) ([]byte, error)

	// Decompress decompresses data and returns the original bytes.
	Decompress(data []byte) ([]byte, error)

	// CompressStream compresses from reader to writer.
	CompressStream(dst io.Writer, src io.Reader) error

	// DecompressStream decompresses from reader to writer.
	DecompressStream(dst io.Writer, src io.Reader) error

	// Algorithm returns the compression algorithm used.
	Algorithm() Algorithm

	// Level returns the compression level configured.
	Level() Level
}

// Config represents compressor configuration.
type Config struct {
	Algorithm Algorithm // Compression algorithm to use
	Level     Level     // Compression level
	// MaxDecompressedSize caps Decompress output; 0 uses DefaultMaxDecompressedSize
	MaxDecompressedSize int64
}

// DefaultConfig returns the snapshot default: zstd at the default level.
func DefaultConfig() *Config {
	return &Config{
		Algorithm:           Zstd,
		Level:               Default,
		MaxDecompressedSize: DefaultMaxDecompressedSize,
	}
}

// NewCompressor creates a new compressor based on the provided configuration.
// If config is nil, default configuration is used.
func NewCompressor(config *Config) (Compressor, error) {
	if config == nil {
		config = DefaultConfig()
	}
	base := baseCompressor{
		algorithm: config.Algorithm,
		level:     config.Level,
		limit:     config.MaxDecompressedSize,
	}
	if base.level == 0 {
		base.level = Default
	}
	if base.limit <= 0 {
		base.limit = DefaultMaxDecompressedSize
	}

	switch config.Algorithm {
	case None, "":
		base.algorithm = None
		return &noneCompressor{baseCompressor: base}, nil
	case Gzip:
		return newGzipCompressor(base), nil
	case LZ4:
		return &lz4Compressor{baseCompressor: base, compressionLevel: mapLZ4Level(base.level)}, nil
	case Zstd:
		return newZstdCompressor(base)
	case S2:
		return &s2Compressor{baseCompressor: base}, nil
	default:
		return nil, errors.New(errors.ErrorTypeConfig, "unsupported compression algorithm").
			WithDetail("algorithm", string(config.Algorithm))
	}
}

// CompressorPool provides pooled compressors for better performance by
// reusing compressor instances.
//
// CompressorPool is safe for concurrent use.
type CompressorPool struct {
	pool   sync.Pool
	config *Config
}

// NewCompressorPool creates a pool for config. The configuration is checked
// up front so Get never has to report an error.
func NewCompressorPool(config *Config) (*CompressorPool, error) {
	if config == nil {
		config = DefaultConfig()
	}
	first, err := NewCompressor(config)
	if err != nil {
		return nil, err
	}

	cp := &CompressorPool{config: config}
	cp.pool.New = func() interface{} {
		comp, _ := NewCompressor(config)
		return comp
	}
	cp.pool.Put(first)
	return cp, nil
}

// Get gets a compressor from pool
func (cp *CompressorPool) Get() Compressor {
	return cp.pool.Get().(Compressor)
}

// Put returns compressor to pool
func (cp *CompressorPool) Put(c Compressor) {
	cp.pool.Put(c)
}

// Algorithm returns the pooled algorithm.
func (cp *CompressorPool) Algorithm() Algorithm {
	if cp.config.Algorithm == "" {
		return None
	}
	return cp.config.Algorithm
}

// Compress compresses data using a pooled compressor
func (cp *CompressorPool) Compress(data []byte) ([]byte, error) {
	c := cp.Get()
	defer cp.Put(c)
	return c.Compress(data)
}

// Decompress decompresses data using a pooled compressor
func (cp *CompressorPool) Decompress(data []byte) ([]byte, error) {
	c := cp.Get()
	defer cp.Put(c)
	return c.Decompress(data)
}

var bufferPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

func getBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func putBuffer(buf *bytes.Buffer) {
	bufferPool.Put(buf)
}

// detach copies the buffer contents so the buffer can go back to the pool.
func detach(buf *bytes.Buffer) []byte {
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result
}

type baseCompressor struct {
	algorithm Algorithm
	level     Level
	limit     int64
}

// Algorithm returns the compression algorithm
func (bc *baseCompressor) Algorithm() Algorithm {
	return bc.algorithm
}

// Level returns the compression level
func (bc *baseCompressor) Level() Level {
	return bc.level
}

// drain copies r into a pooled buffer, failing once the limit is exceeded.
func (bc *baseCompressor) drain(r io.Reader) ([]byte, error) {
	buf := getBuffer()
	defer putBuffer(buf)

	if err := bc.copyLimited(buf, r); err != nil {
		return nil, err
	}
	return detach(buf), nil
}

// copyLimited streams r into dst, failing once more than limit bytes arrive.
func (bc *baseCompressor) copyLimited(dst io.Writer, r io.Reader) error {
	n, err := io.Copy(dst, io.LimitReader(r, bc.limit+1))
	if err != nil {
		return corrupt(bc.algorithm, err)
	}
	if n > bc.limit {
		return errors.New(errors.ErrorTypeData, "decompressed payload exceeds size limit").
			WithDetail("algorithm", string(bc.algorithm)).
			WithDetail("limit", bc.limit)
	}
	return nil
}

func corrupt(a Algorithm, err error) error {
	return errors.Wrap(err, errors.ErrorTypeData, "failed to decompress payload").
		WithDetail("algorithm", string(a))
}

// None compressor (no compression)
type noneCompressor struct {
	baseCompressor
}

func (nc *noneCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

func (nc *noneCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}

func (nc *noneCompressor) CompressStream(dst io.Writer, src io.Reader) error {
	_, err := io.Copy(dst, src)
	return err
}

func (nc *noneCompressor) DecompressStream(dst io.Writer, src io.Reader) error {
	return nc.copyLimited(dst, src)
}

// Gzip compressor
type gzipCompressor struct {
	baseCompressor
	writerPool sync.Pool
	readerPool sync.Pool
}

func newGzipCompressor(base baseCompressor) *gzipCompressor {
	level := mapGzipLevel(base.level)
	gc := &gzipCompressor{baseCompressor: base}

	gc.writerPool.New = func() interface{} {
		w, _ := gzip.NewWriterLevel(nil, level)
		return w
	}
	gc.readerPool.New = func() interface{} {
		return new(gzip.Reader)
	}
	return gc
}

func (gc *gzipCompressor) Compress(data []byte) ([]byte, error) {
	buf := getBuffer()
	defer putBuffer(buf)

	w := gc.writerPool.Get().(*gzip.Writer)
	defer gc.writerPool.Put(w)

	w.Reset(buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return detach(buf), nil
}

func (gc *gzipCompressor) Decompress(data []byte) ([]byte, error) {
	r := gc.readerPool.Get().(*gzip.Reader)
	defer gc.readerPool.Put(r)

	if err := r.Reset(bytes.NewReader(data)); err != nil {
		return nil, corrupt(Gzip, err)
	}
	return gc.drain(r)
}

func (gc *gzipCompressor) CompressStream(dst io.Writer, src io.Reader) error {
	w := gc.writerPool.Get().(*gzip.Writer)
	defer gc.writerPool.Put(w)

	w.Reset(dst)
	if _, err := io.Copy(w, src); err != nil {
		return err
	}
	return w.Close()
}

func (gc *gzipCompressor) DecompressStream(dst io.Writer, src io.Reader) error {
	r := gc.readerPool.Get().(*gzip.Reader)
	defer gc.readerPool.Put(r)

	if err := r.Reset(src); err != nil {
		return corrupt(Gzip, err)
	}
	return gc.copyLimited(dst, r)
}

// LZ4 compressor
type lz4Compressor struct {
	baseCompressor
	compressionLevel lz4.CompressionLevel
}

func (lc *lz4Compressor) Compress(data []byte) ([]byte, error) {
	buf := getBuffer()
	defer putBuffer(buf)

	w := lz4.NewWriter(buf)
	if err := w.Apply(lz4.CompressionLevelOption(lc.compressionLevel)); err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return detach(buf), nil
}

func (lc *lz4Compressor) Decompress(data []byte) ([]byte, error) {
	return lc.drain(lz4.NewReader(bytes.NewReader(data)))
}

func (lc *lz4Compressor) CompressStream(dst io.Writer, src io.Reader) error {
	w := lz4.NewWriter(dst)
	if err := w.Apply(lz4.CompressionLevelOption(lc.compressionLevel)); err != nil {
		return err
	}
	if _, err := io.Copy(w, src); err != nil {
		return err
	}
	return w.Close()
}

func (lc *lz4Compressor) DecompressStream(dst io.Writer, src io.Reader) error {
	return lc.copyLimited(dst, lz4.NewReader(src))
}

// Zstd compressor
type zstdCompressor struct {
	baseCompressor
	encoderPool sync.Pool
	decoderPool sync.Pool
}

func newZstdCompressor(base baseCompressor) (*zstdCompressor, error) {
	level := mapZstdLevel(base.level)
	// Build one encoder eagerly so option errors surface here, not in the pool.
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create zstd encoder")
	}

	zc := &zstdCompressor{baseCompressor: base}
	zc.encoderPool.New = func() interface{} {
		e, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
		return e
	}
	zc.decoderPool.New = func() interface{} {
		d, _ := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(base.limit)))
		return d
	}
	zc.encoderPool.Put(enc)
	return zc, nil
}

func (zc *zstdCompressor) Compress(data []byte) ([]byte, error) {
	enc := zc.encoderPool.Get().(*zstd.Encoder)
	defer zc.encoderPool.Put(enc)

	return enc.EncodeAll(data, nil), nil
}

func (zc *zstdCompressor) Decompress(data []byte) ([]byte, error) {
	dec := zc.decoderPool.Get().(*zstd.Decoder)
	defer zc.decoderPool.Put(dec)

	if err := dec.Reset(bytes.NewReader(data)); err != nil {
		return nil, corrupt(Zstd, err)
	}
	return zc.drain(dec)
}

func (zc *zstdCompressor) CompressStream(dst io.Writer, src io.Reader) error {
	enc := zc.encoderPool.Get().(*zstd.Encoder)
	defer zc.encoderPool.Put(enc)

	enc.Reset(dst)
	if _, err := io.Copy(enc, src); err != nil {
		return err
	}
	return enc.Close()
}

func (zc *zstdCompressor) DecompressStream(dst io.Writer, src io.Reader) error {
	dec := zc.decoderPool.Get().(*zstd.Decoder)
	defer zc.decoderPool.Put(dec)

	if err := dec.Reset(src); err != nil {
		return corrupt(Zstd, err)
	}
	return zc.copyLimited(dst, dec)
}

// S2 compressor. Uses the stream format so Decompress can enforce the limit.
type s2Compressor struct {
	baseCompressor
}

func (sc *s2Compressor) writerOptions() []s2.WriterOption {
	switch sc.level {
	case Better:
		return []s2.WriterOption{s2.WriterBetterCompression()}
	case Best:
		return []s2.WriterOption{s2.WriterBestCompression()}
	default:
		return nil
	}
}

func (sc *s2Compressor) Compress(data []byte) ([]byte, error) {
	buf := getBuffer()
	defer putBuffer(buf)

	if err := sc.CompressStream(buf, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return detach(buf), nil
}

func (sc *s2Compressor) Decompress(data []byte) ([]byte, error) {
	return sc.drain(s2.NewReader(bytes.NewReader(data)))
}

func (sc *s2Compressor) CompressStream(dst io.Writer, src io.Reader) error {
	w := s2.NewWriter(dst, sc.writerOptions()...)
	if _, err := io.Copy(w, src); err != nil {
		return err
	}
	return w.Close()
}

func (sc *s2Compressor) DecompressStream(dst io.Writer, src io.Reader) error {
	return sc.copyLimited(dst, s2.NewReader(src))
}

// Helper functions to map compression levels

func mapGzipLevel(level Level) int {
	switch level {
	case Fastest:
		return gzip.BestSpeed
	case Best:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch level {
	case Fastest:
		return lz4.Fast
	case Best:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Better:
		return zstd.SpeedBetterCompression
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}
