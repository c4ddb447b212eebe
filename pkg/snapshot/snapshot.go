// Package snapshot encodes trained predictors for storage.
//
// A snapshot is a JSON envelope carrying a format marker, the envelope
// version, the codec used for the payload and a few descriptive fields; the
// payload itself is the compressed JSON of predictor.State. Keeping the
// descriptive fields outside the payload lets tools list snapshots without
// decompressing them.
package snapshot

import (
	"bytes"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ajitpratap0/brainless/pkg/compression"
	"github.com/ajitpratap0/brainless/pkg/config"
	"github.com/ajitpratap0/brainless/pkg/errors"
	"github.com/ajitpratap0/brainless/pkg/json"
	"github.com/ajitpratap0/brainless/pkg/predictor"
)

const (
	// Format marks a brainless snapshot envelope.
	Format = "brainless.snapshot"
	// Version is the envelope version written by Encode.
	Version = 1
)

// Envelope is the stored form of a snapshot.
type Envelope struct {
	Format      string                `json:"format"`
	Version     int                   `json:"version"`
	ID          string                `json:"id"`
	CreatedAt   time.Time             `json:"created_at"`
	Name        string                `json:"name,omitempty"`
	Kind        string                `json:"kind"`
	Family      string                `json:"family"`
	Score       float64               `json:"score"`
	Scoring     string                `json:"scoring"`
	Compression compression.Algorithm `json:"compression"`
	// Size is the uncompressed payload length.
	Size    int    `json:"size"`
	Payload []byte `json:"payload"`
}

// Options controls encoding.
type Options struct {
	Compression compression.Algorithm
	Level       compression.Level
	// Name is copied into the envelope, usually the run name from config
	Name string
}

// OptionsFromConfig builds encoding options from the snapshot section.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	algo, err := compression.ParseAlgorithm(cfg.Snapshot.Compression)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Compression: algo,
		Level:       compression.LevelOf(cfg.Snapshot.Level),
		Name:        cfg.Name,
	}, nil
}

// maxPrealloc bounds the buffer grown from the recorded size before any
// payload byte is read.
const maxPrealloc = 64 << 20

// codecs holds one compressor pool per algorithm and level.
var codecs sync.Map

func codec(cfg compression.Config) (*compression.CompressorPool, error) {
	if pool, ok := codecs.Load(cfg); ok {
		return pool.(*compression.CompressorPool), nil
	}
	pool, err := compression.NewCompressorPool(&cfg)
	if err != nil {
		return nil, err
	}
	actual, _ := codecs.LoadOrStore(cfg, pool)
	return actual.(*compression.CompressorPool), nil
}

// Encode wraps st in an envelope.
func Encode(st *predictor.State, opts Options) (*Envelope, error) {
	if st == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "cannot encode an empty state")
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to marshal predictor state")
	}
	pool, err := codec(compression.Config{Algorithm: opts.Compression, Level: opts.Level})
	if err != nil {
		return nil, err
	}
	comp := pool.Get()
	defer pool.Put(comp)

	var packed bytes.Buffer
	if err := comp.CompressStream(&packed, bytes.NewReader(raw)); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to compress predictor state").
			WithDetail("algorithm", string(comp.Algorithm()))
	}

	return &Envelope{
		Format:      Format,
		Version:     Version,
		ID:          uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
		Name:        opts.Name,
		Kind:        string(st.Kind),
		Family:      st.Summary.Family,
		Score:       st.Summary.Score,
		Scoring:     st.Summary.Scoring,
		Compression: comp.Algorithm(),
		Size:        len(raw),
		Payload:     packed.Bytes(),
	}, nil
}

// State decompresses and decodes the payload. Decompressed output is capped
// at compression.DefaultMaxDecompressedSize.
func (e *Envelope) State() (*predictor.State, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	if e.Size < 0 || int64(e.Size) > compression.DefaultMaxDecompressedSize {
		return nil, errors.New(errors.ErrorTypeData, "snapshot payload size out of range").
			WithDetail("size", e.Size)
	}
	pool, err := codec(compression.Config{Algorithm: e.Compression})
	if err != nil {
		return nil, err
	}
	comp := pool.Get()
	defer pool.Put(comp)

	var raw bytes.Buffer
	raw.Grow(min(e.Size, maxPrealloc))
	if err := comp.DecompressStream(&raw, bytes.NewReader(e.Payload)); err != nil {
		return nil, err
	}
	if raw.Len() != e.Size {
		return nil, errors.New(errors.ErrorTypeData, "snapshot payload size mismatch").
			WithDetail("expected", e.Size).
			WithDetail("actual", raw.Len())
	}
	var st predictor.State
	if err := json.Unmarshal(raw.Bytes(), &st); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decode predictor state")
	}
	return &st, nil
}

func (e *Envelope) check() error {
	if e.Format != Format {
		return errors.New(errors.ErrorTypeData, "not a brainless snapshot").WithDetail("format", e.Format)
	}
	if e.Version != Version {
		return errors.Newf(errors.ErrorTypeData, "unsupported snapshot envelope version %d", e.Version).
			WithDetail("version", e.Version)
	}
	return nil
}

// Write encodes st and writes the envelope to w.
func Write(w io.Writer, st *predictor.State, opts Options) (*Envelope, error) {
	env, err := Encode(st, opts)
	if err != nil {
		return nil, err
	}
	buf, err := json.MarshalToBuffer(env)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to marshal snapshot envelope")
	}
	defer json.PutBuffer(buf)
	if _, err := w.Write(buf.Bytes()); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to write snapshot")
	}
	return env, nil
}

// ReadEnvelope reads and checks an envelope without decoding the payload.
func ReadEnvelope(r io.Reader) (*Envelope, error) {
	var env Envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read snapshot envelope")
	}
	if err := env.check(); err != nil {
		return nil, err
	}
	return &env, nil
}

// Read reads an envelope and decodes its state.
func Read(r io.Reader) (*predictor.State, *Envelope, error) {
	env, err := ReadEnvelope(r)
	if err != nil {
		return nil, nil, err
	}
	st, err := env.State()
	if err != nil {
		return nil, nil, err
	}
	return st, env, nil
}

// Save snapshots p and writes it to w.
func Save(w io.Writer, p *predictor.Predictor, opts Options) (*Envelope, error) {
	st, err := p.Snapshot()
	if err != nil {
		return nil, err
	}
	return Write(w, st, opts)
}

// Load reads a snapshot from r and rebuilds the predictor.
func Load(r io.Reader, popts ...predictor.Option) (*predictor.Predictor, *Envelope, error) {
	st, env, err := Read(r)
	if err != nil {
		return nil, nil, err
	}
	p, err := predictor.FromSnapshot(st, popts...)
	if err != nil {
		return nil, nil, err
	}
	return p, env, nil
}
