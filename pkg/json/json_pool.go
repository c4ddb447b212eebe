// Package json provides JSON serialization for brainless backed by
// goccy/go-json, with pooled buffers for the snapshot and CLI hot paths.
package json

import (
	"bufio"
	"bytes"
	"io"
	"sync"

	gojson "github.com/goccy/go-json"
)

// RawMessage is a raw encoded JSON value.
type RawMessage = gojson.RawMessage

// Number is a JSON number literal kept as text.
type Number = gojson.Number

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// GetBuffer gets a pooled bytes.Buffer
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 1024*1024 { // Don't pool very large buffers
		return
	}
	bufferPool.Put(buf)
}

// Marshal is a drop-in replacement for json.Marshal
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal is a drop-in replacement for json.Unmarshal
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// MarshalIndent is a drop-in replacement for json.MarshalIndent
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}

// NewDecoder returns a decoder reading from r
func NewDecoder(r io.Reader) *gojson.Decoder {
	return gojson.NewDecoder(r)
}

// MarshalToBuffer marshals v to a pooled buffer. The caller returns the
// buffer with PutBuffer.
func MarshalToBuffer(v interface{}) (*bytes.Buffer, error) {
	buf := GetBuffer()
	enc := gojson.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		PutBuffer(buf)
		return nil, err
	}
	return buf, nil
}

// DecodeObjects reads either a JSON array of objects or newline-delimited
// objects from r. The first non-space byte decides the form.
func DecodeObjects(r io.Reader) ([]map[string]interface{}, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	dec := gojson.NewDecoder(br)
	if first == '[' {
		var out []map[string]interface{}
		if err := dec.Decode(&out); err != nil {
			return nil, err
		}
		return out, nil
	}

	var out []map[string]interface{}
	for {
		var obj map[string]interface{}
		if err := dec.Decode(&obj); err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

// StreamingEncoder writes values as a JSON array or as JSON lines
type StreamingEncoder struct {
	writer      io.Writer
	encoder     *gojson.Encoder
	firstRecord bool
	isArray     bool
}

// NewStreamingEncoder creates a new streaming encoder
func NewStreamingEncoder(w io.Writer, isArray bool) (*StreamingEncoder, error) {
	enc := gojson.NewEncoder(w)
	enc.SetEscapeHTML(false)

	se := &StreamingEncoder{
		writer:      w,
		encoder:     enc,
		firstRecord: true,
		isArray:     isArray,
	}

	if isArray {
		if _, err := w.Write([]byte{'['}); err != nil {
			return nil, err
		}
	}
	return se, nil
}

// Encode encodes a single value
func (se *StreamingEncoder) Encode(v interface{}) error {
	if se.isArray {
		if !se.firstRecord {
			if _, err := se.writer.Write([]byte{','}); err != nil {
				return err
			}
		}
		se.firstRecord = false
	}
	// The encoder terminates every value with a newline, which is the
	// separator for line-delimited output.
	return se.encoder.Encode(v)
}

// Close finalizes the encoding
func (se *StreamingEncoder) Close() error {
	if se.isArray {
		_, err := se.writer.Write([]byte{']', '\n'})
		return err
	}
	return nil
}
