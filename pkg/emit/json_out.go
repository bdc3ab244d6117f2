package emit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// JSONOptions controls JSON sample output.
type JSONOptions struct {
	// Indent is the number of spaces per level; zero emits compact JSON.
	Indent int `json:"indent,omitempty" yaml:"indent,omitempty"`

	// Lines emits one instance per line (JSONL) instead of a JSON array.
	Lines bool `json:"lines,omitempty" yaml:"lines,omitempty"`

	// ShardSize splits file output into numbered shards of at most this
	// many instances; zero writes a single file.
	ShardSize int `json:"shardSize,omitempty" yaml:"shardSize,omitempty"`

	// Select is a JSONPath expression projected over each instance before
	// encoding. One match emits the bare value, several emit an array.
	Select string `json:"select,omitempty" yaml:"select,omitempty"`
}

// JSONEmitter encodes instances with a fixed option set. Map keys encode in
// sorted order and decimals keep their quantized rendering, so equal inputs
// produce byte-identical output.
type JSONEmitter struct {
	opts     JSONOptions
	selector jp.Expr
}

// NewJSONEmitter validates the options; a malformed Select expression is a
// configuration error.
func NewJSONEmitter(opts JSONOptions) (*JSONEmitter, error) {
	e := &JSONEmitter{opts: opts}
	if opts.Select != "" {
		expr, err := jp.ParseString(opts.Select)
		if err != nil {
			return nil, fmt.Errorf("invalid select expression %q: %w", opts.Select, err)
		}
		e.selector = expr
	}
	return e, nil
}

// EmitTo writes instances to a stream, as a JSON array or as JSONL.
func (e *JSONEmitter) EmitTo(w io.Writer, instances []map[string]any) error {
	data, err := e.render(instances)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// EmitFile writes instances to path, splitting into "-NNNNN" suffixed shards
// when ShardSize is set. The written file paths are returned in order.
func (e *JSONEmitter) EmitFile(path string, instances []map[string]any) ([]string, error) {
	if e.opts.ShardSize <= 0 || len(instances) <= e.opts.ShardSize {
		data, err := e.render(instances)
		if err != nil {
			return nil, err
		}
		if err := WriteFileAtomic(path, data); err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	var written []string
	for shard := 0; shard*e.opts.ShardSize < len(instances); shard++ {
		lo := shard * e.opts.ShardSize
		hi := lo + e.opts.ShardSize
		if hi > len(instances) {
			hi = len(instances)
		}
		data, err := e.render(instances[lo:hi])
		if err != nil {
			return nil, err
		}
		shardPath := fmt.Sprintf("%s-%05d%s", stem, shard, ext)
		if err := WriteFileAtomic(shardPath, data); err != nil {
			return nil, err
		}
		written = append(written, shardPath)
	}
	return written, nil
}

func (e *JSONEmitter) render(instances []map[string]any) ([]byte, error) {
	values := make([]any, len(instances))
	for i, instance := range instances {
		value, err := e.project(instance)
		if err != nil {
			return nil, err
		}
		values[i] = value
	}

	if e.opts.Lines {
		var buf bytes.Buffer
		for _, value := range values {
			line, err := e.encode(value)
			if err != nil {
				return nil, err
			}
			buf.Write(line)
			buf.WriteByte('\n')
		}
		return buf.Bytes(), nil
	}

	data, err := e.encode(values)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// project applies the Select expression. The instance round-trips through
// the fast JSON parser first so path evaluation sees plain JSON shapes
// rather than engine-internal number types.
func (e *JSONEmitter) project(instance map[string]any) (any, error) {
	if e.selector == nil {
		return instance, nil
	}
	raw, err := json.Marshal(instance)
	if err != nil {
		return nil, fmt.Errorf("encode instance: %w", err)
	}
	var data any
	if err := oj.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("reparse instance: %w", err)
	}
	results := e.selector.Get(data)
	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

func (e *JSONEmitter) encode(value any) ([]byte, error) {
	if e.opts.Indent > 0 {
		return json.MarshalIndent(value, "", strings.Repeat(" ", e.opts.Indent))
	}
	return json.Marshal(value)
}
