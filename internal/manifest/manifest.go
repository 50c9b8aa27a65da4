// Package manifest loads, validates and stamps the extension manifest.
package manifest

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	perrors "github.com/dosanma1/crxpack/internal/errors"
	"github.com/dosanma1/crxpack/pkg/xos"
)

//go:embed schema/manifest.schema.json
var schemaFS embed.FS

// Manifest is a manifest.json document. Keys keep the order they had in the
// file.
type Manifest struct {
	Name          string
	Version       string
	DefaultLocale string

	keys   []string
	fields map[string]json.RawMessage
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, perrors.ManifestInvalid(path, err)
	}
	m, err := Parse(data)
	if err != nil {
		if pe, ok := perrors.As(err); ok {
			return nil, pe.WithContext("path", path)
		}
		return nil, perrors.ManifestInvalid(path, err)
	}
	return m, nil
}

// Parse validates data against the manifest schema and decodes it.
func Parse(data []byte) (*Manifest, error) {
	if err := validate(data); err != nil {
		return nil, err
	}

	m, err := decodeOrdered(data)
	if err != nil {
		return nil, perrors.Wrap(err, perrors.CategoryConfig, "invalid manifest")
	}

	if err := m.readTyped(); err != nil {
		return nil, err
	}
	if _, err := ParseVersion(m.Version); err != nil {
		return nil, err
	}
	return m, nil
}

func validate(data []byte) error {
	schema, err := schemaFS.ReadFile("schema/manifest.schema.json")
	if err != nil {
		return perrors.Wrap(err, perrors.CategoryInternal, "failed to load manifest schema")
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return perrors.Wrap(err, perrors.CategoryConfig, "invalid manifest")
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return perrors.Wrap(errors.New(strings.Join(msgs, "; ")), perrors.CategoryConfig, "invalid manifest")
}

func (m *Manifest) readTyped() error {
	for key, dst := range map[string]*string{
		"name":           &m.Name,
		"version":        &m.Version,
		"default_locale": &m.DefaultLocale,
	} {
		raw, ok := m.fields[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return perrors.Wrap(err, perrors.CategoryConfig, "invalid manifest").WithContext("key", key)
		}
	}
	return nil
}

// Keys returns the top-level keys in document order.
func (m *Manifest) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Get returns the raw JSON value of a top-level key.
func (m *Manifest) Get(key string) (json.RawMessage, bool) {
	raw, ok := m.fields[key]
	return raw, ok
}

// BumpBuild returns a copy whose build number, the last version component,
// is one higher. m is not changed.
func (m *Manifest) BumpBuild() (*Manifest, error) {
	v, err := ParseVersion(m.Version)
	if err != nil {
		return nil, err
	}
	next, err := v.Bump()
	if err != nil {
		return nil, err
	}

	out := m.clone()
	out.Version = next.String()
	raw, err := json.Marshal(out.Version)
	if err != nil {
		return nil, perrors.Wrap(err, perrors.CategoryInternal, "failed to encode version")
	}
	out.set("version", raw)
	return out, nil
}

// Marshal encodes the manifest with two-space indentation, keys in document
// order and a trailing newline.
func (m *Manifest) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  ")
		name, err := encodeKey(key)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteString(": ")
		if err := json.Indent(&buf, m.fields[key], "  ", "  "); err != nil {
			return nil, fmt.Errorf("failed to indent %q: %w", key, err)
		}
	}
	if len(m.keys) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// Save writes the manifest atomically.
func (m *Manifest) Save(path string) error {
	data, err := m.Marshal()
	if err != nil {
		return perrors.Wrap(err, perrors.CategoryInternal, "failed to encode manifest")
	}
	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := xos.WriteFile(path, data, perm); err != nil {
		return perrors.Wrap(err, perrors.CategoryFileSystem, "failed to write manifest").WithContext("path", path)
	}
	return nil
}

func (m *Manifest) clone() *Manifest {
	out := *m
	out.keys = append([]string(nil), m.keys...)
	out.fields = make(map[string]json.RawMessage, len(m.fields))
	for k, v := range m.fields {
		out.fields[k] = v
	}
	return &out
}

func (m *Manifest) set(key string, raw json.RawMessage) {
	if _, ok := m.fields[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.fields[key] = raw
}

func encodeKey(key string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(key); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
