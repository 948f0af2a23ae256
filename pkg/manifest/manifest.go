package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cuemby/converge/pkg/config"
	"gopkg.in/yaml.v3"
)

// Document is one resource in a manifest stream
type Document struct {
	Kind       string        `yaml:"kind"`
	State      string        `yaml:"state,omitempty"`
	Connection config.Params `yaml:"connection,omitempty"`
	Spec       yaml.Node     `yaml:"spec"`

	// Index is the position of the document in its stream, starting at 0
	Index int `yaml:"-"`
}

// System returns the managed system a document's kind belongs to
func (d Document) System() (config.System, error) {
	switch {
	case strings.HasPrefix(d.Kind, "Consul"):
		return config.SystemConsul, nil
	case strings.HasPrefix(d.Kind, "Nomad"):
		return config.SystemNomad, nil
	}
	return "", fmt.Errorf("unsupported resource kind: %q", d.Kind)
}

// DecodeSpec decodes the spec into out, rejecting unknown fields
func (d Document) DecodeSpec(out any) error {
	if d.Spec.Kind == 0 {
		return nil
	}
	raw, err := yaml.Marshal(&d.Spec)
	if err != nil {
		return fmt.Errorf("failed to read spec: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid spec: %w", err)
	}
	return nil
}

// Decode reads every document of a YAML stream. Empty documents are skipped.
func Decode(r io.Reader) ([]Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var docs []Document
	for i := 0; ; i++ {
		var doc Document
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse document %d: %w", i, err)
		}
		if doc.Kind == "" && doc.Spec.Kind == 0 {
			continue
		}
		doc.Index = len(docs)
		if doc.Kind == "" {
			return nil, fmt.Errorf("document %d: kind is required", doc.Index)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// ReadFile decodes the manifest at path, or stdin when path is "-"
func ReadFile(path string) ([]Document, error) {
	if path == "-" {
		return Decode(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
