package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Format is a serialization format for OSCAL documents.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat converts a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format %q", name)
	}
}

// FormatFromPath guesses the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

type catalogEnvelope struct {
	Catalog *domain.Catalog `json:"catalog" yaml:"catalog"`
}

type profileEnvelope struct {
	Profile *domain.Profile `json:"profile" yaml:"profile"`
}

// DecodeCatalog parses a catalog document and restores its parent links.
func DecodeCatalog(data []byte, format Format) (*domain.Catalog, error) {
	var env catalogEnvelope
	if err := unmarshal(data, format, &env); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if env.Catalog == nil {
		return nil, fmt.Errorf("failed to parse catalog: missing \"catalog\" root")
	}
	env.Catalog.LinkParents()
	return env.Catalog, nil
}

// DecodeProfile parses a profile document.
func DecodeProfile(data []byte, format Format) (*domain.Profile, error) {
	var env profileEnvelope
	if err := unmarshal(data, format, &env); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	if env.Profile == nil {
		return nil, fmt.Errorf("failed to parse profile: missing \"profile\" root")
	}
	return env.Profile, nil
}

// EncodeCatalog serializes a catalog inside its "catalog" envelope.
func EncodeCatalog(cat *domain.Catalog, format Format) ([]byte, error) {
	return marshal(catalogEnvelope{Catalog: cat}, format)
}

// EncodeProfile serializes a profile inside its "profile" envelope.
func EncodeProfile(p *domain.Profile, format Format) ([]byte, error) {
	return marshal(profileEnvelope{Profile: p}, format)
}

func unmarshal(data []byte, format Format, v any) error {
	if format == FormatYAML {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

func marshal(v any, format Format) ([]byte, error) {
	if format == FormatYAML {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("failed to encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode json: %w", err)
	}
	return data, nil
}
