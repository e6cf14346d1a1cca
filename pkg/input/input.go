// Package input loads trip exports, charge logs and settings documents from
// files or streams.
package input

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/tripstats/core/model"
)

// Stdin is the path that reads from standard input.
const Stdin = "-"

func read(path string) ([]byte, error) {
	if path == Stdin {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// LoadTrips reads a JSON array of trips. Malformed entries come back as nil.
func LoadTrips(path string) ([]*model.Trip, error) {
	data, err := read(path)
	if err != nil {
		return nil, err
	}
	return model.DecodeTrips(data)
}

// LoadCharges reads a JSON array of charges. An empty path means no charges.
func LoadCharges(path string) ([]model.Charge, error) {
	if path == "" {
		return nil, nil
	}
	data, err := read(path)
	if err != nil {
		return nil, err
	}
	return model.DecodeCharges(data)
}

// LoadSettings reads a YAML or JSON settings document, chosen by extension.
// An empty path returns zero settings.
func LoadSettings(path string) (model.Settings, error) {
	if path == "" {
		return model.Settings{}, nil
	}
	data, err := read(path)
	if err != nil {
		return model.Settings{}, err
	}
	return DecodeSettings(data, filepath.Ext(path))
}

// DecodeSettings parses a settings document. ext selects the format; an
// unknown extension is tried as JSON first, then YAML.
func DecodeSettings(data []byte, ext string) (model.Settings, error) {
	var s model.Settings
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &s); err != nil {
			return model.Settings{}, fmt.Errorf("decode settings: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &s); err != nil {
			return model.Settings{}, fmt.Errorf("decode settings: %w", err)
		}
	default:
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '{' {
			return DecodeSettings(data, ".json")
		}
		return DecodeSettings(data, ".yaml")
	}
	return s, nil
}
