package inventory

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/inventory.yaml
var defaultDatasetRaw []byte

const (
	SourceEmbedded = "embedded"
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

type Config struct {
	Source      string `envconfig:"SOURCE" default:"embedded"`
	File        string `envconfig:"FILE"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" split_words:"true"`
}

// DefaultDataset returns the sample dataset shipped with the binary.
func DefaultDataset() (*Dataset, error) {
	return Decode(bytes.NewReader(defaultDatasetRaw))
}

// Decode reads a YAML dataset and validates it. Unknown keys are rejected.
func Decode(r io.Reader) (*Dataset, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var data Dataset
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: decode yaml: %v", ErrInvalidDataset, err)
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return &data, nil
}

func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Encode writes the dataset as YAML.
func Encode(w io.Writer, data *Dataset) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}

// Open loads the configured snapshot and wraps it in a MemoryStore.
func Open(ctx context.Context, cfg Config) (*MemoryStore, error) {
	var (
		data *Dataset
		err  error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Source)) {
	case "", SourceEmbedded:
		data, err = DefaultDataset()
	case SourceFile:
		if strings.TrimSpace(cfg.File) == "" {
			return nil, fmt.Errorf("dataset source %q requires DATASET_FILE", SourceFile)
		}
		data, err = LoadFile(cfg.File)
	case SourcePostgres:
		src, openErr := OpenPostgres(cfg.PostgresDSN)
		if openErr != nil {
			return nil, openErr
		}
		defer src.Close()
		data, err = src.Load(ctx)
	default:
		return nil, fmt.Errorf("unknown dataset source %q", cfg.Source)
	}
	if err != nil {
		return nil, err
	}
	return NewMemoryStore(data)
}
