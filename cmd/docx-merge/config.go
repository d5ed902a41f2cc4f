package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// jobFile is the YAML form of a merge job. Flags given on the command
// line override its values.
type jobFile struct {
	Template  string `yaml:"template"`
	Data      string `yaml:"data"`
	Pattern   string `yaml:"pattern"`
	Convert   bool   `yaml:"convert"`
	Delimiter string `yaml:"delimiter"`
	Encoding  string `yaml:"encoding"`
	OutputDir string `yaml:"output_dir"`
	RawValues bool   `yaml:"raw_values"`
	Soffice   string `yaml:"soffice"`
}

func loadJobFile(path string) (*jobFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var jf jobFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&jf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &jf, nil
}
