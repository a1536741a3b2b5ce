package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

type printer struct {
	w      io.Writer
	format string
}

func newPrinter(w io.Writer, format string) (printer, error) {
	switch format {
	case outputText, outputJSON, outputYAML:
		return printer{w: w, format: format}, nil
	}
	return printer{}, fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
}

// print renders v as JSON or YAML, or calls text for the text format. YAML
// keys follow the JSON field names.
func (p printer) print(v any, text func(w io.Writer)) error {
	switch p.format {
	case outputJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		raw, err := json.Marshal(v)
		if err != nil {
			return errors.Wrap(err, "[printer] marshal")
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return errors.Wrap(err, "[printer] unmarshal")
		}
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return errors.Wrap(err, "[printer] yaml")
		}
		return enc.Close()
	}
	text(p.w)
	return nil
}
