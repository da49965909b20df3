/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package library

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed template.schema.json
var schemaJSON []byte

// File is the on-disk template collection.
type File struct {
	Templates []Template `json:"templates" yaml:"templates"`
}

// ValidationError lists the schema violations of a template file.
type ValidationError struct {
	Path     string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %d schema violation(s): %s", e.Path, len(e.Problems), strings.Join(e.Problems, "; "))
}

// ReadFile reads and validates a template file. YAML is used for .yaml and
// .yml files, JSON otherwise.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	isYAML := false
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		isYAML = true
	}
	return parse(path, data, isYAML)
}

func parse(path string, data []byte, isYAML bool) (*File, error) {
	var doc gojsonschema.JSONLoader
	if isYAML {
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		// the schema validator needs JSON types
		j, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		doc = gojsonschema.NewBytesLoader(j)
	} else {
		doc = gojsonschema.NewBytesLoader(data)
	}
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), doc)
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	if !res.Valid() {
		ve := &ValidationError{Path: path}
		for _, e := range res.Errors() {
			ve.Problems = append(ve.Problems, e.String())
		}
		return nil, ve
	}
	var f File
	if isYAML {
		err = yaml.Unmarshal(data, &f)
	} else {
		err = json.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &f, nil
}

// LoadFile reads a template file and registers every template in it.
// Nothing is registered when one of them is rejected.
func (r *Registry) LoadFile(path string) error {
	f, err := ReadFile(path)
	if err != nil {
		return err
	}
	staged := NewRegistry()
	for _, t := range f.Templates {
		if _, ok := r.byName[t.Name]; ok {
			return fmt.Errorf("%s: %w: %s", path, ErrDuplicate, t.Name)
		}
		if err := staged.Add(t); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	for _, t := range staged.order {
		r.byName[t.Name] = t
		r.order = append(r.order, t)
	}
	return nil
}
