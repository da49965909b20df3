/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Parse decodes a script and validates its steps. Unknown keys are errors.
func Parse(data []byte) (*Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var s Script
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("script is empty")
		}
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ReadFile loads and parses the script at path.
func ReadFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func (s *Script) validate() error {
	if s.Diagram.Width < 0 || s.Diagram.Height < 0 {
		return fmt.Errorf("diagram size must not be negative")
	}
	ids := map[string]bool{}
	for i, sh := range s.Shapes {
		if sh.Template == "" {
			return fmt.Errorf("shape %d: template is required", i+1)
		}
		if sh.ID != "" {
			if ids[sh.ID] {
				return fmt.Errorf("shape %d: duplicate id %q", i+1, sh.ID)
			}
			ids[sh.ID] = true
		}
	}
	for i, sh := range s.Shapes {
		for _, c := range sh.Connect {
			if !ids[c.To] {
				return fmt.Errorf("shape %d: connection to unknown shape %q", i+1, c.To)
			}
		}
	}
	for i := range s.Steps {
		if _, err := s.Steps[i].action(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}
