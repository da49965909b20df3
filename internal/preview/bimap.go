/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package preview

import "fmt"

// BiMap is a one-to-one mapping that keeps both directions in sync.
// Iteration follows insertion order.
type BiMap[K comparable, V comparable] struct {
	fwd  map[K]V
	rev  map[V]K
	keys []K
}

func NewBiMap[K comparable, V comparable]() *BiMap[K, V] {
	return &BiMap[K, V]{fwd: make(map[K]V), rev: make(map[V]K)}
}

// Put adds the pair k↔v. Reusing a key or value panics.
func (m *BiMap[K, V]) Put(k K, v V) {
	if _, ok := m.fwd[k]; ok {
		panic(fmt.Sprintf("bimap: key %v already mapped", k))
	}
	if _, ok := m.rev[v]; ok {
		panic(fmt.Sprintf("bimap: value %v already mapped", v))
	}
	m.fwd[k] = v
	m.rev[v] = k
	m.keys = append(m.keys, k)
}

func (m *BiMap[K, V]) Value(k K) (V, bool) {
	v, ok := m.fwd[k]
	return v, ok
}

func (m *BiMap[K, V]) Key(v V) (K, bool) {
	k, ok := m.rev[v]
	return k, ok
}

// Delete removes the pair of k in both directions.
func (m *BiMap[K, V]) Delete(k K) {
	v, ok := m.fwd[k]
	if !ok {
		return
	}
	delete(m.fwd, k)
	delete(m.rev, v)
	for i, kk := range m.keys {
		if kk == k {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

func (m *BiMap[K, V]) Len() int { return len(m.fwd) }

// Keys returns the keys in insertion order.
func (m *BiMap[K, V]) Keys() []K { return append([]K(nil), m.keys...) }

// Range calls fn for each pair in insertion order until fn returns false.
func (m *BiMap[K, V]) Range(fn func(k K, v V) bool) {
	for _, k := range m.keys {
		if !fn(k, m.fwd[k]) {
			return
		}
	}
}

// Clear empties both directions at once.
func (m *BiMap[K, V]) Clear() {
	m.fwd = make(map[K]V)
	m.rev = make(map[V]K)
	m.keys = nil
}

// Consistent reports whether both directions mirror each other.
func (m *BiMap[K, V]) Consistent() bool {
	if len(m.fwd) != len(m.rev) || len(m.keys) != len(m.fwd) {
		return false
	}
	for k, v := range m.fwd {
		if back, ok := m.rev[v]; !ok || back != k {
			return false
		}
	}
	return true
}
