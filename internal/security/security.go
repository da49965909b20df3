/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package security decides which edit operations a user may perform on
// which shapes.
package security

import (
	"fmt"
	"strings"
	"sync"

	"godiagram/internal/diagram"
)

// Permission is a bit set of edit rights.
type Permission uint8

const (
	Layout Permission = 1 << iota
	Insert
	Delete
	Connect
	ModifyData
	Present

	None Permission = 0
	All             = Layout | Insert | Delete | Connect | ModifyData | Present
)

var permissionNames = []struct {
	p    Permission
	name string
}{
	{Layout, "layout"},
	{Insert, "insert"},
	{Delete, "delete"},
	{Connect, "connect"},
	{ModifyData, "modify_data"},
	{Present, "present"},
}

func (p Permission) String() string {
	if p == None {
		return "none"
	}
	var parts []string
	for _, pn := range permissionNames {
		if p&pn.p != 0 {
			parts = append(parts, pn.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParsePermission reads names separated by '|' or ','.
func ParsePermission(s string) (Permission, error) {
	var out Permission
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		part = strings.TrimSpace(strings.ToLower(part))
		found := false
		for _, pn := range permissionNames {
			if pn.name == part {
				out |= pn.p
				found = true
				break
			}
		}
		if !found {
			return None, fmt.Errorf("unknown permission %q", part)
		}
	}
	return out, nil
}

// Manager is consulted before gestures start and again before commands execute.
type Manager interface {
	// IsGranted reports whether p is granted for every given shape. Without
	// shapes the role's general rights apply.
	IsGranted(p Permission, shapes ...diagram.Shape) bool
}

// PermissionError reports a denied command.
type PermissionError struct {
	Permission Permission
	Shape      diagram.Shape
}

func (e *PermissionError) Error() string {
	if e.Shape != nil {
		return fmt.Sprintf("permission denied: %s on %s #%d", e.Permission, e.Shape.Type().Name, e.Shape.ID())
	}
	return fmt.Sprintf("permission denied: %s", e.Permission)
}

// Role names a fixed set of permissions.
type Role string

const (
	Administrator Role = "administrator"
	SuperUser     Role = "superuser"
	Designer      Role = "designer"
	Operator      Role = "operator"
	Guest         Role = "guest"
)

var roleTable = map[Role]Permission{
	Administrator: All,
	SuperUser:     All,
	Designer:      Layout | Insert | Delete | Connect | ModifyData | Present,
	Operator:      ModifyData | Present,
	Guest:         Present,
}

// ParseRole accepts a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := roleTable[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// RoleManager grants by role and supports per-shape denials.
type RoleManager struct {
	mu   sync.RWMutex
	role Role
	deny map[diagram.Shape]Permission
}

func NewRoleManager(role Role) *RoleManager {
	if _, ok := roleTable[role]; !ok {
		role = Guest
	}
	return &RoleManager{role: role, deny: make(map[diagram.Shape]Permission)}
}

func (m *RoleManager) Role() Role {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.role
}

func (m *RoleManager) SetRole(r Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.role = r
}

// Deny revokes p for a single shape.
func (m *RoleManager) Deny(s diagram.Shape, p Permission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deny[s] |= p
}

// Allow removes a previous Deny.
func (m *RoleManager) Allow(s diagram.Shape, p Permission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deny[s] &^= p
	if m.deny[s] == None {
		delete(m.deny, s)
	}
}

func (m *RoleManager) IsGranted(p Permission, shapes ...diagram.Shape) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if roleTable[m.role]&p != p {
		return false
	}
	for _, s := range shapes {
		if s == nil {
			continue
		}
		// denials on a parent apply to its children
		for cur := s; cur != nil; cur = cur.Parent() {
			if m.deny[cur]&p != 0 {
				return false
			}
		}
	}
	return true
}

// Check returns a *PermissionError for the first shape p is denied on.
func Check(m Manager, p Permission, shapes ...diagram.Shape) error {
	if m == nil || p == None {
		return nil
	}
	if !m.IsGranted(p) {
		return &PermissionError{Permission: p}
	}
	for _, s := range shapes {
		if !m.IsGranted(p, s) {
			return &PermissionError{Permission: p, Shape: s}
		}
	}
	return nil
}
