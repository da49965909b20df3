/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tool

import "fmt"

// action is one pending phase of a gesture.
type action[M comparable] struct {
	display         Display
	mode            M
	mouse           MouseState
	wantsAutoScroll bool
}

// actionStack holds the nested phases of the current gesture.
type actionStack[M comparable] struct {
	items []action[M]
}

func (s *actionStack[M]) push(a action[M]) { s.items = append(s.items, a) }

func (s *actionStack[M]) pop() action[M] {
	a := s.current()
	s.items = s.items[:len(s.items)-1]
	return a
}

// current panics when no action is pending.
func (s *actionStack[M]) current() action[M] {
	if len(s.items) == 0 {
		panic(fmt.Errorf("tool: no action pending"))
	}
	return s.items[len(s.items)-1]
}

func (s *actionStack[M]) len() int      { return len(s.items) }
func (s *actionStack[M]) isEmpty() bool { return len(s.items) == 0 }

// mode returns the current mode or zero when idle.
func (s *actionStack[M]) mode() M {
	var zero M
	if len(s.items) == 0 {
		return zero
	}
	return s.items[len(s.items)-1].mode
}
