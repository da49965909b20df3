/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tool

// Settings are the tool options shared by all tools. Distances are screen
// pixels and are converted to diagram units through the display.
type Settings struct {
	MinRotateRange    int
	EnableQuickRotate bool
	GripSize          int
	DragThreshold     int
}

func DefaultSettings() Settings {
	return Settings{MinRotateRange: 30, EnableQuickRotate: true, GripSize: 3, DragThreshold: 2}
}
