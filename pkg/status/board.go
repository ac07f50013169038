/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package status holds the single shared result line and its delayed clearing.
package status

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/carverauto/tachyon/pkg/models"
)

// ClearDelay is how long an outcome stays on screen.
const ClearDelay = 3 * time.Second

// ClearMsg asks the board to clear the outcome published with Seq.
type ClearMsg struct {
	Seq uint64
}

// Scheduler turns a delay and a callback into a command. tea.Tick satisfies it.
type Scheduler func(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd

// Board holds at most one live outcome. Publishing replaces it; clearing is keyed by sequence.
type Board struct {
	seq     uint64
	outcome models.Outcome
	visible bool
	pending bool
}

// Publish makes o the live outcome and returns its sequence number.
func (b *Board) Publish(o models.Outcome) uint64 {
	b.seq++
	b.outcome = o
	b.visible = o.Message != ""
	b.pending = true

	return b.seq
}

// Clear removes the outcome if seq is still the latest and reports whether it did.
// An outcome with an empty message is still cleared once. Stale or repeated clears are no-ops.
func (b *Board) Clear(seq uint64) bool {
	if seq != b.seq || !b.pending {
		return false
	}

	b.outcome = models.Outcome{}
	b.visible = false
	b.pending = false

	return true
}

// Current returns the live outcome and whether one is shown.
func (b *Board) Current() (models.Outcome, bool) {
	return b.outcome, b.visible
}

// Seq is the sequence number of the latest publish.
func (b *Board) Seq() uint64 {
	return b.seq
}

// ClearCmd schedules a ClearMsg for seq after ClearDelay.
func ClearCmd(seq uint64, schedule Scheduler) tea.Cmd {
	if schedule == nil {
		schedule = tea.Tick
	}

	return schedule(ClearDelay, func(time.Time) tea.Msg {
		return ClearMsg{Seq: seq}
	})
}
