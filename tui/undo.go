// ABOUTME: Undo/redo stack manager for settings panel edits
// ABOUTME: Manages settings snapshots with maximum stack size limit

package tui

import (
	"maps"

	"scrollspeed/config"
)

// SettingsState captures a snapshot of the edited settings for undo/redo
type SettingsState struct {
	Settings config.Settings
	Selected int
}

// clone copies the override table so later edits cannot reach the snapshot
func (s SettingsState) clone() SettingsState {
	s.Settings.Overrides = maps.Clone(s.Settings.Overrides)
	return s
}

// UndoManager manages undo/redo stacks with maximum size limit
type UndoManager struct {
	undoStack []SettingsState
	redoStack []SettingsState
	maxSize   int
}

// NewUndoManager creates a new undo manager with the specified max stack size
func NewUndoManager(maxSize int) *UndoManager {
	return &UndoManager{
		undoStack: []SettingsState{},
		redoStack: []SettingsState{},
		maxSize:   maxSize,
	}
}

// Push saves a new state to the undo stack
// Clears the redo stack (you can't redo after a new action)
func (um *UndoManager) Push(state SettingsState) {
	um.undoStack = pushBounded(um.undoStack, state.clone(), um.maxSize)
	um.redoStack = []SettingsState{}
}

// Undo restores the previous state
// Returns the state and true if undo was successful, or zero value and false if nothing to undo
func (um *UndoManager) Undo(currentState SettingsState) (SettingsState, bool) {
	if len(um.undoStack) == 0 {
		return SettingsState{}, false
	}

	um.redoStack = pushBounded(um.redoStack, currentState.clone(), um.maxSize)

	state := um.undoStack[len(um.undoStack)-1]
	um.undoStack = um.undoStack[:len(um.undoStack)-1]
	return state, true
}

// Redo restores the next state
// Returns the state and true if redo was successful, or zero value and false if nothing to redo
func (um *UndoManager) Redo(currentState SettingsState) (SettingsState, bool) {
	if len(um.redoStack) == 0 {
		return SettingsState{}, false
	}

	um.undoStack = pushBounded(um.undoStack, currentState.clone(), um.maxSize)

	state := um.redoStack[len(um.redoStack)-1]
	um.redoStack = um.redoStack[:len(um.redoStack)-1]
	return state, true
}

// UndoSize returns the number of items in the undo stack
func (um *UndoManager) UndoSize() int {
	return len(um.undoStack)
}

// RedoSize returns the number of items in the redo stack
func (um *UndoManager) RedoSize() int {
	return len(um.redoStack)
}

// Clear clears both stacks
func (um *UndoManager) Clear() {
	um.undoStack = []SettingsState{}
	um.redoStack = []SettingsState{}
}

func pushBounded(stack []SettingsState, s SettingsState, maxSize int) []SettingsState {
	stack = append(stack, s)
	if maxSize > 0 && len(stack) > maxSize {
		stack = stack[1:]
	}
	return stack
}
