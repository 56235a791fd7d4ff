package editor

import "github.com/acapella/riskhunt/internal/riskhunt"

// DefaultHistoryLimit bounds both the undo and the redo stack.
const DefaultHistoryLimit = 20

// History is a pair of bounded snapshot stacks. The cap is enforced on every
// push: once a stack holds limit entries the oldest one is evicted.
type History struct {
	limit int
	undo  []riskhunt.ZoneSet
	redo  []riskhunt.ZoneSet
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Record pushes a pre-mutation snapshot and clears the redo stack.
func (h *History) Record(before riskhunt.ZoneSet) {
	h.undo = push(h.undo, before.Clone(), h.limit)
	h.redo = nil
}

// Undo swaps current for the most recent undo snapshot. ok is false when
// there is nothing to undo.
func (h *History) Undo(current riskhunt.ZoneSet) (riskhunt.ZoneSet, bool) {
	prev, rest, ok := pop(h.undo)
	if !ok {
		return current, false
	}
	h.undo = rest
	h.redo = push(h.redo, current.Clone(), h.limit)
	return prev, true
}

func (h *History) Redo(current riskhunt.ZoneSet) (riskhunt.ZoneSet, bool) {
	next, rest, ok := pop(h.redo)
	if !ok {
		return current, false
	}
	h.redo = rest
	h.undo = push(h.undo, current.Clone(), h.limit)
	return next, true
}

func (h *History) Reset() {
	h.undo = nil
	h.redo = nil
}

func (h *History) UndoDepth() int { return len(h.undo) }
func (h *History) RedoDepth() int { return len(h.redo) }

func push(stack []riskhunt.ZoneSet, zs riskhunt.ZoneSet, limit int) []riskhunt.ZoneSet {
	stack = append(stack, zs)
	if over := len(stack) - limit; over > 0 {
		stack = append(stack[:0:0], stack[over:]...)
	}
	return stack
}

func pop(stack []riskhunt.ZoneSet) (riskhunt.ZoneSet, []riskhunt.ZoneSet, bool) {
	if len(stack) == 0 {
		return nil, stack, false
	}
	last := len(stack) - 1
	return stack[last], stack[:last], true
}
