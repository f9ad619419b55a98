// ABOUTME: Finds the element a wheel event should scroll by walking up the ancestor chain
// ABOUTME: Two tiers: root-candidate detection by scroll extent, then local overflow detection

package scroll

import (
	"errors"

	"go.uber.org/zap"
)

const (
	// OverflowTolerance is how far content must exceed its box to count as overflowing
	OverflowTolerance = 10.0

	// MaxResolveDepth bounds the ancestor walk on malformed trees
	MaxResolveDepth = 1024
)

// Resolver resolves scroll targets inside one document
type Resolver struct {
	doc      Document
	maxDepth int
	logger   *zap.Logger
}

// NewResolver creates a resolver for doc
func NewResolver(doc Document, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{doc: doc, maxDepth: MaxResolveDepth, logger: logger}
}

// Resolve returns the element to scroll for an event originating at origin, or nil
// The walk is horizontal only when the event wants x and not y.
func (r *Resolver) Resolve(origin Element, wantsX, wantsY bool) Element {
	if origin == nil {
		return nil
	}

	axis := AxisY
	if wantsX && !wantsY {
		axis = AxisX
	}

	root := r.doc.Root()
	if root == nil {
		return nil
	}
	rootExtent := root.ScrollSize(axis)

	visited := make(map[Element]struct{})
	node := origin
	for depth := 0; node != nil && depth < r.maxDepth; depth++ {
		if _, seen := visited[node]; seen {
			r.logger.Debug("resolver found a cycle", zap.Int("depth", depth))
			return nil
		}
		visited[node] = struct{}{}

		if node.ScrollSize(axis) == rootExtent {
			if r.acceptRoot(root, axis) {
				return r.doc.ScrollingElement()
			}
		} else if contentOverflows(node, axis) && r.overflowScrolls(node, axis) {
			return node
		}

		node = node.Parent()
	}

	return nil
}

// acceptRoot decides whether a root candidate really scrolls the document
func (r *Resolver) acceptRoot(root Element, axis Axis) bool {
	if r.doc.IsFrame() {
		return contentOverflows(root, axis)
	}

	notHidden := r.overflowNotHidden(root, axis)
	if body := r.doc.Body(); body != nil {
		notHidden = notHidden && r.overflowNotHidden(body, axis)
	}

	return notHidden || r.overflowScrolls(root, axis)
}

func (r *Resolver) overflowNotHidden(el Element, axis Axis) bool {
	o, err := el.ComputedOverflow(axis)
	if err != nil {
		r.styleFailure(err)
		return false
	}
	return o != OverflowHidden
}

func (r *Resolver) overflowScrolls(el Element, axis Axis) bool {
	o, err := el.ComputedOverflow(axis)
	if err != nil {
		r.styleFailure(err)
		return false
	}
	return o.Scrolls()
}

func (r *Resolver) styleFailure(err error) {
	if errors.Is(err, ErrStyleAccessDenied) {
		r.logger.Debug("computed style inaccessible, treating node as non-scrollable")
		return
	}
	r.logger.Warn("computed style lookup failed", zap.Error(err))
}

// contentOverflows reports whether el's content exceeds its box by more than the tolerance
func contentOverflows(el Element, axis Axis) bool {
	return el.ClientSize(axis)+OverflowTolerance < el.ScrollSize(axis)
}
