package treesearch

// SelectFirstMatch selects the first direct match in render order. No-op
// when nothing matches or no tree has been seen yet.
func (c *Controller) SelectFirstMatch() {
	if c.tree == nil || c.index.Total() == 0 {
		return
	}
	for _, n := range c.snapshot.RenderOrder() {
		if c.index.IsMatch(n) {
			c.selectNode(n)
			return
		}
	}
}

// SelectNextMatch advances the selection to the next direct match after the
// currently selected row, wrapping to the first match past the end. With no
// current selection it behaves like SelectFirstMatch.
func (c *Controller) SelectNextMatch() {
	if c.tree == nil || c.index.Total() == 0 {
		return
	}

	selected := c.tree.Selected()
	if selected == NoNode {
		c.SelectFirstMatch()
		return
	}

	if start := c.snapshot.IndexOf(selected); start >= 0 {
		order := c.snapshot.RenderOrder()
		for i := start + 1; i < len(order); i++ {
			if c.index.IsMatch(order[i]) {
				c.selectNode(order[i])
				return
			}
		}
	}

	// Wrap around.
	c.SelectFirstMatch()
}

// selectNode makes n the single selected row: every ancestor is
// un-collapsed so the row can actually appear, then the host selects it,
// scrolls it into view and repaints.
func (c *Controller) selectNode(n NodeID) {
	t := c.tree
	for anc := t.Parent(n); anc != NoNode; anc = t.Parent(anc) {
		t.SetCollapsed(anc, false)
	}
	t.Select(n)
	t.ScrollTo(n)
	t.RequestRedraw()
}
