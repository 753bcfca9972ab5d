package treesearch

// Test fakes for the host boundary. The real host lives in pkg/model and
// pkg/ui; the engine tests use a minimal arena so they exercise only the
// Tree contract.

type fakeNode struct {
	parent    NodeID
	children  []NodeID
	label     string
	visible   bool
	collapsed bool
	hook      PaintHook
}

type fakeTree struct {
	nodes    map[NodeID]*fakeNode
	root     NodeID
	next     NodeID
	selected NodeID

	scrolled []NodeID
	redraws  int
}

func newFakeTree() *fakeTree {
	return &fakeTree{
		nodes:    make(map[NodeID]*fakeNode),
		root:     NoNode,
		selected: NoNode,
	}
}

func (f *fakeTree) addRoot(label string) NodeID {
	id := f.next
	f.next++
	f.nodes[id] = &fakeNode{parent: NoNode, label: label, visible: true}
	f.root = id
	return id
}

func (f *fakeTree) add(parent NodeID, label string) NodeID {
	id := f.next
	f.next++
	f.nodes[id] = &fakeNode{parent: parent, label: label, visible: true}
	f.nodes[parent].children = append(f.nodes[parent].children, id)
	return id
}

func (f *fakeTree) remove(id NodeID) {
	n := f.nodes[id]
	if n == nil {
		return
	}
	if p := f.nodes[n.parent]; p != nil {
		for i, c := range p.children {
			if c == id {
				p.children = append(p.children[:i], p.children[i+1:]...)
				break
			}
		}
	}
	var drop func(NodeID)
	drop = func(cur NodeID) {
		for _, c := range f.nodes[cur].children {
			drop(c)
		}
		delete(f.nodes, cur)
	}
	drop(id)
	if f.root == id {
		f.root = NoNode
	}
}

func (f *fakeTree) Root() NodeID { return f.root }

func (f *fakeTree) Parent(n NodeID) NodeID {
	if fn := f.nodes[n]; fn != nil {
		return fn.parent
	}
	return NoNode
}

func (f *fakeTree) Children(n NodeID) []NodeID {
	if fn := f.nodes[n]; fn != nil {
		return fn.children
	}
	return nil
}

func (f *fakeTree) Label(n NodeID) string {
	if fn := f.nodes[n]; fn != nil {
		return fn.label
	}
	return ""
}

func (f *fakeTree) IconWidth(n NodeID) float64 { return 1 }

func (f *fakeTree) PaintHook(n NodeID) PaintHook {
	if fn := f.nodes[n]; fn != nil {
		return fn.hook
	}
	return nil
}

func (f *fakeTree) SetPaintHook(n NodeID, h PaintHook) {
	if fn := f.nodes[n]; fn != nil {
		fn.hook = h
	}
}

func (f *fakeTree) SetVisible(n NodeID, visible bool) {
	if fn := f.nodes[n]; fn != nil {
		fn.visible = visible
	}
}

func (f *fakeTree) SetCollapsed(n NodeID, collapsed bool) {
	if fn := f.nodes[n]; fn != nil {
		fn.collapsed = collapsed
	}
}

func (f *fakeTree) Select(n NodeID) {
	if f.nodes[n] == nil {
		f.selected = NoNode
		return
	}
	f.selected = n
}

func (f *fakeTree) Selected() NodeID { return f.selected }

func (f *fakeTree) ScrollTo(n NodeID) {
	f.scrolled = append(f.scrolled, n)
}

func (f *fakeTree) RequestRedraw() { f.redraws++ }

func (f *fakeTree) visibleCount() int {
	count := 0
	for _, n := range f.nodes {
		if n.visible {
			count++
		}
	}
	return count
}

func (f *fakeTree) hookCount() int {
	count := 0
	for _, n := range f.nodes {
		if n.hook != nil {
			count++
		}
	}
	return count
}

type fakePanel struct {
	query   string
	mode    Mode
	visible bool
}

func (p *fakePanel) Query() string { return p.query }
func (p *fakePanel) Mode() Mode    { return p.mode }
func (p *fakePanel) Visible() bool { return p.visible }

// cellMetrics measures like a terminal: every rune is one cell wide, rows
// are one cell tall.
type cellMetrics struct{}

func (cellMetrics) StringWidth(s string, size float64) float64 {
	return float64(len([]rune(s)))
}

func (cellMetrics) Ascent(size float64) float64  { return 1 }
func (cellMetrics) Descent(size float64) float64 { return 0 }
func (cellMetrics) HSeparation() float64         { return 1 }
func (cellMetrics) RectPad() (float64, float64)  { return 0, 0 }

type paintOp struct {
	kind string // "rect" or "text"
	rect Rect
	text string
	x, y float64
	role StyleRole
	size float64
}

type fakePainter struct {
	ops []paintOp
}

func (p *fakePainter) Metrics() Metrics { return cellMetrics{} }

func (p *fakePainter) FillRect(r Rect, role StyleRole) {
	p.ops = append(p.ops, paintOp{kind: "rect", rect: r, role: role})
}

func (p *fakePainter) Text(x, y float64, s string, role StyleRole, size float64) {
	p.ops = append(p.ops, paintOp{kind: "text", text: s, x: x, y: y, role: role, size: size})
}

// markerHook stands in for a decoration some other component installed
// before the search engine touched the row.
type markerHook struct {
	painted []NodeID
}

func (m *markerHook) Paint(p Painter, n NodeID, row Row) {
	m.painted = append(m.painted, n)
	p.Text(row.X, row.Y, "marker", StyleCountBadge, row.FontSize)
}

// fixtureTree builds the standard outline used across engine tests:
//
//	Project Atlas
//	├── Backlog
//	│   ├── Fix timer drift
//	│   ├── TimeLimit 2 sec
//	│   └── Sequence
//	│       └── Limit retries
//	├── Docs
//	│   └── Time tracking notes
//	└── Archive
func fixtureTree() (*fakeTree, map[string]NodeID) {
	f := newFakeTree()
	ids := make(map[string]NodeID)

	ids["root"] = f.addRoot("Project Atlas")
	ids["backlog"] = f.add(ids["root"], "Backlog")
	ids["drift"] = f.add(ids["backlog"], "Fix timer drift")
	ids["timelimit"] = f.add(ids["backlog"], "TimeLimit 2 sec")
	ids["sequence"] = f.add(ids["backlog"], "Sequence")
	ids["retries"] = f.add(ids["sequence"], "Limit retries")
	ids["docs"] = f.add(ids["root"], "Docs")
	ids["tracking"] = f.add(ids["docs"], "Time tracking notes")
	ids["archive"] = f.add(ids["root"], "Archive")

	return f, ids
}
