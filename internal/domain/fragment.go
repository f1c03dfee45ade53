package domain

// GraphFragment is a portion of the store for export: devices with their
// entity nodes and the membership edges between them
type GraphFragment struct {
	Devices []Device `json:"devices"`
	Nodes   []Node   `json:"nodes"`
	Edges   []Edge   `json:"edges"`
}

// NewGraphFragment creates an empty graph fragment
func NewGraphFragment() *GraphFragment {
	return &GraphFragment{
		Devices: make([]Device, 0),
		Nodes:   make([]Node, 0),
		Edges:   make([]Edge, 0),
	}
}

// AddDevice adds a device to the fragment
func (g *GraphFragment) AddDevice(device Device) {
	g.Devices = append(g.Devices, device)
}

// AddNode adds a node to the fragment
func (g *GraphFragment) AddNode(node Node) {
	g.Nodes = append(g.Nodes, node)
}

// AddEdge adds an edge to the fragment
func (g *GraphFragment) AddEdge(edge Edge) {
	g.Edges = append(g.Edges, edge)
}
