package curriculum

import "strings"

// MaxGraphItems bounds how many content items become graph nodes.
const MaxGraphItems = 100

// Node types that are not content item types.
const (
	NodeStandard = "standard"
	NodeLesson   = "lesson"
)

// Edge weights.
const (
	WeightStrong = 1.0
	WeightWeak   = 0.5
)

// GraphNode is one vertex of the visualization graph.
type GraphNode struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Label string `json:"label"`
	Data  any    `json:"data"`
}

// GraphEdge is a directed link between two node ids.
type GraphEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// Graph is the node/link structure consumed by the visualization view.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphEdge `json:"links"`
}

type graphBuilder struct {
	graph Graph
	ids   map[string]bool
}

// add inserts n unless its id is already present. The earlier node wins.
func (b *graphBuilder) add(n GraphNode) bool {
	if b.ids[n.ID] {
		return false
	}
	b.ids[n.ID] = true
	b.graph.Nodes = append(b.graph.Nodes, n)
	return true
}

// link appends an edge when both endpoints exist.
func (b *graphBuilder) link(source, target string, weight float64) {
	if !b.ids[source] || !b.ids[target] {
		return
	}
	b.graph.Links = append(b.graph.Links, GraphEdge{Source: source, Target: target, Weight: weight})
}

// BuildGraph lays out standards, then lessons, then at most MaxGraphItems
// content items, in that order. Node-id collisions keep the first node and
// drop the later one together with its edges.
func BuildGraph(standards []Standard, lessons []Lesson, items []ContentItem) Graph {
	b := &graphBuilder{
		graph: Graph{Nodes: []GraphNode{}, Links: []GraphEdge{}},
		ids:   make(map[string]bool),
	}

	for _, s := range standards {
		b.add(GraphNode{
			ID:    StandardNodeID(s.Code),
			Type:  NodeStandard,
			Label: s.Code,
			Data:  s,
		})
	}

	for _, l := range lessons {
		label := l.Title
		if label == "" {
			label = "Lesson " + l.ID
		}
		id := LessonNodeID(l.ID)
		if !b.add(GraphNode{ID: id, Type: NodeLesson, Label: label, Data: l}) {
			continue
		}
		if l.StandardCode != "" {
			b.link(StandardNodeID(l.StandardCode), id, WeightStrong)
		}
	}

	for i, item := range items {
		if i >= MaxGraphItems {
			break
		}
		id := ItemNodeID(item)
		nodeType := strings.ToLower(item.Type)
		if nodeType == "" {
			nodeType = DefaultItemType
		}
		label := item.Title
		if label == "" {
			label = item.ID
		}
		if !b.add(GraphNode{ID: id, Type: nodeType, Label: label, Data: item}) {
			continue
		}
		if item.LessonID != "" {
			b.link(LessonNodeID(item.LessonID), id, WeightStrong)
		}
		if item.StandardCode != "" {
			b.link(StandardNodeID(item.StandardCode), id, WeightWeak)
		}
	}

	return b.graph
}

// StandardNodeID returns the graph node id of a standard code.
func StandardNodeID(code string) string { return "standard-" + code }

// LessonNodeID returns the graph node id of a lesson id.
func LessonNodeID(id string) string { return "lesson-" + id }

// ItemNodeID namespaces a content item's id by its lowercased type, or by
// "content" when it has none.
func ItemNodeID(item ContentItem) string {
	prefix := strings.ToLower(item.Type)
	if prefix == "" {
		prefix = "content"
	}
	return prefix + "-" + item.ID
}
