package essay

import (
	"essaycoach/internal/domain/models/essay"
	"essaycoach/internal/domain/services"
	"essaycoach/internal/history"
	"essaycoach/internal/textstat"
)

func treeNode(f *history.Forest, n *history.Node) services.TreeNode {
	children := n.Children
	if children == nil {
		children = []string{}
	}
	return services.TreeNode{
		Version:      n.Version,
		Order:        n.Order,
		Children:     children,
		SiblingIndex: f.SiblingIndex(n.ID),
		SiblingCount: len(f.Siblings(n.ID)),
		CharCount:    textstat.CountChars(n.Content),
		Paragraphs:   textstat.CountParagraphs(n.Content),
	}
}

func treeView(e *essay.Essay, f *history.Forest) *services.Tree {
	nodes := make(map[string]services.TreeNode, f.Len())
	for _, n := range f.Chronological() {
		nodes[n.ID] = treeNode(f, n)
	}
	return &services.Tree{
		EssayID:          e.ID,
		Nodes:            nodes,
		RootIDs:          f.RootIDs,
		CurrentVersionID: e.CurrentVersionID,
	}
}

func pathView(f *history.Forest, path []*history.Node, selectedID *string, changed bool) *services.PathView {
	out := make([]services.TreeNode, len(path))
	for i, n := range path {
		out[i] = treeNode(f, n)
	}
	return &services.PathView{Path: out, SelectedID: selectedID, Changed: changed}
}
