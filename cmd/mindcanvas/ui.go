package main

import (
	"fmt"
	"io"
	"strings"

	"mindcanvas/infrastructure/persistence/document"

	"github.com/fatih/color"
)

var (
	brand  = color.New(color.FgHiCyan, color.Bold)
	subtle = color.New(color.FgHiBlack)
	good   = color.New(color.FgGreen)
	bad    = color.New(color.FgRed)
	strong = color.New(color.Bold)
)

// renderTree prints the nodes as an indented parent/child tree. Nodes whose
// parent is missing are printed as roots.
func renderTree(w io.Writer, nodes []document.NodeRecord) {
	byID := make(map[string]document.NodeRecord, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	var roots []document.NodeRecord
	for _, n := range nodes {
		if n.ParentID == nil {
			roots = append(roots, n)
			continue
		}
		if _, ok := byID[*n.ParentID]; !ok {
			roots = append(roots, n)
		}
	}

	seen := make(map[string]bool, len(nodes))
	for _, r := range roots {
		renderNode(w, r, byID, seen, "", "")
	}
}

func renderNode(w io.Writer, n document.NodeRecord, byID map[string]document.NodeRecord, seen map[string]bool, prefix, branch string) {
	if seen[n.ID] {
		return
	}
	seen[n.ID] = true

	fmt.Fprintf(w, "%s%s%s\n", prefix, branch, nodeLine(n))

	childPrefix := prefix
	switch branch {
	case "├─ ":
		childPrefix += "│  "
	case "└─ ":
		childPrefix += "   "
	}

	var children []document.NodeRecord
	for _, id := range n.Children {
		if c, ok := byID[id]; ok && !seen[id] {
			children = append(children, c)
		}
	}
	for i, c := range children {
		b := "├─ "
		if i == len(children)-1 {
			b = "└─ "
		}
		renderNode(w, c, byID, seen, childPrefix, b)
	}
}

func nodeLine(n document.NodeRecord) string {
	title := n.Title
	if n.Formatting.Bold {
		title = strong.Sprint(title)
	}

	var b strings.Builder
	if n.Completed {
		b.WriteString(good.Sprint("✓ "))
	} else {
		b.WriteString(subtle.Sprint("○ "))
	}
	b.WriteString(title)
	b.WriteString(subtle.Sprintf("  #%s", n.ID))
	if len(n.Connections) > 0 {
		b.WriteString(subtle.Sprintf("  → %s", strings.Join(n.Connections, ", ")))
	}
	if len(n.Media) > 0 {
		b.WriteString(subtle.Sprintf("  [%d media]", len(n.Media)))
	}
	return b.String()
}
