package ast

import (
	"fmt"
	"strings"
)

// Dump renders a node sequence as an indented tree, one node per line.
// The driver's --ast and --ast-full flags print this form.
func Dump(nodes []Node) string {
	var sb strings.Builder
	for _, node := range nodes {
		dumpNode(&sb, node, 0)
	}
	return sb.String()
}

func dumpNode(sb *strings.Builder, node Node, depth int) {
	indent := strings.Repeat("  ", depth)

	switch n := node.(type) {
	case *IntLit:
		fmt.Fprintf(sb, "%sInt %d\n", indent, n.Value)
	case *FloatLit:
		fmt.Fprintf(sb, "%sFloat %g\n", indent, n.Value)
	case *StringLit:
		fmt.Fprintf(sb, "%sString %q\n", indent, n.Value)
	case *BoolLit:
		fmt.Fprintf(sb, "%sBool %t\n", indent, n.Value)

	case *Ident:
		fmt.Fprintf(sb, "%sWord %s\n", indent, n.String())

	case *ListLit:
		fmt.Fprintf(sb, "%sList\n", indent)
		for _, item := range n.Items {
			dumpNode(sb, item, depth+1)
		}

	case *QuotationLit:
		fmt.Fprintf(sb, "%sQuotation\n", indent)
		for _, item := range n.Body {
			dumpNode(sb, item, depth+1)
		}

	case *Def:
		fmt.Fprintf(sb, "%sDef %s\n", indent, n.Name)
		for _, item := range n.Body {
			dumpNode(sb, item, depth+1)
		}

	case *Module:
		fmt.Fprintf(sb, "%sModule %s\n", indent, n.Name)
		for _, def := range n.Defs {
			dumpNode(sb, def, depth+1)
		}

	case *Import:
		fmt.Fprintf(sb, "%sImport %q\n", indent, n.Path)

	case *Use:
		fmt.Fprintf(sb, "%s%s\n", indent, n.String())

	default:
		fmt.Fprintf(sb, "%s%s\n", indent, node.String())
	}
}
