package ast

import (
	"kaulin/internal/span"
)

// NodeToMap converts an AST node to a map suitable for JSON serialization.
// This produces a tagged-union structure: every node has a "kind" field.
func NodeToMap(node Node) map[string]any {
	if node == nil {
		return nil
	}

	switch n := node.(type) {
	case *Program:
		return m("Program", n.Span, "body", stmtSlice(n.Body))

	// ---- Statements ----
	case *VarDeclaration:
		result := m("VarDeclaration", n.Span, "name", n.Name, "constant", n.Constant)
		if n.Value != nil {
			result["value"] = NodeToMap(n.Value)
		}
		return result
	case *FunctionDeclaration:
		return m("FunctionDeclaration", n.Span,
			"name", n.Name,
			"params", n.Params,
			"body", blockToMap(n.Body))
	case *WhileLoop:
		return m("WhileLoop", n.Span,
			"condition", NodeToMap(n.Condition),
			"body", blockToMap(n.Body))
	case *ForLoop:
		result := m("ForLoop", n.Span,
			"condition", NodeToMap(n.Condition),
			"increment", NodeToMap(n.Increment),
			"body", blockToMap(n.Body))
		if n.Init != nil {
			result["init"] = NodeToMap(n.Init)
		}
		return result
	case *ExpressionStatement:
		return m("ExpressionStatement", n.Span, "expr", NodeToMap(n.Expr))

	// ---- Expressions ----
	case *Identifier:
		return m("Identifier", n.Span, "symbol", n.Symbol)
	case *NumericLiteral:
		return m("NumericLiteral", n.Span, "value", n.Value)
	case *FloatLiteral:
		return m("FloatLiteral", n.Span, "value", n.Value)
	case *StringLiteral:
		return m("StringLiteral", n.Span, "value", n.Value)
	case *ArrayLiteral:
		return m("ArrayLiteral", n.Span, "elements", exprSlice(n.Elements))
	case *ObjectLiteral:
		props := make([]any, len(n.Properties))
		for i, p := range n.Properties {
			entry := map[string]any{
				"kind": "Property",
				"span": spanToMap(p.Span),
				"key":  p.Key,
			}
			if p.Value != nil {
				entry["value"] = NodeToMap(p.Value)
			}
			props[i] = entry
		}
		return m("ObjectLiteral", n.Span, "properties", props)
	case *BinaryExpr:
		return m("BinaryExpr", n.Span,
			"op", n.Op.String(),
			"left", NodeToMap(n.Left),
			"right", NodeToMap(n.Right))
	case *UnaryExpr:
		return m("UnaryExpr", n.Span, "op", n.Op.String(), "operand", NodeToMap(n.Operand))
	case *AssignmentExpr:
		return m("AssignmentExpr", n.Span,
			"assignee", NodeToMap(n.Assignee),
			"value", NodeToMap(n.Value))
	case *MemberExpr:
		return m("MemberExpr", n.Span,
			"object", NodeToMap(n.Object),
			"property", NodeToMap(n.Property),
			"computed", n.Computed)
	case *CallExpr:
		return m("CallExpr", n.Span,
			"callee", NodeToMap(n.Callee),
			"args", exprSlice(n.Args))
	case *IfElseExpr:
		result := m("IfElseExpr", n.Span,
			"condition", NodeToMap(n.Condition),
			"then", blockToMap(n.Then))
		if n.Else != nil {
			result["else"] = blockToMap(n.Else)
		}
		return result

	default:
		return map[string]any{"kind": "Unknown"}
	}
}

// ---- helpers ----

// m builds a map with kind, span, and extra key-value pairs.
func m(kind string, s span.Span, kvs ...any) map[string]any {
	result := map[string]any{
		"kind": kind,
		"span": spanToMap(s),
	}
	for i := 0; i+1 < len(kvs); i += 2 {
		key := kvs[i].(string)
		result[key] = kvs[i+1]
	}
	return result
}

func spanToMap(s span.Span) map[string]any {
	return map[string]any{
		"start": map[string]any{
			"offset": s.Start.Offset,
			"line":   s.Start.Line,
			"column": s.Start.Column,
		},
		"end": map[string]any{
			"offset": s.End.Offset,
			"line":   s.End.Line,
			"column": s.End.Column,
		},
	}
}

func blockToMap(b *Block) map[string]any {
	if b == nil {
		return nil
	}
	return m("Block", b.Span, "stmts", stmtSlice(b.Stmts))
}

func stmtSlice(stmts []Stmt) []any {
	result := make([]any, len(stmts))
	for i, s := range stmts {
		result[i] = NodeToMap(s)
	}
	return result
}

func exprSlice(exprs []Expr) []any {
	result := make([]any, len(exprs))
	for i, e := range exprs {
		result[i] = NodeToMap(e)
	}
	return result
}
