// Package ast defines the abstract syntax tree for Kaulin programs.
//
// The node set is closed: Node, Expr and Stmt carry unexported marker methods so
// only this package can add variants.
package ast

import (
	"kaulin/internal/span"
)

// ============================================================
// Node interfaces
// ============================================================

// Node is the interface implemented by all AST nodes.
type Node interface {
	nodeNode()
	GetSpan() span.Span
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// ============================================================
// Base types (embedded to provide common fields)
// ============================================================

// NodeBase provides the common Span field for all AST nodes.
type NodeBase struct {
	Span span.Span
}

func (n NodeBase) nodeNode()          {}
func (n NodeBase) GetSpan() span.Span { return n.Span }

// ExprBase is embedded by all expression nodes.
type ExprBase struct{ NodeBase }

func (ExprBase) exprNode() {}

// StmtBase is embedded by all statement nodes.
type StmtBase struct{ NodeBase }

func (StmtBase) stmtNode() {}

// ============================================================
// Operators
// ============================================================

// BinaryOperator is the closed set of binary operators.
type BinaryOperator int

const (
	Add BinaryOperator = iota
	Subtract
	Multiply
	Divide
	Exponent
	Modulus
	Equal
	NotEqual
	LessThan
	GreaterThan
	LessThanOrEqual
	GreaterThanOrEqual
	And
	Or
)

var binaryOpNames = [...]string{
	Add:                "+",
	Subtract:           "-",
	Multiply:           "*",
	Divide:             "/",
	Exponent:           "**",
	Modulus:            "%",
	Equal:              "==",
	NotEqual:           "!=",
	LessThan:           "<",
	GreaterThan:        ">",
	LessThanOrEqual:    "<=",
	GreaterThanOrEqual: ">=",
	And:                "&&",
	Or:                 "||",
}

func (op BinaryOperator) String() string {
	if int(op) >= 0 && int(op) < len(binaryOpNames) {
		return binaryOpNames[op]
	}
	return "?"
}

// UnaryOperator is the closed set of prefix operators.
type UnaryOperator int

const (
	Negate UnaryOperator = iota // -
	Not                         // !
)

func (op UnaryOperator) String() string {
	switch op {
	case Negate:
		return "-"
	case Not:
		return "!"
	default:
		return "?"
	}
}

// ============================================================
// Program and blocks
// ============================================================

// Program is the root of a parsed source file.
type Program struct {
	StmtBase
	Body []Stmt
}

// Block is an ordered statement sequence owned by a function, loop or if branch.
type Block struct {
	Span  span.Span
	Stmts []Stmt
}

// ============================================================
// Statements
// ============================================================

// VarDeclaration is `olkoon x = expr` or `vakio x = expr`.
type VarDeclaration struct {
	StmtBase
	Name     string
	Constant bool
	Value    Expr // nil when there is no initializer
}

// FunctionDeclaration is `funktio name(params) { body }`.
type FunctionDeclaration struct {
	StmtBase
	Name   string
	Params []string
	Body   *Block
}

// WhileLoop is `kun cond { body }`.
type WhileLoop struct {
	StmtBase
	Condition Expr
	Body      *Block
}

// ForLoop is `toista (i = 0; cond; incr) { body }`.
type ForLoop struct {
	StmtBase
	Init      *VarDeclaration
	Condition Expr
	Increment Expr
	Body      *Block
}

// ExpressionStatement wraps an expression used as a statement.
type ExpressionStatement struct {
	StmtBase
	Expr Expr
}

// ============================================================
// Expressions
// ============================================================

// Identifier references a binding.
type Identifier struct {
	ExprBase
	Symbol string
}

// NumericLiteral is an integer literal.
type NumericLiteral struct {
	ExprBase
	Value float64
}

// FloatLiteral is a literal with a decimal point.
type FloatLiteral struct {
	ExprBase
	Value float64
}

// StringLiteral is a quoted literal.
type StringLiteral struct {
	ExprBase
	Value string
}

// ArrayLiteral is `[a, b, c]`.
type ArrayLiteral struct {
	ExprBase
	Elements []Expr
}

// Property is one entry of an object literal. Value is nil for the shorthand `{ key }`.
type Property struct {
	Span  span.Span
	Key   string
	Value Expr
}

// ObjectLiteral is `{ key: value, other }`.
type ObjectLiteral struct {
	ExprBase
	Properties []Property
}

// BinaryExpr is `left op right`, including the logical operators.
type BinaryExpr struct {
	ExprBase
	Op    BinaryOperator
	Left  Expr
	Right Expr
}

// UnaryExpr is `-x` or `!x`.
type UnaryExpr struct {
	ExprBase
	Op      UnaryOperator
	Operand Expr
}

// AssignmentExpr is `assignee = value`. Compound forms are desugared by the parser.
type AssignmentExpr struct {
	ExprBase
	Assignee Expr
	Value    Expr
}

// MemberExpr is `object.property` or, when Computed, `object[property]`.
type MemberExpr struct {
	ExprBase
	Object   Expr
	Property Expr
	Computed bool
}

// CallExpr is `callee(args)`.
type CallExpr struct {
	ExprBase
	Callee Expr
	Args   []Expr
}

// IfElseExpr is `jos cond { then } muuten { else }`. Else is nil without a muuten branch.
type IfElseExpr struct {
	ExprBase
	Condition Expr
	Then      *Block
	Else      *Block
}
