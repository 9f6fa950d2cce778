package ast

// Stmt is the sealed interface implemented by every statement node.
// Exhaustive switches over the concrete type should end with a panic on
// default so a new variant is caught at the first call site that forgot
// it.
type Stmt interface {
	stmtNode()
	Loc() SourceLocation
}

// ReturnStmt is `return EXPR? ;`. Value is nil for a bare `return;`.
type ReturnStmt struct {
	Value    Expr
	Location SourceLocation
}

// ExprStmt is an expression used as a statement, e.g. `f(x);` or `x = 1;`.
type ExprStmt struct {
	X        Expr
	Location SourceLocation
}

// VarDeclStmt is `TYPE IDENT ( = EXPR )? ;`.
type VarDeclStmt struct {
	Name        string
	Type        TypeNode
	Initializer Expr // nil if no initializer
	Location    SourceLocation
}

// ElseIfClause is one `else if (COND) BLOCK` link in an if-chain.
type ElseIfClause struct {
	Condition Expr
	Body      Block
	Location  SourceLocation
}

// IfStmt is `if (COND) BLOCK (else if (COND) BLOCK)* (else BLOCK)?`.
type IfStmt struct {
	Condition  Expr
	Then       Block
	ElseIfs    []ElseIfClause
	Else       *Block // nil if no else block
	Location   SourceLocation
}

// WhileStmt is `while (COND) BLOCK`.
type WhileStmt struct {
	Condition Expr
	Body      Block
	Location  SourceLocation
}

// ForStmt is `for (INIT? ; COND? ; UPDATE?) BLOCK`. Init, Condition and
// Update are independently optional.
type ForStmt struct {
	Init      Stmt // nil, *VarDeclStmt or *ExprStmt
	Condition Expr // nil
	Update    Expr // nil
	Body      Block
	Location  SourceLocation
}

// BlockStmt is a bare `{ ... }` used as a statement; it introduces a
// lexical scope but emits no wrapping control-flow construct in WAT.
type BlockStmt struct {
	Body     Block
	Location SourceLocation
}

// DbgArg is one argument to a dbg(...) statement: its evaluated
// expression plus the source-derived label text used only for printing.
type DbgArg struct {
	Label string
	Value Expr
}

// DbgStmt is `dbg(EXPR (, EXPR)*) ;`.
type DbgStmt struct {
	Args     []DbgArg
	Location SourceLocation
}

func (s *ReturnStmt) stmtNode()    {}
func (s *ExprStmt) stmtNode()      {}
func (s *VarDeclStmt) stmtNode()   {}
func (s *IfStmt) stmtNode()        {}
func (s *WhileStmt) stmtNode()     {}
func (s *ForStmt) stmtNode()       {}
func (s *BlockStmt) stmtNode()     {}
func (s *DbgStmt) stmtNode()       {}

func (s *ReturnStmt) Loc() SourceLocation  { return s.Location }
func (s *ExprStmt) Loc() SourceLocation    { return s.Location }
func (s *VarDeclStmt) Loc() SourceLocation { return s.Location }
func (s *IfStmt) Loc() SourceLocation      { return s.Location }
func (s *WhileStmt) Loc() SourceLocation   { return s.Location }
func (s *ForStmt) Loc() SourceLocation     { return s.Location }
func (s *BlockStmt) Loc() SourceLocation   { return s.Location }
func (s *DbgStmt) Loc() SourceLocation     { return s.Location }
