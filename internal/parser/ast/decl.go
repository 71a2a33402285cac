package ast

// FuncDecl is fn name(params) [-> Type] { body }.
type FuncDecl struct {
	BaseNode
	Name       *IdentifierExpr
	Params     []*Param
	ReturnType *TypeExpr // nil means void
	Body       *BlockStmt
}

// Param is one "name: Type" function parameter.
type Param struct {
	BaseNode
	Name *IdentifierExpr
	Type *TypeExpr
}

// StructDecl is struct Name { field: Type, ... }.
type StructDecl struct {
	BaseNode
	Name   *IdentifierExpr
	Fields []*Field
}

// Field is one "name: Type" struct field.
type Field struct {
	BaseNode
	Name *IdentifierExpr
	Type *TypeExpr
}

// TypeAliasDecl is type Name = Type;
type TypeAliasDecl struct {
	BaseNode
	Name *IdentifierExpr
	Type *TypeExpr
}

func (*FuncDecl) declNode()      {}
func (*StructDecl) declNode()    {}
func (*TypeAliasDecl) declNode() {}

func (d *FuncDecl) DeclName() *IdentifierExpr      { return d.Name }
func (d *StructDecl) DeclName() *IdentifierExpr    { return d.Name }
func (d *TypeAliasDecl) DeclName() *IdentifierExpr { return d.Name }
