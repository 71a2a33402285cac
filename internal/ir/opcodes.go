package ir

import (
	"github.com/fruti-lang/fruti/internal/lexer"
	"github.com/fruti-lang/fruti/internal/semantic/types"
)

// ArithOpcode returns the instruction for an arithmetic operator on operands
// of type t. Integer division and remainder follow the signedness of t.
func ArithOpcode(op lexer.TokenType, t types.Type) (Opcode, bool) {
	switch t := t.(type) {
	case *types.IntType:
		switch op {
		case lexer.TokenPlus:
			return OpAdd, true
		case lexer.TokenMinus:
			return OpSub, true
		case lexer.TokenStar:
			return OpMul, true
		case lexer.TokenSlash:
			if t.Signed {
				return OpSDiv, true
			}
			return OpUDiv, true
		case lexer.TokenPercent:
			if t.Signed {
				return OpSRem, true
			}
			return OpURem, true
		}
	case *types.FloatType:
		switch op {
		case lexer.TokenPlus:
			return OpFAdd, true
		case lexer.TokenMinus:
			return OpFSub, true
		case lexer.TokenStar:
			return OpFMul, true
		case lexer.TokenSlash:
			return OpFDiv, true
		case lexer.TokenPercent:
			return OpFRem, true
		}
	}
	return "", false
}

// CmpPredicate returns the predicate for a comparison operator on operands of
// type t.
//
// MAPPING:
// - signed integers: eq ne slt sle sgt sge
// - unsigned integers and char: eq ne ult ule ugt uge
// - floats: oeq one olt ole ogt oge
// - bool and str (after strcmp): eq ne
func CmpPredicate(op lexer.TokenType, t types.Type) (Predicate, bool) {
	switch t := t.(type) {
	case *types.IntType:
		if t.Signed {
			return pick(op, PredEQ, PredNE, PredSLT, PredSLE, PredSGT, PredSGE)
		}
		return pick(op, PredEQ, PredNE, PredULT, PredULE, PredUGT, PredUGE)
	case *types.CharType:
		return pick(op, PredEQ, PredNE, PredULT, PredULE, PredUGT, PredUGE)
	case *types.FloatType:
		return pick(op, PredOEQ, PredONE, PredOLT, PredOLE, PredOGT, PredOGE)
	case *types.BoolType, *types.StrType:
		return pick(op, PredEQ, PredNE, "", "", "", "")
	}
	return "", false
}

func pick(op lexer.TokenType, eq, ne, lt, le, gt, ge Predicate) (Predicate, bool) {
	var p Predicate
	switch op {
	case lexer.TokenEqual:
		p = eq
	case lexer.TokenNotEqual:
		p = ne
	case lexer.TokenLess:
		p = lt
	case lexer.TokenLessEqual:
		p = le
	case lexer.TokenGreater:
		p = gt
	case lexer.TokenGreaterEqual:
		p = ge
	}
	return p, p != ""
}
