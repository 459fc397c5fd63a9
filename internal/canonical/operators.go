package canonical

import (
	"strings"

	apierrors "apidoc/internal/errors"
)

var unaryOperators = map[string]string{
	"+":     "op_UnaryPlus",
	"-":     "op_UnaryNegation",
	"!":     "op_LogicalNot",
	"~":     "op_OnesComplement",
	"++":    "op_Increment",
	"--":    "op_Decrement",
	"true":  "op_True",
	"false": "op_False",
}

var binaryOperators = map[string]string{
	"+":   "op_Addition",
	"-":   "op_Subtraction",
	"*":   "op_Multiply",
	"/":   "op_Division",
	"%":   "op_Modulus",
	"&":   "op_BitwiseAnd",
	"|":   "op_BitwiseOr",
	"^":   "op_ExclusiveOr",
	"<<":  "op_LeftShift",
	">>":  "op_RightShift",
	">>>": "op_UnsignedRightShift",
	"==":  "op_Equality",
	"!=":  "op_Inequality",
	"<":   "op_LessThan",
	">":   "op_GreaterThan",
	"<=":  "op_LessThanOrEqual",
	">=":  "op_GreaterThanOrEqual",
}

var conversionOperators = map[string]string{
	"implicit": "op_Implicit",
	"explicit": "op_Explicit",
}

// operatorSymbols maps every reserved name back to its source symbol.
var operatorSymbols = func() map[string]string {
	m := make(map[string]string)
	for _, table := range []map[string]string{unaryOperators, binaryOperators, conversionOperators} {
		for sym, name := range table {
			m[name] = sym
		}
	}
	return m
}()

// OperatorName resolves an operator identity to its reserved name. The
// identity is either a symbol, disambiguated by arity, or a reserved
// op_ name; fallback is the member name when no symbol was given.
func OperatorName(identity, name string, arity int) (string, error) {
	id := strings.TrimSpace(identity)
	if id == "" {
		id = name
	}
	if strings.HasPrefix(id, "op_") {
		if _, ok := operatorSymbols[id]; !ok {
			return "", unknownOperator(id)
		}
		return id, nil
	}

	key := strings.ToLower(id)
	if op, ok := conversionOperators[key]; ok {
		return op, nil
	}
	if arity == 1 {
		if op, ok := unaryOperators[key]; ok {
			return op, nil
		}
	}
	if arity == 2 {
		if op, ok := binaryOperators[key]; ok {
			return op, nil
		}
	}
	return "", unknownOperator(id)
}

// OperatorSymbol returns the source symbol for a reserved operator name.
func OperatorSymbol(reserved string) (string, bool) {
	sym, ok := operatorSymbols[reserved]
	return sym, ok
}

func isConversion(name string) bool {
	if i := strings.LastIndex(name, "#"); i >= 0 {
		name = name[i+1:]
	}
	return name == "op_Implicit" || name == "op_Explicit"
}

func unknownOperator(id string) error {
	return apierrors.Newf(apierrors.UnknownOperator, "unknown operator %q", id).WithSubject(id)
}
