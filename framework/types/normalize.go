package types

import "strings"

// AnyName is the canonical token of the empty interface, supertype of every type.
const AnyName = "interface {}"

// canonical folds builtin aliases and boxed spellings onto one identity.
var canonical = map[string]string{
	"any":         AnyName,
	"interface{}": AnyName,
	"byte":        "uint8",
	"rune":        "int32",

	"Integer":   "int",
	"Long":      "int64",
	"Short":     "int16",
	"Byte":      "uint8",
	"Character": "int32",
	"Float":     "float32",
	"Double":    "float64",
	"Boolean":   "bool",
	"String":    "string",
}

// Normalize returns the canonical spelling of a base token, so that
// "byte" and "uint8", or "Integer" and "int", name the same type.
func Normalize(base string) string {
	base = strings.TrimSpace(base)
	if c, ok := canonical[base]; ok {
		return c
	}
	return base
}
