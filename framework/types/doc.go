// Package types holds the value types the container indexes on.
//
// # Identifiers
//
// A TypeIdentifier is a base token plus ordered generic arguments. It is compared
// and hashed by value (via Key), never by pointer:
//
//	box := types.Of("shapes.Box", types.Of("shapes.Circle"))
//	raw := box.Erasure()                 // shapes.Box
//	box.WillErase()                      // true
//	types.MustParse("shapes.Box[?]")     // wildcard slot
//	types.TypeOf[*http.Client]()         // *net/http.Client
//
// # Subtyping
//
// IsInstanceOf matches covariantly through a Hierarchy, which has to be told
// which bases sit below which:
//
//	u := types.NewUniverse().Declare("shapes.Circle", "shapes.Shape")
//	box.IsInstanceOf(types.Of("shapes.Box", types.Of("shapes.Shape")), u) // true
//
// # Qualifiers
//
// A QualifierType discriminates providers of the same type:
//
//	types.Named("replica")
//	types.NewQualifier("Region", types.Field{Name: "value", Value: "eu"})
package types
