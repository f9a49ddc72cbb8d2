package container

import (
	"github.com/km-arc/go-inject/framework/types"
)

// View is the read side of a container that conditions are evaluated against.
//
// During Load, conditions receive a view of the state being built, so a
// provider applied earlier in a round is visible to conditions evaluated later
// in the same round. Conditions must only use the View; calling back into the
// Container from a condition while it is loading blocks forever.
type View interface {
	// Contains reports whether at least one provider satisfies t.
	Contains(t types.TypeIdentifier) bool

	// ContainsQualified reports whether a provider is registered for t under q.
	ContainsQualified(t types.TypeIdentifier, q types.QualifierType) bool

	// Property looks up a configuration property.
	Property(key string) (string, bool)
}

// Condition gates the registration of a provider.
//
// An error aborts Load and is returned to its caller.
type Condition interface {
	Matches(v View) (bool, error)
}

// ConditionFunc adapts a function to Condition.
type ConditionFunc func(v View) (bool, error)

// Matches implements Condition.
func (f ConditionFunc) Matches(v View) (bool, error) { return f(v) }

// All matches when every condition matches. Evaluation stops at the first
// miss or error. All() with no conditions matches.
func All(conds ...Condition) Condition {
	return ConditionFunc(func(v View) (bool, error) {
		for _, c := range conds {
			ok, err := c.Matches(v)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	})
}

// Any matches when at least one condition matches. Evaluation stops at the
// first match or error. Any() with no conditions never matches.
func Any(conds ...Condition) Condition {
	return ConditionFunc(func(v View) (bool, error) {
		for _, c := range conds {
			ok, err := c.Matches(v)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	})
}

// Not inverts a condition. Errors pass through.
func Not(c Condition) Condition {
	return ConditionFunc(func(v View) (bool, error) {
		ok, err := c.Matches(v)
		if err != nil {
			return false, err
		}
		return !ok, nil
	})
}

// OnBean matches once a provider for t is registered.
func OnBean(t types.TypeIdentifier) Condition {
	return ConditionFunc(func(v View) (bool, error) { return v.Contains(t), nil })
}

// OnMissingBean matches while no provider for t is registered.
func OnMissingBean(t types.TypeIdentifier) Condition {
	return Not(OnBean(t))
}

// OnQualifiedBean matches once a provider for t is registered under q.
func OnQualifiedBean(t types.TypeIdentifier, q types.QualifierType) Condition {
	return ConditionFunc(func(v View) (bool, error) { return v.ContainsQualified(t, q), nil })
}

// OnProperty matches when the property key is set to want.
// An empty want matches any value as long as the key is set.
func OnProperty(key, want string) Condition {
	return ConditionFunc(func(v View) (bool, error) {
		got, ok := v.Property(key)
		if !ok {
			return false, nil
		}
		return want == "" || got == want, nil
	})
}

// Never is a condition that never matches.
func Never() Condition {
	return ConditionFunc(func(View) (bool, error) { return false, nil })
}
