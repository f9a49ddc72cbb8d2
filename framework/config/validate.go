package config

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Rules maps a setting to a pipe-separated rule string,
// e.g. Rules{"INJECT_CONFLICT_RESOLVER": "required|in:strict,standard,order"}.
type Rules map[string]string

// Errors holds failed rules per setting. JSON: {"errors": {"KEY": ["msg"]}}
type Errors struct {
	Bag map[string][]string `json:"errors"`
}

func (e *Errors) add(field, msg string) {
	if e.Bag == nil {
		e.Bag = make(map[string][]string)
	}
	e.Bag[field] = append(e.Bag[field], msg)
}

// Has returns true if there are any errors.
func (e *Errors) Has() bool { return len(e.Bag) > 0 }

// First returns the first error for a field.
func (e *Errors) First(field string) string {
	if msgs := e.Bag[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Error lists every message, settings sorted by name.
func (e *Errors) Error() string {
	fields := make([]string, 0, len(e.Bag))
	for f := range e.Bag {
		fields = append(fields, f)
	}
	slices.Sort(fields)

	var b strings.Builder
	b.WriteString("config: invalid settings")
	for _, f := range fields {
		for _, msg := range e.Bag[f] {
			b.WriteString("\n  - ")
			b.WriteString(msg)
		}
	}
	return b.String()
}

// Validator checks a flat map of setting values.
type Validator struct {
	data   map[string]string
	rules  Rules
	errors *Errors
}

// Make creates a Validator for data.
func Make(data map[string]string, rules Rules) *Validator {
	return &Validator{data: data, rules: rules, errors: &Errors{}}
}

// Validate runs every rule and returns the *Errors bag, or nil when all pass.
func (v *Validator) Validate() error {
	v.validate()
	if v.errors.Has() {
		return v.errors
	}
	return nil
}

func (v *Validator) validate() {
	v.errors = &Errors{}
	for field, ruleStr := range v.rules {
		value := v.data[field]
		for _, rule := range strings.Split(ruleStr, "|") {
			rule = strings.TrimSpace(rule)
			if rule == "" {
				continue
			}
			// min:3 → name=min, param=3
			name, param, _ := strings.Cut(rule, ":")
			if !v.applyRule(field, value, name, param) {
				break // first failure wins
			}
		}
	}
}

// applyRule returns true if the rule passes.
func (v *Validator) applyRule(field, value, rule, param string) bool {
	fail := func(format string, args ...any) bool {
		v.errors.add(field, fmt.Sprintf(format, args...))
		return false
	}

	switch rule {
	case "required":
		if strings.TrimSpace(value) == "" {
			return fail("%s is required.", field)
		}

	case "integer":
		if _, err := strconv.Atoi(value); err != nil {
			return fail("%s must be an integer, got %q.", field, value)
		}

	case "boolean":
		if value == "" {
			break
		}
		if _, err := strconv.ParseBool(value); err != nil {
			return fail("%s must be true or false, got %q.", field, value)
		}

	case "in":
		allowed := strings.Split(param, ",")
		if !slices.ContainsFunc(allowed, func(a string) bool { return strings.TrimSpace(a) == value }) {
			return fail("%s must be one of %s, got %q.", field, param, value)
		}

	case "gte":
		f, _ := strconv.ParseFloat(value, 64)
		t, _ := strconv.ParseFloat(param, 64)
		if f < t {
			return fail("%s must be greater than or equal to %s.", field, param)
		}

	case "lte":
		f, _ := strconv.ParseFloat(value, 64)
		t, _ := strconv.ParseFloat(param, 64)
		if f > t {
			return fail("%s must be less than or equal to %s.", field, param)
		}

	case "regex":
		re, err := regexp.Compile(param)
		if err != nil || !re.MatchString(value) {
			return fail("%s format is invalid: %q.", field, value)
		}
	}

	return true
}
