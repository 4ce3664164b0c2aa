package common

import (
	"fmt"
	"slices"
	"strings"
)

// Problem is one rejected configuration value.
type Problem struct {
	Key    string
	Value  any
	Reason string
}

func (p Problem) String() string {
	if s, ok := p.Value.(string); ok && s == "" {
		return fmt.Sprintf("%s %s", p.Key, p.Reason)
	}
	return fmt.Sprintf("%s=%v %s", p.Key, p.Value, p.Reason)
}

// Rule checks a single value and returns the reason it is rejected, or "".
type Rule func(value any) string

// Validator collects every problem in one pass so a bad config is reported in full.
type Validator struct {
	problems []Problem
}

func NewValidator() *Validator {
	return &Validator{}
}

// Field applies rules to value, recording a problem for each rule that rejects it.
func (v *Validator) Field(key string, value any, rules ...Rule) *Validator {
	for _, rule := range rules {
		if reason := rule(value); reason != "" {
			v.problems = append(v.problems, Problem{Key: key, Value: value, Reason: reason})
		}
	}
	return v
}

// Failf records a problem that no single-value rule can express.
func (v *Validator) Failf(key string, value any, format string, args ...any) {
	v.problems = append(v.problems, Problem{Key: key, Value: value, Reason: fmt.Sprintf(format, args...)})
}

func (v *Validator) Problems() []Problem { return v.problems }

// Err returns nil, or a fatal configuration error listing every problem.
func (v *Validator) Err() error {
	if len(v.problems) == 0 {
		return nil
	}
	msgs := make([]string, len(v.problems))
	for i, p := range v.problems {
		msgs[i] = p.String()
	}
	return Fatal("CONFIG_ERROR", strings.Join(msgs, "; "), ErrValidation)
}

// Required rejects nil, blank strings and empty lists.
func Required(value any) string {
	switch x := value.(type) {
	case nil:
		return "is required"
	case string:
		if strings.TrimSpace(x) == "" {
			return "is required"
		}
	case []string:
		if len(x) == 0 {
			return "is required"
		}
	}
	return ""
}

// Positive rejects zero and negative integers.
func Positive(value any) string {
	n, ok := value.(int)
	if !ok {
		return "must be an integer"
	}
	if n <= 0 {
		return "must be positive"
	}
	return ""
}

// OneOf builds a rule accepting only the listed values.
func OneOf(allowed ...string) Rule {
	return func(value any) string {
		if s, ok := value.(string); ok && slices.Contains(allowed, s) {
			return ""
		}
		return "must be one of " + strings.Join(allowed, "|")
	}
}
