// Package policydoc parses IAM policy documents and normalizes their
// heterogeneous JSON shapes into uniform statements.
//
// Policy JSON is duck-typed: Action, Resource, and Principal may each be a
// single string or a list, Principal may also be a map keyed by principal
// class ("AWS", "Service", "Federated"), and Statement itself may be a lone
// object instead of an array. This package is the single normalization
// boundary; checks never inspect raw shapes themselves.
package policydoc

import (
	"encoding/json"
	"net/url"
	"sort"
)

// StringSet is a set of strings with insertion-order-independent semantics.
type StringSet map[string]struct{}

// NewStringSet returns a set containing the given values.
func NewStringSet(values ...string) StringSet {
	s := make(StringSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Has reports whether v is in the set.
func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// ContainsAll reports whether every element of other is in s.
func (s StringSet) ContainsAll(other StringSet) bool {
	for v := range other {
		if !s.Has(v) {
			return false
		}
	}
	return true
}

// Values returns the set's elements sorted lexicographically.
func (s StringSet) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// RawStatement is one statement as it appears in policy JSON, before
// normalization. Action, Resource, and Principal keep their raw shapes.
type RawStatement struct {
	Sid       string                    `json:"Sid,omitempty"`
	Effect    string                    `json:"Effect"`
	Action    any                       `json:"Action,omitempty"`
	Resource  any                       `json:"Resource,omitempty"`
	Principal any                       `json:"Principal,omitempty"`
	Condition map[string]map[string]any `json:"Condition,omitempty"`
}

// RawStatements accepts both a JSON array of statements and a single
// statement object.
type RawStatements []RawStatement

// UnmarshalJSON implements json.Unmarshaler.
func (s *RawStatements) UnmarshalJSON(data []byte) error {
	var list []RawStatement
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}
	var single RawStatement
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*s = RawStatements{single}
	return nil
}

// Document is a parsed IAM policy document.
type Document struct {
	Version   string        `json:"Version"`
	Statement RawStatements `json:"Statement"`
}

// Statement is the normalized form of one policy statement. Actions and
// Resources are uniform string sets regardless of the source shape;
// Principals is keyed by principal class with a bare "*" string filed
// under "AWS". Conditions is carried unparsed.
type Statement struct {
	Effect     string
	Actions    StringSet
	Resources  StringSet
	Principals map[string]StringSet
	Conditions map[string]map[string]any
}

// IsAllow reports whether the statement has Allow effect.
func (s Statement) IsAllow() bool { return s.Effect == "Allow" }

// HasCondition reports whether the statement carries a non-empty Condition block.
func (s Statement) HasCondition() bool { return len(s.Conditions) > 0 }

// AWSPrincipals returns the statement's "AWS" principals. A bare string
// principal (for example "*") is treated as an AWS principal.
func (s Statement) AWSPrincipals() StringSet { return s.Principals["AWS"] }

// HasWildcardPrincipal reports whether the statement's principal is public:
// either the bare string "*" or the map form {"AWS": "*"}.
func (s Statement) HasWildcardPrincipal() bool {
	return s.AWSPrincipals().Has("*")
}

// ConditionRequires reports whether any condition operator constrains the
// given condition key (for example "sts:ExternalId").
func (s Statement) ConditionRequires(key string) bool {
	for _, operands := range s.Conditions {
		if _, ok := operands[key]; ok {
			return true
		}
	}
	return false
}

// Normalize converts a raw statement into its uniform representation.
// It never fails: unrecognized shapes normalize to empty sets.
func (r RawStatement) Normalize() Statement {
	return Statement{
		Effect:     r.Effect,
		Actions:    toStringSet(r.Action),
		Resources:  toStringSet(r.Resource),
		Principals: toPrincipalMap(r.Principal),
		Conditions: r.Condition,
	}
}

// Parse decodes a plain JSON policy document.
func Parse(raw string) (*Document, error) {
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ParseEncoded decodes a URL-encoded policy document as returned by the IAM
// GetPolicyVersion and GetRole APIs.
func ParseEncoded(encoded string) (*Document, error) {
	raw, err := url.QueryUnescape(encoded)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Statements returns every statement of the document in normalized form.
func (d *Document) Statements() []Statement {
	out := make([]Statement, 0, len(d.Statement))
	for _, raw := range d.Statement {
		out = append(out, raw.Normalize())
	}
	return out
}

// toStringSet normalizes a string-or-list JSON value to a set.
// Absent or unrecognized values yield an empty set.
func toStringSet(v any) StringSet {
	set := make(StringSet)
	switch val := v.(type) {
	case string:
		set[val] = struct{}{}
	case []any:
		for _, item := range val {
			if s, ok := item.(string); ok {
				set[s] = struct{}{}
			}
		}
	}
	return set
}

// toPrincipalMap normalizes the Principal field. A bare string is filed
// under "AWS"; a map keeps its principal-class keys with string-or-list
// values normalized per class.
func toPrincipalMap(v any) map[string]StringSet {
	out := make(map[string]StringSet)
	switch val := v.(type) {
	case string:
		out["AWS"] = NewStringSet(val)
	case map[string]any:
		for class, raw := range val {
			out[class] = toStringSet(raw)
		}
	}
	return out
}
