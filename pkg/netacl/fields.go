package netacl

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/netgrid-labs/netacl/pkg/util"
)

// FieldKind discriminates the shapes a term field value can take.
type FieldKind int

const (
	// FieldScalar is a single value, e.g. action: accept.
	FieldScalar FieldKind = iota
	// FieldList is an ordered list of values, e.g. two source addresses.
	FieldList
	// FieldRanges is an ordered list of inclusive [low, high] port ranges.
	FieldRanges
)

// PortRange is an inclusive low-high port pair.
type PortRange struct {
	Low  int
	High int
}

func (r PortRange) String() string {
	if r.Low == r.High {
		return strconv.Itoa(r.Low)
	}
	return fmt.Sprintf("%d-%d", r.Low, r.High)
}

// FieldValue is a term field value: a scalar, an ordered list of scalars,
// or an ordered list of port ranges. The zero value is an empty scalar.
type FieldValue struct {
	kind   FieldKind
	scalar string
	list   []string
	ranges []PortRange
}

// Scalar wraps a single value.
func Scalar(v string) FieldValue {
	return FieldValue{kind: FieldScalar, scalar: v}
}

// List wraps an ordered list of values.
func List(vs ...string) FieldValue {
	return FieldValue{kind: FieldList, list: vs}
}

// Ranges wraps an ordered list of port ranges.
func Ranges(rs ...PortRange) FieldValue {
	return FieldValue{kind: FieldRanges, ranges: rs}
}

// Kind returns the value's shape.
func (v FieldValue) Kind() FieldKind { return v.kind }

// IsZero reports whether the value holds nothing.
func (v FieldValue) IsZero() bool {
	switch v.kind {
	case FieldScalar:
		return v.scalar == ""
	case FieldList:
		return len(v.list) == 0
	case FieldRanges:
		return len(v.ranges) == 0
	}
	return true
}

// Strings renders the value as the ordered list of tokens the policy
// grammar expects; ranges render as "low-high".
func (v FieldValue) Strings() []string {
	switch v.kind {
	case FieldScalar:
		if v.scalar == "" {
			return nil
		}
		return []string{v.scalar}
	case FieldList:
		return v.list
	case FieldRanges:
		out := make([]string, 0, len(v.ranges))
		for _, r := range v.ranges {
			out = append(out, r.String())
		}
		return out
	}
	return nil
}

// Concat returns the ordered concatenation of two list-shaped values.
// Range lists stay ranges; anything else becomes a plain list.
func (v FieldValue) Concat(other FieldValue) FieldValue {
	if v.kind == FieldRanges && other.kind == FieldRanges {
		merged := make([]PortRange, 0, len(v.ranges)+len(other.ranges))
		merged = append(merged, v.ranges...)
		merged = append(merged, other.ranges...)
		return Ranges(merged...)
	}
	merged := append(append([]string{}, v.Strings()...), other.Strings()...)
	return List(merged...)
}

// TermFields maps a policy keyword to its value. Keys outside the documented
// vocabulary are passed through to the compiler, which has the final say.
type TermFields map[string]FieldValue

// Clone returns a shallow copy (FieldValue is immutable by convention).
func (f TermFields) Clone() TermFields {
	out := make(TermFields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// SortedKeys returns the field names in lexical order, for deterministic
// rendering.
func (f TermFields) SortedKeys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// termKeywords is the documented policy keyword vocabulary. Unknown keys
// only produce a warning; some platforms accept extra keywords.
var termKeywords = map[string]struct{}{
	"action": {}, "address": {}, "address_exclude": {}, "comment": {},
	"counter": {}, "expiration": {}, "destination_address": {},
	"destination_address_exclude": {}, "destination_port": {},
	"destination_prefix": {}, "forwarding_class": {},
	"forwarding_class_except": {}, "logging": {}, "log_name": {},
	"loss_priority": {}, "option": {}, "policer": {}, "port": {},
	"precedence": {}, "principals": {}, "protocol": {}, "protocol_except": {},
	"qos": {}, "pan_application": {}, "routing_instance": {},
	"source_address": {}, "source_address_exclude": {}, "source_port": {},
	"source_prefix": {}, "verbatim": {}, "packet_length": {},
	"fragment_offset": {}, "hop_limit": {}, "icmp_type": {}, "ether_type": {},
	"traffic_class_count": {}, "traffic_type": {}, "translated": {},
	"dscp_set": {}, "dscp_match": {}, "dscp_except": {}, "next_ip": {},
	"flexible_match_range": {}, "source_prefix_except": {},
	"destination_prefix_except": {}, "vpn": {}, "source_tag": {},
	"destination_tag": {}, "source_interface": {},
	"destination_interface": {}, "flattened": {}, "flattened_addr": {},
	"flattened_saddr": {}, "flattened_daddr": {}, "priority": {},
}

// IsKnownKeyword reports whether name is in the documented vocabulary.
func IsKnownKeyword(name string) bool {
	_, ok := termKeywords[name]
	return ok
}

// WarnUnknownKeywords logs a warning for every field outside the vocabulary.
func (f TermFields) WarnUnknownKeywords() {
	for k := range f {
		if !IsKnownKeyword(k) {
			util.Warnf("term field %q is not a documented keyword; passing through to the compiler", k)
		}
	}
}

// ParseFieldValue parses a CLI field value. Comma-separated input becomes a
// list; when every element looks like "low-high" the result is a range list.
func ParseFieldValue(s string) FieldValue {
	parts := util.SplitCommaSeparated(s)
	if len(parts) == 0 {
		return Scalar(s)
	}
	if len(parts) == 1 && !strings.Contains(s, ",") {
		if r, ok := parsePortRange(parts[0]); ok {
			return Ranges(r)
		}
		return Scalar(parts[0])
	}

	ranges := make([]PortRange, 0, len(parts))
	allRanges := true
	for _, p := range parts {
		r, ok := parsePortRange(p)
		if !ok {
			allRanges = false
			break
		}
		ranges = append(ranges, r)
	}
	if allRanges {
		return Ranges(ranges...)
	}
	return List(parts...)
}

// parsePortRange parses "low-high" into a PortRange. Bare numbers are not
// ranges; they stay scalars so e.g. a lone port renders without a dash.
func parsePortRange(s string) (PortRange, bool) {
	i := strings.Index(s, "-")
	if i <= 0 || i == len(s)-1 {
		return PortRange{}, false
	}
	low, err := strconv.Atoi(strings.TrimSpace(s[:i]))
	if err != nil {
		return PortRange{}, false
	}
	high, err := strconv.Atoi(strings.TrimSpace(s[i+1:]))
	if err != nil {
		return PortRange{}, false
	}
	if low > high {
		return PortRange{}, false
	}
	return PortRange{Low: low, High: high}, true
}
