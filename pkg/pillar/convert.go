package pillar

import (
	"fmt"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/netgrid-labs/netacl/pkg/netacl"
)

// ParseFilters parses a YAML document holding a filter list in the pillar
// shape, for policies supplied as files rather than pillar data.
func ParseFilters(data []byte) ([]netacl.Filter, error) {
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parse filters: %w", err)
	}
	return filtersFromTree(tree)
}

// ParseTerms parses a YAML document holding a term list in the pillar shape.
func ParseTerms(data []byte) ([]netacl.Term, error) {
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parse terms: %w", err)
	}
	return termsFromTree(tree)
}

// filtersFromTree converts a decoded YAML/JSON pillar value into policy
// filters. The canonical shape is an ordered list of single-key filter
// maps, each holding "options" and a "terms" list of single-key term maps.
// A plain mapping is also accepted; its filters come out sorted by name
// since the decoder does not preserve key order.
func filtersFromTree(tree any) ([]netacl.Filter, error) {
	switch v := tree.(type) {
	case nil:
		return nil, nil
	case []any:
		filters := make([]netacl.Filter, 0, len(v))
		for _, item := range v {
			name, body, err := singleKey(item)
			if err != nil {
				return nil, fmt.Errorf("policy filter: %w", err)
			}
			f, err := filterFromTree(name, body)
			if err != nil {
				return nil, err
			}
			filters = append(filters, f)
		}
		return filters, nil
	case map[string]any:
		filters := make([]netacl.Filter, 0, len(v))
		for _, name := range sortedKeys(v) {
			f, err := filterFromTree(name, v[name])
			if err != nil {
				return nil, err
			}
			filters = append(filters, f)
		}
		return filters, nil
	default:
		return nil, fmt.Errorf("policy: unexpected %T, want list or mapping", tree)
	}
}

func filterFromTree(name string, body any) (netacl.Filter, error) {
	filter := netacl.Filter{Name: name}
	if body == nil {
		return filter, nil
	}
	m, ok := body.(map[string]any)
	if !ok {
		return filter, fmt.Errorf("filter %q: unexpected %T, want mapping", name, body)
	}

	switch opts := m["options"].(type) {
	case nil:
	case string:
		filter.Options = []string{opts}
	case []any:
		for _, o := range opts {
			filter.Options = append(filter.Options, scalarString(o))
		}
	default:
		return filter, fmt.Errorf("filter %q: options: unexpected %T", name, opts)
	}

	terms, err := termsFromTree(m["terms"])
	if err != nil {
		return filter, fmt.Errorf("filter %q: %w", name, err)
	}
	filter.Terms = terms
	return filter, nil
}

func termsFromTree(tree any) ([]netacl.Term, error) {
	switch v := tree.(type) {
	case nil:
		return nil, nil
	case []any:
		terms := make([]netacl.Term, 0, len(v))
		for _, item := range v {
			name, body, err := singleKey(item)
			if err != nil {
				return nil, fmt.Errorf("term: %w", err)
			}
			fields, err := termFieldsFromTree(body)
			if err != nil {
				return nil, fmt.Errorf("term %q: %w", name, err)
			}
			terms = append(terms, netacl.Term{Name: name, Fields: fields})
		}
		return terms, nil
	case map[string]any:
		terms := make([]netacl.Term, 0, len(v))
		for _, name := range sortedKeys(v) {
			fields, err := termFieldsFromTree(v[name])
			if err != nil {
				return nil, fmt.Errorf("term %q: %w", name, err)
			}
			terms = append(terms, netacl.Term{Name: name, Fields: fields})
		}
		return terms, nil
	default:
		return nil, fmt.Errorf("terms: unexpected %T, want list or mapping", tree)
	}
}

func termFieldsFromTree(body any) (netacl.TermFields, error) {
	if body == nil {
		return nil, nil
	}
	m, ok := body.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected %T, want mapping", body)
	}
	fields := make(netacl.TermFields, len(m))
	for key, value := range m {
		fields[key] = fieldValueFromTree(value)
	}
	return fields, nil
}

// fieldValueFromTree maps a decoded field value onto the scalar/list/range
// forms the compiler distinguishes. A list whose elements are all two-value
// numeric pairs is a port range list; scalar strings go through the same
// parser the command line uses, so "1000-2000" means a range in both.
func fieldValueFromTree(v any) netacl.FieldValue {
	switch x := v.(type) {
	case []any:
		if ranges, ok := rangesFromPairs(x); ok {
			return netacl.Ranges(ranges...)
		}
		items := make([]string, 0, len(x))
		for _, item := range x {
			items = append(items, scalarString(item))
		}
		return netacl.List(items...)
	case string:
		return netacl.ParseFieldValue(x)
	default:
		return netacl.Scalar(scalarString(v))
	}
}

func rangesFromPairs(items []any) ([]netacl.PortRange, bool) {
	if len(items) == 0 {
		return nil, false
	}
	ranges := make([]netacl.PortRange, 0, len(items))
	for _, item := range items {
		pair, ok := item.([]any)
		if !ok || len(pair) != 2 {
			return nil, false
		}
		low, okLow := asInt(pair[0])
		high, okHigh := asInt(pair[1])
		if !okLow || !okHigh || low > high {
			return nil, false
		}
		ranges = append(ranges, netacl.PortRange{Low: low, High: high})
	}
	return ranges, true
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		if x != float64(int64(x)) {
			return 0, false
		}
		return int(x), true
	default:
		return 0, false
	}
}

func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// singleKey unwraps the {name: body} convention used for ordered filter and
// term lists. A bare string is a name with no body.
func singleKey(item any) (string, any, error) {
	switch v := item.(type) {
	case string:
		return v, nil, nil
	case map[string]any:
		if len(v) != 1 {
			return "", nil, fmt.Errorf("entry must have exactly one key, got %d", len(v))
		}
		for name, body := range v {
			return name, body, nil
		}
	}
	return "", nil, fmt.Errorf("unexpected %T, want single-key mapping", item)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
