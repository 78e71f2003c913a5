package pillar

import (
	"reflect"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/netgrid-labs/netacl/pkg/netacl"
)

func decodeYAML(t *testing.T, doc string) any {
	t.Helper()
	var tree any
	if err := yaml.Unmarshal([]byte(doc), &tree); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	return tree
}

func TestFiltersFromTreeOrderedList(t *testing.T) {
	tree := decodeYAML(t, `
- edge-in:
    options:
      - inet
    terms:
      - allow-ssh:
          source_address: 10.0.0.0/8
          destination_port: 22
          protocol: tcp
          action: accept
      - deny-rest:
          action: reject
- edge-out:
    terms:
      - permit-all:
          action: accept
`)
	filters, err := filtersFromTree(tree)
	if err != nil {
		t.Fatalf("filtersFromTree() error: %v", err)
	}
	if len(filters) != 2 || filters[0].Name != "edge-in" || filters[1].Name != "edge-out" {
		t.Fatalf("filter order = %+v", filters)
	}
	if want := []string{"inet"}; !reflect.DeepEqual(filters[0].Options, want) {
		t.Errorf("options = %v, want %v", filters[0].Options, want)
	}

	terms := filters[0].Terms
	if len(terms) != 2 || terms[0].Name != "allow-ssh" || terms[1].Name != "deny-rest" {
		t.Fatalf("term order = %+v", terms)
	}
	if got := terms[0].Fields["destination_port"].Strings(); got[0] != "22" {
		t.Errorf("destination_port = %v", got)
	}
	if got := terms[0].Fields["action"].Strings(); got[0] != "accept" {
		t.Errorf("action = %v", got)
	}
}

func TestFiltersFromTreeMappingSortsByName(t *testing.T) {
	tree := decodeYAML(t, `
zeta:
  terms:
    - t: {action: accept}
alpha:
  terms:
    - t: {action: reject}
`)
	filters, err := filtersFromTree(tree)
	if err != nil {
		t.Fatal(err)
	}
	if len(filters) != 2 || filters[0].Name != "alpha" || filters[1].Name != "zeta" {
		t.Errorf("mapping form should sort names, got %+v", filters)
	}
}

func TestFieldValueFromTree(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want netacl.FieldValue
	}{
		{"string scalar", `accept`, netacl.Scalar("accept")},
		{"int scalar", `22`, netacl.Scalar("22")},
		{"bool scalar", `true`, netacl.Scalar("true")},
		{"string range", `"1000-2000"`, netacl.Ranges(netacl.PortRange{Low: 1000, High: 2000})},
		{"list", `[tcp, udp]`, netacl.List("tcp", "udp")},
		{"int list", `[22, 2222]`, netacl.List("22", "2222")},
		{"range pairs", `[[1000, 2000], [3000, 4000]]`,
			netacl.Ranges(netacl.PortRange{Low: 1000, High: 2000}, netacl.PortRange{Low: 3000, High: 4000})},
		{"inverted pair stays list", `[[2000, 1000]]`, netacl.List("[2000 1000]")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fieldValueFromTree(decodeYAML(t, tt.doc))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("fieldValueFromTree(%s) = %#v, want %#v", tt.doc, got, tt.want)
			}
		})
	}
}

func TestFiltersFromTreeBareNames(t *testing.T) {
	tree := decodeYAML(t, `
- edge-in:
    terms:
      - placeholder
`)
	filters, err := filtersFromTree(tree)
	if err != nil {
		t.Fatal(err)
	}
	if filters[0].Terms[0].Name != "placeholder" || filters[0].Terms[0].Fields != nil {
		t.Errorf("bare term = %+v", filters[0].Terms[0])
	}
}

func TestFiltersFromTreeRejectsMultiKeyEntries(t *testing.T) {
	tree := decodeYAML(t, `
- edge-in:
    terms: []
  edge-out:
    terms: []
`)
	if _, err := filtersFromTree(tree); err == nil {
		t.Error("multi-key filter entry should be rejected")
	}
}

func TestFiltersFromTreeNil(t *testing.T) {
	filters, err := filtersFromTree(nil)
	if err != nil || filters != nil {
		t.Errorf("nil tree = %v, %v; want nil, nil", filters, err)
	}
}
