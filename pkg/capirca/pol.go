// Package capirca adapts the external capirca toolchain as the policy
// compiler. Policies are rendered into capirca's .pol format and handed to
// the aclgen command, which owns every platform-specific syntax.
package capirca

import (
	"fmt"
	"strings"
	"time"

	"github.com/netgrid-labs/netacl/pkg/netacl"
)

// overridable in tests
var now = time.Now

// RenderPolicy renders a policy as a .pol document for the given target
// platform. Filter and term order is preserved; the revision, when set,
// becomes keyword comments in each header.
func RenderPolicy(platform string, policy netacl.Policy, rev netacl.Revision) string {
	var sb strings.Builder
	for i, filter := range policy.Filters {
		if i > 0 {
			sb.WriteString("\n")
		}
		renderHeader(&sb, platform, filter, rev)
		for _, term := range filter.Terms {
			sb.WriteString("\n")
			renderTerm(&sb, term)
		}
	}
	return sb.String()
}

func renderHeader(sb *strings.Builder, platform string, filter netacl.Filter, rev netacl.Revision) {
	sb.WriteString("header {\n")
	if rev.ID != "" {
		fmt.Fprintf(sb, "  comment:: \"$Id: %s $\"\n", rev.ID)
	}
	if rev.ShowDate {
		layout := rev.DateFormat
		if layout == "" {
			layout = netacl.DefaultDateFormat
		}
		fmt.Fprintf(sb, "  comment:: \"$Date: %s $\"\n", now().Format(layout))
	}
	if rev.No != 0 {
		fmt.Fprintf(sb, "  comment:: \"$Revision: %d $\"\n", rev.No)
	}
	target := platform
	if filter.Name != "" {
		target += " " + filter.Name
	}
	if len(filter.Options) > 0 {
		target += " " + strings.Join(filter.Options, " ")
	}
	fmt.Fprintf(sb, "  target:: %s\n", target)
	sb.WriteString("}\n")
}

func renderTerm(sb *strings.Builder, term netacl.Term) {
	fmt.Fprintf(sb, "term %s {\n", term.Name)
	for _, key := range term.Fields.SortedKeys() {
		values := term.Fields[key].Strings()
		if len(values) == 0 {
			continue
		}
		fmt.Fprintf(sb, "  %s:: %s\n", strings.ReplaceAll(key, "_", "-"), strings.Join(values, " "))
	}
	sb.WriteString("}\n")
}
