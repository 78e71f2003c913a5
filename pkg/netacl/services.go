package netacl

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/netgrid-labs/netacl/pkg/util"
)

// DefaultServicesPath is the IANA port assignment database on the host.
const DefaultServicesPath = "/etc/services"

// ServiceEntry is one port assignment from the services(5) database.
type ServiceEntry struct {
	Name     string
	Port     int
	Protocol string
}

// ServiceRegistry resolves service names to their port/protocol pairs,
// letting callers say source_service=ntp instead of spelling out the
// port and protocol. Aliases resolve to the same entries.
type ServiceRegistry struct {
	byName map[string][]ServiceEntry
}

// LoadServiceRegistry parses a services(5)-format file. Site-local
// shortcuts can be added as extra lines in the same file.
func LoadServiceRegistry(path string) (*ServiceRegistry, error) {
	if path == "" {
		path = DefaultServicesPath
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening services database %s: %w", path, err)
	}
	defer f.Close()

	r := &ServiceRegistry{byName: make(map[string][]ServiceEntry)}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		port, proto, ok := splitPortProto(fields[1])
		if !ok {
			continue
		}
		entry := ServiceEntry{Name: fields[0], Port: port, Protocol: proto}
		r.byName[fields[0]] = append(r.byName[fields[0]], entry)
		for _, alias := range fields[2:] {
			r.byName[alias] = append(r.byName[alias], entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading services database %s: %w", path, err)
	}
	return r, nil
}

// Lookup returns every port/protocol assignment for name or its aliases.
func (r *ServiceRegistry) Lookup(name string) []ServiceEntry {
	return r.byName[name]
}

// splitPortProto parses "22/tcp" into (22, "tcp").
func splitPortProto(s string) (int, string, bool) {
	i := strings.Index(s, "/")
	if i <= 0 || i == len(s)-1 {
		return 0, "", false
	}
	port, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, "", false
	}
	return port, strings.ToLower(s[i+1:]), true
}

// resolveService expands a named service into the given port field plus
// the protocol field, appending to whatever the caller already supplied.
func resolveService(fields TermFields, registry *ServiceRegistry, service, portField string) error {
	entries := registry.Lookup(service)
	if len(entries) == 0 {
		return fmt.Errorf("service %q: %w", service, util.ErrNotFound)
	}

	ports := fields[portField]
	protos := fields["protocol"]
	for _, e := range entries {
		ports = ports.Concat(Ranges(PortRange{Low: e.Port, High: e.Port}))
		if !util.ContainsString(protos.Strings(), e.Protocol) {
			protos = protos.Concat(List(e.Protocol))
		}
	}
	fields[portField] = ports
	fields["protocol"] = protos
	return nil
}
