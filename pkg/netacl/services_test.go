package netacl

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const servicesFixture = `# Network services, Internet style
ssh		22/tcp
domain		53/tcp		# Domain Name Server
domain		53/udp
ntp		123/udp
bgp		179/tcp		bgpd	# Border Gateway Protocol
snmp		161/udp
malformed-line
noport		foo/tcp
`

func writeServicesFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "services")
	if err := os.WriteFile(path, []byte(servicesFixture), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadServiceRegistry(t *testing.T) {
	r, err := LoadServiceRegistry(writeServicesFixture(t))
	if err != nil {
		t.Fatalf("LoadServiceRegistry() error: %v", err)
	}

	ssh := r.Lookup("ssh")
	if len(ssh) != 1 || ssh[0].Port != 22 || ssh[0].Protocol != "tcp" {
		t.Errorf("ssh lookup = %+v", ssh)
	}

	domain := r.Lookup("domain")
	if len(domain) != 2 {
		t.Fatalf("domain should have tcp and udp entries, got %+v", domain)
	}
	if domain[0].Protocol != "tcp" || domain[1].Protocol != "udp" {
		t.Errorf("domain protocols = %+v", domain)
	}

	// Aliases resolve to the same assignment.
	bgpd := r.Lookup("bgpd")
	if len(bgpd) != 1 || bgpd[0].Port != 179 {
		t.Errorf("alias lookup = %+v", bgpd)
	}

	if got := r.Lookup("nosuch"); got != nil {
		t.Errorf("unknown service should return nil, got %+v", got)
	}
	if got := r.Lookup("noport"); got != nil {
		t.Errorf("malformed port should be skipped, got %+v", got)
	}
}

func TestResolveService(t *testing.T) {
	r, err := LoadServiceRegistry(writeServicesFixture(t))
	if err != nil {
		t.Fatal(err)
	}

	fields := TermFields{}
	if err := resolveService(fields, r, "domain", "source_port"); err != nil {
		t.Fatalf("resolveService() error: %v", err)
	}
	if want := []string{"53", "53"}; !reflect.DeepEqual(fields["source_port"].Strings(), want) {
		t.Errorf("source_port = %v, want %v", fields["source_port"].Strings(), want)
	}
	if want := []string{"tcp", "udp"}; !reflect.DeepEqual(fields["protocol"].Strings(), want) {
		t.Errorf("protocol = %v, want %v", fields["protocol"].Strings(), want)
	}

	if err := resolveService(fields, r, "nosuch", "source_port"); err == nil {
		t.Error("unknown service should return an error")
	}
}

func TestResolveServiceAppendsToCallerFields(t *testing.T) {
	r, err := LoadServiceRegistry(writeServicesFixture(t))
	if err != nil {
		t.Fatal(err)
	}

	fields := TermFields{
		"destination_port": List("8080"),
		"protocol":         List("tcp"),
	}
	if err := resolveService(fields, r, "ntp", "destination_port"); err != nil {
		t.Fatal(err)
	}
	if want := []string{"8080", "123"}; !reflect.DeepEqual(fields["destination_port"].Strings(), want) {
		t.Errorf("destination_port = %v, want %v", fields["destination_port"].Strings(), want)
	}
	if want := []string{"tcp", "udp"}; !reflect.DeepEqual(fields["protocol"].Strings(), want) {
		t.Errorf("protocol should dedupe tcp, got %v", fields["protocol"].Strings())
	}
}
