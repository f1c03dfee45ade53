package inventory

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
	"github.com/rs/zerolog/log"

	"switchgraph/internal/config"
)

// Candidate is a host answering on the RESTCONF port
type Candidate struct {
	MgtIP    string `json:"mgt_ip" yaml:"mgt_ip"`
	Hostname string `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	Port     int    `json:"port" yaml:"port"`
	Service  string `json:"service,omitempty" yaml:"service,omitempty"`
}

// DeviceConfig returns the inventory entry for c. The port is only kept when
// it differs from defaultPort.
func (c Candidate) DeviceConfig(defaultPort int) config.DeviceConfig {
	d := config.DeviceConfig{MgtIP: c.MgtIP, Name: shortName(c.Hostname)}
	if c.Port != defaultPort {
		d.Port = c.Port
	}
	return d
}

// Scanner finds RESTCONF-capable hosts with nmap
type Scanner struct {
	port              int
	timeout           time.Duration
	serviceDetection  bool
	skipHostDiscovery bool
}

// ScanOption is a functional option for configuring Scanner
type ScanOption func(*Scanner)

// WithPort sets the RESTCONF port checked on every host
func WithPort(port int) ScanOption {
	return func(s *Scanner) {
		if port > 0 && port <= 65535 {
			s.port = port
		}
	}
}

// WithScanTimeout bounds the whole scan
func WithScanTimeout(d time.Duration) ScanOption {
	return func(s *Scanner) {
		s.timeout = d
	}
}

// WithServiceDetection enables or disables service version detection (-sV)
func WithServiceDetection(enabled bool) ScanOption {
	return func(s *Scanner) {
		s.serviceDetection = enabled
	}
}

// WithSkipHostDiscovery treats all hosts as online (-Pn). Management
// networks often drop ICMP.
func WithSkipHostDiscovery(skip bool) ScanOption {
	return func(s *Scanner) {
		s.skipHostDiscovery = skip
	}
}

// NewScanner creates a scanner probing the default RESTCONF port
func NewScanner(opts ...ScanOption) *Scanner {
	s := &Scanner{
		port:    config.DefaultPort,
		timeout: 10 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan checks every target (CIDR, range or address) and returns the hosts
// with the RESTCONF port open, ordered by address
func (s *Scanner) Scan(ctx context.Context, targets ...string) ([]Candidate, error) {
	expanded, err := expandTargets(targets)
	if err != nil {
		return nil, err
	}
	if len(expanded) == 0 {
		return nil, fmt.Errorf("no scan targets")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := []nmap.Option{
		nmap.WithTargets(expanded...),
		nmap.WithPorts(strconv.Itoa(s.port)),
	}
	if s.serviceDetection {
		opts = append(opts, nmap.WithServiceInfo())
	}
	if s.skipHostDiscovery {
		opts = append(opts, nmap.WithSkipHostDiscovery())
	}

	scanner, err := nmap.NewScanner(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create scanner: %w", err)
	}

	log.Info().Strs("targets", expanded).Int("port", s.port).Msg("Scanning for RESTCONF hosts")
	result, warnings, err := scanner.Run()
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	if warnings != nil && len(*warnings) > 0 {
		log.Warn().Strs("warnings", *warnings).Msg("nmap reported warnings")
	}

	candidates := s.candidates(result)
	log.Info().Int("found", len(candidates)).Msg("Scan complete")
	return candidates, nil
}

// candidates extracts the up hosts with the RESTCONF port open
func (s *Scanner) candidates(result *nmap.Run) []Candidate {
	if result == nil {
		return nil
	}

	var out []Candidate
	for _, host := range result.Hosts {
		if host.Status.State != "up" || len(host.Addresses) == 0 {
			continue
		}

		ip := hostIP(host)
		for _, port := range host.Ports {
			if int(port.ID) != s.port || port.State.State != "open" {
				continue
			}
			c := Candidate{MgtIP: ip, Port: s.port, Service: port.Service.Name}
			if len(host.Hostnames) > 0 {
				c.Hostname = host.Hostnames[0].Name
			}
			out = append(out, c)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return compareIP(out[i].MgtIP, out[j].MgtIP) < 0
	})
	return out
}

// hostIP returns the IPv4 address of host, falling back to its first address
func hostIP(host nmap.Host) string {
	for _, addr := range host.Addresses {
		if addr.AddrType == "ipv4" {
			return addr.Addr
		}
	}
	return host.Addresses[0].Addr
}

func compareIP(a, b string) int {
	ia, ib := net.ParseIP(a), net.ParseIP(b)
	if ia == nil || ib == nil {
		return strings.Compare(a, b)
	}
	return strings.Compare(string(ia.To16()), string(ib.To16()))
}

// shortName strips the domain from a reverse DNS name
func shortName(hostname string) string {
	if idx := strings.Index(hostname, "."); idx > 0 {
		return hostname[:idx]
	}
	return hostname
}

// expandTargets validates CIDR targets and normalizes them for nmap
func expandTargets(targets []string) ([]string, error) {
	var expanded []string
	for _, target := range targets {
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if strings.Contains(target, "/") {
			_, ipNet, err := net.ParseCIDR(target)
			if err != nil {
				return nil, fmt.Errorf("invalid CIDR %s: %w", target, err)
			}
			expanded = append(expanded, ipNet.String())
			continue
		}
		expanded = append(expanded, target)
	}
	return expanded, nil
}
