package storage

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"

	"github.com/miekg/dns"
)

const (
	// SRVService and SRVProto name the record announcing daemon API endpoints:
	// _btfs-api._tcp.{domain}
	SRVService = "btfs-api"
	SRVProto   = "tcp"

	// defaultUpstream is used when no upstream is configured and
	// /etc/resolv.conf cannot be read.
	defaultUpstream = "8.8.8.8:53"

	edns0BufSize = 4096
)

// SRVResolver looks up SRV records.
type SRVResolver interface {
	LookupSRV(ctx context.Context, service, proto, name string) ([]*net.SRV, error)
}

// DNSResolver implements SRVResolver with miekg/dns against one upstream.
// With RequireDNSSEC set, answers must carry the AD (Authenticated Data) flag,
// i.e. the recursive resolver validated the chain.
type DNSResolver struct {
	Upstream      string // host:port; empty uses the system resolver or 8.8.8.8:53
	RequireDNSSEC bool
}

// Compile-time interface check.
var _ SRVResolver = (*DNSResolver)(nil)

// NewDNSResolver creates a DNSResolver.
func NewDNSResolver(upstream string, requireDNSSEC bool) *DNSResolver {
	return &DNSResolver{Upstream: upstream, RequireDNSSEC: requireDNSSEC}
}

func (r *DNSResolver) upstream() string {
	if r.Upstream != "" {
		return r.Upstream
	}
	cfg, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(cfg.Servers) == 0 {
		return defaultUpstream
	}
	return net.JoinHostPort(cfg.Servers[0], cfg.Port)
}

// LookupSRV queries _{service}._{proto}.{name} SRV records.
func (r *DNSResolver) LookupSRV(ctx context.Context, service, proto, name string) ([]*net.SRV, error) {
	qname := dns.Fqdn(fmt.Sprintf("_%s._%s.%s", service, proto, name))

	msg := new(dns.Msg)
	msg.SetQuestion(qname, dns.TypeSRV)
	msg.RecursionDesired = true
	msg.SetEdns0(edns0BufSize, r.RequireDNSSEC)

	client := new(dns.Client)
	resp, _, err := client.ExchangeContext(ctx, msg, r.upstream())
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %w", ErrDiscoveryFailed, qname, err)
	}
	if resp.Rcode == dns.RcodeNameError {
		return nil, fmt.Errorf("%w: %s: NXDOMAIN", ErrNoEndpoints, qname)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("%w: query %s: rcode %s",
			ErrDiscoveryFailed, qname, dns.RcodeToString[resp.Rcode])
	}
	if r.RequireDNSSEC && !resp.AuthenticatedData {
		return nil, fmt.Errorf("%w: AD flag not set for %s", ErrDNSSECValidationFailed, qname)
	}

	var srvs []*net.SRV
	for _, rr := range resp.Answer {
		if srv, ok := rr.(*dns.SRV); ok {
			srvs = append(srvs, &net.SRV{
				Target:   strings.TrimSuffix(srv.Target, "."),
				Port:     srv.Port,
				Priority: srv.Priority,
				Weight:   srv.Weight,
			})
		}
	}
	return srvs, nil
}

// DiscoverEndpoints resolves the daemon API endpoints a domain announces via
// SRV records and returns them as http://host:port base URLs, ordered by
// priority (ascending) then weight (descending).
func DiscoverEndpoints(ctx context.Context, domain string, resolver SRVResolver) ([]string, error) {
	domain = strings.TrimSuffix(strings.TrimSpace(domain), ".")
	if domain == "" {
		return nil, fmt.Errorf("%w: empty domain", ErrDiscoveryFailed)
	}
	if resolver == nil {
		resolver = &DNSResolver{}
	}

	srvs, err := resolver.LookupSRV(ctx, SRVService, SRVProto, domain)
	if err != nil {
		return nil, err
	}
	if len(srvs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoEndpoints, domain)
	}

	sort.SliceStable(srvs, func(i, j int) bool {
		if srvs[i].Priority != srvs[j].Priority {
			return srvs[i].Priority < srvs[j].Priority
		}
		return srvs[i].Weight > srvs[j].Weight
	})

	urls := make([]string, 0, len(srvs))
	for _, s := range srvs {
		if s.Target == "" {
			continue // "." target: service explicitly unavailable
		}
		urls = append(urls, "http://"+net.JoinHostPort(s.Target, strconv.Itoa(int(s.Port))))
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoEndpoints, domain)
	}
	return urls, nil
}
