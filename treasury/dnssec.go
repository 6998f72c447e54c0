package treasury

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const (
	// DefaultUpstream is the validating recursive resolver used when none is configured.
	DefaultUpstream = "8.8.8.8:53"

	dnssecTimeout = 10 * time.Second
	edns0BufSize  = 4096
)

// DNSSECResolver queries a validating recursive resolver with the DO bit set
// and accepts only answers carrying the AD flag.
type DNSSECResolver struct {
	Upstream string
	Timeout  time.Duration
}

// NewDNSSECResolver returns a resolver for upstream, or DefaultUpstream when
// empty.
func NewDNSSECResolver(upstream string) *DNSSECResolver {
	if upstream == "" {
		upstream = DefaultUpstream
	}
	return &DNSSECResolver{Upstream: upstream, Timeout: dnssecTimeout}
}

// LookupTXT implements Resolver.
func (r *DNSSECResolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), dns.TypeTXT)
	msg.RecursionDesired = true
	msg.SetEdns0(edns0BufSize, true)

	client := &dns.Client{Timeout: r.Timeout}
	resp, _, err := client.ExchangeContext(ctx, msg, r.Upstream)
	if err != nil {
		return nil, fmt.Errorf("%w: TXT %s: %w", ErrDNSLookupFailed, name, err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("%w: TXT %s: rcode %s", ErrDNSLookupFailed, name, dns.RcodeToString[resp.Rcode])
	}
	if !resp.AuthenticatedData {
		return nil, fmt.Errorf("%w: AD flag not set for TXT %s", ErrDNSSECValidationFailed, name)
	}

	var txts []string
	for _, rr := range resp.Answer {
		if txt, ok := rr.(*dns.TXT); ok {
			// Long TXT values arrive as several character-strings.
			txts = append(txts, strings.Join(txt.Txt, ""))
		}
	}
	if len(txts) == 0 {
		return nil, fmt.Errorf("%w: no TXT records for %s", ErrDNSLookupFailed, name)
	}
	return txts, nil
}
