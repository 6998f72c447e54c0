// Package treasury resolves the protocol treasury identity, either given
// directly as a base58 key or published by a domain in a TXT record:
//
//	_pooltreasury.example.com. TXT "treasury=<base58 public key>"
package treasury

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/gagliardetto/solana-go"
)

const (
	// RecordPrefix is the owner label the TXT record is published under.
	RecordPrefix = "_pooltreasury."

	// ValuePrefix starts the TXT value carrying the key.
	ValuePrefix = "treasury="

	// DNSScheme marks a treasury reference that must be resolved.
	DNSScheme = "dns:"
)

// Resolver looks up TXT records. Tests substitute their own.
type Resolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// SystemResolver uses the operating system resolver.
type SystemResolver struct {
	Resolver *net.Resolver
}

// LookupTXT implements Resolver.
func (s SystemResolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	r := s.Resolver
	if r == nil {
		r = net.DefaultResolver
	}
	txts, err := r.LookupTXT(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: TXT %s: %w", ErrDNSLookupFailed, name, err)
	}
	return txts, nil
}

// Lookup returns the treasury key published by domain.
func Lookup(ctx context.Context, r Resolver, domain string) (solana.PublicKey, error) {
	domain = strings.TrimSuffix(strings.TrimSpace(domain), ".")
	if domain == "" {
		return solana.PublicKey{}, fmt.Errorf("%w: empty domain", ErrDNSLookupFailed)
	}
	name := RecordPrefix + domain
	txts, err := r.LookupTXT(ctx, name)
	if err != nil {
		return solana.PublicKey{}, err
	}
	for _, txt := range txts {
		txt = strings.TrimSpace(txt)
		if v, ok := strings.CutPrefix(txt, ValuePrefix); ok {
			return parseKey(strings.TrimSpace(v))
		}
	}
	return solana.PublicKey{}, fmt.Errorf("%w: %s", ErrNoTreasuryRecord, name)
}

// Parse interprets ref as either "dns:<domain>", resolved through r, or a
// base58 public key.
func Parse(ctx context.Context, r Resolver, ref string) (solana.PublicKey, error) {
	ref = strings.TrimSpace(ref)
	if domain, ok := strings.CutPrefix(ref, DNSScheme); ok {
		if r == nil {
			r = SystemResolver{}
		}
		return Lookup(ctx, r, domain)
	}
	return parseKey(ref)
}

func parseKey(s string) (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %w", ErrInvalidTreasury, err)
	}
	if key.IsZero() {
		return solana.PublicKey{}, fmt.Errorf("%w: zero key", ErrInvalidTreasury)
	}
	return key, nil
}
