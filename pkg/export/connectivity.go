package export

import (
	"context"
	"log"
	"net"
)

// DefaultConnectivityHost is resolved to decide whether the internet is reachable
const DefaultConnectivityHost = "google.com"

// DNSConnectivity reports online when a host name resolves
type DNSConnectivity struct {
	host     string
	resolver interface {
		LookupHost(ctx context.Context, host string) ([]string, error)
	}
}

// NewDNSConnectivity creates a DNS based check for host
func NewDNSConnectivity(host string) *DNSConnectivity {
	if host == "" {
		host = DefaultConnectivityHost
	}
	return &DNSConnectivity{host: host, resolver: net.DefaultResolver}
}

func (d *DNSConnectivity) IsOnline(ctx context.Context) bool {
	if _, err := d.resolver.LookupHost(ctx, d.host); err != nil {
		log.Printf("⚠ No internet connection: %v", err)
		return false
	}
	return true
}
