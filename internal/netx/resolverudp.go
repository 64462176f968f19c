package netx

//
// DNS-over-UDP resolver
//

import (
	"context"
	"errors"
	"time"

	"github.com/miekg/dns"
	"github.com/probekit/tlscheck/internal/errorx"
)

// resolverUDP resolves names by sending queries to a DNS server over
// UDP. We query for A and AAAA in sequence and merge the results. We
// use github.com/miekg/dns to encode queries and decode replies.
type resolverUDP struct {
	// address is the server endpoint (e.g., 8.8.8.8:53).
	address string

	// dialer creates and connects the UDP sockets.
	dialer Dialer
}

var _ Resolver = &resolverUDP{}

// ErrDNSReplyWithWrongQueryID indicates we got a DNS reply with an
// unexpected query ID. Off-path attackers flood replies with guessed
// IDs, so we must not accept a reply whose ID we did not send.
var ErrDNSReplyWithWrongQueryID = errors.New("resolver: reply with wrong query ID")

// dnsRoundTripTimeout bounds each query/reply exchange. Five seconds
// is what Bionic uses for the same purpose.
const dnsRoundTripTimeout = 5 * time.Second

func (r *resolverUDP) LookupHost(ctx context.Context, hostname string) ([]string, error) {
	var addrs []string
	addrsA, errA := r.lookup(ctx, hostname, dns.TypeA)
	addrsAAAA, errAAAA := r.lookup(ctx, hostname, dns.TypeAAAA)
	if errA != nil && errAAAA != nil {
		return nil, errA
	}
	addrs = append(addrs, addrsA...)
	addrs = append(addrs, addrsAAAA...)
	return addrs, nil
}

// lookup performs a single query for the given type and decodes the
// addresses in the reply.
func (r *resolverUDP) lookup(ctx context.Context, hostname string, qtype uint16) ([]string, error) {
	query := new(dns.Msg)
	query.Id = dns.Id()
	query.RecursionDesired = true
	query.Question = []dns.Question{{
		Name:   dns.Fqdn(hostname),
		Qtype:  qtype,
		Qclass: dns.ClassINET,
	}}
	rawQuery, err := query.Pack()
	if err != nil {
		return nil, err
	}
	rawReply, err := r.roundTrip(ctx, rawQuery)
	if err != nil {
		return nil, err
	}
	reply := new(dns.Msg)
	if err := reply.Unpack(rawReply); err != nil {
		return nil, err
	}
	return r.decodeLookupHost(reply, query.Id, qtype)
}

// roundTrip sends a raw query and receives a raw reply.
func (r *resolverUDP) roundTrip(ctx context.Context, query []byte) ([]byte, error) {
	conn, err := r.dialer.DialContext(ctx, "udp", r.address)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(dnsRoundTripTimeout)); err != nil {
		return nil, err
	}
	if _, err := conn.Write(query); err != nil {
		return nil, err
	}
	reply := make([]byte, 1<<17)
	count, err := conn.Read(reply)
	if err != nil {
		return nil, err
	}
	return reply[:count], nil
}

// decodeLookupHost maps the reply to addresses or to one of the
// errors that the resolver classifier knows about.
func (r *resolverUDP) decodeLookupHost(reply *dns.Msg, queryID, qtype uint16) ([]string, error) {
	if reply.Id != queryID {
		return nil, ErrDNSReplyWithWrongQueryID
	}
	switch reply.Rcode {
	case dns.RcodeSuccess:
		// fallthrough to parsing the answers
	case dns.RcodeNameError:
		return nil, errorx.ErrDNSNoSuchHost
	case dns.RcodeRefused:
		return nil, errorx.ErrDNSRefused
	default:
		return nil, errorx.ErrDNSMisbehaving
	}
	var addrs []string
	for _, answer := range reply.Answer {
		switch rr := answer.(type) {
		case *dns.A:
			if qtype == dns.TypeA {
				addrs = append(addrs, rr.A.String())
			}
		case *dns.AAAA:
			if qtype == dns.TypeAAAA {
				addrs = append(addrs, rr.AAAA.String())
			}
		}
	}
	if len(addrs) <= 0 {
		return nil, errorx.ErrDNSNoAnswer
	}
	return addrs, nil
}

func (r *resolverUDP) Network() string {
	return "udp"
}

func (r *resolverUDP) Address() string {
	return r.address
}

func (r *resolverUDP) CloseIdleConnections() {
	// nothing to do
}
