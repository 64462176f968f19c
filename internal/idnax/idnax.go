// Package idnax contains IDNA extensions. We use these extensions to
// convert international domain names to their punycode representation
// before resolving or dialing them.
package idnax

import "golang.org/x/net/idna"

// ToASCII converts the given domain to its ASCII representation
// using the IDNA lookup profile.
func ToASCII(domain string) (string, error) {
	return idna.Lookup.ToASCII(domain)
}
