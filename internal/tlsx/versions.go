package tlsx

//
// Mapping TLS version numbers to names
//

import (
	"crypto/tls"
	"errors"
)

// VersionUnknown is the sentinel returned by VersionString and
// Session.NegotiatedVersion when the protocol version cannot be
// determined or mapped to a name.
const VersionUnknown = "unknown"

var versionString = map[uint16]string{
	tls.VersionTLS10: "TLSv1",
	tls.VersionTLS11: "TLSv1.1",
	tls.VersionTLS12: "TLSv1.2",
	tls.VersionTLS13: "TLSv1.3",
}

// VersionString returns the name of the given TLS protocol version
// number. Zero and unmapped values yield the VersionUnknown
// sentinel rather than an error.
func VersionString(value uint16) string {
	if str, found := versionString[value]; found {
		return str
	}
	return VersionUnknown
}

// ErrInvalidVersion indicates that a string does not name a TLS
// protocol version we know about.
var ErrInvalidVersion = errors.New("tlsx: invalid TLS version")

// ParseVersion maps a version name to the corresponding protocol
// version number, suitable for Config.MinVersion. The empty string
// maps to zero, meaning no explicit minimum.
//
// Recognized strings: TLSv1.3, TLSv1.2, TLSv1.1, TLSv1.0, TLSv1.
func ParseVersion(version string) (uint16, error) {
	switch version {
	case "TLSv1.3":
		return tls.VersionTLS13, nil
	case "TLSv1.2":
		return tls.VersionTLS12, nil
	case "TLSv1.1":
		return tls.VersionTLS11, nil
	case "TLSv1.0", "TLSv1":
		return tls.VersionTLS10, nil
	case "":
		return 0, nil
	default:
		return 0, ErrInvalidVersion
	}
}
