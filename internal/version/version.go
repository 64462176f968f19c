// Package version contains version information.
package version

// Version is the tlscheck software version.
const Version = "0.4.1"
