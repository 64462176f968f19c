// Command tlscheck checks that a TLS endpoint completes a handshake
// and serves an acceptable homepage over the resulting session.
package main

import (
	"os"
	"time"

	"github.com/probekit/tlscheck/internal/version"
	"github.com/spf13/cobra"
)

// Options contains the options you can set from the CLI.
type Options struct {
	AcceptAbruptClose bool
	Count             int64
	Emoji             bool
	HandshakeTimeout  time.Duration
	Insecure          bool
	JSON              bool
	MaxBodySize       int64
	MinVersion        string
	Proxy             string
	ReportFile        string
	Resolver          string
	ServerName        string
	Timeout           time.Duration
	Verbose           bool
}

// main is the main function of tlscheck.
func main() {
	var globalOptions Options
	rootCmd := &cobra.Command{
		Use:   "tlscheck [flags] {endpoint}",
		Short: "tlscheck diagnoses a TLS endpoint by fetching its homepage",
		Long: "The tlscheck command connects to the given TCP endpoint (e.g.,\n" +
			"www.example.com:443), performs a TLS handshake, sends a GET request\n" +
			"for the homepage, and reads the response until the server closes\n" +
			"the connection. The check succeeds when the response status line\n" +
			"is 200, 301, or 302.",
		Args:    cobra.ExactArgs(1),
		Version: version.Version,
		Run: func(cmd *cobra.Command, args []string) {
			MainWithOptions(args[0], &globalOptions)
		},
	}
	rootCmd.SetVersionTemplate("{{ .Version }}\n")
	flags := rootCmd.Flags()

	flags.BoolVar(
		&globalOptions.AcceptAbruptClose,
		"accept-abrupt-close",
		false,
		"treat a connection reset or truncation while reading the response as a normal end of stream",
	)

	flags.Int64VarP(
		&globalOptions.Count,
		"count",
		"c",
		1,
		"number of times to repeat the check",
	)

	flags.BoolVar(
		&globalOptions.Emoji,
		"emoji",
		false,
		"whether to use emojis when logging",
	)

	flags.DurationVar(
		&globalOptions.HandshakeTimeout,
		"handshake-timeout",
		0,
		"maximum time for the TLS handshake (zero means 10s)",
	)

	flags.BoolVarP(
		&globalOptions.Insecure,
		"insecure",
		"k",
		false,
		"skip verifying the server certificate",
	)

	flags.BoolVar(
		&globalOptions.JSON,
		"json",
		false,
		"emit each result as a JSON line on the standard output",
	)

	flags.Int64Var(
		&globalOptions.MaxBodySize,
		"max-body",
		0,
		"maximum response size in bytes (zero means 10000000)",
	)

	flags.StringVar(
		&globalOptions.MinVersion,
		"min-version",
		"",
		"minimum acceptable TLS version (e.g., TLSv1.3)",
	)

	flags.StringVar(
		&globalOptions.Proxy,
		"proxy",
		"",
		"socks5://<host>:<port> proxy to connect through (mutually exclusive with --resolver)",
	)

	flags.StringVarP(
		&globalOptions.ReportFile,
		"report-file",
		"o",
		"",
		"append each result as a JSON line to the given file",
	)

	flags.StringVar(
		&globalOptions.Resolver,
		"resolver",
		"",
		"udp://<IP>:<port> DNS resolver to use instead of the system one",
	)

	flags.StringVar(
		&globalOptions.ServerName,
		"sni",
		"",
		"server name to send in the SNI extension instead of the endpoint host",
	)

	flags.DurationVar(
		&globalOptions.Timeout,
		"timeout",
		0,
		"maximum time for the whole invocation (zero means no limit)",
	)

	flags.BoolVarP(
		&globalOptions.Verbose,
		"verbose",
		"v",
		false,
		"increase verbosity level",
	)

	rootCmd.MarkFlagsMutuallyExclusive("proxy", "resolver")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(2)
	}
}
