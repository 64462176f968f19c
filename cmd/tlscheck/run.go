package main

//
// Running checks and aggregating their outcome
//

import (
	"context"
	"io"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/probekit/tlscheck/internal/check"
	"github.com/probekit/tlscheck/internal/logx"
	"github.com/probekit/tlscheck/internal/model"
	"github.com/probekit/tlscheck/internal/must"
	"github.com/probekit/tlscheck/internal/netx"
	"github.com/probekit/tlscheck/internal/runtimex"
	"github.com/probekit/tlscheck/internal/tlsx"
	"github.com/schollz/progressbar/v3"
)

// MainWithOptions runs the checks described by the endpoint argument
// and the current options.
//
// This function does not return: it calls os.Exit(0) when every check
// succeeds, os.Exit(1) when any check fails, and os.Exit(2) when the
// arguments are invalid. It panics in case of a fatal error, such as
// not being able to write the report file.
func MainWithOptions(endpoint string, currentOptions *Options) {
	logHandler := logx.NewHandlerWithDefaultSettings()
	logHandler.Emoji = currentOptions.Emoji
	logger := &log.Logger{Level: log.InfoLevel, Handler: logHandler}
	if currentOptions.Verbose {
		logger.Level = log.DebugLevel
	}
	log.Log = logger

	config, err := newCheckConfig(endpoint, currentOptions, logger)
	if err != nil {
		logger.Warnf("tlscheck: %s", err.Error())
		os.Exit(2)
	}
	if currentOptions.Insecure {
		logger.Warn("--insecure given: skipping TLS certificate verification")
	}

	ctx := context.Background()
	if currentOptions.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, currentOptions.Timeout)
		defer cancel()
	}

	if failed := runAllChecks(ctx, os.Stdout, config, currentOptions, logger); failed > 0 {
		os.Exit(1)
	}
}

// newCheckConfig translates the endpoint argument and the current
// options into the configuration for running checks.
func newCheckConfig(endpoint string, currentOptions *Options, logger model.Logger) (*check.Config, error) {
	parsed, err := netx.ParseEndpoint(endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "parsing the endpoint argument")
	}
	config := &check.Config{
		Endpoint:           parsed,
		AcceptAbruptClose:  currentOptions.AcceptAbruptClose,
		HandshakeTimeout:   currentOptions.HandshakeTimeout,
		InsecureSkipVerify: currentOptions.Insecure,
		Logger:             logger,
		MaxBodySize:        currentOptions.MaxBodySize,
		ServerName:         currentOptions.ServerName,
	}
	if currentOptions.MinVersion != "" {
		minVersion, err := tlsx.ParseVersion(currentOptions.MinVersion)
		if err != nil {
			return nil, errors.Wrap(err, "parsing --min-version")
		}
		config.MinVersion = minVersion
	}
	if currentOptions.Proxy != "" {
		proxyURL, err := url.Parse(currentOptions.Proxy)
		if err != nil {
			return nil, errors.Wrap(err, "parsing --proxy")
		}
		if proxyURL.Scheme != "socks5" {
			return nil, errors.New("the --proxy URL scheme must be socks5")
		}
		config.Proxy = proxyURL
	}
	if currentOptions.Resolver != "" {
		resolverURL, err := url.Parse(currentOptions.Resolver)
		if err != nil {
			return nil, errors.Wrap(err, "parsing --resolver")
		}
		if resolverURL.Scheme != "udp" {
			return nil, errors.New("the --resolver URL scheme must be udp")
		}
		if _, _, err := net.SplitHostPort(resolverURL.Host); err != nil {
			return nil, errors.Wrap(err, "parsing --resolver")
		}
		config.Resolver = netx.NewResolverUDP(
			logger, netx.NewDialerWithoutResolver(logger), resolverURL.Host)
	}
	return config, nil
}

// runAllChecks runs the requested number of checks and returns the
// number of checks that failed.
func runAllChecks(ctx context.Context, w io.Writer, config *check.Config,
	currentOptions *Options, logger model.Logger) (failed int64) {
	runner := check.NewRunner(config)
	bar := newProgressBar(currentOptions)
	var (
		performed      int64
		handshakeTimes []float64
		runtimes       []float64
	)
	for idx := int64(0); idx < currentOptions.Count && ctx.Err() == nil; idx++ {
		if bar != nil {
			bar.Add(1)
		}
		result := runner.Run(ctx)
		performed++
		if !result.Success {
			failed++
		}
		if result.HandshakeTime > 0 {
			handshakeTimes = append(handshakeTimes, result.HandshakeTime)
		}
		runtimes = append(runtimes, result.Runtime)
		render(w, result, currentOptions, logger)
		if currentOptions.ReportFile != "" {
			err := check.SaveResult(result, currentOptions.ReportFile)
			runtimex.PanicOnError(err, "check.SaveResult failed")
		}
	}
	if currentOptions.Count > 1 && !currentOptions.JSON {
		printSummary(w, performed, failed, handshakeTimes, runtimes)
	}
	return
}

// newProgressBar creates the progress bar showing how many checks we
// have performed so far. The return value is nil when a single check
// is requested or the selected output format owns the standard output.
func newProgressBar(currentOptions *Options) *progressbar.ProgressBar {
	if currentOptions.Count <= 1 || currentOptions.JSON || currentOptions.Verbose {
		return nil
	}
	return progressbar.NewOptions64(
		currentOptions.Count,
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			must.Fprintf(os.Stdout, "\n")
		}),
		progressbar.OptionSetWriter(os.Stdout),
	)
}

// printSummary prints aggregate statistics about all the checks we
// performed. Handshake times only cover the checks where the TLS
// handshake actually completed, while total times cover every check.
func printSummary(w io.Writer, performed, failed int64, handshakeTimes, runtimes []float64) {
	must.Fprintf(w, "\nchecks: %d run, %d failed\n", performed, failed)
	printTimeStats(w, "handshake time", handshakeTimes)
	printTimeStats(w, "total time", runtimes)
}

// printTimeStats prints the minimum, median, and maximum of the given
// times, and prints nothing when there are no times to aggregate.
func printTimeStats(w io.Writer, label string, times []float64) {
	median, err := stats.Median(times)
	if errors.Is(err, stats.EmptyInputErr) {
		return
	}
	runtimex.PanicOnError(err, "stats.Median failed")
	minimum := runtimex.Try1(stats.Min(times))
	maximum := runtimex.Try1(stats.Max(times))
	must.Fprintf(
		w, "%s: min=%.6fs median=%.6fs max=%.6fs\n",
		label, minimum, median, maximum,
	)
}
