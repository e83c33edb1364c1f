// Package main provides the clnrm CLI: the single `run <config>` verb
// that loads a rendered cleanroom document, stands up its services,
// executes its scenarios, validates the resulting span graph against
// its declarative expectations, and writes the report.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"clnrmgo/internal/cleanroom"
	"clnrmgo/internal/clnrmerr"
	"clnrmgo/internal/config"
	"clnrmgo/internal/report"
	"clnrmgo/internal/scenario"
	"clnrmgo/internal/service"
	"clnrmgo/internal/span"
	"clnrmgo/internal/transport"
	"clnrmgo/internal/validate"
	"clnrmgo/internal/variables"
)

const (
	version = "0.1.0-dev"
	name    = "clnrm"
)

func main() {
	versionFlag := flag.Bool("version", false, "show version information")
	flag.Parse()

	if *versionFlag {
		log.Printf("%s v%s\n", name, version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) != 2 || args[0] != "run" {
		log.Fatalf("usage: %s run <config.toml>", name)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: config.GetEnvLogLevel("CLNRM_LOG_LEVEL", slog.LevelInfo),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, args[1], logger)
	os.Exit(clnrmerr.ExitCodeFor(err))
}

func run(ctx context.Context, configPath string, logger *slog.Logger) error {
	doc, err := config.LoadDocument(configPath)
	if err != nil {
		return err
	}

	logger.Info("loaded cleanroom document",
		slog.String("name", doc.Meta.Name),
		slog.Int("services", len(doc.Service)),
		slog.Int("scenarios", len(doc.Scenario)),
	)

	env := cleanroom.New(logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if shutdownErr := env.ShutdownSpanTransport(shutdownCtx); shutdownErr != nil {
			logger.Error("span transport shutdown failed", slog.String("error", shutdownErr.Error()))
		}

		if shutdownErr := env.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Error("environment shutdown failed", slog.String("error", shutdownErr.Error()))
		}
	}()

	if err := startTransport(ctx, env, doc, logger); err != nil {
		return &clnrmerr.InfrastructureError{Context: "span transport", Err: err}
	}

	if err := startServices(ctx, env, doc); err != nil {
		return err
	}

	rpt := report.New()

	var (
		cancelled   error
		stdoutSpans []span.Span
		parser      = span.NewParser()
	)

	for _, sc := range doc.Scenarios() {
		spans, err := runScenario(ctx, env, sc, rpt, parser)
		stdoutSpans = append(stdoutSpans, spans...)

		if err != nil {
			if clnrmerr.ExitCodeFor(err) == clnrmerr.ExitCancelled {
				cancelled = err

				break
			}

			return err
		}
	}

	spans := append(stdoutSpans, collectSpans(env)...)
	env.ForwardSpans(ctx, spans)
	validateSpans(rpt, doc, spans)
	rpt.Finalize()

	if err := writeReports(doc, rpt, spans, logger); err != nil {
		return err
	}

	if cancelled != nil {
		return cancelled
	}

	if !rpt.Passed() {
		passes, failures := rpt.Counts()
		return &clnrmerr.ValidationError{
			Check: doc.Meta.Name,
			Err:   fmt.Errorf("%d passed, %d failed", passes, failures),
		}
	}

	return nil
}

// otelResolver builds the user layer of a variables.Resolver from the
// document's [otel] table, so `[otel]` entries left blank fall through
// to the env-var and built-in layers rather than to zero values.
func otelResolver(doc *config.Document) *variables.Resolver {
	user := map[variables.Key]string{}
	if doc.OTel.Endpoint != "" {
		user[variables.Endpoint] = doc.OTel.Endpoint
	}

	if doc.OTel.Exporter != "" {
		user[variables.Exporter] = doc.OTel.Exporter
	}

	return variables.New(user)
}

func startTransport(ctx context.Context, env *cleanroom.Environment, doc *config.Document, logger *slog.Logger) error {
	resolver := otelResolver(doc)

	endpoint := resolver.Resolve(variables.Endpoint)

	addr, err := listenAddr(endpoint)
	if err != nil {
		return err
	}

	// The forwarder relays to a second, human-facing backend; relaying
	// to the ingest listener's own address would just echo spans back
	// to ourselves, so only the stdout exporter (which needs no
	// endpoint of its own) is wired here. A future otlp-forward target
	// needs its own config field, which spec.md's [otel] table
	// doesn't currently carry.
	exporterKind := exporterKindFromResolver(resolver)
	if exporterKind == transport.ExporterOTLP {
		logger.Warn("otlp forwarding skipped: no distinct relay endpoint configured")
		exporterKind = transport.ExporterNone
	}

	return env.StartSpanTransport(ctx, addr, resolver.Resolve(variables.Token), exporterKind, endpoint, logger)
}

func exporterKindFromResolver(resolver *variables.Resolver) transport.ExporterKind {
	switch resolver.Resolve(variables.Exporter) {
	case "", "otlp":
		return transport.ExporterOTLP
	case "stdout":
		return transport.ExporterStdout
	case "none":
		return transport.ExporterNone
	default:
		return transport.ExporterKind(resolver.Resolve(variables.Exporter))
	}
}

func listenAddr(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse otel endpoint %q: %w", endpoint, err)
	}

	if u.Host == "" {
		return endpoint, nil
	}

	return u.Host, nil
}

func startServices(ctx context.Context, env *cleanroom.Environment, doc *config.Document) error {
	for alias, spec := range doc.Services() {
		plugin, err := service.Build(spec, env.Cache, env.Gate, env.SpanSource)
		if err != nil {
			return &clnrmerr.ConfigError{Context: alias, Err: err}
		}

		if _, err := env.StartService(ctx, alias, plugin); err != nil {
			return &clnrmerr.InfrastructureError{Context: alias, Err: err}
		}
	}

	return nil
}

// runScenario runs one scenario to completion and returns every span
// found in its steps' captured stdout. Each step's full stdout is fed to
// parser independently, matching the one-shot (not streamed) nature of
// StepResult.Stdout rather than the gate's residual-carrying poll loop.
func runScenario(
	ctx context.Context,
	env *cleanroom.Environment,
	sc scenario.Scenario,
	rpt *report.Report,
	parser *span.Parser,
) ([]span.Span, error) {
	start := time.Now()

	sched := scenario.NewScheduler(sc, scenario.NewExecBackend(), env)
	if err := sched.Build(); err != nil {
		return nil, &clnrmerr.ConfigError{Context: sc.Name, Err: err}
	}

	result, err := sched.Run(ctx)
	if err != nil {
		return nil, &clnrmerr.InfrastructureError{Context: sc.Name, Err: err}
	}

	env.RecordRun(result, time.Since(start))

	var stepSpans []span.Span

	for _, step := range result.Steps {
		name := fmt.Sprintf("scenario:%s:step:%s", sc.Name, step.Label)
		if step.Failed || step.Cancelled {
			rpt.Fail(name, step.FailureReason)
		} else {
			rpt.Pass(name)
		}

		spans, _ := parser.Feed(nil, []byte(step.Stdout))
		stepSpans = append(stepSpans, spans...)
	}

	// Run reports TimedOut/Cancelled outcomes only through
	// result.Status, never through its error return, so the terminal
	// state must be read from there, independent of err.
	switch result.Status {
	case scenario.Cancelled.String():
		return stepSpans, &clnrmerr.CancelledError{Scope: sc.Name}
	case scenario.TimedOut.String():
		return stepSpans, &clnrmerr.TimeoutError{Scope: sc.Name}
	}

	return stepSpans, nil
}

// collectSpans gathers every span observed over the run via the OTLP
// ingest listener's full history. Stdout-emitted spans are collected
// separately, per step, in runScenario.
func collectSpans(env *cleanroom.Environment) []span.Span {
	type allSource interface {
		All() []span.Span
	}

	if all, ok := env.SpanSource.(allSource); ok {
		return all.All()
	}

	return nil
}

func validateSpans(rpt *report.Report, doc *config.Document, spans []span.Span) {
	g := span.NewGraph(spans)

	rpt.AppendChecks(validate.Span(g, doc.SpanExpectations()))
	rpt.AppendChecks(validate.Graph(g, doc.GraphExpectation()))
	rpt.AppendChecks(validate.Counts(g, doc.CountsExpectation()))
	rpt.AppendChecks(validate.Window(g, doc.WindowExpectations()))
	rpt.AppendChecks(validate.Order(g, doc.OrderExpectation()))
	rpt.AppendChecks(validate.Status(g, doc.StatusExpectation()))
	rpt.AppendChecks(validate.Hermeticity(g, doc.HermeticityExpectation()))
}

// spanRecord is the stable, ordered JSON projection of a span.Span used
// for the content digest: field order and string forms (rather than
// span.Span's raw oteltrace.SpanKind/codes.Code) keep the digest
// reproducible across otherwise-equivalent in-memory representations.
type spanRecord struct {
	Name       string         `json:"name"`
	TraceID    string         `json:"trace_id"`
	SpanID     string         `json:"span_id"`
	ParentID   string         `json:"parent_span_id,omitempty"`
	Kind       string         `json:"kind"`
	Status     string         `json:"status"`
	StartNano  int64          `json:"start_unix_nano"`
	EndNano    int64          `json:"end_unix_nano"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// spanDumpNDJSON renders spans as newline-delimited JSON, one record per
// line and in the order they were received, for the digest input.
func spanDumpNDJSON(spans []span.Span) []byte {
	var buf bytes.Buffer

	for _, s := range spans {
		rec := spanRecord{
			Name:       s.Name,
			TraceID:    s.TraceID,
			SpanID:     s.SpanID,
			ParentID:   s.ParentSpanID,
			Kind:       s.Kind.String(),
			Status:     s.Status.String(),
			StartNano:  s.StartUnixNano,
			EndNano:    s.EndUnixNano,
			Attributes: s.Attributes,
		}

		line, err := json.Marshal(rec)
		if err != nil {
			continue
		}

		buf.Write(line)
		buf.WriteByte('\n')
	}

	return buf.Bytes()
}

func writeReports(doc *config.Document, rpt *report.Report, spans []span.Span, logger *slog.Logger) error {
	if err := report.WriteJSON(rpt, doc.Report.JSON, logger); err != nil {
		return &clnrmerr.InfrastructureError{Context: "report.json", Err: err}
	}

	if err := report.WriteJUnit(rpt, doc.Report.JUnit, logger); err != nil {
		return &clnrmerr.InfrastructureError{Context: "junit.xml", Err: err}
	}

	raw := spanDumpNDJSON(spans)
	if _, err := report.WriteDigest(raw, doc.Report.Digest, logger); err != nil {
		return &clnrmerr.InfrastructureError{Context: "digest", Err: err}
	}

	if err := writeSpanDump(raw, doc.Report, logger); err != nil {
		return &clnrmerr.InfrastructureError{Context: "spans.ndjson", Err: err}
	}

	return nil
}

// writeSpanDump persists the raw span NDJSON alongside the other report
// outputs, the spec.md §6 run directory's `spans.ndjson`. It shares the
// digest path's directory, falling back to the JSON report's directory
// when no digest path is configured; a run with neither configured has
// no persisted output directory to write into and is a no-op, matching
// the other report writers' blank-path convention.
func writeSpanDump(raw []byte, reportDoc config.ReportDoc, logger *slog.Logger) error {
	dir := ""

	switch {
	case reportDoc.Digest != "":
		dir = filepath.Dir(reportDoc.Digest)
	case reportDoc.JSON != "":
		dir = filepath.Dir(reportDoc.JSON)
	default:
		return nil
	}

	path := filepath.Join(dir, "spans.ndjson")

	if err := os.WriteFile(path, raw, 0o644); err != nil { //nolint:gosec // report path is caller-controlled
		return fmt.Errorf("write spans.ndjson to %s: %w", path, err)
	}

	logger.Info("wrote span dump", slog.String("path", path))

	return nil
}
