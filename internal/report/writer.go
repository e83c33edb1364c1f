package report

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"log/slog"
	"os"
)

type (
	// jsonReport is the `{passed, total_passes, total_failures, passes,
	// failures}` document written to the JSON report path.
	jsonReport struct {
		Passed        bool          `json:"passed"`
		TotalPasses   int           `json:"total_passes"`
		TotalFailures int           `json:"total_failures"`
		Passes        []string      `json:"passes"`
		Failures      []jsonFailure `json:"failures"`
	}

	jsonFailure struct {
		Name  string `json:"name"`
		Error string `json:"error"`
	}

	junitTestSuite struct {
		XMLName  xml.Name        `xml:"testsuite"`
		Tests    int             `xml:"tests,attr"`
		Failures int             `xml:"failures,attr"`
		Cases    []junitTestCase `xml:"testcase"`
	}

	junitTestCase struct {
		Name    string        `xml:"name,attr"`
		Failure *junitFailure `xml:"failure,omitempty"`
	}

	junitFailure struct {
		Message string `xml:"message,attr"`
	}
)

// WriteJSON renders the report as pretty-printed JSON to path. A blank
// path is a no-op — each output is independent and optional.
func WriteJSON(r *Report, path string, logger *slog.Logger) error {
	if path == "" {
		return nil
	}

	passes, failures := r.Counts()

	doc := jsonReport{
		Passed:        r.Passed(),
		TotalPasses:   passes,
		TotalFailures: failures,
		Passes:        []string{},
		Failures:      []jsonFailure{},
	}

	for _, c := range r.Checks() {
		if c.Passed {
			doc.Passes = append(doc.Passes, c.Name)
		} else {
			doc.Failures = append(doc.Failures, jsonFailure{Name: c.Name, Error: c.Message})
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal json: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil { //nolint:gosec // report path is caller-controlled
		logIfSet(logger, slog.LevelWarn, "failed to write JSON report", path, err)

		return fmt.Errorf("report: write json to %s: %w", path, err)
	}

	logIfSet(logger, slog.LevelInfo, "wrote JSON report", path, nil)

	return nil
}

// WriteJUnit renders the report as a single <testsuite> with one
// <testcase> per check. A blank path is a no-op.
func WriteJUnit(r *Report, path string, logger *slog.Logger) error {
	if path == "" {
		return nil
	}

	_, failures := r.Counts()

	suite := junitTestSuite{
		Tests:    len(r.Checks()),
		Failures: failures,
	}

	for _, c := range r.Checks() {
		tc := junitTestCase{Name: c.Name}
		if !c.Passed {
			tc.Failure = &junitFailure{Message: c.Message}
		}

		suite.Cases = append(suite.Cases, tc)
	}

	data, err := xml.MarshalIndent(suite, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal junit: %w", err)
	}

	data = append([]byte(xml.Header), data...)

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil { //nolint:gosec // report path is caller-controlled
		logIfSet(logger, slog.LevelWarn, "failed to write JUnit report", path, err)

		return fmt.Errorf("report: write junit to %s: %w", path, err)
	}

	logIfSet(logger, slog.LevelInfo, "wrote JUnit report", path, nil)

	return nil
}

// WriteDigest computes the hex SHA-256 of rawSpans and writes it with a
// trailing newline to path. A blank path is a no-op. For byte-identical
// input the digest is byte-identical across runs and processes.
func WriteDigest(rawSpans []byte, path string, logger *slog.Logger) (string, error) {
	sum := sha256.Sum256(rawSpans)
	digest := hex.EncodeToString(sum[:])

	if path == "" {
		return digest, nil
	}

	if err := os.WriteFile(path, []byte(digest+"\n"), 0o644); err != nil { //nolint:gosec // report path is caller-controlled
		logIfSet(logger, slog.LevelWarn, "failed to write digest", path, err)

		return digest, fmt.Errorf("report: write digest to %s: %w", path, err)
	}

	logIfSet(logger, slog.LevelInfo, "wrote span digest", path, nil)

	return digest, nil
}

func logIfSet(logger *slog.Logger, level slog.Level, msg, path string, err error) {
	if logger == nil {
		return
	}

	if err != nil {
		logger.Log(context.Background(), level, msg, slog.String("path", path), slog.String("error", err.Error()))

		return
	}

	logger.Log(context.Background(), level, msg, slog.String("path", path))
}
