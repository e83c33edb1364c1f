package readiness

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"clnrmgo/internal/span"
)

// StdoutSource tails an io.Reader (typically a container's combined
// stdout/stderr stream) for NDJSON span lines, falling back to a plain
// substring match of `"name":"<span>"` for log lines that carry the
// evidence but don't otherwise parse as a candidate span object.
type StdoutSource struct {
	mu       sync.Mutex
	reader   io.Reader
	parser   *span.Parser
	residual []byte
}

// NewStdoutSource wraps r for polling. r is read incrementally across
// calls to Poll; callers must not read from r concurrently.
func NewStdoutSource(r io.Reader) *StdoutSource {
	return &StdoutSource{reader: r, parser: span.NewParser()}
}

// Poll reads whatever is currently available from the stream and
// returns any complete spans found in it. A read that blocks waiting
// for more container output is expected; callers run Poll from the
// gate's own polling loop, which is already rate-limited.
func (s *StdoutSource) Poll(_ context.Context) ([]span.Span, error) {
	buf := make([]byte, 64*1024)

	n, err := s.reader.Read(buf)
	if n == 0 {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}

		if err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	spans, residual := s.parser.Feed(s.residual, buf[:n])
	s.residual = residual

	return append(spans, substringMatches(buf[:n])...), nil
}

// substringMatches is the fallback detection path: a log line
// containing `"name":"<x>"` counts as observing span x even when the
// surrounding line doesn't parse as one of our candidate span objects
// (e.g. it's embedded in a larger structured log record).
func substringMatches(chunk []byte) []span.Span {
	var found []span.Span

	const marker = `"name":"`

	rest := chunk

	for {
		idx := bytes.Index(rest, []byte(marker))
		if idx < 0 {
			break
		}

		rest = rest[idx+len(marker):]

		end := bytes.IndexByte(rest, '"')
		if end < 0 {
			break
		}

		found = append(found, span.Span{Name: string(rest[:end])})
		rest = rest[end:]
	}

	return found
}
