package providers

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/stream"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/telemetry/metrics"
)

// LineResult is what a provider's line decoder extracted from one complete
// upstream line.
type LineResult struct {
	// Delta is incremental summary content; may be empty.
	Delta string

	// Usage, when non-nil, overwrites the last-seen usage snapshot
	// (last-wins).
	Usage *Usage

	// Done marks the sentinel termination line. Absence of the sentinel is
	// not an error; natural end-of-data also finalizes the stream.
	Done bool
}

// DecodeLine decodes one complete line of a provider's proprietary streaming
// format. Returning an error marks the line malformed; malformed lines are
// skipped, never fatal. Decoders may keep per-stream state (a fresh decoder
// is created for every stream).
type DecodeLine func(line string) (LineResult, error)

// StreamConfig parameterizes the shared decode loop per provider.
type StreamConfig struct {
	Provider string
	Decode   DecodeLine
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

// RunStream drains the upstream body line by line: complete lines are decoded
// as they arrive (bufio retains any partial trailing line across reads), each
// delta is appended to the output accumulator and emitted immediately as a
// Chunk event with no batching, and usage snapshots are last-wins. The loop
// ends at the sentinel line, natural EOF, or context cancellation.
//
// It returns the accumulated output, the last-seen usage snapshot, and a
// terminal error if the stream failed.
func RunStream(ctx context.Context, body io.Reader, cfg StreamConfig, events chan<- stream.Event) (string, Usage, error) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var output strings.Builder
	var usage Usage

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return output.String(), usage, ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		res, err := cfg.Decode(line)
		if err != nil {
			// A corrupt fragment must not abort an otherwise healthy stream.
			cfg.Logger.Debug("skipping malformed stream line", "error", err)
			cfg.Metrics.RecordDecodeError(cfg.Provider)
			continue
		}

		if res.Usage != nil {
			usage = *res.Usage
		}

		if res.Delta != "" {
			output.WriteString(res.Delta)
			select {
			case events <- stream.Chunk(res.Delta):
				cfg.Metrics.RecordChunk(cfg.Provider)
			case <-ctx.Done():
				return output.String(), usage, ctx.Err()
			}
		}

		if res.Done {
			return output.String(), usage, nil
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return output.String(), usage, ctx.Err()
		}
		return output.String(), usage, &ProviderError{
			Provider: cfg.Provider,
			Message:  "failed to read stream",
			Cause:    err,
		}
	}

	return output.String(), usage, nil
}
