// Package cli formats command output for the resumechat binary.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hyperjump/resumechat/internal/models"
	"github.com/hyperjump/resumechat/pkg/utils"
)

// OutputFormat selects how results are printed.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints one line per result.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is indented JSON for other programs.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value. Empty means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return OutputText, nil
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, compact or json)", s)
	}
}

// WriteRetrieveResults writes retrieved chunks to w in the given format.
// Unknown formats fall back to text.
func WriteRetrieveResults(w io.Writer, resp *models.RetrieveResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, resp)
	case OutputCompact:
		for i, r := range resp.Results {
			fmt.Fprintf(w, "%d\t%.4f\t%s#%d\t%s\n", i+1, r.Score, r.Source, r.ID,
				utils.Truncate(strings.Join(strings.Fields(r.Text), " "), 80))
		}
		return nil
	default:
		fmt.Fprintf(w, "\nFound %d chunks in %dms\n\n", resp.Total, resp.QueryTime)
		for i, r := range resp.Results {
			fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
			fmt.Fprintf(w, "Rank: %d | Score: %.4f | Ordinal: %d\n", i+1, r.Score, r.Ordinal)
			fmt.Fprintf(w, "Source: %s (chunk %d)\n", r.Source, r.ID)
			fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(r.Text, 300))
		}
		return nil
	}
}

// WriteStatus prints index and catalog status.
func WriteStatus(w io.Writer, st *models.StatusResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	fmt.Fprintf(w, "Index:      %d vectors, %d metadata entries\n", st.IndexSize, st.MetadataSize)
	if st.IndexType != "" {
		fmt.Fprintf(w, "Type:       %s (%d dimensions)\n", st.IndexType, st.Dimensions)
	}
	fmt.Fprintf(w, "Embedder:   %s\n", st.Embedder)
	fmt.Fprintf(w, "Disk usage: %s\n", FormatBytes(st.DiskUsage))
	if b := st.LatestBuild; b != nil {
		fmt.Fprintf(w, "Last build: %s at %s (%d chunks, embedder %s)\n",
			b.ID, b.FinishedAt.Local().Format(time.RFC3339), b.ChunkCount, b.Embedder)
		for _, src := range b.Sources {
			fmt.Fprintf(w, "  %-30s %6d words %4d chunks\n", src.Source, src.Words, src.Chunks)
		}
	} else {
		fmt.Fprintln(w, "Last build: none recorded")
	}
	if st.BuildCount > 0 {
		fmt.Fprintf(w, "Builds:     %d recorded\n", st.BuildCount)
		for _, b := range st.RecentBuilds {
			fmt.Fprintf(w, "  %s  %s  %4d chunks  %s\n",
				b.FinishedAt.Local().Format(time.RFC3339), b.ID, b.ChunkCount, b.Embedder)
		}
	}
	return nil
}

// WriteBuildSummary prints what a build produced.
func WriteBuildSummary(w io.Writer, b *models.BuildRecord) {
	fmt.Fprintf(w, "Indexed %d chunks from %d documents in %s\n",
		b.ChunkCount, len(b.Sources), b.FinishedAt.Sub(b.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "Embedder: %s (%d dims), index type: %s\n", b.Embedder, b.Dimensions, b.IndexType)
	fmt.Fprintf(w, "Index:    %s\n", b.IndexPath)
	fmt.Fprintf(w, "Metadata: %s\n", b.MetadataPath)
}

// FormatBytes renders n with a binary unit suffix. Negative sizes print as 0 B.
func FormatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
