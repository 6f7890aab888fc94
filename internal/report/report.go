// Package report renders a finished discovery run as markdown. The output is
// stored on the run record and served by the CLI, the API and the web UI.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gocausal/domain/dataset"
	"gocausal/domain/graph"
	"gocausal/domain/run"
	"gocausal/internal/discovery"
)

// Input carries everything the report draws from. Record must be populated
// except for its Report field; Result and Profiles are optional and their
// sections are skipped when absent.
type Input struct {
	Record   *run.Record
	Result   *discovery.Result
	Profiles []dataset.Profile
}

// Render builds the markdown report.
func Render(in Input) string {
	var b strings.Builder

	writeHeader(&b, in.Record)
	if len(in.Profiles) > 0 {
		writeProfiles(&b, in.Profiles)
	}
	writeEdges(&b, in.Record)
	writeAmbiguous(&b, in.Record)
	if !in.Record.ColliderOnly {
		writePruning(&b, in.Record)
	}
	if in.Result != nil {
		writeSepsets(&b, in.Result)
	}

	return b.String()
}

func writeHeader(b *strings.Builder, rec *run.Record) {
	b.WriteString(fmt.Sprintf("# Discovery Report: %s\n\n", rec.DatasetName))
	b.WriteString(fmt.Sprintf("- **Run**: `%s`\n", rec.ID))
	b.WriteString(fmt.Sprintf("- **Created**: %s\n", rec.CreatedAt))
	b.WriteString(fmt.Sprintf("- **Test**: %s (alpha %g)\n", rec.TestKind, rec.Alpha))
	if rec.ColliderOnly {
		b.WriteString("- **Mode**: collider-only\n")
	} else {
		b.WriteString(fmt.Sprintf("- **Q**: %g\n", rec.Q))
	}
	b.WriteString(fmt.Sprintf("- **Variables**: %d, **edges kept**: %d\n", rec.NumNodes, rec.NumEdges))
	b.WriteString(fmt.Sprintf("- **Elapsed**: %dms\n", rec.ElapsedMS))
	b.WriteString(fmt.Sprintf("- **Dataset hash**: `%s`\n", rec.DatasetHash))
	b.WriteString(fmt.Sprintf("- **Fingerprint**: `%s`\n\n", rec.Fingerprint.Value))
}

func writeProfiles(b *strings.Builder, profiles []dataset.Profile) {
	b.WriteString("## Variables\n\n")
	b.WriteString("| Variable | Samples | Distinct | Mean | StdDev | Min | Median | Max |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|\n")
	for _, p := range profiles {
		b.WriteString(fmt.Sprintf("| %s | %d | %d | %.4g | %.4g | %.4g | %.4g | %.4g |\n",
			p.Variable, p.Count, p.Distinct, p.Mean, p.StdDev, p.Min, p.Median, p.Max))
	}
	b.WriteString("\n")
}

func writeEdges(b *strings.Builder, rec *run.Record) {
	b.WriteString("## Graph\n\n")
	if len(rec.Edges) == 0 {
		b.WriteString("No edges survived the search.\n\n")
		return
	}
	for _, e := range rec.Edges {
		b.WriteString(fmt.Sprintf("- %s\n", formatEdge(e)))
	}
	b.WriteString("\n")
}

func writeAmbiguous(b *strings.Builder, rec *run.Record) {
	if len(rec.Ambiguous) == 0 {
		return
	}
	b.WriteString("## Ambiguous Orientations\n\n")
	b.WriteString("Orientation conflicts retracted the arrows on these edges; the adjacency itself is supported.\n\n")
	for _, e := range rec.Ambiguous {
		b.WriteString(fmt.Sprintf("- %s --- %s\n", e.X, e.Y))
	}
	b.WriteString("\n")
}

func writePruning(b *strings.Builder, rec *run.Record) {
	b.WriteString("## FDR Pruning\n\n")
	if len(rec.PValues) == 0 {
		b.WriteString("No edge accumulated a usable p-value, so pruning was skipped.\n\n")
		return
	}
	b.WriteString(fmt.Sprintf("- **Estimated FDR**: %s\n", formatP(float64(rec.FDR))))
	b.WriteString(fmt.Sprintf("- **Alpha-star**: %s\n", formatP(float64(rec.AlphaStar))))
	b.WriteString(fmt.Sprintf("- **Edges removed**: %d\n\n", len(rec.Removed)))

	b.WriteString("| Rank | Edge | p-value |\n")
	b.WriteString("|---|---|---|\n")
	for i, pv := range rec.PValues {
		b.WriteString(fmt.Sprintf("| %d | %s - %s | %s |\n", i+1, pv.X, pv.Y, formatP(pv.P)))
	}
	b.WriteString("\n")

	if len(rec.Removed) > 0 {
		b.WriteString("Removed:\n\n")
		for _, e := range rec.Removed {
			b.WriteString(fmt.Sprintf("- %s --- %s\n", e.X, e.Y))
		}
		b.WriteString("\n")
	}
}

func writeSepsets(b *strings.Builder, res *discovery.Result) {
	type row struct {
		x, y, cond string
	}
	seen := make(map[string]bool, len(res.Sepsets))
	rows := make([]row, 0, len(res.Sepsets)/2)
	for pair, cond := range res.Sepsets {
		x, y := pair.X.Name(), pair.Y.Name()
		if y < x {
			x, y = y, x
		}
		key := x + "\x00" + y
		if seen[key] {
			continue
		}
		seen[key] = true
		names := graph.NodeNames(cond)
		rows = append(rows, row{x: x, y: y, cond: strings.Join(names, ", ")})
	}
	if len(rows) == 0 {
		return
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].x != rows[j].x {
			return rows[i].x < rows[j].x
		}
		return rows[i].y < rows[j].y
	})

	b.WriteString("## Separating Sets\n\n")
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("- %s, %s given {%s}\n", r.x, r.y, r.cond))
	}
	b.WriteString("\n")
}

func formatEdge(e run.EdgeRecord) string {
	switch e.Type {
	case "directed":
		return fmt.Sprintf("%s --> %s", e.X, e.Y)
	case "bidirected":
		return fmt.Sprintf("%s <-> %s", e.X, e.Y)
	default:
		return fmt.Sprintf("%s --- %s", e.X, e.Y)
	}
}

func formatP(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.6g", v)
}
