// Package snapshot_test holds golden listing tests for compiled graphs.
//
// Every graph document in testdata/in/ is compiled with default options and
// its disassembly compared to testdata/golden/spv/{name}.spvasm. Structural
// properties of the module are checked whether or not a golden file exists.
//
// To regenerate golden files after intentional changes:
//
//	UPDATE_GOLDEN=1 go test ./snapshot/...
package snapshot_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/gogpu/shadergraph"
	"github.com/gogpu/shadergraph/spirv"
)

// graphFile is an input document loaded from disk.
type graphFile struct {
	name string // base name without extension (e.g., "lighting")
	data []byte
}

func TestSnapshots(t *testing.T) {
	graphs := loadInputGraphs(t, "testdata/in")
	if len(graphs) == 0 {
		t.Fatal("no input graphs found in testdata/in/")
	}

	for i := range graphs {
		g := &graphs[i]
		t.Run(g.name, func(t *testing.T) {
			m := compile(t, g)

			t.Run("spv", func(t *testing.T) {
				compareGolden(t, filepath.Join("testdata", "golden", "spv", g.name+".spvasm"), spirv.DisassembleString(m))
			})

			t.Run("roundtrip", func(t *testing.T) {
				checkRoundTrip(t, m)
			})

			t.Run("deterministic", func(t *testing.T) {
				again := compile(t, g)
				if string(again.Bytes()) != string(m.Bytes()) {
					t.Errorf("second compilation differs:\n%s", diffStrings(spirv.DisassembleString(m), spirv.DisassembleString(again)))
				}
			})

			t.Run("layout", func(t *testing.T) {
				checkLayout(t, m)
			})
		})
	}
}

func loadInputGraphs(t *testing.T, dir string) []graphFile {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read input dir %s: %v", dir, err)
	}

	var graphs []graphFile

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			t.Fatalf("read %s: %v", e.Name(), err)
		}

		graphs = append(graphs, graphFile{
			name: strings.TrimSuffix(e.Name(), ".yaml"),
			data: data,
		})
	}

	sort.Slice(graphs, func(i, j int) bool { return graphs[i].name < graphs[j].name })

	return graphs
}

func compile(t *testing.T, g *graphFile) *spirv.Module {
	t.Helper()

	opts := shadergraph.DefaultOptions()
	opts.Settings.Debug = true

	m, err := shadergraph.Compile(context.Background(), g.name, g.data, opts)
	if err != nil {
		t.Fatalf("compile %s: %v", g.name, err)
	}

	return m
}

// checkRoundTrip parses the encoded module back and compares listings.
func checkRoundTrip(t *testing.T, m *spirv.Module) {
	t.Helper()

	data := m.Bytes()
	if len(data)%4 != 0 {
		t.Fatalf("module size %d is not a multiple of 4", len(data))
	}

	parsed, err := spirv.Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want, got := spirv.DisassembleString(m), spirv.DisassembleString(parsed)
	if want != got {
		t.Errorf("parsed module differs:\n%s", diffStrings(want, got))
	}

	if parsed.Bound != m.Bound {
		t.Errorf("bound: got %d, want %d", parsed.Bound, m.Bound)
	}
}

// checkLayout verifies that ids are below the bound, every id is defined
// once and declarations refer only to declarations that precede them.
func checkLayout(t *testing.T, m *spirv.Module) {
	t.Helper()

	if len(m.EntryPoints) != 1 {
		t.Errorf("entry points: got %d, want 1", len(m.EntryPoints))
	}

	if len(m.Functions) == 0 || m.Functions[0].ID() != m.EntryPoints[0].Words[1] {
		t.Errorf("entry point function is not the first function")
	}

	defined := map[uint32]bool{}

	for inst := range m.Instructions() {
		id := inst.ResultID()
		if id == 0 {
			continue
		}

		if id >= m.Bound {
			t.Errorf("%v defines %%%d, bound is %d", inst.Opcode, id, m.Bound)
		}

		if defined[id] {
			t.Errorf("%%%d defined twice", id)
		}

		defined[id] = true
	}

	declared := map[uint32]bool{}
	for _, inst := range m.Declarations {
		declared[inst.ResultID()] = true
	}

	seen := map[uint32]bool{}

	for _, inst := range m.Declarations {
		for _, ref := range inst.Refs() {
			if declared[ref] && !seen[ref] {
				t.Errorf("%v uses %%%d before its declaration", inst.Opcode, ref)
			}
		}

		seen[inst.ResultID()] = true
	}
}

// ---------------------------------------------------------------------------
// Golden File Comparison
// ---------------------------------------------------------------------------

// compareGolden compares actual with the golden file at path. A missing
// golden file skips the comparison.
func compareGolden(t *testing.T, path, actual string) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDEN") != "" {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			t.Fatalf("create golden dir: %v", mkErr)
		}
		if wErr := os.WriteFile(path, []byte(actual), 0o644); wErr != nil {
			t.Fatalf("write golden file: %v", wErr)
		}
		t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		t.Skipf("golden file missing: %s\nRun with UPDATE_GOLDEN=1 to create.\n\nActual output:\n%s", path, truncate(actual, 500))
	}
	if err != nil {
		t.Fatalf("read golden file %s: %v", path, err)
	}

	// Git may convert \n to \r\n on Windows checkout.
	expectedStr := strings.ReplaceAll(string(expected), "\r\n", "\n")
	actualStr := strings.ReplaceAll(actual, "\r\n", "\n")

	if expectedStr != actualStr {
		t.Errorf("output differs from golden %s:\n%s", path, diffStrings(expectedStr, actualStr))
	}
}

// diffStrings produces a simple line-by-line diff showing the first difference
// and surrounding context.
func diffStrings(expected, actual string) string {
	expectedLines := strings.Split(expected, "\n")
	actualLines := strings.Split(actual, "\n")

	var sb strings.Builder
	maxLines := len(expectedLines)
	if len(actualLines) > maxLines {
		maxLines = len(actualLines)
	}

	const contextLines = 3
	firstDiff := -1
	for i := 0; i < maxLines; i++ {
		var eLine, aLine string
		if i < len(expectedLines) {
			eLine = expectedLines[i]
		}
		if i < len(actualLines) {
			aLine = actualLines[i]
		}
		if eLine != aLine {
			firstDiff = i
			break
		}
	}

	if firstDiff < 0 {
		return "(no difference found)"
	}

	fmt.Fprintf(&sb, "first difference at line %d:\n", firstDiff+1)
	fmt.Fprintf(&sb, "  expected lines: %d\n", len(expectedLines))
	fmt.Fprintf(&sb, "  actual lines:   %d\n\n", len(actualLines))

	// Show context around the first difference
	start := firstDiff - contextLines
	if start < 0 {
		start = 0
	}
	end := firstDiff + contextLines + 1
	if end > maxLines {
		end = maxLines
	}

	for i := start; i < end; i++ {
		prefix := " "
		var eLine, aLine string
		if i < len(expectedLines) {
			eLine = expectedLines[i]
		}
		if i < len(actualLines) {
			aLine = actualLines[i]
		}
		if eLine != aLine {
			prefix = "!"
		}
		fmt.Fprintf(&sb, "%s %4d expected: %s\n", prefix, i+1, truncate(eLine, 120))
		if eLine != aLine {
			fmt.Fprintf(&sb, "%s %4d actual:   %s\n", prefix, i+1, truncate(aLine, 120))
		}
	}

	return sb.String()
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
