package reportpdf

import (
	"math"
	"strings"
	"testing"
	"unicode/utf8"
)

func runeWidth(s string) float64 { return float64(utf8.RuneCountInString(s)) }

func lineText(l Line) string {
	parts := make([]string, 0, len(l.Words))
	for _, w := range l.Words {
		parts = append(parts, w.Text)
	}
	return strings.Join(parts, " ")
}

func TestJustifyPacksAndSpreads(t *testing.T) {
	lines := Justify("aaa bbb cc dd", 8, 1, runeWidth)
	if len(lines) != 2 {
		t.Fatalf("lines: want=2 got=%d", len(lines))
	}
	if got := lineText(lines[0]); got != "aaa bbb" {
		t.Fatalf("line 0: want=%q got=%q", "aaa bbb", got)
	}
	if lines[0].Gap != 2 || lines[0].Last {
		t.Fatalf("line 0 gap: want=2 got=%v last=%v", lines[0].Gap, lines[0].Last)
	}
	if got := lineText(lines[1]); got != "cc dd" {
		t.Fatalf("line 1: want=%q got=%q", "cc dd", got)
	}
	if lines[1].Gap != 1 || !lines[1].Last {
		t.Fatalf("last line gap: want=1 got=%v last=%v", lines[1].Gap, lines[1].Last)
	}
}

func TestJustifyFullLinesFillWidth(t *testing.T) {
	text := "el liderazgo se demuestra en la constancia con la que un equipo sostiene sus acuerdos diarios y revisa sus resultados"
	const width = 30.0
	lines := Justify(text, width, 1, runeWidth)
	if len(lines) < 3 {
		t.Fatalf("lines: want>=3 got=%d", len(lines))
	}
	var words []string
	for i, l := range lines {
		for _, w := range l.Words {
			words = append(words, w.Text)
		}
		if l.Last {
			if i != len(lines)-1 {
				t.Fatalf("last flag on line %d of %d", i, len(lines))
			}
			if l.Width() > width {
				t.Fatalf("last line overflows: %v", l.Width())
			}
			continue
		}
		if len(l.Words) > 1 && math.Abs(l.Width()-width) > 1e-9 {
			t.Fatalf("line %d width: want=%v got=%v", i, width, l.Width())
		}
		if len(l.Words) > 1 && l.Gap < 1 {
			t.Fatalf("line %d gap below space: %v", i, l.Gap)
		}
	}
	if got := strings.Join(words, " "); got != strings.Join(strings.Fields(text), " ") {
		t.Fatalf("words reordered or lost: %q", got)
	}
}

func TestJustifyLongWordSitsAlone(t *testing.T) {
	lines := Justify("a extraordinariamente b", 5, 1, runeWidth)
	if len(lines) != 3 {
		t.Fatalf("lines: want=3 got=%d", len(lines))
	}
	if got := lineText(lines[1]); got != "extraordinariamente" {
		t.Fatalf("middle line: want=%q got=%q", "extraordinariamente", got)
	}
	if lines[0].Gap != 0 || lines[1].Gap != 0 {
		t.Fatalf("single-word lines should have zero gap: %v %v", lines[0].Gap, lines[1].Gap)
	}
}

func TestJustifyEmpty(t *testing.T) {
	if lines := Justify("  \n\t ", 10, 1, runeWidth); lines != nil {
		t.Fatalf("want nil got=%v", lines)
	}
}
