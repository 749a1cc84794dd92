package reportpdf

import "strings"

type Word struct {
	Text  string
	Width float64
}

// Line is one packed line. Gap is the space placed between consecutive words.
type Line struct {
	Words []Word
	Gap   float64
	Last  bool
}

// Width is the rendered width of the line including gaps.
func (l Line) Width() float64 {
	w := 0.0
	for _, word := range l.Words {
		w += word.Width
	}
	if n := len(l.Words); n > 1 {
		w += l.Gap * float64(n-1)
	}
	return w
}

// Justify packs words greedily into lines no wider than width when separated
// by space, then spreads the leftover width evenly over the gaps of every line
// but the last. The last line keeps space as its gap. A word wider than width
// gets a line of its own.
func Justify(text string, width, space float64, measure func(string) float64) []Line {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}

	var (
		lines []Line
		cur   []Word
		sum   float64
	)
	flush := func() {
		lines = append(lines, Line{Words: cur, Gap: spread(cur, sum, width)})
		cur, sum = nil, 0
	}
	for _, f := range fields {
		w := Word{Text: f, Width: measure(f)}
		if len(cur) > 0 && sum+w.Width+space*float64(len(cur)) > width {
			flush()
		}
		cur = append(cur, w)
		sum += w.Width
	}
	lines = append(lines, Line{Words: cur, Gap: space, Last: true})
	return lines
}

func spread(words []Word, sum, width float64) float64 {
	if len(words) < 2 {
		return 0
	}
	gap := (width - sum) / float64(len(words)-1)
	if gap < 0 {
		return 0
	}
	return gap
}
