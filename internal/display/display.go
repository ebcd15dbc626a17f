// Package display prints learned policies and state values to a terminal.
package display

import (
	"errors"
	"fmt"
	"io"

	"github.com/logrusorgru/aurora"

	"github.com/boristopalov/rlplayground/pkg/environment"
)

var arrows = map[string]string{
	"LEFT":  "←",
	"DOWN":  "↓",
	"RIGHT": "→",
	"UP":    "↑",
}

// Printer writes grids of the greedy policy and state values
type Printer struct {
	w  io.Writer
	au aurora.Aurora
}

func NewPrinter(w io.Writer, colors bool) *Printer {
	return &Printer{w: w, au: aurora.NewAurora(colors)}
}

// QTable extracts the q_table entry of an algorithm's learning data
func QTable(data map[string]any) ([][]float64, error) {
	q, ok := data["q_table"].([][]float64)
	if !ok {
		return nil, errors.New("learning data has no q_table")
	}
	return q, nil
}

// Policy prints the greedy action of every state. Holes, the cliff and the
// goal print their tile letter, untouched states print a dot.
func (p *Printer) Policy(info environment.Info, q [][]float64) error {
	if err := check(info, q); err != nil {
		return err
	}
	for r := 0; r < info.Rows; r++ {
		for c := 0; c < info.Cols; c++ {
			state := r*info.Cols + c
			switch tile := info.Layout[r][c]; tile {
			case 'H', 'C':
				fmt.Fprint(p.w, p.au.Red(fmt.Sprintf(" %c ", tile)))
			case 'G':
				fmt.Fprint(p.w, p.au.Green(fmt.Sprintf(" %c ", tile)))
			default:
				a, ok := greedy(q[state])
				if !ok {
					fmt.Fprint(p.w, p.au.Gray(12, " · "))
					continue
				}
				fmt.Fprint(p.w, p.au.Blue(fmt.Sprintf(" %s ", arrow(info.Actions[a]))))
			}
		}
		fmt.Fprintln(p.w)
	}
	return nil
}

// Values prints max_a Q(s, a) for every state
func (p *Printer) Values(info environment.Info, q [][]float64) error {
	if err := check(info, q); err != nil {
		return err
	}
	for r := 0; r < info.Rows; r++ {
		for c := 0; c < info.Cols; c++ {
			row := q[r*info.Cols+c]
			v := row[0]
			for _, x := range row[1:] {
				v = max(v, x)
			}
			fmt.Fprint(p.w, p.au.Blue(formatValue(v)))
			fmt.Fprint(p.w, p.au.White("|"))
		}
		fmt.Fprintln(p.w)
	}
	return nil
}

func check(info environment.Info, q [][]float64) error {
	if len(q) != info.Rows*info.Cols || len(info.Layout) != info.Rows {
		return fmt.Errorf("q_table has %d states, %s has %d", len(q), info.Name, info.Rows*info.Cols)
	}
	for _, row := range q {
		if len(row) != len(info.Actions) || len(row) == 0 {
			return fmt.Errorf("q_table rows must have %d actions", len(info.Actions))
		}
	}
	return nil
}

// greedy returns the first maximizing action, or false when every action ties
func greedy(row []float64) (int, bool) {
	best, tied := 0, true
	for a := 1; a < len(row); a++ {
		if row[a] != row[0] {
			tied = false
		}
		if row[a] > row[best] {
			best = a
		}
	}
	return best, !tied
}

func arrow(action string) string {
	if s, ok := arrows[action]; ok {
		return s
	}
	return action[:1]
}

func formatValue(x float64) string {
	if x < 0 {
		return fmt.Sprintf(" -%06.2f", -x)
	}
	return fmt.Sprintf("  %06.2f", x)
}
