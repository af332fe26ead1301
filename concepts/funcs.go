package concepts

import (
	"fmt"
	"math"
	"strings"
	"text/template"
)

// funcs are available to every show line
var funcs = template.FuncMap{
	"softmax": softmax,
	"pct":     pct,
	"bar":     bar,
	"join":    join,
	"cosine":  cosine,
	"decay":   decay,
	"take":    take,
	"drop":    drop,
	"sum":     sum,
	"scale":   scale,
	"add":     func(a, b int) int { return a + b },
	"sub":     func(a, b int) int { return a - b },
	"pad":     pad,
}

// softmax converts scores into probabilities summing to 1. The maximum is
// subtracted first so large scores do not overflow.
func softmax(scores any) ([]float64, error) {
	xs, err := floats(scores)
	if err != nil {
		return nil, err
	}
	if len(xs) == 0 {
		return nil, nil
	}

	hi := math.Inf(-1)
	for _, x := range xs {
		hi = math.Max(hi, x)
	}

	out := make([]float64, len(xs))
	var sum float64
	for i, x := range xs {
		out[i] = math.Exp(x - hi)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out, nil
}

// pct formats a fraction as a whole percentage
func pct(v any) (string, error) {
	f, err := float(v)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%.0f%%", f*100), nil
}

// bar draws a fraction as a fixed-width bar
func bar(v any, width int) (string, error) {
	f, err := float(v)
	if err != nil {
		return "", err
	}
	f = math.Max(0, math.Min(1, f))
	n := int(math.Round(f * float64(width)))
	return strings.Repeat("█", n) + strings.Repeat("░", width-n), nil
}

// join concatenates list items with sep
func join(list any, sep string) (string, error) {
	items, err := anys(list)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = fmt.Sprint(item)
	}
	return strings.Join(parts, sep), nil
}

// cosine is the cosine similarity of two vectors
func cosine(a, b any) (float64, error) {
	xs, err := floats(a)
	if err != nil {
		return 0, err
	}
	ys, err := floats(b)
	if err != nil {
		return 0, err
	}
	if len(xs) != len(ys) {
		return 0, fmt.Errorf("cosine: vectors of length %d and %d", len(xs), len(ys))
	}

	var dot, nx, ny float64
	for i := range xs {
		dot += xs[i] * ys[i]
		nx += xs[i] * xs[i]
		ny += ys[i] * ys[i]
	}
	if nx == 0 || ny == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(nx) * math.Sqrt(ny)), nil
}

// decay is start shrunk by factor n times, never below floor
func decay(start, factor, floor any, n int) (float64, error) {
	s, err := float(start)
	if err != nil {
		return 0, err
	}
	f, err := float(factor)
	if err != nil {
		return 0, err
	}
	lo, err := float(floor)
	if err != nil {
		return 0, err
	}
	return math.Max(lo, s*math.Pow(f, float64(max(n, 0)))), nil
}

// take returns the first n items of list, clamped to its bounds
func take(list any, n int) ([]any, error) {
	items, err := anys(list)
	if err != nil {
		return nil, err
	}
	return items[:max(0, min(n, len(items)))], nil
}

// drop returns list without its first n items
func drop(list any, n int) ([]any, error) {
	items, err := anys(list)
	if err != nil {
		return nil, err
	}
	return items[max(0, min(n, len(items))):], nil
}

// sum adds up a list of numbers
func sum(list any) (float64, error) {
	xs, err := floats(list)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, x := range xs {
		total += x
	}
	return total, nil
}

// scale maps v from [lo, hi] onto [0, 1]
func scale(v, lo, hi any) (float64, error) {
	f, err := float(v)
	if err != nil {
		return 0, err
	}
	l, err := float(lo)
	if err != nil {
		return 0, err
	}
	h, err := float(hi)
	if err != nil {
		return 0, err
	}
	if h == l {
		return 0, nil
	}
	return (f - l) / (h - l), nil
}

// pad right-pads s with spaces to width runes
func pad(width int, v any) string {
	s := fmt.Sprint(v)
	if n := width - len([]rune(s)); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

func anys(v any) ([]any, error) {
	switch list := v.(type) {
	case []any:
		return list, nil
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out, nil
	case []float64:
		out := make([]any, len(list))
		for i, f := range list {
			out[i] = f
		}
		return out, nil
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("expected a list, got %T", v)
}

func floats(v any) ([]float64, error) {
	if fs, ok := v.([]float64); ok {
		return fs, nil
	}
	items, err := anys(v)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(items))
	for i, item := range items {
		if out[i], err = float(item); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func float(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}
