// Package series generates simple numeric sequences and serves them over
// HTTP. The generators are pure functions with no state.
package series

// Natural returns the first count natural numbers, starting at 1.
func Natural(count int) []int {
	out := make([]int, 0, max(count, 0))
	for i := 1; i <= count; i++ {
		out = append(out, i)
	}
	return out
}

// Fibonacci returns the first count Fibonacci numbers, starting at 0.
func Fibonacci(count int) []int {
	out := make([]int, 0, max(count, 0))
	a, b := 0, 1
	for i := 0; i < count; i++ {
		out = append(out, a)
		a, b = b, a+b
	}
	return out
}

// Quadratic returns the first count squares, starting at 1.
func Quadratic(count int) []int {
	out := make([]int, 0, max(count, 0))
	for i := 1; i <= count; i++ {
		out = append(out, i*i)
	}
	return out
}

// Cubic returns the first count cubes, starting at 1.
func Cubic(count int) []int {
	out := make([]int, 0, max(count, 0))
	for i := 1; i <= count; i++ {
		out = append(out, i*i*i)
	}
	return out
}

// Even returns the first count even numbers, starting at 2.
func Even(count int) []int {
	out := make([]int, 0, max(count, 0))
	for i := 1; i <= count; i++ {
		out = append(out, i*2)
	}
	return out
}

// Generate resolves a series by name. For input n, every series yields n+1
// terms except fibonacci, which yields n+2. The second return value is false
// for an unknown name.
func Generate(name string, n int) ([]int, bool) {
	switch name {
	case "natural":
		return Natural(n + 1), true
	case "fibonacci":
		return Fibonacci(n + 2), true
	case "quadratic":
		return Quadratic(n + 1), true
	case "cubic":
		return Cubic(n + 1), true
	case "even":
		return Even(n + 1), true
	}
	return nil, false
}
