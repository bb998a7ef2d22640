// Package problem generates the arithmetic challenges carried by drops.
package problem

import (
	"fmt"
	"math/rand"

	"github.com/vovakirdan/mathrain/internal/difficulty"
)

// Operator is one of the supported arithmetic operations.
type Operator rune

const (
	Add      Operator = '+'
	Subtract Operator = '-'
	Multiply Operator = '*'
)

// Operators lists the operations in the order the generator picks from.
var Operators = []Operator{Add, Subtract, Multiply}

// String returns the operator symbol.
func (o Operator) String() string {
	return string(o)
}

// Apply evaluates left op right.
func (o Operator) Apply(left, right int) int {
	switch o {
	case Add:
		return left + right
	case Subtract:
		return left - right
	case Multiply:
		return left * right
	default:
		panic(fmt.Sprintf("problem: unknown operator %q", rune(o)))
	}
}

// MultiplyCap is the largest operand ever used for multiplication.
const MultiplyCap = 12

// Problem is an immutable arithmetic challenge.
type Problem struct {
	Left       int
	Op         Operator
	Right      int
	Expression string // e.g. "7 + 5"
	Answer     int
}

// New builds a problem and computes its answer.
func New(left int, op Operator, right int) Problem {
	return Problem{
		Left:       left,
		Op:         op,
		Right:      right,
		Expression: fmt.Sprintf("%d %s %d", left, op, right),
		Answer:     op.Apply(left, right),
	}
}

// Check reports whether answer solves the problem.
func (p Problem) Check(answer int) bool {
	return answer == p.Answer
}

// String returns the expression.
func (p Problem) String() string {
	return p.Expression
}

// Source is the random source used by Generator.
// *math/rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
}

// Generator produces problems from an injected random source.
// Given the same source state and profile it always yields the same problem.
type Generator struct {
	src Source
}

// NewGenerator creates a generator reading from src.
func NewGenerator(src Source) *Generator {
	return &Generator{src: src}
}

// NewSeededGenerator creates a generator with its own seeded source.
func NewSeededGenerator(seed int64) *Generator {
	return NewGenerator(rand.New(rand.NewSource(seed)))
}

// Generate picks an operation uniformly and draws operands within the
// profile's limits:
//
//	add:       a, b in [1, ceiling]
//	subtract:  a in [1, ceiling], b in [1, a]
//	multiply:  a, b in [1, MultiplyBound(ceiling)]
func (g *Generator) Generate(profile difficulty.Profile) Problem {
	ceiling := max(profile.OperandCeiling, 1)
	op := Operators[g.src.Intn(len(Operators))]

	switch op {
	case Subtract:
		left := g.between(1, ceiling)
		right := g.between(1, left)
		return New(left, Subtract, right)
	case Multiply:
		bound := MultiplyBound(ceiling)
		return New(g.between(1, bound), Multiply, g.between(1, bound))
	default:
		return New(g.between(1, ceiling), Add, g.between(1, ceiling))
	}
}

// between returns a uniform integer in [lo, hi].
func (g *Generator) between(lo, hi int) int {
	return lo + g.src.Intn(hi-lo+1)
}

// MaxAnswer returns the largest answer Generate can produce for ceiling.
func MaxAnswer(ceiling int) int {
	ceiling = max(ceiling, 1)
	bound := MultiplyBound(ceiling)
	return max(2*ceiling, bound*bound)
}

// MultiplyBound returns the operand limit for multiplication:
// min(ceiling/2, MultiplyCap), never below 1.
func MultiplyBound(ceiling int) int {
	return max(min(ceiling/2, MultiplyCap), 1)
}
