// 实现了短 Weierstrass 曲线 y² = x³ + ax + b 上的点及群运算。

package ecc

import (
	"fmt"
	"math/big"
)

// Curve 描述曲线 y² = x³ + ax + b。
// N 是可选的群阶，非 nil 时标量乘法会先对 N 取余。
type Curve struct {
	A *FieldElement
	B *FieldElement
	N *big.Int
}

// NewCurve 使用系数 a 和 b 创建一条曲线，两个系数必须属于同一个有限域。
func NewCurve(a, b *FieldElement) (*Curve, error) {
	if a == nil || b == nil {
		return nil, eccError(ErrFieldRange, "curve coefficients must be set")
	}
	if err := a.checkField(b, "build a curve from"); err != nil {
		return nil, err
	}
	return &Curve{A: a, B: b}, nil
}

// Equal 比较两条曲线的系数，不比较群阶。
func (c *Curve) Equal(other *Curve) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.A.Equal(other.A) && c.B.Equal(other.B)
}

// contains 报告 (x, y) 是否满足曲线方程。
func (c *Curve) contains(x, y *FieldElement) bool {
	left := y.mul(y)
	right := x.mul(x).mul(x).add(c.A.mul(x)).add(c.B)
	return left.Equal(right)
}

// Point 是曲线上的一个点。x 与 y 同时为 nil 时表示无穷远点（群的单位元）。
type Point struct {
	x     *FieldElement
	y     *FieldElement
	curve *Curve
}

// NewPoint 创建曲线上的一个点。
// 坐标必须与曲线系数属于同一个有限域并满足曲线方程，两个坐标都为 nil 时返回无穷远点。
func NewPoint(x, y *FieldElement, curve *Curve) (*Point, error) {
	if curve == nil {
		return nil, eccError(ErrCurveMismatch, "point requires a curve")
	}
	if x == nil && y == nil {
		return Infinity(curve), nil
	}
	if x == nil || y == nil {
		return nil, eccError(ErrNotOnCurve,
			"point must have both coordinates or neither")
	}
	if err := x.checkField(curve.A, "place a point"); err != nil {
		return nil, err
	}
	if err := y.checkField(curve.A, "place a point"); err != nil {
		return nil, err
	}
	if !curve.contains(x, y) {
		str := fmt.Sprintf("(%v, %v) is not on the curve", x.num, y.num)
		return nil, eccError(ErrNotOnCurve, str)
	}
	return &Point{x: x, y: y, curve: curve}, nil
}

// Infinity 返回曲线的无穷远点。
func Infinity(curve *Curve) *Point {
	return &Point{curve: curve}
}

// IsInfinity 返回该点是否为无穷远点。
func (p *Point) IsInfinity() bool {
	return p.x == nil
}

// X 返回横坐标，无穷远点返回 nil。
func (p *Point) X() *FieldElement {
	return p.x
}

// Y 返回纵坐标，无穷远点返回 nil。
func (p *Point) Y() *FieldElement {
	return p.y
}

// Curve 返回点所在的曲线。
func (p *Point) Curve() *Curve {
	return p.curve
}

// Equal 返回两个点是否位于同一条曲线且坐标相同。
func (p *Point) Equal(other *Point) bool {
	if p == nil || other == nil {
		return p == other
	}
	if !p.curve.Equal(other.curve) {
		return false
	}
	if p.IsInfinity() || other.IsInfinity() {
		return p.IsInfinity() && other.IsInfinity()
	}
	return p.x.Equal(other.x) && p.y.Equal(other.y)
}

// Neg 返回该点的加法逆元 (x, -y)。
func (p *Point) Neg() *Point {
	if p.IsInfinity() {
		return p
	}
	return &Point{x: p.x, y: p.y.neg(), curve: p.curve}
}

// String 返回点的可读形式。
func (p *Point) String() string {
	if p.IsInfinity() {
		return "Point(infinity)"
	}
	return fmt.Sprintf("Point(%v,%v)_%v_%v FieldElement(%v)",
		p.x.num, p.y.num, p.curve.A.num, p.curve.B.num, p.x.prime)
}

// Add 返回 p + other。两个点必须位于同一条曲线上。
func (p *Point) Add(other *Point) (*Point, error) {
	if !p.curve.Equal(other.curve) {
		return nil, eccError(ErrCurveMismatch,
			"points are not on the same curve")
	}
	return p.add(other), nil
}

// add 实现群运算，调用者需保证两个点在同一条曲线上。
func (p *Point) add(other *Point) *Point {
	switch {
	case p.IsInfinity():
		return other
	case other.IsInfinity():
		return p
	}

	var s *FieldElement
	switch {
	// 互为逆元。
	case p.x.Equal(other.x) && !p.y.Equal(other.y):
		return Infinity(p.curve)

	// 倍点，切线垂直时结果为无穷远点。
	case p.x.Equal(other.x):
		if p.y.IsZero() {
			return Infinity(p.curve)
		}
		num := p.x.mul(p.x).ScalarMul(big.NewInt(3)).add(p.curve.A)
		den := p.y.ScalarMul(bigTwo)
		s = num.mul(den.inverse())

	default:
		num := other.y.sub(p.y)
		den := other.x.sub(p.x)
		s = num.mul(den.inverse())
	}

	x3 := s.mul(s).sub(p.x).sub(other.x)
	y3 := s.mul(p.x.sub(x3)).sub(p.y)
	return &Point{x: x3, y: y3, curve: p.curve}
}

// ScalarMul 返回 k·p，使用从低位到高位的二进制倍加法。
// 曲线带有群阶时 k 先对 N 取非负余数，否则负数 k 等价于 |k|·(-p)。
func (p *Point) ScalarMul(k *big.Int) *Point {
	coef := new(big.Int).Set(k)
	current := p
	switch {
	case p.curve.N != nil:
		coef.Mod(coef, p.curve.N)
	case coef.Sign() < 0:
		coef.Neg(coef)
		current = p.Neg()
	}

	result := Infinity(p.curve)
	for i := 0; i < coef.BitLen(); i++ {
		if coef.Bit(i) == 1 {
			result = result.add(current)
		}
		current = current.add(current)
	}
	return result
}
