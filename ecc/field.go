// 实现了素数域上的有限域元素及其运算。

package ecc

import (
	"fmt"
	"math/big"
)

var (
	bigOne = big.NewInt(1)
	bigTwo = big.NewInt(2)
)

// FieldElement 表示素数域 F_prime 中的一个元素。
// 元素是不可变的，所有运算都返回新的元素。
type FieldElement struct {
	num   *big.Int
	prime *big.Int
}

// NewFieldElement 创建一个有限域元素。
// 模数必须大于 1，值必须满足 0 <= num < prime。
func NewFieldElement(num, prime *big.Int) (*FieldElement, error) {
	if prime == nil || prime.Cmp(bigTwo) < 0 {
		return nil, eccError(ErrFieldRange, "field prime must be greater than 1")
	}
	if num == nil || num.Sign() < 0 || num.Cmp(prime) >= 0 {
		str := fmt.Sprintf("num %v not in field range 0 to %v", num,
			new(big.Int).Sub(prime, bigOne))
		return nil, eccError(ErrFieldRange, str)
	}
	return &FieldElement{
		num:   new(big.Int).Set(num),
		prime: new(big.Int).Set(prime),
	}, nil
}

// newElement 将 num 规约到 [0, prime) 并返回新的元素，num 的所有权转移给返回值。
func newElement(num, prime *big.Int) *FieldElement {
	return &FieldElement{num: num.Mod(num, prime), prime: prime}
}

// Value 返回元素值的副本。
func (e *FieldElement) Value() *big.Int {
	return new(big.Int).Set(e.num)
}

// Prime 返回元素所在有限域模数的副本。
func (e *FieldElement) Prime() *big.Int {
	return new(big.Int).Set(e.prime)
}

// IsZero 返回元素是否为零元素。
func (e *FieldElement) IsZero() bool {
	return e.num.Sign() == 0
}

// Equal 返回两个元素的值和模数是否都相等。
func (e *FieldElement) Equal(other *FieldElement) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.num.Cmp(other.num) == 0 && e.prime.Cmp(other.prime) == 0
}

// String 返回元素的可读形式，例如 FieldElement_223(17)。
func (e *FieldElement) String() string {
	return fmt.Sprintf("FieldElement_%v(%v)", e.prime, e.num)
}

// checkField 确保两个元素属于同一个有限域。
func (e *FieldElement) checkField(other *FieldElement, op string) error {
	if e.prime.Cmp(other.prime) != 0 {
		str := fmt.Sprintf("cannot %s two numbers in different fields "+
			"(%v and %v)", op, e.prime, other.prime)
		return eccError(ErrFieldMismatch, str)
	}
	return nil
}

// Add 返回 e + other。
func (e *FieldElement) Add(other *FieldElement) (*FieldElement, error) {
	if err := e.checkField(other, "add"); err != nil {
		return nil, err
	}
	return e.add(other), nil
}

// Sub 返回 e - other。
func (e *FieldElement) Sub(other *FieldElement) (*FieldElement, error) {
	if err := e.checkField(other, "subtract"); err != nil {
		return nil, err
	}
	return e.sub(other), nil
}

// Mul 返回 e * other。
func (e *FieldElement) Mul(other *FieldElement) (*FieldElement, error) {
	if err := e.checkField(other, "multiply"); err != nil {
		return nil, err
	}
	return e.mul(other), nil
}

// Div 返回 e / other，即 e 乘以 other 的乘法逆元。
func (e *FieldElement) Div(other *FieldElement) (*FieldElement, error) {
	if err := e.checkField(other, "divide"); err != nil {
		return nil, err
	}
	if other.IsZero() {
		return nil, eccError(ErrDivisionByZero, "division by zero element")
	}
	return e.mul(other.inverse()), nil
}

// Pow 返回 e 的 exp 次幂。
// 指数先对 (prime - 1) 取非负余数，因此负指数按费马小定理求逆：a^-1 = a^(p-2)。
func (e *FieldElement) Pow(exp *big.Int) (*FieldElement, error) {
	if e.IsZero() {
		switch exp.Sign() {
		case -1:
			return nil, eccError(ErrDivisionByZero,
				"negative power of zero element")
		case 0:
			return newElement(big.NewInt(1), e.prime), nil
		}
		return newElement(new(big.Int), e.prime), nil
	}
	return e.pow(exp), nil
}

// ScalarMul 返回整数 k 与元素的乘积，即 k 个 e 相加。
func (e *FieldElement) ScalarMul(k *big.Int) *FieldElement {
	return newElement(new(big.Int).Mul(e.num, k), e.prime)
}

// 以下未导出的方法假定调用者已经确认两个元素属于同一个有限域。

func (e *FieldElement) add(other *FieldElement) *FieldElement {
	return newElement(new(big.Int).Add(e.num, other.num), e.prime)
}

func (e *FieldElement) sub(other *FieldElement) *FieldElement {
	return newElement(new(big.Int).Sub(e.num, other.num), e.prime)
}

func (e *FieldElement) mul(other *FieldElement) *FieldElement {
	return newElement(new(big.Int).Mul(e.num, other.num), e.prime)
}

func (e *FieldElement) pow(exp *big.Int) *FieldElement {
	order := new(big.Int).Sub(e.prime, bigOne)
	n := new(big.Int).Mod(exp, order)
	return newElement(new(big.Int).Exp(e.num, n, e.prime), e.prime)
}

// inverse 返回非零元素的乘法逆元。
func (e *FieldElement) inverse() *FieldElement {
	return newElement(new(big.Int).ModInverse(e.num, e.prime), e.prime)
}

func (e *FieldElement) neg() *FieldElement {
	return newElement(new(big.Int).Neg(e.num), e.prime)
}
