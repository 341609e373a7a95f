// 定义了 secp256k1 曲线参数以及该曲线上的公钥（S256 点）。

package ecc

import (
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

const (
	pubKeyBytesLenCompressed   = 33
	pubKeyBytesLenUncompressed = 65

	pubKeyCompressedEven byte = 0x02
	pubKeyCompressedOdd  byte = 0x03
	pubKeyUncompressed   byte = 0x04
)

// fromHex 将十六进制常量解析为整数，只用于包级常量的初始化。
func fromHex(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("invalid hex in source file: " + s)
	}
	return n
}

var (
	// P 是 secp256k1 的域模数 2^256 - 2^32 - 977。
	P = fromHex("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEFFFFFC2F")

	// N 是生成元 G 的阶。
	N = fromHex("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141")

	// S256 是 secp256k1 曲线 y² = x³ + 7，群阶为 N。
	S256 = &Curve{
		A: newElement(big.NewInt(0), P),
		B: newElement(big.NewInt(7), P),
		N: N,
	}

	// G 是 secp256k1 的生成元。
	G = &PublicKey{point: &Point{x: gx, y: gy, curve: S256}}

	gx = newElement(fromHex("79BE667EF9DCBBAC55A06295CE870B07029BFCDB2DCE28D959F2815B16F81798"), P)
	gy = newElement(fromHex("483ADA7726A3C4655DA4FBFC0E1108A8FD17B448A68554199C47D08FFB10D4B8"), P)

	// halfOrder 用于 low-s 规范化。
	halfOrder = new(big.Int).Rsh(N, 1)

	// sqrtExp 是 p ≡ 3 (mod 4) 时求平方根所用的指数 (p + 1) / 4。
	sqrtExp = new(big.Int).Rsh(new(big.Int).Add(P, bigOne), 2)
)

// PublicKey 是 secp256k1 曲线上的一个点，用作公钥。
type PublicKey struct {
	point *Point
}

// NewS256Point 使用仿射坐标创建 secp256k1 上的点。
func NewS256Point(x, y *big.Int) (*PublicKey, error) {
	fx, err := NewFieldElement(x, P)
	if err != nil {
		return nil, err
	}
	fy, err := NewFieldElement(y, P)
	if err != nil {
		return nil, err
	}
	pt, err := NewPoint(fx, fy, S256)
	if err != nil {
		return nil, err
	}
	return &PublicKey{point: pt}, nil
}

// ScalarBaseMult 返回 k·G。
func ScalarBaseMult(k *big.Int) *PublicKey {
	return G.ScalarMul(k)
}

// Point 返回底层的曲线点。
func (pk *PublicKey) Point() *Point {
	return pk.point
}

// X 返回横坐标的整数值，无穷远点返回 nil。
func (pk *PublicKey) X() *big.Int {
	if pk.point.IsInfinity() {
		return nil
	}
	return pk.point.x.Value()
}

// Y 返回纵坐标的整数值，无穷远点返回 nil。
func (pk *PublicKey) Y() *big.Int {
	if pk.point.IsInfinity() {
		return nil
	}
	return pk.point.y.Value()
}

// IsInfinity 返回该公钥是否为无穷远点。
func (pk *PublicKey) IsInfinity() bool {
	return pk.point.IsInfinity()
}

// Equal 返回两个公钥是否表示同一个点。
func (pk *PublicKey) Equal(other *PublicKey) bool {
	if pk == nil || other == nil {
		return pk == other
	}
	return pk.point.Equal(other.point)
}

// Add 返回 pk + other。
func (pk *PublicKey) Add(other *PublicKey) *PublicKey {
	return &PublicKey{point: pk.point.add(other.point)}
}

// Neg 返回 pk 的加法逆元 (x, -y)。
func (pk *PublicKey) Neg() *PublicKey {
	return &PublicKey{point: pk.point.Neg()}
}

// ScalarMul 返回 k·pk，k 先对 N 取余。
func (pk *PublicKey) ScalarMul(k *big.Int) *PublicKey {
	return &PublicKey{point: pk.point.ScalarMul(k)}
}

func (pk *PublicKey) String() string {
	if pk.IsInfinity() {
		return "S256Point(infinity)"
	}
	return fmt.Sprintf("S256Point(%064x, %064x)", pk.point.x.num, pk.point.y.num)
}

// SEC 返回公钥的 SEC 编码。
// 压缩格式为 33 字节：奇偶前缀 0x02/0x03 加 32 字节 x；非压缩格式为 65 字节：0x04 加 x 和 y。
// 无穷远点没有 SEC 编码，返回 nil。
func (pk *PublicKey) SEC(compressed bool) []byte {
	if pk.IsInfinity() {
		return nil
	}
	if compressed {
		b := make([]byte, pubKeyBytesLenCompressed)
		b[0] = pubKeyCompressedEven
		if pk.point.y.num.Bit(0) == 1 {
			b[0] = pubKeyCompressedOdd
		}
		pk.point.x.num.FillBytes(b[1:])
		return b
	}
	b := make([]byte, pubKeyBytesLenUncompressed)
	b[0] = pubKeyUncompressed
	pk.point.x.num.FillBytes(b[1:33])
	pk.point.y.num.FillBytes(b[33:])
	return b
}

// ParsePublicKey 解析 SEC 编码的公钥。
// 压缩格式通过 v^((p+1)/4) 求出 y，并按前缀的奇偶性选择两个根中的一个。
func ParsePublicKey(sec []byte) (*PublicKey, error) {
	if len(sec) == 0 {
		return nil, eccError(ErrInvalidSEC, "empty public key")
	}

	switch {
	case sec[0] == pubKeyUncompressed && len(sec) == pubKeyBytesLenUncompressed:
		x := new(big.Int).SetBytes(sec[1:33])
		y := new(big.Int).SetBytes(sec[33:])
		pk, err := NewS256Point(x, y)
		if err != nil {
			return nil, eccError(ErrInvalidSEC, err.Error())
		}
		return pk, nil

	case (sec[0] == pubKeyCompressedEven || sec[0] == pubKeyCompressedOdd) &&
		len(sec) == pubKeyBytesLenCompressed:

		xn := new(big.Int).SetBytes(sec[1:])
		if xn.Cmp(P) >= 0 {
			return nil, eccError(ErrInvalidSEC, "x coordinate not in field")
		}
		x := newElement(xn, P)
		alpha := x.mul(x).mul(x).add(S256.B)
		beta := alpha.pow(sqrtExp)
		if !beta.mul(beta).Equal(alpha) {
			return nil, eccError(ErrInvalidSEC, "x coordinate not on curve")
		}

		wantOdd := sec[0] == pubKeyCompressedOdd
		y := beta
		if (beta.num.Bit(0) == 1) != wantOdd {
			y = beta.neg()
		}
		return &PublicKey{point: &Point{x: x, y: y, curve: S256}}, nil
	}

	str := fmt.Sprintf("malformed public key: prefix %#02x, length %d",
		sec[0], len(sec))
	return nil, eccError(ErrInvalidSEC, str)
}

// Verify 检查 sig 是否为该公钥对消息整数 z 的有效 ECDSA 签名。
// r 或 s 超出 [1, N-1] 时返回 false。
func (pk *PublicKey) Verify(z *big.Int, sig *Signature) bool {
	if z == nil || sig == nil || sig.R == nil || sig.S == nil ||
		pk.IsInfinity() {

		return false
	}
	if sig.R.Sign() <= 0 || sig.R.Cmp(N) >= 0 ||
		sig.S.Sign() <= 0 || sig.S.Cmp(N) >= 0 {

		return false
	}

	sInv := new(big.Int).ModInverse(sig.S, N)
	u := new(big.Int).Mul(z, sInv)
	u.Mod(u, N)
	v := new(big.Int).Mul(sig.R, sInv)
	v.Mod(v, N)

	total := G.point.ScalarMul(u).add(pk.point.ScalarMul(v))
	if total.IsInfinity() {
		return false
	}
	rx := new(big.Int).Mod(total.x.num, N)
	return rx.Cmp(sig.R) == 0
}

// Hash160 返回 SEC 编码的 RIPEMD160(SHA256(...)) 摘要。
func (pk *PublicKey) Hash160(compressed bool) []byte {
	return btcutil.Hash160(pk.SEC(compressed))
}

// Address 返回公钥在指定网络上的 P2PKH 地址。
func (pk *PublicKey) Address(compressed bool, params *chaincfg.Params) (string, error) {
	if pk.IsInfinity() {
		return "", eccError(ErrNotOnCurve, "point at infinity has no address")
	}
	addr, err := btcutil.NewAddressPubKeyHash(pk.Hash160(compressed), params)
	if err != nil {
		return "", err
	}
	return addr.EncodeAddress(), nil
}
