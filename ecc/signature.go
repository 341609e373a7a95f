// 定义了 ECDSA 签名及其 DER 编码。

package ecc

import (
	"fmt"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

// Signature 是一个 ECDSA 签名 (r, s)。
type Signature struct {
	R *big.Int
	S *big.Int
}

// NewSignature 使用 r 和 s 的副本创建签名。
func NewSignature(r, s *big.Int) *Signature {
	return &Signature{R: new(big.Int).Set(r), S: new(big.Int).Set(s)}
}

func (sig *Signature) String() string {
	return fmt.Sprintf("Signature(%x,%x)", sig.R, sig.S)
}

// Equal 返回两个签名的 r 和 s 是否都相等。
func (sig *Signature) Equal(other *Signature) bool {
	if sig == nil || other == nil {
		return sig == other
	}
	return sig.R.Cmp(other.R) == 0 && sig.S.Cmp(other.S) == 0
}

// DER 返回签名的 DER 编码：SEQUENCE { INTEGER r, INTEGER s }。
func (sig *Signature) DER() []byte {
	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(sig.R)
		b.AddASN1BigInt(sig.S)
	})
	return b.BytesOrPanic()
}

// ParseDER 解析严格 DER 编码的签名。
// 长度和整数都必须是最短编码，r 与 s 必须为正数，且不允许有多余的字节。
func ParseDER(der []byte) (*Signature, error) {
	var (
		input = cryptobyte.String(der)
		inner cryptobyte.String
		r     = new(big.Int)
		s     = new(big.Int)
	)
	if !input.ReadASN1(&inner, asn1.SEQUENCE) || !input.Empty() {
		return nil, eccError(ErrInvalidDER, "malformed signature sequence")
	}
	if !inner.ReadASN1Integer(r) || !inner.ReadASN1Integer(s) ||
		!inner.Empty() {

		return nil, eccError(ErrInvalidDER, "malformed signature integers")
	}
	if r.Sign() <= 0 || s.Sign() <= 0 {
		return nil, eccError(ErrInvalidDER, "signature values must be positive")
	}
	return &Signature{R: r, S: s}, nil
}
