package ecc

import (
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// PrivateKey 持有一个 [1, N-1] 范围内的秘密标量及其对应的公钥。
// 秘密标量不提供导出的访问方式，也不会出现在任何输出中。
type PrivateKey struct {
	secret *big.Int
	pub    *PublicKey
}

// NewPrivateKey 使用秘密标量创建私钥。
func NewPrivateKey(secret *big.Int) (*PrivateKey, error) {
	if secret == nil || secret.Sign() <= 0 || secret.Cmp(N) >= 0 {
		return nil, eccError(ErrInvalidSecret, "secret must be in [1, N-1]")
	}
	s := new(big.Int).Set(secret)
	return &PrivateKey{secret: s, pub: ScalarBaseMult(s)}, nil
}

// PubKey 返回 secret·G。
func (k *PrivateKey) PubKey() *PublicKey {
	return k.pub
}

func (k *PrivateKey) String() string {
	return "PrivateKey(" + k.pub.String() + ")"
}

// Sign 对 256 位消息整数 z 签名。
// nonce 按 RFC6979 确定性地生成，结果的 s 总是不大于 N/2。
func (k *PrivateKey) Sign(z *big.Int) (*Signature, error) {
	if z == nil || z.Sign() < 0 || z.BitLen() > 256 {
		return nil, eccError(ErrInvalidHash,
			"message integer must be a non-negative 256-bit value")
	}

	var keyBytes, hash [32]byte
	k.secret.FillBytes(keyBytes[:])
	z.FillBytes(hash[:])
	defer func() {
		for i := range keyBytes {
			keyBytes[i] = 0
		}
	}()

	for iteration := uint32(0); ; iteration++ {
		nonce := secp256k1.NonceRFC6979(keyBytes[:], hash[:], nil, nil,
			iteration)
		nonceBytes := nonce.Bytes()
		nonce.Zero()
		kInt := new(big.Int).SetBytes(nonceBytes[:])

		// r = R.x mod N
		rPoint := G.point.ScalarMul(kInt)
		r := new(big.Int).Mod(rPoint.x.num, N)
		if r.Sign() == 0 {
			continue
		}

		// s = (z + r·secret)·k^-1 mod N
		s := new(big.Int).Mul(r, k.secret)
		s.Add(s, z)
		s.Mul(s, new(big.Int).ModInverse(kInt, N))
		s.Mod(s, N)
		if s.Sign() == 0 {
			continue
		}
		if s.Cmp(halfOrder) > 0 {
			s.Sub(N, s)
		}
		return &Signature{R: r, S: s}, nil
	}
}
