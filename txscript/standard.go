// 包含识别和构造标准脚本的函数。

package txscript

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// MaxDataCarrierSize 是 OP_RETURN 数据输出中允许推送的最大字节数。
const MaxDataCarrierSize = 80

// ScriptClass 是脚本标准类型的枚举。
type ScriptClass byte

// 可以识别的脚本类别。
const (
	NonStandardTy ScriptClass = iota // 没有任何公认的形式。
	PubKeyHashTy                     // 支付到公钥哈希。
	ScriptHashTy                     // 支付到脚本哈希。
	NullDataTy                       // 只有数据（可证明不可花费）。
)

// scriptClassToName 包含描述每个脚本类别的字符串。
var scriptClassToName = []string{
	NonStandardTy: "nonstandard",
	PubKeyHashTy:  "pubkeyhash",
	ScriptHashTy:  "scripthash",
	NullDataTy:    "nulldata",
}

// String 返回脚本类别的名称。如果枚举无效，则返回 "Invalid"。
func (t ScriptClass) String() string {
	if int(t) >= len(scriptClassToName) {
		return "Invalid"
	}
	return scriptClassToName[t]
}

// P2PKHScript 返回支付到 20 字节公钥哈希的脚本：
// OP_DUP OP_HASH160 <h160> OP_EQUALVERIFY OP_CHECKSIG
func P2PKHScript(h160 []byte) (*Script, error) {
	if len(h160) != 20 {
		str := fmt.Sprintf("public key hash must be 20 bytes, got %d",
			len(h160))
		return nil, scriptError(ErrUnsupportedAddress, str)
	}
	return NewScript(Op(OP_DUP), Op(OP_HASH160), Push(h160),
		Op(OP_EQUALVERIFY), Op(OP_CHECKSIG))
}

// P2SHScript 返回支付到 20 字节脚本哈希的脚本：
// OP_HASH160 <h160> OP_EQUAL
func P2SHScript(h160 []byte) (*Script, error) {
	if len(h160) != 20 {
		str := fmt.Sprintf("script hash must be 20 bytes, got %d",
			len(h160))
		return nil, scriptError(ErrUnsupportedAddress, str)
	}
	return NewScript(Op(OP_HASH160), Push(h160), Op(OP_EQUAL))
}

// NullDataScript 返回以 OP_RETURN 开头、携带 data 的不可花费脚本。
func NullDataScript(data []byte) (*Script, error) {
	if len(data) > MaxDataCarrierSize {
		str := fmt.Sprintf("data size %d is larger than max "+
			"allowed size %d", len(data), MaxDataCarrierSize)
		return nil, scriptError(ErrElementTooBig, str)
	}
	return NewScript(Op(OP_RETURN), Push(data))
}

// PayToAddrScript 返回支付到给定地址的脚本。只支持 P2PKH 与 P2SH 地址。
func PayToAddrScript(addr btcutil.Address) (*Script, error) {
	switch addr := addr.(type) {
	case *btcutil.AddressPubKeyHash:
		if addr == nil {
			return nil, scriptError(ErrUnsupportedAddress,
				"unable to generate payment script for nil address")
		}
		return P2PKHScript(addr.ScriptAddress())

	case *btcutil.AddressScriptHash:
		if addr == nil {
			return nil, scriptError(ErrUnsupportedAddress,
				"unable to generate payment script for nil address")
		}
		return P2SHScript(addr.ScriptAddress())
	}

	str := fmt.Sprintf("unable to generate payment script for unsupported "+
		"address type %T", addr)
	return nil, scriptError(ErrUnsupportedAddress, str)
}

// IsP2PKH 报告脚本是否是 P2PKH 模板。
func (s *Script) IsP2PKH() bool {
	return s.Len() == 5 &&
		s.cmds[0].IsOpcode(OP_DUP) &&
		s.cmds[1].IsOpcode(OP_HASH160) &&
		s.cmds[2].isPush && len(s.cmds[2].data) == 20 &&
		s.cmds[3].IsOpcode(OP_EQUALVERIFY) &&
		s.cmds[4].IsOpcode(OP_CHECKSIG)
}

// IsP2SH 报告脚本是否是 P2SH 模板。
func (s *Script) IsP2SH() bool {
	return s.Len() == 3 &&
		s.cmds[0].IsOpcode(OP_HASH160) &&
		s.cmds[1].isPush && len(s.cmds[1].data) == 20 &&
		s.cmds[2].IsOpcode(OP_EQUAL)
}

// isNullData 报告脚本是否以 OP_RETURN 开头且之后至多有一次数据推送。
func (s *Script) isNullData() bool {
	switch s.Len() {
	case 1:
		return s.cmds[0].IsOpcode(OP_RETURN)
	case 2:
		return s.cmds[0].IsOpcode(OP_RETURN) &&
			(s.cmds[1].isPush || s.cmds[1].IsOpcode(OP_0)) &&
			len(s.cmds[1].data) <= MaxDataCarrierSize
	}
	return false
}

// Class 返回脚本的标准类别。
func (s *Script) Class() ScriptClass {
	switch {
	case s.IsP2PKH():
		return PubKeyHashTy
	case s.IsP2SH():
		return ScriptHashTy
	case s.isNullData():
		return NullDataTy
	}
	return NonStandardTy
}

// Address 返回 P2PKH 或 P2SH 脚本在给定网络上的 Base58Check 地址。
func (s *Script) Address(params *chaincfg.Params) (string, error) {
	var (
		addr btcutil.Address
		err  error
	)
	switch {
	case s.IsP2PKH():
		addr, err = btcutil.NewAddressPubKeyHash(s.cmds[2].data, params)
	case s.IsP2SH():
		addr, err = btcutil.NewAddressScriptHashFromHash(s.cmds[1].data, params)
	default:
		return "", scriptError(ErrUnsupportedAddress,
			"script is not a pay-to-pubkey-hash or pay-to-script-hash script")
	}
	if err != nil {
		return "", scriptError(ErrUnsupportedAddress, err.Error())
	}
	return addr.EncodeAddress(), nil
}

// IsPushOnly 报告脚本是否只包含数据推送与推送小整数的操作码（OP_0、OP_1NEGATE、OP_1 至 OP_16）。
func (s *Script) IsPushOnly() bool {
	for _, cmd := range s.Commands() {
		if cmd.isPush {
			continue
		}
		if cmd.op > OP_16 || cmd.op == OP_RESERVED {
			return false
		}
	}
	return true
}
