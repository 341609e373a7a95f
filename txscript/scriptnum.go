// 实现了脚本数字的编码与解码。

package txscript

import (
	"fmt"
)

const (
	// maxNumLen 是 DecodeNum 接受的最大字节数，对应 int64 的取值范围。
	maxNumLen = 8

	// mathOpNumLen 是算术与比较操作码接受的操作数最大字节数。
	// 运算结果可以超过该长度，但不能再作为这些操作码的输入。
	mathOpNumLen = 4

	// lockTimeNumLen 是 OP_CHECKLOCKTIMEVERIFY 与 OP_CHECKSEQUENCEVERIFY 接受的操作数最大字节数。
	// 比 mathOpNumLen 多一个字节，以便表示到 2^39-1 的时间值。
	lockTimeNumLen = 5
)

// scriptNum 表示脚本引擎中使用的数值。
//
// 数值在栈上以小端序的符号-数值形式编码，最高字节的最高位是符号位，
// 因此 0x81 表示 -1。数值 0 编码为空字节数组。
// 这不是二进制补码：负数的编码与其绝对值的编码仅相差符号位。
//
// 解码时接受非最短编码，例如 0x0100 与 0x01 都表示 1，0x80 表示负零（即 0）。
type scriptNum int64

// Bytes 返回数值的最短编码。
//
// 示例编码：
//
//	   127 -> [0x7f]
//	  -127 -> [0xff]
//	   128 -> [0x80 0x00]
//	  -128 -> [0x80 0x80]
//	   255 -> [0xff 0x00]
//	  -255 -> [0xff 0x80]
func (n scriptNum) Bytes() []byte {
	if n == 0 {
		return nil
	}

	isNegative := n < 0
	magnitude := uint64(n)
	if isNegative {
		magnitude = uint64(-n)
	}

	result := make([]byte, 0, 9)
	for magnitude > 0 {
		result = append(result, byte(magnitude&0xff))
		magnitude >>= 8
	}

	// 最高字节的最高位已被占用时，追加一个额外的字节来承载符号位；
	// 否则直接在最高字节上设置符号位。
	if result[len(result)-1]&0x80 != 0 {
		extraByte := byte(0x00)
		if isNegative {
			extraByte = 0x80
		}
		result = append(result, extraByte)
	} else if isNegative {
		result[len(result)-1] |= 0x80
	}

	return result
}

// Int32 返回截断到 int32 范围内的数值。
func (n scriptNum) Int32() int32 {
	if n > maxInt32 {
		return maxInt32
	}
	if n < minInt32 {
		return minInt32
	}
	return int32(n)
}

const (
	maxInt32 = 1<<31 - 1
	minInt32 = -1 << 31
)

// makeScriptNum 将字节解释为脚本数字，超过 numLen 字节时返回 ErrNumberTooBig。
func makeScriptNum(v []byte, numLen int) (scriptNum, error) {
	if len(v) > numLen {
		str := fmt.Sprintf("numeric value encoded as %x is %d bytes "+
			"which exceeds the max allowed of %d", v, len(v), numLen)
		return 0, scriptError(ErrNumberTooBig, str)
	}

	if len(v) == 0 {
		return 0, nil
	}

	// 小端序累加数值。
	var result uint64
	for i, val := range v {
		result |= uint64(val) << uint8(8*i)
	}

	// 最高字节的最高位是符号位，去掉符号位后取反。
	if v[len(v)-1]&0x80 != 0 {
		result &= ^(uint64(0x80) << uint8(8*(len(v)-1)))
		return scriptNum(-int64(result)), nil
	}

	return scriptNum(result), nil
}

// EncodeNum 返回 n 的脚本数字编码。0 编码为空字节数组。
func EncodeNum(n int64) []byte {
	return scriptNum(n).Bytes()
}

// DecodeNum 解码脚本数字，最多接受 8 个字节。
// 对 [-(2^63-1), 2^63-1] 范围内的 n，DecodeNum(EncodeNum(n)) == n。
func DecodeNum(b []byte) (int64, error) {
	n, err := makeScriptNum(b, maxNumLen)
	return int64(n), err
}

// asBool 返回字节数组作为布尔值的解释。
// 除了空数组、全零字节以及仅最高字节为 0x80 的负零之外，其余都为真。
// 对任意长度都等价于 DecodeNum(v) != 0。
func asBool(t []byte) bool {
	for i := range t {
		if t[i] != 0 {
			// 负零。
			if i == len(t)-1 && t[i] == 0x80 {
				return false
			}
			return true
		}
	}
	return false
}

// fromBool 将布尔值转换为对应的脚本数字编码。
func fromBool(v bool) []byte {
	if v {
		return []byte{1}
	}
	return nil
}
