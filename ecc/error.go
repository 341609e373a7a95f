// 定义了椭圆曲线与有限域运算过程中可能遇到的错误类型。

package ecc

import (
	"errors"
	"fmt"
)

// ErrorCode 标识一种特定的曲线或有限域错误。
type ErrorCode int

// 这些常量用于标识特定的 Error。
const (
	// ErrFieldRange 当有限域元素的值不在 [0, prime) 范围内或模数非法时返回。
	ErrFieldRange ErrorCode = iota

	// ErrFieldMismatch 当对两个模数不同的有限域元素执行运算时返回。
	ErrFieldMismatch

	// ErrDivisionByZero 当除以零元素或对零元素求逆时返回。
	ErrDivisionByZero

	// ErrNotOnCurve 当坐标不满足曲线方程 y² = x³ + ax + b 时返回。
	ErrNotOnCurve

	// ErrCurveMismatch 当两个点所在曲线的系数不同时返回。
	ErrCurveMismatch

	// ErrInvalidSEC 当 SEC 格式的公钥前缀、长度或坐标非法时返回。
	ErrInvalidSEC

	// ErrInvalidDER 当签名不是严格的 DER 编码时返回。
	ErrInvalidDER

	// ErrInvalidSecret 当私钥不在 [1, N-1] 范围内时返回。
	ErrInvalidSecret

	// ErrInvalidHash 当待签名的消息整数超过 256 位时返回。
	ErrInvalidHash

	// numErrorCodes 是错误代码的最大值。
	// 用于在测试中检查错误代码是否都有对应的字符串。
	numErrorCodes
)

// 将 ErrorCode 值映射回其常量名称，以便打印。
var errorCodeStrings = map[ErrorCode]string{
	ErrFieldRange:     "ErrFieldRange",
	ErrFieldMismatch:  "ErrFieldMismatch",
	ErrDivisionByZero: "ErrDivisionByZero",
	ErrNotOnCurve:     "ErrNotOnCurve",
	ErrCurveMismatch:  "ErrCurveMismatch",
	ErrInvalidSEC:     "ErrInvalidSEC",
	ErrInvalidDER:     "ErrInvalidDER",
	ErrInvalidSecret:  "ErrInvalidSecret",
	ErrInvalidHash:    "ErrInvalidHash",
}

// String 以人类可读的形式返回 ErrorCode。
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// Error 标识曲线运算、有限域运算或密钥编码相关的错误。
// 调用者可以通过 ErrorCode 字段以编程方式判断具体的错误原因。
type Error struct {
	ErrorCode   ErrorCode
	Description string
}

// Error 满足 error 接口并打印人类可读的错误。
func (e Error) Error() string {
	return e.Description
}

// eccError 使用给定的错误代码和描述创建一个 Error。
func eccError(c ErrorCode, desc string) Error {
	return Error{ErrorCode: c, Description: desc}
}

// IsErrorCode 返回所提供的错误是否是包含所提供的错误代码的 Error。
func IsErrorCode(err error, c ErrorCode) bool {
	var e Error
	return errors.As(err, &e) && e.ErrorCode == c
}
