// 定义了脚本解析与执行过程中可能遇到的错误类型。

package txscript

import (
	"errors"
	"fmt"
)

// ErrorCode 标识一种特定的脚本错误。
type ErrorCode int

// 这些常量用于标识特定的 Error。
const (
	// ErrInternal 在不应发生的内部状态错误时返回。
	ErrInternal ErrorCode = iota

	// ---------------------------------------
	// 与解析和构造脚本相关的失败。
	// ---------------------------------------

	// ErrScriptLength 当脚本声明的长度与实际消耗的字节数不一致，或流提前结束时返回。
	ErrScriptLength

	// ErrMalformedPush 当数据推送的长度前缀之后没有足够的数据，
	// 或者将数据推送操作码当作普通操作码使用时返回。
	ErrMalformedPush

	// ErrElementTooBig 当推送的数据超过 MaxScriptElementSize 时返回。
	ErrElementTooBig

	// ErrUnsupportedAddress 当脚本不是可以转换为地址的标准脚本时返回。
	ErrUnsupportedAddress

	// ---------------------------------------
	// 脚本执行结束时的失败。
	// ---------------------------------------

	// ErrEmptyStack 当脚本执行结束后栈为空时返回。
	ErrEmptyStack

	// ErrEvalFalse 当脚本执行结束后栈顶元素为假时返回。
	ErrEvalFalse

	// ErrEarlyReturn 当执行到 OP_RETURN 时返回。
	ErrEarlyReturn

	// ---------------------------------------
	// 与数值和栈操作相关的失败。
	// ---------------------------------------

	// ErrNumberTooBig 当数值操作数超过允许的字节数时返回。
	ErrNumberTooBig

	// ErrInvalidStackOperation 当栈深度不足以完成操作时返回。
	ErrInvalidStackOperation

	// ---------------------------------------
	// 带有 VERIFY 语义的操作码失败。
	// ---------------------------------------

	// ErrVerify 当 OP_VERIFY 遇到假值时返回。
	ErrVerify

	// ErrEqualVerify 当 OP_EQUALVERIFY 遇到不相等的元素时返回。
	ErrEqualVerify

	// ErrNumEqualVerify 当 OP_NUMEQUALVERIFY 遇到不相等的数值时返回。
	ErrNumEqualVerify

	// ErrCheckSigVerify 当 OP_CHECKSIGVERIFY 的签名检查失败时返回。
	ErrCheckSigVerify

	// ErrScriptHashMismatch 当 P2SH 赎回脚本的 HASH160 与脚本哈希不一致时返回。
	ErrScriptHashMismatch

	// ---------------------------------------
	// 与操作码本身相关的失败。
	// ---------------------------------------

	// ErrDisabledOpcode 当执行被禁用的操作码时返回。
	ErrDisabledOpcode

	// ErrReservedOpcode 当执行保留操作码时返回。
	ErrReservedOpcode

	// ErrInvalidOpcode 当执行未分配或只在内部使用的操作码时返回。
	ErrInvalidOpcode

	// ErrUnsupportedOpcode 当执行尚未支持的操作码（OP_CHECKMULTISIG）时返回。
	// 它表示功能缺失，而不是脚本本身无效。
	ErrUnsupportedOpcode

	// ErrUnbalancedConditional 当 OP_IF/OP_NOTIF 找不到匹配的 OP_ENDIF，
	// 或者在条件块之外执行 OP_ELSE/OP_ENDIF 时返回。
	ErrUnbalancedConditional

	// ---------------------------------------
	// 锁定时间相关的失败。
	// ---------------------------------------

	// ErrNegativeLockTime 当锁定时间操作数为负数时返回。
	ErrNegativeLockTime

	// ErrUnsatisfiedLockTime 当交易的锁定时间或序列号不满足脚本要求，
	// 或者执行时没有提供交易上下文时返回。
	ErrUnsatisfiedLockTime

	// numErrorCodes 是错误代码的最大值。
	// 用于在测试中检查错误代码是否都有对应的字符串。
	numErrorCodes
)

// 将 ErrorCode 值映射回其常量名称，以便打印。
var errorCodeStrings = map[ErrorCode]string{
	ErrInternal:              "ErrInternal",
	ErrScriptLength:          "ErrScriptLength",
	ErrMalformedPush:         "ErrMalformedPush",
	ErrElementTooBig:         "ErrElementTooBig",
	ErrUnsupportedAddress:    "ErrUnsupportedAddress",
	ErrEmptyStack:            "ErrEmptyStack",
	ErrEvalFalse:             "ErrEvalFalse",
	ErrEarlyReturn:           "ErrEarlyReturn",
	ErrNumberTooBig:          "ErrNumberTooBig",
	ErrInvalidStackOperation: "ErrInvalidStackOperation",
	ErrVerify:                "ErrVerify",
	ErrEqualVerify:           "ErrEqualVerify",
	ErrNumEqualVerify:        "ErrNumEqualVerify",
	ErrCheckSigVerify:        "ErrCheckSigVerify",
	ErrScriptHashMismatch:    "ErrScriptHashMismatch",
	ErrDisabledOpcode:        "ErrDisabledOpcode",
	ErrReservedOpcode:        "ErrReservedOpcode",
	ErrInvalidOpcode:         "ErrInvalidOpcode",
	ErrUnsupportedOpcode:     "ErrUnsupportedOpcode",
	ErrUnbalancedConditional: "ErrUnbalancedConditional",
	ErrNegativeLockTime:      "ErrNegativeLockTime",
	ErrUnsatisfiedLockTime:   "ErrUnsatisfiedLockTime",
}

// String 以人类可读的形式返回 ErrorCode。
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// Error 标识与脚本相关的错误。
// 它用于指示三类错误：
//  1. 脚本解析或构造失败（字节格式错误、数据过长）
//  2. 脚本执行失败（某个操作码失败、最终栈为空或为假）
//  3. 功能缺失（ErrUnsupportedOpcode），调用者应将其与脚本无效区分开
//
// 执行失败的描述以失败操作码的名称开头。
type Error struct {
	ErrorCode   ErrorCode
	Description string
}

// Error 满足 error 接口并打印人类可读的错误。
func (e Error) Error() string {
	return e.Description
}

// scriptError 使用给定的错误代码和描述创建一个 Error。
func scriptError(c ErrorCode, desc string) Error {
	return Error{ErrorCode: c, Description: desc}
}

// IsErrorCode 返回所提供的错误是否是包含所提供的错误代码的脚本错误。
func IsErrorCode(err error, c ErrorCode) bool {
	var serr Error
	return errors.As(err, &serr) && serr.ErrorCode == c
}

// IsUnsupported 返回错误是否表示脚本使用了尚未支持的操作码。
func IsUnsupported(err error) bool {
	return IsErrorCode(err, ErrUnsupportedOpcode)
}
