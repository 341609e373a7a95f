package tx

import "errors"

var (
	// ErrMalformedTx 表示交易的字节无法按旧版格式解析
	ErrMalformedTx = errors.New("tx: malformed transaction")

	// ErrInputIndex 表示输入索引超出范围
	ErrInputIndex = errors.New("tx: input index out of range")

	// ErrNoResolver 表示需要前序输出时没有提供 Resolver
	ErrNoResolver = errors.New("tx: no resolver for previous outputs")

	// ErrNegativeFee 表示输出总额大于输入总额
	ErrNegativeFee = errors.New("tx: outputs exceed inputs")

	// ErrAmountOverflow 表示金额之和或手续费超出 int64 的范围
	ErrAmountOverflow = errors.New("tx: amount overflow")

	// ErrRedeemScript 表示花费 P2SH 输出的输入没有携带可解析的赎回脚本
	ErrRedeemScript = errors.New("tx: missing or malformed redeem script")
)
