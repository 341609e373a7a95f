package tx

import (
	"errors"
	"fmt"

	"github.com/qinglongcn/ledgercore/txscript"
)

const (
	// MaxStandardVersion 是标准交易允许的最高版本
	MaxStandardVersion = 2

	// MaxStandardSigScriptSize 是标准交易中解锁脚本序列化后的最大字节数
	MaxStandardSigScriptSize = 1650
)

// ErrNonStandard 表示交易不是"标准"交易
var ErrNonStandard = errors.New("tx: non-standard transaction")

// CheckStandard 对交易执行一系列检查，以确保它是"标准"交易：
// 版本在 1 到 MaxStandardVersion 之间，解锁脚本只包含推送且不超过 MaxStandardSigScriptSize，
// 每个输出的锁定脚本都是可识别的形式，并且最多只有一个数据输出。
func (tx *Tx) CheckStandard() error {
	if tx.Version < 1 || tx.Version > MaxStandardVersion {
		return fmt.Errorf("%w: version %d", ErrNonStandard, tx.Version)
	}

	for i, in := range tx.TxIns {
		if size := len(in.ScriptSig.Serialize()); size > MaxStandardSigScriptSize {
			return fmt.Errorf("%w: input %d signature script size %d exceeds %d",
				ErrNonStandard, i, size, MaxStandardSigScriptSize)
		}
		if !in.ScriptSig.IsPushOnly() {
			return fmt.Errorf("%w: input %d signature script is not push only", ErrNonStandard, i)
		}
	}

	numNullData := 0
	for i, out := range tx.TxOuts {
		switch out.ScriptPubKey.Class() {
		case txscript.NonStandardTy:
			return fmt.Errorf("%w: output %d non-standard script form", ErrNonStandard, i)
		case txscript.NullDataTy:
			numNullData++
		}
	}
	if numNullData > 1 {
		return fmt.Errorf("%w: more than one transaction output in a nulldata script", ErrNonStandard)
	}
	return nil
}
