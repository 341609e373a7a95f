// 包含脚本执行引擎：命令队列、操作码分派以及 P2SH 赎回脚本的展开。

package txscript

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/sirupsen/logrus"
)

// commandQueue 是尚未执行的命令的双端队列。
// 执行从头部消耗命令，条件分支将选中的分支放回头部，P2SH 将赎回脚本追加到尾部。
type commandQueue struct {
	cmds []Command
}

// newCommandQueue 返回包含 cmds 副本的队列。
func newCommandQueue(cmds []Command) *commandQueue {
	q := &commandQueue{cmds: make([]Command, len(cmds))}
	copy(q.cmds, cmds)
	return q
}

// Len 返回剩余命令的数量。
func (q *commandQueue) Len() int {
	return len(q.cmds)
}

// PopFront 移除并返回头部的命令。调用者需要保证队列不为空。
func (q *commandQueue) PopFront() Command {
	cmd := q.cmds[0]
	q.cmds = q.cmds[1:]
	return cmd
}

// Prepend 将 cmds 按顺序放到队列头部。
func (q *commandQueue) Prepend(cmds []Command) {
	if len(cmds) == 0 {
		return
	}
	merged := make([]Command, 0, len(cmds)+len(q.cmds))
	merged = append(merged, cmds...)
	q.cmds = append(merged, q.cmds...)
}

// Append 将 cmds 按顺序追加到队列尾部。
func (q *commandQueue) Append(cmds []Command) {
	q.cmds = append(q.cmds, cmds...)
}

// EvalOption 配置 Evaluate 的执行上下文。
type EvalOption func(*evalConfig)

type evalConfig struct {
	tx *txContext
}

// WithTxContext 提供被花费的输入所在交易的版本、锁定时间以及该输入的序列号，
// 供 OP_CHECKLOCKTIMEVERIFY 与 OP_CHECKSEQUENCEVERIFY 使用。
func WithTxContext(version, lockTime, sequence uint32) EvalOption {
	return func(cfg *evalConfig) {
		cfg.tx = &txContext{
			version:  version,
			lockTime: lockTime,
			sequence: sequence,
		}
	}
}

// Evaluate 以签名哈希 z 执行脚本，脚本有效时返回 nil。
//
// 脚本在命令的私有副本上执行，脚本本身不会被修改。
// 任何操作码失败都会立即终止执行，返回的 Error 描述以失败操作码的名称开头。
// 执行结束后栈为空返回 ErrEmptyStack，栈顶为假返回 ErrEvalFalse。
// 使用尚未支持的操作码时返回 ErrUnsupportedOpcode，可以用 IsUnsupported 区分。
func (s *Script) Evaluate(z *big.Int, opts ...EvalOption) error {
	var cfg evalConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	// 包含已禁用操作码的脚本总是失败，即使该操作码位于未执行的分支中。
	if err := checkDisabled(s.cmds); err != nil {
		return err
	}

	var dstack, astack stack
	cmds := newCommandQueue(s.cmds)
	for cmds.Len() > 0 {
		cmd := cmds.PopFront()
		logrus.Tracef("%v", newLogClosure(func() string {
			return fmt.Sprintf("stepping %v", cmd)
		}))

		if cmd.isPush {
			dstack.PushByteArray(cmd.data)
			if isP2SHTail(cmds) {
				if err := expandP2SH(&dstack, cmds); err != nil {
					logrus.Infof("bad p2sh redeem script: %v", err)
					return err
				}
			}
			continue
		}

		op := &opcodeArray[cmd.op]
		if err := executeOpcode(op, &dstack, &astack, cmds, z, cfg.tx); err != nil {
			logrus.Infof("bad op: %s", op.name)
			return err
		}

		logrus.Tracef("%v", newLogClosure(func() string {
			var dstr, astr string
			if dstack.Depth() != 0 {
				dstr = "Stack:\n" + dstack.String()
			}
			if astack.Depth() != 0 {
				astr = "AltStack:\n" + astack.String()
			}
			return dstr + astr
		}))
	}

	if dstack.Depth() < 1 {
		return scriptError(ErrEmptyStack,
			"stack empty at end of script execution")
	}
	v, err := dstack.PeekBool(0)
	if err != nil {
		return err
	}
	if !v {
		logrus.Tracef("%v", newLogClosure(func() string {
			return fmt.Sprintf("script failed:\n%v", s)
		}))
		return scriptError(ErrEvalFalse,
			"false stack entry at end of script execution")
	}
	return nil
}

// executeOpcode 按操作码的类别向其处理程序提供所需的上下文并执行它。
// 返回的 Error 描述以操作码名称开头。
func executeOpcode(op *opcode, dstack, astack *stack, cmds *commandQueue,
	z *big.Int, tx *txContext) error {

	var err error
	switch op.kind {
	case kindStack:
		err = op.stackFn(dstack)
	case kindAltStack:
		err = op.altFn(dstack, astack)
	case kindBranch:
		err = op.branchFn(op, dstack, cmds)
	case kindSig:
		err = op.sigFn(dstack, z)
	case kindLockTime:
		err = op.lockTimeFn(dstack, tx)
	case kindNop:
	case kindDisabled:
		err = scriptError(ErrDisabledOpcode, "attempt to execute disabled opcode")
	case kindReserved:
		err = scriptError(ErrReservedOpcode, "attempt to execute reserved opcode")
	case kindUnsupported:
		err = scriptError(ErrUnsupportedOpcode, "opcode is not supported")
	case kindReturn:
		err = scriptError(ErrEarlyReturn, "script returned early")
	case kindInvalid:
		err = scriptError(ErrInvalidOpcode, "attempt to execute invalid opcode")
	default:
		str := fmt.Sprintf("unknown opcode kind %d", op.kind)
		err = scriptError(ErrInternal, str)
	}
	if err == nil {
		return nil
	}

	var serr Error
	if !errors.As(err, &serr) {
		serr = scriptError(ErrInternal, err.Error())
	}
	serr.Description = op.name + ": " + serr.Description
	return serr
}

// checkDisabled 在执行前检查命令中是否出现已禁用的操作码。
func checkDisabled(cmds []Command) error {
	for _, cmd := range cmds {
		if cmd.isPush {
			continue
		}
		op := &opcodeArray[cmd.op]
		if op.kind == kindDisabled {
			str := fmt.Sprintf("%s: attempt to execute disabled opcode",
				op.name)
			return scriptError(ErrDisabledOpcode, str)
		}
	}
	return nil
}

// isP2SHTail 报告剩余命令是否恰好是 OP_HASH160 <20 字节> OP_EQUAL。
func isP2SHTail(cmds *commandQueue) bool {
	return cmds.Len() == 3 &&
		cmds.cmds[0].IsOpcode(OP_HASH160) &&
		cmds.cmds[1].isPush && len(cmds.cmds[1].data) == 20 &&
		cmds.cmds[2].IsOpcode(OP_EQUAL)
}

// expandP2SH 消耗 P2SH 的脚本哈希检查：栈顶的赎回脚本的 HASH160 必须等于脚本哈希，
// 然后赎回脚本被弹出、解析并追加到待执行的命令中。
func expandP2SH(dstack *stack, cmds *commandQueue) error {
	cmds.PopFront()
	scriptHash := cmds.PopFront().data
	cmds.PopFront()

	redeemScript, err := dstack.PopByteArray()
	if err != nil {
		return err
	}
	if !bytes.Equal(btcutil.Hash160(redeemScript), scriptHash) {
		str := fmt.Sprintf("redeem script hash %x does not match script "+
			"hash %x", btcutil.Hash160(redeemScript), scriptHash)
		return scriptError(ErrScriptHashMismatch, str)
	}

	redeem, err := ParseRaw(redeemScript)
	if err != nil {
		return err
	}
	if err := checkDisabled(redeem.cmds); err != nil {
		return err
	}
	cmds.Append(redeem.cmds)
	return nil
}
