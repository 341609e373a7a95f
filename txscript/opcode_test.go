// 包含测试脚本操作码的代码。

package txscript

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestOpcodeTable 确保操作码表的每个条目都有名称与一致的处理程序。
func TestOpcodeTable(t *testing.T) {
	t.Parallel()

	for i := range opcodeArray {
		op := &opcodeArray[i]
		require.Equal(t, byte(i), op.value, "opcode %#02x", i)
		require.True(t, strings.HasPrefix(op.name, "OP_"), "opcode %#02x", i)

		var hasFn bool
		switch op.kind {
		case kindStack:
			hasFn = op.stackFn != nil
		case kindAltStack:
			hasFn = op.altFn != nil
		case kindBranch:
			hasFn = op.branchFn != nil
		case kindSig:
			hasFn = op.sigFn != nil
		case kindLockTime:
			hasFn = op.lockTimeFn != nil
		default:
			hasFn = op.stackFn == nil && op.altFn == nil &&
				op.branchFn == nil && op.sigFn == nil &&
				op.lockTimeFn == nil
		}
		require.True(t, hasFn, "%s has handlers inconsistent with its kind", op.name)

		require.Equal(t, op.value, OpcodeByName[op.name])
	}

	aliases := map[string]byte{
		"OP_FALSE": OP_0,
		"OP_TRUE":  OP_1,
		"OP_NOP2":  OP_CHECKLOCKTIMEVERIFY,
		"OP_NOP3":  OP_CHECKSEQUENCEVERIFY,
	}
	for name, want := range aliases {
		require.Equal(t, want, OpcodeByName[name], name)
	}

	require.Equal(t, "OP_DATA_20", OpcodeName(OP_DATA_20))
	require.Equal(t, "OP_UNKNOWN187", OpcodeName(0xbb))
	require.Equal(t, "OP_CHECKSIG", OpcodeName(OP_CHECKSIG))
}

// TestOpcodeKinds 确保禁用、保留、无效与不支持的操作码被正确分类。
func TestOpcodeKinds(t *testing.T) {
	t.Parallel()

	disabled := []byte{OP_CAT, OP_SUBSTR, OP_LEFT, OP_RIGHT, OP_INVERT,
		OP_AND, OP_OR, OP_XOR, OP_2MUL, OP_2DIV, OP_MUL, OP_DIV, OP_MOD,
		OP_LSHIFT, OP_RSHIFT}
	for _, b := range disabled {
		require.Equal(t, kindDisabled, opcodeArray[b].kind, OpcodeName(b))
	}

	reserved := []byte{OP_RESERVED, OP_VER, OP_VERIF, OP_VERNOTIF,
		OP_RESERVED1, OP_RESERVED2}
	for _, b := range reserved {
		require.Equal(t, kindReserved, opcodeArray[b].kind, OpcodeName(b))
	}

	for _, b := range []byte{OP_CHECKMULTISIG, OP_CHECKMULTISIGVERIFY} {
		require.Equal(t, kindUnsupported, opcodeArray[b].kind, OpcodeName(b))
	}

	for b := OP_DATA_1; b <= OP_PUSHDATA4; b++ {
		require.Equal(t, kindInvalid, opcodeArray[b].kind, OpcodeName(byte(b)))
	}
	for b := OP_CHECKSIGADD; b <= 0xff; b++ {
		require.Equal(t, kindInvalid, opcodeArray[b].kind, OpcodeName(byte(b)))
	}
}

// TestStackOpcodes 对只操作数据栈的操作码逐一测试。
func TestStackOpcodes(t *testing.T) {
	t.Parallel()

	hash160Zero := hexToBytes("9f7fd096d37ed2c0e3f7f0cfc924beef4ffceb68")
	hash256Zero := hexToBytes("1406e05881e299367766d313e26c05564ec91bf721d31726bd6e46e60689539a")

	tests := []struct {
		name   string
		op     byte
		before [][]byte
		after  [][]byte
		err    ErrorCode
		fails  bool
	}{
		{"op_0", OP_0, nil, [][]byte{nil}, 0, false},
		{"op_1negate", OP_1NEGATE, [][]byte{{7}}, [][]byte{{7}, {0x81}}, 0, false},
		{"op_1", OP_1, nil, [][]byte{{1}}, 0, false},
		{"op_16", OP_16, nil, [][]byte{{16}}, 0, false},
		{"verify true", OP_VERIFY, [][]byte{{1}}, nil, 0, false},
		{"verify false", OP_VERIFY, [][]byte{nil}, nil, ErrVerify, true},
		{"verify zero byte", OP_VERIFY, [][]byte{{0}}, nil, ErrVerify, true},
		{"verify empty", OP_VERIFY, nil, nil, ErrInvalidStackOperation, true},
		{"dup", OP_DUP, [][]byte{{0}, {1}, {2}}, [][]byte{{0}, {1}, {2}, {2}}, 0, false},
		{"dup empty", OP_DUP, nil, nil, ErrInvalidStackOperation, true},
		{"2dup", OP_2DUP, [][]byte{{1}, {2}}, [][]byte{{1}, {2}, {1}, {2}}, 0, false},
		{"3dup", OP_3DUP, [][]byte{{1}, {2}, {3}}, [][]byte{{1}, {2}, {3}, {1}, {2}, {3}}, 0, false},
		{"2drop", OP_2DROP, [][]byte{{1}, {2}, {3}}, [][]byte{{1}}, 0, false},
		{"2over", OP_2OVER, [][]byte{{1}, {2}, {3}, {4}}, [][]byte{{1}, {2}, {3}, {4}, {1}, {2}}, 0, false},
		{"2rot", OP_2ROT, [][]byte{{1}, {2}, {3}, {4}, {5}, {6}}, [][]byte{{3}, {4}, {5}, {6}, {1}, {2}}, 0, false},
		{"2swap", OP_2SWAP, [][]byte{{1}, {2}, {3}, {4}}, [][]byte{{3}, {4}, {1}, {2}}, 0, false},
		{"ifdup true", OP_IFDUP, [][]byte{{5}}, [][]byte{{5}, {5}}, 0, false},
		{"ifdup false", OP_IFDUP, [][]byte{nil}, [][]byte{nil}, 0, false},
		{"depth", OP_DEPTH, [][]byte{{1}, {2}}, [][]byte{{1}, {2}, {2}}, 0, false},
		{"depth empty", OP_DEPTH, nil, [][]byte{nil}, 0, false},
		{"drop", OP_DROP, [][]byte{{1}, {2}}, [][]byte{{1}}, 0, false},
		{"nip", OP_NIP, [][]byte{{1}, {2}}, [][]byte{{2}}, 0, false},
		{"over", OP_OVER, [][]byte{{1}, {2}}, [][]byte{{1}, {2}, {1}}, 0, false},
		{"pick", OP_PICK, [][]byte{{1}, {2}, {3}, {2}}, [][]byte{{1}, {2}, {3}, {1}}, 0, false},
		{"pick too deep", OP_PICK, [][]byte{{1}, {2}, {3}}, nil, ErrInvalidStackOperation, true},
		{"roll", OP_ROLL, [][]byte{{1}, {2}, {3}, {2}}, [][]byte{{2}, {3}, {1}}, 0, false},
		{"rot", OP_ROT, [][]byte{{1}, {2}, {3}}, [][]byte{{2}, {3}, {1}}, 0, false},
		{"swap", OP_SWAP, [][]byte{{1}, {2}}, [][]byte{{2}, {1}}, 0, false},
		{"tuck", OP_TUCK, [][]byte{{1}, {2}}, [][]byte{{2}, {1}, {2}}, 0, false},
		{"size", OP_SIZE, [][]byte{{1, 2, 3}}, [][]byte{{1, 2, 3}, {3}}, 0, false},
		{"equal", OP_EQUAL, [][]byte{{1}, {1}}, [][]byte{{1}}, 0, false},
		{"not equal", OP_EQUAL, [][]byte{{1}, {2}}, [][]byte{nil}, 0, false},
		{"equal is bytewise", OP_EQUAL, [][]byte{{1}, {1, 0}}, [][]byte{nil}, 0, false},
		{"equalverify", OP_EQUALVERIFY, [][]byte{{1}, {1}}, nil, 0, false},
		{"equalverify fail", OP_EQUALVERIFY, [][]byte{{1}, {2}}, nil, ErrEqualVerify, true},
		{"1add", OP_1ADD, [][]byte{{0x7f}}, [][]byte{{0x80, 0x00}}, 0, false},
		{"1add four byte operand", OP_1ADD, [][]byte{{0xfe, 0xff, 0xff, 0x7f}}, [][]byte{{0xff, 0xff, 0xff, 0x7f}}, 0, false},
		{"1add operand too big", OP_1ADD, [][]byte{{1, 0, 0, 0, 0}}, nil, ErrNumberTooBig, true},
		{"lessthan operand too big", OP_LESSTHAN, [][]byte{{1}, {1, 0, 0, 0, 0}}, nil, ErrNumberTooBig, true},
		{"1sub", OP_1SUB, [][]byte{nil}, [][]byte{{0x81}}, 0, false},
		{"negate", OP_NEGATE, [][]byte{{5}}, [][]byte{{0x85}}, 0, false},
		{"abs", OP_ABS, [][]byte{{0x85}}, [][]byte{{5}}, 0, false},
		{"not zero", OP_NOT, [][]byte{nil}, [][]byte{{1}}, 0, false},
		{"not one", OP_NOT, [][]byte{{1}}, [][]byte{nil}, 0, false},
		{"0notequal", OP_0NOTEQUAL, [][]byte{{9}}, [][]byte{{1}}, 0, false},
		{"add", OP_ADD, [][]byte{{2}, {3}}, [][]byte{{5}}, 0, false},
		{"add overflow result", OP_ADD, [][]byte{{0xff, 0xff, 0xff, 0x7f}, {1}}, [][]byte{{0, 0, 0, 0x80, 0}}, 0, false},
		{"add operand too big", OP_ADD, [][]byte{{0, 0, 0, 0x80, 0}, {1}}, nil, ErrNumberTooBig, true},
		{"sub", OP_SUB, [][]byte{{2}, {3}}, [][]byte{{0x81}}, 0, false},
		{"booland", OP_BOOLAND, [][]byte{{1}, nil}, [][]byte{nil}, 0, false},
		{"boolor", OP_BOOLOR, [][]byte{{1}, nil}, [][]byte{{1}}, 0, false},
		{"numequal", OP_NUMEQUAL, [][]byte{{1}, {1, 0}}, [][]byte{{1}}, 0, false},
		{"numequalverify fail", OP_NUMEQUALVERIFY, [][]byte{{1}, {2}}, nil, ErrNumEqualVerify, true},
		{"numnotequal", OP_NUMNOTEQUAL, [][]byte{{1}, {2}}, [][]byte{{1}}, 0, false},
		{"lessthan", OP_LESSTHAN, [][]byte{{1}, {2}}, [][]byte{{1}}, 0, false},
		{"greaterthan", OP_GREATERTHAN, [][]byte{{1}, {2}}, [][]byte{nil}, 0, false},
		{"lessthanorequal", OP_LESSTHANOREQUAL, [][]byte{{2}, {2}}, [][]byte{{1}}, 0, false},
		{"greaterthanorequal", OP_GREATERTHANOREQUAL, [][]byte{{0x81}, {2}}, [][]byte{nil}, 0, false},
		{"min", OP_MIN, [][]byte{{0x81}, {2}}, [][]byte{{0x81}}, 0, false},
		{"max", OP_MAX, [][]byte{{0x81}, {2}}, [][]byte{{2}}, 0, false},
		{"within lower bound", OP_WITHIN, [][]byte{{1}, {1}, {3}}, [][]byte{{1}}, 0, false},
		{"within upper bound", OP_WITHIN, [][]byte{{3}, {1}, {3}}, [][]byte{nil}, 0, false},
		{"hash160", OP_HASH160, [][]byte{{2}, {1}, {0}}, [][]byte{{2}, {1}, hash160Zero}, 0, false},
		{"hash160 empty", OP_HASH160, nil, nil, ErrInvalidStackOperation, true},
		{"hash256", OP_HASH256, [][]byte{{0}}, [][]byte{hash256Zero}, 0, false},
		{"sha256", OP_SHA256, [][]byte{nil}, [][]byte{hexToBytes("e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855")}, 0, false},
		{"sha1", OP_SHA1, [][]byte{nil}, [][]byte{hexToBytes("da39a3ee5e6b4b0d3255bfef95601890afd80709")}, 0, false},
		{"ripemd160", OP_RIPEMD160, [][]byte{nil}, [][]byte{hexToBytes("9c1185a5c5e9fc54612808977ee8f548b2258d31")}, 0, false},
		{"nop", OP_NOP, [][]byte{{1}}, [][]byte{{1}}, 0, false},
		{"codeseparator", OP_CODESEPARATOR, nil, nil, 0, false},
		{"return", OP_RETURN, nil, nil, ErrEarlyReturn, true},
		{"reserved", OP_RESERVED, nil, nil, ErrReservedOpcode, true},
		{"ver", OP_VER, nil, nil, ErrReservedOpcode, true},
		{"cat", OP_CAT, [][]byte{{1}, {2}}, nil, ErrDisabledOpcode, true},
		{"pushdata4", OP_PUSHDATA4, nil, nil, ErrInvalidOpcode, true},
		{"checksigadd", OP_CHECKSIGADD, nil, nil, ErrInvalidOpcode, true},
		{"unknown", 0xc0, nil, nil, ErrInvalidOpcode, true},
		{"checkmultisig", OP_CHECKMULTISIG, nil, nil, ErrUnsupportedOpcode, true},
		{"stray else", OP_ELSE, nil, nil, ErrUnbalancedConditional, true},
		{"stray endif", OP_ENDIF, nil, nil, ErrUnbalancedConditional, true},
	}

	for _, test := range tests {
		var dstack, astack stack
		for _, item := range test.before {
			dstack.PushByteArray(item)
		}

		op := &opcodeArray[test.op]
		err := executeOpcode(op, &dstack, &astack, newCommandQueue(nil), nil, nil)
		if test.fails {
			if !IsErrorCode(err, test.err) {
				t.Errorf("%s: got error %v, want %v", test.name, err,
					test.err)
			} else if !strings.HasPrefix(err.Error(), op.name+": ") {
				t.Errorf("%s: error %q does not name the opcode",
					test.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error %v", test.name, err)
			continue
		}

		if int(dstack.Depth()) != len(test.after) {
			t.Errorf("%s: stack depth %d, want %d", test.name,
				dstack.Depth(), len(test.after))
			continue
		}
		for i, want := range test.after {
			if !bytes.Equal(dstack.stk[i], want) {
				t.Errorf("%s: stack item %d is %x, want %x", test.name,
					i, dstack.stk[i], want)
			}
		}
	}
}

// TestAltStackOpcodes 测试数据栈与备用栈之间的移动。
func TestAltStackOpcodes(t *testing.T) {
	t.Parallel()

	var dstack, astack stack
	dstack.PushByteArray([]byte{1})
	dstack.PushByteArray([]byte{2})

	toAlt := &opcodeArray[OP_TOALTSTACK]
	fromAlt := &opcodeArray[OP_FROMALTSTACK]

	require.NoError(t, executeOpcode(toAlt, &dstack, &astack, nil, nil, nil))
	require.Equal(t, [][]byte{{1}}, dstack.stk)
	require.Equal(t, [][]byte{{2}}, astack.stk)

	require.NoError(t, executeOpcode(fromAlt, &dstack, &astack, nil, nil, nil))
	require.Equal(t, [][]byte{{1}, {2}}, dstack.stk)
	require.Empty(t, astack.stk)

	err := executeOpcode(fromAlt, &dstack, &astack, nil, nil, nil)
	require.True(t, IsErrorCode(err, ErrInvalidStackOperation))
}

// TestOpcodeIf 测试条件分支对剩余命令的改写。
func TestOpcodeIf(t *testing.T) {
	t.Parallel()

	push0e, push0f := Push([]byte{0x0e}), Push([]byte{0x0f})
	ifElse := []Command{push0e, Op(OP_ELSE), push0f, Op(OP_ENDIF)}
	nested := []Command{
		Op(OP_IF), push0e, Op(OP_ELSE), Op(OP_2), Op(OP_ENDIF),
		Op(OP_ELSE), push0f, Op(OP_ENDIF), Op(OP_NOP),
	}

	tests := []struct {
		name   string
		op     byte
		cond   []byte
		cmds   []Command
		remain []Command
		err    ErrorCode
		fails  bool
	}{
		{"if true", OP_IF, []byte{1}, ifElse, []Command{push0e}, 0, false},
		{"if false", OP_IF, nil, ifElse, []Command{push0f}, 0, false},
		{"notif true", OP_NOTIF, []byte{1}, ifElse, []Command{push0f}, 0, false},
		{"notif false", OP_NOTIF, nil, ifElse, []Command{push0e}, 0, false},
		{
			"if without else false", OP_IF, nil,
			[]Command{push0e, Op(OP_ENDIF), Op(OP_1)},
			[]Command{Op(OP_1)}, 0, false,
		},
		{
			"nested true", OP_IF, []byte{1}, nested,
			[]Command{Op(OP_IF), push0e, Op(OP_ELSE), Op(OP_2), Op(OP_ENDIF), Op(OP_NOP)},
			0, false,
		},
		{
			"nested false", OP_IF, nil, nested,
			[]Command{push0f, Op(OP_NOP)}, 0, false,
		},
		{
			"missing endif", OP_IF, []byte{1},
			[]Command{push0e, Op(OP_ELSE), push0f},
			nil, ErrUnbalancedConditional, true,
		},
		{
			"nested missing endif", OP_IF, []byte{1},
			[]Command{Op(OP_IF), push0e, Op(OP_ENDIF)},
			nil, ErrUnbalancedConditional, true,
		},
	}

	for _, test := range tests {
		var dstack stack
		dstack.PushByteArray(test.cond)
		cmds := newCommandQueue(test.cmds)

		err := executeOpcode(&opcodeArray[test.op], &dstack, nil, cmds, nil, nil)
		if test.fails {
			if !IsErrorCode(err, test.err) {
				t.Errorf("%s: got error %v, want %v", test.name, err,
					test.err)
			}
			continue
		}
		require.NoError(t, err, test.name)
		require.Zero(t, dstack.Depth(), test.name)
		require.Equal(t, test.remain, cmds.cmds, test.name)
	}

	// 空栈上的 OP_IF 失败。
	var empty stack
	err := executeOpcode(&opcodeArray[OP_IF], &empty, nil,
		newCommandQueue(ifElse), nil, nil)
	require.True(t, IsErrorCode(err, ErrInvalidStackOperation))
}

// TestLockTimeOpcodes 测试 OP_CHECKLOCKTIMEVERIFY 与 OP_CHECKSEQUENCEVERIFY。
func TestLockTimeOpcodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		op      byte
		operand []byte
		tx      *txContext
		err     ErrorCode
		fails   bool
	}{
		{
			"cltv height satisfied", OP_CHECKLOCKTIMEVERIFY, EncodeNum(100),
			&txContext{version: 1, lockTime: 100, sequence: 0}, 0, false,
		},
		{
			"cltv height unsatisfied", OP_CHECKLOCKTIMEVERIFY, EncodeNum(101),
			&txContext{version: 1, lockTime: 100, sequence: 0},
			ErrUnsatisfiedLockTime, true,
		},
		{
			"cltv time satisfied", OP_CHECKLOCKTIMEVERIFY, EncodeNum(500000000),
			&txContext{version: 1, lockTime: 600000000, sequence: 0}, 0, false,
		},
		{
			"cltv height against time", OP_CHECKLOCKTIMEVERIFY, EncodeNum(100),
			&txContext{version: 1, lockTime: 600000000, sequence: 0},
			ErrUnsatisfiedLockTime, true,
		},
		{
			"cltv time against height", OP_CHECKLOCKTIMEVERIFY, EncodeNum(500000000),
			&txContext{version: 1, lockTime: 100, sequence: 0},
			ErrUnsatisfiedLockTime, true,
		},
		{
			"cltv finalized input", OP_CHECKLOCKTIMEVERIFY, EncodeNum(100),
			&txContext{version: 1, lockTime: 100, sequence: 0xffffffff},
			ErrUnsatisfiedLockTime, true,
		},
		{
			"cltv negative", OP_CHECKLOCKTIMEVERIFY, EncodeNum(-1),
			&txContext{version: 1, lockTime: 100, sequence: 0},
			ErrNegativeLockTime, true,
		},
		{
			"cltv operand too big", OP_CHECKLOCKTIMEVERIFY, hexToBytes("000000000001"),
			&txContext{version: 1, lockTime: 100, sequence: 0},
			ErrNumberTooBig, true,
		},
		{
			"cltv no transaction", OP_CHECKLOCKTIMEVERIFY, EncodeNum(100),
			nil, ErrUnsatisfiedLockTime, true,
		},
		{
			"cltv empty stack", OP_CHECKLOCKTIMEVERIFY, nil,
			&txContext{version: 1, lockTime: 100, sequence: 0},
			ErrInvalidStackOperation, true,
		},
		{
			"csv blocks satisfied", OP_CHECKSEQUENCEVERIFY, EncodeNum(10),
			&txContext{version: 2, sequence: 10}, 0, false,
		},
		{
			"csv blocks unsatisfied", OP_CHECKSEQUENCEVERIFY, EncodeNum(11),
			&txContext{version: 2, sequence: 10},
			ErrUnsatisfiedLockTime, true,
		},
		{
			"csv disabled on stack", OP_CHECKSEQUENCEVERIFY, EncodeNum(1 << 31),
			&txContext{version: 1, sequence: 0xffffffff}, 0, false,
		},
		{
			"csv version 1", OP_CHECKSEQUENCEVERIFY, EncodeNum(10),
			&txContext{version: 1, sequence: 10},
			ErrUnsatisfiedLockTime, true,
		},
		{
			"csv tx sequence disabled", OP_CHECKSEQUENCEVERIFY, EncodeNum(10),
			&txContext{version: 2, sequence: 1<<31 | 10},
			ErrUnsatisfiedLockTime, true,
		},
		{
			"csv type mismatch", OP_CHECKSEQUENCEVERIFY, EncodeNum(1<<22 | 10),
			&txContext{version: 2, sequence: 10},
			ErrUnsatisfiedLockTime, true,
		},
		{
			"csv seconds satisfied", OP_CHECKSEQUENCEVERIFY, EncodeNum(1<<22 | 10),
			&txContext{version: 2, sequence: 1<<22 | 20}, 0, false,
		},
		{
			"csv ignores bits outside mask", OP_CHECKSEQUENCEVERIFY, EncodeNum(1<<16 | 10),
			&txContext{version: 2, sequence: 10}, 0, false,
		},
	}

	for _, test := range tests {
		var dstack stack
		if test.operand != nil || !strings.Contains(test.name, "empty") {
			dstack.PushByteArray(test.operand)
		}

		err := executeOpcode(&opcodeArray[test.op], &dstack, nil, nil, nil, test.tx)
		if test.fails {
			if !IsErrorCode(err, test.err) {
				t.Errorf("%s: got error %v, want %v", test.name, err,
					test.err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error %v", test.name, err)
			continue
		}

		// 操作数不会被弹出。
		if dstack.Depth() != 1 {
			t.Errorf("%s: stack depth %d, want 1", test.name,
				dstack.Depth())
		}
	}
}
