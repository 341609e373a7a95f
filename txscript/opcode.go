// 包含比特币脚本语言中所有操作码的定义与实现。

package txscript

import (
	"bytes"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"hash"
	"math/big"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ripemd160"

	"github.com/qinglongcn/ledgercore/ecc"
)

// 这些常量是比特币脚本中使用的操作码的值。
// 0x01 到 0x4b 之间的字节不是操作码，而是直接数据推送的长度。
const (
	OP_0            = 0x00 // 0 - 压入空字节数组
	OP_FALSE        = 0x00 // 0 - OP_0 的别名
	OP_DATA_1       = 0x01 // 1 - 接下来的 1 个字节是数据
	OP_DATA_20      = 0x14 // 20 - 接下来的 20 个字节是数据
	OP_DATA_75      = 0x4b // 75 - 直接数据推送的最大长度
	OP_PUSHDATA1    = 0x4c // 76 - 接下来 1 个字节表示数据长度
	OP_PUSHDATA2    = 0x4d // 77 - 接下来 2 个字节表示数据长度
	OP_PUSHDATA4    = 0x4e // 78 - 不支持
	OP_1NEGATE      = 0x4f // 79
	OP_RESERVED     = 0x50 // 80
	OP_1            = 0x51 // 81
	OP_TRUE         = 0x51 // 81 - OP_1 的别名
	OP_2            = 0x52
	OP_3            = 0x53
	OP_4            = 0x54
	OP_5            = 0x55
	OP_6            = 0x56
	OP_7            = 0x57
	OP_8            = 0x58
	OP_9            = 0x59
	OP_10           = 0x5a
	OP_11           = 0x5b
	OP_12           = 0x5c
	OP_13           = 0x5d
	OP_14           = 0x5e
	OP_15           = 0x5f
	OP_16           = 0x60 // 96
	OP_NOP          = 0x61 // 97
	OP_VER          = 0x62 // 98
	OP_IF           = 0x63 // 99
	OP_NOTIF        = 0x64 // 100
	OP_VERIF        = 0x65 // 101
	OP_VERNOTIF     = 0x66 // 102
	OP_ELSE         = 0x67 // 103
	OP_ENDIF        = 0x68 // 104
	OP_VERIFY       = 0x69 // 105
	OP_RETURN       = 0x6a // 106
	OP_TOALTSTACK   = 0x6b // 107
	OP_FROMALTSTACK = 0x6c // 108
	OP_2DROP        = 0x6d // 109
	OP_2DUP         = 0x6e // 110
	OP_3DUP         = 0x6f // 111
	OP_2OVER        = 0x70 // 112
	OP_2ROT         = 0x71 // 113
	OP_2SWAP        = 0x72 // 114
	OP_IFDUP        = 0x73 // 115
	OP_DEPTH        = 0x74 // 116
	OP_DROP         = 0x75 // 117
	OP_DUP          = 0x76 // 118
	OP_NIP          = 0x77 // 119
	OP_OVER         = 0x78 // 120
	OP_PICK         = 0x79 // 121
	OP_ROLL         = 0x7a // 122
	OP_ROT          = 0x7b // 123
	OP_SWAP         = 0x7c // 124
	OP_TUCK         = 0x7d // 125
	OP_CAT          = 0x7e // 126 - 已禁用
	OP_SUBSTR       = 0x7f // 127 - 已禁用
	OP_LEFT         = 0x80 // 128 - 已禁用
	OP_RIGHT        = 0x81 // 129 - 已禁用
	OP_SIZE         = 0x82 // 130
	OP_INVERT       = 0x83 // 131 - 已禁用
	OP_AND          = 0x84 // 132 - 已禁用
	OP_OR           = 0x85 // 133 - 已禁用
	OP_XOR          = 0x86 // 134 - 已禁用
	OP_EQUAL        = 0x87 // 135
	OP_EQUALVERIFY  = 0x88 // 136
	OP_RESERVED1    = 0x89 // 137
	OP_RESERVED2    = 0x8a // 138
	OP_1ADD         = 0x8b // 139
	OP_1SUB         = 0x8c // 140
	OP_2MUL         = 0x8d // 141 - 已禁用
	OP_2DIV         = 0x8e // 142 - 已禁用
	OP_NEGATE       = 0x8f // 143
	OP_ABS          = 0x90 // 144
	OP_NOT          = 0x91 // 145
	OP_0NOTEQUAL    = 0x92 // 146
	OP_ADD          = 0x93 // 147
	OP_SUB          = 0x94 // 148
	OP_MUL          = 0x95 // 149 - 已禁用
	OP_DIV          = 0x96 // 150 - 已禁用
	OP_MOD          = 0x97 // 151 - 已禁用
	OP_LSHIFT       = 0x98 // 152 - 已禁用
	OP_RSHIFT       = 0x99 // 153 - 已禁用

	OP_BOOLAND             = 0x9a // 154
	OP_BOOLOR              = 0x9b // 155
	OP_NUMEQUAL            = 0x9c // 156
	OP_NUMEQUALVERIFY      = 0x9d // 157
	OP_NUMNOTEQUAL         = 0x9e // 158
	OP_LESSTHAN            = 0x9f // 159
	OP_GREATERTHAN         = 0xa0 // 160
	OP_LESSTHANOREQUAL     = 0xa1 // 161
	OP_GREATERTHANOREQUAL  = 0xa2 // 162
	OP_MIN                 = 0xa3 // 163
	OP_MAX                 = 0xa4 // 164
	OP_WITHIN              = 0xa5 // 165
	OP_RIPEMD160           = 0xa6 // 166
	OP_SHA1                = 0xa7 // 167
	OP_SHA256              = 0xa8 // 168
	OP_HASH160             = 0xa9 // 169
	OP_HASH256             = 0xaa // 170
	OP_CODESEPARATOR       = 0xab // 171
	OP_CHECKSIG            = 0xac // 172
	OP_CHECKSIGVERIFY      = 0xad // 173
	OP_CHECKMULTISIG       = 0xae // 174 - 不支持
	OP_CHECKMULTISIGVERIFY = 0xaf // 175 - 不支持
	OP_NOP1                = 0xb0 // 176
	OP_CHECKLOCKTIMEVERIFY = 0xb1 // 177 - 原 OP_NOP2
	OP_CHECKSEQUENCEVERIFY = 0xb2 // 178 - 原 OP_NOP3
	OP_NOP4                = 0xb3 // 179
	OP_NOP5                = 0xb4 // 180
	OP_NOP6                = 0xb5 // 181
	OP_NOP7                = 0xb6 // 182
	OP_NOP8                = 0xb7 // 183
	OP_NOP9                = 0xb8 // 184
	OP_NOP10               = 0xb9 // 185
	OP_CHECKSIGADD         = 0xba // 186 - 仅用于 tapscript
	OP_PUBKEYHASH          = 0xfd // 253 - 仅在内部使用
	OP_PUBKEY              = 0xfe // 254 - 仅在内部使用
	OP_INVALIDOPCODE       = 0xff // 255 - 仅在内部使用
)

// LockTimeThreshold 是区分区块高度与 Unix 时间戳的锁定时间阈值。
// 小于该值的锁定时间被解释为区块高度。
const LockTimeThreshold = 5e8 // Tue Nov 5 00:53:20 1985 UTC

// sigHashAll 是本包支持的唯一签名哈希类型。
const sigHashAll = 0x01

// opcodeKind 标识操作码的处理程序需要的执行上下文。
// 执行循环按类别分派，每一类只接收它需要的上下文。
type opcodeKind uint8

const (
	// kindStack 只操作数据栈。
	kindStack opcodeKind = iota

	// kindAltStack 在数据栈与备用栈之间移动元素。
	kindAltStack

	// kindBranch 需要剩余尚未执行的命令队列。
	kindBranch

	// kindSig 需要签名哈希 z。
	kindSig

	// kindLockTime 需要外层交易的版本、锁定时间与序列号。
	kindLockTime

	// kindNop 不执行任何操作。
	kindNop

	// kindDisabled 已被禁用，包含它的脚本总是失败。
	kindDisabled

	// kindReserved 是保留操作码，执行时失败。
	kindReserved

	// kindUnsupported 尚未支持，执行时返回 ErrUnsupportedOpcode。
	kindUnsupported

	// kindReturn 是 OP_RETURN，执行时失败。
	kindReturn

	// kindInvalid 是未分配或只在内部使用的字节，执行时失败。
	kindInvalid
)

// opcode 描述一个操作码：它的值、名称、类别以及与类别对应的处理程序。
// 每个条目只设置与其类别匹配的处理程序字段。
type opcode struct {
	value byte
	name  string
	kind  opcodeKind

	stackFn    func(*stack) error
	altFn      func(dstack, astack *stack) error
	branchFn   func(op *opcode, dstack *stack, cmds *commandQueue) error
	sigFn      func(dstack *stack, z *big.Int) error
	lockTimeFn func(dstack *stack, tx *txContext) error
}

// txContext 是执行 OP_CHECKLOCKTIMEVERIFY 与 OP_CHECKSEQUENCEVERIFY 所需的交易字段。
type txContext struct {
	version  uint32
	lockTime uint32
	sequence uint32
}

// opcodeArray 保存所有可能的操作码的详细信息。
// 未在此列出的字节由 init 填充为 kindInvalid。
var opcodeArray = [256]opcode{
	// 常量推送。
	OP_0:       {name: "OP_0", kind: kindStack, stackFn: opcodeFalse},
	OP_1NEGATE: {name: "OP_1NEGATE", kind: kindStack, stackFn: opcodeN(-1)},
	OP_1:       {name: "OP_1", kind: kindStack, stackFn: opcodeN(1)},
	OP_2:       {name: "OP_2", kind: kindStack, stackFn: opcodeN(2)},
	OP_3:       {name: "OP_3", kind: kindStack, stackFn: opcodeN(3)},
	OP_4:       {name: "OP_4", kind: kindStack, stackFn: opcodeN(4)},
	OP_5:       {name: "OP_5", kind: kindStack, stackFn: opcodeN(5)},
	OP_6:       {name: "OP_6", kind: kindStack, stackFn: opcodeN(6)},
	OP_7:       {name: "OP_7", kind: kindStack, stackFn: opcodeN(7)},
	OP_8:       {name: "OP_8", kind: kindStack, stackFn: opcodeN(8)},
	OP_9:       {name: "OP_9", kind: kindStack, stackFn: opcodeN(9)},
	OP_10:      {name: "OP_10", kind: kindStack, stackFn: opcodeN(10)},
	OP_11:      {name: "OP_11", kind: kindStack, stackFn: opcodeN(11)},
	OP_12:      {name: "OP_12", kind: kindStack, stackFn: opcodeN(12)},
	OP_13:      {name: "OP_13", kind: kindStack, stackFn: opcodeN(13)},
	OP_14:      {name: "OP_14", kind: kindStack, stackFn: opcodeN(14)},
	OP_15:      {name: "OP_15", kind: kindStack, stackFn: opcodeN(15)},
	OP_16:      {name: "OP_16", kind: kindStack, stackFn: opcodeN(16)},

	OP_RESERVED: {name: "OP_RESERVED", kind: kindReserved},

	// 数据推送操作码只能出现在数据推送的编码中。
	OP_PUSHDATA1: {name: "OP_PUSHDATA1", kind: kindInvalid},
	OP_PUSHDATA2: {name: "OP_PUSHDATA2", kind: kindInvalid},
	OP_PUSHDATA4: {name: "OP_PUSHDATA4", kind: kindInvalid},

	// 控制流。
	OP_NOP:      {name: "OP_NOP", kind: kindNop},
	OP_VER:      {name: "OP_VER", kind: kindReserved},
	OP_IF:       {name: "OP_IF", kind: kindBranch, branchFn: opcodeIf},
	OP_NOTIF:    {name: "OP_NOTIF", kind: kindBranch, branchFn: opcodeIf},
	OP_VERIF:    {name: "OP_VERIF", kind: kindReserved},
	OP_VERNOTIF: {name: "OP_VERNOTIF", kind: kindReserved},
	OP_ELSE:     {name: "OP_ELSE", kind: kindBranch, branchFn: opcodeUnbalanced},
	OP_ENDIF:    {name: "OP_ENDIF", kind: kindBranch, branchFn: opcodeUnbalanced},
	OP_VERIFY:   {name: "OP_VERIFY", kind: kindStack, stackFn: opcodeVerify},
	OP_RETURN:   {name: "OP_RETURN", kind: kindReturn},

	// 栈操作。
	OP_TOALTSTACK:   {name: "OP_TOALTSTACK", kind: kindAltStack, altFn: opcodeToAltStack},
	OP_FROMALTSTACK: {name: "OP_FROMALTSTACK", kind: kindAltStack, altFn: opcodeFromAltStack},
	OP_2DROP:        {name: "OP_2DROP", kind: kindStack, stackFn: opcode2Drop},
	OP_2DUP:         {name: "OP_2DUP", kind: kindStack, stackFn: opcode2Dup},
	OP_3DUP:         {name: "OP_3DUP", kind: kindStack, stackFn: opcode3Dup},
	OP_2OVER:        {name: "OP_2OVER", kind: kindStack, stackFn: opcode2Over},
	OP_2ROT:         {name: "OP_2ROT", kind: kindStack, stackFn: opcode2Rot},
	OP_2SWAP:        {name: "OP_2SWAP", kind: kindStack, stackFn: opcode2Swap},
	OP_IFDUP:        {name: "OP_IFDUP", kind: kindStack, stackFn: opcodeIfDup},
	OP_DEPTH:        {name: "OP_DEPTH", kind: kindStack, stackFn: opcodeDepth},
	OP_DROP:         {name: "OP_DROP", kind: kindStack, stackFn: opcodeDrop},
	OP_DUP:          {name: "OP_DUP", kind: kindStack, stackFn: opcodeDup},
	OP_NIP:          {name: "OP_NIP", kind: kindStack, stackFn: opcodeNip},
	OP_OVER:         {name: "OP_OVER", kind: kindStack, stackFn: opcodeOver},
	OP_PICK:         {name: "OP_PICK", kind: kindStack, stackFn: opcodePick},
	OP_ROLL:         {name: "OP_ROLL", kind: kindStack, stackFn: opcodeRoll},
	OP_ROT:          {name: "OP_ROT", kind: kindStack, stackFn: opcodeRot},
	OP_SWAP:         {name: "OP_SWAP", kind: kindStack, stackFn: opcodeSwap},
	OP_TUCK:         {name: "OP_TUCK", kind: kindStack, stackFn: opcodeTuck},

	// 拼接操作。
	OP_CAT:    {name: "OP_CAT", kind: kindDisabled},
	OP_SUBSTR: {name: "OP_SUBSTR", kind: kindDisabled},
	OP_LEFT:   {name: "OP_LEFT", kind: kindDisabled},
	OP_RIGHT:  {name: "OP_RIGHT", kind: kindDisabled},
	OP_SIZE:   {name: "OP_SIZE", kind: kindStack, stackFn: opcodeSize},

	// 位运算。
	OP_INVERT:      {name: "OP_INVERT", kind: kindDisabled},
	OP_AND:         {name: "OP_AND", kind: kindDisabled},
	OP_OR:          {name: "OP_OR", kind: kindDisabled},
	OP_XOR:         {name: "OP_XOR", kind: kindDisabled},
	OP_EQUAL:       {name: "OP_EQUAL", kind: kindStack, stackFn: opcodeEqual},
	OP_EQUALVERIFY: {name: "OP_EQUALVERIFY", kind: kindStack, stackFn: opcodeEqualVerify},
	OP_RESERVED1:   {name: "OP_RESERVED1", kind: kindReserved},
	OP_RESERVED2:   {name: "OP_RESERVED2", kind: kindReserved},

	// 数值运算。
	OP_1ADD:               {name: "OP_1ADD", kind: kindStack, stackFn: unaryOp(func(m scriptNum) scriptNum { return m + 1 })},
	OP_1SUB:               {name: "OP_1SUB", kind: kindStack, stackFn: unaryOp(func(m scriptNum) scriptNum { return m - 1 })},
	OP_2MUL:               {name: "OP_2MUL", kind: kindDisabled},
	OP_2DIV:               {name: "OP_2DIV", kind: kindDisabled},
	OP_NEGATE:             {name: "OP_NEGATE", kind: kindStack, stackFn: unaryOp(func(m scriptNum) scriptNum { return -m })},
	OP_ABS:                {name: "OP_ABS", kind: kindStack, stackFn: unaryOp(opAbs)},
	OP_NOT:                {name: "OP_NOT", kind: kindStack, stackFn: unaryOp(opNot)},
	OP_0NOTEQUAL:          {name: "OP_0NOTEQUAL", kind: kindStack, stackFn: unaryOp(op0NotEqual)},
	OP_ADD:                {name: "OP_ADD", kind: kindStack, stackFn: binaryOp(func(a, b scriptNum) scriptNum { return a + b })},
	OP_SUB:                {name: "OP_SUB", kind: kindStack, stackFn: binaryOp(func(a, b scriptNum) scriptNum { return a - b })},
	OP_MUL:                {name: "OP_MUL", kind: kindDisabled},
	OP_DIV:                {name: "OP_DIV", kind: kindDisabled},
	OP_MOD:                {name: "OP_MOD", kind: kindDisabled},
	OP_LSHIFT:             {name: "OP_LSHIFT", kind: kindDisabled},
	OP_RSHIFT:             {name: "OP_RSHIFT", kind: kindDisabled},
	OP_BOOLAND:            {name: "OP_BOOLAND", kind: kindStack, stackFn: compareOp(func(a, b scriptNum) bool { return a != 0 && b != 0 })},
	OP_BOOLOR:             {name: "OP_BOOLOR", kind: kindStack, stackFn: compareOp(func(a, b scriptNum) bool { return a != 0 || b != 0 })},
	OP_NUMEQUAL:           {name: "OP_NUMEQUAL", kind: kindStack, stackFn: opcodeNumEqual},
	OP_NUMEQUALVERIFY:     {name: "OP_NUMEQUALVERIFY", kind: kindStack, stackFn: opcodeNumEqualVerify},
	OP_NUMNOTEQUAL:        {name: "OP_NUMNOTEQUAL", kind: kindStack, stackFn: compareOp(func(a, b scriptNum) bool { return a != b })},
	OP_LESSTHAN:           {name: "OP_LESSTHAN", kind: kindStack, stackFn: compareOp(func(a, b scriptNum) bool { return a < b })},
	OP_GREATERTHAN:        {name: "OP_GREATERTHAN", kind: kindStack, stackFn: compareOp(func(a, b scriptNum) bool { return a > b })},
	OP_LESSTHANOREQUAL:    {name: "OP_LESSTHANOREQUAL", kind: kindStack, stackFn: compareOp(func(a, b scriptNum) bool { return a <= b })},
	OP_GREATERTHANOREQUAL: {name: "OP_GREATERTHANOREQUAL", kind: kindStack, stackFn: compareOp(func(a, b scriptNum) bool { return a >= b })},
	OP_MIN:                {name: "OP_MIN", kind: kindStack, stackFn: binaryOp(opMin)},
	OP_MAX:                {name: "OP_MAX", kind: kindStack, stackFn: binaryOp(opMax)},
	OP_WITHIN:             {name: "OP_WITHIN", kind: kindStack, stackFn: opcodeWithin},

	// 密码学操作。
	OP_RIPEMD160:           {name: "OP_RIPEMD160", kind: kindStack, stackFn: opcodeRipemd160},
	OP_SHA1:                {name: "OP_SHA1", kind: kindStack, stackFn: opcodeSha1},
	OP_SHA256:              {name: "OP_SHA256", kind: kindStack, stackFn: opcodeSha256},
	OP_HASH160:             {name: "OP_HASH160", kind: kindStack, stackFn: opcodeHash160},
	OP_HASH256:             {name: "OP_HASH256", kind: kindStack, stackFn: opcodeHash256},
	OP_CODESEPARATOR:       {name: "OP_CODESEPARATOR", kind: kindNop},
	OP_CHECKSIG:            {name: "OP_CHECKSIG", kind: kindSig, sigFn: opcodeCheckSig},
	OP_CHECKSIGVERIFY:      {name: "OP_CHECKSIGVERIFY", kind: kindSig, sigFn: opcodeCheckSigVerify},
	OP_CHECKMULTISIG:       {name: "OP_CHECKMULTISIG", kind: kindUnsupported},
	OP_CHECKMULTISIGVERIFY: {name: "OP_CHECKMULTISIGVERIFY", kind: kindUnsupported},

	// 保留给软分叉升级的 NOP 与锁定时间操作码。
	OP_NOP1:                {name: "OP_NOP1", kind: kindNop},
	OP_CHECKLOCKTIMEVERIFY: {name: "OP_CHECKLOCKTIMEVERIFY", kind: kindLockTime, lockTimeFn: opcodeCheckLockTimeVerify},
	OP_CHECKSEQUENCEVERIFY: {name: "OP_CHECKSEQUENCEVERIFY", kind: kindLockTime, lockTimeFn: opcodeCheckSequenceVerify},
	OP_NOP4:                {name: "OP_NOP4", kind: kindNop},
	OP_NOP5:                {name: "OP_NOP5", kind: kindNop},
	OP_NOP6:                {name: "OP_NOP6", kind: kindNop},
	OP_NOP7:                {name: "OP_NOP7", kind: kindNop},
	OP_NOP8:                {name: "OP_NOP8", kind: kindNop},
	OP_NOP9:                {name: "OP_NOP9", kind: kindNop},
	OP_NOP10:               {name: "OP_NOP10", kind: kindNop},

	OP_CHECKSIGADD:   {name: "OP_CHECKSIGADD", kind: kindInvalid},
	OP_PUBKEYHASH:    {name: "OP_PUBKEYHASH", kind: kindInvalid},
	OP_PUBKEY:        {name: "OP_PUBKEY", kind: kindInvalid},
	OP_INVALIDOPCODE: {name: "OP_INVALIDOPCODE", kind: kindInvalid},
}

// OpcodeByName 是操作码名称到其值的映射，包括 OP_FALSE、OP_TRUE、OP_NOP2 与 OP_NOP3 等别名。
var OpcodeByName = make(map[string]byte)

func init() {
	for i := range opcodeArray {
		op := &opcodeArray[i]
		op.value = byte(i)
		if op.name != "" {
			continue
		}
		op.kind = kindInvalid
		switch {
		case i >= OP_DATA_1 && i <= OP_DATA_75:
			op.name = fmt.Sprintf("OP_DATA_%d", i)
		default:
			op.name = fmt.Sprintf("OP_UNKNOWN%d", i)
		}
	}

	for _, op := range opcodeArray {
		OpcodeByName[op.name] = op.value
	}
	OpcodeByName["OP_FALSE"] = OP_FALSE
	OpcodeByName["OP_TRUE"] = OP_TRUE
	OpcodeByName["OP_NOP2"] = OP_CHECKLOCKTIMEVERIFY
	OpcodeByName["OP_NOP3"] = OP_CHECKSEQUENCEVERIFY
}

// OpcodeName 返回操作码的可读名称。
func OpcodeName(b byte) string {
	return opcodeArray[b].name
}

// isDataPushOpcode 报告字节是否只能作为数据推送的前缀出现。
// OP_PUSHDATA4 不在其中：解析时它被当作普通操作码保存，执行时失败。
func isDataPushOpcode(b byte) bool {
	return b >= OP_DATA_1 && b <= OP_PUSHDATA2
}

// *******************************************
// 操作码实现函数从这里开始。
// *******************************************

// opcodeFalse 压入空字节数组，即数字 0。
func opcodeFalse(s *stack) error {
	s.PushByteArray(nil)
	return nil
}

// opcodeN 返回压入常量 n 的处理程序，用于 OP_1NEGATE 与 OP_1 到 OP_16。
func opcodeN(n scriptNum) func(*stack) error {
	return func(s *stack) error {
		s.PushInt(n)
		return nil
	}
}

// opcodeIf 处理 OP_IF 与 OP_NOTIF。
//
// 它弹出栈顶的布尔值，然后在剩余命令中向前查找匹配的 OP_ELSE 与 OP_ENDIF，
// 嵌套的 OP_IF/OP_NOTIF 会增加需要匹配的 OP_ENDIF 数量，只有最外层的 OP_ELSE 切换分支。
// 被选中的分支重新放回队列的头部，直到匹配的 OP_ENDIF 为止的其余命令被丢弃。
func opcodeIf(op *opcode, s *stack, cmds *commandQueue) error {
	if s.Depth() < 1 {
		str := fmt.Sprintf("%s requires a condition on the stack",
			op.name)
		return scriptError(ErrInvalidStackOperation, str)
	}

	var trueBranch, falseBranch []Command
	current := &trueBranch
	endifsNeeded := 1
	found := false
	for cmds.Len() > 0 {
		cmd := cmds.PopFront()
		switch {
		case cmd.IsOpcode(OP_IF), cmd.IsOpcode(OP_NOTIF):
			endifsNeeded++
			*current = append(*current, cmd)

		case cmd.IsOpcode(OP_ELSE) && endifsNeeded == 1:
			current = &falseBranch

		case cmd.IsOpcode(OP_ENDIF):
			if endifsNeeded == 1 {
				found = true
				break
			}
			endifsNeeded--
			*current = append(*current, cmd)

		default:
			*current = append(*current, cmd)
		}
		if found {
			break
		}
	}
	if !found {
		str := fmt.Sprintf("%s has no matching OP_ENDIF", op.name)
		return scriptError(ErrUnbalancedConditional, str)
	}

	cond, err := s.PopBool()
	if err != nil {
		return err
	}
	if op.value == OP_NOTIF {
		cond = !cond
	}
	if cond {
		cmds.Prepend(trueBranch)
	} else {
		cmds.Prepend(falseBranch)
	}
	return nil
}

// opcodeUnbalanced 处理条件块之外的 OP_ELSE 与 OP_ENDIF。
// 条件块内的 OP_ELSE/OP_ENDIF 已经在 opcodeIf 中被消耗，因此执行到这里说明脚本不平衡。
func opcodeUnbalanced(op *opcode, s *stack, cmds *commandQueue) error {
	str := fmt.Sprintf("encountered %s with no matching opcode to begin "+
		"conditional execution", op.name)
	return scriptError(ErrUnbalancedConditional, str)
}

// abstractVerify 弹出栈顶元素并检查其布尔值，为假时返回使用错误代码 c 的错误。
func abstractVerify(name string, s *stack, c ErrorCode) error {
	verified, err := s.PopBool()
	if err != nil {
		return err
	}

	if !verified {
		str := fmt.Sprintf("%s failed", name)
		return scriptError(c, str)
	}
	return nil
}

// opcodeVerify 检查栈顶元素是否为真。
//
// 栈变换：[... x1] -> [...]
func opcodeVerify(s *stack) error {
	return abstractVerify("OP_VERIFY", s, ErrVerify)
}

// verifyLockTime 检查脚本要求的锁定时间与交易中的锁定时间类型一致且已满足。
func verifyLockTime(txLockTime, threshold, lockTime int64) error {
	// 两个锁定时间必须同为区块高度或同为时间戳。
	if !((txLockTime < threshold && lockTime < threshold) ||
		(txLockTime >= threshold && lockTime >= threshold)) {
		str := fmt.Sprintf("mismatched locktime types -- tx locktime "+
			"%d, stack locktime %d", txLockTime, lockTime)
		return scriptError(ErrUnsatisfiedLockTime, str)
	}

	if lockTime > txLockTime {
		str := fmt.Sprintf("locktime requirement not satisfied -- "+
			"locktime is greater than the transaction locktime: "+
			"%d > %d", lockTime, txLockTime)
		return scriptError(ErrUnsatisfiedLockTime, str)
	}

	return nil
}

// peekLockTime 读取栈顶的锁定时间操作数，不弹出。操作数最多 5 个字节且不能为负。
func peekLockTime(s *stack, tx *txContext) (int64, error) {
	if tx == nil {
		return 0, scriptError(ErrUnsatisfiedLockTime,
			"no transaction context to check lock time against")
	}

	so, err := s.PeekByteArray(0)
	if err != nil {
		return 0, err
	}
	n, err := makeScriptNum(so, lockTimeNumLen)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		str := fmt.Sprintf("negative lock time: %d", n)
		return 0, scriptError(ErrNegativeLockTime, str)
	}
	return int64(n), nil
}

// opcodeCheckLockTimeVerify 按 BIP0065 将栈顶元素与交易的锁定时间比较。
// 栈顶元素不会被弹出。
func opcodeCheckLockTimeVerify(s *stack, tx *txContext) error {
	lockTime, err := peekLockTime(s, tx)
	if err != nil {
		return err
	}

	err = verifyLockTime(int64(tx.lockTime), LockTimeThreshold, lockTime)
	if err != nil {
		return err
	}

	// 序列号为最大值的输入已最终确定，锁定时间不会被强制执行。
	if tx.sequence == wire.MaxTxInSequenceNum {
		return scriptError(ErrUnsatisfiedLockTime,
			"transaction input is finalized")
	}

	return nil
}

// opcodeCheckSequenceVerify 按 BIP0112 将栈顶元素与输入的相对锁定时间比较。
// 栈顶元素不会被弹出。
func opcodeCheckSequenceVerify(s *stack, tx *txContext) error {
	stackSequence, err := peekLockTime(s, tx)
	if err != nil {
		return err
	}

	// 设置了禁用标志时，该操作码等同于 NOP。
	if stackSequence&int64(wire.SequenceLockTimeDisabled) != 0 {
		return nil
	}

	// 相对锁定时间只对版本 2 及以上的交易生效。
	if tx.version < 2 {
		str := fmt.Sprintf("invalid transaction version: %d", tx.version)
		return scriptError(ErrUnsatisfiedLockTime, str)
	}

	txSequence := int64(tx.sequence)
	if txSequence&int64(wire.SequenceLockTimeDisabled) != 0 {
		str := fmt.Sprintf("transaction sequence has sequence locktime "+
			"disabled bit set: 0x%x", txSequence)
		return scriptError(ErrUnsatisfiedLockTime, str)
	}

	// 只比较类型标志与相对锁定时间的值。
	lockTimeMask := int64(wire.SequenceLockTimeIsSeconds |
		wire.SequenceLockTimeMask)
	return verifyLockTime(txSequence&lockTimeMask,
		int64(wire.SequenceLockTimeIsSeconds), stackSequence&lockTimeMask)
}

// opcodeToAltStack 将数据栈的栈顶元素移到备用栈。
//
// 主栈变换：[... x1 x2 x3] -> [... x1 x2]
// 备用栈变换：[... y1 y2 y3] -> [... y1 y2 y3 x3]
func opcodeToAltStack(dstack, astack *stack) error {
	so, err := dstack.PopByteArray()
	if err != nil {
		return err
	}
	astack.PushByteArray(so)
	return nil
}

// opcodeFromAltStack 将备用栈的栈顶元素移回数据栈。
//
// 主栈变换：[... x1 x2 x3] -> [... x1 x2 x3 y3]
// 备用栈变换：[... y1 y2 y3] -> [... y1 y2]
func opcodeFromAltStack(dstack, astack *stack) error {
	so, err := astack.PopByteArray()
	if err != nil {
		return err
	}
	dstack.PushByteArray(so)
	return nil
}

func opcode2Drop(s *stack) error { return s.DropN(2) }
func opcode2Dup(s *stack) error  { return s.DupN(2) }
func opcode3Dup(s *stack) error  { return s.DupN(3) }
func opcode2Over(s *stack) error { return s.OverN(2) }
func opcode2Rot(s *stack) error  { return s.RotN(2) }
func opcode2Swap(s *stack) error { return s.SwapN(2) }
func opcodeDrop(s *stack) error  { return s.DropN(1) }
func opcodeDup(s *stack) error   { return s.DupN(1) }
func opcodeNip(s *stack) error   { return s.NipN(1) }
func opcodeOver(s *stack) error  { return s.OverN(1) }
func opcodeRot(s *stack) error   { return s.RotN(1) }
func opcodeSwap(s *stack) error  { return s.SwapN(1) }
func opcodeTuck(s *stack) error  { return s.Tuck() }

// opcodeIfDup 在栈顶元素为真时复制它。
//
// 栈变换（x1 为真）：[... x1] -> [... x1 x1]
// 栈变换（x1 为假）：[... x1] -> [... x1]
func opcodeIfDup(s *stack) error {
	so, err := s.PeekByteArray(0)
	if err != nil {
		return err
	}
	if asBool(so) {
		s.PushByteArray(so)
	}
	return nil
}

// opcodeDepth 压入当前栈的深度。
//
// 栈变换：[... x1 x2] -> [... x1 x2 <depth>]
func opcodeDepth(s *stack) error {
	s.PushInt(scriptNum(s.Depth()))
	return nil
}

// opcodePick 弹出栈顶的索引 n，并将从栈顶数第 n 个元素复制到栈顶。
//
// 栈变换：[xn ... x2 x1 x0 n] -> [xn ... x2 x1 x0 xn]
func opcodePick(s *stack) error {
	val, err := s.PopInt()
	if err != nil {
		return err
	}
	return s.PickN(val.Int32())
}

// opcodeRoll 弹出栈顶的索引 n，并将从栈顶数第 n 个元素移动到栈顶。
//
// 栈变换：[xn ... x2 x1 x0 n] -> [... x2 x1 x0 xn]
func opcodeRoll(s *stack) error {
	val, err := s.PopInt()
	if err != nil {
		return err
	}
	return s.RollN(val.Int32())
}

// opcodeSize 压入栈顶元素的字节长度，不弹出栈顶元素。
//
// 栈变换：[... x1] -> [... x1 len(x1)]
func opcodeSize(s *stack) error {
	so, err := s.PeekByteArray(0)
	if err != nil {
		return err
	}
	s.PushInt(scriptNum(len(so)))
	return nil
}

// opcodeEqual 弹出栈顶两个元素，按原始字节比较，并压入比较结果。
//
// 栈变换：[... x1 x2] -> [... bool]
func opcodeEqual(s *stack) error {
	a, err := s.PopByteArray()
	if err != nil {
		return err
	}
	b, err := s.PopByteArray()
	if err != nil {
		return err
	}

	s.PushBool(bytes.Equal(a, b))
	return nil
}

// opcodeEqualVerify 是 OP_EQUAL 与 OP_VERIFY 的组合。
//
// 栈变换：[... x1 x2] -> [... bool] -> [...]
func opcodeEqualVerify(s *stack) error {
	err := opcodeEqual(s)
	if err == nil {
		err = abstractVerify("OP_EQUALVERIFY", s, ErrEqualVerify)
	}
	return err
}

// unaryOp 返回一个弹出一个数值、应用 fn 并压入结果的处理程序。
//
// 栈变换：[... x1] -> [... fn(x1)]
func unaryOp(fn func(scriptNum) scriptNum) func(*stack) error {
	return func(s *stack) error {
		m, err := s.PopInt()
		if err != nil {
			return err
		}
		s.PushInt(fn(m))
		return nil
	}
}

// binaryOp 返回一个弹出两个数值、应用 fn 并压入结果的处理程序。
// a 是第二个元素，b 是栈顶元素。
//
// 栈变换：[... a b] -> [... fn(a, b)]
func binaryOp(fn func(a, b scriptNum) scriptNum) func(*stack) error {
	return func(s *stack) error {
		b, err := s.PopInt()
		if err != nil {
			return err
		}
		a, err := s.PopInt()
		if err != nil {
			return err
		}
		s.PushInt(fn(a, b))
		return nil
	}
}

// compareOp 与 binaryOp 相同，但压入布尔结果。
//
// 栈变换：[... a b] -> [... bool]
func compareOp(fn func(a, b scriptNum) bool) func(*stack) error {
	return func(s *stack) error {
		b, err := s.PopInt()
		if err != nil {
			return err
		}
		a, err := s.PopInt()
		if err != nil {
			return err
		}
		s.PushBool(fn(a, b))
		return nil
	}
}

func opAbs(m scriptNum) scriptNum {
	if m < 0 {
		return -m
	}
	return m
}

func opNot(m scriptNum) scriptNum {
	if m == 0 {
		return 1
	}
	return 0
}

func op0NotEqual(m scriptNum) scriptNum {
	if m != 0 {
		return 1
	}
	return 0
}

func opMin(a, b scriptNum) scriptNum {
	if a < b {
		return a
	}
	return b
}

func opMax(a, b scriptNum) scriptNum {
	if a > b {
		return a
	}
	return b
}

var opcodeNumEqual = compareOp(func(a, b scriptNum) bool { return a == b })

// opcodeNumEqualVerify 是 OP_NUMEQUAL 与 OP_VERIFY 的组合。
//
// 栈变换：[... x1 x2] -> [... bool] -> [...]
func opcodeNumEqualVerify(s *stack) error {
	err := opcodeNumEqual(s)
	if err == nil {
		err = abstractVerify("OP_NUMEQUALVERIFY", s, ErrNumEqualVerify)
	}
	return err
}

// opcodeWithin 检查第三个元素是否在 [min, max) 范围内。
// 栈顶元素是最大值，第二个元素是最小值。
//
// 栈变换：[... x1 min max] -> [... bool]
func opcodeWithin(s *stack) error {
	maxVal, err := s.PopInt()
	if err != nil {
		return err
	}
	minVal, err := s.PopInt()
	if err != nil {
		return err
	}
	x, err := s.PopInt()
	if err != nil {
		return err
	}

	s.PushBool(x >= minVal && x < maxVal)
	return nil
}

// calcHash 通过 buf 计算 hasher 的哈希值。
func calcHash(buf []byte, hasher hash.Hash) []byte {
	hasher.Write(buf)
	return hasher.Sum(nil)
}

// hashOp 返回一个弹出栈顶元素并压入其摘要的处理程序。
//
// 栈变换：[... x1] -> [... digest(x1)]
func hashOp(digest func([]byte) []byte) func(*stack) error {
	return func(s *stack) error {
		buf, err := s.PopByteArray()
		if err != nil {
			return err
		}
		s.PushByteArray(digest(buf))
		return nil
	}
}

var (
	opcodeRipemd160 = hashOp(func(b []byte) []byte {
		return calcHash(b, ripemd160.New())
	})
	opcodeSha1 = hashOp(func(b []byte) []byte {
		h := sha1.Sum(b)
		return h[:]
	})
	opcodeSha256 = hashOp(func(b []byte) []byte {
		h := sha256.Sum256(b)
		return h[:]
	})
	opcodeHash160 = hashOp(btcutil.Hash160)
	opcodeHash256 = hashOp(chainhash.DoubleHashB)
)

// opcodeCheckSig 弹出公钥与签名，并压入签名是否对 z 有效。
//
// 签名的最后一个字节是签名哈希类型，DER 解析前会被去掉。
// 公钥或签名无法解析时压入假值而不是失败，只有栈深度不足时才返回错误。
//
// 栈变换：[... signature pubkey] -> [... bool]
func opcodeCheckSig(s *stack, z *big.Int) error {
	pkBytes, err := s.PopByteArray()
	if err != nil {
		return err
	}
	fullSigBytes, err := s.PopByteArray()
	if err != nil {
		return err
	}

	s.PushBool(checkSig(fullSigBytes, pkBytes, z))
	return nil
}

// checkSig 报告带签名哈希类型后缀的签名是否是 pkBytes 对 z 的有效签名。
func checkSig(fullSigBytes, pkBytes []byte, z *big.Int) bool {
	if len(fullSigBytes) < 1 || z == nil {
		return false
	}

	hashType := fullSigBytes[len(fullSigBytes)-1]
	if hashType != sigHashAll {
		logrus.Debugf("unsupported signature hash type %#02x", hashType)
		return false
	}

	pubKey, err := ecc.ParsePublicKey(pkBytes)
	if err != nil {
		logrus.Debugf("unable to parse public key %x: %v", pkBytes, err)
		return false
	}
	sig, err := ecc.ParseDER(fullSigBytes[:len(fullSigBytes)-1])
	if err != nil {
		logrus.Debugf("unable to parse signature %x: %v", fullSigBytes, err)
		return false
	}

	return pubKey.Verify(z, sig)
}

// opcodeCheckSigVerify 是 OP_CHECKSIG 与 OP_VERIFY 的组合。
//
// 栈变换：[... signature pubkey] -> [... bool] -> [...]
func opcodeCheckSigVerify(s *stack, z *big.Int) error {
	err := opcodeCheckSig(s, z)
	if err == nil {
		err = abstractVerify("OP_CHECKSIGVERIFY", s, ErrCheckSigVerify)
	}
	return err
}
