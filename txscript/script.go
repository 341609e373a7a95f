// 包含脚本命令、脚本的构造、解析与序列化。

package txscript

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/btcsuite/btcd/wire"
)

// MaxScriptElementSize 是可以推入栈的元素的最大字节数。
const MaxScriptElementSize = 520

// Command 是脚本中的一条命令：一个操作码或一次数据推送。
// 零值是 OP_0。
type Command struct {
	op     byte
	data   []byte
	isPush bool

	// enc 记录解析时使用的非最短推送编码（OP_PUSHDATA1 或 OP_PUSHDATA2），
	// 使重新序列化得到与原始字节相同的结果。为 0 时使用最短编码。
	enc byte
}

// Op 返回执行操作码 b 的命令。
func Op(b byte) Command {
	return Command{op: b}
}

// Push 返回推送 data 的命令。空数据等同于 OP_0。
func Push(data []byte) Command {
	if len(data) == 0 {
		return Op(OP_0)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return Command{data: buf, isPush: true}
}

// IsPush 报告命令是否是数据推送。
func (c Command) IsPush() bool {
	return c.isPush
}

// IsOpcode 报告命令是否是操作码 b。
func (c Command) IsOpcode(b byte) bool {
	return !c.isPush && c.op == b
}

// Opcode 返回命令的操作码。数据推送返回 0。
func (c Command) Opcode() byte {
	if c.isPush {
		return 0
	}
	return c.op
}

// Data 返回推送的数据。操作码返回 nil。
func (c Command) Data() []byte {
	return c.data
}

// String 返回命令的反汇编形式：操作码名称或十六进制数据。
func (c Command) String() string {
	if c.isPush {
		return hex.EncodeToString(c.data)
	}
	return OpcodeName(c.op)
}

// Script 是一个不可变的命令序列。
type Script struct {
	cmds []Command
}

// NewScript 由命令构造脚本。
// 数据推送操作码不能作为普通操作码出现，推送的数据不能超过 MaxScriptElementSize 字节，
// 因此构造成功的脚本总是可以序列化。
func NewScript(cmds ...Command) (*Script, error) {
	for i, cmd := range cmds {
		if err := checkCommand(cmd); err != nil {
			return nil, fmt.Errorf("command %d: %w", i, err)
		}
	}

	s := &Script{cmds: make([]Command, len(cmds))}
	copy(s.cmds, cmds)
	return s, nil
}

func checkCommand(cmd Command) error {
	if !cmd.isPush {
		if isDataPushOpcode(cmd.op) {
			str := fmt.Sprintf("%s cannot be used as a plain opcode",
				OpcodeName(cmd.op))
			return scriptError(ErrMalformedPush, str)
		}
		return nil
	}

	if len(cmd.data) > MaxScriptElementSize {
		str := fmt.Sprintf("element size %d exceeds max allowed size %d",
			len(cmd.data), MaxScriptElementSize)
		return scriptError(ErrElementTooBig, str)
	}
	return nil
}

// ParseBytes 解析带有变长整数长度前缀的脚本，b 必须被完全消耗。
func ParseBytes(b []byte) (*Script, error) {
	r := bytes.NewReader(b)
	s, err := Parse(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		str := fmt.Sprintf("%d trailing bytes after script", r.Len())
		return nil, scriptError(ErrScriptLength, str)
	}
	return s, nil
}

// Parse 从 r 中读取带有变长整数长度前缀的脚本。
func Parse(r io.Reader) (*Script, error) {
	length, err := wire.ReadVarInt(r, 0)
	if err != nil {
		str := fmt.Sprintf("unable to read script length: %v", err)
		return nil, scriptError(ErrScriptLength, str)
	}
	return parseCommands(r, length)
}

// ParseRaw 解析不带长度前缀的脚本字节，例如 P2SH 的赎回脚本。
func ParseRaw(raw []byte) (*Script, error) {
	return parseCommands(bytes.NewReader(raw), uint64(len(raw)))
}

// parseCommands 从 r 中恰好读取 length 个字节并将其解析为命令。
func parseCommands(r io.Reader, length uint64) (*Script, error) {
	var (
		cmds  []Command
		count uint64
		b     [2]byte
	)

	// readData 读取 n 字节的推送数据，推送不能越过声明的脚本长度。
	readData := func(op byte, n uint64) ([]byte, error) {
		if n > length-count {
			str := fmt.Sprintf("opcode %s pushes %d bytes, but script "+
				"only has %d remaining", OpcodeName(op), n, length-count)
			return nil, scriptError(ErrMalformedPush, str)
		}
		if n > MaxScriptElementSize {
			str := fmt.Sprintf("element size %d exceeds max allowed "+
				"size %d", n, MaxScriptElementSize)
			return nil, scriptError(ErrElementTooBig, str)
		}
		data := make([]byte, n)
		if _, err := io.ReadFull(r, data); err != nil {
			str := fmt.Sprintf("unable to read %d bytes of push data: %v",
				n, err)
			return nil, scriptError(ErrScriptLength, str)
		}
		count += n
		return data, nil
	}

	// readLen 读取 OP_PUSHDATA1/OP_PUSHDATA2 的小端序长度字段。
	readLen := func(op byte, size uint64) (uint64, error) {
		if size > length-count {
			str := fmt.Sprintf("opcode %s requires %d bytes, but script "+
				"only has %d remaining", OpcodeName(op), size, length-count)
			return 0, scriptError(ErrMalformedPush, str)
		}
		if _, err := io.ReadFull(r, b[:size]); err != nil {
			str := fmt.Sprintf("unable to read push length: %v", err)
			return 0, scriptError(ErrScriptLength, str)
		}
		count += size
		if size == 1 {
			return uint64(b[0]), nil
		}
		return uint64(binary.LittleEndian.Uint16(b[:2])), nil
	}

	for count < length {
		if _, err := io.ReadFull(r, b[:1]); err != nil {
			str := fmt.Sprintf("script declares %d bytes, read %d: %v",
				length, count, err)
			return nil, scriptError(ErrScriptLength, str)
		}
		count++
		op := b[0]

		switch {
		case op >= OP_DATA_1 && op <= OP_DATA_75:
			data, err := readData(op, uint64(op))
			if err != nil {
				return nil, err
			}
			cmds = append(cmds, Command{data: data, isPush: true})

		case op == OP_PUSHDATA1 || op == OP_PUSHDATA2:
			size := uint64(1)
			if op == OP_PUSHDATA2 {
				size = 2
			}
			n, err := readLen(op, size)
			if err != nil {
				return nil, err
			}
			data, err := readData(op, n)
			if err != nil {
				return nil, err
			}
			cmd := Command{data: data, isPush: true}
			if op != minimalPushOpcode(len(data)) {
				cmd.enc = op
			}
			cmds = append(cmds, cmd)

		default:
			cmds = append(cmds, Op(op))
		}
	}

	return &Script{cmds: cmds}, nil
}

// minimalPushOpcode 返回推送 n 字节数据的最短编码使用的前缀字节类别。
func minimalPushOpcode(n int) byte {
	switch {
	case n <= OP_DATA_75:
		return OP_DATA_1
	case n <= 0xff:
		return OP_PUSHDATA1
	default:
		return OP_PUSHDATA2
	}
}

// RawSerialize 返回不带长度前缀的脚本字节。
func (s *Script) RawSerialize() []byte {
	if s == nil {
		return nil
	}

	var buf bytes.Buffer
	for _, cmd := range s.cmds {
		if !cmd.isPush {
			buf.WriteByte(cmd.op)
			continue
		}

		n := len(cmd.data)
		enc := cmd.enc
		if enc == 0 {
			enc = minimalPushOpcode(n)
		}
		switch enc {
		case OP_PUSHDATA1:
			buf.WriteByte(OP_PUSHDATA1)
			buf.WriteByte(byte(n))
		case OP_PUSHDATA2:
			buf.WriteByte(OP_PUSHDATA2)
			var l [2]byte
			binary.LittleEndian.PutUint16(l[:], uint16(n))
			buf.Write(l[:])
		default:
			buf.WriteByte(byte(n))
		}
		buf.Write(cmd.data)
	}
	return buf.Bytes()
}

// Serialize 返回带有变长整数长度前缀的脚本字节。
func (s *Script) Serialize() []byte {
	raw := s.RawSerialize()
	var buf bytes.Buffer
	buf.Grow(wire.VarIntSerializeSize(uint64(len(raw))) + len(raw))
	_ = wire.WriteVarInt(&buf, 0, uint64(len(raw)))
	buf.Write(raw)
	return buf.Bytes()
}

// Add 返回依次执行 s 与 other 的命令的新脚本，例如 script_sig 与 script_pubkey 的组合。
func (s *Script) Add(other *Script) *Script {
	cmds := make([]Command, 0, s.Len()+other.Len())
	if s != nil {
		cmds = append(cmds, s.cmds...)
	}
	if other != nil {
		cmds = append(cmds, other.cmds...)
	}
	return &Script{cmds: cmds}
}

// Commands 返回脚本命令的副本。
func (s *Script) Commands() []Command {
	if s == nil {
		return nil
	}
	cmds := make([]Command, len(s.cmds))
	copy(cmds, s.cmds)
	return cmds
}

// Len 返回脚本中的命令数量。
func (s *Script) Len() int {
	if s == nil {
		return 0
	}
	return len(s.cmds)
}

// String 返回脚本的单行反汇编形式。
func (s *Script) String() string {
	parts := make([]string, 0, s.Len())
	for _, cmd := range s.Commands() {
		parts = append(parts, cmd.String())
	}
	return strings.Join(parts, " ")
}
