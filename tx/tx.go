// Package tx 实现旧版（非隔离见证）格式的比特币交易：解析、序列化、
// 签名哈希、手续费、输入的签名与验证。
package tx

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/sirupsen/logrus"

	"github.com/qinglongcn/ledgercore/ecc"
	"github.com/qinglongcn/ledgercore/txscript"
)

const (
	// MaxSequence 是输入序列号的默认值，表示该输入已最终确定
	MaxSequence uint32 = 0xffffffff

	// MaxPrevOutIndex 是 coinbase 输入引用的输出索引
	MaxPrevOutIndex uint32 = 0xffffffff

	// SigHashAll 是唯一支持的签名哈希类型
	SigHashAll uint32 = 1

	// 解析时按声明数量预分配的上限，数量本身不受此限制
	maxPrealloc = 1024
)

// Resolver 根据交易 ID（显示顺序）与输出索引返回被引用的前序输出。
type Resolver interface {
	PrevOutput(ctx context.Context, txid [32]byte, index uint32) (*TxOut, error)
}

// TxIn 交易输入
type TxIn struct {
	PrevTx    [32]byte         // 被引用交易的 ID，按显示顺序（大端）存储，线上格式为反转后的字节
	PrevIndex uint32           // 被引用输出的索引
	ScriptSig *txscript.Script // 解锁脚本
	Sequence  uint32           // 序列号
}

// NewTxIn 创建一个解锁脚本为空、序列号为 MaxSequence 的输入。
func NewTxIn(prevTx [32]byte, prevIndex uint32) *TxIn {
	return &TxIn{
		PrevTx:    prevTx,
		PrevIndex: prevIndex,
		ScriptSig: &txscript.Script{},
		Sequence:  MaxSequence,
	}
}

// String 返回 "<被引用交易 ID>:<索引>"
func (in *TxIn) String() string {
	return fmt.Sprintf("%s:%d", hex.EncodeToString(in.PrevTx[:]), in.PrevIndex)
}

// serialize 按线上格式写入输入，scriptSig 替换输入自身的解锁脚本。
func (in *TxIn) serialize(buf *bytes.Buffer, scriptSig *txscript.Script) {
	var prev [32]byte
	copy(prev[:], in.PrevTx[:])
	reverse(prev[:])
	buf.Write(prev[:])
	writeUint32(buf, in.PrevIndex)
	buf.Write(scriptSig.Serialize())
	writeUint32(buf, in.Sequence)
}

// TxOut 交易输出
type TxOut struct {
	Amount       uint64           // 金额，单位为聪
	ScriptPubKey *txscript.Script // 锁定脚本
}

// String 返回 "<金额>:<锁定脚本>"
func (out *TxOut) String() string {
	return fmt.Sprintf("%d:%s", out.Amount, out.ScriptPubKey)
}

func (out *TxOut) serialize(buf *bytes.Buffer) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], out.Amount)
	buf.Write(b[:])
	buf.Write(out.ScriptPubKey.Serialize())
}

// Tx 表示一笔交易
type Tx struct {
	Version  uint32   // 版本号
	TxIns    []*TxIn  // 输入
	TxOuts   []*TxOut // 输出
	LockTime uint32   // 锁定时间
	Testnet  bool     // 是否属于测试网，只影响前序交易的获取
}

// Serialize 返回交易的旧版线上格式。
func (tx *Tx) Serialize() []byte {
	return tx.serialize(-1, nil, false)
}

// serialize 写入交易。sigIndex >= 0 时生成签名哈希的原像：
// 第 sigIndex 个输入的解锁脚本替换为 subScript，其余输入的解锁脚本为空，末尾追加哈希类型。
func (tx *Tx) serialize(sigIndex int, subScript *txscript.Script, appendHashType bool) []byte {
	var buf bytes.Buffer
	writeUint32(&buf, tx.Version)

	_ = wire.WriteVarInt(&buf, 0, uint64(len(tx.TxIns)))
	for i, in := range tx.TxIns {
		scriptSig := in.ScriptSig
		if sigIndex >= 0 {
			scriptSig = nil
			if i == sigIndex {
				scriptSig = subScript
			}
		}
		in.serialize(&buf, scriptSig)
	}

	_ = wire.WriteVarInt(&buf, 0, uint64(len(tx.TxOuts)))
	for _, out := range tx.TxOuts {
		out.serialize(&buf)
	}

	writeUint32(&buf, tx.LockTime)
	if appendHashType {
		writeUint32(&buf, SigHashAll)
	}
	return buf.Bytes()
}

// Parse 从 r 中读取一笔旧版格式的交易。
func Parse(r io.Reader, testnet bool) (*Tx, error) {
	version, err := readUint32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: version: %w", ErrMalformedTx, err)
	}

	numIns, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: input count: %w", ErrMalformedTx, err)
	}
	tx := &Tx{Version: version, Testnet: testnet}
	tx.TxIns = make([]*TxIn, 0, capped(numIns))
	for i := uint64(0); i < numIns; i++ {
		in, err := parseTxIn(r)
		if err != nil {
			return nil, fmt.Errorf("%w: input %d: %w", ErrMalformedTx, i, err)
		}
		tx.TxIns = append(tx.TxIns, in)
	}

	numOuts, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: output count: %w", ErrMalformedTx, err)
	}
	tx.TxOuts = make([]*TxOut, 0, capped(numOuts))
	for i := uint64(0); i < numOuts; i++ {
		out, err := parseTxOut(r)
		if err != nil {
			return nil, fmt.Errorf("%w: output %d: %w", ErrMalformedTx, i, err)
		}
		tx.TxOuts = append(tx.TxOuts, out)
	}

	if tx.LockTime, err = readUint32(r); err != nil {
		return nil, fmt.Errorf("%w: locktime: %w", ErrMalformedTx, err)
	}
	return tx, nil
}

// ParseBytes 解析 b 中的一笔交易，b 不能包含多余的字节。
func ParseBytes(b []byte, testnet bool) (*Tx, error) {
	r := bytes.NewReader(b)
	tx, err := Parse(r, testnet)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedTx, r.Len())
	}
	return tx, nil
}

func parseTxIn(r io.Reader) (*TxIn, error) {
	in := new(TxIn)
	if _, err := io.ReadFull(r, in.PrevTx[:]); err != nil {
		return nil, err
	}
	reverse(in.PrevTx[:])

	var err error
	if in.PrevIndex, err = readUint32(r); err != nil {
		return nil, err
	}
	if in.ScriptSig, err = txscript.Parse(r); err != nil {
		return nil, err
	}
	if in.Sequence, err = readUint32(r); err != nil {
		return nil, err
	}
	return in, nil
}

func parseTxOut(r io.Reader) (*TxOut, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return nil, err
	}
	out := &TxOut{Amount: binary.LittleEndian.Uint64(b[:])}

	var err error
	if out.ScriptPubKey, err = txscript.Parse(r); err != nil {
		return nil, err
	}
	return out, nil
}

// Hash 返回序列化结果的 HASH256，按显示顺序（反转后）排列。
func (tx *Tx) Hash() [32]byte {
	h := chainhash.DoubleHashB(tx.Serialize())
	var hash [32]byte
	copy(hash[:], h)
	reverse(hash[:])
	return hash
}

// ID 返回交易 ID 的十六进制形式。
func (tx *Tx) ID() string {
	hash := tx.Hash()
	return hex.EncodeToString(hash[:])
}

// IsCoinbase 检查交易是否是 coinbase 交易：
// 只有一个输入，引用全零的交易 ID 与索引 0xffffffff。
func (tx *Tx) IsCoinbase() bool {
	if len(tx.TxIns) != 1 {
		return false
	}
	in := tx.TxIns[0]
	return in.PrevTx == [32]byte{} && in.PrevIndex == MaxPrevOutIndex
}

// SigHash 计算第 index 个输入在 SIGHASH_ALL 下的签名哈希 z。
// redeem 不为空时代替前序输出的锁定脚本（P2SH）；否则通过 r 获取前序输出。
// 交易本身不会被修改。
func (tx *Tx) SigHash(ctx context.Context, r Resolver, index int, redeem *txscript.Script) (*big.Int, error) {
	if index < 0 || index >= len(tx.TxIns) {
		return nil, fmt.Errorf("%w: %d of %d", ErrInputIndex, index, len(tx.TxIns))
	}

	subScript := redeem
	if subScript == nil {
		prev, err := tx.prevOutput(ctx, r, index)
		if err != nil {
			return nil, err
		}
		subScript = prev.ScriptPubKey
	}
	return tx.sigHash(index, subScript), nil
}

func (tx *Tx) sigHash(index int, subScript *txscript.Script) *big.Int {
	h := chainhash.DoubleHashB(tx.serialize(index, subScript, true))
	return new(big.Int).SetBytes(h)
}

// prevOutput 获取第 index 个输入引用的输出。
func (tx *Tx) prevOutput(ctx context.Context, r Resolver, index int) (*TxOut, error) {
	if r == nil {
		return nil, ErrNoResolver
	}
	in := tx.TxIns[index]
	prev, err := r.PrevOutput(ctx, in.PrevTx, in.PrevIndex)
	if err != nil {
		return nil, fmt.Errorf("input %d: resolve %s: %w", index, in, err)
	}
	return prev, nil
}

// Fee 返回输入总额减去输出总额，可能为负数。
// 任一金额或金额之和超出 int64 时返回 ErrAmountOverflow。
func (tx *Tx) Fee(ctx context.Context, r Resolver) (int64, error) {
	var inputSum, outputSum uint64
	for i := range tx.TxIns {
		prev, err := tx.prevOutput(ctx, r, i)
		if err != nil {
			return 0, err
		}
		if prev.Amount > math.MaxInt64 || inputSum > math.MaxInt64-prev.Amount {
			return 0, fmt.Errorf("%w: inputs of %s", ErrAmountOverflow, tx.ID())
		}
		inputSum += prev.Amount
	}
	for _, out := range tx.TxOuts {
		if out.Amount > math.MaxInt64 || outputSum > math.MaxInt64-out.Amount {
			return 0, fmt.Errorf("%w: outputs of %s", ErrAmountOverflow, tx.ID())
		}
		outputSum += out.Amount
	}
	// 两个和都不超过 MaxInt64，差值一定在 int64 范围内。
	return int64(inputSum) - int64(outputSum), nil
}

// VerifyInput 验证第 index 个输入：将解锁脚本与前序输出的锁定脚本组合，
// 以该输入的签名哈希执行。
// 前序输出是 P2SH 时，解锁脚本的最后一次推送作为赎回脚本参与签名哈希。
func (tx *Tx) VerifyInput(ctx context.Context, r Resolver, index int) error {
	if index < 0 || index >= len(tx.TxIns) {
		return fmt.Errorf("%w: %d of %d", ErrInputIndex, index, len(tx.TxIns))
	}
	prev, err := tx.prevOutput(ctx, r, index)
	if err != nil {
		return err
	}
	in := tx.TxIns[index]

	subScript := prev.ScriptPubKey
	if prev.ScriptPubKey.IsP2SH() {
		if subScript, err = redeemScript(in.ScriptSig); err != nil {
			return fmt.Errorf("input %d: %w", index, err)
		}
	}

	z := tx.sigHash(index, subScript)
	combined := in.ScriptSig.Add(prev.ScriptPubKey)
	err = combined.Evaluate(z, txscript.WithTxContext(tx.Version, tx.LockTime, in.Sequence))
	if err != nil {
		logrus.Debugf("input %s of %s failed: %v", in, tx.ID(), err)
		return fmt.Errorf("input %d: %w", index, err)
	}
	return nil
}

// redeemScript 返回解锁脚本最后一次推送的数据解析出的脚本。
func redeemScript(scriptSig *txscript.Script) (*txscript.Script, error) {
	cmds := scriptSig.Commands()
	if len(cmds) == 0 {
		return nil, ErrRedeemScript
	}
	last := cmds[len(cmds)-1]
	if !last.IsPush() {
		return nil, ErrRedeemScript
	}
	redeem, err := txscript.ParseRaw(last.Data())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRedeemScript, err)
	}
	return redeem, nil
}

// Verify 验证手续费非负且每个输入都有效。
func (tx *Tx) Verify(ctx context.Context, r Resolver) error {
	fee, err := tx.Fee(ctx, r)
	if err != nil {
		return err
	}
	if fee < 0 {
		return fmt.Errorf("%w: fee %d", ErrNegativeFee, fee)
	}
	for i := range tx.TxIns {
		if err := tx.VerifyInput(ctx, r, i); err != nil {
			return err
		}
	}
	return nil
}

// SignInput 为花费 P2PKH 输出的第 index 个输入签名，
// 将解锁脚本设为 <DER 签名‖SIGHASH_ALL> <SEC 公钥>，随后验证该输入。
func (tx *Tx) SignInput(ctx context.Context, r Resolver, index int, key *ecc.PrivateKey, compressed bool) error {
	z, err := tx.SigHash(ctx, r, index, nil)
	if err != nil {
		return err
	}
	sig, err := key.Sign(z)
	if err != nil {
		return err
	}

	der := append(sig.DER(), byte(SigHashAll))
	scriptSig, err := txscript.NewScript(
		txscript.Push(der),
		txscript.Push(key.PubKey().SEC(compressed)),
	)
	if err != nil {
		return err
	}
	tx.TxIns[index].ScriptSig = scriptSig

	return tx.VerifyInput(ctx, r, index)
}

// String 返回交易的可读表示形式，便于调试和日志记录
func (tx *Tx) String() string {
	var lines []string
	lines = append(lines, fmt.Sprintf("tx: %s", tx.ID()))
	lines = append(lines, fmt.Sprintf("version: %d", tx.Version))
	lines = append(lines, "tx_ins:")
	for _, in := range tx.TxIns {
		lines = append(lines, in.String())
	}
	lines = append(lines, "tx_outs:")
	for _, out := range tx.TxOuts {
		lines = append(lines, out.String())
	}
	lines = append(lines, fmt.Sprintf("locktime: %d", tx.LockTime))
	return strings.Join(lines, "\n")
}

func readUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func capped(n uint64) uint64 {
	if n > maxPrealloc {
		return maxPrealloc
	}
	return n
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
