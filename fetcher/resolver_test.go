package fetcher

import (
	"context"
	"errors"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/qinglongcn/ledgercore/ecc"
	"github.com/qinglongcn/ledgercore/tx"
	"github.com/qinglongcn/ledgercore/txscript"
)

// countingSource 记录 FetchTx 的调用次数
type countingSource struct {
	Source
	calls atomic.Int32
}

func (s *countingSource) FetchTx(ctx context.Context, txid [32]byte) (*tx.Tx, error) {
	s.calls.Add(1)
	return s.Source.FetchTx(ctx, txid)
}

func newCountingSource(t *testing.T) *countingSource {
	t.Helper()
	src := NewDirSource(afero.NewMemMapFs(), "txs", false)
	want, err := tx.ParseBytes(hexToBytes(mainnetTxHex), false)
	require.NoError(t, err)
	require.NoError(t, src.Save(want))
	return &countingSource{Source: src}
}

// TestResolverFetchOnce 确保并发请求同一交易时只获取一次。
func TestResolverFetchOnce(t *testing.T) {
	t.Parallel()

	src := newCountingSource(t)
	r := NewResolver(src, nil)
	id := hexToHash(mainnetTxID)

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 16; i++ {
		index := uint32(i % 2)
		g.Go(func() error {
			_, err := r.PrevOutput(ctx, id, index)
			return err
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, int32(1), src.calls.Load())

	out, err := r.PrevOutput(context.Background(), id, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(10011545), out.Amount)
	require.Equal(t, int32(1), src.calls.Load())

	// fresh 跳过缓存。
	_, err = r.Fetch(context.Background(), id, true)
	require.NoError(t, err)
	require.Equal(t, int32(2), src.calls.Load())
}

// blockingSource 在 release 关闭前阻塞每一次 FetchTx
type blockingSource struct {
	*countingSource
	entered chan struct{}
	release chan struct{}
}

func (s *blockingSource) FetchTx(ctx context.Context, txid [32]byte) (*tx.Tx, error) {
	s.entered <- struct{}{}
	<-s.release
	return s.countingSource.FetchTx(ctx, txid)
}

// TestResolverFreshNotShared 确保 fresh 请求不会加入进行中的普通请求。
func TestResolverFreshNotShared(t *testing.T) {
	t.Parallel()

	src := &blockingSource{
		countingSource: newCountingSource(t),
		entered:        make(chan struct{}, 2),
		release:        make(chan struct{}),
	}
	r := NewResolver(src, nil)
	id := hexToHash(mainnetTxID)

	var g errgroup.Group
	g.Go(func() error {
		_, err := r.Fetch(context.Background(), id, false)
		return err
	})
	<-src.entered

	g.Go(func() error {
		_, err := r.Fetch(context.Background(), id, true)
		return err
	})
	select {
	case <-src.entered:
	case <-time.After(5 * time.Second):
		close(src.release)
		_ = g.Wait()
		t.Fatal("fresh fetch joined the in-flight fetch")
	}

	close(src.release)
	require.NoError(t, g.Wait())
	require.Equal(t, int32(2), src.calls.Load())
}

// TestResolverErrors 测试缺失的交易与输出。
func TestResolverErrors(t *testing.T) {
	t.Parallel()

	r := NewResolver(newCountingSource(t), NewMemoryCache())
	ctx := context.Background()

	_, err := r.PrevOutput(ctx, hexToHash(mainnetTxID), 2)
	require.ErrorIs(t, err, ErrOutputNotFound)
	var rerr *ResolverError
	require.True(t, errors.As(err, &rerr))
	require.Equal(t, uint32(2), rerr.Index)
	require.Equal(t, hexToHash(mainnetTxID), rerr.TxID)

	_, err = r.PrevOutput(ctx, [32]byte{1}, 0)
	require.ErrorIs(t, err, ErrTxNotFound)
	require.True(t, errors.As(err, &rerr))
}

// TestResolverVerify 使用目录中的前序交易签名并验证一笔花费它的交易。
func TestResolverVerify(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	key, err := ecc.NewPrivateKey(big.NewInt(8675309))
	require.NoError(t, err)
	lock, err := txscript.P2PKHScript(key.PubKey().Hash160(true))
	require.NoError(t, err)

	funding := &tx.Tx{
		Version: 1,
		TxIns:   []*tx.TxIn{tx.NewTxIn(hexToHash(mainnetTxID), 0)},
		TxOuts:  []*tx.TxOut{{Amount: 100000, ScriptPubKey: lock}},
		Testnet: true,
	}

	src := NewDirSource(afero.NewMemMapFs(), "txs", true)
	require.NoError(t, src.Save(funding))
	cache, err := OpenBadgerCache(t.TempDir(), true)
	require.NoError(t, err)
	defer cache.Close()
	r := NewResolver(src, cache)

	spend := &tx.Tx{
		Version: 1,
		TxIns:   []*tx.TxIn{tx.NewTxIn(funding.Hash(), 0)},
		TxOuts:  []*tx.TxOut{{Amount: 90000, ScriptPubKey: lock}},
		Testnet: true,
	}
	require.NoError(t, spend.SignInput(ctx, r, 0, key, true))
	require.NoError(t, spend.Verify(ctx, r))

	fee, err := spend.Fee(ctx, r)
	require.NoError(t, err)
	require.Equal(t, int64(10000), fee)

	cached, ok, err := cache.Get(funding.Hash())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, funding.ID(), cached.ID())
}
