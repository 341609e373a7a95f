// Package fetcher 获取并缓存交易，为输入验证提供被引用的前序输出。
//
// Resolver 由一个 Source（HTTP 服务或本地目录）和一个 Cache（内存或 Badger）组成，
// 实现 tx.Resolver 接口。同一交易 ID 的并发请求只会向 Source 发出一次。
package fetcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/qinglongcn/ledgercore/tx"
)

var (
	// ErrTxNotFound 表示 Source 中没有该交易
	ErrTxNotFound = errors.New("fetcher: transaction not found")

	// ErrOutputNotFound 表示交易中没有被引用的输出索引
	ErrOutputNotFound = errors.New("fetcher: output not found")

	// ErrIDMismatch 表示获取到的交易 ID 与请求的不一致
	ErrIDMismatch = errors.New("fetcher: transaction id mismatch")

	// ErrBadResponse 表示 Source 返回的内容无法解析
	ErrBadResponse = errors.New("fetcher: bad response")
)

// ResolverError 描述无法解析的前序输出
type ResolverError struct {
	TxID  [32]byte
	Index uint32
	Err   error
}

func (e *ResolverError) Error() string {
	return fmt.Sprintf("resolve %x:%d: %v", e.TxID, e.Index, e.Err)
}

func (e *ResolverError) Unwrap() error {
	return e.Err
}

// Resolver 通过 Source 获取交易并保存在 Cache 中
type Resolver struct {
	source Source
	cache  Cache
	group  singleflight.Group
}

var _ tx.Resolver = (*Resolver)(nil)

// NewResolver 创建一个 Resolver，cache 为空时使用 MemoryCache。
func NewResolver(source Source, cache Cache) *Resolver {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Resolver{source: source, cache: cache}
}

// Fetch 返回交易。fresh 为 true 时跳过缓存重新获取，并用结果替换缓存中的交易。
func (r *Resolver) Fetch(ctx context.Context, txid [32]byte, fresh bool) (*tx.Tx, error) {
	if !fresh {
		t, ok, err := r.cache.Get(txid)
		if err != nil {
			logrus.Errorf("cache get %x: %v", txid, err)
		} else if ok {
			return t, nil
		}
	}

	// fresh 请求不能加入读取缓存的请求。
	key := fmt.Sprintf("%x", txid)
	if fresh {
		key += "/fresh"
	}
	v, err, shared := r.group.Do(key, func() (interface{}, error) {
		// 另一个已完成的请求可能刚刚写入了缓存。
		if !fresh {
			if t, ok, err := r.cache.Get(txid); err == nil && ok {
				return t, nil
			}
		}

		t, err := r.source.FetchTx(ctx, txid)
		if err != nil {
			return nil, err
		}
		if err := r.cache.Put(t); err != nil {
			logrus.Errorf("cache put %s: %v", t.ID(), err)
		}
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logrus.Tracef("shared fetch of %s", key)
	}
	return v.(*tx.Tx), nil
}

// PrevOutput 实现 tx.Resolver 接口
func (r *Resolver) PrevOutput(ctx context.Context, txid [32]byte, index uint32) (*tx.TxOut, error) {
	t, err := r.Fetch(ctx, txid, false)
	if err != nil {
		return nil, &ResolverError{TxID: txid, Index: index, Err: err}
	}
	if uint64(index) >= uint64(len(t.TxOuts)) {
		return nil, &ResolverError{TxID: txid, Index: index, Err: ErrOutputNotFound}
	}
	return t.TxOuts[index], nil
}
