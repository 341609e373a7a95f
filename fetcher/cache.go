package fetcher

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/qinglongcn/ledgercore/tx"
)

// Cache 保存已获取的交易，键为交易 ID。
type Cache interface {
	// Get 返回缓存的交易，不存在时第二个返回值为 false
	Get(txid [32]byte) (*tx.Tx, bool, error)

	// Put 以交易自身的 ID 保存交易
	Put(t *tx.Tx) error

	// Invalidate 删除缓存的交易，不存在时不报错
	Invalidate(txid [32]byte) error
}

// MemoryCache 是进程内的交易缓存。
// 返回的交易与缓存共享，调用者不应修改它。
type MemoryCache struct {
	mu  sync.RWMutex
	txs map[[32]byte]*tx.Tx
}

// NewMemoryCache 创建一个空的 MemoryCache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{txs: make(map[[32]byte]*tx.Tx)}
}

func (c *MemoryCache) Get(txid [32]byte) (*tx.Tx, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.txs[txid]
	return t, ok, nil
}

func (c *MemoryCache) Put(t *tx.Tx) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.txs[t.Hash()] = t
	return nil
}

func (c *MemoryCache) Invalidate(txid [32]byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.txs, txid)
	return nil
}

// Len 返回缓存的交易数量
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.txs)
}

// BadgerCache 将交易的旧版序列化保存在 Badger 数据库中，键为 "tx/<id>"。
type BadgerCache struct {
	db      *badger.DB
	testnet bool
}

// OpenBadgerCache 打开（或创建）位于 path 的缓存数据库。
func OpenBadgerCache(path string, testnet bool) (*BadgerCache, error) {
	opts := badger.DefaultOptions(path) // 设置 Badger 数据库选项
	opts.ValueDir = path
	opts.Logger = nil

	db, err := openDB(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerCache{db: db, testnet: testnet}, nil
}

// openDB 打开数据库，如果因为其他进程持有 LOCK 打开失败，退避后重试
func openDB(opts badger.Options) (*badger.DB, error) {
	db, err := badger.Open(opts)
	for i := 0; err != nil && strings.Contains(err.Error(), "LOCK") && i < 3; i++ {
		logrus.Errorf("打开数据库失败，%d 秒后重试", i+1)
		time.Sleep(time.Duration(i+1) * time.Second)
		db, err = badger.Open(opts)
	}
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	return db, nil
}

func cacheKey(txid [32]byte) []byte {
	return []byte(fmt.Sprintf("tx/%x", txid))
}

func (c *BadgerCache) Get(txid [32]byte) (*tx.Tx, bool, error) {
	var raw []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(txid))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	t, err := tx.ParseBytes(raw, c.testnet)
	if err != nil {
		return nil, false, fmt.Errorf("cached %x: %w", txid, err)
	}
	return t, true, nil
}

func (c *BadgerCache) Put(t *tx.Tx) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(cacheKey(t.Hash()), t.Serialize())
	})
}

func (c *BadgerCache) Invalidate(txid [32]byte) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(cacheKey(txid))
	})
}

// Close 关闭数据库
func (c *BadgerCache) Close() error {
	return c.db.Close()
}
