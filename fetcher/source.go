package fetcher

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/qinglongcn/ledgercore/tx"
)

const (
	// MainnetURL 主网交易服务的地址
	MainnetURL = "http://mainnet.programmingbitcoin.com"

	// TestnetURL 测试网交易服务的地址
	TestnetURL = "http://testnet.programmingbitcoin.com"

	// 响应体的最大字节数（十六进制文本）
	maxResponseSize = 8 << 20

	defaultTimeout = 30 * time.Second
)

// Source 按交易 ID 获取完整的交易。
type Source interface {
	FetchTx(ctx context.Context, txid [32]byte) (*tx.Tx, error)
}

// DefaultURL 返回网络对应的交易服务地址。
func DefaultURL(testnet bool) string {
	if testnet {
		return TestnetURL
	}
	return MainnetURL
}

// HTTPSource 通过 HTTP GET <baseURL>/tx/<id>.hex 获取交易
type HTTPSource struct {
	client  *http.Client
	baseURL string
	testnet bool
}

// NewHTTPSource 创建一个 HTTPSource。baseURL 为空时使用网络的默认地址，client 为空时使用带超时的默认客户端。
func NewHTTPSource(baseURL string, testnet bool, client *http.Client) *HTTPSource {
	if baseURL == "" {
		baseURL = DefaultURL(testnet)
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &HTTPSource{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		testnet: testnet,
	}
}

// FetchTx 实现 Source 接口
func (s *HTTPSource) FetchTx(ctx context.Context, txid [32]byte) (*tx.Tx, error) {
	url := fmt.Sprintf("%s/tx/%x.hex", s.baseURL, txid)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %x", ErrTxNotFound, txid)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: get %s: %s", ErrBadResponse, url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	logrus.Debugf("fetched %d bytes from %s", len(body), url)

	return decodeTx(body, txid, s.testnet)
}

// DirSource 从目录中的 <id>.hex 文件读取交易
type DirSource struct {
	fs      afero.Fs
	dir     string
	testnet bool
}

// NewDirSource 创建一个 DirSource，fs 为空时使用操作系统文件系统。
func NewDirSource(fs afero.Fs, dir string, testnet bool) *DirSource {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &DirSource{fs: fs, dir: dir, testnet: testnet}
}

func (s *DirSource) path(txid [32]byte) string {
	return filepath.Join(s.dir, hex.EncodeToString(txid[:])+".hex")
}

// FetchTx 实现 Source 接口
func (s *DirSource) FetchTx(_ context.Context, txid [32]byte) (*tx.Tx, error) {
	body, err := afero.ReadFile(s.fs, s.path(txid))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %x", ErrTxNotFound, txid)
	}
	if err != nil {
		return nil, err
	}
	return decodeTx(body, txid, s.testnet)
}

// Save 将交易以十六进制文本写入目录
func (s *DirSource) Save(t *tx.Tx) error {
	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	body := []byte(hex.EncodeToString(t.Serialize()))
	return afero.WriteFile(s.fs, s.path(t.Hash()), body, 0644)
}

// decodeTx 解码十六进制文本形式的交易，并检查其 ID。
// 带有隔离见证标记的交易会去掉标记与标志字节，锁定时间取最后 4 个字节，
// 见证数据不会被保留。
func decodeTx(body []byte, txid [32]byte, testnet bool) (*tx.Tx, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}

	var t *tx.Tx
	if len(raw) > 6 && raw[4] == 0 {
		stripped := append(raw[:4:4], raw[6:]...)
		t, err = tx.Parse(bytes.NewReader(stripped), testnet)
		if err == nil {
			t.LockTime = binary.LittleEndian.Uint32(raw[len(raw)-4:])
		}
	} else {
		t, err = tx.ParseBytes(raw, testnet)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}

	if t.Hash() != txid {
		return nil, fmt.Errorf("%w: got %s, want %x", ErrIDMismatch, t.ID(), txid)
	}
	return t, nil
}
