// Package ledgercore 组合交易获取、缓存与验证：Open 按 Options 构建 Resolver，
// 之后可以获取交易并验证其输入。
package ledgercore

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/vrecan/death/v3"
	"go.uber.org/fx"

	"github.com/qinglongcn/ledgercore/fetcher"
	"github.com/qinglongcn/ledgercore/tx"
)

// ErrInvalidTxID 表示交易 ID 不是 64 个十六进制字符
var ErrInvalidTxID = errors.New("ledgercore: invalid transaction id")

// Ledger 提供了获取与验证交易所需的各种函数
type Ledger struct {
	ctx      context.Context   // 全局上下文
	opt      *Options          // 选项配置
	cache    fetcher.Cache     // 交易缓存
	source   fetcher.Source    // 交易来源
	resolver *fetcher.Resolver // 前序输出解析
	app      *fx.App           // 依赖注入容器
}

// Open 返回一个新的 Ledger 对象
func Open(opt *Options) (*Ledger, error) {
	// 1. 检查并设置选项
	if err := opt.CheckAndSetOptions(); err != nil {
		return nil, err
	}
	// 2. 本地文件夹与日志
	if err := initDirectories(opt); err != nil {
		return nil, err
	}
	if err := SetLog(opt); err != nil {
		return nil, err
	}

	ctx := context.Background()
	l := &Ledger{
		ctx: ctx,
		opt: opt,
	}

	// fx 配置项
	opts := []fx.Option{
		l.globalInit(),
		fx.Provide(
			NewCache,    // 交易缓存
			NewSource,   // 交易来源
			NewResolver, // 前序输出解析
		),
	}
	opts = append(opts, fx.Populate(
		&l.cache,
		&l.source,
		&l.resolver,
	))
	l.app = fx.New(opts...)
	if err := l.app.Err(); err != nil {
		return nil, err
	}

	if err := l.app.Start(l.ctx); err != nil {
		return nil, err
	}
	opt.IsOpen = true // 实例已打开

	logrus.Infof("ledger %s opened on %s", opt.InstanceId, opt.network())
	return l, nil
}

// 全局初始化
func (l *Ledger) globalInit() fx.Option {
	return fx.Provide(
		func() context.Context {
			return l.ctx
		},
		func() *Options {
			return l.opt
		},
	)
}

// initDirectories 确保所有预定义的文件夹都存在
func initDirectories(opt *Options) error {
	directories := []string{
		opt.RootPath,  // 根目录
		opt.logPath(), // 日志目录
	}
	if opt.Persist {
		directories = append(directories, opt.cachePath()) // 缓存db目录
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

type NewCacheInput struct {
	fx.In

	Opt *Options // 选项配置
}

type NewCacheOutput struct {
	fx.Out

	Cache fetcher.Cache // 交易缓存
}

// NewCache 按选项创建 Badger 缓存或内存缓存，Badger 缓存随应用停止而关闭
func NewCache(lc fx.Lifecycle, input NewCacheInput) (out NewCacheOutput, err error) {
	if !input.Opt.Persist {
		out.Cache = fetcher.NewMemoryCache()
		return out, nil
	}

	cache, err := fetcher.OpenBadgerCache(input.Opt.cachePath(), input.Opt.Testnet)
	if err != nil {
		logrus.Errorf("[NewCache] 启动失败:\t%v", err)
		return out, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return cache.Close()
		},
	})
	out.Cache = cache
	return out, nil
}

type NewSourceInput struct {
	fx.In

	Opt *Options // 选项配置
}

type NewSourceOutput struct {
	fx.Out

	Source fetcher.Source // 交易来源
}

// NewSource 按选项创建目录来源或 HTTP 来源
func NewSource(input NewSourceInput) NewSourceOutput {
	opt := input.Opt
	if opt.TxDir != "" {
		return NewSourceOutput{Source: fetcher.NewDirSource(afero.NewOsFs(), opt.TxDir, opt.Testnet)}
	}

	client := &http.Client{Timeout: opt.HTTPTimeout}
	return NewSourceOutput{Source: fetcher.NewHTTPSource(opt.BaseURL, opt.Testnet, client)}
}

type NewResolverInput struct {
	fx.In

	Source fetcher.Source // 交易来源
	Cache  fetcher.Cache  // 交易缓存
}

type NewResolverOutput struct {
	fx.Out

	Resolver *fetcher.Resolver // 前序输出解析
}

// NewResolver 组合交易来源与缓存
func NewResolver(input NewResolverInput) NewResolverOutput {
	return NewResolverOutput{Resolver: fetcher.NewResolver(input.Source, input.Cache)}
}

// Options 返回实例的选项
func (l *Ledger) Options() *Options {
	return l.opt
}

// Resolver 返回实例的前序输出解析器，可直接用于 tx 包的验证与签名
func (l *Ledger) Resolver() *fetcher.Resolver {
	return l.resolver
}

// FetchTx 按十六进制交易 ID 获取交易，fresh 为 true 时跳过缓存
func (l *Ledger) FetchTx(ctx context.Context, id string, fresh bool) (*tx.Tx, error) {
	txid, err := ParseTxID(id)
	if err != nil {
		return nil, err
	}
	return l.resolver.Fetch(ctx, txid, fresh)
}

// VerifyTx 验证交易的手续费与所有输入
func (l *Ledger) VerifyTx(ctx context.Context, t *tx.Tx) error {
	if err := t.Verify(ctx, l.resolver); err != nil {
		logrus.Infof("tx %s invalid: %v", t.ID(), err)
		return err
	}
	return nil
}

// Close 停止应用并关闭缓存数据库
func (l *Ledger) Close() error {
	if !l.opt.IsOpen {
		return nil
	}
	l.opt.IsOpen = false
	return l.app.Stop(l.ctx)
}

// CloseOnSignal 阻塞，直到收到程序终止信号后关闭实例
func (l *Ledger) CloseOnSignal() error {
	//syscall.SIGINT ctr+c触发
	//syscall.SIGTERM 当前进程被kill(即收到SIGTERM)
	d := death.NewDeath(syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	return d.WaitForDeath(l)
}

// ParseTxID 将 64 个十六进制字符的交易 ID 转换为显示顺序的字节
func ParseTxID(id string) ([32]byte, error) {
	var txid [32]byte
	b, err := hex.DecodeString(id)
	if err != nil || len(b) != len(txid) {
		return txid, fmt.Errorf("%w: %q", ErrInvalidTxID, id)
	}
	copy(txid[:], b)
	return txid, nil
}
