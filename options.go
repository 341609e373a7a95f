package ledgercore

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Options 是用于打开 Ledger 的参数
type Options struct {
	IsOpen  bool `optional:"false"  default:"false"` // 实例是否已打开
	Testnet bool `optional:"false"  default:"false"` // 是否使用测试网
	Persist bool `optional:"false"  default:"true"`  // 是否使用 Badger 持久化交易缓存

	InstanceId string // 实例标识符，用于区分日志文件

	RootPath string // 根目录，包含缓存数据库与日志
	BaseURL  string // 交易服务地址，为空时使用网络的默认地址
	TxDir    string // 本地交易目录，不为空时从该目录而不是交易服务获取交易

	HTTPTimeout time.Duration // 请求交易服务的超时时间
	LogLevel    logrus.Level  // 日志级别
}

// DefaultOptions 设置一个推荐选项列表
func DefaultOptions() *Options {
	return &Options{
		Persist:     true,
		RootPath:    defaultRootPath(),
		HTTPTimeout: 30 * time.Second,
		LogLevel:    logrus.InfoLevel,
	}
}

func defaultRootPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "ledgercore")
}

// BuildInstanceId 设置实例ID，未指定时生成一个随机字符串
func (opt *Options) BuildInstanceId(instanceId ...string) {
	if opt.IsOpen { // 实例已打开
		return
	}

	var id string
	if len(instanceId) > 0 {
		id = instanceId[0]
	} else {
		id, _ = generateRandomString(12)
	}
	opt.InstanceId = id
}

// BuildTestnet 设置为测试网
func (opt *Options) BuildTestnet() {
	if opt.IsOpen {
		return
	}

	opt.Testnet = true
}

// BuildRootPath 设置根目录，只接受绝对路径
func (opt *Options) BuildRootPath(path string) {
	if opt.IsOpen || path == "" || !filepath.IsAbs(path) {
		return
	}

	opt.RootPath = path
}

// BuildBaseURL 设置交易服务地址
func (opt *Options) BuildBaseURL(baseURL string) {
	if opt.IsOpen {
		return
	}

	opt.BaseURL = strings.TrimRight(baseURL, "/")
}

// BuildTxDir 设置本地交易目录
func (opt *Options) BuildTxDir(dir string) {
	if opt.IsOpen {
		return
	}

	opt.TxDir = dir
}

// CheckAndSetOptions 检查并设置选项
func (opt *Options) CheckAndSetOptions() error {
	if opt.IsOpen { // 实例已打开
		return fmt.Errorf("'%s' 实例已打开", opt.InstanceId)
	}

	if opt.RootPath == "" {
		opt.RootPath = defaultRootPath()
	}
	if !filepath.IsAbs(opt.RootPath) {
		return fmt.Errorf("根目录必须是绝对路径: %s", opt.RootPath)
	}

	if opt.BaseURL != "" {
		u, err := url.Parse(opt.BaseURL)
		if err != nil {
			return fmt.Errorf("交易服务地址无效: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("交易服务地址无效: %s", opt.BaseURL)
		}
	}

	if opt.HTTPTimeout <= 0 {
		opt.HTTPTimeout = 30 * time.Second
	}
	if opt.InstanceId == "" {
		opt.BuildInstanceId()
	}
	return nil
}

// network 返回网络名称
func (opt *Options) network() string {
	if opt.Testnet {
		return "testnet"
	}
	return "mainnet"
}

// cachePath 返回交易缓存数据库的目录，主网与测试网分开保存
func (opt *Options) cachePath() string {
	return filepath.Join(opt.RootPath, "cache", opt.network())
}

// logPath 返回日志目录
func (opt *Options) logPath() string {
	return filepath.Join(opt.RootPath, "logs")
}

// generateRandomString 生成一个指定长度的随机字符串
func generateRandomString(length int) (string, error) {
	const letters = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	var result strings.Builder
	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		result.WriteByte(letters[num.Int64()])
	}
	return result.String(), nil
}
