package ledgercore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// TestDefaultOptions 测试默认选项与各个设置方法。
func TestDefaultOptions(t *testing.T) {
	opt := DefaultOptions()
	require.True(t, opt.Persist)
	require.False(t, opt.Testnet)
	require.True(t, filepath.IsAbs(opt.RootPath))
	require.Equal(t, logrus.InfoLevel, opt.LogLevel)
	require.Equal(t, 30*time.Second, opt.HTTPTimeout)

	opt.BuildTestnet()
	require.True(t, opt.Testnet)
	require.Equal(t, "testnet", opt.network())

	opt.BuildRootPath("relative/path")
	require.NotEqual(t, "relative/path", opt.RootPath)
	root := t.TempDir()
	opt.BuildRootPath(root)
	require.Equal(t, root, opt.RootPath)
	require.Equal(t, filepath.Join(root, "cache", "testnet"), opt.cachePath())
	require.Equal(t, filepath.Join(root, "logs"), opt.logPath())

	opt.BuildBaseURL("http://localhost:8080/")
	require.Equal(t, "http://localhost:8080", opt.BaseURL)

	opt.BuildInstanceId()
	require.Len(t, opt.InstanceId, 12)
	opt.BuildInstanceId("node1")
	require.Equal(t, "node1", opt.InstanceId)

	// 打开后不能再修改。
	opt.IsOpen = true
	opt.BuildTxDir("/tmp/txs")
	opt.BuildInstanceId("node2")
	require.Empty(t, opt.TxDir)
	require.Equal(t, "node1", opt.InstanceId)
	require.Error(t, opt.CheckAndSetOptions())
}

// TestCheckAndSetOptions 测试选项检查。
func TestCheckAndSetOptions(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
		valid  bool
	}{
		{"default", func(*Options) {}, true},
		{"relative root", func(o *Options) { o.RootPath = "data" }, false},
		{"bad scheme", func(o *Options) { o.BaseURL = "ftp://example.com" }, false},
		{"bad url", func(o *Options) { o.BaseURL = "http://[::1" }, false},
		{"https", func(o *Options) { o.BaseURL = "https://example.com" }, true},
		{"zero timeout", func(o *Options) { o.HTTPTimeout = 0 }, true},
		{"empty root", func(o *Options) { o.RootPath = "" }, true},
	}

	for _, test := range tests {
		opt := DefaultOptions()
		test.modify(opt)
		err := opt.CheckAndSetOptions()
		if test.valid != (err == nil) {
			t.Errorf("%s: unexpected result %v", test.name, err)
			continue
		}
		if err == nil {
			require.NotEmpty(t, opt.InstanceId, test.name)
			require.Positive(t, opt.HTTPTimeout, test.name)
			require.True(t, filepath.IsAbs(opt.RootPath), test.name)
		}
	}
}
