// 定义了脚本执行时的日志辅助。

package txscript

// logClosure 是一个在格式化时才被调用的闭包。
// 用于推迟只在跟踪级别才需要的昂贵日志内容的生成。
type logClosure func() string

// String 调用闭包并返回其结果。
func (c logClosure) String() string {
	return c()
}

// newLogClosure 将 c 包装为 logClosure，以便作为格式化参数传给 logrus。
func newLogClosure(c func() string) logClosure {
	return logClosure(c)
}
