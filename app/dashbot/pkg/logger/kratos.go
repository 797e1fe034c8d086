package logger

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/sirupsen/logrus"
)

// CallerKey 调用位置字段，格式为 file.go:line，与 kratos log.DefaultCaller 一致
const CallerKey = "caller"

const kratosLogPkg = "github.com/go-kratos/kratos/v2/log."

// kratosLogger 将 logrus 适配为 kratos log.Logger，供核心包注入使用
type kratosLogger struct {
	l *logrus.Logger
}

// NewKratosLogger 包装 logrus 实例
func NewKratosLogger(l *logrus.Logger) log.Logger {
	return &kratosLogger{l: l}
}

// Log 实现 log.Logger 接口
func (k *kratosLogger) Log(level log.Level, keyvals ...any) error {
	if len(keyvals) == 0 {
		return nil
	}
	if len(keyvals)%2 != 0 {
		keyvals = append(keyvals, "KEYVALS UNPAIRED")
	}

	var msg string
	fields := logrus.Fields{}
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		if key == log.DefaultMessageKey {
			msg = fmt.Sprint(keyvals[i+1])
			continue
		}
		fields[key] = keyvals[i+1]
	}
	if _, ok := fields[CallerKey]; !ok {
		if site := callSite(); site != "" {
			fields[CallerKey] = site
		}
	}

	entry := k.l.WithFields(fields)
	switch level {
	case log.LevelDebug:
		entry.Debug(msg)
	case log.LevelWarn:
		entry.Warn(msg)
	case log.LevelError:
		entry.Error(msg)
	case log.LevelFatal:
		// 不在适配层退出进程
		entry.Error(msg)
	default:
		entry.Info(msg)
	}
	return nil
}

// callSite 跳过适配层和 kratos log 包的栈帧，返回业务代码的调用位置
func callSite() string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		if !strings.HasPrefix(f.Function, kratosLogPkg) && !strings.Contains(f.Function, ".(*kratosLogger).") {
			return fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
		}
		if !more {
			return ""
		}
	}
}

func sortedKeys(data logrus.Fields) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
