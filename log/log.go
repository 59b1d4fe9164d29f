package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Plugin = zapcore.Core

/*
输入一个或多个日志核心和可选的Zap配置选项，输出一个配置好的Zap日志实例

多个插件通过zapcore.NewTee合并，同一条日志会写入所有插件
*/
func NewLogger(plugin Plugin, options ...zap.Option) *zap.Logger {
	return zap.New(plugin, append(DefaultOption(), options...)...)
}

func NewPlugin(writer zapcore.WriteSyncer, enabler zapcore.LevelEnabler) Plugin {
	return zapcore.NewCore(DefaultEncoder(), writer, enabler)
}

func NewStdoutPlugin(enabler zapcore.LevelEnabler) Plugin {
	return NewPlugin(zapcore.Lock(zapcore.AddSync(os.Stdout)), enabler)
}

// 标准输出留给进度信息，命令行默认把日志写到标准错误
func NewStderrPlugin(enabler zapcore.LevelEnabler) Plugin {
	return NewPlugin(zapcore.Lock(zapcore.AddSync(os.Stderr)), enabler)
}

// lumberjack没有暴露Sync方法，返回的closer需要在进程退出前关闭，保证日志刷到磁盘
func NewFilePlugin(filePath string, enabler zapcore.LevelEnabler) (Plugin, io.Closer) {
	var writer = DefaultLumberjackLogger()
	writer.Filename = filePath
	return NewPlugin(zapcore.AddSync(writer), enabler), writer
}

/*
输入日志级别字符串和日志文件路径，输出日志实例、关闭函数和错误

日志总是写到标准错误；filePath非空时额外写入轮转文件。返回的关闭函数负责Sync和关闭文件
*/
func New(levelText string, filePath string) (*zap.Logger, func() error, error) {
	level, err := zapcore.ParseLevel(levelText)
	if err != nil {
		return nil, nil, err
	}

	plugins := []Plugin{NewStderrPlugin(level)}
	var closer io.Closer
	if filePath != "" {
		var p Plugin
		p, closer = NewFilePlugin(filePath, level)
		plugins = append(plugins, p)
	}

	logger := NewLogger(zapcore.NewTee(plugins...))
	closeFn := func() error {
		// 标准错误上的Sync在部分平台会返回EINVAL，忽略
		_ = logger.Sync()
		if closer != nil {
			return closer.Close()
		}
		return nil
	}
	return logger, closeFn, nil
}
