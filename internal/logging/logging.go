// Package logging は slog ロガーの生成を提供します。
package logging

import (
	"io"
	"log/slog"
	"os"
)

// New は Gin の実行モードに応じたロガーを返します。
// release では JSON、それ以外ではテキスト形式で出力します。
func New(mode string) *slog.Logger {
	return newWithWriter(mode, os.Stdout)
}

func newWithWriter(mode string, w io.Writer) *slog.Logger {
	if mode == "release" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Discard は出力を捨てるロガーです（テスト用）。
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
