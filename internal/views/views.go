// Package views は画面テンプレートを埋め込みで提供します。
package views

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var files embed.FS

// Templates は全テンプレートを読み込んだ *template.Template を返します。
// テンプレート名はファイル名（例: "login.html"）です。
func Templates() (*template.Template, error) {
	return template.ParseFS(files, "templates/*.html")
}
