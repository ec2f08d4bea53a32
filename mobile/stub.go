//go:build !mobile

// Package mobile 是 gomobile/ebitenmobile 绑定的入口。
// 普通构建只编译本文件；实际入口在 mobile.go 和 embed.go 中，
// 仅在使用 -tags mobile 时编译。
package mobile

// Dummy 空导出函数，保证包在非移动端构建时也能被引用
func Dummy() {}
