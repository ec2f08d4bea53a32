//go:build mobile

package utils

// IsMobile 移动端构建时始终返回 true（预览场景切换为触摸操作提示）
func IsMobile() bool {
	return true
}
