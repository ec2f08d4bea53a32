//go:build !android

package utils

// EnsureStorageDir 非 Android 平台无需处理，gdata 会自行创建存储目录
func EnsureStorageDir() error {
	return nil
}

// GetStoragePath 非 Android 平台返回空字符串，存储位置由 gdata 决定
func GetStoragePath() string {
	return ""
}
