package embedded

import (
	"io/fs"
	"testing"
	"testing/fstest"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"data/camseq_config.yaml":        {Data: []byte("timebase: {tps: 60}\n")},
		"data/sequences/door_open.yaml":  {Data: []byte("version: 1\n")},
		"data/sequences/boss_intro.yaml": {Data: []byte("version: 1\n")},
	}
}

// TestIsInitialized 测试初始化状态检测
func TestIsInitialized(t *testing.T) {
	Init(nil)
	if IsInitialized() {
		t.Error("Expected IsInitialized() to return false before Init()")
	}

	Init(testFS())
	if !IsInitialized() {
		t.Error("Expected IsInitialized() to return true after Init()")
	}

	Init(nil)
}

// TestReadFileNotInitialized 测试未初始化时调用 ReadFile
func TestReadFileNotInitialized(t *testing.T) {
	Init(nil)

	_, err := ReadFile("data/camseq_config.yaml")
	if err == nil {
		t.Fatal("Expected error when calling ReadFile() before Init()")
	}
	if err.Error() != "embedded package not initialized, call Init() first" {
		t.Errorf("Unexpected error message: %v", err)
	}
}

// TestReadFile 测试读取与路径标准化
func TestReadFile(t *testing.T) {
	Init(testFS())
	defer Init(nil)

	data, err := ReadFile("./data/camseq_config.yaml")
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(data) != "timebase: {tps: 60}\n" {
		t.Errorf("Unexpected content: %q", data)
	}

	if _, err := ReadFile("assets/foo.png"); err == nil {
		t.Error("Expected error for unknown prefix")
	}
	if Exists("data/missing.yaml") {
		t.Error("Missing file should not exist")
	}
	if !Exists("data/sequences/door_open.yaml") {
		t.Error("Sequence file should exist")
	}
}

// TestSubAndGlob 测试子文件系统和通配
func TestSubAndGlob(t *testing.T) {
	Init(testFS())
	defer Init(nil)

	matches, err := Glob("data/sequences/*.yaml")
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("Expected 2 sequence files, got %d (%v)", len(matches), matches)
	}

	sub, err := Sub("data/sequences/")
	if err != nil {
		t.Fatalf("Sub failed: %v", err)
	}
	if _, err := fs.Stat(sub, "boss_intro.yaml"); err != nil {
		t.Errorf("Expected boss_intro.yaml in sub FS: %v", err)
	}

	entries, err := ReadDir("data/sequences")
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(entries))
	}
}
