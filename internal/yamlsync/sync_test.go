package yamlsync

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"boxmux/internal/boxconfig"
)

const testConfig = `
app:
  layouts:
    - id: main
      root: true
      active: true
      children:
        - id: panel1
          position: {x1: "0", y1: "0", x2: "10", y2: "10"}
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "boxmux.yaml")
	if err := os.WriteFile(path, []byte(testConfig), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestDisabledSyncIsNoop(t *testing.T) {
	sink, err := New(nil, "/nonexistent/path.yaml", false)
	if err != nil {
		t.Fatalf("New(disabled): %v", err)
	}
	sink.Notify(Mutation{Kind: KindMuxBoxContent, MuxBoxID: "panel1", Content: "hello"})
	if err := sink.Close(); err != nil {
		t.Fatalf("Close(): %v", err)
	}
}

func TestBatchSizeTriggersFlushAndPersistsContent(t *testing.T) {
	path := writeTestConfig(t)
	sink, err := New(nil, path, true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < batchSize; i++ {
		sink.Notify(Mutation{Kind: KindMuxBoxContent, MuxBoxID: "panel1", Content: "hello"})
	}

	deadline := time.Now().Add(2 * time.Second)
	var doc *boxconfig.Document
	for time.Now().Before(deadline) {
		doc, err = boxconfig.Load(path)
		if err == nil {
			if box, err := boxconfig.FindMuxBox(doc, "panel1"); err == nil && box.Content == "hello" {
				sink.Close()
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	sink.Close()
	t.Fatalf("configuration file was never updated with the flushed content")
}
