package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"motion-arena/server/internal/net/proto"
)

func TestWriteSchemaBundle(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "schemas", "events.json")
	if err := writeSchema(outPath, buildSchemas()); err != nil {
		t.Fatalf("failed to write schema: %v", err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read schema: %v", err)
	}
	var bundle map[string]json.RawMessage
	if err := json.Unmarshal(data, &bundle); err != nil {
		t.Fatalf("schema bundle is not valid JSON: %v", err)
	}
	for _, name := range []string{proto.EventSwing, proto.EventControllerMove, proto.EventGameState, "score-update"} {
		if _, ok := bundle[name]; !ok {
			t.Fatalf("expected schema for %s", name)
		}
	}
	if _, err := os.Stat(outPath + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be renamed away")
	}
}
