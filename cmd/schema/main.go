package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"motion-arena/server/internal/net/proto"
	"motion-arena/server/internal/sim"
)

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "", "path to write the JSON schema bundle")
	flag.Parse()

	if outPath == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}

	if err := writeSchema(outPath, buildSchemas()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schema: %v\n", err)
		os.Exit(1)
	}
}

// buildSchemas reflects one schema per channel event, keyed by event name.
func buildSchemas() map[string]*jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	payloads := map[string]any{
		proto.EventPlayerJoin:       new(proto.JoinPayload),
		proto.EventPlayerLeave:      new(proto.LeavePayload),
		proto.EventControllerMove:   new(proto.MovePayload),
		proto.EventControllerLook:   new(proto.LookPayload),
		proto.EventControllerAction: new(proto.ActionPayload),
		proto.EventSwing:            new(proto.SwingPayload),
		proto.EventPeerDisconnected: new(proto.PeerPayload),
		proto.EventGameState:        new(sim.Snapshot),

		string(sim.EventJoinAccepted):  new(sim.JoinAccepted),
		string(sim.EventJoinRejected):  new(sim.JoinRejected),
		string(sim.EventCountdown):     new(sim.CountdownStarted),
		string(sim.EventGameStart):     new(sim.GameStarted),
		string(sim.EventGamePaused):    new(sim.PhaseNotice),
		string(sim.EventGameResumed):   new(sim.PhaseNotice),
		string(sim.EventScoreUpdate):   new(sim.ScoreUpdate),
		string(sim.EventPlayerHit):     new(sim.PlayerHit),
		string(sim.EventEliminated):    new(sim.PlayerStatus),
		string(sim.EventRespawned):     new(sim.PlayerStatus),
		string(sim.EventRacerFinished): new(sim.RacerFinished),
		string(sim.EventHaptic):        new(sim.Haptic),
		string(sim.EventGameEnd):       new(sim.GameEnded),
	}

	schemas := make(map[string]*jsonschema.Schema, len(payloads))
	for name, payload := range payloads {
		schema := reflector.Reflect(payload)
		schema.Title = name
		schema.Description = fmt.Sprintf("Payload of the %s channel event (protocol v%d)", name, proto.Version)
		schemas[name] = schema
	}
	return schemas
}

func writeSchema(outPath string, schemas map[string]*jsonschema.Schema) error {
	data, err := json.MarshalIndent(schemas, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}

	return nil
}
