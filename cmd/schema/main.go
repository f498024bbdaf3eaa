// Command schema regenerates the embedded simulation config schema from the
// SimulationConfig struct. Run it after changing internal/config and commit
// the result.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/invopop/jsonschema"

	"hunt-and-hide/sim/internal/config"
)

func main() {
	out := flag.String("out", "internal/config/config.schema.json", "schema output path")
	flag.Parse()

	reflector := &jsonschema.Reflector{}
	schema := reflector.Reflect(&config.SimulationConfig{})

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		log.Fatalf("marshal schema: %v", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(*out, data, 0o644); err != nil {
		log.Fatalf("write %s: %v", *out, err)
	}
	log.Printf("wrote %s (%d bytes)", *out, len(data))
}
