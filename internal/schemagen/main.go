package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/carldaws/poly/pkg/config"
)

var outFile = flag.String("o", "schema.json", "Output file for the generated schema")

func main() {
	flag.Parse()

	r := &jsonschema.Reflector{Anonymous: true}

	js := r.Reflect(config.Document{})
	js.ID = ""

	jsData, err := json.MarshalIndent(js, "", "  ")
	if err != nil {
		log.Fatalf("generate JSON schema: %v", err)
	}

	jsData = append(jsData, '\n')

	// Write schema file.
	err = os.WriteFile(*outFile, jsData, 0o600)
	if err != nil {
		log.Fatalf("write schema file: %v", err)
	}
}
