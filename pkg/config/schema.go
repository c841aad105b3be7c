package config

import (
	_ "embed"

	"github.com/carldaws/poly/pkg/yaml"
)

//go:generate go run ../../internal/schemagen/main.go -o poly.v1.json

var (
	//go:embed poly.v1.json
	schemaJSON []byte

	// DefaultValidator validates configuration files against the JSON schema.
	DefaultValidator = yaml.MustNewValidator("/poly.v1.json", schemaJSON)
)

// Schema returns the JSON schema for configuration files.
func Schema() []byte {
	return schemaJSON
}
