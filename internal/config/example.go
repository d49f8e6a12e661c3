package config

import _ "embed"

// Example is the annotated configuration written by `hostwatch init`.
//
//go:embed example.yaml
var Example []byte
