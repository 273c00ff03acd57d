package release

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"sigs.k8s.io/yaml"
)

//go:embed release.schema.json
var schemaJSON []byte

// compileSchema compiles the embedded release schema exactly once; the
// schema ships with the binary, so a compile failure is a programming
// error.
var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshaling embedded release schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("release.schema.json", doc); err != nil {
		return nil, fmt.Errorf("adding release schema resource: %w", err)
	}
	schema, err := compiler.Compile("release.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compiling release schema: %w", err)
	}
	return schema, nil
})

// Decode parses a JSON release record, validating it against the release
// schema before unmarshaling, so malformed records from the server are
// rejected with a structural error instead of surfacing later as odd
// editor state. The version must parse as semver.
func Decode(data []byte) (*Release, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing release record: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return nil, fmt.Errorf("invalid release record: %w", err)
	}
	var r Release
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding release record: %w", err)
	}
	if _, err := r.SemVer(); err != nil {
		return nil, err
	}
	return &r, nil
}

// DecodeYAML parses a YAML release record by converting it to JSON and
// delegating to Decode.
func DecodeYAML(data []byte) (*Release, error) {
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("converting release record to JSON: %w", err)
	}
	return Decode(jsonData)
}

// Encode serializes the release record as JSON. The environment encodes
// as an ordered name/value array, so the order round-trips.
func (r *Release) Encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encoding release record: %w", err)
	}
	return data, nil
}

// EncodeYAML serializes the release record as YAML.
func (r *Release) EncodeYAML() ([]byte, error) {
	data, err := r.Encode()
	if err != nil {
		return nil, err
	}
	out, err := yaml.JSONToYAML(data)
	if err != nil {
		return nil, fmt.Errorf("converting release record to YAML: %w", err)
	}
	return out, nil
}
