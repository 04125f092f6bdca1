package schema

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML schema file from disk and compiles it. Compilation
// errors are returned rather than panicking; the caller (typically
// cmd/memgraphd at startup) decides whether to treat them as fatal.
func Load(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "schema: reading %s", path)
	}
	var def SchemaDef
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, errors.Wrapf(err, "schema: parsing %s", path)
	}
	reg, err := Compile(def)
	if err != nil {
		return nil, errors.Wrapf(err, "schema: compiling %s", path)
	}
	return reg, nil
}
