package program

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Load reads a program from a YAML file.
func Load(path string) (Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Program{}, errors.Wrap(err, "read program file")
	}
	return Parse(data)
}

// Parse decodes a YAML program of the form
//
//	name: Move one object
//	actions:
//	  - {action: right, value: 1}
//	  - {action: down, value: 5}
//
// and pads it to Size. Action names are checked against the names the
// simulator knows.
func Parse(data []byte) (Program, error) {
	var p Program
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Program{}, errors.Wrapf(ErrProgramFile, "%v", err)
	}

	known := make(DispatchTable, len(AllActions()))
	for _, name := range AllActions() {
		known[name] = Entry{}
	}
	if err := p.Validate(known); err != nil {
		return Program{}, err
	}

	return p.Pad(), nil
}
