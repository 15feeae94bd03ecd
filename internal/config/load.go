package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed profile.cue
var schemaCUE string

// LoadError reports a profile that could not be read or does not satisfy
// the schema.
type LoadError struct {
	Path    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("profile %s: %s", e.Path, e.Message)
}

// Load reads the CUE profile at path and returns it decoded.
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, &LoadError{Path: path, Message: err.Error()}
	}
	return Parse(path, data)
}

// Parse checks src against #Profile and decodes it. filename is used in
// error positions only.
func Parse(filename string, src []byte) (Profile, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("profile.cue"))
	if err := schema.Err(); err != nil {
		return Profile{}, &LoadError{Path: "profile.cue", Message: formatCUEError(err)}
	}

	value := ctx.CompileBytes(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return Profile{}, &LoadError{Path: filename, Message: formatCUEError(err)}
	}

	unified := schema.LookupPath(cue.ParsePath("#Profile")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Profile{}, &LoadError{Path: filename, Message: formatCUEError(err)}
	}

	data, err := unified.MarshalJSON()
	if err != nil {
		return Profile{}, &LoadError{Path: filename, Message: formatCUEError(err)}
	}
	p, err := decodeProfile(data)
	if err != nil {
		return Profile{}, &LoadError{Path: filename, Message: err.Error()}
	}
	return p, nil
}

// LoadSettings returns the defaults overlaid with the profile at path. An
// empty path returns the defaults.
func LoadSettings(path string) (Settings, error) {
	s := Defaults()
	if path == "" {
		return s, nil
	}
	p, err := Load(path)
	if err != nil {
		return Settings{}, err
	}
	p.Apply(&s)
	return s, nil
}

// formatCUEError flattens a CUE error list into one "; "-separated line.
func formatCUEError(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) <= 1 {
		return err.Error()
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}
