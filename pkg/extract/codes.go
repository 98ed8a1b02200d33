package extract

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed codes.yaml
var defaultCodesYAML []byte

// Codes holds the lookup tables used while extracting authors and genres.
type Codes struct {
	// DefaultRole is the relator code used for unknown role texts.
	DefaultRole string `yaml:"default_role"`

	// Roles maps role text ("ред.", "сост.") to a relator code.
	Roles map[string]string `yaml:"roles"`

	// Genres maps monograph title information to a 900^c code.
	Genres map[string]string `yaml:"genres"`
}

// DefaultCodes returns the built-in tables.
func DefaultCodes() *Codes {
	codes, err := parseCodes(defaultCodesYAML)
	if err != nil {
		panic(fmt.Sprintf("extract: built-in codes.yaml is invalid: %v", err))
	}
	return codes
}

// LoadCodes reads a YAML table file and layers it over the built-in tables.
func LoadCodes(path string) (*Codes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading codes file: %w", err)
	}
	override, err := parseCodes(data)
	if err != nil {
		return nil, fmt.Errorf("parsing codes file %s: %w", path, err)
	}

	codes := DefaultCodes()
	if override.DefaultRole != "" {
		codes.DefaultRole = override.DefaultRole
	}
	for role, code := range override.Roles {
		codes.Roles[role] = code
	}
	for genre, code := range override.Genres {
		codes.Genres[genre] = code
	}
	return codes, nil
}

func parseCodes(data []byte) (*Codes, error) {
	var codes Codes
	if err := yaml.Unmarshal(data, &codes); err != nil {
		return nil, err
	}
	if codes.Roles == nil {
		codes.Roles = make(map[string]string)
	}
	if codes.Genres == nil {
		codes.Genres = make(map[string]string)
	}
	return &codes, nil
}

// RoleCode returns the relator code for a role text.
func (c *Codes) RoleCode(role string) string {
	if code, ok := c.Roles[role]; ok {
		return code
	}
	if c.DefaultRole != "" {
		return c.DefaultRole
	}
	return "570"
}

// GenreCode returns the 900^c code for monograph title information.
func (c *Codes) GenreCode(info string) (string, bool) {
	code, ok := c.Genres[info]
	return code, ok
}
