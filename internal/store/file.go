package store

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/static.yaml
var embeddedStatic []byte

// File is the on-disk dataset format.
type File struct {
	Profiles []Profile `yaml:"profiles"`
}

// ErrEmptyDataset is returned when a dataset file has no usable profiles.
var ErrEmptyDataset = errors.New("dataset contains no profiles")

// Decode parses a YAML dataset and rejects profiles without any identity.
func Decode(r io.Reader) ([]Profile, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDataset
		}
		return nil, fmt.Errorf("decode dataset: %w", err)
	}

	for i, p := range f.Profiles {
		if p.User.Username == "" && len(p.User.CanonicalKeys) == 0 {
			return nil, fmt.Errorf("profile %d has neither username nor userkeys", i)
		}
	}
	if len(f.Profiles) == 0 {
		return nil, ErrEmptyDataset
	}
	return f.Profiles, nil
}

// Encode writes profiles in the dataset format.
func Encode(w io.Writer, profiles []Profile) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(File{Profiles: profiles}); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	return enc.Close()
}

// LoadFile reads a YAML dataset from path.
func LoadFile(path string) ([]Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()

	profiles, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", path, err)
	}
	return profiles, nil
}

// LoadStatic returns the static fallback dataset: the file at path when set,
// otherwise the dataset compiled into the binary.
func LoadStatic(path string) (*Dataset, error) {
	var (
		profiles []Profile
		err      error
	)
	if strings.TrimSpace(path) != "" {
		profiles, err = LoadFile(path)
	} else {
		profiles, err = Decode(strings.NewReader(string(embeddedStatic)))
	}
	if err != nil {
		return nil, err
	}
	return NewDataset(profiles, MatchNames), nil
}
