package profile

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML profile file and returns it with the raw bytes
func Load(path string) (*Profile, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	p, err := Parse(data)
	if err != nil {
		return nil, data, fmt.Errorf("%s: %w", path, err)
	}
	return p, data, nil
}

// Parse decodes and validates a YAML profile
// ⭐ SSOT: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Parse(data []byte) (*Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}

	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadDir loads every *.yaml / *.yml profile in dir, sorted by file name
func LoadDir(dir string) ([]*Profile, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	profiles := make([]*Profile, 0, len(paths))
	names := make(map[string]string, len(paths))
	for _, path := range paths {
		p, _, err := Load(path)
		if err != nil {
			return nil, err
		}
		if other, dup := names[p.Name]; dup {
			return nil, fmt.Errorf("profile %q defined in both %s and %s", p.Name, other, path)
		}
		names[p.Name] = path
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// Hash generates a SHA256 hash from the profile (canonical JSON)
// 주의: map 대신 struct 사용으로 해시 재현성 보장
func Hash(p *Profile) (string, error) {
	jsonBytes, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
