package store

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/tidwall/pretty"
	"go.yaml.in/yaml/v3"

	"github.com/kjk/kvcli/u"
)

// the encoding of a backing file is picked by its name:
// .yaml / .yml is YAML, everything else JSON. An extra .gz, .zst or .br
// compresses the encoded bytes.
func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(u.TrimCompressionExt(path)))
	return ext == ".yaml" || ext == ".yml"
}

func encode(path string, v any) ([]byte, error) {
	var d []byte
	var err error
	if isYAML(path) {
		d, err = yaml.Marshal(v)
	} else {
		d, err = json.Marshal(v)
		if err == nil {
			d = pretty.Pretty(d)
		}
	}
	if err != nil {
		return nil, err
	}
	return u.CompressDataForPath(path, d)
}

// decode of empty data leaves v untouched
func decode(path string, d []byte, v any) error {
	if len(d) == 0 {
		return nil
	}
	d, err := u.DecompressDataForPath(path, d)
	if err != nil {
		return err
	}
	if len(d) == 0 {
		return nil
	}
	if isYAML(path) {
		return yaml.Unmarshal(d, v)
	}
	return json.Unmarshal(d, v)
}
