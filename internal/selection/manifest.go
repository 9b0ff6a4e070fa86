package selection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"reelcut/internal/services"
)

type manifestFile struct {
	Clips []Spec `json:"clips"`
}

// LoadManifest reads user-chosen clips from path. The file holds either
// {"clips":[...]} or a bare array of clips.
func LoadManifest(path string) ([]Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "selection", "read manifest", path, err)
	}
	var specs []Spec
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &specs)
	} else {
		var file manifestFile
		err = json.Unmarshal(trimmed, &file)
		specs = file.Clips
	}
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "selection", "parse manifest", path, err)
	}
	if len(specs) == 0 {
		return nil, services.Wrap(services.ErrValidation, "selection", "parse manifest", "manifest lists no clips", nil)
	}
	for i := range specs {
		specs[i] = specs[i].normalize(fmt.Sprintf("Clip %d", i+1))
		if err := Validate(specs[i]); err != nil {
			return nil, fmt.Errorf("manifest clip %d: %w", i+1, err)
		}
	}
	return specs, nil
}
