package atlas

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var ErrInvalidTexturePath = errors.New("invalid texture filepath")

type manifest struct {
	Textures map[string]string `json:"textures"`
}

// Atlas is a snapshot of texture art read from a directory. Keys are slash
// separated paths without extension ("plants/Carrot"), or the names given in
// an optional index.json manifest.
type Atlas struct {
	Root string

	mu       sync.RWMutex
	textures map[string]image.Image
}

func Load(root string) (*Atlas, error) {
	a := &Atlas{Root: root}
	if err := a.Reload(); err != nil {
		return nil, err
	}
	return a, nil
}

// Reload rereads the directory and swaps the snapshot in one step.
func (a *Atlas) Reload() error {
	files, err := a.files()
	if err != nil {
		return err
	}
	textures := make(map[string]image.Image, len(files))
	for key, path := range files {
		img, err := decode(path)
		if err != nil {
			return fmt.Errorf("texture %s: %w", key, err)
		}
		textures[key] = img
	}
	a.mu.Lock()
	a.textures = textures
	a.mu.Unlock()
	return nil
}

func (a *Atlas) Keys() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, 0, len(a.textures))
	for k := range a.textures {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (a *Atlas) Texture(key string) (image.Image, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	img, ok := a.textures[key]
	return img, ok
}

func (a *Atlas) files() (map[string]string, error) {
	raw, err := os.ReadFile(filepath.Join(a.Root, "index.json"))
	switch {
	case err == nil:
		var m manifest
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("texture index: %w", err)
		}
		out := make(map[string]string, len(m.Textures))
		for key, rel := range m.Textures {
			path, err := secureJoin(a.Root, rel)
			if err != nil {
				return nil, fmt.Errorf("texture %s: %w", key, err)
			}
			out[key] = path
		}
		return out, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	out := map[string]string{}
	err = filepath.WalkDir(a.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".png") {
			return nil
		}
		rel, err := filepath.Rel(a.Root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
		out[key] = path
		return nil
	})
	return out, err
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}

func secureJoin(root, rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return "", ErrInvalidTexturePath
	}
	if filepath.IsAbs(rel) {
		return "", ErrInvalidTexturePath
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	target := filepath.Clean(filepath.Join(rootAbs, rel))
	prefix := rootAbs + string(filepath.Separator)
	if target != rootAbs && !strings.HasPrefix(target, prefix) {
		return "", ErrInvalidTexturePath
	}
	return target, nil
}
