package scene

import (
	"sort"
	"sync"
)

// Catalog maps scene ids to authored scenes. Reads return copies, so a
// session that resolved a scene is unaffected by later edits.
type Catalog struct {
	mu     sync.RWMutex
	scenes map[string]Scene
}

func NewCatalog(scenes ...Scene) (*Catalog, error) {
	c := &Catalog{scenes: make(map[string]Scene, len(scenes))}
	for _, s := range scenes {
		if err := c.Put(s); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Resolve returns the scene for id, or an empty scene with the same id when
// the identifier is unknown.
func (c *Catalog) Resolve(id string) Scene {
	if s, ok := c.Lookup(id); ok {
		return s
	}
	return Scene{ID: id, Questions: []Question{}}
}

func (c *Catalog) Lookup(id string) (Scene, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.scenes[id]
	if !ok {
		return Scene{}, false
	}
	return s.Clone(), true
}

func (c *Catalog) Put(s Scene) error {
	if err := Validate(s); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scenes[s.ID] = s.Clone()
	return nil
}

func (c *Catalog) Delete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.scenes[id]; !ok {
		return false
	}
	delete(c.scenes, id)
	return true
}

// List returns every scene sorted by id.
func (c *Catalog) List() []Scene {
	c.mu.RLock()
	out := make([]Scene, 0, len(c.scenes))
	for _, s := range c.scenes {
		out = append(out, s.Clone())
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.scenes)
}
