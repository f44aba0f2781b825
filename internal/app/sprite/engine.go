package sprite

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"gardensync/internal/domain/catalog"
	domain "gardensync/internal/domain/sprite"
)

const (
	CategoryPlant = "plant"
	CategoryDecor = "decor"
	CategoryEgg   = "egg"
	CategoryItem  = "item"
)

type Request struct {
	Category  string   `json:"category"`
	ID        string   `json:"id"`
	Mutations []string `json:"mutations,omitempty"`
}

type Stats struct {
	Cache    CacheStats `json:"cache"`
	Rendered int64      `json:"rendered"`
	Failed   int64      `json:"failed"`
	Pending  int        `json:"pending"`
	Warmup   Progress   `json:"warmup"`
}

// Engine turns (category, id, mutations) into a sprite. A request either hits
// the variant cache, or renders and is cached, or fails silently with no image.
type Engine struct {
	Catalog    *catalog.Catalog
	Icons      *IconResolver
	Compositor Compositor
	Cache      *Cache
	Scheduler  *Scheduler
	Warmer     *Warmer
	Logger     logrus.FieldLogger

	rendered atomic.Int64
	failed   atomic.Int64
}

func (e *Engine) log() logrus.FieldLogger {
	if e.Logger == nil {
		return logrus.StandardLogger()
	}
	return e.Logger
}

func (e *Engine) Render(req Request) (image.Image, bool) {
	icon, species, ok := e.base(req.Category, req.ID)
	if !ok {
		e.fail(req, "no base texture", nil)
		return nil, false
	}
	sel := domain.Select(req.Mutations, e.Catalog)
	if sel.Empty() {
		return icon.Image, true
	}

	key := domain.CacheKey(icon.Key, sel.Signature())
	if e.Cache != nil {
		if img, ok := e.Cache.Get(key); ok {
			return img, true
		}
	}
	img, err := e.Compositor.Composite(icon.Image, species, sel)
	if err != nil {
		e.fail(req, "composite", err)
		return nil, false
	}
	e.rendered.Add(1)
	if e.Cache != nil {
		e.Cache.Put(key, img, ImageCost(img))
	}
	return img, true
}

func (e *Engine) RenderPNG(req Request) ([]byte, bool) {
	img, ok := e.Render(req)
	if !ok {
		return nil, false
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		e.fail(req, "encode", err)
		return nil, false
	}
	return buf.Bytes(), true
}

// Prerender queues renders on the scheduler. Results land in the cache.
func (e *Engine) Prerender(reqs ...Request) {
	if e.Scheduler == nil {
		return
	}
	for _, req := range reqs {
		req := req
		e.Scheduler.Enqueue(func() { e.Render(req) })
	}
}

// Warmup resolves base icons for every catalog entry so later renders skip
// the atlas scan.
func (e *Engine) Warmup(ctx context.Context) error {
	if e.Warmer == nil {
		return nil
	}
	var jobs []Job
	add := func(category, id string) {
		jobs = append(jobs, func() { e.base(category, id) })
	}
	for _, s := range e.Catalog.Species() {
		add(CategoryPlant, s)
	}
	for _, d := range e.Catalog.DecorIDs() {
		add(CategoryDecor, d)
	}
	for _, m := range e.Catalog.MutationNames() {
		if mut, ok := e.Catalog.Mutation(m); ok && mut.Badge != "" {
			add(CategoryItem, mut.Badge)
		}
	}
	err := e.Warmer.Warm(ctx, jobs)
	if err == nil {
		e.log().WithField("icons", len(jobs)).Info("sprite warm-up finished")
	}
	return err
}

// ClearCache drops every rendered variant and every cached icon lookup.
func (e *Engine) ClearCache() {
	if e.Cache != nil {
		e.Cache.Clear()
	}
	if e.Icons != nil {
		e.Icons.Forget()
	}
}

func (e *Engine) Stats() Stats {
	s := Stats{Rendered: e.rendered.Load(), Failed: e.failed.Load()}
	if e.Cache != nil {
		s.Cache = e.Cache.Stats()
	}
	if e.Scheduler != nil {
		s.Pending = e.Scheduler.Pending()
	}
	if e.Warmer != nil {
		s.Warmup = e.Warmer.Progress()
	}
	return s
}

// base resolves the base icon. Plants are looked up by species and then by
// their crop and plant item ids.
func (e *Engine) base(category, id string) (Icon, string, bool) {
	if e.Icons == nil {
		return Icon{}, "", false
	}
	species := ""
	candidates := []string{id}
	if category == CategoryPlant {
		if p, ok := e.Catalog.PlantByItem(id); ok {
			species = p.Species
			candidates = []string{p.Species, p.CropID, p.PlantID}
		}
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if icon, ok := e.Icons.Resolve(category, c); ok {
			return icon, species, true
		}
	}
	return Icon{}, species, false
}

func (e *Engine) fail(req Request, reason string, err error) {
	e.failed.Add(1)
	entry := e.log().WithFields(logrus.Fields{"category": req.Category, "id": req.ID, "reason": reason})
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Debug("sprite render failed")
}
