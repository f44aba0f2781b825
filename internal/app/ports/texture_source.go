package ports

import "image"

// TextureSource is a read-only snapshot of the game's texture atlas.
type TextureSource interface {
	Keys() []string
	Texture(key string) (image.Image, bool)
}
