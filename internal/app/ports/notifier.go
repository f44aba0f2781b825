package ports

import "context"

type NoticeKind string

const (
	NoticeInventoryFull NoticeKind = "inventory_full"
	NoticeBlocked       NoticeKind = "blocked"
	NoticeMissing       NoticeKind = "missing_items"
	NoticeFallback      NoticeKind = "local_fallback"
)

type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

type Notifier interface {
	Notify(ctx context.Context, notice Notice)
}
