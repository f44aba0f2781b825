package garden

const (
	MaxSavedLayouts = 50
	UntitledLayout  = "Untitled"
)

type SavedLayout struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
	Garden    Garden `json:"garden"`
}
