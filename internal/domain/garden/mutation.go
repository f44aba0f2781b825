package garden

import "strings"

const (
	MutationGold         = "Gold"
	MutationRainbow      = "Rainbow"
	MutationWet          = "Wet"
	MutationChilled      = "Chilled"
	MutationFrozen       = "Frozen"
	MutationAmbershine   = "Ambershine"
	MutationDawnlit      = "Dawnlit"
	MutationDawncharged  = "Dawncharged"
	MutationAmbercharged = "Ambercharged"
)

var mutationAliases = map[string]string{
	"gold":         MutationGold,
	"golden":       MutationGold,
	"rainbow":      MutationRainbow,
	"wet":          MutationWet,
	"chilled":      MutationChilled,
	"frozen":       MutationFrozen,
	"ambershine":   MutationAmbershine,
	"amberlit":     MutationAmbershine,
	"amber":        MutationAmbershine,
	"dawnlit":      MutationDawnlit,
	"dawn":         MutationDawnlit,
	"dawncharged":  MutationDawncharged,
	"dawnbound":    MutationDawncharged,
	"ambercharged": MutationAmbercharged,
	"amberbound":   MutationAmbercharged,
}

// NormalizeMutation maps a user or game spelling onto the canonical mutation
// name. Unknown names are returned trimmed so they still compare exactly.
func NormalizeMutation(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if canonical, ok := mutationAliases[strings.ToLower(s)]; ok {
		return canonical
	}
	return s
}

func IsKnownMutation(raw string) bool {
	_, ok := mutationAliases[strings.ToLower(strings.TrimSpace(raw))]
	return ok
}
