package orchestrator

import (
	"strings"

	"github.com/kingkillery/pk-code-sub001/internal/agentcore/model"
)

var fallbackKeywords = []string{"general", "assistant", "help"}

// resolveFallback scans agents for one whose keywords mention
// general/assistant/help; otherwise the first registered agent in list
// order. Returns "" if agents is empty.
func resolveFallback(agents []*model.Agent) string {
	for _, a := range agents {
		for _, k := range a.Keywords {
			lk := strings.ToLower(k)
			for _, want := range fallbackKeywords {
				if strings.Contains(lk, want) {
					return a.Name
				}
			}
		}
	}
	if len(agents) > 0 {
		return agents[0].Name
	}
	return ""
}
