package dashboard

import (
	"fmt"
	"strings"
)

// confirmState holds the contact awaiting a delete decision.
type confirmState struct {
	id    int64
	name  string
	email string
}

// View renders the delete prompt.
func (cs confirmState) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Delete contact %d?\n", cs.id)
	fmt.Fprintf(&b, "\n  %s\n", cs.name)
	if cs.email != "" {
		fmt.Fprintf(&b, "  %s\n", dimStyle.Render(cs.email))
	}
	b.WriteString("\n  This cannot be undone.")
	b.WriteString("\n\n  [y] Yes   [n] No")
	return b.String()
}
