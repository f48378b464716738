package search

import (
	"fmt"
	"strings"

	"github.com/weft-sh/weft/internal/weftd/service/splice/domain/entity"
)

// FormatResult renders an ActionResult as the plain-text tool-result turn
// injected into the continuation transcript. Failures are rendered as text
// too, so the model can acknowledge them instead of the proxy failing the
// whole request.
func FormatResult(res *entity.ActionResult) string {
	if !res.OK() {
		return fmt.Sprintf("Web search for %q failed: %s. Answer from your own knowledge and mention that live results were unavailable.", res.Query, res.Err)
	}
	if len(res.Items) == 0 {
		return fmt.Sprintf("Web search for %q returned no results.", res.Query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Web search results for %q (%.2fs):\n\n", res.Query, res.ElapsedSeconds)
	for i, item := range res.Items {
		fmt.Fprintf(&b, "%d. %s\n   %s\n", i+1, item.Title, item.URL)
		if item.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", item.Snippet)
		}
		b.WriteString("\n")
	}
	b.WriteString("Use these results to answer the user's question. Cite sources by URL where relevant.")
	return b.String()
}
