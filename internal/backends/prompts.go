package backends

import (
	"fmt"
	"strings"
)

// SystemPrompt returns the fixed classification rubric shared by every
// backend: the closed label vocabulary and the required JSON reply shape.
func SystemPrompt() string {
	var b strings.Builder

	b.WriteString("You are an expert in scholarly citation analysis. ")
	b.WriteString("Given excerpts from a research article that mention a tracked dataset, ")
	b.WriteString("determine why the article cites the dataset.\n\n")
	b.WriteString("Choose exactly one relationship type:\n")
	b.WriteString("- Uses: the article analyzes or processes data from the dataset\n")
	b.WriteString("- IsDocumentedBy: the article describes or documents the dataset itself\n")
	b.WriteString("- Reviews: the article reviews or evaluates the dataset\n")
	b.WriteString("- CitesAsEvidence: the dataset is cited as supporting evidence for a claim\n")
	b.WriteString("- Compiles: the article aggregates the dataset with others into a compilation\n")
	b.WriteString("- CitesAsDataSource: the dataset is named as a data source without analysis detail\n")
	b.WriteString("- CitesForInformation: the dataset is cited for background information\n")
	b.WriteString("- Cites: none of the above fits (generic fallback)\n\n")
	b.WriteString("Respond with a single JSON object:\n")
	b.WriteString(`{"relationship_type": "<label>", "confidence": <0.0-1.0>, "reasoning": "<one or two sentences>"}`)

	return b.String()
}

// UserPrompt renders one classification request: document metadata, the
// tracked identifier, and numbered context excerpts (or the full text in
// full-text mode).
func UserPrompt(req Request) string {
	var b strings.Builder

	b.WriteString("Article: ")
	if req.Metadata.Title != "" {
		b.WriteString(req.Metadata.Title)
	} else {
		b.WriteString("(title unknown)")
	}
	b.WriteString("\n")

	if req.Metadata.Journal != "" {
		fmt.Fprintf(&b, "Journal: %s\n", req.Metadata.Journal)
	}
	if req.Metadata.Year != 0 {
		fmt.Fprintf(&b, "Year: %d\n", req.Metadata.Year)
	}

	fmt.Fprintf(&b, "Tracked dataset: %s\n\n", req.Identifier)

	if req.Mode == ModeFullText {
		b.WriteString("Full article text:\n\n")
		b.WriteString(strings.Join(req.Contexts, "\n\n"))
	} else {
		fmt.Fprintf(&b, "The article mentions the dataset in %d excerpt(s):\n\n", len(req.Contexts))
		for i, ctx := range req.Contexts {
			fmt.Fprintf(&b, "[%d] %s\n\n", i+1, ctx)
		}
	}

	b.WriteString("Classify the citation relationship.")
	return b.String()
}
