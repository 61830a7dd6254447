package vision

import "strings"

const systemPrompt = "You are a food quality inspector. Always respond with a single valid JSON object."

// BuildPrompt writes the user instruction for one bowl. vocabulary lists the
// ingredient names the model may use; reference, when non-empty, lists the
// ingredients the receipt says were ordered.
func BuildPrompt(vocabulary, reference []string) string {
	var b strings.Builder
	b.WriteString("Identify every ingredient visible in this poke bowl photo.\n")
	b.WriteString("Use only names from this list: ")
	b.WriteString(strings.Join(vocabulary, ", "))
	b.WriteString(".\n")

	if len(reference) > 0 {
		b.WriteString("The receipt for this bowl lists: ")
		b.WriteString(strings.Join(reference, ", "))
		b.WriteString(".\nMark an ingredient from_reference when it is on that list. ")
		b.WriteString("Report only what you can see; do not add receipt items that are not visible.\n")
	}

	b.WriteString(`Respond with JSON of the form:
{"detected_ingredients": [{"ingredient": "name", "confidence": 0-100, "from_reference": true|false}],
 "summary": "one or two sentences"}`)
	return b.String()
}
