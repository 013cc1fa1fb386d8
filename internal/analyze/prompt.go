package analyze

import "strings"

// DefaultPromptTemplate asks for a hierarchical glossary. Templates use
// {schema_summary} as the placeholder and {{ / }} for literal braces.
const DefaultPromptTemplate = `Analyze this database schema and create a comprehensive business glossary in JSON format.
    
Schema: {schema_summary}

Create a hierarchical glossary that organizes business terms by categories. Use this exact JSON structure:

{{
  "Business Glossary": [
    {{
      "Customer & Demographics": [
        "Customer",
        "Customer Segment", 
        "Demographics",
        {{
          "Customer Lifecycle": [
            "Customer Acquisition",
            "Customer Retention"
          ]
        }}
      ]
    }},
    {{
      "Campaign & Marketing": [
        "Campaign",
        "Channel",
        "Campaign Performance"
      ]
    }}
  ]
}}

Rules:
1. Organize terms into logical business categories
2. Use array items for simple terms 
3. Use objects with arrays for subcategories
4. Include terms that business users would understand
5. Focus on business concepts, not technical database details
6. Return ONLY valid JSON, no explanations or markdown`

// RetrySuffix is appended to the prompt after a response that did not parse.
const RetrySuffix = " Please ensure your response is valid JSON only, without any markdown formatting or extra text."

const placeholder = "{schema_summary}"

// BuildPrompt renders tmpl with summary. An empty tmpl selects
// DefaultPromptTemplate. Braces other than the placeholder and the doubled
// escapes are copied unchanged.
func BuildPrompt(tmpl, summary string) string {
	if tmpl == "" {
		tmpl = DefaultPromptTemplate
	}
	var b strings.Builder
	b.Grow(len(tmpl) + len(summary))
	for i := 0; i < len(tmpl); {
		switch {
		case strings.HasPrefix(tmpl[i:], "{{"):
			b.WriteByte('{')
			i += 2
		case strings.HasPrefix(tmpl[i:], "}}"):
			b.WriteByte('}')
			i += 2
		case strings.HasPrefix(tmpl[i:], placeholder):
			b.WriteString(summary)
			i += len(placeholder)
		default:
			b.WriteByte(tmpl[i])
			i++
		}
	}
	return b.String()
}
