package extraction

import (
	"strings"

	"github.com/agenthands/infoase/internal/core/parser"
)

const systemRules = `You are a data scientist working for a company that is building a graph database.
Your task is to extract information from data and convert it into a graph database.
Some rules when creating the graph:
1. The graph, nodes and relationships you create are in the same language as the human input.
2. Only extract information that is explicitly mentioned in the input.
3. If you can't pair a relationship with a pair of nodes don't add it.
4. Only answer with the output schema, skip any other remarks or comments.`

// Example is one few-shot exchange.
type Example struct {
	Input  string
	Output string
}

// Prompt renders the extraction request as one text completion prompt.
type Prompt struct {
	System   string
	Examples []Example
}

// DefaultPrompt carries the built-in rules, the output notation and two
// worked examples.
func DefaultPrompt() Prompt {
	return NewPrompt(systemRules)
}

// NewPrompt uses rules in place of the built-in rules. The format
// instructions and the examples are always included.
func NewPrompt(rules string) Prompt {
	return Prompt{
		System:   strings.TrimSpace(rules) + "\n\n" + parser.FormatInstructions(),
		Examples: defaultExamples(),
	}
}

func (p Prompt) Render(input string) string {
	var sb strings.Builder
	sb.WriteString("System: ")
	sb.WriteString(p.System)
	for _, ex := range p.Examples {
		sb.WriteString("\nHuman: ")
		sb.WriteString(ex.Input)
		sb.WriteString("\nAI: ")
		sb.WriteString(ex.Output)
	}
	sb.WriteString("\nHuman: ")
	sb.WriteString(input)
	return sb.String()
}

// InputWithLabels frames a chunk together with the node types seen so far.
func InputWithLabels(data string, labels []string) string {
	return "\nData: " + data + "\nTypes: " + pyList(labels)
}

func exampleOutput(labels []string, nodes, relationships string) string {
	return "\n    Types: " + pyList(labels) +
		"\n    Nodes: " + nodes +
		"\n    Relationships: " + relationships +
		"\n    "
}

func pyList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func defaultExamples() []Example {
	return []Example{
		{
			Input: InputWithLabels(
				"Alice is advocaat en 25 jaar oud en Bob is haar huisgenoot sinds 2001. Bob werkt als journalist. Alice is eigenaar van de webpagina www.alice.com en Bob is eigenaar van de webpagina www.bob.nl.",
				[]string{"Persoon", "Webpagina"},
			),
			Output: exampleOutput(
				[]string{"Persoon", "Webpagina"},
				`[['alice', 'Persoon', {'leeftijd': 25, 'beroep': 'advocaat', 'naam': 'Alice'}], ['bob', 'Persoon', {'beroep': 'journalist', 'naam': 'Bob'}], ['alice.com', 'Webpagina', {'url': 'www.alice.com'}], ['bob.com', 'Webpagina', {'url': 'www.bob.nl'}]]`,
				`[['alice', 'woont_samen_met', 'bob', {'start': '2021'}], ['alice', 'eigenaar_van', 'alice.com', {}], ['bob', 'eigenaar_van', 'bob.com', {}]]`,
			),
		},
		{
			Input: InputWithLabels(
				"Steve Jobs heeft mede-oprichter van Apple. Hij is 38 jaar oud en rijdt een Tesla Model 3 en werkt als producteigenaar en datawetenschapper.",
				nil,
			),
			Output: exampleOutput(
				[]string{"Persoon", "Bedrijf", "Voertuig"},
				`[['steve_jobs', 'Persoon', {'age': '38', 'name': 'Steve Jobs', 'occupation': 'producteigenaar, datawetenschapper'}], ['apple', 'Bedrijf', {'name': 'Apple'}], ['tesla_model_3', 'Voertuig', {'model': 'Tesla Model 3'}]]`,
				`[['steve_jobs', 'mede-oprichter', 'apple', {}], ['steve_jobs', 'rijdt', 'tesla_model_3', {}]]`,
			),
		},
	}
}
