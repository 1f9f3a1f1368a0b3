/*
assistant.go - Gemini-backed conversational query assistant

PURPOSE:
  Answers free-text questions about the transaction data by binding the
  statistics tools and a static schema description to a Gemini model
  via function calling. One message in, one text response out; a
  bounded rolling history of the last few exchanges gives the model
  short-term context.

FLOW:
  1. Client question arrives via Ask.
  2. Model is called with history + question + tool declarations.
  3. While the model requests tool calls, each is dispatched to the
     ToolSet and its display string returned as a function response.
  4. The final text answer is recorded in history and returned.

CONFIGURATION:
  GEMINI_API_KEY is read from the environment by the genai client.
  The model name is configurable; gemini-2.5-flash by default.

SEE ALSO:
  - tools.go: tool dispatch and error boundary
  - api/handlers.go: /api/chat relay
*/
package assistant

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// historyExchanges bounds the rolling history to this many
// question/answer pairs.
const historyExchanges = 3

// maxToolRounds bounds the tool-calling loop for a single question.
const maxToolRounds = 8

// schemaDescription is the static description of the store handed to
// the model as system context.
const schemaDescription = `The database is SQLite and the table is called insurance_transactions.
Columns and their datatypes:
  "Transaction Date" TEXT, "Policy No" TEXT, "Trans Type" TEXT,
  "Branch" TEXT, "Class" TEXT, "Dr/Cr No" TEXT, "Risk ID" TEXT,
  "Insured" TEXT, "Intermediary Type" TEXT, "Intermediary" TEXT,
  "Marketer" TEXT, "WEF" TEXT, "WET" TEXT, "CURRENCY" TEXT,
  "Sum Insured" REAL, "Premium" REAL, "PAID" REAL,
  "Year" INTEGER, "Month Name" TEXT, "Month" INTEGER,
  "Quarter" INTEGER, "Weeks" INTEGER`

var systemInstructions = schemaDescription + `

You are a data analyst and an insurance service assistant.
Use the provided tools for any in-depth analysis.
Answer like a customer service agent and an analyst; keep answers simple and short.
Provide a summary and suggestions when useful.
For questions out of context, ask the user to review their question.
When asked for intermediary rankings, exclude DIRECT.
The currency is GH₵.`

// Agent is the conversational assistant. Safe for concurrent use; the
// rolling history is guarded by a mutex.
type Agent struct {
	client *genai.Client
	tools  *ToolSet
	model  string
	log    zerolog.Logger

	mu      sync.Mutex
	history []*genai.Content
}

// NewAgent creates an assistant bound to the given tool set. The genai
// client reads GEMINI_API_KEY from the environment.
func NewAgent(ctx context.Context, tools *ToolSet, model string, log zerolog.Logger) (*Agent, error) {
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Agent{client: client, tools: tools, model: model, log: log}, nil
}

// toolDeclarations describes the three statistics tools to the model.
func toolDeclarations() []*genai.Tool {
	tableColumn := map[string]*genai.Schema{
		"table_name": {
			Type:        genai.TypeString,
			Description: "Name of the table to analyze",
		},
		"column_name": {
			Type:        genai.TypeString,
			Description: "Name of the column to analyze",
		},
	}

	distProps := map[string]*genai.Schema{
		"table_name":  tableColumn["table_name"],
		"column_name": tableColumn["column_name"],
		"bins": {
			Type:        genai.TypeInteger,
			Description: "Number of histogram bins (default 10)",
		},
	}

	return []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        ToolColumnStats,
				Description: "Calculate mean, standard deviation, min, max and median for a numeric column.",
				Parameters: &genai.Schema{
					Type:       genai.TypeObject,
					Properties: tableColumn,
					Required:   []string{"table_name", "column_name"},
				},
			},
			{
				Name:        ToolDistribution,
				Description: "Show the distribution of a numeric column as a text histogram.",
				Parameters: &genai.Schema{
					Type:       genai.TypeObject,
					Properties: distProps,
					Required:   []string{"table_name", "column_name"},
				},
			},
			{
				Name:        ToolColumnProfile,
				Description: "Profile any column: row counts, distinct values, nulls, uniqueness and top values.",
				Parameters: &genai.Schema{
					Type:       genai.TypeObject,
					Properties: tableColumn,
					Required:   []string{"table_name", "column_name"},
				},
			},
		},
	}}
}

// Ask answers a single free-text question. Errors cover model/transport
// failures only; tool failures come back to the model as error payloads
// and never surface here.
func (a *Agent) Ask(ctx context.Context, message string) (string, error) {
	a.mu.Lock()
	contents := append(append([]*genai.Content{}, a.history...),
		genai.NewContentFromText(message, genai.RoleUser))
	a.mu.Unlock()

	config := &genai.GenerateContentConfig{
		Tools:             toolDeclarations(),
		SystemInstruction: genai.NewContentFromText(systemInstructions, genai.RoleUser),
	}

	for round := 0; round < maxToolRounds; round++ {
		resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, config)
		if err != nil {
			return "", fmt.Errorf("generate content: %w", err)
		}

		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			answer := resp.Text()
			if answer == "" {
				return "", fmt.Errorf("empty response from model")
			}
			a.remember(message, answer)
			return answer, nil
		}

		if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
			contents = append(contents, resp.Candidates[0].Content)
		}

		parts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			a.log.Debug().Str("tool", call.Name).Interface("args", call.Args).
				Msg("assistant tool call")
			result := a.dispatch(ctx, call)
			parts = append(parts, genai.NewPartFromFunctionResponse(call.Name,
				map[string]any{"result": result}))
		}
		contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
	}

	return "", fmt.Errorf("tool call limit exceeded")
}

// dispatch routes one model tool call to the ToolSet.
func (a *Agent) dispatch(ctx context.Context, call *genai.FunctionCall) string {
	table := stringArg(call.Args, "table_name")
	column := stringArg(call.Args, "column_name")

	switch call.Name {
	case ToolColumnStats:
		return a.tools.CalculateColumnStats(ctx, table, column)
	case ToolDistribution:
		return a.tools.ShowNumericDistribution(ctx, table, column, intArg(call.Args, "bins"))
	case ToolColumnProfile:
		return a.tools.QuickColumnProfile(ctx, table, column)
	default:
		return fmt.Sprintf(`{"error": "unknown tool %q"}`, call.Name)
	}
}

// remember appends an exchange to the rolling history and trims it to
// the configured bound.
func (a *Agent) remember(question, answer string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.history = append(a.history,
		genai.NewContentFromText(question, genai.RoleUser),
		genai.NewContentFromText(answer, genai.RoleModel),
	)
	if limit := historyExchanges * 2; len(a.history) > limit {
		a.history = a.history[len(a.history)-limit:]
	}
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
