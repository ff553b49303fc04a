// Package classifier maps a free-text request onto one catalog operation.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"alcyxob/plan-engine/internal/catalog"
	"alcyxob/plan-engine/internal/domain"
	"alcyxob/plan-engine/internal/llm"
	"alcyxob/plan-engine/internal/logger"
)

// DefaultContextTurns bounds how much conversation is sent per request.
const DefaultContextTurns = 10

// Turn is one message of the recent conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Summary describes the current plan for the prompt.
type Summary struct {
	Sex       string
	Exercises int
	Meals     int
	TotalKcal int
	Goal      string
	Injuries  int
	Allergies []string
}

type Request struct {
	Message          string
	RecentContext    []Turn
	Summary          Summary
	KnowledgeContext string
}

// Result is the classification. An empty Operation means no operation matched;
// Reply then carries the model's text answer, if any.
type Result struct {
	Operation string         `json:"operation"`
	Arguments map[string]any `json:"arguments"`
	Reply     string         `json:"-"`
}

// Matched reports whether an operation was selected.
func (r *Result) Matched() bool { return r != nil && r.Operation != "" }

type Classifier interface {
	Classify(ctx context.Context, req Request) (*Result, error)
}

type llmClassifier struct {
	completer llm.Completer
	catalog   *catalog.Catalog
	model     string
	timeout   time.Duration
	turns     int
	log       *logger.Logger
}

// New returns a Classifier backed by a function-calling chat model.
func New(completer llm.Completer, cat *catalog.Catalog, model string, timeout time.Duration, turns int, log *logger.Logger) Classifier {
	if turns <= 0 {
		turns = DefaultContextTurns
	}
	return &llmClassifier{completer: completer, catalog: cat, model: model, timeout: timeout, turns: turns, log: log}
}

func (c *llmClassifier) Classify(ctx context.Context, req Request) (*Result, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	completion, err := c.completer.Complete(ctx, llm.Request{
		Model:       c.model,
		Messages:    c.messages(req),
		Tools:       c.tools(),
		Temperature: 0,
	})
	if err != nil {
		c.log.Warn("classification failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrClassificationUnavailable, err)
	}
	if len(completion.ToolCalls) == 0 {
		return &Result{Reply: strings.TrimSpace(completion.Content)}, nil
	}

	call := completion.ToolCalls[0]
	if _, ok := c.catalog.Lookup(call.Name); !ok {
		c.log.Warn("classifier returned unknown operation", "operation", call.Name)
		return nil, fmt.Errorf("%w: unknown operation %q", domain.ErrClassificationUnavailable, call.Name)
	}
	args := map[string]any{}
	if s := strings.TrimSpace(call.Arguments); s != "" {
		if err := json.Unmarshal([]byte(s), &args); err != nil {
			c.log.Warn("classifier returned malformed arguments", "operation", call.Name, "error", err)
			return nil, fmt.Errorf("%w: malformed arguments: %v", domain.ErrClassificationUnavailable, err)
		}
	}
	return &Result{Operation: call.Name, Arguments: args}, nil
}

func (c *llmClassifier) tools() []llm.Tool {
	defs := c.catalog.Definitions()
	tools := make([]llm.Tool, 0, len(defs))
	for _, d := range defs {
		tools = append(tools, llm.Tool{Name: d.Name, Description: d.Description, Parameters: d.JSONSchema()})
	}
	return tools
}

func (c *llmClassifier) messages(req Request) []llm.Message {
	msgs := []llm.Message{{Role: "system", Content: systemPrompt(req.Summary, c.catalog)}}
	if req.KnowledgeContext != "" {
		msgs = append(msgs, llm.Message{Role: "system", Content: "Información de referencia:\n" + req.KnowledgeContext})
	}
	recent := req.RecentContext
	if len(recent) > c.turns {
		recent = recent[len(recent)-c.turns:]
	}
	for _, t := range recent {
		role := "user"
		if t.Role == "assistant" {
			role = "assistant"
		}
		msgs = append(msgs, llm.Message{Role: role, Content: t.Content})
	}
	return append(msgs, llm.Message{Role: "user", Content: req.Message})
}

func systemPrompt(s Summary, cat *catalog.Catalog) string {
	allergies := "ninguna"
	if len(s.Allergies) > 0 {
		allergies = strings.Join(s.Allergies, ", ")
	}
	goal := s.Goal
	if goal == "" {
		goal = "mantenimiento"
	}
	sex := s.Sex
	if sex == "" {
		sex = "no especificado"
	}

	var b strings.Builder
	b.WriteString("Eres un entrenador personal que modifica rutinas y dietas a partir de lo que pide el usuario.\n\n")
	b.WriteString("CONTEXTO DEL USUARIO:\n")
	fmt.Fprintf(&b, "- Sexo: %s\n", sex)
	fmt.Fprintf(&b, "- Rutina: %d ejercicios\n", s.Exercises)
	fmt.Fprintf(&b, "- Dieta: %d comidas, %d kcal\n", s.Meals, s.TotalKcal)
	fmt.Fprintf(&b, "- Objetivo: %s\n", goal)
	fmt.Fprintf(&b, "- Lesiones: %d\n", s.Injuries)
	fmt.Fprintf(&b, "- Alergias: %s\n\n", allergies)
	fmt.Fprintf(&b, "OPERACIONES: %s\n\n", strings.Join(cat.Names(), ", "))
	b.WriteString("REGLAS:\n")
	fmt.Fprintf(&b, "- Cambio de peso (\"subí 2 kilos\", \"bajé 1 kg\"): recalculate_diet_macros con weight_change_kg y goal=%q.\n", goal)
	b.WriteString("- Cambio de objetivo: recalculate_diet_macros con weight_change_kg=0 y el nuevo goal.\n")
	b.WriteString("- Ajuste calórico absoluto (\"quiero un déficit de 500\"): calorie_adjustment=-500, is_incremental=false.\n")
	b.WriteString("- Ajuste calórico incremental (\"añade 100 kcal más al déficit\"): calorie_adjustment=-100, is_incremental=true.\n")
	b.WriteString("- Si no está claro si el ajuste es absoluto o incremental (\"sube el superávit a 400\"), omite is_incremental.\n")
	b.WriteString("- Sinónimos: pectoral = pecho, cuádriceps = piernas, deltoides = hombros, dorsales = espalda, bíceps/tríceps = brazos.\n")
	b.WriteString("- Si la petición no encaja con ninguna operación, responde sin llamar a ninguna función.\n")
	return b.String()
}
