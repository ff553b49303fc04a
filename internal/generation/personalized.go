package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"alcyxob/plan-engine/internal/domain"
	"alcyxob/plan-engine/internal/llm"
	"alcyxob/plan-engine/internal/logger"
)

type llmGenerator struct {
	completer llm.Completer
	model     string
	breaker   *gobreaker.CircuitBreaker
	log       *logger.Logger
}

// NewPersonalized returns the tier-1 generator. After failures consecutive
// errors the breaker opens for cooldown and calls fail fast.
func NewPersonalized(completer llm.Completer, model string, failures uint32, cooldown time.Duration, log *logger.Logger) Generator {
	if failures == 0 {
		failures = 5
	}
	g := &llmGenerator{completer: completer, model: model, log: log}
	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "personalized-generation",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return g
}

func (g *llmGenerator) Generate(ctx context.Context, req Request) (*ProviderPlan, error) {
	out, err := g.breaker.Execute(func() (interface{}, error) {
		completion, err := g.completer.Complete(ctx, llm.Request{
			Model: g.model,
			Messages: []llm.Message{
				{Role: "system", Content: generationSystemPrompt},
				{Role: "user", Content: generationPrompt(req)},
			},
			Temperature: 0.7,
		})
		if err != nil {
			return nil, err
		}
		return ParsePlan(completion.Content)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationService, err)
	}
	return out.(*ProviderPlan), nil
}

const generationSystemPrompt = `Eres un nutricionista deportivo. Respondes solo con un objeto JSON con la forma
{"rutina":{"dias":[]},"dieta":{"comidas":[{"nombre":"","kcal":0,"macros":{"proteinas":0,"hidratos":0,"grasas":0},"alimentos":["40g avena - 150kcal"],"alternativas":[]}]}}.
Cada alimento lleva cantidad y kcal. No incluyas texto fuera del JSON.`

func generationPrompt(req Request) string {
	in := req.Inputs
	t := req.Targets
	var b strings.Builder
	b.WriteString("Genera una dieta diaria personalizada.\n")
	fmt.Fprintf(&b, "- Sexo: %s, edad: %d, altura: %.0f cm, peso: %.1f kg\n", in.Sex, in.Age, in.HeightCM, in.WeightKG)
	fmt.Fprintf(&b, "- Actividad: %s, experiencia: %s\n", orNone(in.ActivityLevel), orNone(in.Experience))
	fmt.Fprintf(&b, "- Objetivo nutricional: %s, objetivo de entrenamiento: %s\n", orNone(in.Goal), orNone(in.TrainingGoal))
	fmt.Fprintf(&b, "- Calorías: %d kcal (proteínas %dg, hidratos %dg, grasas %dg)\n", t.Calories, t.Macros.Protein, t.Macros.Carbs, t.Macros.Fat)
	fmt.Fprintf(&b, "- Equipamiento: %s, restricciones: %s\n", orNone(in.Equipment), orNone(in.Restrictions))
	fmt.Fprintf(&b, "- Alergias (prohibidas): %s\n", joinOrNone(in.Allergies))
	fmt.Fprintf(&b, "- Alimentos que no le gustan: %s\n", joinOrNone(req.DislikedFoods))
	fmt.Fprintf(&b, "- Lesiones: %s\n", joinOrNone(req.Injuries))
	if req.KnowledgeContext != "" {
		b.WriteString("\nReferencia:\n")
		b.WriteString(req.KnowledgeContext)
		b.WriteString("\n")
	}
	return b.String()
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "no especificado"
	}
	return s
}

func joinOrNone(s []string) string {
	if len(s) == 0 {
		return "ninguna"
	}
	return strings.Join(s, ", ")
}

func errMalformed(msg string) error {
	return fmt.Errorf("%w: malformed provider output: %s", domain.ErrGenerationService, msg)
}
