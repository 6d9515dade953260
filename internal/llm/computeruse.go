package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/nbenliogludev/go-research-agent/internal/browser"
)

const computerSystemPrompt = `You are an autonomous research agent operating a web browser through primitive actions.

Each turn you receive a screenshot of the page (%dx%d, platform %s) plus a short history of your previous actions. You respond with exactly ONE action.

RESPONSE FORMAT (strict, a single JSON object):
{
  "thought": "brief reasoning about the current state",
  "action": {
    "type": "click" | "double_click" | "type" | "press" | "keypress" | "drag" | "scroll" | "navigate" | "move" | "wait" | "finish",
    "x": 0, "y": 0,             // click/double_click/move coordinates, scroll mouse position
    "button": "left",           // click/double_click: left, right or middle
    "text": "",                 // type: text to enter
    "delay_ms": 0,              // type: per-keystroke delay
    "key": "",                  // press: a single key, e.g. "ENTER"
    "keys": [],                 // keypress: modifier chord, e.g. ["CTRL", "a"]
    "from_x": 0, "from_y": 0,   // drag origin
    "to_x": 0, "to_y": 0,       // drag target
    "dx": 0, "dy": 0,           // scroll deltas (positive dy scrolls down)
    "url": "",                  // navigate target
    "ms": 0,                    // wait duration
    "final_answer": ""          // ONLY for "finish": your complete final answer
  }
}

RULES:
- One action per turn. Coordinates refer to the screenshot you just saw.
- Use "finish" with final_answer the moment your instructions' stop conditions are met.
- The final_answer must contain the JSON object your instructions describe.

YOUR OPERATING INSTRUCTIONS:
%s`

// decision is one turn's model output.
type decision struct {
	Thought string        `json:"thought"`
	Action  plannedAction `json:"action"`
}

type plannedAction struct {
	Type        string   `json:"type"`
	X           int      `json:"x"`
	Y           int      `json:"y"`
	Button      string   `json:"button"`
	Text        string   `json:"text"`
	DelayMs     int      `json:"delay_ms"`
	Key         string   `json:"key"`
	Keys        []string `json:"keys"`
	FromX       int      `json:"from_x"`
	FromY       int      `json:"from_y"`
	ToX         int      `json:"to_x"`
	ToY         int      `json:"to_y"`
	DX          int      `json:"dx"`
	DY          int      `json:"dy"`
	URL         string   `json:"url"`
	Ms          int      `json:"ms"`
	FinalAnswer string   `json:"final_answer"`
}

// ComputerUse is the autonomous decision-making collaborator: it observes a
// screenshot each turn, issues exactly one primitive action against the
// executor, and eventually emits one free-text final answer.
type ComputerUse struct {
	client *Client
	log    *zap.Logger
}

func NewComputerUse(client *Client, log *zap.Logger) *ComputerUse {
	return &ComputerUse{client: client, log: log}
}

// Run drives the executor for up to maxTurns screenshot-observation cycles.
// The directive is a short high-priority reminder layered over instructions.
func (a *ComputerUse) Run(ctx context.Context, instructions, directive string, exec browser.Executor, maxTurns int) (string, error) {
	width, height := exec.Dimensions()
	system := fmt.Sprintf(computerSystemPrompt, width, height, exec.Environment(), instructions)

	history := make([]string, 0, maxTurns)

	for turn := 1; turn <= maxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		shot, err := exec.Screenshot(ctx)
		if err != nil {
			// No screenshot means no observation: the loop cannot
			// continue blind.
			return "", fmt.Errorf("turn %d: %w", turn, err)
		}

		d, err := a.decide(ctx, system, directive, shot, history, turn, maxTurns)
		if err != nil {
			return "", fmt.Errorf("turn %d: %w", turn, err)
		}

		a.log.Info("agent decision",
			zap.Int("turn", turn),
			zap.String("action", d.Action.Type),
			zap.String("thought", d.Thought))

		if strings.EqualFold(d.Action.Type, "finish") {
			return d.Action.FinalAnswer, nil
		}

		if err := a.execute(ctx, exec, d.Action); err != nil {
			if errors.Is(err, browser.ErrSessionNotReady) || errors.Is(err, browser.ErrScreenshotFailed) {
				return "", err
			}
			// Driver failures are survivable: tell the model and let
			// it pick a different action next turn.
			a.log.Warn("action failed", zap.Int("turn", turn), zap.Error(err))
			history = appendHistory(history, fmt.Sprintf("turn=%d SYSTEM ERROR: %v", turn, err))
			continue
		}

		history = appendHistory(history, fmt.Sprintf("turn=%d action=%s thought=%s", turn, d.Action.Type, d.Thought))
	}

	return fmt.Sprintf("Turn budget of %d exhausted without a final answer.", maxTurns), nil
}

func (a *ComputerUse) decide(ctx context.Context, system, directive, screenshot string, history []string, turn, maxTurns int) (*decision, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n\nTURN %d of %d.\n", directive, turn, maxTurns)
	if len(history) > 0 {
		sb.WriteString("\nHISTORY:\n" + strings.Join(history, "\n") + "\n")
	}
	sb.WriteString("\nHere is the current screenshot. Choose your next action.")

	parts := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: sb.String()},
		{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL: "data:image/jpeg;base64," + screenshot,
			},
		},
	}

	resp, err := a.client.chatWithBackoff(ctx, openai.ChatCompletionRequest{
		Model: a.client.computerModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no response choices")
	}
	return parseDecision(resp.Choices[0].Message.Content)
}

// parseDecision decodes one turn's model output; content may be wrapped in
// stray backticks despite JSON mode.
func parseDecision(content string) (*decision, error) {
	var d decision
	if err := json.Unmarshal([]byte(strings.Trim(strings.TrimSpace(content), "`")), &d); err != nil {
		return nil, fmt.Errorf("decision parse error: %w | content: %s", err, content)
	}
	if d.Action.Type == "" {
		return nil, errors.New("decision has no action type")
	}
	return &d, nil
}

func (a *ComputerUse) execute(ctx context.Context, exec browser.Executor, act plannedAction) error {
	switch strings.ToLower(act.Type) {
	case "click":
		return exec.Click(ctx, act.X, act.Y, act.Button)
	case "double_click":
		return exec.DoubleClick(ctx, act.X, act.Y, act.Button)
	case "type":
		return exec.Type(ctx, act.Text, act.DelayMs)
	case "press":
		return exec.Press(ctx, act.Key)
	case "keypress":
		keys := act.Keys
		if len(keys) == 0 && act.Key != "" {
			keys = []string{act.Key}
		}
		return exec.Keypress(ctx, keys)
	case "drag":
		return exec.Drag(ctx, act.FromX, act.FromY, act.ToX, act.ToY)
	case "scroll":
		return exec.Scroll(ctx, act.X, act.Y, act.DX, act.DY)
	case "navigate":
		return exec.Navigate(ctx, act.URL)
	case "move":
		return exec.Move(ctx, act.X, act.Y)
	case "wait":
		ms := act.Ms
		if ms <= 0 {
			ms = 1000
		}
		return exec.Wait(ctx, ms)
	default:
		return fmt.Errorf("unknown action type: %s", act.Type)
	}
}

func appendHistory(history []string, line string) []string {
	history = append(history, line)
	if len(history) > 10 {
		history = history[len(history)-10:]
	}
	return history
}
