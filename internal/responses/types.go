package responses

import (
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Hosted tool types.
const (
	ToolImageGeneration = "image_generation"
	ToolWebSearch       = "web_search"
)

// Output item types.
const (
	ItemMessage             = "message"
	ItemReasoning           = "reasoning"
	ItemImageGenerationCall = "image_generation_call"
	ItemWebSearchCall       = "web_search_call"
)

// Response statuses.
const (
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusIncomplete = "incomplete"
)

// Tool is a hosted tool the model may call during a response.
type Tool struct {
	Type string `json:"type"`

	// image_generation
	Quality string `json:"quality,omitempty"`
	Model   string `json:"model,omitempty"`
	Size    string `json:"size,omitempty"`

	// web_search
	SearchContextSize string `json:"search_context_size,omitempty"`
}

func ImageGenerationTool(quality, model, size string) Tool {
	return Tool{Type: ToolImageGeneration, Quality: quality, Model: model, Size: size}
}

func WebSearchTool() Tool {
	return Tool{Type: ToolWebSearch, SearchContextSize: "medium"}
}

type CreateRequest struct {
	Model        string `json:"model"`
	Instructions string `json:"instructions,omitempty"`
	Input        string `json:"input"`
	Tools        []Tool `json:"tools,omitempty"`
}

type Response struct {
	ID                string             `json:"id"`
	Status            string             `json:"status"`
	Model             string             `json:"model"`
	Output            []OutputItem       `json:"output"`
	Error             *ResponseError     `json:"error"`
	IncompleteDetails *IncompleteDetails `json:"incomplete_details"`
}

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type IncompleteDetails struct {
	Reason string `json:"reason"`
}

// OutputText returns the text of the last assistant message, which is the
// final output of a run.
func (r *Response) OutputText() string {
	for i := len(r.Output) - 1; i >= 0; i-- {
		if m := r.Output[i].Message; m != nil && m.Role == openai.ChatMessageRoleAssistant {
			return m.Text()
		}
	}
	return ""
}

// OutputItem is one entry of a response's output. Exactly one variant
// pointer is set for known types; unknown types keep only Type and Raw.
type OutputItem struct {
	Type string

	Message             *Message
	Reasoning           *Reasoning
	ImageGenerationCall *ImageGenerationCall
	WebSearchCall       *WebSearchCall

	Raw json.RawMessage
}

func (it *OutputItem) UnmarshalJSON(b []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}
	*it = OutputItem{Type: head.Type, Raw: append(json.RawMessage(nil), b...)}

	var dst any
	switch head.Type {
	case ItemMessage:
		it.Message = &Message{}
		dst = it.Message
	case ItemReasoning:
		it.Reasoning = &Reasoning{}
		dst = it.Reasoning
	case ItemImageGenerationCall:
		it.ImageGenerationCall = &ImageGenerationCall{}
		dst = it.ImageGenerationCall
	case ItemWebSearchCall:
		it.WebSearchCall = &WebSearchCall{}
		dst = it.WebSearchCall
	default:
		return nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("decode %s item: %w", head.Type, err)
	}
	return nil
}

func (it OutputItem) MarshalJSON() ([]byte, error) {
	if it.Raw != nil {
		return it.Raw, nil
	}
	return json.Marshal(map[string]string{"type": it.Type})
}

type Message struct {
	ID      string        `json:"id"`
	Role    string        `json:"role"`
	Status  string        `json:"status"`
	Content []ContentPart `json:"content"`
}

// ContentPart is an output_text or refusal part of a message.
type ContentPart struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Refusal string `json:"refusal,omitempty"`
}

func (m *Message) Text() string {
	var sb strings.Builder
	for _, p := range m.Content {
		if p.Type == "output_text" {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

type Reasoning struct {
	ID      string        `json:"id"`
	Summary []ContentPart `json:"summary"`
}

// ImageGenerationCall carries the base64 encoded image in Result.
type ImageGenerationCall struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	Result        string `json:"result"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

type WebSearchCall struct {
	ID     string           `json:"id"`
	Status string           `json:"status"`
	Action *WebSearchAction `json:"action,omitempty"`
}

type WebSearchAction struct {
	Type  string `json:"type"`
	Query string `json:"query,omitempty"`
}
