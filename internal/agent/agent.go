// Package agent binds a model, instructions and hosted tools into an Agent
// and runs it to completion against the Responses API.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"k8s.io/klog/v2"

	"atlas/agents/internal/responses"
)

type Agent struct {
	Name         string
	Instructions string
	Model        string
	Tools        []responses.Tool
}

// RunConfig names the workflow a run belongs to in logs.
type RunConfig struct {
	WorkflowName string
}

// RunResult is what a completed run produced.
type RunResult struct {
	ResponseID string
	// NewItems is the item trace of the run, in order.
	NewItems []responses.OutputItem
	// FinalOutput is the text of the agent's last message.
	FinalOutput string
}

// ResponseCreator is the slice of the Responses client a Runner needs.
type ResponseCreator interface {
	Create(ctx context.Context, req responses.CreateRequest) (*responses.Response, error)
}

type Runner struct {
	client ResponseCreator
}

func NewRunner(client ResponseCreator) *Runner {
	return &Runner{client: client}
}

// Run executes the agent once with input as the user prompt. Hosted tools
// execute on the provider's side, so one response completes the run.
func (r *Runner) Run(ctx context.Context, a *Agent, input string, cfg RunConfig) (*RunResult, error) {
	if a == nil {
		return nil, errors.New("agent is nil")
	}
	start := time.Now()
	resp, err := r.client.Create(ctx, responses.CreateRequest{
		Model:        a.Model,
		Instructions: a.Instructions,
		Input:        input,
		Tools:        a.Tools,
	})
	if err != nil {
		klog.ErrorS(err, "agent run failed", "agent", a.Name, "workflow", cfg.WorkflowName, "duration", time.Since(start))
		return nil, fmt.Errorf("run agent %q: %w", a.Name, err)
	}
	if resp.Status == responses.StatusIncomplete && resp.IncompleteDetails != nil {
		klog.InfoS("agent run incomplete", "agent", a.Name, "reason", resp.IncompleteDetails.Reason)
	}
	klog.V(2).InfoS("agent run finished",
		"agent", a.Name,
		"workflow", cfg.WorkflowName,
		"response", resp.ID,
		"items", len(resp.Output),
		"duration", time.Since(start),
	)
	return &RunResult{
		ResponseID:  resp.ID,
		NewItems:    resp.Output,
		FinalOutput: resp.OutputText(),
	}, nil
}
