package summarize

import (
	"context"
	"fmt"
	"strings"
	"sync"

	copilot "github.com/github/copilot-sdk/go"
)

// CopilotProvider implements Provider on the Copilot SDK. Each Complete call
// runs in a fresh session pinned to the requested model; the underlying
// client process is started once and stopped at Close.
type CopilotProvider struct {
	client    copilotClient
	startOnce sync.Once

	// startErr persists the one-time Start outcome so every later Complete
	// reports the real failure instead of a misleading session error.
	startErr error
}

// CopilotProviderOptions overrides construction for tests.
type CopilotProviderOptions struct {
	NewCopilotClient func(clientOptions *copilot.ClientOptions) copilotClient
}

// NewCopilotProvider creates a provider backed by the Copilot CLI.
func NewCopilotProvider(options *CopilotProviderOptions) *CopilotProvider {
	copilotOptions := &copilot.ClientOptions{
		LogLevel:  "error",
		AutoStart: copilot.Bool(false),
	}

	var client copilotClient
	if options == nil || options.NewCopilotClient == nil {
		client = newCopilotClient(copilotOptions)
	} else {
		client = options.NewCopilotClient(copilotOptions)
	}

	return &CopilotProvider{client: client}
}

// Complete sends the prompt in a single-turn session and returns the
// assistant's concatenated output.
func (p *CopilotProvider) Complete(ctx context.Context, req Request) (Response, error) {
	p.startOnce.Do(func() {
		p.startErr = p.client.Start(ctx)
	})
	if p.startErr != nil {
		return Response{}, fmt.Errorf("starting copilot client: %w", p.startErr)
	}

	session, err := p.client.CreateSession(ctx, &copilot.SessionConfig{
		Model:               req.Model,
		OnPermissionRequest: denyAllTools,
	})
	if err != nil {
		return Response{}, fmt.Errorf("creating session (model %s): %w", req.Model, err)
	}

	var parts []string
	unsubscribe := session.On(func(event copilot.SessionEvent) {
		if event.Type == copilot.AssistantMessage && event.Data.Content != nil {
			parts = append(parts, *event.Data.Content)
		}
	})
	defer unsubscribe()

	if _, err := session.SendAndWait(ctx, copilot.MessageOptions{Prompt: req.Prompt}); err != nil {
		return Response{}, fmt.Errorf("completion (model %s): %w", req.Model, err)
	}

	return Response{Text: strings.Join(parts, "\n")}, nil
}

// Close stops the underlying client process.
func (p *CopilotProvider) Close() error {
	return p.client.Stop()
}

// denyAllTools rejects tool use; summarization is extraction-only and the
// model has no business touching the workspace.
func denyAllTools(request copilot.PermissionRequest, invocation copilot.PermissionInvocation) (copilot.PermissionRequestResult, error) {
	return copilot.PermissionRequestResult{Kind: "denied"}, nil
}
