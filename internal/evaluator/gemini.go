package evaluator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

const (
	DefaultGeminiModel = "gemini-2.5-pro"
	geminiAgentName    = "job evaluator"
)

// GeminiCompleter runs the evaluation through an ADK agent backed by Gemini.
// The model is built per call because the API key belongs to the caller.
type GeminiCompleter struct {
	Model string
}

func (g *GeminiCompleter) Name() string { return "gemini" }

func (g *GeminiCompleter) Complete(ctx context.Context, credential, system, user string) (string, error) {
	modelName := g.Model
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	model, err := gemini.NewModel(ctx, modelName, &genai.ClientConfig{
		APIKey: credential,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create model: %w", err)
	}

	// The instruction is kept free of braces; ADK treats {name} as a state
	// placeholder, so the schema-bearing system text travels in the message.
	evaluatorAgent, err := llmagent.New(llmagent.Config{
		Name:        geminiAgentName,
		Model:       model,
		Description: "Evaluate job opportunities against a resume",
		Instruction: "Follow the evaluation instructions in the user message and reply with a single JSON object only.",
	})
	if err != nil {
		return "", fmt.Errorf("failed to create agent: %w", err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        evaluatorAgent.Name(),
		Agent:          evaluatorAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create runner: %w", err)
	}

	agentSession, err := sessionService.Create(ctx, &session.CreateRequest{
		AppName:   evaluatorAgent.Name(),
		UserID:    "jobmatch",
		SessionID: uuid.NewString(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create agent session: %w", err)
	}
	defer sessionService.Delete(context.WithoutCancel(ctx), &session.DeleteRequest{
		AppName:   agentSession.Session.AppName(),
		UserID:    agentSession.Session.UserID(),
		SessionID: agentSession.Session.ID(),
	})

	stream := r.Run(ctx, agentSession.Session.UserID(), agentSession.Session.ID(), &genai.Content{
		Role: "user",
		Parts: []*genai.Part{
			{Text: system + "\n\n" + user},
		},
	}, agent.RunConfig{})

	var output string
	for event, err := range stream {
		if err != nil {
			return "", err
		}
		if event != nil && event.IsFinalResponse() && event.Content != nil && len(event.Content.Parts) > 0 {
			output = event.Content.Parts[0].Text
		}
	}
	if output == "" {
		return "", ErrEmptyReply
	}
	return output, nil
}
