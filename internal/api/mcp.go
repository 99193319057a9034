package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/prepvox/prepvox/internal/prep"
	"github.com/prepvox/prepvox/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store   *storage.Store
	Planner *prep.Planner
	// Defaults applied when the tool call omits counts or difficulty.
	Technical  int
	Behavioral int
	Difficulty string
}

// NewMCPServer creates an MCP server exposing question generation and session
// feedback lookup as tools for agent integration.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"prepvox",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("prepvox — local mock-interview rehearsal: tailored question generation and per-session feedback."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("generate_questions",
			mcp.WithDescription("Generate tailored interview questions from a job description and resume using the local model."),
			mcp.WithString("job_description", mcp.Description("Full job description text"), mcp.Required()),
			mcp.WithString("resume", mcp.Description("Full resume text"), mcp.Required()),
			mcp.WithNumber("technical", mcp.Description("Number of technical questions")),
			mcp.WithNumber("behavioral", mcp.Description("Number of behavioral questions")),
			mcp.WithString("difficulty", mcp.Description("Target difficulty: mixed, easy, medium, or hard")),
		),
		mcpGenerateQuestions(deps),
	)

	s.AddTool(
		mcp.NewTool("list_sessions",
			mcp.WithDescription("List recent finalized interview sessions with their overall scores."),
			mcp.WithNumber("limit", mcp.Description("Maximum number of sessions (default 10)")),
		),
		mcpListSessions(deps),
	)

	s.AddTool(
		mcp.NewTool("get_session_feedback",
			mcp.WithDescription("Fetch the aggregated feedback summary of a finalized interview session."),
			mcp.WithString("session_id", mcp.Description("Session identifier"), mcp.Required()),
		),
		mcpGetSessionFeedback(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"sessions://recent",
			"Recent Sessions",
			mcp.WithResourceDescription("Last 10 finalized interview sessions (summaries only)"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRecentSessions(deps),
	)

	return s
}

func mcpGenerateQuestions(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jd, err := req.RequireString("job_description")
		if err != nil {
			return mcpError("job_description is required"), nil
		}
		resume, err := req.RequireString("resume")
		if err != nil {
			return mcpError("resume is required"), nil
		}

		opts := prep.Options{
			Technical:  req.GetInt("technical", deps.Technical),
			Behavioral: req.GetInt("behavioral", deps.Behavioral),
			Difficulty: req.GetString("difficulty", deps.Difficulty),
		}

		plan, err := deps.Planner.Build(ctx, jd, resume, opts)
		if err != nil {
			return mcpError(fmt.Sprintf("question generation failed: %v", err)), nil
		}

		b, err := json.Marshal(plan.Questions)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal questions: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpListSessions(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", 10)
		if limit <= 0 {
			limit = 10
		}
		if limit > 50 {
			limit = 50
		}

		sessions, err := deps.Store.ListSessions(limit)
		if err != nil {
			return mcpError(fmt.Sprintf("listing sessions failed: %v", err)), nil
		}
		if len(sessions) == 0 {
			return mcpText("[]"), nil
		}

		b, err := json.Marshal(sessions)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal sessions: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpGetSessionFeedback(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}

		sess, err := deps.Store.GetSession(id)
		if err != nil {
			return mcpError(fmt.Sprintf("session %s not found", id)), nil
		}
		if sess.Feedback == nil {
			return mcpError(fmt.Sprintf("session %s has no aggregated feedback", id)), nil
		}

		b, err := json.Marshal(sess.Feedback)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal feedback: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceRecentSessions(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		sessions, err := deps.Store.ListSessions(10)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}

		type sessionView struct {
			ID           string  `json:"id"`
			Role         string  `json:"role"`
			CreatedAt    string  `json:"created_at"`
			Questions    int     `json:"questions"`
			OverallScore float64 `json:"overall_score"`
		}

		views := make([]sessionView, len(sessions))
		for i, s := range sessions {
			views[i] = sessionView{
				ID:           s.ID,
				Role:         s.Role,
				CreatedAt:    s.CreatedAt.Format(time.RFC3339),
				Questions:    s.TotalQuestions,
				OverallScore: s.OverallScore,
			}
		}

		b, err := json.Marshal(views)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal sessions: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
