package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/pipeline"
	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store   *storage.Store
	Service *pipeline.Service
}

// NewMCPServer creates an MCP server exposing entry capture and analysis
// tools, plus the latest report as a resource.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"pie",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("pie — local analytics over daily personal entries: themes, weekly trends, anomalies, and insights."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("add_entry",
			mcp.WithDescription("Store one day of personal data (diary text, voice transcript, image caption)."),
			mcp.WithString("date", mcp.Description("Entry date as YYYY-MM-DD"), mcp.Required()),
			mcp.WithString("text", mcp.Description("Diary text for the day")),
			mcp.WithString("voice_transcript", mcp.Description("Transcript of a voice note")),
			mcp.WithString("image_caption", mcp.Description("Caption describing a photo from the day")),
			mcp.WithString("location_city", mcp.Description("City the entry was recorded in")),
		),
		mcpAddEntry(deps),
	)

	s.AddTool(
		mcp.NewTool("run_analysis",
			mcp.WithDescription("Embed pending entries and run the full analysis pipeline, producing a new report."),
		),
		mcpRunAnalysis(deps),
	)

	s.AddTool(
		mcp.NewTool("get_insights",
			mcp.WithDescription("Return the insights (weekly, overall, forecast, safety notes) from the most recent analysis run."),
		),
		mcpGetInsights(deps),
	)

	s.AddTool(
		mcp.NewTool("list_anomalies",
			mcp.WithDescription("Return the anomalous days flagged by the most recent analysis run."),
		),
		mcpListAnomalies(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"report://latest",
			"Latest Analysis Report",
			mcp.WithResourceDescription("Full report of the most recent analysis run as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceLatestReport(deps),
	)

	return s
}

func mcpAddEntry(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dateStr, err := req.RequireString("date")
		if err != nil {
			return mcpError("date is required"), nil
		}
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return mcpError(fmt.Sprintf("invalid date %q: use YYYY-MM-DD", dateStr)), nil
		}

		entry := storage.Entry{
			ID:              uuid.NewString(),
			Date:            date,
			Text:            req.GetString("text", ""),
			VoiceTranscript: req.GetString("voice_transcript", ""),
			ImageCaption:    req.GetString("image_caption", ""),
			LocationCity:    req.GetString("location_city", ""),
			CreatedAt:       time.Now().UTC(),
		}
		if entry.Text == "" && entry.VoiceTranscript == "" && entry.ImageCaption == "" {
			return mcpError("at least one of text, voice_transcript, or image_caption is required"), nil
		}

		if err := deps.Store.SaveEntries([]storage.Entry{entry}); err != nil {
			return mcpError(fmt.Sprintf("failed to save entry: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Stored entry %s for %s", entry.ID, dateStr)), nil
	}
}

func mcpRunAnalysis(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		report, run, err := deps.Service.Analyze(ctx)
		if err != nil {
			return mcpError(fmt.Sprintf("analysis failed: %v", err)), nil
		}

		summary := fmt.Sprintf("Run %s complete: %d days, %d themes, %d weeks, %d anomalies.",
			run.ID, report.DayCount, len(report.Themes), len(report.Weeks), len(report.Anomalies))
		if report.Insights.Macro != "" {
			summary += " " + report.Insights.Macro
		}
		return mcpText(summary), nil
	}
}

func mcpGetInsights(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		report, err := deps.Service.LatestReport()
		if err != nil {
			return mcpError(fmt.Sprintf("no insights available: %v", err)), nil
		}

		b, err := json.Marshal(report.Insights)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal insights: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpListAnomalies(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		report, err := deps.Service.LatestReport()
		if err != nil {
			return mcpError(fmt.Sprintf("no anomalies available: %v", err)), nil
		}

		if len(report.Anomalies) == 0 {
			return mcpText("[]"), nil
		}
		b, err := json.Marshal(report.Anomalies)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal anomalies: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceLatestReport(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		run, err := deps.Store.LatestRun()
		if err != nil {
			return nil, fmt.Errorf("no analysis runs yet: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     run.ReportJSON,
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
