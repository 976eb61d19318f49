package mcp

import (
	"context"
	"fitscrape/internal/store"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server exposing the stored exercise catalog as tools.
func New(db store.Store, version string) *server.MCPServer {
	s := server.NewMCPServer("fitscrape", version,
		server.WithToolCapabilities(false),
		server.WithInstructions("Exercise catalog scraped from fitnessprogramer.com. Search exercises by title, look one up, or list the exercises working a muscle."),
	)

	h := handlers{db: db}
	s.AddTools(
		server.ServerTool{Tool: toolSearchExercises, Handler: h.searchExercises},
		server.ServerTool{Tool: toolGetExercise, Handler: h.getExercise},
		server.ServerTool{Tool: toolExercisesForMuscle, Handler: h.exercisesForMuscle},
	)
	return s
}

type handlers struct {
	db store.Store
}

var toolSearchExercises = mcp.NewTool("search_exercises",
	mcp.WithDescription("Fuzzy search exercises by title. Returns the best matches first."),
	mcp.WithString("query", mcp.Required(), mcp.Description("Part or all of an exercise title, e.g. 'bench press'")),
	mcp.WithNumber("limit", mcp.Description("Maximum number of results. Defaults to 10.")),
)

var toolGetExercise = mcp.NewTool("get_exercise",
	mcp.WithDescription("Get one exercise by its exact title, including the muscles it works and their involvement percentage."),
	mcp.WithString("title", mcp.Required(), mcp.Description("Exact exercise title")),
)

var toolExercisesForMuscle = mcp.NewTool("exercises_for_muscle",
	mcp.WithDescription("List the titles of every exercise whose details page lists the given muscle."),
	mcp.WithString("muscle", mcp.Required(), mcp.Description("Muscle name as shown on the site, e.g. 'Chest'")),
)

func (h handlers) searchExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.TrimSpace(req.GetString("query", ""))
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	c, err := h.db.Load(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "mcp search_exercises", "err", err)
		return mcp.NewToolResultError("load failed: " + err.Error()), nil
	}

	matches := c.Search(query, req.GetInt("limit", 10))
	result, err := mcp.NewToolResultJSON(matches)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h handlers) getExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	if title == "" {
		return mcp.NewToolResultError("title is required"), nil
	}

	c, err := h.db.Load(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "mcp get_exercise", "err", err)
		return mcp.NewToolResultError("load failed: " + err.Error()), nil
	}
	exercise, ok := c.Get(title)
	if !ok {
		return mcp.NewToolResultError("no exercise titled " + title), nil
	}

	result, err := mcp.NewToolResultJSON(exercise)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h handlers) exercisesForMuscle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	muscle := req.GetString("muscle", "")
	if muscle == "" {
		return mcp.NewToolResultError("muscle is required"), nil
	}

	titles, err := h.db.ExercisesWorking(ctx, muscle)
	if err != nil {
		slog.ErrorContext(ctx, "mcp exercises_for_muscle", "err", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if titles == nil {
		titles = []string{}
	}

	result, err := mcp.NewToolResultJSON(titles)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
