// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes food logging tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/nutrilog/internal/foodlog"
	"github.com/starford/nutrilog/internal/intake"
	"github.com/starford/nutrilog/internal/models"
	"github.com/starford/nutrilog/internal/nutrition"
)

// Server wraps the MCP server with food logging tools.
type Server struct {
	mcp *server.MCPServer
	svc *foodlog.Service
	now func() time.Time
}

// New creates a new MCP server with all food logging tools registered.
func New(svc *foodlog.Service) *Server {
	s := &Server{svc: svc, now: time.Now}

	s.mcp = server.NewMCPServer(
		"Nutrilog",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_foods",
		mcp.WithDescription("Search the food catalog by name or category."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search terms, e.g. \"brown rice\"")),
	), s.searchFoods)

	s.mcp.AddTool(mcp.NewTool("popular_foods",
		mcp.WithDescription("List the most frequently logged catalog foods."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of foods (default 10)")),
	), s.popularFoods)

	s.mcp.AddTool(mcp.NewTool("get_food",
		mcp.WithDescription("Read one catalog food with its servings and per-100g nutrition."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Catalog food id")),
	), s.getFood)

	s.mcp.AddTool(mcp.NewTool("get_daily_log",
		mcp.WithDescription("Read the food log of a day: entries per meal slot and the day total."),
		mcp.WithString("date", mcp.Description("Day as YYYY-MM-DD (default today)")),
	), s.getDailyLog)

	s.mcp.AddTool(mcp.NewTool("log_catalog_food",
		mcp.WithDescription("Log a catalog food. Read the logging guide first via "+
			"get_logging_guide or the nutrilog://logging-guide resource."),
		mcp.WithString("food_id", mcp.Required(), mcp.Description("Catalog food id")),
		mcp.WithString("meal_slot", mcp.Required(), mcp.Description("breakfast, lunch, dinner or snack")),
		mcp.WithString("date", mcp.Description("Day as YYYY-MM-DD (default today)")),
		mcp.WithNumber("serving_index", mcp.Description("0 = default serving, n = alternative portion n, -1 = custom grams")),
		mcp.WithNumber("quantity", mcp.Description("Servings, in steps of 0.5 (default 1)")),
		mcp.WithString("grams", mcp.Description("Custom grams; used when serving_index is -1")),
	), s.logCatalogFood)

	s.mcp.AddTool(mcp.NewTool("add_food_to_meal",
		mcp.WithDescription("Log grams × quantity of a catalog food into a meal slot."),
		mcp.WithString("food_id", mcp.Required(), mcp.Description("Catalog food id")),
		mcp.WithString("meal_slot", mcp.Required(), mcp.Description("breakfast, lunch, dinner or snack")),
		mcp.WithNumber("grams", mcp.Required(), mcp.Description("Grams per unit")),
		mcp.WithNumber("quantity", mcp.Description("Units (default 1)")),
		mcp.WithString("date", mcp.Description("Day as YYYY-MM-DD (default today)")),
	), s.addFoodToMeal)

	s.mcp.AddTool(mcp.NewTool("quick_add",
		mcp.WithDescription("Log a bare calorie number as a 100 g entry."),
		mcp.WithNumber("calories", mcp.Required(), mcp.Description("Calories")),
		mcp.WithString("meal_slot", mcp.Required(), mcp.Description("breakfast, lunch, dinner or snack")),
		mcp.WithString("name", mcp.Description("Optional entry name")),
		mcp.WithString("date", mcp.Description("Day as YYYY-MM-DD (default today)")),
	), s.quickAdd)

	s.mcp.AddTool(mcp.NewTool("log_custom_food",
		mcp.WithDescription("Log a food that is not in the catalog. Values are totals for the given grams."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Food name")),
		mcp.WithNumber("grams", mcp.Required(), mcp.Description("Amount eaten in grams")),
		mcp.WithNumber("calories", mcp.Required(), mcp.Description("Total calories")),
		mcp.WithNumber("protein", mcp.Description("Total protein (g)")),
		mcp.WithNumber("carbohydrates", mcp.Description("Total carbohydrates (g)")),
		mcp.WithNumber("fat", mcp.Description("Total fat (g)")),
		mcp.WithString("meal_slot", mcp.Required(), mcp.Description("breakfast, lunch, dinner or snack")),
		mcp.WithString("date", mcp.Description("Day as YYYY-MM-DD (default today)")),
	), s.logCustomFood)

	s.mcp.AddTool(mcp.NewTool("remove_entry",
		mcp.WithDescription("Remove the entry at a position within a meal slot."),
		mcp.WithString("meal_slot", mcp.Required(), mcp.Description("breakfast, lunch, dinner or snack")),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based position within the slot")),
		mcp.WithString("date", mcp.Description("Day as YYYY-MM-DD (default today)")),
		mcp.WithString("revision", mcp.Description("Revision from get_daily_log; rejects the removal if the log changed")),
	), s.removeEntry)

	s.mcp.AddTool(mcp.NewTool("recognize_photo",
		mcp.WithDescription("Start photo recognition of a meal picture. Accepts an http(s) URL or a "+
			"base64 data URI (png, jpg, webp, heic). Poll get_recognition, then accept_recognition."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Image URL or data URI")),
	), s.recognizePhoto)

	s.mcp.AddTool(mcp.NewTool("get_recognition",
		mcp.WithDescription("Read the state of a recognition attempt."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Attempt id")),
	), s.getRecognition)

	s.mcp.AddTool(mcp.NewTool("accept_recognition",
		mcp.WithDescription("Log the result of a finished recognition attempt."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Attempt id")),
		mcp.WithString("meal_slot", mcp.Required(), mcp.Description("breakfast, lunch, dinner or snack")),
		mcp.WithString("date", mcp.Description("Day as YYYY-MM-DD (default today)")),
	), s.acceptRecognition)

	s.mcp.AddTool(mcp.NewTool("achievements",
		mcp.WithDescription("Logging counters, streaks and unlocked badges."),
	), s.achievements)

	s.mcp.AddTool(mcp.NewTool("get_logging_guide",
		mcp.WithDescription("Returns the food logging guide. "+
			"Call this before logging to pick the right tool and serving."),
	), s.getLoggingGuide)

	// Resource: logging guide.
	s.mcp.AddResource(
		mcp.NewResource(guideURI, "Food Logging Guide",
			mcp.WithResourceDescription("How meal slots, dates, servings and intake tools work."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLoggingGuideResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// target reads the optional date and the required meal slot.
func (s *Server) target(req mcp.CallToolRequest) (string, models.MealSlot, error) {
	raw, err := req.RequireString("meal_slot")
	if err != nil {
		return "", "", err
	}
	slot, err := models.ParseSlot(raw)
	if err != nil {
		return "", "", err
	}
	return s.date(req), slot, nil
}

func (s *Server) date(req mcp.CallToolRequest) string {
	return req.GetString("date", s.now().Format(models.DateLayout))
}

func (s *Server) searchFoods(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.SearchFoods(query))
}

func (s *Server) popularFoods(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}
	return jsonResult(s.svc.PopularFoods(limit))
}

func (s *Server) getFood(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	food, err := s.svc.GetFood(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return jsonResult(food)
}

func (s *Server) getDailyLog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	day, err := s.svc.GetDailyLog(ctx, s.date(req))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(day)
}

func (s *Server) logCatalogFood(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	foodID, err := req.RequireString("food_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, slot, err := s.target(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sel := nutrition.ServingSelection{
		Index:       req.GetInt("serving_index", 0),
		Quantity:    req.GetFloat("quantity", 0),
		ManualGrams: req.GetString("grams", ""),
	}
	entry, err := s.svc.LogCatalogFood(ctx, date, slot, foodID, sel)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(entry)
}

func (s *Server) addFoodToMeal(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	foodID, err := req.RequireString("food_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	grams, err := req.RequireFloat("grams")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, slot, err := s.target(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	food, err := s.svc.GetFood(foodID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", foodID)), nil
	}
	entry, err := s.svc.AddFoodToMeal(ctx, date, slot, food, grams, req.GetFloat("quantity", 1))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(entry)
}

func (s *Server) quickAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	calories, err := req.RequireFloat("calories")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, slot, err := s.target(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	src := intake.QuickInput{Name: req.GetString("name", ""), Calories: &calories}
	entry, err := s.svc.Log(ctx, date, slot, src)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(entry)
}

func (s *Server) logCustomFood(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	grams, err := req.RequireFloat("grams")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	calories, err := req.RequireFloat("calories")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, slot, err := s.target(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	src := intake.CustomInput{
		Name:          name,
		Grams:         grams,
		Calories:      &calories,
		Protein:       req.GetFloat("protein", 0),
		Carbohydrates: req.GetFloat("carbohydrates", 0),
		Fat:           req.GetFloat("fat", 0),
	}
	entry, err := s.svc.Log(ctx, date, slot, src)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(entry)
}

func (s *Server) removeEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	index, err := req.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, slot, err := s.target(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	removed, err := s.svc.RemoveFoodFromMeal(ctx, date, slot, index, req.GetString("revision", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("removed: %s", removed.Food.Name)), nil
}

func (s *Server) getRecognition(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap, err := s.svc.Recognition(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(snap)
}

func (s *Server) acceptRecognition(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, slot, err := s.target(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entry, err := s.svc.AcceptRecognition(ctx, id, date, slot, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(entry)
}

func (s *Server) achievements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Achievements())
}

func (s *Server) getLoggingGuide(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(LoggingGuide), nil
}

func (s *Server) readLoggingGuideResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      guideURI,
			MIMEType: "text/markdown",
			Text:     LoggingGuide,
		},
	}, nil
}
