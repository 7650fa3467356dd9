package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/julianstephens/habitual/internal/stats"
	"github.com/julianstephens/habitual/internal/utils"
)

const (
	overviewURI = "habits://overview"
	todayURI    = "habits://today"
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         overviewURI,
		Name:        "Habit Overview",
		Description: "Totals, average 7-day completion, streak ranking and the 14-day trend",
		MIMEType:    "application/json",
	}, s.handleOverviewResource)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         todayURI,
		Name:        "Today's Habits",
		Description: "Every habit with its completion state for today",
		MIMEType:    "application/json",
	}, s.handleTodayResource)
}

type overviewResource struct {
	stats.Overview
	Trend []stats.DayCount `json:"trend"`
}

type todayHabit struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

type todayResource struct {
	Date      string       `json:"date"`
	Completed int          `json:"completed"`
	Total     int          `json:"total"`
	Habits    []todayHabit `json:"habits"`
}

func (s *Server) handleOverviewResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return jsonResource(overviewURI, overviewResource{
		Overview: s.engine.Overview(),
		Trend:    s.engine.Trend(0),
	})
}

func (s *Server) handleTodayResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	status := s.engine.TodayStatus()
	out := todayResource{
		Date:   utils.DayKey(s.engine.Today()),
		Habits: []todayHabit{},
	}
	for _, h := range s.engine.Habits() {
		done := status[h.ID]
		if done {
			out.Completed++
		}
		out.Habits = append(out.Habits, todayHabit{ID: h.ID, Name: h.Name, Completed: done})
	}
	out.Total = len(out.Habits)
	return jsonResource(todayURI, out)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
