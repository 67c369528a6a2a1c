// ABOUTME: Handler for commands sent from the game mod
// ABOUTME: Recognizes location commands, everything else goes to the assistant

package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/craftbench/craftchat/internal/store"
)

// Coordinates is a player position within a dimension.
type Coordinates struct {
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Z         int    `json:"z"`
	Dimension string `json:"dimension,omitempty"`
}

// CommandRequest is the JSON request body for POST /game/command.
type CommandRequest struct {
	Prompt            string       `json:"prompt"`
	PlayerCoordinates *Coordinates `json:"player_coordinates,omitempty"`
}

// CommandResponse is the JSON response for POST /game/command.
type CommandResponse struct {
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// handleGameCommand handles POST /game/command. Location commands are
// served from the store; any other prompt is passed to the assistant.
func (g *Gateway) handleGameCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	prompt := strings.TrimSpace(req.Prompt)
	lower := strings.ToLower(prompt)

	switch {
	case strings.HasPrefix(lower, "save location "):
		g.handleSaveLocation(w, r, strings.TrimSpace(prompt[len("save location "):]), req.PlayerCoordinates)
	case strings.HasPrefix(lower, "find location "):
		g.handleFindLocation(w, r, strings.TrimSpace(prompt[len("find location "):]))
	case lower == "list locations":
		g.handleListLocations(w, r)
	default:
		reply, err := g.service.Chat(r.Context(), prompt)
		if err != nil {
			g.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, CommandResponse{Message: reply})
	}
}

func (g *Gateway) handleSaveLocation(w http.ResponseWriter, r *http.Request, name string, coords *Coordinates) {
	if name == "" {
		writeErrorDetail(w, http.StatusUnprocessableEntity, "location name is required")
		return
	}
	if coords == nil {
		writeErrorDetail(w, http.StatusUnprocessableEntity, "player_coordinates are required to save a location")
		return
	}

	loc := &store.Location{
		Name:      name,
		X:         coords.X,
		Y:         coords.Y,
		Z:         coords.Z,
		Dimension: coords.Dimension,
	}
	if err := g.store.SaveLocation(r.Context(), loc); err != nil {
		g.logger.Error("save location failed", "name", name, "error", err)
		writeErrorDetail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, CommandResponse{
		Message: fmt.Sprintf("Saved location %q at (%d, %d, %d).", loc.Name, loc.X, loc.Y, loc.Z),
		Details: locationDetails(loc),
	})
}

func (g *Gateway) handleFindLocation(w http.ResponseWriter, r *http.Request, name string) {
	if name == "" {
		writeErrorDetail(w, http.StatusUnprocessableEntity, "location name is required")
		return
	}

	loc, err := g.store.GetLocation(r.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		writeErrorDetail(w, http.StatusNotFound, fmt.Sprintf("no location named %q", name))
		return
	}
	if err != nil {
		g.logger.Error("find location failed", "name", name, "error", err)
		writeErrorDetail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, CommandResponse{
		Message: fmt.Sprintf("Location %q is at (%d, %d, %d) in %s.", loc.Name, loc.X, loc.Y, loc.Z, loc.Dimension),
		Details: locationDetails(loc),
	})
}

func (g *Gateway) handleListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := g.store.ListLocations(r.Context())
	if err != nil {
		g.logger.Error("list locations failed", "error", err)
		writeErrorDetail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	names := make([]string, 0, len(locations))
	for _, loc := range locations {
		names = append(names, loc.Name)
	}

	message := "No locations saved yet."
	if len(names) > 0 {
		message = "Saved locations: " + strings.Join(names, ", ")
	}
	writeJSON(w, http.StatusOK, CommandResponse{
		Message: message,
		Details: map[string]any{"count": len(names)},
	})
}

// locationDetails renders a location for the details field.
func locationDetails(loc *store.Location) map[string]any {
	dimension := loc.Dimension
	if dimension == "" {
		dimension = "overworld"
	}
	return map[string]any{
		"name":      loc.Name,
		"x":         loc.X,
		"y":         loc.Y,
		"z":         loc.Z,
		"dimension": dimension,
	}
}
