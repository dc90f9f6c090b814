package net

import (
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"motion-arena/server"
	"motion-arena/server/internal/ai"
	"motion-arena/server/internal/net/ws"
	"motion-arena/server/internal/sim"
	"motion-arena/server/internal/telemetry"
	"motion-arena/server/logging"
)

type HTTPHandlerConfig struct {
	ClientDir string
	Logger    telemetry.Logger
	Publisher logging.Publisher
	// RouterStats reports logging router counters on /diagnostics.
	RouterStats func() logging.RouterStats
}

type createRoomRequest struct {
	Game       sim.Game      `json:"game"`
	Difficulty ai.Difficulty `json:"difficulty,omitempty"`
}

type createRoomResponse struct {
	Code    string   `json:"code"`
	Channel string   `json:"channel"`
	Game    sim.Game `json:"game"`
}

type controlResponse struct {
	Action  string    `json:"action"`
	Success bool      `json:"success"`
	Reason  string    `json:"reason,omitempty"`
	Phase   sim.Phase `json:"phase"`
}

func NewHTTPHandler(hub *server.Hub, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.Nop()
	}

	router := httprouter.New()

	router.GET("/health", func(w nethttp.ResponseWriter, r *nethttp.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	router.GET("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request, _ httprouter.Params) {
		payload := struct {
			Status string `json:"status"`
			server.Diagnostics
			Logging *logging.RouterStats `json:"logging,omitempty"`
		}{
			Status:      "ok",
			Diagnostics: hub.Diagnostics(),
		}
		if cfg.RouterStats != nil {
			stats := cfg.RouterStats()
			payload.Logging = &stats
		}
		writeJSON(w, nethttp.StatusOK, payload)
	})

	router.GET("/games", func(w nethttp.ResponseWriter, r *nethttp.Request, _ httprouter.Params) {
		writeJSON(w, nethttp.StatusOK, struct {
			Games []sim.Game `json:"games"`
		}{Games: sim.Games()})
	})

	router.GET("/rooms", func(w nethttp.ResponseWriter, r *nethttp.Request, _ httprouter.Params) {
		writeJSON(w, nethttp.StatusOK, struct {
			Rooms []server.RoomSummary `json:"rooms"`
		}{Rooms: hub.Rooms()})
	})

	router.POST("/rooms", func(w nethttp.ResponseWriter, r *nethttp.Request, _ httprouter.Params) {
		var req createRoomRequest
		if r.Body != nil {
			defer r.Body.Close()
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
				httpError(w, "invalid payload", nethttp.StatusBadRequest)
				return
			}
		}
		var opts []server.RoomOption
		if d := strings.ToLower(strings.TrimSpace(string(req.Difficulty))); d != "" {
			opts = append(opts, server.WithBotDifficulty(ai.Difficulty(d)))
		}
		room, err := hub.CreateRoom(sim.Game(strings.ToLower(strings.TrimSpace(string(req.Game)))), opts...)
		if err != nil {
			if errors.Is(err, sim.ErrUnknownGame) || errors.Is(err, sim.ErrInvalidTuning) || errors.Is(err, ai.ErrUnknownDifficulty) {
				httpError(w, err.Error(), nethttp.StatusBadRequest)
				return
			}
			logger.Printf("failed to create room: %v", err)
			httpError(w, "failed to create room", nethttp.StatusServiceUnavailable)
			return
		}
		writeJSON(w, nethttp.StatusCreated, createRoomResponse{
			Code:    room.Code(),
			Channel: room.Channel(),
			Game:    room.Game(),
		})
	})

	router.GET("/rooms/:code", func(w nethttp.ResponseWriter, r *nethttp.Request, ps httprouter.Params) {
		room, ok := hub.Room(ps.ByName("code"))
		if !ok {
			httpError(w, "unknown room", nethttp.StatusNotFound)
			return
		}
		writeJSON(w, nethttp.StatusOK, room.Snapshot())
	})

	router.DELETE("/rooms/:code", func(w nethttp.ResponseWriter, r *nethttp.Request, ps httprouter.Params) {
		if err := hub.CloseRoom(ps.ByName("code")); err != nil {
			httpError(w, "unknown room", nethttp.StatusNotFound)
			return
		}
		w.WriteHeader(nethttp.StatusNoContent)
	})

	router.POST("/rooms/:code/:action", func(w nethttp.ResponseWriter, r *nethttp.Request, ps httprouter.Params) {
		room, ok := hub.Room(ps.ByName("code"))
		if !ok {
			httpError(w, "unknown room", nethttp.StatusNotFound)
			return
		}
		action := ps.ByName("action")
		result, err := room.Control(action)
		if err != nil {
			if errors.Is(err, server.ErrUnknownAction) {
				httpError(w, "unknown action", nethttp.StatusBadRequest)
				return
			}
			logger.Printf("room %s action %s failed: %v", room.Code(), action, err)
			httpError(w, "action failed", nethttp.StatusConflict)
			return
		}
		status := nethttp.StatusOK
		if !result.Success {
			status = nethttp.StatusConflict
		}
		writeJSON(w, status, controlResponse{
			Action:  action,
			Success: result.Success,
			Reason:  result.Reason,
			Phase:   result.Phase,
		})
	})

	broker := ws.NewHandler(hub, ws.HandlerConfig{Logger: logger, Publisher: cfg.Publisher})
	router.Handler(nethttp.MethodGet, "/rooms/:code/ws", nethttp.HandlerFunc(broker.Handle))

	if cfg.ClientDir != "" {
		router.NotFound = nethttp.FileServer(nethttp.Dir(cfg.ClientDir))
	}

	return router
}

func writeJSON(w nethttp.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		httpError(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	nethttp.Error(w, msg, code)
}
