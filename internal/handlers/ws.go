package handlers

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/crewcall-dev/crewcall/internal/fanout"
	"github.com/crewcall-dev/crewcall/internal/types"
	"github.com/crewcall-dev/crewcall/internal/utils"
)

var (
	jobClients   = make(map[uint]map[*websocket.Conn]bool)
	jobClientsMu sync.RWMutex
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// BroadcastEvent pushes a fan-out event to every client connected to the
// event's job. Registered as a dispatcher handler at startup; a failed
// write drops that one connection, never the event for the others.
func BroadcastEvent(event fanout.Event) {
	jobClientsMu.RLock()
	clients, exists := jobClients[event.JobID]
	if !exists || len(clients) == 0 {
		jobClientsMu.RUnlock()
		return
	}

	clientsCopy := make([]*websocket.Conn, 0, len(clients))
	for conn := range clients {
		clientsCopy = append(clientsCopy, conn)
	}
	jobClientsMu.RUnlock()

	for _, conn := range clientsCopy {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			log.Warn("failed to set write deadline for broadcast", "error", err)
			continue
		}

		if err := conn.WriteJSON(event); err != nil {
			log.Warn("failed to broadcast event", "job_id", event.JobID, "error", err)

			jobClientsMu.Lock()
			if clients, exists := jobClients[event.JobID]; exists {
				delete(clients, conn)
				if len(clients) == 0 {
					delete(jobClients, event.JobID)
				}
			}
			jobClientsMu.Unlock()
			conn.Close()
		}
	}
}

func WebSocket(c *gin.Context) {
	jobID, err := utils.GetJobID(c)

	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(c)

	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	allowed, err := jobs.IsOrganizerOrMember(userID, jobID)

	if err != nil {
		respondError(c, err)
		return
	}

	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not part of this job's team"})
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			for _, allowedOrigin := range types.AllowedOrigins {
				if origin == allowedOrigin {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "error", err)
		return
	}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Warn("failed to set initial read deadline", "error", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	jobClientsMu.Lock()
	if jobClients[jobID] == nil {
		jobClients[jobID] = make(map[*websocket.Conn]bool)
	}
	jobClients[jobID][conn] = true
	jobClientsMu.Unlock()

	defer func() {
		jobClientsMu.Lock()

		if clients, exists := jobClients[jobID]; exists {
			delete(clients, conn)

			if len(clients) == 0 {
				delete(jobClients, jobID)
			}
		}

		jobClientsMu.Unlock()
		conn.Close()

		log.Info("websocket closed", "job_id", jobID, "user_id", userID)
	}()

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		log.Warn("failed to set write deadline for welcome message", "error", err)
		return
	}

	err = conn.WriteJSON(map[string]string{
		"type":   "connected",
		"job_id": strconv.FormatUint(uint64(jobID), 10),
	})

	if err != nil {
		log.Warn("failed to send welcome message", "error", err)
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	go func() {
		for range ticker.C {
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			break
		}

		// Clients only listen on this channel; anything they send beyond
		// pongs is ignored.
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn("websocket error", "job_id", jobID, "error", err)
			}
			break
		}
	}
}
