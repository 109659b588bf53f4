// Copyright 2026 The mindrouter Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/thinkmate/mindrouter/internal/hooks"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The feed is read-only progress data served to local tooling.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
	wsSendBuffer   = 64
)

// handleEvents streams task lifecycle events over a websocket. An
// optional task_id query parameter narrows the feed to one task.
func (s *Server) handleEvents(c *gin.Context) {
	if s.bus == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event feed not available"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warnf("Websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	taskID := c.Query("task_id")
	var filter func(*hooks.EventContext) bool
	if taskID != "" {
		filter = func(e *hooks.EventContext) bool { return e.TaskID == taskID }
	}

	send := make(chan []byte, wsSendBuffer)
	forward := func(e *hooks.EventContext) {
		select {
		case send <- e.Encode():
		default:
			// Slow consumer; drop rather than stall the bus.
		}
	}

	events := []hooks.Event{
		hooks.EventTaskCreated,
		hooks.EventStepStarted,
		hooks.EventStepCompleted,
		hooks.EventStepFailed,
		hooks.EventTaskCompleted,
		hooks.EventTaskFailed,
		hooks.EventTaskCancelled,
	}
	subs := make([]*hooks.Subscription, 0, len(events))
	for _, ev := range events {
		subs = append(subs, s.bus.SubscribeWithFilter(ev, forward, filter))
	}
	defer func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}()

	// Reader goroutine detects the peer closing the connection.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case msg := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
