package main

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
)

// maxMessageLength bounds a single chat message, in runes.
const maxMessageLength = 1000

// chatMessageResponse is the response body for POST /api/chat/message.
type chatMessageResponse struct {
	Reply     string `json:"reply"`
	SessionID string `json:"session_id"`
	IsCrisis  bool   `json:"is_crisis"`
}

// sendChatMessage handles POST /api/chat/message. A null/absent session_id
// creates a session implicitly. Crisis detection runs before the advisor is
// invoked; a high signal short-circuits the AI entirely and returns the fixed
// crisis response, so an advisor outage can never swallow the safety path.
func (h *Handler) sendChatMessage(c *gin.Context) {
	userID := c.GetString("user_id")

	var body struct {
		SessionID *string `json:"session_id"`
		Message   string  `json:"message"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	message := strings.TrimSpace(body.Message)
	if message == "" {
		apiError(c, http.StatusBadRequest, "message cannot be empty")
		return
	}
	if utf8.RuneCountInString(message) > maxMessageLength {
		apiError(c, http.StatusBadRequest, "message must be 1000 characters or less")
		return
	}

	var sess *chatSession
	if body.SessionID == nil || *body.SessionID == "" {
		sess = h.sessions.create(userID)
	} else {
		var err error
		sess, err = h.sessions.get(*body.SessionID, userID)
		if err != nil {
			apiError(c, http.StatusNotFound, "chat session has expired or does not exist")
			return
		}
	}

	// Serialize handling per session so concurrent sends can't lose updates.
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touch()
	sess.messageCount++

	signal := detectCrisis(message)
	if signal.Severity == severityHigh {
		sess.crisisFlagged = true
		log.Printf("[chat] crisis phrases (%s) matched in session %s: %v",
			crisisPhrasesVersion, sess.id, signal.MatchedPhrases)
		c.JSON(http.StatusCreated, chatMessageResponse{
			Reply:     crisisResponseMessage,
			SessionID: sess.id,
			IsCrisis:  true,
		})
		return
	}

	reply, err := h.advisor.converse(c.Request.Context(), sess.history, message)
	if err != nil {
		log.Printf("[chat] advisor error in session %s: %v", sess.id, err)
		apiError(c, http.StatusBadGateway, "the assistant is unavailable right now, please try again")
		return
	}
	reply = validateReply(reply)

	sess.appendTurns(
		chatTurn{Role: roleUser, Content: message},
		chatTurn{Role: roleAssistant, Content: reply},
	)

	c.JSON(http.StatusCreated, chatMessageResponse{
		Reply:     reply,
		SessionID: sess.id,
		IsCrisis:  sess.crisisFlagged,
	})
}

// endChatSession handles POST /api/chat/end-session. Ending an unknown or
// already-ended session is a 404 so clients can detect double teardown.
func (h *Handler) endChatSession(c *gin.Context) {
	userID := c.GetString("user_id")

	var body struct {
		SessionID string `json:"session_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(body.SessionID) == "" {
		apiError(c, http.StatusBadRequest, "session_id is required")
		return
	}

	if err := h.sessions.end(body.SessionID, userID); err != nil {
		if errors.Is(err, errSessionNotFound) {
			apiError(c, http.StatusNotFound, "chat session has expired or does not exist")
			return
		}
		apiError(c, http.StatusInternalServerError, "failed to end session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Session ended successfully"})
}

// getCrisisResources handles GET /api/chat/crisis-resources?country=C.
// Cache first, AI generation on a miss, and the static fallback list when the
// advisor is unavailable — this endpoint must always return helplines.
func (h *Handler) getCrisisResources(c *gin.Context) {
	country := strings.TrimSpace(c.Query("country"))
	if country == "" {
		country = "India"
	}

	cached, err := h.store.cachedCrisisResources(c.Request.Context(), country)
	if err != nil {
		log.Printf("[crisis] cache lookup failed for %s: %v", country, err)
	}
	if cached != nil {
		c.JSON(http.StatusOK, gin.H{"resources": cached, "source": "cache"})
		return
	}

	resources, err := h.advisor.findCrisisResources(c.Request.Context(), country)
	if err != nil {
		log.Printf("[crisis] generation failed for %s, serving fallback: %v", country, err)
		c.JSON(http.StatusOK, gin.H{"resources": fallbackCrisisResources, "source": "fallback"})
		return
	}

	if err := h.store.cacheCrisisResources(c.Request.Context(), resources); err != nil {
		log.Printf("[crisis] cache write failed: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"resources": resources, "source": "generated"})
}
