package controllers

import (
	"time"

	"github.com/zaqqye/toolcrib/internal/models"
	"github.com/zaqqye/toolcrib/internal/ws"
)

func broadcastToolStatus(hubs *ws.Hubs, eventType string, tool models.Tool, asg *models.Assignment) {
	if hubs == nil {
		return
	}
	ev := ws.ToolEvent{
		Type:     eventType,
		ToolID:   tool.ID,
		ToolName: tool.Name,
		Workshop: tool.Workshop,
		Status:   tool.Status,
		At:       time.Now().UTC(),
	}
	if asg != nil {
		ev.AssignmentID = asg.ID
		ev.StudentID = asg.StudentID
	}
	hubs.Tools.Broadcast(ev)
}

// notifyStudent tells the student holding asg what happened to it.
func notifyStudent(hubs *ws.Hubs, msgType string, tool models.Tool, asg models.Assignment, text string) {
	if hubs == nil || asg.StudentID == "" {
		return
	}
	hubs.Users.Notify(asg.StudentID, ws.UserMessage{
		Type:         msgType,
		ToolID:       tool.ID,
		AssignmentID: asg.ID,
		Message:      text,
	})
}
