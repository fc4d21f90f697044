package ui

import "github.com/desertthunder/spotsync/internal/models"

// statusMsg carries the result of one poll of /status/{task_id}.
type statusMsg struct {
	task *models.Task
	err  error
}

// tickMsg schedules the next poll.
type tickMsg struct{}
