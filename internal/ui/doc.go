// Package ui implements the terminal job monitor behind `spotsync watch`.
//
// [Model] follows bubbletea's Init/Update/View pattern. It polls a job server's /status/{task_id}
// endpoint every [DefaultPollInterval] until the task reaches a terminal status, showing a spinner,
// the job stats and a scrollable viewport of the captured log lines.
//
// Keyboard navigation uses vim-style bindings (j/k, r, q) with contextual help from charmbracelet/bubbles/help.
package ui
