package monitor

import (
	"sync"
	"time"

	"digital.vasic.harness/pkg/display"
	"digital.vasic.harness/pkg/payload"
	"digital.vasic.harness/pkg/session"
)

// Run states shown on the dashboard.
const (
	StatusIdle    = "idle"
	StatusRunning = "running"
	StatusPass    = "pass"
	StatusFail    = "fail"
)

// MetaEntry is one key/value pair in first-set order.
type MetaEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// DashboardSummary holds aggregate stats for the dashboard.
type DashboardSummary struct {
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	PassRate float64 `json:"pass_rate"`
}

// ResultState is the state of the result overlay.
type ResultState struct {
	Visible bool         `json:"visible"`
	Mode    string       `json:"mode,omitempty"`
	Code    *CodeImage   `json:"code,omitempty"`
	Box     *display.Box `json:"box,omitempty"`
}

// DashboardData is a snapshot of everything a page shows. New
// pages are initialized from it.
type DashboardData struct {
	RunID     string           `json:"run_id"`
	Status    string           `json:"status"`
	Meta      []MetaEntry      `json:"meta"`
	Cases     []display.Row    `json:"cases"`
	Summary   DashboardSummary `json:"summary"`
	Result    ResultState      `json:"result"`
	Log       []string         `json:"log"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Dashboard keeps the current DashboardData up to date from
// events.
type Dashboard struct {
	mu   sync.RWMutex
	data DashboardData
}

// NewDashboard creates an idle dashboard.
func NewDashboard(runID string) *Dashboard {
	return &Dashboard{data: DashboardData{
		RunID:     runID,
		Status:    StatusIdle,
		Meta:      []MetaEntry{},
		Cases:     []display.Row{},
		Log:       []string{},
		UpdatedAt: time.Now(),
	}}
}

// UpdateFromEvent applies a display event.
func (d *Dashboard) UpdateFromEvent(event Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch event.Type {
	case EventMeta:
		d.setMeta(event.Key, event.Value)
	case EventCases:
		d.data.Cases = append([]display.Row{}, event.Rows...)
		d.recalcSummary()
	case EventBig:
		if event.Pass != nil {
			d.data.Status = StatusFail
			if *event.Pass {
				d.data.Status = StatusPass
			}
		}
	case EventLog:
		d.data.Log = append(d.data.Log, event.Line)
		if over := len(d.data.Log) - payload.LogWindow; over > 0 {
			d.data.Log = append([]string{}, d.data.Log[over:]...)
		}
	case EventCode:
		d.data.Result = ResultState{Visible: true, Mode: "code", Code: event.Code}
	case EventBox:
		d.data.Result = ResultState{Visible: true, Mode: "box", Box: event.Box}
	case EventHide:
		d.data.Result.Visible = false
	case EventStatus:
		d.data.Status = event.Value
	default:
		return
	}
	d.data.UpdatedAt = time.Now()
}

func (d *Dashboard) setMeta(key, value string) {
	if key == session.MetaRunID {
		d.data.RunID = value
	}
	for i, m := range d.data.Meta {
		if m.Key == key {
			d.data.Meta[i].Value = value
			return
		}
	}
	d.data.Meta = append(d.data.Meta, MetaEntry{Key: key, Value: value})
}

func (d *Dashboard) recalcSummary() {
	s := DashboardSummary{Total: len(d.data.Cases)}
	for _, row := range d.data.Cases {
		if row.Pass {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	if s.Total > 0 {
		s.PassRate = float64(s.Passed) / float64(s.Total) * 100
	}
	d.data.Summary = s
}

// SetStatus sets the overall run status.
func (d *Dashboard) SetStatus(status string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data.Status = status
	d.data.UpdatedAt = time.Now()
}

// Snapshot returns a deep copy of the current state.
func (d *Dashboard) Snapshot() DashboardData {
	d.mu.RLock()
	defer d.mu.RUnlock()
	snap := d.data
	snap.Meta = append([]MetaEntry{}, d.data.Meta...)
	snap.Cases = append([]display.Row{}, d.data.Cases...)
	snap.Log = append([]string{}, d.data.Log...)
	return snap
}
