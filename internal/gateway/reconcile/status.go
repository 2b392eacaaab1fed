package reconcile

import "poassistant/internal/gateway/session"

// Save action labels.
const (
	LabelSave   = "Save"
	LabelUpdate = "Update"
	LabelSaved  = "Saved"
)

// CommitStatus describes the save/update action for a session.
type CommitStatus struct {
	Enabled     bool   `json:"enabled"`
	Label       string `json:"label"`
	Unsaved     bool   `json:"unsaved"`
	ProjectName string `json:"projectName,omitempty"`
}

func (e *Engine) Status(st session.State) CommitStatus {
	p, active := e.activeProject(st)
	if !active {
		return CommitStatus{
			Enabled: st.HasArtifacts(),
			Label:   LabelSave,
			Unsaved: st.HasArtifacts(),
		}
	}
	unchanged := IsUnchanged(st, p)
	status := CommitStatus{
		Enabled:     st.HasArtifacts() && !unchanged,
		Label:       LabelUpdate,
		Unsaved:     !unchanged,
		ProjectName: p.Name,
	}
	if unchanged {
		status.Label = LabelSaved
	}
	return status
}

// PendingChanges reports the name of the active project when the session holds
// edits that were not written back to it yet.
func (e *Engine) PendingChanges(st session.State) (string, bool) {
	p, active := e.activeProject(st)
	if !active || !st.HasArtifacts() || IsUnchanged(st, p) {
		return "", false
	}
	return p.Name, true
}
