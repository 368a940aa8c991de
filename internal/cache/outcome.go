package cache

import (
	"encoding/json"
	"fmt"
)

// Outcome classifies the result of one caching operation. The variant
// set is closed; Render matches every variant exhaustively, so adding
// one is a compile-visible change.
type Outcome interface {
	outcome()
}

// Success reports a package cached (or already present) with its docs.
type Success struct {
	Name    string
	Version string
}

// Updated reports a completed in-place refresh of a cached package.
type Updated struct {
	Name    string
	Version string
}

// WorkspaceDetected reports that the acquired source is a multi-member
// workspace, so no docs were generated; the caller must pick members.
type WorkspaceDetected struct {
	Name    string
	Version string
	Source  string
	Members []string
	Updated bool
}

// MembersCached reports that every requested workspace member was cached.
type MembersCached struct {
	Name    string
	Version string
	Members []string
	Updated bool
}

// PartialFailure reports a member fan-out where some members cached and
// some failed, itemized per member.
type PartialFailure struct {
	Name    string
	Version string
	Cached  []string
	Errors  []string
	Updated bool
}

// Failure is the terminal error outcome carrying a readable message.
type Failure struct {
	Message string
}

func (Success) outcome()           {}
func (Updated) outcome()           {}
func (WorkspaceDetected) outcome() {}
func (MembersCached) outcome()     {}
func (PartialFailure) outcome()    {}
func (Failure) outcome()           {}

// Render serializes an outcome into the single JSON document handed back
// to callers, tagged with a status field.
func Render(o Outcome) string {
	var payload any
	switch v := o.(type) {
	case Success:
		payload = struct {
			Status  string `json:"status"`
			Name    string `json:"name"`
			Version string `json:"version"`
		}{"success", v.Name, v.Version}
	case Updated:
		payload = struct {
			Status  string `json:"status"`
			Name    string `json:"name"`
			Version string `json:"version"`
		}{"updated", v.Name, v.Version}
	case WorkspaceDetected:
		payload = struct {
			Status  string   `json:"status"`
			Name    string   `json:"name"`
			Version string   `json:"version"`
			Source  string   `json:"source"`
			Members []string `json:"members"`
			Updated bool     `json:"updated"`
		}{"workspace_detected", v.Name, v.Version, v.Source, v.Members, v.Updated}
	case MembersCached:
		payload = struct {
			Status  string   `json:"status"`
			Name    string   `json:"name"`
			Version string   `json:"version"`
			Members []string `json:"members"`
			Updated bool     `json:"updated"`
		}{"members_cached", v.Name, v.Version, v.Members, v.Updated}
	case PartialFailure:
		payload = struct {
			Status  string   `json:"status"`
			Name    string   `json:"name"`
			Version string   `json:"version"`
			Cached  []string `json:"cached"`
			Errors  []string `json:"errors"`
			Updated bool     `json:"updated"`
		}{"partial_failure", v.Name, v.Version, v.Cached, v.Errors, v.Updated}
	case Failure:
		payload = struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		}{"error", v.Message}
	default:
		payload = struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		}{"error", fmt.Sprintf("unrenderable outcome %T", o)}
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"status":"error","message":%q}`, err.Error())
	}
	return string(data)
}
