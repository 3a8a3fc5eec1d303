package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// Keys of the event settings document that have a typed representation.
const (
	settingsKeyAllowAbstractSubmissions = "allowAbstractSubmissions"
	settingsKeyAbstractDeadline         = "abstractDeadline"
	settingsKeyReviewerUserIDs          = "reviewerUserIds"
)

// EventSettings is the typed view of the event settings document. Keys this
// module does not know about are kept in Extra and written back unchanged.
// swagger:model EventSettings
type EventSettings struct {
	AllowAbstractSubmissions bool
	AbstractDeadline         *time.Time
	ReviewerUserIDs          []string
	Extra                    map[string]json.RawMessage
}

// HasReviewer reports whether userID is on the reviewer roster.
func (s EventSettings) HasReviewer(userID string) bool {
	return slices.Contains(s.ReviewerUserIDs, userID)
}

// DeadlinePassed reports whether an abstract deadline is configured and now is after it.
func (s EventSettings) DeadlinePassed(now time.Time) bool {
	return s.AbstractDeadline != nil && now.After(*s.AbstractDeadline)
}

// Merge applies a patch with shallow replace semantics: named keys in the patch
// replace the stored value, every other key is preserved.
func (s EventSettings) Merge(p EventSettingsPatch) EventSettings {
	out := s
	out.ReviewerUserIDs = slices.Clone(s.ReviewerUserIDs)
	if p.AllowAbstractSubmissions != nil {
		out.AllowAbstractSubmissions = *p.AllowAbstractSubmissions
	}
	if p.ClearAbstractDeadline {
		out.AbstractDeadline = nil
	} else if p.AbstractDeadline != nil {
		d := *p.AbstractDeadline
		out.AbstractDeadline = &d
	}
	if len(p.Extra) > 0 {
		out.Extra = make(map[string]json.RawMessage, len(s.Extra)+len(p.Extra))
		for k, v := range s.Extra {
			out.Extra[k] = v
		}
		for k, v := range p.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// MarshalJSON writes the typed keys alongside the passthrough keys.
func (s EventSettings) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Extra)+3)
	for k, v := range s.Extra {
		out[k] = v
	}
	out[settingsKeyAllowAbstractSubmissions] = s.AllowAbstractSubmissions
	out[settingsKeyAbstractDeadline] = s.AbstractDeadline
	ids := s.ReviewerUserIDs
	if ids == nil {
		ids = []string{}
	}
	out[settingsKeyReviewerUserIDs] = ids
	return json.Marshal(out)
}

// UnmarshalJSON validates the typed keys and keeps the rest in Extra.
func (s *EventSettings) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("event settings: %w", err)
	}
	*s = EventSettings{}
	if v, ok := raw[settingsKeyAllowAbstractSubmissions]; ok {
		delete(raw, settingsKeyAllowAbstractSubmissions)
		if !isJSONNull(v) {
			if err := json.Unmarshal(v, &s.AllowAbstractSubmissions); err != nil {
				return fmt.Errorf("event settings %s: %w", settingsKeyAllowAbstractSubmissions, err)
			}
		}
	}
	if v, ok := raw[settingsKeyAbstractDeadline]; ok {
		delete(raw, settingsKeyAbstractDeadline)
		if !isJSONNull(v) {
			var d time.Time
			if err := json.Unmarshal(v, &d); err != nil {
				return fmt.Errorf("event settings %s: %w", settingsKeyAbstractDeadline, err)
			}
			s.AbstractDeadline = &d
		}
	}
	if v, ok := raw[settingsKeyReviewerUserIDs]; ok {
		delete(raw, settingsKeyReviewerUserIDs)
		if !isJSONNull(v) {
			if err := json.Unmarshal(v, &s.ReviewerUserIDs); err != nil {
				return fmt.Errorf("event settings %s: %w", settingsKeyReviewerUserIDs, err)
			}
		}
	}
	if len(raw) > 0 {
		s.Extra = raw
	}
	return nil
}

// EventSettingsPatch is a partial settings update. The roster is not part of
// it; reviewers are managed through the provisioning workflow.
type EventSettingsPatch struct {
	AllowAbstractSubmissions *bool
	AbstractDeadline         *time.Time
	ClearAbstractDeadline    bool
	Extra                    map[string]json.RawMessage
}

// IsEmpty reports whether the patch changes nothing.
func (p EventSettingsPatch) IsEmpty() bool {
	return p.AllowAbstractSubmissions == nil && p.AbstractDeadline == nil && !p.ClearAbstractDeadline && len(p.Extra) == 0
}

// Validate rejects extension keys that collide with the typed keys.
func (p EventSettingsPatch) Validate() error {
	for k := range p.Extra {
		switch k {
		case settingsKeyAllowAbstractSubmissions, settingsKeyAbstractDeadline, settingsKeyReviewerUserIDs:
			return NewError(ErrInvalidInput, "%q cannot be set as an extra settings key", k)
		}
	}
	return nil
}

// MarshalJSON writes only the keys the patch sets, ready for a shallow merge.
func (p EventSettingsPatch) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Extra)+2)
	for k, v := range p.Extra {
		out[k] = v
	}
	if p.AllowAbstractSubmissions != nil {
		out[settingsKeyAllowAbstractSubmissions] = *p.AllowAbstractSubmissions
	}
	if p.ClearAbstractDeadline {
		out[settingsKeyAbstractDeadline] = nil
	} else if p.AbstractDeadline != nil {
		out[settingsKeyAbstractDeadline] = p.AbstractDeadline.UTC()
	}
	return json.Marshal(out)
}

func isJSONNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}
