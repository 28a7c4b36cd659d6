package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FieldSet is a bitmask of mutable task fields.
type FieldSet uint8

const (
	FieldTitle FieldSet = 1 << iota
	FieldDescription
	FieldStatus
	FieldPriority
	FieldAssignee

	AllTaskFields = FieldTitle | FieldDescription | FieldStatus | FieldPriority | FieldAssignee
)

func (f FieldSet) Has(field FieldSet) bool {
	return f&field == field
}

// NullableID carries a user reference that may be absent, explicitly null,
// or set. It accepts JSON numbers, numeric strings and null; an empty string
// is treated as null.
type NullableID struct {
	Set   bool
	Valid bool
	Value int
}

func NewNullableID(id int) NullableID {
	return NullableID{Set: true, Valid: true, Value: id}
}

func (n *NullableID) UnmarshalJSON(data []byte) error {
	n.Set = true
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		n.Valid, n.Value = false, 0
		return nil
	}

	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			n.Valid, n.Value = false, 0
			return nil
		}
	} else {
		raw = string(data)
	}

	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid user id %s", data)
	}
	n.Valid, n.Value = true, id
	return nil
}

func (n NullableID) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(n.Value)), nil
}

// Ptr returns the referenced id, or nil when unset or null.
func (n NullableID) Ptr() *int {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// TaskPatch is a partial task update. Nil pointers and an unset
// AssignedToID leave the stored value unchanged.
type TaskPatch struct {
	Title        *string    `json:"title" validate:"omitempty,notblank"`
	Description  *string    `json:"description"`
	Status       *Status    `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS COMPLETED"`
	Priority     *Priority  `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	AssignedToID NullableID `json:"assignedToId"`
}

// Fields reports which fields the patch touches.
func (p TaskPatch) Fields() FieldSet {
	var f FieldSet
	if p.Title != nil {
		f |= FieldTitle
	}
	if p.Description != nil {
		f |= FieldDescription
	}
	if p.Status != nil {
		f |= FieldStatus
	}
	if p.Priority != nil {
		f |= FieldPriority
	}
	if p.AssignedToID.Set {
		f |= FieldAssignee
	}
	return f
}

func (p TaskPatch) Empty() bool {
	return p.Fields() == 0
}

// Restrict drops every field not present in allowed.
func (p TaskPatch) Restrict(allowed FieldSet) TaskPatch {
	if !allowed.Has(FieldTitle) {
		p.Title = nil
	}
	if !allowed.Has(FieldDescription) {
		p.Description = nil
	}
	if !allowed.Has(FieldStatus) {
		p.Status = nil
	}
	if !allowed.Has(FieldPriority) {
		p.Priority = nil
	}
	if !allowed.Has(FieldAssignee) {
		p.AssignedToID = NullableID{}
	}
	return p
}

// MarshalJSON emits only the fields the patch sets, so an untouched
// assignee is not sent as an explicit null.
func (p TaskPatch) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, 5)
	if p.Title != nil {
		out["title"] = *p.Title
	}
	if p.Description != nil {
		out["description"] = *p.Description
	}
	if p.Status != nil {
		out["status"] = *p.Status
	}
	if p.Priority != nil {
		out["priority"] = *p.Priority
	}
	if p.AssignedToID.Set {
		out["assignedToId"] = p.AssignedToID
	}
	return json.Marshal(out)
}

// TaskPatchBody is an update request whose field values have not been
// decoded yet, keyed by JSON name.
type TaskPatchBody map[string]json.RawMessage

var patchKeys = []struct {
	name  string
	field FieldSet
}{
	{"title", FieldTitle},
	{"description", FieldDescription},
	{"status", FieldStatus},
	{"priority", FieldPriority},
	{"assignedToId", FieldAssignee},
}

// Decode drops every key outside allowed, then decodes what is left. A
// malformed value in a dropped key is never looked at.
func (b TaskPatchBody) Decode(allowed FieldSet) (TaskPatch, error) {
	kept := make(map[string]json.RawMessage, len(patchKeys))
	for _, k := range patchKeys {
		if raw, ok := b[k.name]; ok && allowed.Has(k.field) {
			kept[k.name] = raw
		}
	}
	var p TaskPatch
	if len(kept) == 0 {
		return p, nil
	}
	raw, err := json.Marshal(kept)
	if err != nil {
		return TaskPatch{}, err
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return TaskPatch{}, err
	}
	return p, nil
}
