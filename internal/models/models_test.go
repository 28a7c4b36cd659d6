package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumsValid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleEmployee.Valid())
	assert.False(t, Role("admin").Valid())

	assert.True(t, StatusInProgress.Valid())
	assert.False(t, Status("DONE").Valid())

	assert.True(t, PriorityUrgent.Valid())
	assert.False(t, Priority("").Valid())
}

func TestScopeIncludes(t *testing.T) {
	seven, eight := 7, 8

	all := Scope{}
	assert.True(t, all.Unrestricted())
	assert.True(t, all.Includes(nil))
	assert.True(t, all.Includes(&eight))

	own := AssignedTo(7)
	assert.False(t, own.Unrestricted())
	assert.True(t, own.Includes(&seven))
	assert.False(t, own.Includes(&eight))
	assert.False(t, own.Includes(nil))
}

func TestNullableIDUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    NullableID
		wantErr bool
	}{
		{"absent", `{}`, NullableID{}, false},
		{"null", `{"assignedToId": null}`, NullableID{Set: true}, false},
		{"empty string", `{"assignedToId": ""}`, NullableID{Set: true}, false},
		{"number", `{"assignedToId": 12}`, NullableID{Set: true, Valid: true, Value: 12}, false},
		{"numeric string", `{"assignedToId": "12"}`, NullableID{Set: true, Valid: true, Value: 12}, false},
		{"garbage", `{"assignedToId": "abc"}`, NullableID{}, true},
		{"negative", `{"assignedToId": -3}`, NullableID{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p TaskPatch
			err := json.Unmarshal([]byte(tt.body), &p)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.AssignedToID)
		})
	}
}

func TestTaskPatchRestrict(t *testing.T) {
	var p TaskPatch
	require.NoError(t, json.Unmarshal([]byte(
		`{"title":"x","description":"y","status":"COMPLETED","priority":"LOW","assignedToId":4}`), &p))
	assert.Equal(t, AllTaskFields, p.Fields())

	onlyStatus := p.Restrict(FieldStatus)
	assert.Equal(t, FieldStatus, onlyStatus.Fields())
	assert.Equal(t, StatusCompleted, *onlyStatus.Status)
	assert.Nil(t, onlyStatus.Title)
	assert.False(t, onlyStatus.AssignedToID.Set)

	assert.True(t, p.Restrict(0).Empty())
	// the original patch is untouched
	assert.NotNil(t, p.Title)
}

func TestTaskPatchMarshalOmitsUnset(t *testing.T) {
	status := StatusInProgress
	raw, err := json.Marshal(TaskPatch{Status: &status})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"IN_PROGRESS"}`, string(raw))

	raw, err = json.Marshal(TaskPatch{AssignedToID: NullableID{Set: true}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"assignedToId":null}`, string(raw))

	var back TaskPatch
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, FieldAssignee, back.Fields())
}

func TestTaskPatchBodyDecode(t *testing.T) {
	var body TaskPatchBody
	require.NoError(t, json.Unmarshal([]byte(`{"status":"COMPLETED","title":42,"assignedToId":0}`), &body))

	patch, err := body.Decode(FieldStatus)
	require.NoError(t, err)
	require.NotNil(t, patch.Status)
	assert.Equal(t, StatusCompleted, *patch.Status)
	assert.Nil(t, patch.Title)
	assert.False(t, patch.AssignedToID.Set)

	_, err = body.Decode(FieldStatus | FieldTitle)
	assert.Error(t, err)

	_, err = body.Decode(FieldStatus | FieldAssignee)
	assert.Error(t, err)

	patch, err = TaskPatchBody{}.Decode(FieldStatus)
	require.NoError(t, err)
	assert.True(t, patch.Empty())
}
