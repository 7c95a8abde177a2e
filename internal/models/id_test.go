package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDAcceptsNumbersAndStrings(t *testing.T) {
	var msg ChatMessage
	require.NoError(t, json.Unmarshal([]byte(`{"mensagemId":42,"grupoId":"7","usuarioId":null,"texto":"hi"}`), &msg))

	require.Equal(t, ID("42"), msg.ID)
	require.Equal(t, ID("7"), msg.GroupID)
	require.Equal(t, ID(""), msg.AuthorID)
}

func TestIDMarshalKeepsNumericShape(t *testing.T) {
	out, err := json.Marshal(struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}{A: "12", B: "tmp-1", C: ""})
	require.NoError(t, err)
	require.JSONEq(t, `{"a":12,"b":"tmp-1","c":null}`, string(out))
}

func TestChatGroupEnabledDefaultsTrue(t *testing.T) {
	var d *EventDraft
	require.True(t, d.ChatGroupEnabled())

	off := false
	require.False(t, (&EventDraft{CreateChatGroup: &off}).ChatGroupEnabled())
}
