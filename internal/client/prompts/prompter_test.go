package prompts

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompter_Line(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("  alice \n"), &out)

	answer, err := p.Line("Username")
	require.NoError(t, err)
	assert.Equal(t, "alice", answer)
	assert.Equal(t, "Username: ", out.String())
}

func TestPrompter_Line_Empty(t *testing.T) {
	p := New(strings.NewReader("\n"), &bytes.Buffer{})

	_, err := p.Line("Username")
	assert.EqualError(t, err, "username cannot be empty")
}

func TestPrompter_Line_NoInput(t *testing.T) {
	p := New(strings.NewReader(""), &bytes.Buffer{})

	_, err := p.Line("Username")
	assert.EqualError(t, err, "no input")
}

func TestPrompter_Secret_NotTerminal(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("alice\ns3cret"), &out)

	user, err := p.Line("Username")
	require.NoError(t, err)
	pass, err := p.Secret("Password")
	require.NoError(t, err)

	assert.Equal(t, "alice", user)
	assert.Equal(t, "s3cret", pass)
	assert.Equal(t, "Username: Password: ", out.String())
}

func TestPrompter_Confirm(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"yes\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"maybe\n", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			p := New(strings.NewReader(tt.input), &out)
			assert.Equal(t, tt.expected, p.Confirm("Reload users", "https://gate.example.com"))
			assert.Equal(t, "Reload users on https://gate.example.com? [y/N]: ", out.String())
		})
	}
}
