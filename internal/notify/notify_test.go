package notify

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.Notify("Oak added")
	c.Notify("Unable to find your location")

	out := buf.String()
	assert.Contains(t, out, "Oak added")
	assert.Contains(t, out, "Unable to find your location")
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestDesktop(t *testing.T) {
	d := NewDesktop(nil)
	var title, body string
	d.send = func(t, b string) error {
		title, body = t, b
		return nil
	}

	d.Notify("Pine\n  added")
	assert.Equal(t, Title, title)
	assert.Equal(t, "Pine added", body)

	d.send = func(string, string) error { return errors.New("no dbus") }
	assert.NotPanics(t, func() { d.Notify("ignored") })
}

func TestMultiAndRecorder(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	m := Multi{a, nil, b}
	m.Notify("one")
	m.Notify("two")

	assert.Equal(t, []string{"one", "two"}, a.Drain())
	assert.Empty(t, a.Drain())
	assert.Equal(t, []string{"one", "two"}, b.Drain())
}
