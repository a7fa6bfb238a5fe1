package net

import (
	"bytes"
	"encoding/json"
	"image"
	"image/draw"
	"image/png"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"pixelcraft/internal/state"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type client struct {
	t    *testing.T
	conn *websocket.Conn
}

func connect(t *testing.T, srv *Server) *client {
	t.Helper()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &client{t: t, conn: conn}
}

func (c *client) send(msg map[string]any) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteJSON(msg))
}

// text returns the next text message, skipping canvas frames.
func (c *client) text() outbound {
	c.t.Helper()
	for {
		require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		mt, data, err := c.conn.ReadMessage()
		require.NoError(c.t, err)
		if mt != websocket.TextMessage {
			continue
		}
		var msg outbound
		require.NoError(c.t, json.Unmarshal(data, &msg))
		return msg
	}
}

// frame returns the next canvas frame, skipping text messages.
func (c *client) frame() *image.RGBA {
	c.t.Helper()
	for {
		require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		mt, data, err := c.conn.ReadMessage()
		require.NoError(c.t, err)
		if mt != websocket.BinaryMessage {
			continue
		}
		return decodePNG(c.t, data)
	}
}

func decodePNG(t *testing.T, data []byte) *image.RGBA {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}

func (c *client) handshake() {
	c.t.Helper()
	msg := c.text()
	require.Equal(c.t, "state", msg.Type)
	c.frame()
}

func TestSessionHandshake(t *testing.T) {
	srv := NewServer(state.Config{Width: 120, Height: 80})
	c := connect(t, srv)

	msg := c.text()
	assert.Equal(t, "state", msg.Type)
	assert.Equal(t, 120, msg.Width)
	assert.Equal(t, 80, msg.Height)
	assert.Equal(t, "pencil", msg.Tool)
	assert.Equal(t, "#000000", msg.Color)
	assert.Equal(t, 2, msg.Size)
	assert.False(t, msg.Grid)

	img := c.frame()
	assert.Equal(t, image.Rect(0, 0, 120, 80), img.Bounds())
	assert.Equal(t, state.White, img.RGBAAt(60, 40))
	assert.Eventually(t, func() bool { return srv.Hub().Len() == 1 }, time.Second, 10*time.Millisecond)
}

func TestSessionDrawsStrokes(t *testing.T) {
	c := connect(t, NewServer(state.Config{Width: 100, Height: 100}))
	c.handshake()

	c.send(map[string]any{"type": "size", "size": 6})
	assert.Equal(t, 6, c.text().Size)

	c.send(map[string]any{"type": "down", "x": 20, "y": 20})
	img := c.frame()
	assert.Equal(t, state.Black, img.RGBAAt(20, 20))

	c.send(map[string]any{"type": "move", "x": 80, "y": 20})
	img = c.frame()
	assert.Equal(t, state.Black, img.RGBAAt(50, 20))
	c.send(map[string]any{"type": "up"})

	// moves while idle paint nothing; the next frame comes from the grid
	c.send(map[string]any{"type": "move", "x": 50, "y": 70})
	c.send(map[string]any{"type": "tool", "tool": "grid"})
	img = c.frame()
	assert.Equal(t, state.White, img.RGBAAt(50, 70))
	assert.NotEqual(t, state.White, img.RGBAAt(40, 70))
}

func TestSessionClearNeedsConfirmation(t *testing.T) {
	c := connect(t, NewServer(state.Config{Width: 60, Height: 60}))
	c.handshake()

	c.send(map[string]any{"type": "down", "x": 30, "y": 30})
	require.NotEqual(t, state.White, c.frame().RGBAAt(30, 30))
	c.send(map[string]any{"type": "up"})

	c.send(map[string]any{"type": "tool", "tool": "clear"})
	prompt := c.text()
	require.Equal(t, "confirm", prompt.Type)
	assert.Equal(t, state.ClearPrompt, prompt.Prompt)
	after := c.text()
	assert.Equal(t, "state", after.Type)
	assert.Equal(t, "pencil", after.Tool)

	// decline, then save to observe the canvas
	c.send(map[string]any{"type": "confirm", "id": prompt.ID, "ok": false})
	c.send(map[string]any{"type": "save"})
	dl := c.text()
	require.Equal(t, "download", dl.Type)
	assert.NotEqual(t, state.White, decodePNG(t, dl.Data).RGBAAt(30, 30))
	c.text() // status

	c.send(map[string]any{"type": "tool", "tool": "clear"})
	prompt = c.text()
	require.Equal(t, "confirm", prompt.Type)
	c.send(map[string]any{"type": "confirm", "id": prompt.ID, "ok": true})
	assert.Equal(t, state.White, c.frame().RGBAAt(30, 30))
}

func TestSessionSaveAndLoad(t *testing.T) {
	c := connect(t, NewServer(state.Config{Width: 50, Height: 40}))
	c.handshake()

	c.send(map[string]any{"type": "color", "color": "#ff0000"})
	assert.Equal(t, "#ff0000", c.text().Color)
	c.send(map[string]any{"type": "size", "size": 8})
	c.text()
	c.send(map[string]any{"type": "down", "x": 10, "y": 10})
	c.send(map[string]any{"type": "move", "x": 40, "y": 30})
	c.send(map[string]any{"type": "up"})
	c.send(map[string]any{"type": "save"})

	var dl outbound
	for dl.Type != "download" {
		dl = c.text()
	}
	assert.Regexp(t, regexp.MustCompile(`^pixelcraft_\d+\.png$`), dl.Filename)
	saved := decodePNG(t, dl.Data)
	status := c.text()
	assert.Equal(t, "Saved "+dl.Filename, status.Text)

	c.send(map[string]any{"type": "tool", "tool": "clear"})
	prompt := c.text()
	require.Equal(t, "confirm", prompt.Type)
	c.send(map[string]any{"type": "confirm", "id": prompt.ID, "ok": true})
	require.Equal(t, state.White, c.frame().RGBAAt(25, 20))

	c.send(map[string]any{"type": "file", "data": dl.Data})
	loaded := c.frame()
	assert.Equal(t, saved.Pix, loaded.Pix)
	for {
		msg := c.text()
		if msg.Type == "status" {
			assert.True(t, strings.HasPrefix(msg.Text, "Loaded"), msg.Text)
			break
		}
	}
}

func TestSessionBadInputIsHarmless(t *testing.T) {
	c := connect(t, NewServer(state.Config{Width: 40, Height: 40}))
	c.handshake()

	require.NoError(t, c.conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	c.send(map[string]any{"type": "teleport"})
	c.send(map[string]any{"type": "tool", "tool": "spray"})
	c.send(map[string]any{"type": "color", "color": "chartreuse"})
	c.send(map[string]any{"type": "file", "data": []byte("definitely not an image")})

	var msg outbound
	for msg.Type != "status" {
		msg = c.text()
	}
	assert.Equal(t, "Could not load image", msg.Text)

	c.send(map[string]any{"type": "tool", "tool": "eraser"})
	msg = c.text()
	assert.Equal(t, "state", msg.Type)
	assert.Equal(t, "eraser", msg.Tool)
}

func TestServerServesPage(t *testing.T) {
	ts := httptest.NewServer(NewServer(state.DefaultConfig()).Handler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
	var body bytes.Buffer
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	page := body.String()
	assert.Contains(t, page, "pixelCanvas")
	assert.Contains(t, page, "e.button === 0", "only the primary button starts a stroke")
	assert.Contains(t, page, "painting = painting", "frames paint in arrival order")
	assert.NotContains(t, page, "async (ev)")
}
