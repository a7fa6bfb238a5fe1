package net

import (
	"encoding/json"
	"fmt"
	"image/png"
	"log"
	"sync"

	"pixelcraft/internal/export"
	"pixelcraft/internal/state"

	"github.com/gorilla/websocket"
)

// inbound is a client event. Data is base64 in JSON.
type inbound struct {
	Type  string  `json:"type"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Tool  string  `json:"tool,omitempty"`
	Color string  `json:"color,omitempty"`
	Size  int     `json:"size,omitempty"`
	Data  []byte  `json:"data,omitempty"`
	ID    int     `json:"id,omitempty"`
	OK    bool    `json:"ok,omitempty"`
}

// outbound is a server message sent as a text frame. Canvas frames go out
// as binary PNG frames instead.
type outbound struct {
	Type     string `json:"type"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Tool     string `json:"tool,omitempty"`
	Color    string `json:"color,omitempty"`
	Size     int    `json:"size,omitempty"`
	Grid     bool   `json:"grid,omitempty"`
	ID       int    `json:"id,omitempty"`
	Prompt   string `json:"prompt,omitempty"`
	Filename string `json:"filename,omitempty"`
	Data     []byte `json:"data,omitempty"`
	Text     string `json:"text,omitempty"`
}

// session is one browser tab driving its own editor.
type session struct {
	conn   *websocket.Conn
	editor *state.Editor
	frames export.PNG

	writeMu sync.Mutex

	confirmMu   sync.Mutex
	nextConfirm int
	confirms    map[int]func(bool)
}

func newSession(conn *websocket.Conn, cfg state.Config) (*session, error) {
	s := &session{
		conn:     conn,
		frames:   export.PNG{Level: png.BestSpeed},
		confirms: make(map[int]func(bool)),
	}
	editor, err := state.New(cfg, state.Services{
		Encoder:    export.PNG{},
		Decoder:    export.PNG{},
		Downloader: s,
		Confirmer:  s,
	})
	if err != nil {
		return nil, err
	}
	s.editor = editor
	editor.OnChange(s.sendFrame)
	editor.OnStatus(s.status)
	return s, nil
}

func (s *session) ID() string { return s.editor.ID() }

func (s *session) writeJSON(msg outbound) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(msg)
}

func (s *session) sendFrame() {
	data, err := s.frames.Encode(s.editor.Display())
	if err != nil {
		log.Printf("[WS %s] encode frame: %v", s.ID(), err)
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		log.Printf("[WS %s] send frame: %v", s.ID(), err)
	}
}

func (s *session) sendState() {
	w, h := s.editor.Size()
	err := s.writeJSON(outbound{
		Type:   "state",
		Width:  w,
		Height: h,
		Tool:   s.editor.Tool().String(),
		Color:  state.Hex(s.editor.Color()),
		Size:   s.editor.BrushSize(),
		Grid:   s.editor.GridVisible(),
	})
	if err != nil {
		log.Printf("[WS %s] send state: %v", s.ID(), err)
	}
}

func (s *session) status(text string) {
	if err := s.writeJSON(outbound{Type: "status", Text: text}); err != nil {
		log.Printf("[WS %s] send status: %v", s.ID(), err)
	}
}

// Download implements state.Downloader by pushing the file to the browser.
func (s *session) Download(data []byte, filename string) error {
	return s.writeJSON(outbound{Type: "download", Filename: filename, Data: data})
}

// Confirm implements state.Confirmer. The answer arrives later as a
// "confirm" event carrying the same id.
func (s *session) Confirm(prompt string, answer func(bool)) {
	s.confirmMu.Lock()
	s.nextConfirm++
	id := s.nextConfirm
	s.confirms[id] = answer
	s.confirmMu.Unlock()

	if err := s.writeJSON(outbound{Type: "confirm", ID: id, Prompt: prompt}); err != nil {
		log.Printf("[WS %s] send confirm: %v", s.ID(), err)
		s.answer(id, false)
	}
}

func (s *session) answer(id int, ok bool) {
	s.confirmMu.Lock()
	fn, found := s.confirms[id]
	delete(s.confirms, id)
	s.confirmMu.Unlock()
	if found {
		fn(ok)
	}
}

// declinePending answers every open prompt with no.
func (s *session) declinePending() {
	s.confirmMu.Lock()
	pending := s.confirms
	s.confirms = make(map[int]func(bool))
	s.confirmMu.Unlock()
	for _, fn := range pending {
		fn(false)
	}
}

var handlers = map[string]func(*session, inbound){
	"down": func(s *session, m inbound) {
		s.editor.BeginStroke(state.Point{X: m.X, Y: m.Y})
	},
	"move": func(s *session, m inbound) {
		s.editor.ContinueStroke(state.Point{X: m.X, Y: m.Y})
	},
	"up":    func(s *session, _ inbound) { s.editor.EndStroke() },
	"leave": func(s *session, _ inbound) { s.editor.EndStroke() },
	"tool":  (*session).selectTool,
	"color": (*session).setColor,
	"size": func(s *session, m inbound) {
		s.editor.SetBrushSize(m.Size)
		s.sendState()
	},
	"save": func(s *session, _ inbound) { s.export(export.PNG{}) },
	"pdf":  func(s *session, _ inbound) { s.export(export.PDF{Title: "PixelCraft"}) },
	"file": func(s *session, m inbound) {
		// the read loop keeps running; the editor refuses strokes meanwhile
		go s.importFile(m.Data)
	},
	"confirm": func(s *session, m inbound) { s.answer(m.ID, m.OK) },
}

func (s *session) handle(m inbound) {
	h, ok := handlers[m.Type]
	if !ok {
		log.Printf("[WS %s] ignoring %q event", s.ID(), m.Type)
		return
	}
	h(s, m)
}

func (s *session) selectTool(m inbound) {
	tool, err := state.ParseTool(m.Tool)
	if err != nil {
		log.Printf("[WS %s] %v", s.ID(), err)
		return
	}
	s.editor.SelectTool(tool)
	s.sendState()
}

func (s *session) setColor(m inbound) {
	c, err := state.ParseHex(m.Color)
	if err != nil {
		log.Printf("[WS %s] %v", s.ID(), err)
		return
	}
	s.editor.SetColor(c)
	s.sendState()
}

func (s *session) export(enc state.Encoder) {
	name, err := s.editor.ExportWith(enc)
	if err != nil {
		log.Printf("[WS %s] export: %v", s.ID(), err)
		s.status("Export failed")
		return
	}
	s.status("Saved " + name)
}

func (s *session) importFile(data []byte) {
	if err := s.editor.ImportImage(data); err != nil {
		log.Printf("[WS %s] import: %v", s.ID(), err)
		s.status("Could not load image")
		return
	}
	s.status(fmt.Sprintf("Loaded %d bytes", len(data)))
}

// run processes events in arrival order until the connection drops.
func (s *session) run() {
	s.sendState()
	s.sendFrame()
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS %s] read: %v", s.ID(), err)
			}
			s.declinePending()
			return
		}
		var m inbound
		if err := json.Unmarshal(data, &m); err != nil {
			log.Printf("[WS %s] dropping malformed event: %v", s.ID(), err)
			continue
		}
		s.handle(m)
	}
}
